package logger

import "codeberg.org/voltshift/stitchd/internal/errors"

// Logger defines the interface for logging operations.
type Logger interface {
	Debug() *LogEvent
	Info() *LogEvent
	Warn() *LogEvent
	Error() *LogEvent
	ErrorWithCode(err errors.Error) *LogEvent
	FatalWithCode(err errors.Error) *LogEvent
	ErrorWithContext(err errors.Error, component, operation string) *LogEvent
}

type stdLogger struct{}

func (stdLogger) Debug() *LogEvent { return Debug() }
func (stdLogger) Info() *LogEvent  { return Info() }
func (stdLogger) Warn() *LogEvent  { return Warn() }
func (stdLogger) Error() *LogEvent { return Error() }

func (stdLogger) ErrorWithCode(err errors.Error) *LogEvent { return ErrorWithCode(err) }
func (stdLogger) FatalWithCode(err errors.Error) *LogEvent { return FatalWithCode(err) }

func (stdLogger) ErrorWithContext(err errors.Error, component, operation string) *LogEvent {
	return ErrorWithContext(err, component, operation)
}

// Default returns a Logger backed by the package-level logger
func Default() Logger {
	return stdLogger{}
}
