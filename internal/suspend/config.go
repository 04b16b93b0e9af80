package suspend

import (
	"time"

	"codeberg.org/voltshift/stitchd/internal/errors"
)

const (
	defaultAttempts   = 3
	defaultRetryDelay = 10 * time.Second

	// Per-subscriber event buffer; the oldest event is dropped on overflow
	subscriberBuffer = 8
)

type Config struct {
	Attempts   int
	RetryDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		Attempts:   defaultAttempts,
		RetryDelay: defaultRetryDelay,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.Attempts < 1 {
		return errFactory.WithData(errors.ErrInvalidConfig, "suspend attempts must be at least 1")
	}

	if c.RetryDelay < 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, "suspend retry delay must not be negative")
	}

	return nil
}
