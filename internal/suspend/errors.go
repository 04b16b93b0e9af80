package suspend

import (
	"codeberg.org/voltshift/stitchd/internal/errors"
)

const (
	// Source connection failures are recoverable and drive the retry budget
	ErrSourceUnreachable = errors.ErrTransportFailure

	// Terminal: the retry budget is spent for this process lifetime
	ErrWatchExhausted = errors.ErrRetriesExhausted
)
