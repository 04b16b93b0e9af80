package profiles

import (
	"codeberg.org/voltshift/stitchd/internal/errors"
)

const (
	// Store lifecycle errors
	ErrStoreOpenFailed  = errors.ErrorCode("store_open_failed")
	ErrStoreCloseFailed = errors.ErrorCode("store_close_failed")
	ErrStoreIOFailed    = errors.ErrorCode("store_io_failed")

	// Profile payload errors
	ErrEncodeFailed = errors.ErrorCode("profile_encode_failed")
	ErrDecodeFailed = errors.ErrorCode("profile_decode_failed")
	ErrInvalidName  = errors.ErrorCode("invalid_profile_name")

	// Lookup errors, shared across the IPC boundary
	ErrProfileNotFound = errors.ErrNotFound
	ErrProfileConflict = errors.ErrConflict
)
