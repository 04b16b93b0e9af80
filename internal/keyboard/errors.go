package keyboard

import (
	"codeberg.org/voltshift/stitchd/internal/errors"
)

const (
	// Profile payload errors
	ErrInvalidProfile = errors.ErrorCode("keyboard_invalid_profile")
	ErrInvalidColor   = errors.ErrorCode("keyboard_invalid_color")

	// Device errors
	ErrDeviceNotFound = errors.ErrorCode("keyboard_device_not_found")
	ErrSetColorFailed = errors.ErrorCode("keyboard_set_color_failed")
)
