package fan

import (
	"codeberg.org/voltshift/stitchd/internal/errors"
)

const (
	// Profile payload errors
	ErrInvalidCurve = errors.ErrorCode("fan_invalid_curve")
	ErrInvalidSpeed = errors.ErrorCode("fan_invalid_speed")

	// Device errors
	ErrDeviceNotFound        = errors.ErrorCode("fan_device_not_found")
	ErrTemperatureReadFailed = errors.ErrorCode("fan_temperature_read_failed")
	ErrSetSpeedFailed        = errors.ErrorCode("fan_set_speed_failed")
)
