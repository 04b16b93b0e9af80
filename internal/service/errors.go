package service

import (
	"github.com/godbus/dbus/v5"

	"codeberg.org/voltshift/stitchd/internal/errors"
	"codeberg.org/voltshift/stitchd/internal/fan"
	"codeberg.org/voltshift/stitchd/internal/keyboard"
	"codeberg.org/voltshift/stitchd/internal/profiles"
)

const (
	ErrConnectBus     = errors.ErrorCode("service_connect_bus_failed")
	ErrNameTaken      = errors.ErrorCode("service_name_taken")
	ErrExportFailed   = errors.ErrorCode("service_export_failed")
	ErrInvalidPayload = errors.ErrorCode("service_invalid_payload")
)

// D-Bus error names surfaced to clients
const (
	dbusErrNotFound       = "org.voltshift.Stitch.Error.NotFound"
	dbusErrConflict       = "org.voltshift.Stitch.Error.Conflict"
	dbusErrInvalidProfile = "org.voltshift.Stitch.Error.InvalidProfile"
	dbusErrFailed         = "org.voltshift.Stitch.Error.Failed"
)

// Payload codes that surface to clients as InvalidProfile
var invalidPayloadCodes = []errors.ErrorCode{
	ErrInvalidPayload,
	fan.ErrInvalidCurve,
	fan.ErrInvalidSpeed,
	keyboard.ErrInvalidProfile,
	keyboard.ErrInvalidColor,
	profiles.ErrInvalidName,
	profiles.ErrDecodeFailed,
}

// busError maps a domain error onto a named D-Bus error so clients can
// distinguish outcomes without parsing messages
func busError(err error) *dbus.Error {
	if err == nil {
		return nil
	}

	name := dbusErrFailed
	switch {
	case errors.HasCode(err, errors.ErrNotFound):
		name = dbusErrNotFound
	case errors.HasCode(err, errors.ErrConflict):
		name = dbusErrConflict
	case hasAnyCode(err, invalidPayloadCodes):
		name = dbusErrInvalidProfile
	}

	return dbus.NewError(name, []interface{}{err.Error()})
}

func hasAnyCode(err error, codes []errors.ErrorCode) bool {
	for _, code := range codes {
		if errors.HasCode(err, code) {
			return true
		}
	}

	return false
}
