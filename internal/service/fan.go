package service

import (
	"github.com/godbus/dbus/v5"

	"codeberg.org/voltshift/stitchd/internal/fan"
	"codeberg.org/voltshift/stitchd/internal/logger"
	"codeberg.org/voltshift/stitchd/internal/profiles"
)

// fanHandler exports fan profile management and the manual speed override
// on the Fan interface
type fanHandler struct {
	coordinator *profiles.Coordinator
	engine      *fan.Engine
	log         logger.Logger
}

func (h *fanHandler) AddProfile(name, value string) *dbus.Error {
	if _, err := fan.ParseCurve([]byte(value)); err != nil {
		return busError(err)
	}

	if err := h.coordinator.AddFan(name, []byte(value)); err != nil {
		return busError(err)
	}

	h.log.Debug().Str("profile", name).Msg("Stored fan profile")

	return nil
}

func (h *fanHandler) GetProfile(name string) (string, *dbus.Error) {
	data, err := h.coordinator.GetFan(name)
	if err != nil {
		return "", busError(err)
	}

	return string(data), nil
}

func (h *fanHandler) ListProfiles() ([]string, *dbus.Error) {
	names, err := h.coordinator.ListFan()
	if err != nil {
		return nil, busError(err)
	}

	return names, nil
}

func (h *fanHandler) RemoveProfile(name string) *dbus.Error {
	if err := h.coordinator.RemoveFan(name); err != nil {
		return busError(err)
	}

	h.log.Debug().Str("profile", name).Msg("Removed fan profile")

	return nil
}

func (h *fanHandler) RenameProfile(from, to string) ([]string, *dbus.Error) {
	names, err := h.coordinator.RenameFan(from, to)
	if err != nil {
		return nil, busError(err)
	}

	h.log.Debug().Str("from", from).Str("to", to).Msg("Renamed fan profile")

	return names, nil
}

func (h *fanHandler) OverrideSpeed(speed uint8) *dbus.Error {
	if err := h.engine.Override(speed); err != nil {
		return busError(err)
	}

	h.log.Info().Uint8("speed", speed).Msg("Fan speed overridden")

	return nil
}
