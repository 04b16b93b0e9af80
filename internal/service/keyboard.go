package service

import (
	"github.com/godbus/dbus/v5"

	"codeberg.org/voltshift/stitchd/internal/keyboard"
	"codeberg.org/voltshift/stitchd/internal/logger"
	"codeberg.org/voltshift/stitchd/internal/profiles"
)

// keyboardHandler exports keyboard profile management and the manual color
// override on the Keyboard interface
type keyboardHandler struct {
	coordinator *profiles.Coordinator
	engine      *keyboard.Engine
	log         logger.Logger
}

func (h *keyboardHandler) AddProfile(name, value string) *dbus.Error {
	if _, err := keyboard.ParseProfile([]byte(value)); err != nil {
		return busError(err)
	}

	if err := h.coordinator.AddKeyboard(name, []byte(value)); err != nil {
		return busError(err)
	}

	h.log.Debug().Str("profile", name).Msg("Stored keyboard profile")

	return nil
}

func (h *keyboardHandler) GetProfile(name string) (string, *dbus.Error) {
	data, err := h.coordinator.GetKeyboard(name)
	if err != nil {
		return "", busError(err)
	}

	return string(data), nil
}

func (h *keyboardHandler) ListProfiles() ([]string, *dbus.Error) {
	names, err := h.coordinator.ListKeyboard()
	if err != nil {
		return nil, busError(err)
	}

	return names, nil
}

func (h *keyboardHandler) RemoveProfile(name string) *dbus.Error {
	if err := h.coordinator.RemoveKeyboard(name); err != nil {
		return busError(err)
	}

	h.log.Debug().Str("profile", name).Msg("Removed keyboard profile")

	return nil
}

func (h *keyboardHandler) RenameProfile(from, to string) ([]string, *dbus.Error) {
	names, err := h.coordinator.RenameKeyboard(from, to)
	if err != nil {
		return nil, busError(err)
	}

	h.log.Debug().Str("from", from).Str("to", to).Msg("Renamed keyboard profile")

	return names, nil
}

func (h *keyboardHandler) OverrideColor(color string) *dbus.Error {
	c, err := keyboard.ParseColor([]byte(color))
	if err != nil {
		return busError(err)
	}

	if err := h.engine.Override(c); err != nil {
		return busError(err)
	}

	h.log.Info().
		Uint8("r", c.R).
		Uint8("g", c.G).
		Uint8("b", c.B).
		Msg("Keyboard color overridden")

	return nil
}
