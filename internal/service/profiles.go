package service

import (
	"encoding/json"

	"github.com/godbus/dbus/v5"

	"codeberg.org/voltshift/stitchd/internal/errors"
	"codeberg.org/voltshift/stitchd/internal/logger"
	"codeberg.org/voltshift/stitchd/internal/profiles"
)

// profilesHandler exports global profile management on the Profiles
// interface
type profilesHandler struct {
	coordinator *profiles.Coordinator
	log         logger.Logger
}

func (h *profilesHandler) AddProfile(name, value string) *dbus.Error {
	profile, err := parseGlobal([]byte(value))
	if err != nil {
		return busError(err)
	}

	if err := h.coordinator.AddGlobal(name, profile); err != nil {
		return busError(err)
	}

	h.log.Debug().Str("profile", name).Msg("Stored global profile")

	return nil
}

// GetProfile returns the profile re-encoded canonically, not the bytes the
// client originally sent
func (h *profilesHandler) GetProfile(name string) (string, *dbus.Error) {
	profile, err := h.coordinator.GetGlobal(name)
	if err != nil {
		return "", busError(err)
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return "", busError(errors.New().Wrap(errors.ErrInternal, err))
	}

	return string(data), nil
}

func (h *profilesHandler) ListProfiles() ([]string, *dbus.Error) {
	names, err := h.coordinator.ListGlobal()
	if err != nil {
		return nil, busError(err)
	}

	return names, nil
}

func (h *profilesHandler) RemoveProfile(name string) *dbus.Error {
	if err := h.coordinator.RemoveGlobal(name); err != nil {
		return busError(err)
	}

	h.log.Debug().Str("profile", name).Msg("Removed global profile")

	return nil
}

func (h *profilesHandler) RenameProfile(from, to string) ([]string, *dbus.Error) {
	names, err := h.coordinator.RenameGlobal(from, to)
	if err != nil {
		return nil, busError(err)
	}

	h.log.Debug().Str("from", from).Str("to", to).Msg("Renamed global profile")

	return names, nil
}

func (h *profilesHandler) SetActiveProfileName(name string) *dbus.Error {
	if err := h.coordinator.SetActiveProfileName(name); err != nil {
		return busError(err)
	}

	h.log.Info().Str("profile", name).Msg("Active profile changed")

	return nil
}

func (h *profilesHandler) GetActiveProfileName() (string, *dbus.Error) {
	name, err := h.coordinator.ActiveProfileName()
	if err != nil {
		return "", busError(err)
	}

	return name, nil
}

func (h *profilesHandler) Reload() *dbus.Error {
	if err := h.coordinator.Reload(); err != nil {
		return busError(err)
	}

	return nil
}

func parseGlobal(data []byte) (profiles.GlobalProfile, error) {
	errFactory := errors.New()

	var profile profiles.GlobalProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return profiles.GlobalProfile{}, errFactory.Wrap(ErrInvalidPayload, err)
	}

	if profile.Fan == "" || profile.Keyboard == "" {
		return profiles.GlobalProfile{}, errFactory.WithMessage(ErrInvalidPayload,
			"global profile needs fan and keyboard profile names")
	}

	return profile, nil
}
