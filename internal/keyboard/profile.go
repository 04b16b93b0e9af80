package keyboard

import (
	"bytes"
	"encoding/json"
	"fmt"

	"codeberg.org/voltshift/stitchd/internal/errors"
)

type Transition string

const (
	TransitionNone   Transition = "None"
	TransitionLinear Transition = "Linear"
)

// Color is an RGB triple as written to the LED device
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// ColorPoint is one step of an animated profile. The backlight moves to
// Color over TransitionTime milliseconds using the given transition mode.
type ColorPoint struct {
	Color          Color      `json:"color"`
	Transition     Transition `json:"transition"`
	TransitionTime uint64     `json:"transition_time"`
}

// ColorProfile is a keyboard lighting profile payload. It takes one of
// three forms on the wire: the string "None" (backlight off), an object
// {"Single": {...}} holding a steady color, or {"Multiple": [...]} holding
// an animation loop.
type ColorProfile struct {
	Single   *Color
	Multiple []ColorPoint
}

func (p ColorProfile) MarshalJSON() ([]byte, error) {
	switch {
	case p.Single != nil:
		return json.Marshal(struct {
			Single *Color `json:"Single"`
		}{p.Single})
	case p.Multiple != nil:
		return json.Marshal(struct {
			Multiple []ColorPoint `json:"Multiple"`
		}{p.Multiple})
	default:
		return json.Marshal("None")
	}
}

func (p *ColorProfile) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var tag string
		if err := json.Unmarshal(trimmed, &tag); err != nil {
			return err
		}

		if tag != "None" {
			return fmt.Errorf("unknown color profile variant %q", tag)
		}

		p.Single = nil
		p.Multiple = nil

		return nil
	}

	var tagged struct {
		Single   *Color       `json:"Single"`
		Multiple []ColorPoint `json:"Multiple"`
	}
	if err := json.Unmarshal(trimmed, &tagged); err != nil {
		return err
	}

	if tagged.Single != nil && tagged.Multiple != nil {
		return fmt.Errorf("color profile cannot be both Single and Multiple")
	}

	if tagged.Single == nil && tagged.Multiple == nil {
		return fmt.Errorf("color profile must be None, Single, or Multiple")
	}

	p.Single = tagged.Single
	p.Multiple = tagged.Multiple

	return nil
}

// ParseProfile decodes and validates a keyboard profile payload
func ParseProfile(data []byte) (ColorProfile, error) {
	errFactory := errors.New()

	var profile ColorProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return ColorProfile{}, errFactory.Wrap(ErrInvalidProfile, err)
	}

	if err := profile.Validate(); err != nil {
		return ColorProfile{}, err
	}

	return profile, nil
}

// ParseColor decodes a bare color payload as sent by OverrideColor
func ParseColor(data []byte) (Color, error) {
	errFactory := errors.New()

	var color Color
	if err := json.Unmarshal(data, &color); err != nil {
		return Color{}, errFactory.Wrap(ErrInvalidColor, err)
	}

	return color, nil
}

func (p ColorProfile) Validate() error {
	errFactory := errors.New()

	if p.Multiple != nil && len(p.Multiple) == 0 {
		return errFactory.WithMessage(ErrInvalidProfile, "animation must contain at least one point")
	}

	for _, pt := range p.Multiple {
		if pt.Transition != TransitionNone && pt.Transition != TransitionLinear {
			return errFactory.WithData(ErrInvalidProfile,
				fmt.Sprintf("unknown transition %q", pt.Transition))
		}
	}

	return nil
}

// DefaultProfile is seeded as the default keyboard profile on first start
func DefaultProfile() ColorProfile {
	return ColorProfile{Single: &Color{R: 255, G: 255, B: 255}}
}

// DefaultProfileJSON returns the default profile as a stored profile payload
func DefaultProfileJSON() []byte {
	data, _ := json.Marshal(DefaultProfile())
	return data
}
