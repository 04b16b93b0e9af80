package fan

import (
	"encoding/json"
	"fmt"
	"math"

	"codeberg.org/voltshift/stitchd/internal/errors"
)

const (
	maxCurveTemp = 110
	maxFanSpeed  = 100
)

// CurvePoint maps a temperature in degrees Celsius to a fan speed percentage
type CurvePoint struct {
	Temp uint8 `json:"temp"`
	Fan  uint8 `json:"fan"`
}

// Curve is an ordered set of curve points with strictly increasing
// temperatures
type Curve []CurvePoint

// ParseCurve decodes and validates a fan profile payload
func ParseCurve(data []byte) (Curve, error) {
	errFactory := errors.New()

	var curve Curve
	if err := json.Unmarshal(data, &curve); err != nil {
		return nil, errFactory.Wrap(ErrInvalidCurve, err)
	}

	if err := curve.Validate(); err != nil {
		return nil, err
	}

	return curve, nil
}

func (c Curve) Validate() error {
	errFactory := errors.New()

	if len(c) == 0 {
		return errFactory.WithMessage(ErrInvalidCurve, "curve must contain at least one point")
	}

	for i, p := range c {
		if p.Temp > maxCurveTemp {
			return errFactory.WithData(ErrInvalidCurve,
				fmt.Sprintf("temperature %d exceeds %d", p.Temp, maxCurveTemp))
		}

		if p.Fan > maxFanSpeed {
			return errFactory.WithData(ErrInvalidCurve,
				fmt.Sprintf("fan speed %d exceeds %d", p.Fan, maxFanSpeed))
		}

		if i > 0 && c[i-1].Temp >= p.Temp {
			return errFactory.WithData(ErrInvalidCurve, "temperatures must be strictly increasing")
		}
	}

	return nil
}

// SpeedAt interpolates the target speed for a temperature, clamped at the
// curve ends
func (c Curve) SpeedAt(temp float64) uint8 {
	if len(c) == 0 {
		return 0
	}

	if temp <= float64(c[0].Temp) {
		return c[0].Fan
	}

	last := c[len(c)-1]
	if temp >= float64(last.Temp) {
		return last.Fan
	}

	for i := 1; i < len(c); i++ {
		if temp > float64(c[i].Temp) {
			continue
		}

		lower, upper := c[i-1], c[i]
		span := float64(upper.Temp) - float64(lower.Temp)
		frac := (temp - float64(lower.Temp)) / span
		speed := float64(lower.Fan) + frac*(float64(upper.Fan)-float64(lower.Fan))

		return uint8(math.Round(speed))
	}

	return last.Fan
}

// DefaultCurve is seeded as the default fan profile on first start
func DefaultCurve() Curve {
	return Curve{
		{Temp: 30, Fan: 0},
		{Temp: 50, Fan: 35},
		{Temp: 65, Fan: 50},
		{Temp: 75, Fan: 75},
		{Temp: 85, Fan: 100},
	}
}

// DefaultCurveJSON returns the default curve as a stored profile payload
func DefaultCurveJSON() []byte {
	data, _ := json.Marshal(DefaultCurve())
	return data
}
