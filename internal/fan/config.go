package fan

import "codeberg.org/voltshift/stitchd/internal/errors"

const (
	defaultInterval   = 2
	defaultHysteresis = 4
)

type Config struct {
	// Seconds between control loop updates
	Interval int
	// Fan speed change in percent required before a new speed is written
	Hysteresis int
	// Monitor skips all device writes and only logs
	Monitor bool
	// hwmon chip names; autodetected when empty
	Sensor string
	PWM    string
}

func DefaultConfig() Config {
	return Config{
		Interval:   defaultInterval,
		Hysteresis: defaultHysteresis,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.Interval < 1 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}

	if c.Hysteresis < 0 || c.Hysteresis > 50 {
		return errFactory.WithData(errors.ErrInvalidConfig, "fan hysteresis must be between 0 and 50")
	}

	return nil
}
