package fan

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"codeberg.org/voltshift/stitchd/internal/errors"
	"codeberg.org/voltshift/stitchd/internal/logger"
)

const (
	hwmonRoot = "/sys/class/hwmon"
	pwmMax    = 255

	attrPerm = 0o644
)

// Preferred package temperature chips, in autodetection order
var preferredSensors = []string{"k10temp", "coretemp", "zenpower", "acpitz"}

// SysfsController reads the package temperature from a hwmon sensor chip and
// drives the fan through a hwmon pwm attribute.
type SysfsController struct {
	tempPath   string
	pwmPath    string
	enablePath string
	enabled    bool
}

func NewSysfsController(cfg Config) (*SysfsController, error) {
	errFactory := errors.New()

	chips, err := scanHwmon()
	if err != nil {
		return nil, errFactory.Wrap(ErrDeviceNotFound, err)
	}

	tempPath := pickSensor(chips, cfg.Sensor)
	if tempPath == "" {
		return nil, errFactory.WithData(ErrDeviceNotFound, "no hwmon temperature sensor")
	}

	pwmPath := pickPWM(chips, cfg.PWM)
	if pwmPath == "" {
		return nil, errFactory.WithData(ErrDeviceNotFound, "no hwmon pwm fan control")
	}

	logger.Info().
		Str("sensor", tempPath).
		Str("pwm", pwmPath).
		Msg("Fan hardware detected")

	return &SysfsController{
		tempPath:   tempPath,
		pwmPath:    pwmPath,
		enablePath: filepath.Join(filepath.Dir(pwmPath), "pwm1_enable"),
	}, nil
}

func (c *SysfsController) Temperature() (float64, error) {
	errFactory := errors.New()

	raw, err := os.ReadFile(c.tempPath)
	if err != nil {
		return 0, errFactory.Wrap(ErrTemperatureReadFailed, err)
	}

	milli, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, errFactory.Wrap(ErrTemperatureReadFailed, err)
	}

	return float64(milli) / 1000.0, nil
}

func (c *SysfsController) SetSpeed(percent uint8) error {
	errFactory := errors.New()

	// Switch the fan to manual control once; chips without pwm1_enable run
	// manual already
	if !c.enabled {
		if err := os.WriteFile(c.enablePath, []byte("1"), attrPerm); err != nil && !os.IsNotExist(err) {
			return errFactory.Wrap(ErrSetSpeedFailed, err)
		}
		c.enabled = true
	}

	value := int(percent) * pwmMax / maxFanSpeed
	if err := os.WriteFile(c.pwmPath, []byte(strconv.Itoa(value)), attrPerm); err != nil {
		return errFactory.Wrap(ErrSetSpeedFailed, err)
	}

	return nil
}

type hwmonChip struct {
	name string
	path string
}

func scanHwmon() ([]hwmonChip, error) {
	entries, err := os.ReadDir(hwmonRoot)
	if err != nil {
		return nil, err
	}

	chips := make([]hwmonChip, 0, len(entries))
	for _, entry := range entries {
		path := filepath.Join(hwmonRoot, entry.Name())

		raw, err := os.ReadFile(filepath.Join(path, "name"))
		if err != nil {
			continue
		}

		chips = append(chips, hwmonChip{
			name: strings.TrimSpace(string(raw)),
			path: path,
		})
	}

	return chips, nil
}

func pickSensor(chips []hwmonChip, configured string) string {
	if configured != "" {
		for _, chip := range chips {
			if chip.name == configured && hasAttr(chip, "temp1_input") {
				return filepath.Join(chip.path, "temp1_input")
			}
		}
		return ""
	}

	for _, preferred := range preferredSensors {
		for _, chip := range chips {
			if chip.name == preferred && hasAttr(chip, "temp1_input") {
				return filepath.Join(chip.path, "temp1_input")
			}
		}
	}

	for _, chip := range chips {
		if hasAttr(chip, "temp1_input") {
			return filepath.Join(chip.path, "temp1_input")
		}
	}

	return ""
}

func pickPWM(chips []hwmonChip, configured string) string {
	for _, chip := range chips {
		if configured != "" && chip.name != configured {
			continue
		}
		if hasAttr(chip, "pwm1") {
			return filepath.Join(chip.path, "pwm1")
		}
	}

	return ""
}

func hasAttr(chip hwmonChip, attr string) bool {
	_, err := os.Stat(filepath.Join(chip.path, attr))
	return err == nil
}
