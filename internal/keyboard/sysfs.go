package keyboard

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"codeberg.org/voltshift/stitchd/internal/errors"
	"codeberg.org/voltshift/stitchd/internal/logger"
)

const (
	ledsRoot = "/sys/class/leds"

	attrPerm = 0o644
)

// SysfsBacklight drives a multicolor LED class device. Colors go through
// multi_intensity as "R G B"; brightness is pinned to the maximum once so
// the intensity values pass through unscaled.
type SysfsBacklight struct {
	intensityPath  string
	brightnessPath string
	maxBrightness  int
	primed         bool
}

func NewSysfsBacklight(cfg Config) (*SysfsBacklight, error) {
	errFactory := errors.New()

	device, err := pickBacklight(cfg.Device)
	if err != nil {
		return nil, errFactory.Wrap(ErrDeviceNotFound, err)
	}
	if device == "" {
		return nil, errFactory.WithData(ErrDeviceNotFound, "no multicolor keyboard LED device")
	}

	maxBrightness := readAttrInt(filepath.Join(device, "max_brightness"))
	if maxBrightness <= 0 {
		maxBrightness = 1
	}

	logger.Info().
		Str("device", device).
		Msg("Keyboard backlight detected")

	return &SysfsBacklight{
		intensityPath:  filepath.Join(device, "multi_intensity"),
		brightnessPath: filepath.Join(device, "brightness"),
		maxBrightness:  maxBrightness,
	}, nil
}

func (b *SysfsBacklight) SetColor(c Color) error {
	errFactory := errors.New()

	if !b.primed {
		value := strconv.Itoa(b.maxBrightness)
		if err := os.WriteFile(b.brightnessPath, []byte(value), attrPerm); err != nil {
			return errFactory.Wrap(ErrSetColorFailed, err)
		}
		b.primed = true
	}

	intensity := fmt.Sprintf("%d %d %d", c.R, c.G, c.B)
	if err := os.WriteFile(b.intensityPath, []byte(intensity), attrPerm); err != nil {
		return errFactory.Wrap(ErrSetColorFailed, err)
	}

	return nil
}

func pickBacklight(configured string) (string, error) {
	if configured != "" {
		path := filepath.Join(ledsRoot, configured)
		if !hasMultiIntensity(path) {
			return "", fmt.Errorf("LED device %s has no multi_intensity", configured)
		}
		return path, nil
	}

	entries, err := os.ReadDir(ledsRoot)
	if err != nil {
		return "", err
	}

	for _, entry := range entries {
		if !strings.Contains(entry.Name(), "kbd_backlight") {
			continue
		}

		path := filepath.Join(ledsRoot, entry.Name())
		if hasMultiIntensity(path) {
			return path, nil
		}
	}

	return "", nil
}

func hasMultiIntensity(path string) bool {
	_, err := os.Stat(filepath.Join(path, "multi_intensity"))
	return err == nil
}

func readAttrInt(path string) int {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0
	}

	value, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0
	}

	return value
}
