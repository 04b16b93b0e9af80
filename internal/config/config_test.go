package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/voltshift/stitchd/internal/config"
	"codeberg.org/voltshift/stitchd/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetArgs(t *testing.T, args ...string) {
	t.Helper()

	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })
	os.Args = append([]string{"stitchd"}, args...)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "config_test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	configPath := filepath.Join(tempDir, "stitchd.toml")
	err = os.WriteFile(configPath, []byte(content), 0o600)
	require.NoError(t, err)

	return configPath
}

func TestLoad(t *testing.T) {
	resetArgs(t)

	configPath := writeConfig(t, `
interval = 5
hysteresis = 3
monitor = false
fan_sensor = "k10temp"
keyboard_device = "rgb:kbd_backlight"
state_dir = "/tmp/stitchd-test"
metrics = true
metrics_db = "/tmp/stitchd-test/metrics.db"
log_level = "debug"
`)
	t.Setenv("STITCHD_CONFIG", configPath)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Interval, "Expected Interval 5")
	assert.Equal(t, 3, cfg.Hysteresis, "Expected Hysteresis 3")
	assert.False(t, cfg.Monitor, "Expected Monitor false")
	assert.Equal(t, "k10temp", cfg.FanSensor, "Expected FanSensor k10temp")
	assert.Equal(t, "rgb:kbd_backlight", cfg.KeyboardDevice, "Expected KeyboardDevice rgb:kbd_backlight")
	assert.Equal(t, "/tmp/stitchd-test", cfg.StateDir, "Expected StateDir /tmp/stitchd-test")
	assert.True(t, cfg.Metrics, "Expected Metrics true")
	assert.Equal(t, "/tmp/stitchd-test/metrics.db", cfg.MetricsDB, "Expected MetricsDB path")
	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel debug")
}

func TestLoadDefaults(t *testing.T) {
	resetArgs(t)

	// An empty explicit config file keeps the search path out of the test
	configPath := writeConfig(t, "")
	t.Setenv("STITCHD_CONFIG", configPath)

	cfg, err := config.Load()
	require.NoError(t, err, "Failed to load config")

	defaults := config.DefaultConfig()
	assert.Equal(t, defaults.Interval, cfg.Interval, "Expected default Interval")
	assert.Equal(t, defaults.Hysteresis, cfg.Hysteresis, "Expected default Hysteresis")
	assert.False(t, cfg.Monitor, "Expected default Monitor false")
	assert.Equal(t, defaults.StateDir, cfg.StateDir, "Expected default StateDir")
	assert.True(t, cfg.Metrics, "Expected default Metrics true")
	assert.Equal(t, defaults.MetricsInterval, cfg.MetricsInterval, "Expected default MetricsInterval")
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel, "Expected default LogLevel info")
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	resetArgs(t)

	configPath := writeConfig(t, `
This is not a valid TOML file
`)
	t.Setenv("STITCHD_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig), "Expected read_config_failed code")
}

func TestInvalidLogLevel(t *testing.T) {
	resetArgs(t)

	configPath := writeConfig(t, `
log_level = "invalid"
`)
	t.Setenv("STITCHD_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidLogLevel), "Expected invalid_log_level code")
}

func TestInvalidInterval(t *testing.T) {
	resetArgs(t)

	configPath := writeConfig(t, `
interval = 0
`)
	t.Setenv("STITCHD_CONFIG", configPath)

	_, err := config.Load()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidInterval), "Expected invalid_interval code")
}

func TestLogLevelFlag(t *testing.T) {
	resetArgs(t, "--log-level", "debug")

	configPath := writeConfig(t, "")
	t.Setenv("STITCHD_CONFIG", configPath)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel to be set by flag")
}

func TestFlagOverridesFile(t *testing.T) {
	resetArgs(t, "--interval", "7")

	configPath := writeConfig(t, `
interval = 5
`)
	t.Setenv("STITCHD_CONFIG", configPath)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Interval, "Expected flag value to override config file")
}
