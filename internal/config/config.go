package config

import (
	"os"
	"strings"

	"codeberg.org/voltshift/stitchd/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel = "info"

	defaultInterval      = 2
	defaultHysteresis    = 4
	defaultStateDir      = "/var/lib/stitchd"
	defaultMetricsDB     = "/var/lib/stitchd/metrics.db"
	defaultMetricsEvery  = 60
	defaultBatchSize     = 16
	defaultRetentionDays = 30
)

type Config struct {
	Interval             int    `mapstructure:"interval"`
	Hysteresis           int    `mapstructure:"hysteresis"`
	Monitor              bool   `mapstructure:"monitor"`
	FanSensor            string `mapstructure:"fan_sensor"`
	FanPWM               string `mapstructure:"fan_pwm"`
	KeyboardDevice       string `mapstructure:"keyboard_device"`
	StateDir             string `mapstructure:"state_dir"`
	Metrics              bool   `mapstructure:"metrics"`
	MetricsDB            string `mapstructure:"metrics_db"`
	MetricsInterval      int    `mapstructure:"metrics_interval"`
	MetricsBatchSize     int    `mapstructure:"metrics_batch_size"`
	MetricsRetentionDays int    `mapstructure:"metrics_retention_days"`
	LogLevel             string `mapstructure:"log_level"`
	Debug                bool   `mapstructure:"debug"`
	Verbose              bool   `mapstructure:"verbose"`
}

func DefaultConfig() Config {
	return Config{
		Interval:             defaultInterval,
		Hysteresis:           defaultHysteresis,
		StateDir:             defaultStateDir,
		Metrics:              true,
		MetricsDB:            defaultMetricsDB,
		MetricsInterval:      defaultMetricsEvery,
		MetricsBatchSize:     defaultBatchSize,
		MetricsRetentionDays: defaultRetentionDays,
		LogLevel:             DefaultLogLevel,
	}
}

func Load() (*Config, error) {
	errFactory := errors.New()

	fs := pflag.NewFlagSet("stitchd", pflag.ContinueOnError)
	configFlag := fs.String("config", "", "Path to configuration file")
	fs.Bool("debug", false, "Enable debugging mode")
	fs.Bool("verbose", false, "Enable verbose logging")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	fs.Int("interval", defaultInterval, "Seconds between fan control updates")
	fs.Int("hysteresis", defaultHysteresis, "Fan speed change required before applying")
	fs.Bool("monitor", false, "Only monitor temperature and fan speed")
	fs.String("fan-sensor", "", "hwmon chip providing the temperature sensor")
	fs.String("fan-pwm", "", "hwmon chip providing the pwm fan control")
	fs.String("keyboard-device", "", "LED class device for the keyboard backlight")
	fs.String("state-dir", defaultStateDir, "Directory for persistent daemon state")
	fs.Bool("metrics", true, "Enable metrics collection")
	fs.String("metrics-db", defaultMetricsDB, "Path to the metrics database")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault("interval", defaults.Interval)
	v.SetDefault("hysteresis", defaults.Hysteresis)
	v.SetDefault("monitor", defaults.Monitor)
	v.SetDefault("fan_sensor", defaults.FanSensor)
	v.SetDefault("fan_pwm", defaults.FanPWM)
	v.SetDefault("keyboard_device", defaults.KeyboardDevice)
	v.SetDefault("state_dir", defaults.StateDir)
	v.SetDefault("metrics", defaults.Metrics)
	v.SetDefault("metrics_db", defaults.MetricsDB)
	v.SetDefault("metrics_interval", defaults.MetricsInterval)
	v.SetDefault("metrics_batch_size", defaults.MetricsBatchSize)
	v.SetDefault("metrics_retention_days", defaults.MetricsRetentionDays)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("debug", defaults.Debug)
	v.SetDefault("verbose", defaults.Verbose)

	// Explicit config path from flag or environment wins over the search path
	configPath := *configFlag
	if configPath == "" {
		configPath = os.Getenv("STITCHD_CONFIG")
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	} else {
		v.SetConfigName("stitchd")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/stitchd")
		v.AddConfigPath("/etc")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, errFactory.Wrap(errors.ErrReadConfig, err)
			}
		}
	}

	// Flags set on the command line override config file values
	fs.Visit(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}

		key := strings.ReplaceAll(f.Name, "-", "_")
		switch f.Value.Type() {
		case "bool":
			val, _ := fs.GetBool(f.Name)
			v.Set(key, val)
		case "int":
			val, _ := fs.GetInt(f.Name)
			v.Set(key, val)
		default:
			v.Set(key, f.Value.String())
		}
	})

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Interval < 1 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}

	if c.Hysteresis < 0 || c.Hysteresis > 50 {
		return errFactory.WithData(errors.ErrInvalidConfig, "hysteresis must be between 0 and 50")
	}

	if c.StateDir == "" {
		return errFactory.WithData(errors.ErrInvalidConfig, "state_dir must not be empty")
	}

	if c.Metrics {
		if c.MetricsDB == "" {
			return errFactory.WithData(errors.ErrInvalidConfig, "metrics_db must not be empty")
		}
		if c.MetricsInterval < 1 {
			return errFactory.WithData(errors.ErrInvalidConfig, "metrics_interval must be at least 1")
		}
		if c.MetricsBatchSize < 1 {
			return errFactory.WithData(errors.ErrInvalidConfig, "metrics_batch_size must be at least 1")
		}
		if c.MetricsRetentionDays < 0 {
			return errFactory.WithData(errors.ErrInvalidConfig, "metrics_retention_days must not be negative")
		}
	}

	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	return nil
}
