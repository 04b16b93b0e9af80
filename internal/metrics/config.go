package metrics

import "codeberg.org/voltshift/stitchd/internal/errors"

const (
	// File system permissions and paths
	defaultDirPerm = 0o755
	defaultDBPath  = "/var/lib/stitchd/metrics.db"

	defaultInterval      = 60
	defaultBatchSize     = 16
	defaultBatchTimeout  = 300
	defaultRetentionDays = 30
)

type Config struct {
	Enabled bool
	DBPath  string
	// Seconds between samples
	Interval int
	// Buffered samples per database transaction
	BatchSize int
	// Seconds between forced buffer flushes
	BatchTimeout int
	// Days of samples kept before pruning; zero disables pruning
	RetentionDays int
}

func DefaultConfig() Config {
	return Config{
		Enabled:       false,
		DBPath:        defaultDBPath,
		Interval:      defaultInterval,
		BatchSize:     defaultBatchSize,
		BatchTimeout:  defaultBatchTimeout,
		RetentionDays: defaultRetentionDays,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if !c.Enabled {
		return nil
	}

	if c.DBPath == "" {
		return errFactory.New(ErrInvalidDBPath)
	}

	if c.Interval < 1 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}

	if c.BatchSize < 1 || c.BatchTimeout < 1 {
		return errFactory.WithData(ErrInvalidConfig, "batch size and timeout must be positive")
	}

	if c.RetentionDays < 0 {
		return errFactory.WithData(ErrInvalidConfig, "retention days cannot be negative")
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
