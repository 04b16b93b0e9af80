package profiles

import "codeberg.org/voltshift/stitchd/internal/errors"

const (
	defaultDirPerm     = 0o755
	defaultDBPath      = "/var/lib/stitchd/profiles.db"
	defaultProfileName = "default"

	fanBucket      = "fan_profiles"
	keyboardBucket = "keyboard_profiles"
	globalBucket   = "global_profiles"
	stateBucket    = "state"

	activeProfileKey = "active_profile"
)

type Config struct {
	DBPath string
	// Name seeded on first start and used as fallback for dangling references
	DefaultProfile  string
	DefaultFan      []byte
	DefaultKeyboard []byte
}

func DefaultConfig() Config {
	return Config{
		DBPath:         defaultDBPath,
		DefaultProfile: defaultProfileName,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.DBPath == "" {
		return errFactory.WithData(errors.ErrInvalidConfig, "profile database path must not be empty")
	}

	if c.DefaultProfile == "" {
		return errFactory.WithData(errors.ErrInvalidConfig, "default profile name must not be empty")
	}

	return nil
}
