package profiles

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"codeberg.org/voltshift/stitchd/internal/errors"
	"codeberg.org/voltshift/stitchd/internal/logger"
	"go.etcd.io/bbolt"
)

// Coordinator is the single entry point to the profile stores. It owns the
// shared database, keeps global-profile references valid across renames, and
// tracks the active profile.
type Coordinator struct {
	db       *bbolt.DB
	cfg      Config
	log      logger.Logger
	global   *Store[GlobalProfile]
	fan      *Store[[]byte]
	keyboard *Store[[]byte]

	// Serializes hardware applies so overlapping reloads cannot interleave
	mu              sync.Mutex
	fanApplier      Applier
	keyboardApplier Applier
}

func NewCoordinator(cfg Config, fanApplier, keyboardApplier Applier, log logger.Logger) (*Coordinator, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.Wrap(ErrStoreOpenFailed, err)
	}

	db, err := bbolt.Open(cfg.DBPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errFactory.Wrap(ErrStoreOpenFailed, err)
	}

	global, err := NewJSONStore[GlobalProfile](db, globalBucket)
	if err != nil {
		db.Close()
		return nil, err
	}

	fan, err := NewRawStore(db, fanBucket)
	if err != nil {
		db.Close()
		return nil, err
	}

	keyboard, err := NewRawStore(db, keyboardBucket)
	if err != nil {
		db.Close()
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(stateBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrStoreOpenFailed, err)
	}

	log.Debug().Str("path", cfg.DBPath).Msg("Profile store opened")

	return &Coordinator{
		db:              db,
		cfg:             cfg,
		log:             log,
		global:          global,
		fan:             fan,
		keyboard:        keyboard,
		fanApplier:      fanApplier,
		keyboardApplier: keyboardApplier,
	}, nil
}

// EnsureDefaults seeds the default fan, keyboard, and global profiles on
// first start and points the active name at them. Existing entries are never
// overwritten.
func (c *Coordinator) EnsureDefaults() error {
	seeded := 0
	name := c.cfg.DefaultProfile

	err := c.db.Update(func(tx *bbolt.Tx) error {
		if len(c.cfg.DefaultFan) > 0 && tx.Bucket([]byte(fanBucket)).Get([]byte(name)) == nil {
			if err := c.fan.addTx(tx, name, c.cfg.DefaultFan); err != nil {
				return err
			}
			seeded++
		}

		if len(c.cfg.DefaultKeyboard) > 0 && tx.Bucket([]byte(keyboardBucket)).Get([]byte(name)) == nil {
			if err := c.keyboard.addTx(tx, name, c.cfg.DefaultKeyboard); err != nil {
				return err
			}
			seeded++
		}

		if tx.Bucket([]byte(globalBucket)).Get([]byte(name)) == nil {
			if err := c.global.addTx(tx, name, GlobalProfile{Keyboard: name, Fan: name}); err != nil {
				return err
			}
			seeded++
		}

		if c.activeTx(tx) == "" {
			if err := c.setActiveTx(tx, name); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	if seeded > 0 {
		c.log.Info().Str("profile", name).Int("entries", seeded).Msg("Seeded default profiles")
	}

	return nil
}

func (c *Coordinator) Close() error {
	if err := c.db.Close(); err != nil {
		return errors.New().Wrap(ErrStoreCloseFailed, err)
	}

	return nil
}

// Global profile operations

func (c *Coordinator) AddGlobal(name string, profile GlobalProfile) error {
	return c.global.Add(name, profile)
}

func (c *Coordinator) GetGlobal(name string) (GlobalProfile, error) {
	return c.global.Get(name)
}

func (c *Coordinator) ListGlobal() ([]string, error) {
	return c.global.List()
}

// RemoveGlobal removes a global profile. Removing the active profile is
// allowed; the next reload falls back to the default profile.
func (c *Coordinator) RemoveGlobal(name string) error {
	return c.global.Remove(name)
}

// RenameGlobal renames a global profile. When the renamed profile is the
// active one, the persisted active name follows it in the same transaction.
func (c *Coordinator) RenameGlobal(oldName, newName string) ([]string, error) {
	var names []string

	err := c.db.Update(func(tx *bbolt.Tx) error {
		if err := c.global.renameTx(tx, oldName, newName); err != nil {
			return err
		}

		if c.activeTx(tx) == oldName {
			if err := c.setActiveTx(tx, newName); err != nil {
				return err
			}
		}

		names = c.global.listTx(tx)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return names, nil
}

func (c *Coordinator) ActiveProfileName() (string, error) {
	var name string

	err := c.db.View(func(tx *bbolt.Tx) error {
		name = c.activeTx(tx)
		return nil
	})
	if err != nil {
		return "", errors.New().Wrap(ErrStoreIOFailed, err)
	}

	if name == "" {
		name = c.cfg.DefaultProfile
	}

	return name, nil
}

func (c *Coordinator) SetActiveProfileName(name string) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		if _, err := c.global.getTx(tx, name); err != nil {
			return err
		}

		return c.setActiveTx(tx, name)
	})
}

// Fan profile operations

func (c *Coordinator) AddFan(name string, data []byte) error {
	return c.fan.Add(name, data)
}

func (c *Coordinator) GetFan(name string) ([]byte, error) {
	return c.fan.Get(name)
}

func (c *Coordinator) ListFan() ([]string, error) {
	return c.fan.List()
}

// RemoveFan removes a fan profile even when global profiles still reference
// it; the dangling reference resolves to the default curve at reload.
func (c *Coordinator) RemoveFan(name string) error {
	return c.fan.Remove(name)
}

func (c *Coordinator) RenameFan(oldName, newName string) ([]string, error) {
	return c.renameWithCascade(c.fan, oldName, newName, func(p *GlobalProfile) *string {
		return &p.Fan
	})
}

// Keyboard profile operations

func (c *Coordinator) AddKeyboard(name string, data []byte) error {
	return c.keyboard.Add(name, data)
}

func (c *Coordinator) GetKeyboard(name string) ([]byte, error) {
	return c.keyboard.Get(name)
}

func (c *Coordinator) ListKeyboard() ([]string, error) {
	return c.keyboard.List()
}

func (c *Coordinator) RemoveKeyboard(name string) error {
	return c.keyboard.Remove(name)
}

func (c *Coordinator) RenameKeyboard(oldName, newName string) ([]string, error) {
	return c.renameWithCascade(c.keyboard, oldName, newName, func(p *GlobalProfile) *string {
		return &p.Keyboard
	})
}

// renameWithCascade renames an entry in a kind store and rewrites every
// global profile referencing the old name inside the same transaction, so no
// reader ever observes a half-applied rename. A rename that rewrites zero
// references is a valid no-op.
func (c *Coordinator) renameWithCascade(store *Store[[]byte], oldName, newName string, ref func(*GlobalProfile) *string) ([]string, error) {
	var names []string
	rewritten := 0

	err := c.db.Update(func(tx *bbolt.Tx) error {
		if err := store.renameTx(tx, oldName, newName); err != nil {
			return err
		}

		for _, globalName := range c.global.listTx(tx) {
			profile, err := c.global.getTx(tx, globalName)
			if err != nil {
				c.log.Warn().Str("profile", globalName).Msg("Skipping unreadable global profile during rename")
				continue
			}

			field := ref(&profile)
			if *field != oldName {
				continue
			}

			*field = newName
			if err := c.global.addTx(tx, globalName, profile); err != nil {
				return err
			}
			rewritten++
		}

		names = store.listTx(tx)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.log.Debug().
		Str("from", oldName).
		Str("to", newName).
		Int("references", rewritten).
		Msg("Renamed profile")

	return names, nil
}

// Reload resolves the active global profile and hands the payloads to the
// appliers. Dangling references resolve to the built-in defaults with a
// warning instead of failing.
func (c *Coordinator) Reload() error {
	errFactory := errors.New()

	var activeName string
	var fanData, keyboardData []byte

	err := c.db.View(func(tx *bbolt.Tx) error {
		activeName = c.activeTx(tx)
		if activeName == "" {
			activeName = c.cfg.DefaultProfile
		}

		profile, err := c.global.getTx(tx, activeName)
		if err != nil {
			c.log.Warn().Str("profile", activeName).Msg("Active global profile missing; falling back to defaults")
			profile = GlobalProfile{Keyboard: c.cfg.DefaultProfile, Fan: c.cfg.DefaultProfile}
		}

		fanData, err = c.fan.getTx(tx, profile.Fan)
		if err != nil {
			c.log.Warn().Str("profile", profile.Fan).Msg("Referenced fan profile missing; using default curve")
			fanData = append([]byte(nil), c.cfg.DefaultFan...)
		}

		keyboardData, err = c.keyboard.getTx(tx, profile.Keyboard)
		if err != nil {
			c.log.Warn().Str("profile", profile.Keyboard).Msg("Referenced keyboard profile missing; using default colors")
			keyboardData = append([]byte(nil), c.cfg.DefaultKeyboard...)
		}

		return nil
	})
	if err != nil {
		return errFactory.Wrap(ErrStoreIOFailed, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.fanApplier.Apply(fanData); err != nil {
		return errFactory.Wrap(errors.ErrApplyState, err)
	}

	if err := c.keyboardApplier.Apply(keyboardData); err != nil {
		return errFactory.Wrap(errors.ErrApplyState, err)
	}

	c.log.Info().Str("profile", activeName).Msg("Applied active profile")

	return nil
}

func (c *Coordinator) activeTx(tx *bbolt.Tx) string {
	return string(tx.Bucket([]byte(stateBucket)).Get([]byte(activeProfileKey)))
}

func (c *Coordinator) setActiveTx(tx *bbolt.Tx, name string) error {
	if err := tx.Bucket([]byte(stateBucket)).Put([]byte(activeProfileKey), []byte(name)); err != nil {
		return errors.New().Wrap(ErrStoreIOFailed, err)
	}

	return nil
}
