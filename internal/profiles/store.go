package profiles

import (
	"encoding/json"

	"codeberg.org/voltshift/stitchd/internal/errors"
	"go.etcd.io/bbolt"
)

// Store is a durable name to payload mapping backed by one bbolt bucket.
// Payload interpretation is left entirely to the codec pair; the store treats
// every value as opaque bytes.
type Store[T any] struct {
	db     *bbolt.DB
	bucket []byte
	encode EncodeFunc[T]
	decode DecodeFunc[T]
}

func NewStore[T any](db *bbolt.DB, bucket string, encode EncodeFunc[T], decode DecodeFunc[T]) (*Store[T], error) {
	errFactory := errors.New()

	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	})
	if err != nil {
		return nil, errFactory.Wrap(ErrStoreOpenFailed, err)
	}

	return &Store[T]{
		db:     db,
		bucket: []byte(bucket),
		encode: encode,
		decode: decode,
	}, nil
}

// NewRawStore creates a store that persists payloads byte for byte. Used for
// fan and keyboard profiles, whose payloads round-trip exactly as supplied.
func NewRawStore(db *bbolt.DB, bucket string) (*Store[[]byte], error) {
	return NewStore(db, bucket,
		func(data []byte) ([]byte, error) {
			return append([]byte(nil), data...), nil
		},
		func(stored []byte) ([]byte, error) {
			return append([]byte(nil), stored...), nil
		},
	)
}

// NewJSONStore creates a store that persists payloads as canonical JSON
func NewJSONStore[T any](db *bbolt.DB, bucket string) (*Store[T], error) {
	return NewStore(db, bucket,
		func(data T) ([]byte, error) {
			return json.Marshal(data)
		},
		func(stored []byte) (T, error) {
			var value T
			if err := json.Unmarshal(stored, &value); err != nil {
				return value, err
			}
			return value, nil
		},
	)
}

// Add inserts or overwrites a profile. A pre-existing entry under the same
// name is silently replaced.
func (s *Store[T]) Add(name string, data T) error {
	errFactory := errors.New()

	if name == "" {
		return errFactory.New(ErrInvalidName)
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return s.addTx(tx, name, data)
	})
	if err != nil {
		return err
	}

	return nil
}

func (s *Store[T]) Get(name string) (T, error) {
	var data T

	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		data, err = s.getTx(tx, name)
		return err
	})

	return data, err
}

// List returns all profile names in stable (lexicographic) order
func (s *Store[T]) List() ([]string, error) {
	var names []string

	err := s.db.View(func(tx *bbolt.Tx) error {
		names = s.listTx(tx)
		return nil
	})
	if err != nil {
		return nil, errors.New().Wrap(ErrStoreIOFailed, err)
	}

	return names, nil
}

func (s *Store[T]) Remove(name string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return s.removeTx(tx, name)
	})
}

// Rename moves a profile to a new name and returns the updated name list.
// Fails with not_found when old is absent and conflict when new is taken.
func (s *Store[T]) Rename(oldName, newName string) ([]string, error) {
	var names []string

	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := s.renameTx(tx, oldName, newName); err != nil {
			return err
		}
		names = s.listTx(tx)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return names, nil
}

// Transaction-scoped variants below let the coordinator compose multi-bucket
// updates (rename cascades, active-name rewrites) into a single atomic
// transaction.

func (s *Store[T]) addTx(tx *bbolt.Tx, name string, data T) error {
	errFactory := errors.New()

	encoded, err := s.encode(data)
	if err != nil {
		return errFactory.Wrap(ErrEncodeFailed, err)
	}

	if err := tx.Bucket(s.bucket).Put([]byte(name), encoded); err != nil {
		return errFactory.Wrap(ErrStoreIOFailed, err)
	}

	return nil
}

func (s *Store[T]) getTx(tx *bbolt.Tx, name string) (T, error) {
	var data T
	errFactory := errors.New()

	stored := tx.Bucket(s.bucket).Get([]byte(name))
	if stored == nil {
		return data, errFactory.WithData(ErrProfileNotFound, name)
	}

	data, err := s.decode(stored)
	if err != nil {
		return data, errFactory.Wrap(ErrDecodeFailed, err)
	}

	return data, nil
}

func (s *Store[T]) listTx(tx *bbolt.Tx) []string {
	names := []string{}

	c := tx.Bucket(s.bucket).Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		names = append(names, string(k))
	}

	return names
}

func (s *Store[T]) removeTx(tx *bbolt.Tx, name string) error {
	errFactory := errors.New()

	bucket := tx.Bucket(s.bucket)
	if bucket.Get([]byte(name)) == nil {
		return errFactory.WithData(ErrProfileNotFound, name)
	}

	if err := bucket.Delete([]byte(name)); err != nil {
		return errFactory.Wrap(ErrStoreIOFailed, err)
	}

	return nil
}

// renameTx moves the stored bytes untouched, so payloads survive renames
// byte for byte
func (s *Store[T]) renameTx(tx *bbolt.Tx, oldName, newName string) error {
	errFactory := errors.New()

	if newName == "" {
		return errFactory.New(ErrInvalidName)
	}

	bucket := tx.Bucket(s.bucket)

	stored := bucket.Get([]byte(oldName))
	if stored == nil {
		return errFactory.WithData(ErrProfileNotFound, oldName)
	}

	if bucket.Get([]byte(newName)) != nil {
		return errFactory.WithData(ErrProfileConflict, newName)
	}

	// Get slices alias transaction pages; copy before writing back
	value := append([]byte(nil), stored...)

	if err := bucket.Put([]byte(newName), value); err != nil {
		return errFactory.Wrap(ErrStoreIOFailed, err)
	}

	if err := bucket.Delete([]byte(oldName)); err != nil {
		return errFactory.Wrap(ErrStoreIOFailed, err)
	}

	return nil
}
