package profiles_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"codeberg.org/voltshift/stitchd/internal/errors"
	"codeberg.org/voltshift/stitchd/internal/profiles"
)

func openDB(t *testing.T) *bbolt.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "profiles.db")
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func newRawStore(t *testing.T) *profiles.Store[[]byte] {
	t.Helper()

	store, err := profiles.NewRawStore(openDB(t), "test_profiles")
	require.NoError(t, err)

	return store
}

func TestAddGetRoundTrip(t *testing.T) {
	store := newRawStore(t)

	// Odd whitespace must survive untouched; payloads are opaque bytes
	payload := []byte(`[{"temp": 30, "fan":0},  {"temp":85,"fan":100}]`)
	require.NoError(t, store.Add("quiet", payload))

	got, err := store.Get("quiet")
	require.NoError(t, err)
	assert.Equal(t, payload, got, "Expected byte-exact round trip")
}

func TestAddOverwrites(t *testing.T) {
	store := newRawStore(t)

	require.NoError(t, store.Add("quiet", []byte("first")))
	require.NoError(t, store.Add("quiet", []byte("second")))

	got, err := store.Get("quiet")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got, "Expected overwrite to win")

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"quiet"}, names, "Expected a single entry after overwrite")
}

func TestAddEmptyName(t *testing.T) {
	store := newRawStore(t)

	err := store.Add("", []byte("data"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, profiles.ErrInvalidName), "Expected invalid name code")
}

func TestGetMissing(t *testing.T) {
	store := newRawStore(t)

	_, err := store.Get("missing")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrNotFound), "Expected not_found code")
}

func TestListOrder(t *testing.T) {
	store := newRawStore(t)

	for _, name := range []string{"silent", "aggressive", "balanced"} {
		require.NoError(t, store.Add(name, []byte(name)))
	}

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"aggressive", "balanced", "silent"}, names,
		"Expected names in stable lexicographic order")
}

func TestListEmpty(t *testing.T) {
	store := newRawStore(t)

	names, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, names, "Expected empty list for empty store")
}

func TestRemove(t *testing.T) {
	store := newRawStore(t)

	require.NoError(t, store.Add("quiet", []byte("data")))
	require.NoError(t, store.Remove("quiet"))

	_, err := store.Get("quiet")
	assert.True(t, errors.HasCode(err, errors.ErrNotFound), "Expected entry gone after remove")

	err = store.Remove("quiet")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrNotFound), "Expected not_found on double remove")
}

func TestRename(t *testing.T) {
	store := newRawStore(t)

	payload := []byte(`[{"temp":40,"fan":20}]`)
	require.NoError(t, store.Add("quiet", payload))

	names, err := store.Rename("quiet", "silent")
	require.NoError(t, err)
	assert.Equal(t, []string{"silent"}, names, "Expected updated name list")

	got, err := store.Get("silent")
	require.NoError(t, err)
	assert.Equal(t, payload, got, "Expected payload to survive rename byte for byte")

	_, err = store.Get("quiet")
	assert.True(t, errors.HasCode(err, errors.ErrNotFound), "Expected old name gone")
}

func TestRenameMissing(t *testing.T) {
	store := newRawStore(t)

	_, err := store.Rename("missing", "anything")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrNotFound), "Expected not_found code")
}

func TestRenameConflict(t *testing.T) {
	store := newRawStore(t)

	require.NoError(t, store.Add("quiet", []byte("a")))
	require.NoError(t, store.Add("silent", []byte("b")))

	_, err := store.Rename("quiet", "silent")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrConflict), "Expected conflict code")

	// Both entries stay untouched after the failed rename
	got, err := store.Get("quiet")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), got)

	got, err = store.Get("silent")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), got)
}

func TestRenameToEmptyName(t *testing.T) {
	store := newRawStore(t)

	require.NoError(t, store.Add("quiet", []byte("a")))

	_, err := store.Rename("quiet", "")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, profiles.ErrInvalidName), "Expected invalid name code")
}

func TestJSONStoreRoundTrip(t *testing.T) {
	store, err := profiles.NewJSONStore[profiles.GlobalProfile](openDB(t), "globals")
	require.NoError(t, err)

	profile := profiles.GlobalProfile{Keyboard: "bright", Fan: "quiet"}
	require.NoError(t, store.Add("work", profile))

	got, err := store.Get("work")
	require.NoError(t, err)
	assert.Equal(t, profile, got, "Expected struct round trip")
}
