package profiles_test

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/voltshift/stitchd/internal/errors"
	"codeberg.org/voltshift/stitchd/internal/logger"
	"codeberg.org/voltshift/stitchd/internal/profiles"
)

var (
	defaultFanPayload      = []byte(`[{"temp":30,"fan":0},{"temp":85,"fan":100}]`)
	defaultKeyboardPayload = []byte(`"None"`)
)

type fakeApplier struct {
	mu      sync.Mutex
	applied [][]byte
	err     error
}

func (a *fakeApplier) Apply(data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.err != nil {
		return a.err
	}

	a.applied = append(a.applied, append([]byte(nil), data...))

	return nil
}

func (a *fakeApplier) last(t *testing.T) []byte {
	t.Helper()

	a.mu.Lock()
	defer a.mu.Unlock()

	require.NotEmpty(t, a.applied, "Expected at least one apply")

	return a.applied[len(a.applied)-1]
}

func testConfig(t *testing.T) profiles.Config {
	t.Helper()

	cfg := profiles.DefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "profiles.db")
	cfg.DefaultFan = defaultFanPayload
	cfg.DefaultKeyboard = defaultKeyboardPayload

	return cfg
}

func newCoordinator(t *testing.T) (*profiles.Coordinator, *fakeApplier, *fakeApplier) {
	t.Helper()

	fanApplier := &fakeApplier{}
	keyboardApplier := &fakeApplier{}

	coordinator, err := profiles.NewCoordinator(testConfig(t), fanApplier, keyboardApplier, logger.Default())
	require.NoError(t, err)
	t.Cleanup(func() { coordinator.Close() })

	return coordinator, fanApplier, keyboardApplier
}

func TestEnsureDefaults(t *testing.T) {
	coordinator, _, _ := newCoordinator(t)

	require.NoError(t, coordinator.EnsureDefaults())

	fanNames, err := coordinator.ListFan()
	require.NoError(t, err)
	assert.Contains(t, fanNames, "default")

	keyboardNames, err := coordinator.ListKeyboard()
	require.NoError(t, err)
	assert.Contains(t, keyboardNames, "default")

	globalNames, err := coordinator.ListGlobal()
	require.NoError(t, err)
	assert.Contains(t, globalNames, "default")

	active, err := coordinator.ActiveProfileName()
	require.NoError(t, err)
	assert.Equal(t, "default", active, "Expected active profile seeded to default")
}

func TestEnsureDefaultsKeepsExisting(t *testing.T) {
	coordinator, _, _ := newCoordinator(t)

	require.NoError(t, coordinator.EnsureDefaults())

	custom := []byte(`[{"temp":50,"fan":50}]`)
	require.NoError(t, coordinator.AddFan("default", custom))

	require.NoError(t, coordinator.EnsureDefaults())

	got, err := coordinator.GetFan("default")
	require.NoError(t, err)
	assert.Equal(t, custom, got, "Expected seeding to never overwrite existing entries")
}

func TestRenameFanCascades(t *testing.T) {
	coordinator, _, _ := newCoordinator(t)

	curve := []byte(`[{"temp":40,"fan":25}]`)
	require.NoError(t, coordinator.AddFan("quiet", curve))
	require.NoError(t, coordinator.AddGlobal("gaming", profiles.GlobalProfile{Keyboard: "default", Fan: "quiet"}))
	require.NoError(t, coordinator.AddGlobal("office", profiles.GlobalProfile{Keyboard: "default", Fan: "quiet"}))
	require.NoError(t, coordinator.AddGlobal("movie", profiles.GlobalProfile{Keyboard: "default", Fan: "other"}))

	names, err := coordinator.RenameFan("quiet", "silent")
	require.NoError(t, err)
	assert.Contains(t, names, "silent")
	assert.NotContains(t, names, "quiet")

	// Every reference follows the rename
	for _, global := range []string{"gaming", "office"} {
		profile, err := coordinator.GetGlobal(global)
		require.NoError(t, err)
		assert.Equal(t, "silent", profile.Fan, "Expected %s to reference the new name", global)
	}

	// Unrelated references stay put
	profile, err := coordinator.GetGlobal("movie")
	require.NoError(t, err)
	assert.Equal(t, "other", profile.Fan)

	got, err := coordinator.GetFan("silent")
	require.NoError(t, err)
	assert.Equal(t, curve, got, "Expected payload unchanged by cascade")
}

func TestRenameKeyboardCascades(t *testing.T) {
	coordinator, _, _ := newCoordinator(t)

	require.NoError(t, coordinator.AddKeyboard("dim", []byte(`"None"`)))
	require.NoError(t, coordinator.AddGlobal("night", profiles.GlobalProfile{Keyboard: "dim", Fan: "default"}))

	_, err := coordinator.RenameKeyboard("dim", "dark")
	require.NoError(t, err)

	profile, err := coordinator.GetGlobal("night")
	require.NoError(t, err)
	assert.Equal(t, "dark", profile.Keyboard)
}

func TestRenameFanNoReferences(t *testing.T) {
	coordinator, _, _ := newCoordinator(t)

	require.NoError(t, coordinator.AddFan("quiet", []byte("x")))

	// No global references the name; the cascade is a no-op, not an error
	_, err := coordinator.RenameFan("quiet", "silent")
	require.NoError(t, err)
}

func TestRenameFanConflictChangesNothing(t *testing.T) {
	coordinator, _, _ := newCoordinator(t)

	require.NoError(t, coordinator.AddFan("quiet", []byte("a")))
	require.NoError(t, coordinator.AddFan("silent", []byte("b")))
	require.NoError(t, coordinator.AddGlobal("gaming", profiles.GlobalProfile{Keyboard: "default", Fan: "quiet"}))

	_, err := coordinator.RenameFan("quiet", "silent")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrConflict), "Expected conflict code")

	// The failed rename leaves stores and references untouched
	got, err := coordinator.GetFan("quiet")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), got)

	got, err = coordinator.GetFan("silent")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), got)

	profile, err := coordinator.GetGlobal("gaming")
	require.NoError(t, err)
	assert.Equal(t, "quiet", profile.Fan)
}

func TestRenameGlobalActiveFollows(t *testing.T) {
	coordinator, _, _ := newCoordinator(t)

	require.NoError(t, coordinator.EnsureDefaults())
	require.NoError(t, coordinator.AddGlobal("work", profiles.GlobalProfile{Keyboard: "default", Fan: "default"}))
	require.NoError(t, coordinator.SetActiveProfileName("work"))

	_, err := coordinator.RenameGlobal("work", "office")
	require.NoError(t, err)

	active, err := coordinator.ActiveProfileName()
	require.NoError(t, err)
	assert.Equal(t, "office", active, "Expected active name to follow the rename")
}

func TestRenameGlobalInactive(t *testing.T) {
	coordinator, _, _ := newCoordinator(t)

	require.NoError(t, coordinator.EnsureDefaults())
	require.NoError(t, coordinator.AddGlobal("work", profiles.GlobalProfile{Keyboard: "default", Fan: "default"}))

	_, err := coordinator.RenameGlobal("work", "office")
	require.NoError(t, err)

	active, err := coordinator.ActiveProfileName()
	require.NoError(t, err)
	assert.Equal(t, "default", active, "Expected active name untouched by inactive rename")
}

func TestSetActiveMissing(t *testing.T) {
	coordinator, _, _ := newCoordinator(t)

	require.NoError(t, coordinator.EnsureDefaults())

	err := coordinator.SetActiveProfileName("nope")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrNotFound), "Expected not_found code")

	active, err := coordinator.ActiveProfileName()
	require.NoError(t, err)
	assert.Equal(t, "default", active, "Expected active name unchanged after failed set")
}

func TestReloadAppliesActivePayloads(t *testing.T) {
	coordinator, fanApplier, keyboardApplier := newCoordinator(t)

	require.NoError(t, coordinator.EnsureDefaults())

	fanPayload := []byte(`[{"temp":45,"fan":30}]`)
	keyboardPayload := []byte(`{"Single":{"r":255,"g":0,"b":0}}`)
	require.NoError(t, coordinator.AddFan("custom", fanPayload))
	require.NoError(t, coordinator.AddKeyboard("custom", keyboardPayload))
	require.NoError(t, coordinator.AddGlobal("custom", profiles.GlobalProfile{Keyboard: "custom", Fan: "custom"}))
	require.NoError(t, coordinator.SetActiveProfileName("custom"))

	require.NoError(t, coordinator.Reload())

	assert.Equal(t, fanPayload, fanApplier.last(t), "Expected fan applier to receive the referenced payload")
	assert.Equal(t, keyboardPayload, keyboardApplier.last(t), "Expected keyboard applier to receive the referenced payload")
}

func TestReloadAfterCascade(t *testing.T) {
	coordinator, fanApplier, _ := newCoordinator(t)

	require.NoError(t, coordinator.EnsureDefaults())

	curve := []byte(`[{"temp":42,"fan":33}]`)
	require.NoError(t, coordinator.AddFan("quiet", curve))
	require.NoError(t, coordinator.AddGlobal("custom", profiles.GlobalProfile{Keyboard: "default", Fan: "quiet"}))
	require.NoError(t, coordinator.SetActiveProfileName("custom"))

	_, err := coordinator.RenameFan("quiet", "silent")
	require.NoError(t, err)

	// The rename is invisible to what the active configuration resolves to
	require.NoError(t, coordinator.Reload())
	assert.Equal(t, curve, fanApplier.last(t), "Expected identical payload through the renamed reference")
}

func TestReloadDanglingFanReference(t *testing.T) {
	coordinator, fanApplier, _ := newCoordinator(t)

	require.NoError(t, coordinator.EnsureDefaults())
	require.NoError(t, coordinator.AddGlobal("broken", profiles.GlobalProfile{Keyboard: "default", Fan: "missing"}))
	require.NoError(t, coordinator.SetActiveProfileName("broken"))

	require.NoError(t, coordinator.Reload())
	assert.Equal(t, defaultFanPayload, fanApplier.last(t), "Expected fallback to the default curve")
}

func TestReloadMissingActiveGlobal(t *testing.T) {
	coordinator, fanApplier, keyboardApplier := newCoordinator(t)

	require.NoError(t, coordinator.EnsureDefaults())
	require.NoError(t, coordinator.AddGlobal("gone", profiles.GlobalProfile{Keyboard: "default", Fan: "default"}))
	require.NoError(t, coordinator.SetActiveProfileName("gone"))
	require.NoError(t, coordinator.RemoveGlobal("gone"))

	require.NoError(t, coordinator.Reload())
	assert.Equal(t, defaultFanPayload, fanApplier.last(t))
	assert.Equal(t, defaultKeyboardPayload, keyboardApplier.last(t))
}

func TestReloadApplierFailure(t *testing.T) {
	coordinator, fanApplier, _ := newCoordinator(t)

	require.NoError(t, coordinator.EnsureDefaults())

	fanApplier.err = errors.New().New(errors.ErrInternal)

	err := coordinator.Reload()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrApplyState), "Expected apply_state_failed code")
}

func TestPersistenceAcrossReopen(t *testing.T) {
	cfg := testConfig(t)

	coordinator, err := profiles.NewCoordinator(cfg, &fakeApplier{}, &fakeApplier{}, logger.Default())
	require.NoError(t, err)

	require.NoError(t, coordinator.EnsureDefaults())
	require.NoError(t, coordinator.AddFan("quiet", []byte("curve")))
	require.NoError(t, coordinator.AddGlobal("work", profiles.GlobalProfile{Keyboard: "default", Fan: "quiet"}))
	require.NoError(t, coordinator.SetActiveProfileName("work"))
	require.NoError(t, coordinator.Close())

	reopened, err := profiles.NewCoordinator(cfg, &fakeApplier{}, &fakeApplier{}, logger.Default())
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	got, err := reopened.GetFan("quiet")
	require.NoError(t, err)
	assert.Equal(t, []byte("curve"), got)

	profile, err := reopened.GetGlobal("work")
	require.NoError(t, err)
	assert.Equal(t, "quiet", profile.Fan)

	active, err := reopened.ActiveProfileName()
	require.NoError(t, err)
	assert.Equal(t, "work", active, "Expected active name to survive reopen")
}
