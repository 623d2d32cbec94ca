package db

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "nested", "bluebar.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	require.NoError(t, d.Migrate(context.Background()))
	return d
}

func TestMigrate_Idempotent(t *testing.T) {
	d := openTest(t)
	ctx := context.Background()

	require.NoError(t, d.Migrate(ctx))
	v, err := d.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), v)
}

func TestBootstrap_CreatesDefaults(t *testing.T) {
	d := openTest(t)
	ctx := context.Background()

	needs, err := d.NeedsBootstrap(ctx)
	require.NoError(t, err)
	assert.True(t, needs)

	require.NoError(t, d.Bootstrap(ctx))
	require.NoError(t, d.Bootstrap(ctx), "second bootstrap is a no-op")

	cfg, err := d.ActiveConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.Profile.Name)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval())
	assert.Equal(t, DefaultLowBatteryThreshold, cfg.LowBatteryThreshold())
	assert.True(t, cfg.HIDFallback())
	assert.Equal(t, DefaultPairingSource(), cfg.PairingSource())
	assert.Equal(t, "127.0.0.1:8080", cfg.APIAddress())
}

func TestActiveConfig_NoProfile(t *testing.T) {
	d := openTest(t)
	_, err := d.ActiveConfig(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveProfile)
}

func TestProfiles_CRUD(t *testing.T) {
	d := openTest(t)
	ctx := context.Background()
	store := d.Profiles()

	p := &Profile{Name: "desk", PollInterval: 10 * time.Second, LowBatteryThreshold: 15, PairingSource: SourceBlueZ}
	require.NoError(t, store.Create(ctx, p))
	require.NotZero(t, p.ID)

	got, err := store.GetByName(ctx, "desk")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, got.PollInterval)
	assert.Equal(t, 15, got.LowBatteryThreshold)
	assert.Equal(t, SourceBlueZ, got.PairingSource)
	assert.False(t, got.IsActive)

	got.LowBatteryThreshold = 0
	require.NoError(t, store.Update(ctx, got))
	got, err = store.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, DefaultLowBatteryThreshold, got.LowBatteryThreshold, "invalid threshold replaced by default")

	require.NoError(t, store.SetActive(ctx, p.ID))
	active, err := store.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, p.ID, active.ID)

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, store.Delete(ctx, p.ID))
	_, err = store.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrProfileNotFound)
	assert.ErrorIs(t, store.SetActive(ctx, p.ID), ErrProfileNotFound)
}

func TestAPIServers_CascadeOnProfileDelete(t *testing.T) {
	d := openTest(t)
	ctx := context.Background()
	require.NoError(t, d.Bootstrap(ctx))

	cfg, err := d.ActiveConfig(ctx)
	require.NoError(t, err)
	cfg.APIServer.Port = 9090
	require.NoError(t, d.APIServers().Put(ctx, cfg.APIServer))

	a, err := d.APIServers().Get(ctx, cfg.Profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", a.Address())

	require.NoError(t, d.Profiles().Delete(ctx, cfg.Profile.ID))
	_, err = d.APIServers().Get(ctx, cfg.Profile.ID)
	assert.ErrorIs(t, err, ErrAPIServerNotFound)
}

func TestAPIServers_PutUpserts(t *testing.T) {
	d := openTest(t)
	ctx := context.Background()
	require.NoError(t, d.Bootstrap(ctx))

	cfg, err := d.ActiveConfig(ctx)
	require.NoError(t, err)
	id := cfg.APIServer.ID

	require.NoError(t, d.APIServers().Put(ctx, &APIServer{ProfileID: cfg.Profile.ID, Port: 7070}))
	a, err := d.APIServers().Get(ctx, cfg.Profile.ID)
	require.NoError(t, err)
	assert.Equal(t, id, a.ID)
	assert.Equal(t, DefaultAPIHost, a.Host)
	assert.Equal(t, 7070, a.Port)

	assert.Error(t, d.APIServers().Put(ctx, &APIServer{ProfileID: cfg.Profile.ID, Port: 70000}))
}

func TestOverrides_IconRoundTrip(t *testing.T) {
	d := openTest(t)
	ctx := context.Background()
	o := d.Overrides()

	icon, err := o.IconOverride(ctx, "AABBCCDDEEFF")
	require.NoError(t, err)
	assert.Empty(t, icon)

	require.NoError(t, o.SetIconOverride(ctx, "AABBCCDDEEFF", "airpodspro"))
	require.NoError(t, o.SetIconOverride(ctx, "AABBCCDDEEFF", "airpodsmax"))
	icon, err = o.IconOverride(ctx, "AABBCCDDEEFF")
	require.NoError(t, err)
	assert.Equal(t, "airpodsmax", icon)

	raw, err := d.Settings().Get(ctx, "customIcon_AABBCCDDEEFF")
	require.NoError(t, err)
	assert.Equal(t, "airpodsmax", raw)

	require.NoError(t, o.SetIconOverride(ctx, "AABBCCDDEEFF", "  "))
	icon, err = o.IconOverride(ctx, "AABBCCDDEEFF")
	require.NoError(t, err)
	assert.Empty(t, icon)
}

func TestOverrides_Visibility(t *testing.T) {
	d := openTest(t)
	ctx := context.Background()
	o := d.Overrides()

	vis, err := o.Visibility(ctx)
	require.NoError(t, err)
	assert.Empty(t, vis)

	require.NoError(t, o.SetVisibility(ctx, "AABBCCDDEEFF", false))
	require.NoError(t, o.SetVisibility(ctx, "112233445566", true))

	vis, err = o.Visibility(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"AABBCCDDEEFF": false, "112233445566": true}, vis)

	raw, err := d.Settings().Get(ctx, "deviceIconVisibility")
	require.NoError(t, err)
	assert.JSONEq(t, `{"AABBCCDDEEFF": false, "112233445566": true}`, raw)
}

func TestOverrides_CorruptVisibility(t *testing.T) {
	d := openTest(t)
	ctx := context.Background()
	require.NoError(t, d.Settings().Set(ctx, "deviceIconVisibility", "not json"))

	_, err := d.Overrides().Visibility(ctx)
	assert.ErrorIs(t, err, ErrCorruptSetting)

	require.NoError(t, d.Overrides().SetVisibility(ctx, "X", false), "corrupt map is replaced")
	vis, err := d.Overrides().Visibility(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"X": false}, vis)
}

type flakySettings struct {
	SettingStore
	getErr error
}

func (s flakySettings) Get(ctx context.Context, key string) (string, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	return s.SettingStore.Get(ctx, key)
}

func TestOverrides_VisibilityReadErrorKeepsStoredMap(t *testing.T) {
	d := openTest(t)
	ctx := context.Background()
	require.NoError(t, d.Overrides().SetVisibility(ctx, "AABBCCDDEEFF", false))

	busy := errors.New("database is locked")
	o := &Overrides{settings: flakySettings{SettingStore: d.Settings(), getErr: busy}, mu: &sync.Mutex{}}
	err := o.SetVisibility(ctx, "112233445566", true)
	assert.ErrorIs(t, err, busy)

	raw, err := d.Settings().Get(ctx, "deviceIconVisibility")
	require.NoError(t, err)
	assert.JSONEq(t, `{"AABBCCDDEEFF": false}`, raw)
}
