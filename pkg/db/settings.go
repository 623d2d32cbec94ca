package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	ErrSettingNotFound = errors.New("setting not found")
	// ErrCorruptSetting marks a stored value that no longer decodes.
	ErrCorruptSetting = errors.New("corrupt setting")
)

// Setting keys.
const (
	iconOverridePrefix = "customIcon_"
	iconVisibilityKey  = "deviceIconVisibility"
)

// SettingStore is a flat key/value store.
type SettingStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Settings returns a SettingStore for this database.
func (db *DB) Settings() SettingStore {
	return &settingStore{db: db}
}

type settingStore struct {
	db *DB
}

func (s *settingStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrSettingNotFound
	}
	return value, err
}

func (s *settingStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = datetime('now')
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to store setting %s: %w", key, err)
	}
	return nil
}

func (s *settingStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key)
	return err
}

// Overrides stores per-device icon choices. It satisfies the registry's
// override lookup.
type Overrides struct {
	settings SettingStore
	// mu serializes read-modify-write of the visibility map
	mu *sync.Mutex
}

// Overrides returns the per-device override store.
func (db *DB) Overrides() *Overrides {
	return &Overrides{settings: db.Settings(), mu: &db.visibilityMu}
}

// IconOverride returns the custom icon for id, or "" when none is set.
func (o *Overrides) IconOverride(ctx context.Context, id string) (string, error) {
	v, err := o.settings.Get(ctx, iconOverridePrefix+id)
	if errors.Is(err, ErrSettingNotFound) {
		return "", nil
	}
	return v, err
}

// SetIconOverride stores a custom icon for id; an empty icon clears it.
func (o *Overrides) SetIconOverride(ctx context.Context, id, icon string) error {
	icon = strings.TrimSpace(icon)
	if icon == "" {
		return o.ClearIconOverride(ctx, id)
	}
	return o.settings.Set(ctx, iconOverridePrefix+id, icon)
}

// ClearIconOverride removes the custom icon for id.
func (o *Overrides) ClearIconOverride(ctx context.Context, id string) error {
	return o.settings.Delete(ctx, iconOverridePrefix+id)
}

// Visibility returns the id -> show-icon map. Missing ids are shown.
func (o *Overrides) Visibility(ctx context.Context) (map[string]bool, error) {
	raw, err := o.settings.Get(ctx, iconVisibilityKey)
	if errors.Is(err, ErrSettingNotFound) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, err
	}
	vis := map[string]bool{}
	if err := json.Unmarshal([]byte(raw), &vis); err != nil {
		return nil, fmt.Errorf("decode %s: %w: %w", iconVisibilityKey, ErrCorruptSetting, err)
	}
	return vis, nil
}

// SetVisibility records whether id's icon is shown.
func (o *Overrides) SetVisibility(ctx context.Context, id string, show bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	vis, err := o.Visibility(ctx)
	switch {
	case errors.Is(err, ErrCorruptSetting):
		vis = map[string]bool{}
	case err != nil:
		return fmt.Errorf("load %s: %w", iconVisibilityKey, err)
	}
	vis[id] = show
	raw, err := json.Marshal(vis)
	if err != nil {
		return err
	}
	return o.settings.Set(ctx, iconVisibilityKey, string(raw))
}
