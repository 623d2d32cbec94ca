package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrProfileNotFound = errors.New("profile not found")

// Pairing source identifiers stored in profiles.pairing_source.
const (
	SourceBlueutil = "blueutil"
	SourceBlueZ    = "bluez"
	SourceNull     = "null"
)

// Profile holds the engine settings of one installation.
type Profile struct {
	ID                  int64
	Name                string
	PollInterval        time.Duration
	LowBatteryThreshold int
	HIDFallback         bool
	PairingSource       string
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ProfileStore provides profile CRUD operations.
type ProfileStore interface {
	Get(ctx context.Context, id int64) (*Profile, error)
	GetByName(ctx context.Context, name string) (*Profile, error)
	GetActive(ctx context.Context) (*Profile, error)
	List(ctx context.Context) ([]*Profile, error)
	Create(ctx context.Context, p *Profile) error
	Update(ctx context.Context, p *Profile) error
	SetActive(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// Profiles returns a ProfileStore for this database.
func (db *DB) Profiles() ProfileStore {
	return &profileStore{q: db}
}

type profileStore struct {
	q querier
}

const profileColumns = `id, name, poll_interval_sec, low_battery_threshold, hid_fallback, pairing_source, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*Profile, error) {
	p := &Profile{}
	var pollSec int64
	var createdAt, updatedAt string
	err := row.Scan(&p.ID, &p.Name, &pollSec, &p.LowBatteryThreshold, &p.HIDFallback,
		&p.PairingSource, &p.IsActive, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	p.PollInterval = time.Duration(pollSec) * time.Second
	p.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
	p.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
	return p, nil
}

func (s *profileStore) Get(ctx context.Context, id int64) (*Profile, error) {
	return scanProfile(s.q.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id))
}

func (s *profileStore) GetByName(ctx context.Context, name string) (*Profile, error) {
	return scanProfile(s.q.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE name = ?`, name))
}

func (s *profileStore) GetActive(ctx context.Context) (*Profile, error) {
	return scanProfile(s.q.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE is_active = 1 LIMIT 1`))
}

func (s *profileStore) List(ctx context.Context) ([]*Profile, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var profiles []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (s *profileStore) Create(ctx context.Context, p *Profile) error {
	applyProfileDefaults(p)
	result, err := s.q.ExecContext(ctx, `
		INSERT INTO profiles (name, poll_interval_sec, low_battery_threshold, hid_fallback, pairing_source, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.Name, int64(p.PollInterval/time.Second), p.LowBatteryThreshold, p.HIDFallback, p.PairingSource, p.IsActive)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

func (s *profileStore) Update(ctx context.Context, p *Profile) error {
	applyProfileDefaults(p)
	result, err := s.q.ExecContext(ctx, `
		UPDATE profiles SET name = ?, poll_interval_sec = ?, low_battery_threshold = ?,
			hid_fallback = ?, pairing_source = ?, is_active = ?, updated_at = datetime('now')
		WHERE id = ?
	`, p.Name, int64(p.PollInterval/time.Second), p.LowBatteryThreshold, p.HIDFallback,
		p.PairingSource, p.IsActive, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (s *profileStore) SetActive(ctx context.Context, id int64) error {
	return inTx(ctx, s.q, func(q querier) error {
		if _, err := q.ExecContext(ctx, `UPDATE profiles SET is_active = 0`); err != nil {
			return err
		}
		result, err := q.ExecContext(ctx, `UPDATE profiles SET is_active = 1 WHERE id = ?`, id)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrProfileNotFound
		}
		return nil
	})
}

func (s *profileStore) Delete(ctx context.Context, id int64) error {
	result, err := s.q.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// applyProfileDefaults fills zero-valued tuning fields.
func applyProfileDefaults(p *Profile) {
	if p.PollInterval < time.Second {
		p.PollInterval = DefaultPollInterval
	}
	if p.LowBatteryThreshold <= 0 || p.LowBatteryThreshold > 100 {
		p.LowBatteryThreshold = DefaultLowBatteryThreshold
	}
	if p.PairingSource == "" {
		p.PairingSource = DefaultPairingSource()
	}
}
