package db

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"time"
)

// Defaults written on first run.
const (
	DefaultPollInterval        = 30 * time.Second
	DefaultLowBatteryThreshold = 20
	DefaultAPIHost             = "127.0.0.1"
	DefaultAPIPort             = 8080
)

// DefaultPairingSource picks the pairing backend for this OS.
func DefaultPairingSource() string {
	switch runtime.GOOS {
	case "darwin":
		return SourceBlueutil
	case "linux":
		return SourceBlueZ
	default:
		return SourceNull
	}
}

// Bootstrap creates the default profile and its API server on first run.
// Both rows are written in one transaction.
func (db *DB) Bootstrap(ctx context.Context) error {
	return db.Tx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&count); err != nil {
			return fmt.Errorf("failed to check profiles: %w", err)
		}
		if count > 0 {
			return nil
		}

		p := &Profile{
			Name:                "default",
			PollInterval:        DefaultPollInterval,
			LowBatteryThreshold: DefaultLowBatteryThreshold,
			HIDFallback:         true,
			PairingSource:       DefaultPairingSource(),
			IsActive:            true,
		}
		if err := (&profileStore{q: tx}).Create(ctx, p); err != nil {
			return fmt.Errorf("failed to create default profile: %w", err)
		}

		a := &APIServer{ProfileID: p.ID, Host: DefaultAPIHost, Port: DefaultAPIPort}
		if err := (&apiServerStore{q: tx}).Put(ctx, a); err != nil {
			return fmt.Errorf("failed to create default API server: %w", err)
		}
		return nil
	})
}

// NeedsBootstrap reports whether no profile exists yet.
func (db *DB) NeedsBootstrap(ctx context.Context) (bool, error) {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}
