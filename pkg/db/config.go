package db

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrNoActiveProfile = errors.New("no active profile found")

// Config is the runtime configuration of the active profile.
type Config struct {
	Profile   *Profile
	APIServer *APIServer
}

// APIAddress returns the API listen address.
func (c *Config) APIAddress() string {
	if c.APIServer == nil {
		return fmt.Sprintf("%s:%d", DefaultAPIHost, DefaultAPIPort)
	}
	return c.APIServer.Address()
}

// PollInterval returns the reconciliation interval.
func (c *Config) PollInterval() time.Duration {
	if c.Profile == nil || c.Profile.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return c.Profile.PollInterval
}

// LowBatteryThreshold returns the alert threshold.
func (c *Config) LowBatteryThreshold() int {
	if c.Profile == nil || c.Profile.LowBatteryThreshold <= 0 {
		return DefaultLowBatteryThreshold
	}
	return c.Profile.LowBatteryThreshold
}

// HIDFallback reports whether the HID registry is probed when the
// diagnostic dump has no battery data.
func (c *Config) HIDFallback() bool {
	return c.Profile == nil || c.Profile.HIDFallback
}

// PairingSource returns the configured pairing backend.
func (c *Config) PairingSource() string {
	if c.Profile == nil || c.Profile.PairingSource == "" {
		return DefaultPairingSource()
	}
	return c.Profile.PairingSource
}

// ActiveConfig loads the configuration of the active profile.
func (db *DB) ActiveConfig(ctx context.Context) (*Config, error) {
	profile, err := db.Profiles().GetActive(ctx)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, ErrNoActiveProfile
		}
		return nil, fmt.Errorf("failed to get active profile: %w", err)
	}

	apiServer, err := db.APIServers().Get(ctx, profile.ID)
	if err != nil && !errors.Is(err, ErrAPIServerNotFound) {
		return nil, fmt.Errorf("failed to get API server config: %w", err)
	}
	return &Config{Profile: profile, APIServer: apiServer}, nil
}
