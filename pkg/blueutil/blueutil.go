// Package blueutil is a macOS pairing source backed by the blueutil CLI.
package blueutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/urmzd/bluebar/pkg/address"
	"github.com/urmzd/bluebar/pkg/device"
	"github.com/urmzd/bluebar/pkg/facts"
)

// Command is the blueutil executable name.
const Command = "blueutil"

// InquirySeconds is how long a discovery scan runs.
const InquirySeconds = 5

// record is one element of `blueutil --paired --format json`.
type record struct {
	Address   string `json:"address"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

// Source implements device.PairingSource.
type Source struct {
	runner facts.Runner
}

// New creates a blueutil pairing source.
func New(runner facts.Runner) *Source {
	return &Source{runner: runner}
}

// deviceArg formats addr the way blueutil prints it.
func deviceArg(addr string) string {
	return strings.ToLower(address.WithHyphens(addr))
}

// ListPaired returns all paired devices.
func (s *Source) ListPaired(ctx context.Context) ([]device.PairedDevice, error) {
	out, err := s.runner.Run(ctx, Command, "--paired", "--format", "json")
	if err != nil {
		return nil, fmt.Errorf("list paired: %w", err)
	}
	var records []record
	if err := json.Unmarshal(out, &records); err != nil {
		return nil, fmt.Errorf("decode paired list: %w", err)
	}
	devices := make([]device.PairedDevice, 0, len(records))
	for _, r := range records {
		devices = append(devices, device.PairedDevice{Address: r.Address, Name: r.Name})
	}
	return devices, nil
}

// Lookup resolves addr through `blueutil --info`.
func (s *Source) Lookup(ctx context.Context, addr string) (*device.PairedDevice, error) {
	if address.Normalize(addr) == "" {
		return nil, device.ErrNotFound
	}
	out, err := s.runner.Run(ctx, Command, "--info", deviceArg(addr), "--format", "json")
	if err != nil {
		if errors.Is(err, device.ErrTimeout) {
			return nil, err
		}
		return nil, fmt.Errorf("lookup %s: %w", addr, device.ErrNotFound)
	}
	var r record
	if err := json.Unmarshal(out, &r); err != nil || address.Normalize(r.Address) == "" {
		return nil, fmt.Errorf("lookup %s: %w", addr, device.ErrNotFound)
	}
	return &device.PairedDevice{Address: r.Address, Name: r.Name}, nil
}

// IsConnected reports the live link status; blueutil prints 1 or 0.
func (s *Source) IsConnected(ctx context.Context, addr string) (bool, error) {
	out, err := s.runner.Run(ctx, Command, "--is-connected", deviceArg(addr))
	if err != nil {
		return false, fmt.Errorf("connection status: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		return false, fmt.Errorf("connection status %q: %w", strings.TrimSpace(string(out)), err)
	}
	return n == 1, nil
}

// Connect opens a baseband connection.
func (s *Source) Connect(ctx context.Context, addr string) error {
	if _, err := s.runner.Run(ctx, Command, "--connect", deviceArg(addr)); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

// Disconnect closes the connection.
func (s *Source) Disconnect(ctx context.Context, addr string) error {
	if _, err := s.runner.Run(ctx, Command, "--disconnect", deviceArg(addr)); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}

// Inquiry runs a discovery scan.
func (s *Source) Inquiry(ctx context.Context) error {
	if _, err := s.runner.Run(ctx, Command, "--inquiry", strconv.Itoa(InquirySeconds)); err != nil {
		return fmt.Errorf("inquiry: %w", err)
	}
	return nil
}
