package engine

import (
	"fmt"
	"os/exec"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/bluebar/pkg/blueutil"
	"github.com/urmzd/bluebar/pkg/bluez"
	"github.com/urmzd/bluebar/pkg/db"
	"github.com/urmzd/bluebar/pkg/device"
	"github.com/urmzd/bluebar/pkg/facts"
)

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// OpenPairingSource opens the pairing backend named kind. When the backend
// is unavailable it returns the null source together with the error, so
// callers can log and carry on. The close function is never nil.
func OpenPairingSource(kind string, runner facts.Runner) (device.PairingSource, func(), error) {
	noop := func() {}
	switch kind {
	case db.SourceBlueutil:
		if _, err := lookPath(blueutil.Command); err != nil {
			return device.NewNullPairingSource(), noop, fmt.Errorf("%s not installed: %w", blueutil.Command, device.ErrUnavailable)
		}
		return blueutil.New(runner), noop, nil
	case db.SourceBlueZ:
		src, err := bluez.Open()
		if err != nil {
			return device.NewNullPairingSource(), noop, err
		}
		return src, func() {
			if err := src.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close BlueZ connection")
			}
		}, nil
	case db.SourceNull, "":
		return device.NewNullPairingSource(), noop, nil
	default:
		return device.NewNullPairingSource(), noop, fmt.Errorf("unknown pairing source %q: %w", kind, device.ErrInvalidInput)
	}
}
