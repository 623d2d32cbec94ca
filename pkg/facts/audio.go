package facts

import (
	"context"
	"fmt"
	"strings"
)

// AudioRouter switches the system default audio output. Best effort only.
type AudioRouter struct {
	runner Runner
}

// NewAudioRouter creates an AudioRouter.
func NewAudioRouter(runner Runner) *AudioRouter {
	return &AudioRouter{runner: runner}
}

// SetDefaultOutput routes output audio to the device with the given name.
func (a *AudioRouter) SetDefaultOutput(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("audio route: empty device name")
	}
	if _, err := a.runner.Run(ctx, "SwitchAudioSource", "-t", "output", "-s", name); err != nil {
		return fmt.Errorf("audio route to %q: %w", name, err)
	}
	return nil
}
