// Package testutil provides fakes shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Response is a scripted result for FakeRunner.
type Response struct {
	Out []byte
	Err error
}

// FakeRunner returns scripted output per command line and counts invocations.
// Keys are the command and args joined by single spaces.
type FakeRunner struct {
	mu        sync.Mutex
	responses map[string]Response
	calls     map[string]int
	order     []string
}

// NewFakeRunner creates an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		responses: make(map[string]Response),
		calls:     make(map[string]int),
	}
}

// Set scripts the response for a command line.
func (r *FakeRunner) Set(cmdline string, out string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[cmdline] = Response{Out: []byte(out), Err: err}
}

// Run implements facts.Runner.
func (r *FakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	key := strings.Join(append([]string{name}, args...), " ")
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[key]++
	r.order = append(r.order, key)
	resp, ok := r.responses[key]
	if !ok {
		return nil, fmt.Errorf("%s: unscripted command", key)
	}
	return resp.Out, resp.Err
}

// Calls returns how many times cmdline ran.
func (r *FakeRunner) Calls(cmdline string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[cmdline]
}

// Order returns every command line in invocation order.
func (r *FakeRunner) Order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

// FakeClock is a manually advanced clock.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock starts a clock at a fixed instant.
func NewFakeClock() *FakeClock {
	return &FakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
