package connection

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urmzd/bluebar/pkg/device"
	"github.com/urmzd/bluebar/pkg/testutil"
)

const addr = "AA:BB:CC:DD:EE:FF"

type harness struct {
	pairing   *testutil.FakePairing
	sched     *testutil.FakeScheduler
	refreshes atomic.Int32
	mgr       *Manager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		pairing: testutil.NewFakePairing(device.PairedDevice{Address: addr, Name: "AirPods"}),
		sched:   testutil.NewFakeScheduler(),
	}
	clock := testutil.NewFakeClock()
	h.mgr = NewManager(h.pairing,
		WithScheduler(h.sched),
		WithClock(clock.Now),
		WithRefresh(func() { h.refreshes.Add(1) }),
	)
	t.Cleanup(h.mgr.Close)
	return h
}

func TestConnect_NoOpWhenConnected(t *testing.T) {
	h := newHarness(t)
	h.pairing.SetConnected(addr, true)

	require.NoError(t, h.mgr.Connect(context.Background(), addr))
	assert.Equal(t, 0, h.pairing.Connects(addr))
	assert.Equal(t, Idle, h.mgr.State(addr))
}

func TestConnect_SucceedsBeforeTimeout(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.mgr.Connect(context.Background(), addr))
	assert.Equal(t, Connecting, h.mgr.State(addr))
	assert.Equal(t, 1, h.mgr.Attempt(addr).Count)
	assert.False(t, h.mgr.Attempt(addr).LastAttemptAt.IsZero())

	h.pairing.SetConnected(addr, true)
	h.sched.Advance(DefaultTimeout)

	assert.Equal(t, Connected, h.mgr.State(addr))
	assert.Equal(t, 0, h.mgr.Attempt(addr).Count)
	assert.Equal(t, int32(1), h.refreshes.Load())
	assert.Equal(t, 1, h.pairing.Connects(addr))
}

func TestConnect_AttemptsNeverExceedMax(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.mgr.Connect(context.Background(), addr))

	for i := 0; i < 10; i++ {
		assert.LessOrEqual(t, h.mgr.Attempt(addr).Count, MaxAttempts)
		h.sched.Advance(DefaultTimeout)
	}

	assert.Equal(t, MaxAttempts, h.pairing.Connects(addr))
	assert.Equal(t, Exhausted, h.mgr.State(addr))
	assert.Equal(t, 0, h.mgr.Attempt(addr).Count, "exhaustion resets the counter")
	assert.Equal(t, 0, h.sched.Pending())
}

func TestConnect_FreshRequestAfterExhaustion(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.mgr.Connect(ctx, addr))
	for i := 0; i < MaxAttempts; i++ {
		h.sched.Advance(DefaultTimeout)
	}
	require.Equal(t, Exhausted, h.mgr.State(addr))

	require.NoError(t, h.mgr.Connect(ctx, addr))
	assert.Equal(t, 1, h.mgr.Attempt(addr).Count)
	assert.Equal(t, Connecting, h.mgr.State(addr))
}

func TestConnect_InProgressIsNoOp(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.mgr.Connect(ctx, addr))
	require.NoError(t, h.mgr.Connect(ctx, addr))
	assert.Equal(t, 1, h.pairing.Connects(addr))
	assert.Equal(t, 1, h.mgr.Attempt(addr).Count)
}

func TestConnect_CallErrorsRetryThroughScheduler(t *testing.T) {
	h := newHarness(t)
	h.pairing.ConnectErr = errors.New("page timeout")

	require.NoError(t, h.mgr.Connect(context.Background(), addr))
	assert.Equal(t, 1, h.pairing.Connects(addr), "retries are queued, not recursive")
	assert.Equal(t, Failed, h.mgr.State(addr))

	h.sched.RunDue()
	assert.Equal(t, MaxAttempts, h.pairing.Connects(addr))
	assert.Equal(t, Exhausted, h.mgr.State(addr))
	assert.Equal(t, 0, h.mgr.Attempt(addr).Count)
}

func TestConnect_RediscoversUnresolvableDevice(t *testing.T) {
	h := newHarness(t)
	h.pairing.Hide(addr)
	h.pairing.OnInquiry = func() { h.pairing.Reveal(addr) }

	require.NoError(t, h.mgr.Connect(context.Background(), addr))
	assert.Equal(t, 1, h.pairing.Inquiries())
	assert.Equal(t, 0, h.pairing.Connects(addr))

	h.sched.Advance(DefaultRediscoveryDelay - time.Millisecond)
	assert.Equal(t, 0, h.pairing.Connects(addr), "waits for discovery to settle")

	h.sched.Advance(time.Millisecond)
	assert.Equal(t, 1, h.pairing.Connects(addr))
	assert.Equal(t, 1, h.mgr.Attempt(addr).Count)
}

func TestConnect_SecondResolutionFailureStops(t *testing.T) {
	h := newHarness(t)
	h.pairing.Hide(addr)

	require.NoError(t, h.mgr.Connect(context.Background(), addr))
	h.sched.Advance(DefaultRediscoveryDelay)

	assert.Equal(t, 1, h.pairing.Inquiries())
	assert.Equal(t, 0, h.pairing.Connects(addr))
	assert.Equal(t, 0, h.sched.Pending())
}

func TestConnect_RequestDuringDiscoveryAllowsLaterDiscovery(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.pairing.Hide(addr)
	h.pairing.OnInquiry = func() {
		h.pairing.Reveal(addr)
		require.NoError(t, h.mgr.Connect(ctx, addr))
	}

	require.NoError(t, h.mgr.Connect(ctx, addr))
	require.Equal(t, 1, h.pairing.Connects(addr))
	h.pairing.SetConnected(addr, true)
	h.sched.Advance(DefaultTimeout)
	require.Equal(t, Connected, h.mgr.State(addr))

	h.pairing.OnInquiry = nil
	h.pairing.SetConnected(addr, false)
	h.mgr.HandleLinkEvent(device.LinkEvent{Kind: device.LinkDisconnected, Address: addr})
	h.pairing.Hide(addr)

	require.NoError(t, h.mgr.Connect(ctx, addr))
	assert.Equal(t, 2, h.pairing.Inquiries())
	assert.Equal(t, 1, h.sched.Pending(), "follow-up after discovery is scheduled")
}

func TestConnect_TimeoutStartsAfterCallReturns(t *testing.T) {
	h := newHarness(t)
	var hasDeadline bool
	pendingDuringCall := -1
	h.pairing.OnConnect = func(ctx context.Context) {
		_, hasDeadline = ctx.Deadline()
		pendingDuringCall = h.sched.Pending()
	}

	require.NoError(t, h.mgr.Connect(context.Background(), addr))
	assert.True(t, hasDeadline, "connect call is bounded by the attempt timeout")
	assert.Equal(t, 0, pendingDuringCall)
	assert.Equal(t, 1, h.sched.Pending())
	assert.Equal(t, Connecting, h.mgr.State(addr))
}

func TestConnect_EmptyAddress(t *testing.T) {
	h := newHarness(t)
	err := h.mgr.Connect(context.Background(), " ")
	assert.ErrorIs(t, err, device.ErrNotFound)
}

func TestDisconnect_ResetsAttempts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.mgr.Connect(ctx, addr))
	h.pairing.SetConnected(addr, true)

	require.NoError(t, h.mgr.Disconnect(ctx, addr))
	assert.Equal(t, 1, h.pairing.Disconnects(addr))
	assert.Equal(t, Idle, h.mgr.State(addr))
	assert.Equal(t, 0, h.mgr.Attempt(addr).Count)
	assert.Equal(t, 0, h.sched.Pending(), "pending timeout cancelled")
}

func TestDisconnect_NoOpWhenNotConnected(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.mgr.Disconnect(context.Background(), addr))
	assert.Equal(t, 0, h.pairing.Disconnects(addr))
	assert.Equal(t, int32(0), h.refreshes.Load())
}

func TestHandleLinkEvent_ConnectedCancelsTimeout(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.mgr.Connect(context.Background(), addr))

	h.mgr.HandleLinkEvent(device.LinkEvent{Kind: device.LinkConnected, Address: "aa-bb-cc-dd-ee-ff"})
	assert.Equal(t, Connected, h.mgr.State(addr))
	assert.Equal(t, 0, h.mgr.Attempt(addr).Count)
	assert.Equal(t, 0, h.sched.Pending())
	assert.Equal(t, int32(1), h.refreshes.Load())
}

func TestHandleLinkEvent_ConnectFailedRetriesImmediately(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.mgr.Connect(context.Background(), addr))

	h.mgr.HandleLinkEvent(device.LinkEvent{Kind: device.LinkConnectFailed, Address: addr})
	assert.Equal(t, Failed, h.mgr.State(addr))

	h.sched.RunDue()
	assert.Equal(t, 2, h.pairing.Connects(addr))
	assert.Equal(t, 2, h.mgr.Attempt(addr).Count)
	assert.Equal(t, Connecting, h.mgr.State(addr))
}

func TestHandleLinkEvent_DisconnectedKeepsConnecting(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.mgr.Connect(context.Background(), addr))

	h.mgr.HandleLinkEvent(device.LinkEvent{Kind: device.LinkDisconnected, Address: addr})
	assert.Equal(t, Connecting, h.mgr.State(addr))

	h.pairing.SetConnected(addr, true)
	h.sched.Advance(DefaultTimeout)
	h.mgr.HandleLinkEvent(device.LinkEvent{Kind: device.LinkDisconnected, Address: addr})
	assert.Equal(t, Idle, h.mgr.State(addr))
}

func TestWatch_AppliesEvents(t *testing.T) {
	h := newHarness(t)
	ch := make(chan device.LinkEvent, 1)
	ch <- device.LinkEvent{Kind: device.LinkConnected, Address: addr}
	close(ch)

	h.mgr.Watch(context.Background(), ch)
	assert.Equal(t, Connected, h.mgr.State(addr))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "exhausted", Exhausted.String())
	assert.Equal(t, "unknown", State(42).String())
}
