package registry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urmzd/bluebar/pkg/battery"
	"github.com/urmzd/bluebar/pkg/device"
	"github.com/urmzd/bluebar/pkg/facts"
	"github.com/urmzd/bluebar/pkg/testutil"
)

const (
	budsAddr  = "AA:BB:CC:DD:EE:FF"
	mouseAddr = "11:22:33:44:55:66"
	kbAddr    = "22:33:44:55:66:77"
)

type capture struct {
	mu    sync.Mutex
	diffs []device.Diff
}

func (c *capture) Publish(d device.Diff) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diffs = append(c.diffs, d)
}

func (c *capture) all() []device.Diff {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]device.Diff(nil), c.diffs...)
}

type memOverrides struct {
	icons      map[string]string
	visibility map[string]bool
	err        error
}

func (m *memOverrides) IconOverride(_ context.Context, id string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.icons[id], nil
}

func (m *memOverrides) Visibility(context.Context) (map[string]bool, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.visibility, nil
}

type fixture struct {
	pairing   *testutil.FakePairing
	runner    *testutil.FakeRunner
	clock     *testutil.FakeClock
	published *capture
	overrides *memOverrides
	rec       *Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		pairing: testutil.NewFakePairing(
			device.PairedDevice{Address: "aa-bb-cc-dd-ee-ff", Name: "AirPods"},
			device.PairedDevice{Address: mouseAddr, Name: "Mouse"},
			device.PairedDevice{Address: kbAddr, Name: "Keyboard"},
		),
		runner:    testutil.NewFakeRunner(),
		clock:     testutil.NewFakeClock(),
		published: &capture{},
		overrides: &memOverrides{icons: map[string]string{}, visibility: map[string]bool{}},
	}
	f.runner.Set(testutil.DumpCmd, testutil.SampleDump, nil)
	f.pairing.SetConnected(budsAddr, true)
	f.pairing.SetConnected(mouseAddr, true)

	g := facts.NewGateway(f.pairing, f.runner, nil, facts.WithClock(f.clock.Now))
	f.rec = New(g, battery.NewDumpSource(g),
		WithPublisher(f.published),
		WithOverrides(f.overrides),
		WithClock(f.clock.Now),
	)
	return f
}

func TestReconcile_BuildsCanonicalDevices(t *testing.T) {
	f := newFixture(t)

	snap := f.rec.Reconcile(context.Background())
	require.Len(t, snap, 3)

	buds := snap["AABBCCDDEEFF"]
	assert.Equal(t, "Alice's AirPods Pro", buds.Name, "system name preferred over pairing name")
	assert.Equal(t, "AABBCCDDEEFF", buds.Address)
	assert.True(t, buds.Connected)
	assert.True(t, buds.IsAppleStyle())
	assert.Equal(t, 80, *buds.BatteryLeft)
	assert.Equal(t, 75, *buds.BatteryRight)
	assert.Equal(t, 52, *buds.BatteryCase)
	assert.Nil(t, buds.BatteryGeneral)
	assert.True(t, buds.ShowIcon)

	mouse := snap["112233445566"]
	assert.Equal(t, 64, *mouse.BatteryGeneral)
	assert.False(t, mouse.IsAppleStyle())

	kb := snap["223344556677"]
	assert.Equal(t, "Magic Keyboard", kb.Name)
	assert.False(t, kb.Connected)
	assert.Nil(t, kb.BatteryGeneral, "disconnected devices have unknown battery")

	assert.Equal(t, 1, f.runner.Calls(testutil.DumpCmd), "one dump per pass")
}

func TestReconcile_FirstPassPublishesAdds(t *testing.T) {
	f := newFixture(t)
	f.rec.Reconcile(context.Background())

	diffs := f.published.all()
	require.Len(t, diffs, 1)
	require.Len(t, diffs[0].Events, 3)
	for _, evt := range diffs[0].Events {
		assert.Equal(t, device.EventDeviceAdded, evt.Kind)
	}
	assert.NotEmpty(t, diffs[0].PassID)
}

func TestReconcile_IdenticalInputsYieldEmptyDiff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.rec.Reconcile(ctx)
	f.clock.Advance(10 * time.Second)
	f.rec.Reconcile(ctx)

	assert.Len(t, f.published.all(), 1, "second identical pass publishes nothing")
	assert.Equal(t, 2, f.runner.Calls(testutil.DumpCmd))
}

func TestReconcile_EmptyPairedListRemovesEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.rec.Reconcile(ctx)

	f.pairing.SetDevices()
	snap := f.rec.Reconcile(ctx)
	assert.Empty(t, snap)

	diffs := f.published.all()
	require.Len(t, diffs, 2)
	removed := map[string]bool{}
	for _, evt := range diffs[1].Events {
		assert.Equal(t, device.EventDeviceRemoved, evt.Kind)
		removed[evt.ID] = true
	}
	assert.Equal(t, map[string]bool{"AABBCCDDEEFF": true, "112233445566": true, "223344556677": true}, removed)
}

func TestReconcile_PairingFailureYieldsEmptySnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.rec.Reconcile(ctx)

	f.pairing.ListErr = errors.New("bluetooth daemon unreachable")
	assert.Empty(t, f.rec.Reconcile(ctx), "stale devices are not retained")
}

func TestReconcile_DumpFailureDegradesToFewerFacts(t *testing.T) {
	f := newFixture(t)
	f.runner.Set(testutil.DumpCmd, "", errors.New("system_profiler crashed"))

	snap := f.rec.Reconcile(context.Background())
	require.Len(t, snap, 3)
	buds := snap["AABBCCDDEEFF"]
	assert.Equal(t, "AirPods", buds.Name, "pairing name used without dump")
	assert.True(t, buds.Connected)
	assert.Nil(t, buds.BatteryLeft)
	assert.Nil(t, buds.BatteryGeneral)
}

func TestReconcile_ChangedFieldsOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.rec.Reconcile(ctx)

	f.pairing.SetConnected(mouseAddr, false)
	f.clock.Advance(facts.DumpTTL)
	f.rec.Reconcile(ctx)

	diffs := f.published.all()
	require.Len(t, diffs, 2)
	require.Len(t, diffs[1].Events, 1)
	evt := diffs[1].Events[0]
	assert.Equal(t, device.EventDeviceChanged, evt.Kind)
	assert.Equal(t, "112233445566", evt.ID)
	assert.ElementsMatch(t, []device.Field{device.FieldConnected, device.FieldBatteryGeneral}, evt.Fields)
}

func TestReconcile_AttachesOverrides(t *testing.T) {
	f := newFixture(t)
	f.overrides.icons["AABBCCDDEEFF"] = "airpodspro"
	f.overrides.visibility["112233445566"] = false

	snap := f.rec.Reconcile(context.Background())
	assert.Equal(t, "airpodspro", snap["AABBCCDDEEFF"].IconOverride)
	assert.False(t, snap["112233445566"].ShowIcon)
	assert.True(t, snap["223344556677"].ShowIcon)
}

func TestReconcile_OverrideStoreFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.overrides.err = errors.New("database locked")

	snap := f.rec.Reconcile(context.Background())
	assert.Len(t, snap, 3)
	assert.Empty(t, snap["AABBCCDDEEFF"].IconOverride)
}

func TestReconcile_NameIdentityWithoutAddress(t *testing.T) {
	f := newFixture(t)
	f.pairing.SetDevices(
		device.PairedDevice{Address: "", Name: "Legacy Headset"},
		device.PairedDevice{Address: "", Name: ""},
	)

	snap := f.rec.Reconcile(context.Background())
	require.Len(t, snap, 1)
	d := snap["Legacy Headset"]
	assert.Equal(t, "Legacy Headset", d.ID)
	assert.Empty(t, d.Address)
	assert.False(t, d.Connected)
}

func TestReconcile_DuplicateAddressesCollapse(t *testing.T) {
	f := newFixture(t)
	f.pairing.SetDevices(
		device.PairedDevice{Address: budsAddr, Name: "AirPods"},
		device.PairedDevice{Address: "aabbccddeeff", Name: "AirPods (again)"},
	)

	snap := f.rec.Reconcile(context.Background())
	assert.Len(t, snap, 1)
}

type blockingFacts struct {
	Facts
	entered chan struct{}
	release chan struct{}
	calls   int
	mu      sync.Mutex
}

func (b *blockingFacts) FetchPairedDevices(ctx context.Context) []device.PairedDevice {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	b.entered <- struct{}{}
	<-b.release
	return nil
}

func TestReconcile_CoalescesOverlappingPasses(t *testing.T) {
	bf := &blockingFacts{entered: make(chan struct{}), release: make(chan struct{})}
	rec := New(bf, battery.Chain{})

	done := make(chan struct{})
	go func() {
		rec.Reconcile(context.Background())
		close(done)
	}()
	<-bf.entered

	rec.Reconcile(context.Background())
	close(bf.release)
	<-done

	bf.mu.Lock()
	defer bf.mu.Unlock()
	assert.Equal(t, 1, bf.calls)
}

func TestRun_RequestsDuringPassCollapseIntoOneTrailingPass(t *testing.T) {
	bf := &blockingFacts{entered: make(chan struct{}), release: make(chan struct{})}
	rec := New(bf, battery.Chain{}, WithInterval(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = rec.Run(ctx) }()

	<-bf.entered
	rec.Request()
	rec.Request()
	rec.Request()
	close(bf.release)

	<-bf.entered
	select {
	case <-bf.entered:
		t.Fatal("unexpected third pass")
	case <-time.After(50 * time.Millisecond):
	}

	bf.mu.Lock()
	defer bf.mu.Unlock()
	assert.Equal(t, 2, bf.calls)
}

func TestDevice_LookupByAddressAndName(t *testing.T) {
	f := newFixture(t)
	f.rec.Reconcile(context.Background())

	d, ok := f.rec.Device("aa:bb:cc:dd:ee:ff")
	require.True(t, ok)
	assert.Equal(t, "AABBCCDDEEFF", d.ID)

	d, ok = f.rec.Device("Magic Mouse")
	require.True(t, ok)
	assert.Equal(t, "112233445566", d.ID)

	_, ok = f.rec.Device("nope")
	assert.False(t, ok)
}

func TestRun_RequestTriggersPass(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.rec = New(facts.NewGateway(f.pairing, f.runner, nil), battery.Chain{},
		WithPublisher(f.published), WithInterval(time.Hour))
	go func() { _ = f.rec.Run(ctx) }()

	require.Eventually(t, func() bool { return len(f.published.all()) == 1 }, time.Second, 5*time.Millisecond)

	f.pairing.SetDevices()
	f.rec.Request()
	require.Eventually(t, func() bool { return len(f.published.all()) == 2 }, time.Second, 5*time.Millisecond)
}
