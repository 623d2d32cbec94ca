package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urmzd/bluebar/pkg/api/types"
	"github.com/urmzd/bluebar/pkg/db"
	"github.com/urmzd/bluebar/pkg/device"
	"github.com/urmzd/bluebar/pkg/device/schema"
	"github.com/urmzd/bluebar/pkg/engine"
	"github.com/urmzd/bluebar/pkg/testutil"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	store, err := db.Open(filepath.Join(t.TempDir(), "bluebar.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	pairing := testutil.NewFakePairing(
		device.PairedDevice{Address: "aa-bb-cc-dd-ee-ff", Name: "AirPods"},
		device.PairedDevice{Address: "22-33-44-55-66-77", Name: "Keyboard"},
	)
	pairing.SetConnected("AABBCCDDEEFF", true)
	runner := testutil.NewFakeRunner()
	runner.Set(testutil.DumpCmd, testutil.SampleDump, nil)

	e := engine.New(engine.Options{
		Pairing:   pairing,
		Runner:    runner,
		Overrides: store.Overrides(),
		Scheduler: testutil.NewFakeScheduler(),
	})
	t.Cleanup(e.Close)
	_, err = e.Refresh(context.Background())
	require.NoError(t, err)
	return e
}

func newTestRouter(t *testing.T) (*Router, *engine.Engine) {
	t.Helper()
	e := newTestEngine(t)
	return NewRouter(e, e, schema.NewValidator(), e.Registry()), e
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(t, r.Handler(), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[types.HealthResponse](t, w)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 2, resp.Devices)
	assert.NotNil(t, resp.LastPass)
}

func TestHealth_NullController(t *testing.T) {
	r := NewRouter(device.NewNullController(), device.NewNullEventSubscriber(), schema.NewValidator(), nil)

	w := do(t, r.Handler(), http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "degraded", decode[types.HealthResponse](t, w).Status)

	w = do(t, r.Handler(), http.MethodPost, "/api/v1/scan", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestListAndGetDevices(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(t, r.Handler(), http.MethodGet, "/api/v1/devices", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[types.ListDevicesResponse](t, w)
	require.Equal(t, 2, list.Count)
	assert.Equal(t, "223344556677", list.Devices[0].ID)
	buds := list.Devices[1]
	assert.Equal(t, "Alice's AirPods Pro", buds.Name)
	assert.True(t, buds.AppleStyle)
	require.NotNil(t, buds.BatteryLeft)
	assert.Equal(t, 80, *buds.BatteryLeft)
	assert.Nil(t, buds.BatteryGeneral)

	w = do(t, r.Handler(), http.MethodGet, "/api/v1/devices/aa-bb-cc-dd-ee-ff", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "AABBCCDDEEFF", decode[types.DeviceResponse](t, w).Device.ID)

	w = do(t, r.Handler(), http.MethodGet, "/api/v1/devices/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode[types.ErrorResponse](t, w).Error)
}

func TestRefresh(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(t, r.Handler(), http.MethodPost, "/api/v1/devices/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[types.ListDevicesResponse](t, w).Count)
}

func TestSetIcon(t *testing.T) {
	r, _ := newTestRouter(t)
	h := r.Handler()

	w := do(t, h, http.MethodPut, "/api/v1/devices/AABBCCDDEEFF/icon", `{"icon": "airpods pro!"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decode[types.ErrorResponse](t, w).Error)

	w = do(t, h, http.MethodPut, "/api/v1/devices/AABBCCDDEEFF/icon", `{"icon": "airpodspro", "color": "red"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPut, "/api/v1/devices/AABBCCDDEEFF/icon", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPut, "/api/v1/devices/AABBCCDDEEFF/icon", `{"icon": "airpodspro"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "airpodspro", decode[types.DeviceResponse](t, w).Device.IconOverride)

	w = do(t, h, http.MethodPut, "/api/v1/devices/nope/icon", `{"icon": "airpodspro"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetVisibility(t *testing.T) {
	r, _ := newTestRouter(t)
	h := r.Handler()

	w := do(t, h, http.MethodPut, "/api/v1/devices/AABBCCDDEEFF/visibility", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPut, "/api/v1/devices/AABBCCDDEEFF/visibility", `{"show": false}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[types.DeviceResponse](t, w).Device.ShowIcon)
}

func TestConnectionActions(t *testing.T) {
	r, _ := newTestRouter(t)
	h := r.Handler()

	w := do(t, h, http.MethodPost, "/api/v1/devices/Magic%20Keyboard/connect", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "connecting", decode[types.ActionResponse](t, w).Status)

	w = do(t, h, http.MethodPost, "/api/v1/devices/nope/connect", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodPost, "/api/v1/devices/AABBCCDDEEFF/disconnect", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodPost, "/api/v1/devices/Magic%20Keyboard/audio", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, "keyboard is not connected")

	w = do(t, h, http.MethodPost, "/api/v1/scan", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEventsStream(t *testing.T) {
	r, e := newTestRouter(t)
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: connected", lines.Text())

	require.NoError(t, e.SetIconVisibility(context.Background(), "AABBCCDDEEFF", false))

	for lines.Scan() {
		if lines.Text() == "event: device_changed" {
			require.True(t, lines.Scan())
			assert.Contains(t, lines.Text(), `"show_icon"`)
			return
		}
	}
	t.Fatal("stream ended without a device_changed event")
}
