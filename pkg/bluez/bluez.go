// Package bluez is a Linux pairing source backed by BlueZ over the system
// D-Bus. It also reports link changes as device.LinkEvents.
package bluez

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog/log"

	"github.com/urmzd/bluebar/pkg/address"
	"github.com/urmzd/bluebar/pkg/device"
)

const (
	busName          = "org.bluez"
	defaultAdapter   = dbus.ObjectPath("/org/bluez/hci0")
	adapterIface     = "org.bluez.Adapter1"
	deviceIface      = "org.bluez.Device1"
	propsIface       = "org.freedesktop.DBus.Properties"
	propsSignal      = "org.freedesktop.DBus.Properties.PropertiesChanged"
	objectManager    = "org.freedesktop.DBus.ObjectManager.GetManagedObjects"
	devicePathMarker = "/dev_"
)

// InquiryDuration is how long Inquiry keeps discovery running.
const InquiryDuration = 5 * time.Second

// managedObjects is the GetManagedObjects reply shape.
type managedObjects map[dbus.ObjectPath]map[string]map[string]dbus.Variant

// Source implements device.PairingSource and device.LinkEventSource.
type Source struct {
	conn    *dbus.Conn
	adapter dbus.ObjectPath
}

// Open connects to the system bus and checks that BlueZ is running.
func Open() (*Source, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect to system bus: %w", err)
	}
	var names []string
	if err := conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("list bus names: %w", err)
	}
	if !slices.Contains(names, busName) {
		_ = conn.Close()
		return nil, fmt.Errorf("org.bluez not on system bus: %w", device.ErrUnavailable)
	}

	s := &Source{conn: conn, adapter: defaultAdapter}
	if objs, err := s.managedObjects(context.Background()); err == nil {
		if a := firstAdapter(objs); a != "" {
			s.adapter = a
		}
	}
	log.Info().Str("adapter", string(s.adapter)).Msg("BlueZ pairing source ready")
	return s, nil
}

// Close releases the bus connection.
func (s *Source) Close() error {
	return s.conn.Close()
}

func (s *Source) managedObjects(ctx context.Context) (managedObjects, error) {
	var objs managedObjects
	err := s.conn.Object(busName, "/").CallWithContext(ctx, objectManager, 0).Store(&objs)
	return objs, err
}

func (s *Source) devicePath(addr string) dbus.ObjectPath {
	return devicePath(s.adapter, addr)
}

func (s *Source) getProp(ctx context.Context, path dbus.ObjectPath, iface, prop string) (dbus.Variant, error) {
	var v dbus.Variant
	err := s.conn.Object(busName, path).CallWithContext(ctx, propsIface+".Get", 0, iface, prop).Store(&v)
	return v, err
}

// ListPaired returns every paired Device1 object.
func (s *Source) ListPaired(ctx context.Context) ([]device.PairedDevice, error) {
	objs, err := s.managedObjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("managed objects: %w", err)
	}
	return pairedDevices(objs), nil
}

// Lookup resolves a paired device by address.
func (s *Source) Lookup(ctx context.Context, addr string) (*device.PairedDevice, error) {
	if address.Normalize(addr) == "" {
		return nil, device.ErrNotFound
	}
	path := s.devicePath(addr)
	v, err := s.getProp(ctx, path, deviceIface, "Paired")
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", addr, device.ErrNotFound)
	}
	if paired, ok := v.Value().(bool); !ok || !paired {
		return nil, fmt.Errorf("lookup %s: %w", addr, device.ErrNotFound)
	}
	pd := &device.PairedDevice{Address: address.WithColons(addr)}
	if v, err := s.getProp(ctx, path, deviceIface, "Alias"); err == nil {
		pd.Name, _ = v.Value().(string)
	}
	return pd, nil
}

// IsConnected reads Device1.Connected.
func (s *Source) IsConnected(ctx context.Context, addr string) (bool, error) {
	v, err := s.getProp(ctx, s.devicePath(addr), deviceIface, "Connected")
	if err != nil {
		return false, fmt.Errorf("connection status: %w", err)
	}
	connected, ok := v.Value().(bool)
	if !ok {
		return false, errors.New("property Connected is not bool")
	}
	return connected, nil
}

// Connect calls Device1.Connect.
func (s *Source) Connect(ctx context.Context, addr string) error {
	obj := s.conn.Object(busName, s.devicePath(addr))
	if err := obj.CallWithContext(ctx, deviceIface+".Connect", 0).Err; err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

// Disconnect calls Device1.Disconnect.
func (s *Source) Disconnect(ctx context.Context, addr string) error {
	obj := s.conn.Object(busName, s.devicePath(addr))
	if err := obj.CallWithContext(ctx, deviceIface+".Disconnect", 0).Err; err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}

// Inquiry runs adapter discovery for InquiryDuration.
func (s *Source) Inquiry(ctx context.Context) error {
	obj := s.conn.Object(busName, s.adapter)
	if err := obj.CallWithContext(ctx, adapterIface+".StartDiscovery", 0).Err; err != nil {
		return fmt.Errorf("start discovery: %w", err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(InquiryDuration):
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := obj.CallWithContext(stopCtx, adapterIface+".StopDiscovery", 0).Err; err != nil {
		return fmt.Errorf("stop discovery: %w", err)
	}
	return nil
}

// LinkEvents streams Device1.Connected changes until ctx ends.
func (s *Source) LinkEvents(ctx context.Context) (<-chan device.LinkEvent, error) {
	rule := "type='signal',interface='" + propsIface + "',member='PropertiesChanged',path_namespace='/org/bluez'"
	if err := s.conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.AddMatch", 0, rule).Err; err != nil {
		return nil, fmt.Errorf("add match: %w", err)
	}

	signals := make(chan *dbus.Signal, 16)
	s.conn.Signal(signals)

	out := make(chan device.LinkEvent, 16)
	go func() {
		defer close(out)
		defer s.conn.RemoveSignal(signals)
		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-signals:
				if !ok {
					return
				}
				ev, ok := linkEvent(sig)
				if !ok {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// devicePath converts an address to "<adapter>/dev_AA_BB_CC_DD_EE_FF".
func devicePath(adapter dbus.ObjectPath, addr string) dbus.ObjectPath {
	escaped := strings.ReplaceAll(address.WithColons(addr), ":", "_")
	return dbus.ObjectPath(string(adapter) + devicePathMarker + escaped)
}

// addressFromPath extracts the address from a device object path.
func addressFromPath(path dbus.ObjectPath) string {
	s := string(path)
	i := strings.LastIndex(s, devicePathMarker)
	if i < 0 {
		return ""
	}
	rest := s[i+len(devicePathMarker):]
	if strings.Contains(rest, "/") {
		return ""
	}
	return strings.ReplaceAll(rest, "_", ":")
}

func firstAdapter(objs managedObjects) dbus.ObjectPath {
	var adapters []string
	for path, ifaces := range objs {
		if _, ok := ifaces[adapterIface]; ok {
			adapters = append(adapters, string(path))
		}
	}
	if len(adapters) == 0 {
		return ""
	}
	sort.Strings(adapters)
	return dbus.ObjectPath(adapters[0])
}

// pairedDevices extracts paired Device1 objects ordered by path.
func pairedDevices(objs managedObjects) []device.PairedDevice {
	paths := make([]string, 0, len(objs))
	for path := range objs {
		paths = append(paths, string(path))
	}
	sort.Strings(paths)

	var devices []device.PairedDevice
	for _, p := range paths {
		props, ok := objs[dbus.ObjectPath(p)][deviceIface]
		if !ok {
			continue
		}
		if paired, _ := props["Paired"].Value().(bool); !paired {
			continue
		}
		addr, _ := props["Address"].Value().(string)
		name, _ := props["Alias"].Value().(string)
		if name == "" {
			name, _ = props["Name"].Value().(string)
		}
		devices = append(devices, device.PairedDevice{Address: addr, Name: name})
	}
	return devices
}

// linkEvent translates a Device1 PropertiesChanged signal.
func linkEvent(sig *dbus.Signal) (device.LinkEvent, bool) {
	if sig == nil || sig.Name != propsSignal || len(sig.Body) < 2 {
		return device.LinkEvent{}, false
	}
	iface, ok := sig.Body[0].(string)
	if !ok || iface != deviceIface {
		return device.LinkEvent{}, false
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return device.LinkEvent{}, false
	}
	v, ok := changed["Connected"]
	if !ok {
		return device.LinkEvent{}, false
	}
	connected, ok := v.Value().(bool)
	addr := addressFromPath(sig.Path)
	if !ok || addr == "" {
		return device.LinkEvent{}, false
	}
	kind := device.LinkDisconnected
	if connected {
		kind = device.LinkConnected
	}
	return device.LinkEvent{Kind: kind, Address: addr}, true
}
