package bluez

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/urmzd/bluebar/pkg/device"
)

func TestDevicePath(t *testing.T) {
	assert.Equal(t, dbus.ObjectPath("/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF"),
		devicePath(defaultAdapter, "aa-bb-cc-dd-ee-ff"))
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", addressFromPath("/org/bluez/hci1/dev_AA_BB_CC_DD_EE_FF"))
	assert.Empty(t, addressFromPath("/org/bluez/hci0"))
	assert.Empty(t, addressFromPath("/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF/sep1"))
}

func TestPairedDevices(t *testing.T) {
	objs := managedObjects{
		"/org/bluez/hci0": {adapterIface: {"Powered": dbus.MakeVariant(true)}},
		"/org/bluez/hci0/dev_11_22_33_44_55_66": {deviceIface: {
			"Address": dbus.MakeVariant("11:22:33:44:55:66"),
			"Name":    dbus.MakeVariant("Magic Mouse"),
			"Paired":  dbus.MakeVariant(true),
		}},
		"/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF": {deviceIface: {
			"Address": dbus.MakeVariant("AA:BB:CC:DD:EE:FF"),
			"Alias":   dbus.MakeVariant("Alice's AirPods Pro"),
			"Paired":  dbus.MakeVariant(true),
		}},
		"/org/bluez/hci0/dev_22_33_44_55_66_77": {deviceIface: {
			"Address": dbus.MakeVariant("22:33:44:55:66:77"),
			"Paired":  dbus.MakeVariant(false),
		}},
	}

	assert.Equal(t, []device.PairedDevice{
		{Address: "11:22:33:44:55:66", Name: "Magic Mouse"},
		{Address: "AA:BB:CC:DD:EE:FF", Name: "Alice's AirPods Pro"},
	}, pairedDevices(objs))
	assert.Equal(t, dbus.ObjectPath("/org/bluez/hci0"), firstAdapter(objs))
}

func TestLinkEvent(t *testing.T) {
	sig := &dbus.Signal{
		Name: propsSignal,
		Path: "/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF",
		Body: []any{deviceIface, map[string]dbus.Variant{"Connected": dbus.MakeVariant(true)}, []string{}},
	}
	ev, ok := linkEvent(sig)
	assert.True(t, ok)
	assert.Equal(t, device.LinkEvent{Kind: device.LinkConnected, Address: "AA:BB:CC:DD:EE:FF"}, ev)

	sig.Body[1] = map[string]dbus.Variant{"Connected": dbus.MakeVariant(false)}
	ev, ok = linkEvent(sig)
	assert.True(t, ok)
	assert.Equal(t, device.LinkDisconnected, ev.Kind)

	sig.Body[1] = map[string]dbus.Variant{"RSSI": dbus.MakeVariant(int16(-40))}
	_, ok = linkEvent(sig)
	assert.False(t, ok)

	_, ok = linkEvent(&dbus.Signal{Name: propsSignal, Body: []any{adapterIface, map[string]dbus.Variant{}}})
	assert.False(t, ok)
}
