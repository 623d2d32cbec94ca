package testutil

// DumpCmd is the command line the gateway uses for the diagnostic dump.
const DumpCmd = "system_profiler SPBluetoothDataType -json"

// SampleDump has split-battery earbuds and a mouse connected, and a
// keyboard paired but not connected.
const SampleDump = `{
  "SPBluetoothDataType": [
    {
      "controller_properties": {"controller_address": "00:11:22:33:44:55"},
      "device_connected": [
        {
          "Alice's AirPods Pro": {
            "device_address": "AA:BB:CC:DD:EE:FF",
            "device_batteryLevelCase": "52%",
            "device_batteryLevelLeft": "80%",
            "device_batteryLevelRight": "75%",
            "device_minorType": "Headphones"
          }
        },
        {
          "Magic Mouse": {
            "device_address": "11-22-33-44-55-66",
            "device_batteryLevelMain": "64%",
            "device_minorType": "Mouse"
          }
        }
      ],
      "device_not_connected": [
        {
          "Magic Keyboard": {
            "device_address": "22:33:44:55:66:77",
            "device_minorType": "Keyboard"
          }
        }
      ]
    }
  ]
}`
