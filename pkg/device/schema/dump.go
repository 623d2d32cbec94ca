package schema

import "encoding/json"

// DiagnosticDumpSchema describes `system_profiler SPBluetoothDataType -json`
// output. Only the structure is enforced; individual battery fields stay
// lenient so one bad value does not discard the whole dump.
var DiagnosticDumpSchema = json.RawMessage(`{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["SPBluetoothDataType"],
	"properties": {
		"SPBluetoothDataType": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"device_connected": {"$ref": "#/$defs/deviceList"},
					"device_not_connected": {"$ref": "#/$defs/deviceList"}
				}
			}
		}
	},
	"$defs": {
		"deviceList": {
			"type": "array",
			"items": {
				"type": "object",
				"additionalProperties": {"type": "object"}
			}
		}
	}
}`)

// IconOverrideSchema validates icon override requests from hosts.
var IconOverrideSchema = json.RawMessage(`{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["icon"],
	"properties": {
		"icon": {"type": "string", "maxLength": 128, "pattern": "^[A-Za-z0-9._-]*$"}
	},
	"additionalProperties": false
}`)
