package facts

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// HIDCategory is an IORegistry class that may expose a BatteryPercent property.
type HIDCategory struct {
	Kind  string
	Class string
}

// HIDCategories are probed in this order; the generic class is always last.
var HIDCategories = []HIDCategory{
	{Kind: "keyboard", Class: "AppleBluetoothHIDKeyboard"},
	{Kind: "mouse", Class: "BNBMouseDevice"},
	{Kind: "generic", Class: "AppleDeviceManagementHIDEventService"},
}

const hidBatteryField = `"BatteryPercent"`

// FetchHIDBatteryLevel asks the IORegistry for a battery percentage.
// typeHint "keyboard" or "mouse" skips the other specialized class; nameHint,
// when set, restricts matches to registry entries whose Product equals it.
func (g *Gateway) FetchHIDBatteryLevel(ctx context.Context, typeHint, nameHint string) *int {
	hint := strings.ToLower(strings.TrimSpace(typeHint))
	specialized := hint == "keyboard" || hint == "mouse"

	for _, cat := range HIDCategories {
		if specialized && cat.Kind != "generic" && cat.Kind != hint {
			continue
		}
		out, err := g.runner.Run(ctx, "ioreg", "-r", "-l", "-c", cat.Class)
		if err != nil {
			log.Debug().Err(err).Str("class", cat.Class).Msg("HID probe failed")
			continue
		}
		if lvl, ok := parseHIDBattery(string(out), nameHint); ok {
			return &lvl
		}
	}
	return nil
}

// parseHIDBattery scans ioreg output block by block ("+-o" starts a block).
func parseHIDBattery(out, nameHint string) (int, bool) {
	for _, block := range splitIORegBlocks(out) {
		if nameHint != "" && !strings.Contains(block, `"Product" = "`+nameHint+`"`) {
			continue
		}
		for _, line := range strings.Split(block, "\n") {
			if !strings.Contains(line, hidBatteryField) {
				continue
			}
			_, value, found := strings.Cut(line, "=")
			if !found {
				continue
			}
			fields := strings.Fields(value)
			if len(fields) == 0 {
				continue
			}
			lvl, err := strconv.Atoi(fields[len(fields)-1])
			if err != nil || lvl < 0 || lvl > 100 {
				continue
			}
			return lvl, true
		}
	}
	return 0, false
}

func splitIORegBlocks(out string) []string {
	var blocks []string
	var cur strings.Builder
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "+-o ") && cur.Len() > 0 {
			blocks = append(blocks, cur.String())
			cur.Reset()
		}
		cur.WriteString(line)
		cur.WriteByte('\n')
	}
	if cur.Len() > 0 {
		blocks = append(blocks, cur.String())
	}
	return blocks
}
