package style

import (
	"fmt"
	"strings"
)

// Gradient maps a background gradient config to background-image.
//
//	{enabled, type: linear|radial, angle, stops: ["#fff", {color, position}]}
//
// Fewer than two usable stops yields nothing.
func Gradient(cfg map[string]any) Declarations {
	if !enabled(cfg) {
		return nil
	}
	rawStops, _ := cfg["stops"].([]any)
	var stops []string
	for _, rs := range rawStops {
		switch s := rs.(type) {
		case string:
			if c, ok := parseHex(s); ok {
				stops = append(stops, c.rgba(1))
			}
		case map[string]any:
			c, ok := parseHex(str(s, "color"))
			if !ok {
				continue
			}
			stop := c.rgba(1)
			if pos, ok := num(s, "position"); ok {
				stop += fmt.Sprintf(" %s%%", fmtNum(clamp(pos, 0, 100)))
			}
			stops = append(stops, stop)
		}
	}
	if len(stops) < 2 {
		return nil
	}

	var out Declarations
	switch str(cfg, "type") {
	case "radial":
		out.add("background-image", fmt.Sprintf("radial-gradient(circle, %s)", strings.Join(stops, ", ")))
	default:
		angle := 180.0
		if a, ok := num(cfg, "angle"); ok {
			angle = a
		}
		out.add("background-image", fmt.Sprintf("linear-gradient(%sdeg, %s)", fmtNum(angle), strings.Join(stops, ", ")))
	}
	return out
}
