package style

import "fmt"

const (
	defaultTintOpacity   = 0.15
	defaultGlowIntensity = 24.0
	glowAlpha            = 0.45
)

// Glass maps a glass config to backdrop blur, tinted background, border and glow.
//
//	{enabled, blur, tint, tintOpacity, borderOpacity, glow, glowColor, glowIntensity}
func Glass(cfg map[string]any) Declarations {
	if !enabled(cfg) {
		return nil
	}
	var out Declarations

	if blur, ok := num(cfg, "blur"); ok && blur > 0 {
		v := fmt.Sprintf("blur(%spx)", fmtNum(blur))
		out.add("backdrop-filter", v)
		out.add("-webkit-backdrop-filter", v)
	}

	tint, hasTint := parseHex(str(cfg, "tint"))
	if hasTint {
		alpha := defaultTintOpacity
		if o, ok := num(cfg, "tintOpacity"); ok {
			alpha = o
		}
		out.add("background-color", tint.rgba(alpha))
	}

	if bo, ok := num(cfg, "borderOpacity"); ok && bo > 0 {
		out.add("border", "1px solid "+rgb{255, 255, 255}.rgba(bo))
	}

	glow, _ := cfg["glow"].(bool)
	if glow {
		color, ok := parseHex(str(cfg, "glowColor"))
		if !ok {
			color = rgb{255, 255, 255}
			if hasTint {
				color = tint
			}
		}
		intensity := defaultGlowIntensity
		if gi, ok := num(cfg, "glowIntensity"); ok && gi > 0 {
			intensity = gi
		}
		out.add("box-shadow", fmt.Sprintf("0 0 %spx 0 %s", fmtNum(intensity), color.rgba(glowAlpha)))
	}
	return out
}
