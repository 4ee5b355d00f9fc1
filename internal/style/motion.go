package style

import (
	"fmt"
	"strings"
)

const (
	defaultDuration = 300.0
	defaultEasing   = "ease-out"
)

// Motion maps a motion config to a resting transform/opacity and a hover transform.
//
//	{enabled, translateX, translateY, scale, rotate, opacity, duration, easing, hoverScale, hoverLift}
func Motion(cfg map[string]any) (base, hover Declarations) {
	if !enabled(cfg) {
		return nil, nil
	}

	var parts []string
	tx, hasX := num(cfg, "translateX")
	ty, hasY := num(cfg, "translateY")
	if (hasX && tx != 0) || (hasY && ty != 0) {
		parts = append(parts, fmt.Sprintf("translate(%spx,%spx)", fmtNum(tx), fmtNum(ty)))
	}
	if rot, ok := num(cfg, "rotate"); ok && rot != 0 {
		parts = append(parts, fmt.Sprintf("rotate(%sdeg)", fmtNum(rot)))
	}
	if sc, ok := num(cfg, "scale"); ok && sc != 1 && sc > 0 {
		parts = append(parts, fmt.Sprintf("scale(%s)", fmtNum(sc)))
	}
	if len(parts) > 0 {
		base.add("transform", strings.Join(parts, " "))
	}
	if op, ok := num(cfg, "opacity"); ok && op < 1 {
		base.add("opacity", fmtNum(clamp(op, 0, 1)))
	}

	var hoverParts []string
	if lift, ok := num(cfg, "hoverLift"); ok && lift != 0 {
		hoverParts = append(hoverParts, fmt.Sprintf("translateY(%spx)", fmtNum(-lift)))
	}
	if hs, ok := num(cfg, "hoverScale"); ok && hs != 1 && hs > 0 {
		hoverParts = append(hoverParts, fmt.Sprintf("scale(%s)", fmtNum(hs)))
	}
	if len(hoverParts) > 0 {
		hover.add("transform", strings.Join(hoverParts, " "))
	}

	duration, hasDuration := num(cfg, "duration")
	if hasDuration || len(hover) > 0 {
		if !hasDuration || duration <= 0 {
			duration = defaultDuration
		}
		easing := str(cfg, "easing")
		if easing == "" || strings.ContainsAny(easing, ";{}<>") {
			easing = defaultEasing
		}
		base.add("transition", fmt.Sprintf("transform %sms %s, opacity %sms %s",
			fmtNum(duration), easing, fmtNum(duration), easing))
	}
	return base, hover
}
