package style

import (
	"fmt"
	"strconv"
	"strings"

	"pagebuilder/internal/domain"
)

func asMap(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case domain.Props:
		return m
	}
	return nil
}

// enabled treats a present config as on unless it says enabled: false.
func enabled(cfg map[string]any) bool {
	if cfg == nil {
		return false
	}
	if b, ok := cfg["enabled"].(bool); ok {
		return b
	}
	return true
}

func num(cfg map[string]any, key string) (float64, bool) {
	switch n := cfg[key].(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err == nil {
			return f, true
		}
	}
	return 0, false
}

func str(cfg map[string]any, key string) string {
	s, _ := cfg[key].(string)
	return strings.TrimSpace(s)
}

func fmtNum(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

type rgb struct{ r, g, b uint8 }

func (c rgb) rgba(alpha float64) string {
	return fmt.Sprintf("rgba(%d,%d,%d,%s)", c.r, c.g, c.b, fmtNum(clamp(alpha, 0, 1)))
}

// parseHex accepts #rgb and #rrggbb.
func parseHex(s string) (rgb, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return rgb{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return rgb{}, false
	}
	return rgb{uint8(v >> 16), uint8(v >> 8), uint8(v)}, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
