package registry

import (
	"errors"
	"fmt"
	"strconv"

	"pagebuilder/internal/domain"
)

// PropKind is the expected JSON kind of a prop value.
type PropKind string

const (
	KindAny    PropKind = ""
	KindString PropKind = "string"
	KindNumber PropKind = "number"
	KindBool   PropKind = "bool"
	KindObject PropKind = "object"
	KindArray  PropKind = "array"
)

// PropSpec declares one prop a component understands.
type PropSpec struct {
	Name     string   `yaml:"name"`
	Kind     PropKind `yaml:"kind"`
	Required bool     `yaml:"required"`
}

// ErrInvalidProps is wrapped by every prop validation failure.
var ErrInvalidProps = errors.New("invalid props")

func validateProps(e Entry, props domain.Props) error {
	var problems []error
	for _, spec := range e.Props {
		v, ok := props[spec.Name]
		if !ok || v == nil {
			if spec.Required {
				problems = append(problems, fmt.Errorf("%s: missing required prop %q", e.Name, spec.Name))
			}
			continue
		}
		if !kindMatches(spec.Kind, v) {
			problems = append(problems, fmt.Errorf("%s: prop %q must be %s, got %T", e.Name, spec.Name, spec.Kind, v))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidProps, errors.Join(problems...))
}

func kindMatches(kind PropKind, v any) bool {
	switch kind {
	case KindAny:
		return true
	case KindString:
		_, ok := v.(string)
		return ok
	case KindNumber:
		_, ok := toFloat(v)
		return ok
	case KindBool:
		_, ok := v.(bool)
		return ok
	case KindObject:
		switch v.(type) {
		case map[string]any, domain.Props:
			return true
		}
		return false
	case KindArray:
		_, ok := v.([]any)
		return ok
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}

// ── prop accessors used by renderers ───────────────────────

func propString(p domain.Props, key, def string) string {
	switch v := p[key].(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return def
}

func propInt(p domain.Props, key string, def int) int {
	if f, ok := toFloat(p[key]); ok {
		return int(f)
	}
	if s, ok := p[key].(string); ok {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}

func propBool(p domain.Props, key string, def bool) bool {
	if b, ok := p[key].(bool); ok {
		return b
	}
	return def
}
