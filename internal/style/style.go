// Package style turns a block's reserved style props into CSS declarations.
// Everything here is a pure function of its input.
package style

import (
	"strings"

	"pagebuilder/internal/domain"
)

// Declaration is one CSS property/value pair.
type Declaration struct {
	Property string
	Value    string
}

// Declarations is an ordered declaration list. Later entries win, matching the
// CSS cascade inside a single style attribute.
type Declarations []Declaration

// String serializes the list as an inline style value.
func (d Declarations) String() string {
	if len(d) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, decl := range d {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(decl.Property)
		sb.WriteByte(':')
		sb.WriteString(decl.Value)
	}
	return sb.String()
}

// Get returns the effective value of prop.
func (d Declarations) Get(prop string) (string, bool) {
	for i := len(d) - 1; i >= 0; i-- {
		if d[i].Property == prop {
			return d[i].Value, true
		}
	}
	return "", false
}

func (d *Declarations) add(prop, value string) {
	*d = append(*d, Declaration{Property: prop, Value: value})
}

// Result is the computed visual style of one block.
type Result struct {
	Base  Declarations
	Hover Declarations
}

// Empty reports whether the block gets no computed style at all.
func (r Result) Empty() bool {
	return len(r.Base) == 0 && len(r.Hover) == 0
}

// Compute resolves the style pipeline for one block: background gradient,
// glass, motion, then custom CSS last.
func Compute(props domain.Props, customCSS string) Result {
	var res Result
	styles := asMap(props[domain.PropStyles])

	res.Base = append(res.Base, Gradient(asMap(props[domain.PropBackgroundGradient]))...)
	res.Base = append(res.Base, Glass(asMap(styles["glass"]))...)

	motionCfg := asMap(styles["motion"])
	if motionCfg == nil {
		motionCfg = asMap(props[domain.PropMotion])
	}
	base, hover := Motion(motionCfg)
	res.Base = append(res.Base, base...)
	res.Hover = hover

	res.Base = append(res.Base, ParseCSS(customCSS)...)
	return res
}

// ParseCSS reads "prop: value; prop: value" declarations. A wrapping
// "selector { ... }" is unwrapped. Malformed or unsafe entries are dropped.
func ParseCSS(css string) Declarations {
	css = strings.TrimSpace(css)
	if open := strings.IndexByte(css, '{'); open >= 0 {
		end := strings.IndexByte(css[open:], '}')
		if end < 0 {
			css = css[open+1:]
		} else {
			css = css[open+1 : open+end]
		}
	}
	var out Declarations
	for _, part := range strings.Split(css, ";") {
		prop, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		value = strings.TrimSpace(value)
		if !validProperty(prop) || value == "" || strings.ContainsAny(value, "<>{}") {
			continue
		}
		out.add(prop, value)
	}
	return out
}

func validProperty(p string) bool {
	if p == "" {
		return false
	}
	for _, r := range p {
		if !(r == '-' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}
