package registry

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"pagebuilder/internal/domain"
)

// Catalog is a component library file: extra components declared in YAML and
// rendered through html/template.
type Catalog struct {
	Components []CatalogComponent `yaml:"components"`
}

// CatalogComponent is one YAML-declared component.
type CatalogComponent struct {
	Name        string         `yaml:"name"`
	DisplayName string         `yaml:"display_name"`
	Category    string         `yaml:"category"`
	Icon        string         `yaml:"icon"`
	Container   bool           `yaml:"container"`
	Template    string         `yaml:"template"`
	Defaults    map[string]any `yaml:"defaults"`
	Props       []PropSpec     `yaml:"props"`
}

// templateData is what catalog templates see.
type templateData struct {
	BlockID  string
	Editing  bool
	Props    domain.Props
	Children template.HTML
}

// ParseCatalog decodes a catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return &c, nil
}

// LoadCatalog reads a catalog file and returns a registry holding the built-in
// components plus the catalog's. A missing file yields the built-ins only.
func LoadCatalog(path string) (*Registry, error) {
	if path == "" {
		return Builtin(), nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Builtin(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, err
	}
	r, err := c.Build()
	if err != nil {
		return nil, err
	}
	log.Printf("[CATALOG] loaded %d component(s) from %s", len(c.Components), path)
	return r, nil
}

// Build compiles every catalog component and returns built-ins + catalog.
func (c *Catalog) Build() (*Registry, error) {
	entries := BuiltinEntries()
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		seen[e.Name] = true
	}
	for _, cc := range c.Components {
		if cc.Name == "" {
			return nil, fmt.Errorf("catalog: component without name")
		}
		if seen[cc.Name] {
			return nil, fmt.Errorf("catalog: duplicate component %q", cc.Name)
		}
		seen[cc.Name] = true
		e, err := cc.entry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return New(entries...), nil
}

func (cc CatalogComponent) entry() (Entry, error) {
	tmpl, err := template.New(cc.Name).Option("missingkey=zero").Parse(cc.Template)
	if err != nil {
		return Entry{}, fmt.Errorf("catalog: component %q: %w", cc.Name, err)
	}
	category := cc.Category
	if category == "" {
		category = "Library"
	}
	var defaults domain.Props
	if cc.Defaults != nil {
		defaults = domain.Props(cc.Defaults).Clone()
	}
	return Entry{
		Name:         cc.Name,
		DisplayName:  cc.DisplayName,
		Category:     category,
		Icon:         cc.Icon,
		Container:    cc.Container,
		DefaultProps: defaults,
		Props:        cc.Props,
		Render: func(ctx RenderContext, props domain.Props, children template.HTML) (template.HTML, error) {
			var buf bytes.Buffer
			err := tmpl.Execute(&buf, templateData{
				BlockID:  ctx.BlockID,
				Editing:  ctx.Editing,
				Props:    props,
				Children: children,
			})
			if err != nil {
				return "", fmt.Errorf("render %s: %w", cc.Name, err)
			}
			return template.HTML(buf.String()), nil
		},
	}, nil
}
