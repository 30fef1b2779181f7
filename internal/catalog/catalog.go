// Package catalog holds the built-in registry of plan sections: their field
// metadata, singleton flags and template rows.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"plansheet-cli/internal/model"
)

//go:embed sections.yaml
var builtinYAML []byte

type Field struct {
	Name      string `yaml:"name"`
	Label     string `yaml:"label"`
	Type      string `yaml:"type"`
	Required  bool   `yaml:"required"`
	MaxLength int    `yaml:"max_length"`
}

type Section struct {
	Key         string              `yaml:"key"`
	Group       string              `yaml:"group"`
	Title       string              `yaml:"title"`
	Description string              `yaml:"description"`
	Singleton   bool                `yaml:"singleton"`
	Fields      []Field             `yaml:"fields"`
	DefaultRows []map[string]string `yaml:"default_rows"`
}

// Descriptor is the section as a host trigger sees it.
func (s Section) Descriptor() model.SectionDescriptor {
	return model.SectionDescriptor{
		Key:         s.Key,
		Title:       s.Title,
		Description: s.Description,
		Singleton:   s.Singleton,
	}
}

// FieldSpecs is the metadata sent to clients with every section payload.
func (s Section) FieldSpecs() []model.FieldSpec {
	out := make([]model.FieldSpec, 0, len(s.Fields))
	for _, f := range s.Fields {
		out = append(out, model.FieldSpec{Name: f.Name, Label: f.Label, Type: f.Type})
	}
	return out
}

func (s Section) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Catalog is an ordered, read-only set of sections.
type Catalog struct {
	sections []Section
	byKey    map[string]int
}

type document struct {
	Sections []Section `yaml:"sections"`
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	c := &Catalog{byKey: make(map[string]int, len(doc.Sections))}
	for i, s := range doc.Sections {
		s.Key = strings.TrimSpace(s.Key)
		if s.Key == "" {
			return nil, fmt.Errorf("catalog: section %d has no key", i)
		}
		if _, dup := c.byKey[s.Key]; dup {
			return nil, fmt.Errorf("catalog: duplicate section %q", s.Key)
		}
		if len(s.Fields) == 0 {
			return nil, fmt.Errorf("catalog: section %q has no fields", s.Key)
		}
		seen := map[string]bool{}
		for _, f := range s.Fields {
			if f.Name == "" || f.Name == model.IDField || seen[f.Name] {
				return nil, fmt.Errorf("catalog: section %q has invalid field %q", s.Key, f.Name)
			}
			seen[f.Name] = true
		}
		if s.Title == "" {
			s.Title = s.Key
		}
		c.byKey[s.Key] = len(c.sections)
		c.sections = append(c.sections, s)
	}
	return c, nil
}

// Builtin returns the embedded catalog.
func Builtin() *Catalog {
	c, err := Parse(builtinYAML)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Lookup(key string) (Section, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return Section{}, false
	}
	return c.sections[i], true
}

func (c *Catalog) Sections() []Section {
	return append([]Section(nil), c.sections...)
}

func (c *Catalog) Descriptors() []model.SectionDescriptor {
	out := make([]model.SectionDescriptor, 0, len(c.sections))
	for _, s := range c.sections {
		out = append(out, s.Descriptor())
	}
	return out
}
