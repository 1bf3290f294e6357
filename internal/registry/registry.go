// Package registry holds the recognized call families: which class names
// qualify a call and which functions belong to configuration, routing,
// translation, validation, views, authorization, assets and models.
package registry

import (
	_ "embed"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/phobologic/callsite/internal/model"
)

//go:embed families.yaml
var defaultFamiliesYAML []byte

// Family is one recognized group of calls.
type Family struct {
	Name      string   `yaml:"name" json:"name"`
	Classes   []string `yaml:"classes" json:"classes,omitempty"`
	Functions []string `yaml:"functions" json:"functions,omitempty"`
}

// Registry is immutable after construction and safe for concurrent use.
type Registry struct {
	families        []Family
	relationMethods []string
	extraClasses    []string
}

type document struct {
	Families        []Family `yaml:"families"`
	RelationMethods []string `yaml:"relation_methods"`
}

var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
	defaultErr      error
)

// Default returns the registry parsed from the embedded families.yaml.
// It is parsed once and cached.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultRegistry, defaultErr = Parse(defaultFamiliesYAML)
		if defaultErr != nil {
			return
		}
		slog.Debug("call families loaded",
			slog.Int("family_count", len(defaultRegistry.families)),
			slog.Int("class_count", len(defaultRegistry.Classes())),
		)
	})
	return defaultRegistry, defaultErr
}

// Parse builds a registry from YAML.
func Parse(data []byte) (*Registry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing call families: %w", err)
	}
	seen := make(map[string]bool, len(doc.Families))
	for _, f := range doc.Families {
		if f.Name == "" {
			return nil, fmt.Errorf("parsing call families: family without a name")
		}
		if seen[f.Name] {
			return nil, fmt.Errorf("parsing call families: duplicate family %q", f.Name)
		}
		seen[f.Name] = true
	}
	return &Registry{families: doc.Families, relationMethods: doc.RelationMethods}, nil
}

// WithExtraClasses returns a copy of r that also recognizes classes as call
// qualifiers. Extra classes belong to no family.
func (r *Registry) WithExtraClasses(classes ...string) *Registry {
	out := *r
	out.extraClasses = append(slices.Clone(r.extraClasses), classes...)
	return &out
}

// Families returns the families in declaration order.
func (r *Registry) Families() []Family {
	return slices.Clone(r.families)
}

// Family looks a family up by name.
func (r *Registry) Family(name string) (Family, bool) {
	for _, f := range r.families {
		if f.Name == name {
			return f, true
		}
	}
	return Family{}, false
}

// Classes returns every class name that qualifies a call, without
// duplicates, in declaration order followed by extra classes.
func (r *Registry) Classes() []string {
	var all []string
	for _, f := range r.families {
		all = append(all, f.Classes...)
	}
	return Unique(append(all, r.extraClasses...))
}

// Match returns the family a resolved call belongs to. A qualified call
// matches on its class; an unqualified one on its function name.
func (r *Registry) Match(cs *model.CallSite) (Family, bool) {
	if cs == nil {
		return Family{}, false
	}
	for _, f := range r.families {
		if cs.Class != "" {
			if slices.Contains(f.Classes, cs.Class) {
				return f, true
			}
			continue
		}
		if slices.Contains(f.Functions, cs.Function) {
			return f, true
		}
	}
	return Family{}, false
}

// RelationMethods returns the Eloquent methods whose first argument names a
// relation.
func (r *Registry) RelationMethods() []string {
	return slices.Clone(r.relationMethods)
}

// IsRelationMethod reports whether name is one of RelationMethods.
func (r *Registry) IsRelationMethod(name string) bool {
	return slices.Contains(r.relationMethods, name)
}

// Unique returns s without repeated elements, keeping first occurrences in
// order.
func Unique[T comparable](s []T) []T {
	seen := make(map[T]struct{}, len(s))
	out := make([]T, 0, len(s))
	for _, v := range s {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
