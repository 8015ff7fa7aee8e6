package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sghaida/bindgraph/graph"
	"gopkg.in/yaml.v3"
)

// Manifest is the on-disk description of a binding graph: what the
// annotation-processing front end would hand over in a full toolchain.
// JSON and YAML are both accepted, picked by file extension.
type Manifest struct {
	// Package is the Go package name of the generated file.
	Package string `json:"package" yaml:"package" validate:"required"`

	// Graph names the generated result struct and build function.
	Graph string `json:"graph" yaml:"graph" validate:"required"`

	Bindings   []BindingSpec   `json:"bindings" yaml:"bindings" validate:"dive"`
	Aggregates []AggregateSpec `json:"aggregates" yaml:"aggregates" validate:"dive"`
	Roots      []RootSpec      `json:"roots" yaml:"roots" validate:"required,min=1,dive"`
}

// KeySpec is the wire form of a graph.TypeKey. Type presence is checked
// semantically, not by tag: aggregate specs legitimately leave the unused
// component key zero.
type KeySpec struct {
	Type      string `json:"type" yaml:"type"`
	Qualifier string `json:"qualifier,omitempty" yaml:"qualifier,omitempty"`
}

func (k KeySpec) typeKey() graph.TypeKey {
	return graph.QualifiedKey(k.Type, k.Qualifier)
}

// DepSpec is one constructor parameter: which key it wants and how it
// wants it delivered.
type DepSpec struct {
	Type      string `json:"type" yaml:"type" validate:"required"`
	Qualifier string `json:"qualifier,omitempty" yaml:"qualifier,omitempty"`

	// Access is how the dependency is consumed. "provider" and
	// "providerOfLazy" defer construction; "lazy" defers first use.
	Access string `json:"access,omitempty" yaml:"access,omitempty" validate:"omitempty,oneof=direct provider lazy providerOfLazy"`

	// Optional marks the dependency as satisfiable by Default when no
	// binding exists.
	Optional bool   `json:"optional,omitempty" yaml:"optional,omitempty"`
	Default  string `json:"default,omitempty" yaml:"default,omitempty"`
}

func (d DepSpec) contextual() graph.ContextualTypeKey {
	ck := graph.ContextualTypeKey{Key: graph.QualifiedKey(d.Type, d.Qualifier)}
	switch d.Access {
	case "provider":
		ck.DeferredProvider = true
	case "lazy":
		ck.Lazy = true
	case "providerOfLazy":
		ck.DeferredProvider = true
		ck.LazyInProvider = true
	}
	ck.HasDefault = d.Optional
	return ck
}

// BindingSpec is one binding declaration.
type BindingSpec struct {
	Key  KeySpec `json:"key" yaml:"key" validate:"required"`
	Kind string  `json:"kind" yaml:"kind" validate:"required,oneof=provided constructor instance absent"`

	// GoType is the Go type expression of the constructed value, used by
	// the generator for predeclarations and provider closures.
	GoType string `json:"goType,omitempty" yaml:"goType,omitempty"`

	// Constructor is the symbol invoked to build the value (provided and
	// constructor kinds). Value is the expression used for instance kind.
	Constructor string `json:"constructor,omitempty" yaml:"constructor,omitempty"`
	Value       string `json:"value,omitempty" yaml:"value,omitempty"`

	DeclaredAt string    `json:"declaredAt,omitempty" yaml:"declaredAt,omitempty"`
	Deps       []DepSpec `json:"deps,omitempty" yaml:"deps,omitempty" validate:"dive"`

	// ContributesTo names an aggregate this binding feeds; MapKey is
	// required when that aggregate is a map.
	ContributesTo string `json:"contributesTo,omitempty" yaml:"contributesTo,omitempty"`
	MapKey        string `json:"mapKey,omitempty" yaml:"mapKey,omitempty"`
}

func (b BindingSpec) declRef() graph.DeclRef {
	id := b.Constructor
	if id == "" {
		id = b.Value
	}
	if id == "" {
		id = b.Key.Type
	}
	return graph.DeclRef{ID: id, Site: b.DeclaredAt}
}

// AggregateSpec declares a set or map multibinding.
type AggregateSpec struct {
	// Name is how contributor bindings refer to this aggregate.
	Name string `json:"name" yaml:"name" validate:"required"`
	Kind string `json:"kind" yaml:"kind" validate:"required,oneof=set map"`

	Element KeySpec `json:"element" yaml:"element"`
	// MapKeyType and Value apply to map aggregates only.
	MapKeyType string  `json:"mapKeyType,omitempty" yaml:"mapKeyType,omitempty"`
	Value      KeySpec `json:"value,omitempty" yaml:"value,omitempty"`

	// GoType is the collection's Go type expression, e.g.
	// "[]acme.Plugin" or "map[string]acme.Codec".
	GoType     string `json:"goType,omitempty" yaml:"goType,omitempty"`
	AllowEmpty bool   `json:"allowEmpty,omitempty" yaml:"allowEmpty,omitempty"`
	DeclaredAt string `json:"declaredAt,omitempty" yaml:"declaredAt,omitempty"`
}

// aggregateKey renders the graph key this aggregate resolves under.
func (a AggregateSpec) aggregateKey() graph.TypeKey {
	if a.Kind == "map" {
		return graph.MapOf(graph.Key(a.MapKeyType), a.Value.typeKey())
	}
	return graph.SetOf(a.Element.typeKey())
}

// RootSpec is one entry point of the graph.
type RootSpec struct {
	// Name is the field name on the generated result struct.
	Name      string `json:"name" yaml:"name" validate:"required"`
	Type      string `json:"type" yaml:"type" validate:"required"`
	Qualifier string `json:"qualifier,omitempty" yaml:"qualifier,omitempty"`

	// RequestedBy describes where the root is consumed; it anchors the
	// dependency chain in diagnostics.
	RequestedBy string `json:"requestedBy" yaml:"requestedBy" validate:"required"`
}

//
// -----------------------------------------------------------------------------
// Loading
// -----------------------------------------------------------------------------

// LoadManifest reads and validates a manifest. The decoder is picked by
// extension: .json, .yaml or .yml.
func LoadManifest(path string) (*Manifest, []byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	var m Manifest
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(raw, &m)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &m)
	default:
		return nil, nil, fmt.Errorf("manifest %s: unsupported extension %q (want .json, .yaml or .yml)", path, ext)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("manifest %s: decode: %w", path, err)
	}

	if err := validateManifest(&m); err != nil {
		return nil, nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return &m, raw, nil
}

func validateManifest(m *Manifest) error {
	if err := validator.New().Struct(m); err != nil {
		return err
	}

	aggregates := map[string]AggregateSpec{}
	for _, a := range m.Aggregates {
		if _, dup := aggregates[a.Name]; dup {
			return fmt.Errorf("aggregate %q declared twice", a.Name)
		}
		switch a.Kind {
		case "set":
			if a.Element.Type == "" {
				return fmt.Errorf("set aggregate %q missing element type", a.Name)
			}
		case "map":
			if a.MapKeyType == "" || a.Value.Type == "" {
				return fmt.Errorf("map aggregate %q missing mapKeyType or value type", a.Name)
			}
		}
		aggregates[a.Name] = a
	}

	for _, b := range m.Bindings {
		if b.Key.Type == "" {
			return fmt.Errorf("binding with kind %q is missing its key type", b.Kind)
		}
		switch b.Kind {
		case "provided", "constructor":
			if b.Constructor == "" {
				return fmt.Errorf("binding %s: kind %q requires a constructor", b.Key.typeKey(), b.Kind)
			}
		case "instance":
			if b.Value == "" {
				return fmt.Errorf("binding %s: kind \"instance\" requires a value expression", b.Key.typeKey())
			}
		case "absent":
			if len(b.Deps) > 0 {
				return fmt.Errorf("binding %s: absent bindings take no deps", b.Key.typeKey())
			}
		}

		if b.ContributesTo != "" {
			agg, ok := aggregates[b.ContributesTo]
			if !ok {
				return fmt.Errorf("binding %s: contributes to unknown aggregate %q", b.Key.typeKey(), b.ContributesTo)
			}
			if agg.Kind == "map" && b.MapKey == "" {
				return fmt.Errorf("binding %s: map aggregate %q requires a mapKey", b.Key.typeKey(), b.ContributesTo)
			}
			if agg.Kind == "set" && b.MapKey != "" {
				return fmt.Errorf("binding %s: set aggregate %q takes no mapKey", b.Key.typeKey(), b.ContributesTo)
			}
		}
	}
	return nil
}

// aggregateByName indexes aggregates for contribution lookup.
func (m *Manifest) aggregateByName() map[string]AggregateSpec {
	out := make(map[string]AggregateSpec, len(m.Aggregates))
	for _, a := range m.Aggregates {
		out[a.Name] = a
	}
	return out
}

// bindingByKey indexes binding specs by rendered graph key, for the
// generator's GoType and default-expression lookups.
func (m *Manifest) bindingByKey() map[string]BindingSpec {
	out := make(map[string]BindingSpec, len(m.Bindings))
	for _, b := range m.Bindings {
		out[b.Key.typeKey().String()] = b
	}
	return out
}
