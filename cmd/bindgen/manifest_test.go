package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadManifest_YAML(t *testing.T) {
	t.Parallel()

	p := newPkg(t)
	path := p.write("graph.yaml", basicManifestYAML)

	m, raw, err := LoadManifest(path)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	assert.Equal(t, "wiring", m.Package)
	assert.Equal(t, "AppGraph", m.Graph)
	require.Len(t, m.Bindings, 4)
	require.Len(t, m.Roots, 1)

	repo := m.Bindings[2]
	assert.Equal(t, "constructor", repo.Kind)
	require.Len(t, repo.Deps, 2)
	assert.Equal(t, "provider", repo.Deps[1].Access)
	assert.True(t, repo.Deps[1].contextual().DeferredProvider)
}

func TestLoadManifest_JSON(t *testing.T) {
	t.Parallel()

	p := newPkg(t)
	path := p.write("graph.json", fatalCycleManifestJSON)

	m, _, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "BadGraph", m.Graph)
	assert.Len(t, m.Bindings, 2)
}

func TestLoadManifest_UnsupportedExtension(t *testing.T) {
	t.Parallel()

	p := newPkg(t)
	path := p.write("graph.toml", "package = 'wiring'")

	_, _, err := LoadManifest(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported extension")
}

func TestLoadManifest_DecodeError(t *testing.T) {
	t.Parallel()

	p := newPkg(t)
	path := p.write("graph.json", "{not json")

	_, _, err := LoadManifest(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestLoadManifest_MissingFile(t *testing.T) {
	t.Parallel()

	p := newPkg(t)
	_, _, err := LoadManifest(p.out("nope.yaml"))
	require.Error(t, err)
}

func TestValidateManifest_SemanticChecks(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		mutate  func(m *Manifest)
		wantErr string
	}{
		{
			name:    "provided without constructor",
			mutate:  func(m *Manifest) { m.Bindings[0].Constructor = "" },
			wantErr: "requires a constructor",
		},
		{
			name: "instance without value",
			mutate: func(m *Manifest) {
				m.Bindings[0] = BindingSpec{Key: KeySpec{Type: "acme.Cfg"}, Kind: "instance", GoType: "acme.Cfg"}
			},
			wantErr: "requires a value",
		},
		{
			name: "absent with deps",
			mutate: func(m *Manifest) {
				m.Bindings[0] = BindingSpec{
					Key:  KeySpec{Type: "acme.Tracer"},
					Kind: "absent",
					Deps: []DepSpec{{Type: "acme.Cfg"}},
				}
			},
			wantErr: "take no deps",
		},
		{
			name:    "contribution to unknown aggregate",
			mutate:  func(m *Manifest) { m.Bindings[0].ContributesTo = "plugins" },
			wantErr: "unknown aggregate",
		},
		{
			name: "map contribution without mapKey",
			mutate: func(m *Manifest) {
				m.Aggregates = []AggregateSpec{{
					Name: "codecs", Kind: "map",
					MapKeyType: "string", Value: KeySpec{Type: "acme.Codec"},
				}}
				m.Bindings[0].ContributesTo = "codecs"
			},
			wantErr: "requires a mapKey",
		},
		{
			name: "set contribution with mapKey",
			mutate: func(m *Manifest) {
				m.Aggregates = []AggregateSpec{{
					Name: "plugins", Kind: "set",
					Element: KeySpec{Type: "acme.Plugin"},
				}}
				m.Bindings[0].ContributesTo = "plugins"
				m.Bindings[0].MapKey = "x"
			},
			wantErr: "takes no mapKey",
		},
		{
			name: "duplicate aggregate name",
			mutate: func(m *Manifest) {
				agg := AggregateSpec{Name: "plugins", Kind: "set", Element: KeySpec{Type: "acme.Plugin"}}
				m.Aggregates = []AggregateSpec{agg, agg}
			},
			wantErr: "declared twice",
		},
		{
			name: "set aggregate without element",
			mutate: func(m *Manifest) {
				m.Aggregates = []AggregateSpec{{Name: "plugins", Kind: "set"}}
			},
			wantErr: "missing element type",
		},
		{
			name:    "no roots",
			mutate:  func(m *Manifest) { m.Roots = nil },
			wantErr: "Roots",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m := &Manifest{
				Package: "wiring",
				Graph:   "G",
				Bindings: []BindingSpec{{
					Key:         KeySpec{Type: "acme.DB"},
					Kind:        "provided",
					GoType:      "*acme.DB",
					Constructor: "acme.NewDB",
				}},
				Roots: []RootSpec{{Name: "DB", Type: "acme.DB", RequestedBy: "[Graph] App.db()"}},
			}
			tc.mutate(m)

			err := validateManifest(m)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestDepSpec_Contextual(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		dep        DepSpec
		deferrable bool
	}{
		{name: "direct", dep: DepSpec{Type: "acme.DB"}, deferrable: false},
		{name: "provider", dep: DepSpec{Type: "acme.DB", Access: "provider"}, deferrable: true},
		{name: "lazy", dep: DepSpec{Type: "acme.DB", Access: "lazy"}, deferrable: true},
		{name: "providerOfLazy", dep: DepSpec{Type: "acme.DB", Access: "providerOfLazy"}, deferrable: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.deferrable, tc.dep.contextual().Deferrable())
		})
	}

	opt := DepSpec{Type: "acme.Tracer", Optional: true, Default: "acme.NoopTracer{}"}
	assert.True(t, opt.contextual().HasDefault)
}
