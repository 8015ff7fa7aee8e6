package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sghaida/bindgraph/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func loadFixture(t *testing.T, name, content string) *Manifest {
	t.Helper()
	p := newPkg(t)
	m, _, err := LoadManifest(p.write(name, content))
	require.NoError(t, err)
	return m
}

func TestBuildResolver_BasicManifest(t *testing.T) {
	t.Parallel()

	m := loadFixture(t, "graph.yaml", basicManifestYAML)
	r, err := buildResolver(m, zaptest.NewLogger(t))
	require.NoError(t, err)

	var stderr bytes.Buffer
	sealed, err := validateGraph(r, &stderr)
	require.NoError(t, err)
	assert.Empty(t, stderr.String())

	assert.Equal(t, []graph.TypeKey{
		graph.Key("acme.Config"),
		graph.Key("acme.DB"),
		graph.Key("acme.Repo"),
		graph.Key("acme.Service"),
	}, sealed.Order())
}

func TestBuildResolver_AggregateManifest(t *testing.T) {
	t.Parallel()

	m := loadFixture(t, "graph.yaml", codecManifestYAML)
	r, err := buildResolver(m, zaptest.NewLogger(t))
	require.NoError(t, err)

	var stderr bytes.Buffer
	sealed, err := validateGraph(r, &stderr)
	require.NoError(t, err)

	agg := graph.MapOf(graph.Key("string"), graph.Key("acme.Codec"))
	assert.Equal(t, []graph.TypeKey{
		graph.Key("acme.JSONCodec"),
		graph.Key("acme.YAMLCodec"),
	}, sealed.Contributors(agg))

	appIdx, ok := sealed.Index(graph.Key("acme.App"))
	require.True(t, ok)
	aggIdx, ok := sealed.Index(agg)
	require.True(t, ok)
	assert.Less(t, aggIdx, appIdx)
}

func TestBuildResolver_DuplicateBindingCollected(t *testing.T) {
	t.Parallel()

	m := loadFixture(t, "graph.yaml", basicManifestYAML)
	m.Bindings = append(m.Bindings, BindingSpec{
		Key:         KeySpec{Type: "acme.DB"},
		Kind:        "provided",
		GoType:      "*acme.DB",
		Constructor: "acme.NewOtherDB",
		DeclaredAt:  "acme/other.go:3",
	})

	// The duplicate does not abort the build; it lands in the diagnostic
	// list rendered by the validation pass.
	r, err := buildResolver(m, zaptest.NewLogger(t))
	require.NoError(t, err)

	var stderr bytes.Buffer
	_, err = validateGraph(r, &stderr)
	require.Error(t, err)

	var re *graph.ResolveError
	require.True(t, errors.As(err, &re))
	require.Len(t, re.Diagnostics, 1)
	assert.Equal(t, graph.DiagDuplicateBinding, re.Diagnostics[0].Kind)

	var dup graph.DuplicateBindingError
	require.ErrorAs(t, re.Diagnostics[0].Err, &dup)
	assert.Equal(t, graph.Key("acme.DB"), dup.Key)

	assertContainsInOrder(t, stderr.String(),
		"graph validation failed: 1 problem(s)",
		"DuplicateBinding",
	)
}

// TestBuildResolver_ReportsEveryProblemInOneRun checks the collect-everything
// policy end to end: a duplicate registration and a fatal cycle in the same
// manifest both appear in a single validation report.
func TestBuildResolver_ReportsEveryProblemInOneRun(t *testing.T) {
	t.Parallel()

	m := loadFixture(t, "graph.json", fatalCycleManifestJSON)
	m.Bindings = append(m.Bindings, BindingSpec{
		Key:         KeySpec{Type: "acme.A"},
		Kind:        "provided",
		GoType:      "*acme.A",
		Constructor: "acme.NewOtherA",
		DeclaredAt:  "acme/other.go:9",
	})

	r, err := buildResolver(m, zaptest.NewLogger(t))
	require.NoError(t, err)

	var stderr bytes.Buffer
	_, err = validateGraph(r, &stderr)
	require.Error(t, err)

	var re *graph.ResolveError
	require.True(t, errors.As(err, &re))
	require.Len(t, re.Diagnostics, 2)
	assert.Equal(t, graph.DiagDuplicateBinding, re.Diagnostics[0].Kind)
	assert.Equal(t, graph.DiagDependencyCycle, re.Diagnostics[1].Kind)

	assertContainsInOrder(t, stderr.String(),
		"graph validation failed: 2 problem(s)",
		"DuplicateBinding",
		"DependencyCycle",
	)
}

func TestValidateGraph_RendersCycleDiagnostics(t *testing.T) {
	t.Parallel()

	m := loadFixture(t, "graph.json", fatalCycleManifestJSON)
	r, err := buildResolver(m, zaptest.NewLogger(t))
	require.NoError(t, err)

	var stderr bytes.Buffer
	_, err = validateGraph(r, &stderr)
	require.Error(t, err)

	var re *graph.ResolveError
	require.True(t, errors.As(err, &re))
	require.Len(t, re.Diagnostics, 1)
	assert.Equal(t, graph.DiagDependencyCycle, re.Diagnostics[0].Kind)

	assertContainsInOrder(t, stderr.String(),
		"graph validation failed: 1 problem(s)",
		"DependencyCycle",
		"acme.A requires acme.B",
		"acme.B requires acme.A",
	)
}

func TestValidateGraph_MissingBindingReport(t *testing.T) {
	t.Parallel()

	m := loadFixture(t, "graph.yaml", basicManifestYAML)
	// drop Config so DB's dependency dangles
	m.Bindings = m.Bindings[1:]

	r, err := buildResolver(m, zaptest.NewLogger(t))
	require.NoError(t, err)

	var stderr bytes.Buffer
	_, err = validateGraph(r, &stderr)
	require.Error(t, err)

	assertContainsInOrder(t, stderr.String(),
		"MissingBinding",
		"acme.Config is requested at acme.NewDB",
		"acme.Service is requested at [Graph] App.service()",
	)
}
