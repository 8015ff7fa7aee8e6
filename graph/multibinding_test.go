package graph_test

import (
	"testing"

	"github.com/sghaida/bindgraph/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//
// -----------------------------------------------------------------------------
// Set aggregates
// -----------------------------------------------------------------------------

// TestMultibinding_SetCollectsContributors verifies contributors are
// collected regardless of registration order and sorted by TypeKey.
func TestMultibinding_SetCollectsContributors(t *testing.T) {
	t.Parallel()

	plugin := graph.Key("acme.Plugin")
	agg := graph.SetOf(plugin)

	zPlugin := graph.Key("z.Plugin")
	aPlugin := graph.Key("a.Plugin")
	mPlugin := graph.Key("m.Plugin")

	r := graph.NewResolver(nil)
	require.NoError(t, r.TryPut(graph.NewProvided(zPlugin, decl("provideZ")).ContributeTo(agg)))
	require.NoError(t, r.TryPut(graph.NewSetBinding(plugin, decl("declareSet"), false)))
	require.NoError(t, r.TryPut(graph.NewProvided(aPlugin, decl("provideA")).ContributeTo(agg)))
	require.NoError(t, r.TryPut(graph.NewProvided(mPlugin, decl("provideM")).ContributeTo(agg)))
	r.AddRoot(rootOf(agg, "[Graph] App.plugins()"))

	sealed, err := r.Validate()
	require.NoError(t, err)

	assert.Equal(t, []graph.TypeKey{aPlugin, mPlugin, zPlugin}, sealed.Contributors(agg))

	// contributors initialize before the aggregate
	aggIdx, ok := sealed.Index(agg)
	require.True(t, ok)
	for _, c := range sealed.Contributors(agg) {
		i, ok := sealed.Index(c)
		require.True(t, ok)
		assert.Less(t, i, aggIdx)
	}
}

// TestMultibinding_EmptySetPolicy verifies the empty-aggregate policy: an
// error by default, an empty collection with allow-empty set.
func TestMultibinding_EmptySetPolicy(t *testing.T) {
	t.Parallel()

	str := graph.Key("String")
	agg := graph.SetOf(str)

	t.Run("empty is an error", func(t *testing.T) {
		t.Parallel()

		r := graph.NewResolver(nil)
		require.NoError(t, r.TryPut(graph.NewSetBinding(str, decl("declareSet"), false)))
		r.AddRoot(rootOf(agg, "[Graph] App.strings()"))

		_, err := r.Validate()
		re := resolveErr(t, err)
		require.Len(t, re.Diagnostics, 1)
		assert.Equal(t, graph.DiagEmptyMultibinding, re.Diagnostics[0].Kind)
		assert.Equal(t, []graph.TypeKey{agg}, re.Diagnostics[0].Keys)
	})

	t.Run("allow-empty seals with an empty set", func(t *testing.T) {
		t.Parallel()

		r := graph.NewResolver(nil)
		require.NoError(t, r.TryPut(graph.NewSetBinding(str, decl("declareSet"), true)))
		r.AddRoot(rootOf(agg, "[Graph] App.strings()"))

		sealed, err := r.Validate()
		require.NoError(t, err)
		assert.Empty(t, sealed.Contributors(agg))
		assert.Equal(t, []graph.TypeKey{agg}, sealed.Order())
	})
}

//
// -----------------------------------------------------------------------------
// Map aggregates
// -----------------------------------------------------------------------------

// TestMultibinding_MapDuplicateKey verifies two contributors declaring the
// same map key fail with an element-level duplicate naming both.
func TestMultibinding_MapDuplicateKey(t *testing.T) {
	t.Parallel()

	agg := graph.MapOf(graph.Key("string"), graph.Key("acme.Codec"))
	j1 := graph.Key("acme.JSONCodec")
	j2 := graph.Key("acme.JSONv2Codec")

	r := graph.NewResolver(nil)
	require.NoError(t, r.TryPut(graph.NewMapBinding(graph.Key("string"), graph.Key("acme.Codec"), decl("declareMap"), false)))
	require.NoError(t, r.TryPut(graph.NewProvided(j1, decl("provideJSON")).ContributeTo(agg).WithMapKey("json")))
	require.NoError(t, r.TryPut(graph.NewProvided(j2, decl("provideJSONv2")).ContributeTo(agg).WithMapKey("json")))
	r.AddRoot(rootOf(agg, "[Graph] App.codecs()"))

	_, err := r.Validate()
	re := resolveErr(t, err)
	require.Len(t, re.Diagnostics, 1)

	d := re.Diagnostics[0]
	assert.Equal(t, graph.DiagDuplicateBinding, d.Kind)

	var dup graph.DuplicateMapKeyError
	require.ErrorAs(t, d.Err, &dup)
	assert.Equal(t, "json", dup.MapKey)
	assert.Equal(t, j1, dup.First)
	assert.Equal(t, j2, dup.Second)
}

// TestMultibinding_MapDistinctKeys verifies distinct map keys seal cleanly.
func TestMultibinding_MapDistinctKeys(t *testing.T) {
	t.Parallel()

	agg := graph.MapOf(graph.Key("string"), graph.Key("acme.Codec"))

	r := graph.NewResolver(nil)
	require.NoError(t, r.TryPut(graph.NewMapBinding(graph.Key("string"), graph.Key("acme.Codec"), decl("declareMap"), false)))
	require.NoError(t, r.TryPut(graph.NewProvided(graph.Key("acme.JSONCodec"), decl("provideJSON")).
		ContributeTo(agg).WithMapKey("json")))
	require.NoError(t, r.TryPut(graph.NewProvided(graph.Key("acme.YAMLCodec"), decl("provideYAML")).
		ContributeTo(agg).WithMapKey("yaml")))
	r.AddRoot(rootOf(agg, "[Graph] App.codecs()"))

	sealed, err := r.Validate()
	require.NoError(t, err)
	assert.Len(t, sealed.Contributors(agg), 2)
}

//
// -----------------------------------------------------------------------------
// Malformed aggregates
// -----------------------------------------------------------------------------

// TestMultibinding_Malformed verifies wildcard and blank component types
// are rejected before population.
func TestMultibinding_Malformed(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		binding *graph.Binding
	}{
		{name: "wildcard set element", binding: graph.NewSetBinding(graph.Key("*"), decl("declareSet"), true)},
		{name: "blank set element", binding: graph.NewSetBinding(graph.TypeKey{}, decl("declareSet"), true)},
		{name: "wildcard map key", binding: graph.NewMapBinding(graph.Key("?"), graph.Key("acme.V"), decl("declareMap"), true)},
		{name: "wildcard map value", binding: graph.NewMapBinding(graph.Key("string"), graph.Key("acme.*"), decl("declareMap"), true)},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := graph.NewResolver(nil)
			require.NoError(t, r.TryPut(tc.binding))

			_, err := r.Validate()
			re := resolveErr(t, err)
			require.NotEmpty(t, re.Diagnostics)
			assert.Equal(t, graph.DiagMalformedAggregate, re.Diagnostics[0].Kind)

			var malformed graph.MalformedAggregateError
			assert.ErrorAs(t, re.Diagnostics[0].Err, &malformed)
		})
	}
}

// TestMultibinding_ContributorWithOwnDeps verifies contributors resolve
// their own dependencies through the aggregate edge.
func TestMultibinding_ContributorWithOwnDeps(t *testing.T) {
	t.Parallel()

	cfg := graph.Key("acme.Config")
	plugin := graph.Key("acme.Plugin")
	agg := graph.SetOf(plugin)
	authPlugin := graph.Key("acme.AuthPlugin")

	r := graph.NewResolver(nil)
	require.NoError(t, r.TryPut(graph.NewBoundInstance(cfg, decl("cfg"))))
	require.NoError(t, r.TryPut(graph.NewSetBinding(plugin, decl("declareSet"), false)))
	require.NoError(t, r.TryPut(graph.NewProvided(authPlugin, decl("provideAuth"), graph.Direct(cfg)).ContributeTo(agg)))
	r.AddRoot(rootOf(agg, "[Graph] App.plugins()"))

	sealed, err := r.Validate()
	require.NoError(t, err)
	assert.Equal(t, []graph.TypeKey{cfg, authPlugin, agg}, sealed.Order())
}
