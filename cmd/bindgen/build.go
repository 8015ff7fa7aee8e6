package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/sghaida/bindgraph/graph"
	"go.uber.org/zap"
)

// buildResolver turns a validated manifest into a populated resolver. All
// bindings are registered eagerly via TryPut; the compute callback declines
// everything, so unresolvable keys surface as missing-binding diagnostics.
// Duplicate registrations do not abort the build: the resolver records each
// one as a diagnostic, and validateGraph reports them all in a single run
// alongside whatever else is wrong with the graph.
func buildResolver(m *Manifest, log *zap.Logger) (*graph.Resolver, error) {
	r := graph.NewResolver(
		func(graph.ContextualTypeKey) (*graph.Binding, bool) { return nil, false },
		graph.WithLogger(log),
	)

	aggregates := m.aggregateByName()
	for _, a := range m.Aggregates {
		decl := graph.DeclRef{ID: a.Name, Site: a.DeclaredAt}
		var b *graph.Binding
		if a.Kind == "map" {
			b = graph.NewMapBinding(graph.Key(a.MapKeyType), a.Value.typeKey(), decl, a.AllowEmpty)
		} else {
			b = graph.NewSetBinding(a.Element.typeKey(), decl, a.AllowEmpty)
		}
		if err := register(r, b, log); err != nil {
			return nil, fmt.Errorf("aggregate %q: %w", a.Name, err)
		}
	}

	for _, spec := range m.Bindings {
		b, err := specBinding(spec, aggregates)
		if err != nil {
			return nil, err
		}
		if err := register(r, b, log); err != nil {
			return nil, fmt.Errorf("binding %s: %w", spec.Key.typeKey(), err)
		}
	}

	for _, root := range m.Roots {
		r.AddRoot(graph.Root{
			Key:         graph.Direct(graph.QualifiedKey(root.Type, root.Qualifier)),
			RequestedBy: graph.DeclRef{ID: root.RequestedBy, Site: root.Name},
		})
	}
	return r, nil
}

// register puts b into the resolver, swallowing duplicate-binding errors:
// TryPut has already recorded those as diagnostics, and the validation pass
// will surface the complete list.
func register(r *graph.Resolver, b *graph.Binding, log *zap.Logger) error {
	err := r.TryPut(b)
	var dup graph.DuplicateBindingError
	if errors.As(err, &dup) {
		log.Debug("duplicate binding recorded", zap.Stringer("key", dup.Key))
		return nil
	}
	return err
}

func specBinding(spec BindingSpec, aggregates map[string]AggregateSpec) (*graph.Binding, error) {
	key := spec.Key.typeKey()
	decl := spec.declRef()

	deps := make([]graph.ContextualTypeKey, len(spec.Deps))
	for i, d := range spec.Deps {
		deps[i] = d.contextual()
	}

	var b *graph.Binding
	switch spec.Kind {
	case "provided":
		b = graph.NewProvided(key, decl, deps...)
	case "constructor":
		b = graph.NewConstructorInjected(key, decl, deps...)
	case "instance":
		b = graph.NewBoundInstance(key, decl)
	case "absent":
		b = graph.NewAbsent(key, decl)
	default:
		return nil, fmt.Errorf("binding %s: unknown kind %q", key, spec.Kind)
	}

	if spec.ContributesTo != "" {
		agg := aggregates[spec.ContributesTo]
		b = b.ContributeTo(agg.aggregateKey())
		if spec.MapKey != "" {
			b = b.WithMapKey(spec.MapKey)
		}
	}
	return b, nil
}

// validateGraph runs the resolver and renders any diagnostics to w as a
// human-readable report, one block per diagnostic with the dependency
// chain indented beneath it.
func validateGraph(r *graph.Resolver, w io.Writer) (*graph.Sealed, error) {
	sealed, err := r.Validate()
	if err == nil {
		return sealed, nil
	}

	var re *graph.ResolveError
	if errors.As(err, &re) {
		renderDiagnostics(w, re)
	}
	return nil, err
}

func renderDiagnostics(w io.Writer, re *graph.ResolveError) {
	fmt.Fprintf(w, "graph validation failed: %d problem(s)\n", len(re.Diagnostics))
	for i, d := range re.Diagnostics {
		fmt.Fprintf(w, "\n[%d] %s: %s\n", i+1, d.Kind, d.Err)
		for _, line := range d.Chain {
			fmt.Fprintf(w, "      %s\n", line)
		}
	}
}
