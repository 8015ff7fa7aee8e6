package graph

import (
	"go.uber.org/zap"
)

// ComputeBinding synthesizes a binding for a key with no explicit
// registration (e.g. a type whose constructor is injectable). Return
// (nil, false) to decline; the key then resolves to a synthesized Absent
// binding and is reported as missing if nothing tolerates its absence.
//
// The returned binding must carry the requested TypeKey. The Resolver
// invokes the callback at most once per TypeKey.
type ComputeBinding func(ContextualTypeKey) (*Binding, bool)

// Root is one requested entry point into the graph: the contextual key and
// the declaration requesting it (rendered at the end of every dependency
// chain that starts here).
type Root struct {
	Key         ContextualTypeKey
	RequestedBy DeclRef
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger attaches a logger for resolution tracing. Defaults to a nop
// logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Resolver) { r.log = log }
}

// Resolver builds and validates one binding graph. It is exclusively owned
// by a single resolution call: register bindings with TryPut, add roots,
// then call Validate exactly once. After a successful Validate the resolver
// is sealed and rejects further mutation.
type Resolver struct {
	log     *zap.Logger
	compute ComputeBinding

	bindings map[TypeKey]*Binding
	computed map[TypeKey]bool // compute invoked (even when it declined)

	// explicit keys in registration order; discovery keys in first-request
	// order (the reachable node set)
	explicit  []TypeKey
	reached   map[TypeKey]bool
	discovery []TypeKey

	roots []Root
	adj   map[TypeKey][]edge

	diags     []Diagnostic
	cycleKeys map[TypeKey]bool // keys already named in a cycle diagnostic
	missing   map[TypeKey]bool // keys already reported missing
	tolerated map[TypeKey]bool // absent keys requested with a default value

	sealed bool
}

// NewResolver returns an empty, unsealed resolver. compute may be nil when
// every binding is registered explicitly.
func NewResolver(compute ComputeBinding, opts ...Option) *Resolver {
	r := &Resolver{
		log:       zap.NewNop(),
		compute:   compute,
		bindings:  map[TypeKey]*Binding{},
		computed:  map[TypeKey]bool{},
		reached:   map[TypeKey]bool{},
		adj:       map[TypeKey][]edge{},
		cycleKeys: map[TypeKey]bool{},
		missing:   map[TypeKey]bool{},
		tolerated: map[TypeKey]bool{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddRoot registers a requested entry point.
func (r *Resolver) AddRoot(root Root) {
	r.roots = append(r.roots, root)
}

// TryPut registers an explicit binding. Registering a second, distinct
// binding for an occupied TypeKey is a DuplicateBinding error (recorded as
// a diagnostic and returned). An Absent binding is a weak placeholder:
// re-registering over it is allowed and replaces it.
func (r *Resolver) TryPut(b *Binding) error {
	if r.sealed {
		return ErrSealed
	}

	existing, ok := r.bindings[b.key]
	if !ok {
		r.bindings[b.key] = b
		r.explicit = append(r.explicit, b.key)
		r.log.Debug("binding registered", zap.Stringer("key", b.key), zap.Stringer("kind", b.kind))
		return nil
	}
	if existing == b {
		return nil
	}
	if existing.kind == KindAbsent {
		r.bindings[b.key] = b
		if existing.synthesized {
			r.explicit = append(r.explicit, b.key)
		}
		return nil
	}

	err := DuplicateBindingError{Key: b.key, First: existing.decl, Second: b.decl}
	r.diags = append(r.diags, Diagnostic{
		Kind: DiagDuplicateBinding,
		Keys: []TypeKey{b.key},
		Err:  err,
	})
	return err
}

// RequestBinding is the core lookup/creation primitive. The binding for a
// TypeKey is created at most once: first from an explicit registration,
// then from the compute callback, finally as a synthesized Absent
// placeholder. The access mode on ck never changes which binding is
// returned.
//
// If the key is already on the stack and the cycle being closed has no
// deferrable edge, the resolution path fails immediately with a
// DependencyCycleError carrying the current chain. The binding is still
// returned alongside the error.
func (r *Resolver) RequestBinding(ck ContextualTypeKey, stack *BindingStack) (*Binding, error) {
	key := ck.Key
	b, ok := r.bindings[key]
	if !ok {
		if r.sealed {
			return nil, ErrSealed
		}
		if r.compute != nil && !r.computed[key] {
			r.computed[key] = true
			if nb, found := r.compute(ck); found && nb != nil && nb.key == key {
				r.bindings[key] = nb
				b = nb
				r.log.Debug("binding computed", zap.Stringer("key", key))
			}
		}
		if b == nil {
			b = newSynthesizedAbsent(key)
			r.bindings[key] = b
		}
	}

	if !r.reached[key] {
		r.reached[key] = true
		r.discovery = append(r.discovery, key)
	}

	if stack != nil && stack.Contains(key) {
		keys, chain, deferrable := stack.cycleInfo(key, ck)
		if !deferrable {
			// fast path: the closing cycle cannot be broken; fail this
			// resolution path before recursion runs away
			return b, r.reportCycle(keys, chain)
		}
	}
	return b, nil
}

// Diagnostics returns the wiring errors collected so far.
func (r *Resolver) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(r.diags))
	copy(out, r.diags)
	return out
}

// Validate resolves the whole graph: self-cycle fast check, population
// from the roots, SCC computation, cycle classification, condensed
// topological ordering, index assignment, sealing, and the multibinding /
// absent-binding policy checks. On success the resolver seals and the
// read-only graph is returned; otherwise every collected diagnostic comes
// back in a single ResolveError and the graph is never sealed.
func (r *Resolver) Validate() (*Sealed, error) {
	if r.sealed {
		return nil, ErrSealed
	}
	r.log.Debug("validate",
		zap.Int("explicit", len(r.explicit)),
		zap.Int("roots", len(r.roots)),
	)

	r.checkAggregates()
	r.selfCycleCheck()
	r.populate()

	sccs := strongComponents(r.discovery, r.adj)
	comps, compOf := buildComponents(sccs, r.adj)
	r.classifyCycles(comps, compOf)
	r.checkEmptyAggregates()
	r.checkAbsent()

	if len(r.diags) > 0 {
		r.log.Debug("validate failed", zap.Int("diagnostics", len(r.diags)))
		return nil, &ResolveError{Diagnostics: r.Diagnostics()}
	}

	order := topoOrder(comps, compOf, r.adj)
	index := make(map[TypeKey]int, len(order))
	for i, k := range order {
		index[k] = i
	}

	bindings := make(map[TypeKey]*Binding, len(r.discovery))
	for _, k := range r.discovery {
		bindings[k] = r.bindings[k]
	}

	r.sealed = true
	r.log.Debug("graph sealed", zap.Int("bindings", len(order)))
	return &Sealed{bindings: bindings, order: order, index: index}, nil
}

// selfCycleCheck is a redundant safety net over the fast check in
// RequestBinding: it covers bindings registered via TryPut that population
// never walks through a stack.
func (r *Resolver) selfCycleCheck() {
	for _, key := range r.explicit {
		for _, dep := range r.bindings[key].Dependencies() {
			if dep.Key == key && !dep.Deferrable() {
				r.reportCycle([]TypeKey{key}, []string{key.String() + " requires " + key.String()})
				break
			}
		}
	}
}

// populate builds the reachable node set and the adjacency list, depth
// first from each root. Each root resolution owns its own BindingStack.
func (r *Resolver) populate() {
	visited := map[TypeKey]bool{}
	for _, root := range r.roots {
		stack := NewBindingStack()
		b, err := r.RequestBinding(root.Key, stack)
		if err != nil {
			continue
		}
		release := stack.Push(StackEntry{Requested: root.Key, RequestedBy: root.RequestedBy})
		r.checkResolved(b, root.Key, stack)
		if !visited[b.key] {
			r.walk(b, stack, visited)
		}
		release()
	}
}

func (r *Resolver) walk(b *Binding, stack *BindingStack, visited map[TypeKey]bool) {
	visited[b.key] = true
	if b.kind == KindMultibinding {
		r.aggregate(b)
	}

	deps := b.Dependencies()
	edges := make([]edge, 0, len(deps))
	for _, dep := range deps {
		edges = append(edges, edge{to: dep.Key, deferrable: dep.Deferrable()})

		child, err := r.RequestBinding(dep, stack)
		if err != nil {
			// cycle already recorded; stop this path
			continue
		}
		release := stack.Push(StackEntry{Requested: dep, RequestedBy: b.decl})
		r.checkResolved(child, dep, stack)
		if !visited[child.key] {
			r.walk(child, stack, visited)
		}
		release()
	}
	r.adj[b.key] = edges
}

// checkResolved reports a missing binding the first time DFS population
// reaches it, with the chain of that first discovery.
func (r *Resolver) checkResolved(b *Binding, ck ContextualTypeKey, stack *BindingStack) {
	if b.kind != KindAbsent || !b.synthesized {
		return
	}
	if ck.HasDefault {
		r.tolerated[b.key] = true
		return
	}
	if r.missing[b.key] {
		return
	}
	r.missing[b.key] = true
	chain := stack.Chain()
	r.diags = append(r.diags, Diagnostic{
		Kind:  DiagMissingBinding,
		Keys:  []TypeKey{b.key},
		Chain: chain,
		Err:   MissingBindingError{Key: b.key, Chain: chain},
	})
}

// checkAbsent sweeps for reachable synthesized-absent keys that slipped
// past population reporting (e.g. requested only through an erroring path).
func (r *Resolver) checkAbsent() {
	for _, key := range r.discovery {
		b := r.bindings[key]
		if b.kind != KindAbsent || !b.synthesized || r.missing[key] || r.tolerated[key] {
			continue
		}
		r.missing[key] = true
		r.diags = append(r.diags, Diagnostic{
			Kind: DiagMissingBinding,
			Keys: []TypeKey{key},
			Err:  MissingBindingError{Key: key},
		})
	}
}

// classifyCycles reports every fatal component the DFS fast path did not
// already cover, with a chain synthesized from the component's own edges.
// Chains discovered during population win, keeping diagnostic output stable
// under DFS order.
func (r *Resolver) classifyCycles(comps []component, compOf map[TypeKey]int) {
	for _, c := range comps {
		if !c.cyclic || c.permitted {
			continue
		}
		already := false
		for _, m := range c.members {
			if r.cycleKeys[m] {
				already = true
				break
			}
		}
		if already {
			continue
		}
		r.reportCycle(c.members, syntheticCycleChain(c, compOf, r.adj))
	}
}

// reportCycle records one DependencyCycle diagnostic per cycle (keys
// already named in an earlier cycle are not reported again) and returns
// the typed error for the failing resolution path.
func (r *Resolver) reportCycle(keys []TypeKey, chain []string) error {
	err := DependencyCycleError{Keys: keys, Chain: chain}
	dup := false
	for _, k := range keys {
		if r.cycleKeys[k] {
			dup = true
		}
		r.cycleKeys[k] = true
	}
	if !dup {
		r.diags = append(r.diags, Diagnostic{
			Kind:  DiagDependencyCycle,
			Keys:  keys,
			Chain: chain,
			Err:   err,
		})
	}
	return err
}
