package graph

// BindingKind enumerates the closed set of binding variants. Variant
// behavior the engine cares about (the dependency edge list) collapses into
// the single Dependencies accessor; everything else pattern-matches on Kind.
type BindingKind uint8

const (
	// KindProvided is an explicit factory with dependency parameters.
	KindProvided BindingKind = iota

	// KindConstructorInjected is synthesized on demand by the compute
	// callback for types whose constructor is injectable without an
	// explicit registration.
	KindConstructorInjected

	// KindMultibinding is a Set or Map aggregate collecting contributions.
	KindMultibinding

	// KindBoundInstance is an externally supplied value with no dependencies.
	KindBoundInstance

	// KindAbsent is the terminal placeholder for "intentionally missing".
	KindAbsent
)

// String returns the variant name for diagnostics.
func (k BindingKind) String() string {
	switch k {
	case KindProvided:
		return "provided"
	case KindConstructorInjected:
		return "constructor-injected"
	case KindMultibinding:
		return "multibinding"
	case KindBoundInstance:
		return "bound-instance"
	case KindAbsent:
		return "absent"
	default:
		return "unknown"
	}
}

// AggregateKind distinguishes Set and Map multibindings.
type AggregateKind uint8

const (
	AggregateNone AggregateKind = iota
	AggregateSet
	AggregateMap
)

// DeclRef is an opaque handle to the source declaration a binding or root
// came from. The engine never inspects it structurally; it is forwarded
// verbatim into diagnostics and the sealed graph for the generator's use.
type DeclRef struct {
	// ID identifies the declaration (e.g. "[Graph] App.db()").
	ID string

	// Site is the source location, already rendered.
	Site string
}

// String renders the handle for dependency chains.
func (d DeclRef) String() string {
	if d.Site == "" {
		return d.ID
	}
	return d.ID + " (" + d.Site + ")"
}

// Binding is one resolved provider of a TypeKey together with its ordered
// dependency edges. Bindings are immutable once registered with a Resolver;
// the chaining mutators below are construction-time only.
type Binding struct {
	kind BindingKind
	key  TypeKey
	deps []ContextualTypeKey
	decl DeclRef

	// multibinding payload
	aggregate  AggregateKind
	elemKey    TypeKey // set element / map value type
	mapKeyType TypeKey // map key type
	allowEmpty bool

	// contribution payload (set on contributor bindings)
	contributesTo TypeKey
	mapKey        string

	// filled by the aggregator during validation, sorted by TypeKey
	contributors []TypeKey

	// true for Absent bindings synthesized during population, as opposed
	// to intentionally declared ones
	synthesized bool
}

// NewProvided builds an explicit factory binding.
func NewProvided(key TypeKey, decl DeclRef, deps ...ContextualTypeKey) *Binding {
	return &Binding{kind: KindProvided, key: key, decl: decl, deps: deps}
}

// NewConstructorInjected builds a binding synthesized from an injectable
// constructor. Typically returned by the Resolver's compute callback.
func NewConstructorInjected(key TypeKey, decl DeclRef, deps ...ContextualTypeKey) *Binding {
	return &Binding{kind: KindConstructorInjected, key: key, decl: decl, deps: deps}
}

// NewBoundInstance builds a binding for an externally supplied value.
func NewBoundInstance(key TypeKey, decl DeclRef) *Binding {
	return &Binding{kind: KindBoundInstance, key: key, decl: decl}
}

// NewAbsent builds an intentionally absent binding. It is a weak
// placeholder: a later TryPut for the same key replaces it.
func NewAbsent(key TypeKey, decl DeclRef) *Binding {
	return &Binding{kind: KindAbsent, key: key, decl: decl}
}

// newSynthesizedAbsent marks a key the engine could not resolve at all.
// Reported as MissingBinding during validation.
func newSynthesizedAbsent(key TypeKey) *Binding {
	return &Binding{kind: KindAbsent, key: key, synthesized: true}
}

// NewSetBinding builds a Set aggregate over elem. Its TypeKey is SetOf(elem).
func NewSetBinding(elem TypeKey, decl DeclRef, allowEmpty bool) *Binding {
	return &Binding{
		kind:       KindMultibinding,
		key:        SetOf(elem),
		decl:       decl,
		aggregate:  AggregateSet,
		elemKey:    elem,
		allowEmpty: allowEmpty,
	}
}

// NewMapBinding builds a Map aggregate from mapKey to val. Its TypeKey is
// MapOf(mapKey, val).
func NewMapBinding(mapKey, val TypeKey, decl DeclRef, allowEmpty bool) *Binding {
	return &Binding{
		kind:       KindMultibinding,
		key:        MapOf(mapKey, val),
		decl:       decl,
		aggregate:  AggregateMap,
		elemKey:    val,
		mapKeyType: mapKey,
		allowEmpty: allowEmpty,
	}
}

// ContributeTo marks the binding as a contributor to the given aggregate
// key. Construction-time only; returns the binding for chaining.
func (b *Binding) ContributeTo(aggregate TypeKey) *Binding {
	b.contributesTo = aggregate
	return b
}

// WithMapKey sets the map key this contribution occupies inside a Map
// aggregate. Construction-time only.
func (b *Binding) WithMapKey(key string) *Binding {
	b.mapKey = key
	return b
}

// Kind returns the binding variant.
func (b *Binding) Kind() BindingKind { return b.kind }

// Key returns the TypeKey this binding satisfies.
func (b *Binding) Key() TypeKey { return b.key }

// Decl returns the opaque declaration handle.
func (b *Binding) Decl() DeclRef { return b.decl }

// Aggregate returns the aggregate kind (AggregateNone for non-multibindings).
func (b *Binding) Aggregate() AggregateKind { return b.aggregate }

// AllowEmpty reports whether a multibinding tolerates zero contributors.
func (b *Binding) AllowEmpty() bool { return b.allowEmpty }

// ContributesTo returns the aggregate key this binding contributes to, if any.
func (b *Binding) ContributesTo() (TypeKey, bool) {
	return b.contributesTo, !b.contributesTo.IsZero()
}

// MapKey returns the declared map key for Map aggregate contributions.
func (b *Binding) MapKey() string { return b.mapKey }

// Contributors returns the aggregated contributor keys, sorted by TypeKey.
// Empty until the owning Resolver has validated.
func (b *Binding) Contributors() []TypeKey {
	out := make([]TypeKey, len(b.contributors))
	copy(out, b.contributors)
	return out
}

// Dependencies returns the ordered dependency edges of this binding. For a
// multibinding the edges are its aggregated contributors (direct access
// mode); for terminal variants it is empty.
func (b *Binding) Dependencies() []ContextualTypeKey {
	switch b.kind {
	case KindProvided, KindConstructorInjected:
		out := make([]ContextualTypeKey, len(b.deps))
		copy(out, b.deps)
		return out
	case KindMultibinding:
		out := make([]ContextualTypeKey, len(b.contributors))
		for i, c := range b.contributors {
			out[i] = Direct(c)
		}
		return out
	default:
		return nil
	}
}
