package graph

// TypeKey is the identity of a requested type: a canonical type rendering
// plus an optional qualifier. Two keys name the same dependency iff both
// fields match.
//
// TypeKey is a comparable value type; it is used directly as a map key and
// ordered lexicographically by its rendered string, which keeps diagnostic
// output and multibinding contributor iteration deterministic.
type TypeKey struct {
	// Type is the canonical rendering of the type, e.g. "acme/store.DB".
	Type string

	// Qualifier distinguishes multiple bindings of the same type, e.g. "primary".
	// Empty means unqualified.
	Qualifier string
}

// Key builds an unqualified TypeKey.
func Key(typ string) TypeKey { return TypeKey{Type: typ} }

// QualifiedKey builds a TypeKey with a qualifier.
func QualifiedKey(typ, qualifier string) TypeKey {
	return TypeKey{Type: typ, Qualifier: qualifier}
}

// String renders the key for diagnostics and ordering.
func (k TypeKey) String() string {
	if k.Qualifier == "" {
		return k.Type
	}
	return k.Type + " @" + k.Qualifier
}

// Less defines the total order used everywhere determinism matters.
func (k TypeKey) Less(other TypeKey) bool {
	if k.Type != other.Type {
		return k.Type < other.Type
	}
	return k.Qualifier < other.Qualifier
}

// IsZero reports whether the key is the zero value (no type).
func (k TypeKey) IsZero() bool { return k.Type == "" && k.Qualifier == "" }

// ContextualTypeKey is a TypeKey plus the access mode it was requested
// through. The access mode never changes which Binding satisfies the key;
// it only changes whether the dependency edge is deferrable (the dependent
// needs a handle, not a constructed value).
type ContextualTypeKey struct {
	Key TypeKey

	// DeferredProvider marks a request through a deferred provider handle.
	DeferredProvider bool

	// Lazy marks a request through a lazy (memoized-on-first-use) handle.
	Lazy bool

	// LazyInProvider marks a lazy handle wrapped in a provider.
	LazyInProvider bool

	// HasDefault marks a request that tolerates an absent binding by
	// falling back to a declared default value.
	HasDefault bool
}

// Direct requests the key's constructed value at construction time.
func Direct(key TypeKey) ContextualTypeKey {
	return ContextualTypeKey{Key: key}
}

// Deferred requests the key through a deferred provider.
func Deferred(key TypeKey) ContextualTypeKey {
	return ContextualTypeKey{Key: key, DeferredProvider: true}
}

// LazyOf requests the key through a lazy handle.
func LazyOf(key TypeKey) ContextualTypeKey {
	return ContextualTypeKey{Key: key, Lazy: true}
}

// Deferrable reports whether an edge requesting this key may remain
// unsatisfied at construction time. Deferrable edges are what break
// permitted cycles.
func (c ContextualTypeKey) Deferrable() bool {
	return c.DeferredProvider || c.Lazy || c.LazyInProvider
}

// String decorates the underlying key with its access mode.
func (c ContextualTypeKey) String() string {
	switch {
	case c.LazyInProvider:
		return "Provider<Lazy<" + c.Key.String() + ">>"
	case c.DeferredProvider:
		return "Provider<" + c.Key.String() + ">"
	case c.Lazy:
		return "Lazy<" + c.Key.String() + ">"
	default:
		return c.Key.String()
	}
}
