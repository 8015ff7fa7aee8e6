package graph

// Sealed is the immutable, fully indexed artifact a successful Validate
// produces. It exposes exactly what a code generator needs: binding lookup,
// the final initialization order, per-binding indices, and multibinding
// contributor lists. The maps are owned by the sealed graph; callers only
// read through the accessors.
type Sealed struct {
	bindings map[TypeKey]*Binding
	order    []TypeKey
	index    map[TypeKey]int
}

// Binding looks up the binding satisfying key.
func (s *Sealed) Binding(key TypeKey) (*Binding, bool) {
	b, ok := s.bindings[key]
	return b, ok
}

// Order returns the initialization order: dependencies strictly before
// dependents, except inside a permitted cycle where the deferred member
// comes last because its value is only demanded lazily.
func (s *Sealed) Order() []TypeKey {
	out := make([]TypeKey, len(s.order))
	copy(out, s.order)
	return out
}

// Index returns key's position in the initialization order.
func (s *Sealed) Index(key TypeKey) (int, bool) {
	i, ok := s.index[key]
	return i, ok
}

// Contributors returns the sorted contributor keys of a multibinding, or
// nil for any other key.
func (s *Sealed) Contributors(key TypeKey) []TypeKey {
	b, ok := s.bindings[key]
	if !ok || b.kind != KindMultibinding {
		return nil
	}
	return b.Contributors()
}

// Len returns the number of bindings in the initialization order.
func (s *Sealed) Len() int { return len(s.order) }
