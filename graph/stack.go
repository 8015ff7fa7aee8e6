package graph

// StackEntry is one frame of a dependency stack: what was requested, and
// the declaration that requested it.
type StackEntry struct {
	Requested   ContextualTypeKey
	RequestedBy DeclRef
}

// BindingStack records the per-resolution-path trace of "what requested
// what". One instance exists per root resolution. It is a passive recorder:
// it never fails; detection logic queries it.
type BindingStack struct {
	frames []StackEntry
	counts map[TypeKey]int
}

// NewBindingStack returns an empty stack.
func NewBindingStack() *BindingStack {
	return &BindingStack{counts: map[TypeKey]int{}}
}

// Push appends a frame and returns a release func that pops it. Callers
// defer the release so the pop happens on every exit path, error paths
// included.
func (s *BindingStack) Push(entry StackEntry) (release func()) {
	s.frames = append(s.frames, entry)
	s.counts[entry.Requested.Key]++

	released := false
	return func() {
		if released {
			return
		}
		released = true
		top := s.frames[len(s.frames)-1]
		s.frames = s.frames[:len(s.frames)-1]
		s.counts[top.Requested.Key]--
		if s.counts[top.Requested.Key] == 0 {
			delete(s.counts, top.Requested.Key)
		}
	}
}

// Contains reports whether any frame requested the given key. Used for the
// cheap self-reference cycle check during population.
func (s *BindingStack) Contains(key TypeKey) bool {
	return s.counts[key] > 0
}

// Depth returns the current number of frames.
func (s *BindingStack) Depth() int { return len(s.frames) }

// Entries returns the current frames, oldest first.
func (s *BindingStack) Entries() []StackEntry {
	out := make([]StackEntry, len(s.frames))
	copy(out, s.frames)
	return out
}

// Chain renders the stack as a human-readable dependency path, innermost
// request first:
//
//	X is requested at Bar (bar.go:12)
//	Bar requires X
//	Bar is requested at [Graph] App.bar()
//
// The last line always names the root's "requested by" declaration.
func (s *BindingStack) Chain() []string {
	n := len(s.frames)
	if n == 0 {
		return nil
	}

	lines := make([]string, 0, n+1)
	top := s.frames[n-1]
	lines = append(lines, top.Requested.String()+" is requested at "+top.RequestedBy.String())
	for i := n - 1; i > 0; i-- {
		lines = append(lines, s.frames[i-1].Requested.Key.String()+" requires "+s.frames[i].Requested.Key.String())
	}
	if n > 1 {
		root := s.frames[0]
		lines = append(lines, root.Requested.Key.String()+" is requested at "+root.RequestedBy.String())
	}
	return lines
}

// cycleInfo describes the closing of a cycle: the stack segment from the
// first frame requesting key up to the top, plus the closing edge back to
// key. lines are "A requires B" / "B requires A" style; deferrable reports
// whether any edge of the cycle (the closing edge included) is deferrable,
// i.e. whether the cycle can be broken without constructing a member early.
func (s *BindingStack) cycleInfo(key TypeKey, closing ContextualTypeKey) (keys []TypeKey, lines []string, deferrable bool) {
	first := -1
	for i, f := range s.frames {
		if f.Requested.Key == key {
			first = i
			break
		}
	}
	if first < 0 {
		return nil, nil, false
	}

	deferrable = closing.Deferrable()
	for i := first; i < len(s.frames); i++ {
		keys = append(keys, s.frames[i].Requested.Key)
		if i > first && s.frames[i].Requested.Deferrable() {
			// edge into this frame is part of the cycle
			deferrable = true
		}
		if i+1 < len(s.frames) {
			lines = append(lines, s.frames[i].Requested.Key.String()+" requires "+s.frames[i+1].Requested.Key.String())
		}
	}
	top := s.frames[len(s.frames)-1]
	lines = append(lines, top.Requested.Key.String()+" requires "+key.String())
	return keys, lines, deferrable
}
