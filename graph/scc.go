package graph

// edge is one adjacency entry: the dependency's key and whether the edge
// may remain unsatisfied at construction time.
type edge struct {
	to         TypeKey
	deferrable bool
}

//
// -----------------------------------------------------------------------------
// Tarjan's strongly connected components
// -----------------------------------------------------------------------------

// strongComponents partitions the nodes into strongly connected components
// using Tarjan's single-pass DFS (lowlink) algorithm. Components come out
// in reverse topological order; visiting nodes in the caller's discovery
// order keeps the result deterministic.
func strongComponents(nodes []TypeKey, adj map[TypeKey][]edge) [][]TypeKey {
	s := &sccState{
		indexOf: make(map[TypeKey]int, len(nodes)),
		lowlink: make(map[TypeKey]int, len(nodes)),
		onStack: make(map[TypeKey]bool, len(nodes)),
		adj:     adj,
	}
	for _, n := range nodes {
		if _, visited := s.indexOf[n]; !visited {
			s.strongConnect(n)
		}
	}
	return s.comps
}

type sccState struct {
	index   int
	indexOf map[TypeKey]int
	lowlink map[TypeKey]int
	onStack map[TypeKey]bool
	stack   []TypeKey
	comps   [][]TypeKey
	adj     map[TypeKey][]edge
}

func (s *sccState) strongConnect(v TypeKey) {
	s.indexOf[v] = s.index
	s.lowlink[v] = s.index
	s.index++
	s.stack = append(s.stack, v)
	s.onStack[v] = true

	for _, e := range s.adj[v] {
		w := e.to
		if _, visited := s.indexOf[w]; !visited {
			s.strongConnect(w)
			if s.lowlink[w] < s.lowlink[v] {
				s.lowlink[v] = s.lowlink[w]
			}
		} else if s.onStack[w] {
			// w is on the stack, hence in the current component
			if s.indexOf[w] < s.lowlink[v] {
				s.lowlink[v] = s.indexOf[w]
			}
		}
	}

	// v roots a component: pop the stack down to v
	if s.lowlink[v] == s.indexOf[v] {
		var comp []TypeKey
		for {
			w := s.stack[len(s.stack)-1]
			s.stack = s.stack[:len(s.stack)-1]
			s.onStack[w] = false
			comp = append(comp, w)
			if w == v {
				break
			}
		}
		s.comps = append(s.comps, comp)
	}
}
