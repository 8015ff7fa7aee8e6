package graph

import "sort"

//
// -----------------------------------------------------------------------------
// Component condensation and initialization ordering
// -----------------------------------------------------------------------------

// component is one condensed node of the component DAG.
type component struct {
	// members sorted by TypeKey
	members []TypeKey

	// cyclic: more than one member, or a single member with a self-edge
	cyclic bool

	// permitted: cyclic, and every cycle inside the component is broken
	// by at least one deferrable edge
	permitted bool
}

// buildComponents classifies the raw SCCs. Membership checks use compOf.
func buildComponents(sccs [][]TypeKey, adj map[TypeKey][]edge) (comps []component, compOf map[TypeKey]int) {
	compOf = make(map[TypeKey]int)
	for i, scc := range sccs {
		for _, k := range scc {
			compOf[k] = i
		}
	}

	comps = make([]component, len(sccs))
	for i, scc := range sccs {
		members := make([]TypeKey, len(scc))
		copy(members, scc)
		sort.Slice(members, func(a, b int) bool { return members[a].Less(members[b]) })

		c := component{members: members}
		if len(members) > 1 {
			c.cyclic = true
		} else {
			for _, e := range adj[members[0]] {
				if e.to == members[0] {
					c.cyclic = true
					break
				}
			}
		}
		if c.cyclic {
			// Permitted iff the subgraph of non-deferrable in-component
			// edges is acyclic: then every cycle here has a deferrable
			// edge to break it.
			sub := map[TypeKey][]edge{}
			selfFatal := false
			for _, m := range scc {
				for _, e := range adj[m] {
					if compOf[e.to] != i || e.deferrable {
						continue
					}
					if e.to == m {
						selfFatal = true
					}
					sub[m] = append(sub[m], e)
				}
			}
			c.permitted = !selfFatal
			if c.permitted {
				for _, s := range strongComponents(members, sub) {
					if len(s) > 1 {
						c.permitted = false
						break
					}
				}
			}
		}
		comps[i] = c
	}
	return comps, compOf
}

// topoOrder sorts the component DAG with Kahn's algorithm, breaking ties by
// the smallest member TypeKey so the result is deterministic, then expands
// each component into its members.
//
// A trivial component expands to its single key. A permitted cycle expands
// to a topological order of its members over the non-deferrable
// in-component edges (smallest ready TypeKey first), with the deferred
// member last: every eager dependency is constructed before its dependent,
// and only deferrable edges refer forward.
func topoOrder(comps []component, compOf map[TypeKey]int, adj map[TypeKey][]edge) []TypeKey {
	n := len(comps)
	indegree := make([]int, n)
	succ := make([][]int, n)
	seen := make([]map[int]bool, n)
	for i := range seen {
		seen[i] = map[int]bool{}
	}

	// Edges run from dependent to dependency; initialization wants
	// dependencies first, so the DAG edge goes dependency -> dependent.
	for i, c := range comps {
		for _, m := range c.members {
			for _, e := range adj[m] {
				j := compOf[e.to]
				if j == i || seen[j][i] {
					continue
				}
				seen[j][i] = true
				succ[j] = append(succ[j], i)
				indegree[i]++
			}
		}
	}

	ready := make([]int, 0, n)
	for i := range comps {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	var out []TypeKey
	for len(ready) > 0 {
		// deterministic tie-break: smallest leading member key
		best := 0
		for i := 1; i < len(ready); i++ {
			if comps[ready[i]].members[0].Less(comps[ready[best]].members[0]) {
				best = i
			}
		}
		cur := ready[best]
		ready = append(ready[:best], ready[best+1:]...)

		out = append(out, expandComponent(comps[cur], compOf, adj)...)

		for _, next := range succ[cur] {
			indegree[next]--
			if indegree[next] == 0 {
				ready = append(ready, next)
			}
		}
	}
	return out
}

func expandComponent(c component, compOf map[TypeKey]int, adj map[TypeKey][]edge) []TypeKey {
	if !c.cyclic || len(c.members) == 1 {
		return c.members
	}

	self := compOf[c.members[0]]

	// non-deferrable in-component edges; incoming counts identify the
	// members nothing in the component requires eagerly
	sub := map[TypeKey][]TypeKey{}
	incoming := map[TypeKey]int{}
	for _, src := range c.members {
		for _, e := range adj[src] {
			if e.deferrable || compOf[e.to] != self {
				continue
			}
			sub[src] = append(sub[src], e.to)
			incoming[e.to]++
		}
	}

	deferred := deferredMember(c, compOf, adj, incoming)

	// Kahn over the remaining members: a member is ready once every edge in
	// sub it depends on is emitted, smallest TypeKey first among the ready
	// ones. Acyclic for permitted cycles, so this always makes progress.
	out := make([]TypeKey, 0, len(c.members))
	emitted := map[TypeKey]bool{deferred: true}
	for len(out) < len(c.members)-1 {
		progress := false
		for _, m := range c.members {
			if emitted[m] {
				continue
			}
			ready := true
			for _, dep := range sub[m] {
				if !emitted[dep] {
					ready = false
					break
				}
			}
			if ready {
				emitted[m] = true
				out = append(out, m)
				progress = true
				break
			}
		}
		if progress {
			continue
		}
		// unreachable for permitted cycles; emit the rest in key order
		for _, m := range c.members {
			if !emitted[m] {
				emitted[m] = true
				out = append(out, m)
			}
		}
	}
	return append(out, deferred)
}

// deferredMember picks the member constructed last: the target of the first
// deferrable in-component edge that no member requires through an eager
// edge, scanning sources in TypeKey order and edges in declaration order.
// Such a member exists in every permitted cycle (the non-deferrable
// subgraph is acyclic, so some member has only deferrable edges into it,
// and strong connectivity gives it at least one).
func deferredMember(c component, compOf map[TypeKey]int, adj map[TypeKey][]edge, incoming map[TypeKey]int) TypeKey {
	self := compOf[c.members[0]]
	for _, src := range c.members {
		for _, e := range adj[src] {
			if e.deferrable && compOf[e.to] == self && incoming[e.to] == 0 {
				return e.to
			}
		}
	}
	// unreachable for permitted cycles; fall back to the largest member
	return c.members[len(c.members)-1]
}

// syntheticCycleChain renders a cycle discovered by SCC analysis rather
// than by DFS population (possible for bindings registered via TryPut that
// no root path walked). It walks the component's internal edges from its
// smallest member until the walk closes.
func syntheticCycleChain(c component, compOf map[TypeKey]int, adj map[TypeKey][]edge) []string {
	self := compOf[c.members[0]]
	start := c.members[0]

	var lines []string
	visited := map[TypeKey]bool{}
	cur := start
	for {
		visited[cur] = true
		var next TypeKey
		found := false
		for _, e := range adj[cur] {
			if compOf[e.to] == self {
				next = e.to
				found = true
				break
			}
		}
		if !found {
			break
		}
		lines = append(lines, cur.String()+" requires "+next.String())
		if visited[next] {
			break
		}
		cur = next
	}
	return lines
}
