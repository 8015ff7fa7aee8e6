// Package graph implements the binding graph resolution engine.
//
// A Resolver takes explicitly registered bindings (TryPut), a compute
// callback for just-in-time synthesis of bindings that were never declared
// (constructor injection), and a set of requested roots. Validate then:
//
//   - populates the reachable node set depth-first, memoizing one Binding
//     per TypeKey and recording the adjacency list
//   - aggregates multibinding contributors (Set / Map) deterministically
//   - computes strongly connected components and classifies each cycle as
//     permitted (every edge inside it is deferrable via Provider/Lazy
//     access) or fatal
//   - condenses components into a DAG, topologically sorts it with
//     TypeKey tie-breaking, and expands permitted cycles so the member
//     reached through the first deferrable edge initializes last
//   - assigns each binding its position in the final initialization order
//     and seals the graph into a read-only, indexed artifact
//
// Errors are collected per graph as a structured diagnostic list rather
// than raised on first occurrence, so a single run reports as many wiring
// problems as possible. Every diagnostic carries the dependency chain that
// discovered it ("X is requested at ...", "Y requires X", ...).
//
// The engine is single-threaded by design: one Resolver is exclusively
// owned by the one resolution call that created it and is discarded after
// the sealed graph has been consumed.
package graph
