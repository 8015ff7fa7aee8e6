// Package bindgraph provides build-time dependency graph resolution for
// code-generated dependency injection.
//
// Given a set of declared bindings (providers, bound instances, multibinding
// aggregates) and a set of requested roots, the engine resolves which binding
// satisfies each requested type, verifies the resulting graph is well-formed
// (duplicates, missing bindings, cycles), and computes a deterministic
// initialization order that a generator can turn into plain constructor calls.
//
// Layout:
//
//   - graph: the resolution engine (keys, bindings, dependency stack,
//     SCC-based cycle handling, multibinding aggregation, sealing)
//   - cmd/bindgen: code generator consuming a JSON/YAML graph manifest and
//     emitting the wiring code for the sealed graph
//   - examples/*: runnable examples driving the library directly
//
// Wiring stays explicit and fully resolved ahead of time: there is no
// reflection-based container and no runtime lookup. A graph is resolved once,
// synchronously, and either seals into an immutable artifact or reports a
// structured diagnostic list with full dependency chains.
package bindgraph
