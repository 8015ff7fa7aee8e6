package graph

import (
	"errors"
	"strconv"
	"strings"
)

// ErrSealed is returned when a mutation reaches a graph that already
// validated. A sealed graph is read-only; hitting this is an internal
// consistency bug in the caller, not a user wiring error.
var ErrSealed = errors.New("graph: sealed graph is read-only")

// DiagnosticKind classifies the wiring errors a single validation run can
// collect.
type DiagnosticKind uint8

const (
	DiagDuplicateBinding DiagnosticKind = iota
	DiagDependencyCycle
	DiagMissingBinding
	DiagEmptyMultibinding
	DiagMalformedAggregate
)

// String returns the kind name as rendered to users.
func (k DiagnosticKind) String() string {
	switch k {
	case DiagDuplicateBinding:
		return "DuplicateBinding"
	case DiagDependencyCycle:
		return "DependencyCycle"
	case DiagMissingBinding:
		return "MissingBinding"
	case DiagEmptyMultibinding:
		return "EmptyMultibinding"
	case DiagMalformedAggregate:
		return "MalformedAggregate"
	default:
		return "Unknown"
	}
}

// Diagnostic is one collected wiring error: its kind, the offending keys,
// the dependency chain that discovered it (may be empty for pre-population
// checks), and the typed error carrying the details.
type Diagnostic struct {
	Kind  DiagnosticKind
	Keys  []TypeKey
	Chain []string
	Err   error
}

// Message renders the diagnostic with its chain, one line per chain entry.
func (d Diagnostic) Message() string {
	var sb strings.Builder
	sb.WriteString(d.Kind.String())
	sb.WriteString(": ")
	sb.WriteString(d.Err.Error())
	for _, line := range d.Chain {
		sb.WriteString("\n    ")
		sb.WriteString(line)
	}
	return sb.String()
}

// DuplicateBindingError reports two distinct explicit bindings registered
// for the same TypeKey.
type DuplicateBindingError struct {
	Key    TypeKey
	First  DeclRef
	Second DeclRef
}

// Error implements the error interface. It avoids fmt to keep the failure
// path cheap (same policy the rest of the package follows).
func (e DuplicateBindingError) Error() string {
	return "graph: duplicate binding for " + strconv.Quote(e.Key.String()) +
		": first " + e.First.String() + ", second " + e.Second.String()
}

// DuplicateMapKeyError reports two contributors to one Map aggregate
// declaring the same map key. It is a DuplicateBinding at the element
// level, distinct from duplicate aggregate registration.
type DuplicateMapKeyError struct {
	Aggregate TypeKey
	MapKey    string
	First     TypeKey
	Second    TypeKey
}

// Error implements the error interface.
func (e DuplicateMapKeyError) Error() string {
	return "graph: duplicate map key " + strconv.Quote(e.MapKey) +
		" in " + strconv.Quote(e.Aggregate.String()) +
		": contributed by " + e.First.String() + " and " + e.Second.String()
}

// DependencyCycleError reports a cycle that no deferrable edge breaks.
type DependencyCycleError struct {
	Keys  []TypeKey
	Chain []string
}

// Error implements the error interface.
func (e DependencyCycleError) Error() string {
	var sb strings.Builder
	sb.WriteString("graph: dependency cycle between ")
	for i, k := range e.Keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Quote(k.String()))
	}
	return sb.String()
}

// MissingBindingError reports a reachable key that resolved to no binding
// and was not declared absent intentionally.
type MissingBindingError struct {
	Key   TypeKey
	Chain []string
}

// Error implements the error interface.
func (e MissingBindingError) Error() string {
	return "graph: no binding for " + strconv.Quote(e.Key.String())
}

// EmptyMultibindingError reports an aggregate with zero contributors and no
// allow-empty override.
type EmptyMultibindingError struct {
	Key TypeKey
}

// Error implements the error interface.
func (e EmptyMultibindingError) Error() string {
	return "graph: multibinding " + strconv.Quote(e.Key.String()) + " has no contributors"
}

// MalformedAggregateError reports a structurally invalid aggregate key,
// detected before population.
type MalformedAggregateError struct {
	Key    TypeKey
	Reason string
}

// Error implements the error interface.
func (e MalformedAggregateError) Error() string {
	return "graph: malformed aggregate " + strconv.Quote(e.Key.String()) + ": " + e.Reason
}

// ResolveError aggregates every diagnostic a validation run collected. A
// graph that produced one is never sealed.
type ResolveError struct {
	Diagnostics []Diagnostic
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	if len(e.Diagnostics) == 1 {
		return e.Diagnostics[0].Message()
	}
	var sb strings.Builder
	sb.WriteString("graph: ")
	sb.WriteString(strconv.Itoa(len(e.Diagnostics)))
	sb.WriteString(" wiring errors")
	for _, d := range e.Diagnostics {
		sb.WriteString("\n")
		sb.WriteString(d.Message())
	}
	return sb.String()
}

// Unwrap exposes the typed errors for errors.Is / errors.As.
func (e *ResolveError) Unwrap() []error {
	out := make([]error, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		out[i] = d.Err
	}
	return out
}
