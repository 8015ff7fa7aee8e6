package graph

import (
	"sort"
	"strings"
)

// SetOf renders the aggregate key of a Set multibinding over elem.
func SetOf(elem TypeKey) TypeKey {
	return TypeKey{Type: "Set<" + elem.String() + ">"}
}

// MapOf renders the aggregate key of a Map multibinding from key to val.
func MapOf(key, val TypeKey) TypeKey {
	return TypeKey{Type: "Map<" + key.String() + ", " + val.String() + ">"}
}

// malformedReason checks one component type of an aggregate key. Wildcard
// and blank types cannot be aggregated; the check runs before population so
// a bad declaration never reaches graph traversal.
func malformedReason(role string, k TypeKey) (string, bool) {
	if k.IsZero() {
		return role + " type is blank", true
	}
	if strings.ContainsAny(k.Type, "*?") {
		return role + " type contains a wildcard", true
	}
	return "", false
}

// checkAggregates validates every registered multibinding's structure.
// Runs first in Validate, on explicit registrations only (compute-synthesized
// bindings are never aggregates).
func (r *Resolver) checkAggregates() {
	for _, key := range r.explicit {
		b := r.bindings[key]
		if b.kind != KindMultibinding {
			continue
		}

		report := func(reason string) {
			r.diags = append(r.diags, Diagnostic{
				Kind: DiagMalformedAggregate,
				Keys: []TypeKey{b.key},
				Err:  MalformedAggregateError{Key: b.key, Reason: reason},
			})
		}

		switch b.aggregate {
		case AggregateSet:
			if reason, bad := malformedReason("element", b.elemKey); bad {
				report(reason)
			}
		case AggregateMap:
			if reason, bad := malformedReason("key", b.mapKeyType); bad {
				report(reason)
			}
			if reason, bad := malformedReason("value", b.elemKey); bad {
				report(reason)
			}
		}
	}
}

// aggregate collects every binding contributing to agg, sorts the
// contributors by TypeKey for deterministic iteration, and (for Map
// aggregates) reports element-level duplicate map keys. Called once per
// multibinding when population first reaches it.
func (r *Resolver) aggregate(agg *Binding) {
	var contributors []TypeKey
	for _, key := range r.explicit {
		b := r.bindings[key]
		if target, ok := b.ContributesTo(); ok && target == agg.key {
			contributors = append(contributors, b.key)
		}
	}
	sort.Slice(contributors, func(i, j int) bool { return contributors[i].Less(contributors[j]) })

	if agg.aggregate == AggregateMap {
		firstByMapKey := map[string]TypeKey{}
		for _, c := range contributors {
			mk := r.bindings[c].mapKey
			if prev, dup := firstByMapKey[mk]; dup {
				r.diags = append(r.diags, Diagnostic{
					Kind: DiagDuplicateBinding,
					Keys: []TypeKey{agg.key, prev, c},
					Err: DuplicateMapKeyError{
						Aggregate: agg.key,
						MapKey:    mk,
						First:     prev,
						Second:    c,
					},
				})
				continue
			}
			firstByMapKey[mk] = c
		}
	}

	agg.contributors = contributors
}

// checkEmptyAggregates enforces the empty-aggregate policy after
// population: zero contributors is an error unless the aggregate was
// declared allow-empty, in which case it resolves to an empty collection.
func (r *Resolver) checkEmptyAggregates() {
	for _, key := range r.discovery {
		b := r.bindings[key]
		if b.kind != KindMultibinding || b.allowEmpty || len(b.contributors) > 0 {
			continue
		}
		r.diags = append(r.diags, Diagnostic{
			Kind: DiagEmptyMultibinding,
			Keys: []TypeKey{b.key},
			Err:  EmptyMultibindingError{Key: b.key},
		})
	}
}
