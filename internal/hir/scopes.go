package hir

import (
	"sort"
)

// ReactiveScope is a memoization region: a contiguous range of the linear
// schedule whose declarations are cached on the dependency vector.
type ReactiveScope struct {
	ID           ScopeID
	Range        Range
	Dependencies []Place
	Declarations []Place
}

// ScopeResult holds the constructed scopes (sorted by range start, pairwise
// disjoint) and the instruction-index to scope mapping.
type ScopeResult struct {
	Scopes            []ReactiveScope
	InstructionScopes map[int]ScopeID
}

// BuildScopes derives reactive scopes from liveness in four steps, each a
// pure function of its input: infer candidates, align, merge overlaps,
// propagate dependencies and declarations.
func BuildScopes(f *HIRFunction, sched *Schedule, live *LivenessResult) *ScopeResult {
	scopes := inferScopes(live)
	alignScopes(scopes)
	scopes = mergeScopes(scopes)
	propagate(sched, live, scopes)

	instructionScopes := map[int]ScopeID{}
	for _, scope := range scopes {
		for idx := scope.Range.Start; idx < scope.Range.End; idx++ {
			instructionScopes[idx] = scope.ID
		}
	}

	return &ScopeResult{Scopes: scopes, InstructionScopes: instructionScopes}
}

// inferScopes creates one candidate per non-temporary identifier whose
// live range spans at least two instructions. Temporaries carry
// intra-expression dataflow and need no memoization.
func inferScopes(live *LivenessResult) []ReactiveScope {
	type candidate struct {
		id  Identifier
		rng Range
	}
	var candidates []candidate
	for id, rng := range live.Ranges {
		if rng.End-rng.Start <= 1 {
			continue
		}
		if id.Temp {
			continue
		}
		candidates = append(candidates, candidate{id: id, rng: rng})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.rng.Start != b.rng.Start {
			return a.rng.Start < b.rng.Start
		}
		if a.id.Name != b.id.Name {
			return a.id.Name < b.id.Name
		}
		return a.id.Version < b.id.Version
	})

	scopes := make([]ReactiveScope, 0, len(candidates))
	for i, c := range candidates {
		scopes = append(scopes, ReactiveScope{ID: ScopeID(i), Range: c.rng})
	}
	return scopes
}

// alignScopes keeps instruction-granular ranges; a future refinement may
// snap endpoints to statement boundaries.
func alignScopes(scopes []ReactiveScope) {
	sort.Slice(scopes, func(i, j int) bool { return scopes[i].Range.Start < scopes[j].Range.Start })
}

// mergeScopes folds the sorted candidates, unioning any scope that starts
// before the previous one ends. The result is sorted and pairwise
// disjoint.
func mergeScopes(scopes []ReactiveScope) []ReactiveScope {
	if len(scopes) == 0 {
		return scopes
	}

	merged := scopes[:1]
	for _, scope := range scopes[1:] {
		last := &merged[len(merged)-1]
		if scope.Range.Start < last.Range.End {
			if scope.Range.End > last.Range.End {
				last.Range.End = scope.Range.End
			}
		} else {
			merged = append(merged, scope)
		}
	}
	return merged
}

// propagate walks each scope's schedule slice collecting every lvalue as a
// declaration and every operand defined strictly before the range start as
// a dependency. A dependency can never also be a declaration: declarations
// are defined at indices inside the range.
func propagate(sched *Schedule, live *LivenessResult, scopes []ReactiveScope) {
	for i := range scopes {
		scope := &scopes[i]
		deps := map[Identifier]bool{}
		decls := map[Identifier]bool{}

		for idx := scope.Range.Start; idx < scope.Range.End && idx < len(sched.Instructions); idx++ {
			instr := sched.Instructions[idx]
			decls[instr.LValue.Identifier] = true

			for _, place := range instr.Value.UsedPlaces() {
				rng, ok := live.Ranges[place.Identifier]
				if ok && rng.Start < scope.Range.Start {
					deps[place.Identifier] = true
				}
			}
		}

		scope.Dependencies = sortedPlaces(deps)
		scope.Declarations = sortedPlaces(decls)
	}
}

func sortedPlaces(ids map[Identifier]bool) []Place {
	list := make([]Identifier, 0, len(ids))
	for id := range ids {
		list = append(list, id)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].Version < list[j].Version
	})

	places := make([]Place, 0, len(list))
	for _, id := range list {
		places = append(places, Place{Identifier: id})
	}
	return places
}
