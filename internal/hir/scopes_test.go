package hir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildScopesFor(t *testing.T, source string) *ScopeResult {
	t.Helper()
	f, sched, live := analyze(t, source)
	return BuildScopes(f, sched, live)
}

func TestScopesExcludeTemporaries(t *testing.T) {
	// Only temporaries flow here: no user variable survives past its
	// definition, so nothing is worth memoizing.
	scopes := buildScopesFor(t, "function f(a, b) { return a + b; }")
	assert.Empty(t, scopes.Scopes)
}

func TestScopesCoverUserVariables(t *testing.T) {
	scopes := buildScopesFor(t, "function f(a) { let x = a + 1; return x; }")
	require.Len(t, scopes.Scopes, 1)

	scope := scopes.Scopes[0]
	assert.NotEmpty(t, scope.Declarations)

	var hasX bool
	for _, decl := range scope.Declarations {
		if decl.Identifier.Name == "x" {
			hasX = true
		}
	}
	assert.True(t, hasX)
}

func TestScopesAreDisjointAndSorted(t *testing.T) {
	scopes := buildScopesFor(t, `function f(a, b) {
		let x = a + 1;
		let y = x * 2;
		foo(y);
		let z = b + 1;
		bar(z);
		return z;
	}`)

	for i := 1; i < len(scopes.Scopes); i++ {
		prev := scopes.Scopes[i-1]
		curr := scopes.Scopes[i]
		assert.LessOrEqual(t, prev.Range.End, curr.Range.Start, "ranges are pairwise disjoint and sorted")
	}
}

func TestScopeDependenciesPrecedeRange(t *testing.T) {
	f, sched, live := analyze(t, "function f(a) { let x = a + 1; let y = x + 2; return y; }")
	scopes := BuildScopes(f, sched, live)

	for _, scope := range scopes.Scopes {
		for _, dep := range scope.Dependencies {
			rng, ok := live.Ranges[dep.Identifier]
			require.True(t, ok)
			assert.Less(t, rng.Start, scope.Range.Start,
				"dependency %s defined strictly before the scope", dep.Identifier.Name)
		}
	}
}

func TestScopeDependencyDeclarationSeparation(t *testing.T) {
	scopes := buildScopesFor(t, `function f(a, b) {
		let x = a + 1;
		let y = x * b;
		return y;
	}`)

	for _, scope := range scopes.Scopes {
		decls := map[Identifier]bool{}
		for _, decl := range scope.Declarations {
			decls[decl.Identifier] = true
		}
		for _, dep := range scope.Dependencies {
			assert.False(t, decls[dep.Identifier],
				"%s@%d must not be both dependency and declaration", dep.Identifier.Name, dep.Identifier.Version)
		}
	}
}

func TestScopeInstructionMapMatchesRanges(t *testing.T) {
	scopes := buildScopesFor(t, "function f(a) { let x = a + 1; return x; }")

	for _, scope := range scopes.Scopes {
		for idx := scope.Range.Start; idx < scope.Range.End; idx++ {
			assert.Equal(t, scope.ID, scopes.InstructionScopes[idx])
		}
	}
}

func TestMergeOverlappingScopes(t *testing.T) {
	scopes := []ReactiveScope{
		{ID: 0, Range: Range{Start: 0, End: 5}},
		{ID: 1, Range: Range{Start: 3, End: 8}},
		{ID: 2, Range: Range{Start: 10, End: 15}},
	}

	merged := mergeScopes(scopes)

	require.Len(t, merged, 2)
	assert.Equal(t, Range{Start: 0, End: 8}, merged[0].Range)
	assert.Equal(t, Range{Start: 10, End: 15}, merged[1].Range)
}

func TestScopeOrderingIsDeterministic(t *testing.T) {
	source := `function f(a, b) {
		let x = a + 1;
		let y = b + 2;
		return x + y;
	}`

	first := buildScopesFor(t, source)
	second := buildScopesFor(t, source)
	assert.Equal(t, first.Scopes, second.Scopes)
}
