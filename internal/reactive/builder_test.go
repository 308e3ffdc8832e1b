package reactive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memoc/internal/hir"
	"memoc/internal/parser"
)

func buildTree(t *testing.T, source string) *Function {
	t.Helper()
	module, parseErrors := parser.ParseSource("test.js", source)
	require.Empty(t, parseErrors)
	require.NotEmpty(t, module.Functions)

	f, lowerErrs := hir.Lower(module.Functions[0])
	require.Empty(t, lowerErrs)
	ssa := hir.EnterSSA(f)
	sched := hir.NewSchedule(ssa)
	live := hir.InferLiveness(ssa, sched)
	scopes := hir.BuildScopes(ssa, sched, live)
	return Build(ssa, sched, scopes)
}

func findWhile(stmts []Statement) *While {
	for _, stmt := range stmts {
		if loop, ok := stmt.(*While); ok {
			return loop
		}
		if scope, ok := stmt.(*Scope); ok {
			if loop := findWhile(scope.Body); loop != nil {
				return loop
			}
		}
	}
	return nil
}

func findSwitch(stmts []Statement) *Switch {
	for _, stmt := range stmts {
		if sw, ok := stmt.(*Switch); ok {
			return sw
		}
	}
	return nil
}

func hasStatement(stmts []Statement, match func(Statement) bool) bool {
	for _, stmt := range stmts {
		if match(stmt) {
			return true
		}
		switch s := stmt.(type) {
		case *If:
			if hasStatement(s.Consequent, match) || hasStatement(s.Alternate, match) {
				return true
			}
		case *While:
			if hasStatement(s.Body, match) {
				return true
			}
		case *Scope:
			if hasStatement(s.Body, match) {
				return true
			}
		case *Switch:
			for _, c := range s.Cases {
				if hasStatement(c.Body, match) {
					return true
				}
			}
		}
	}
	return false
}

func TestTreeStraightLine(t *testing.T) {
	tree := buildTree(t, "function add(a, b) { return a + b; }")
	assert.Equal(t, "add", tree.Name)
	require.Len(t, tree.Params, 2)

	last := tree.Body[len(tree.Body)-1]
	ret, ok := last.(*Return)
	require.True(t, ok)
	assert.NotNil(t, ret.Value)
}

func TestTreeLoopBecomesWhileTrueWithTestBreak(t *testing.T) {
	tree := buildTree(t, "function f() { let i = 0; while (i < 3) { i = i + 1; } return i; }")

	loop := findWhile(tree.Body)
	require.NotNil(t, loop)
	assert.Equal(t, "true", loop.Test.Name)

	// The header test renders inside the body as if(test){}else{break}.
	var hasTestBreak bool
	for _, stmt := range loop.Body {
		if ifStmt, ok := stmt.(*If); ok && len(ifStmt.Consequent) == 0 && len(ifStmt.Alternate) == 1 {
			if _, ok := ifStmt.Alternate[0].(*Break); ok {
				hasTestBreak = true
			}
		}
	}
	assert.True(t, hasTestBreak)

	// The backedge ends in a continue.
	_, isContinue := loop.Body[len(loop.Body)-1].(*Continue)
	assert.True(t, isContinue)
}

func TestTreePhiCopiesPrecedeContinue(t *testing.T) {
	tree := buildTree(t, "function f() { let i = 0; while (i < 3) { i = i + 1; } return i; }")

	loop := findWhile(tree.Body)
	require.NotNil(t, loop)
	require.GreaterOrEqual(t, len(loop.Body), 2)

	// The statement just before the continue copies the next value into
	// the Φ destination.
	copyStmt, ok := loop.Body[len(loop.Body)-2].(*Instruction)
	require.True(t, ok)
	assert.Equal(t, "i", copyStmt.LValue.Name)
	_, isLoad := copyStmt.Value.(*LoadLocal)
	assert.True(t, isLoad)
}

func TestTreeSwitchKeepsContinuationAfterBreak(t *testing.T) {
	tree := buildTree(t, `function g(x) {
		let r = 0;
		switch (x) {
			case 1: r += 1;
			case 2: r += 2; break;
			case 3: r += 4;
		}
		return r;
	}`)

	sw := findSwitch(tree.Body)
	require.NotNil(t, sw)
	require.Len(t, sw.Cases, 4, "three source cases plus the synthesized default")
	assert.Nil(t, sw.Cases[3].Label)

	// Cases that break carry a Break statement.
	assert.True(t, hasStatement(sw.Cases[0].Body, func(s Statement) bool {
		_, ok := s.(*Break)
		return ok
	}))

	// The return lives after the switch, not inside the default arm.
	var switchIdx, returnIdx int
	for i, stmt := range tree.Body {
		if _, ok := stmt.(*Switch); ok {
			switchIdx = i
		}
		if _, ok := stmt.(*Return); ok {
			returnIdx = i
		}
	}
	assert.Greater(t, returnIdx, switchIdx, "continuation is emitted after the switch")

	for _, stmt := range sw.Cases[3].Body {
		_, isReturn := stmt.(*Return)
		assert.False(t, isReturn, "synthesized default only carries edge copies")
	}
}

func TestTreeSwitchFallthroughDuplicatesNextCase(t *testing.T) {
	tree := buildTree(t, `function g(x) {
		let r = 0;
		switch (x) {
			case 1: r += 1;
			case 2: r += 2; break;
		}
		return r;
	}`)

	sw := findSwitch(tree.Body)
	require.NotNil(t, sw)

	// Case 1 falls through: its body absorbs case 2's statements and the
	// break.
	assert.True(t, hasStatement(sw.Cases[0].Body, func(s Statement) bool {
		_, ok := s.(*Break)
		return ok
	}))
	assert.Greater(t, len(sw.Cases[0].Body), len(sw.Cases[1].Body)-1)
}

func TestTreeIfDuplicatesJoinIntoBothBranches(t *testing.T) {
	tree := buildTree(t, "function f(c) { let x = 0; if (c) { x = 1; } return x; }")

	var ifStmt *If
	for _, stmt := range tree.Body {
		if s, ok := stmt.(*If); ok {
			ifStmt = s
		}
	}
	require.NotNil(t, ifStmt)

	returnMatch := func(s Statement) bool {
		_, ok := s.(*Return)
		return ok
	}
	assert.True(t, hasStatement(ifStmt.Consequent, returnMatch), "join code is duplicated into the then path")
	assert.True(t, hasStatement(ifStmt.Alternate, returnMatch), "join code is duplicated into the else path")
}

func TestTreeScopeWrappingStraightLine(t *testing.T) {
	tree := buildTree(t, "function f(a) { let x = a + 1; return x; }")

	var scope *Scope
	for _, stmt := range tree.Body {
		if s, ok := stmt.(*Scope); ok {
			scope = s
		}
	}
	require.NotNil(t, scope, "a straight-line user value is wrapped in a scope")
	assert.NotEmpty(t, scope.Declarations)
	assert.NotEmpty(t, scope.Body)
}

func TestTreeTornScopeIsNotWrapped(t *testing.T) {
	// The loop-carried value's range spans header, body and exit; its
	// instructions cannot form one contiguous run, so no Scope node may
	// be materialized.
	tree := buildTree(t, "function f() { let i = 0; while (i < 3) { i = i + 1; } return i; }")

	assert.False(t, hasStatement(tree.Body, func(s Statement) bool {
		_, ok := s.(*Scope)
		return ok
	}))
}
