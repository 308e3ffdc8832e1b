package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memoc/internal/ast"
)

func parseExpression(t *testing.T, source string) ast.Expr {
	t.Helper()
	fn := parseOneFunction(t, "function f() { return "+source+"; }")
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)
	require.NotNil(t, ret.Value)
	return ret.Value
}

func TestPrecedenceMulOverAdd(t *testing.T) {
	expr := parseExpression(t, "a + b * c")
	add, ok := expr.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "+", add.Op)

	mul, ok := add.Right.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "*", mul.Op)
}

func TestLeftAssociativity(t *testing.T) {
	expr := parseExpression(t, "a - b - c")
	outer := expr.(*ast.BinaryExpr)
	assert.Equal(t, "-", outer.Op)

	inner, ok := outer.Left.(*ast.BinaryExpr)
	require.True(t, ok, "subtraction should group left")
	assert.Equal(t, "-", inner.Op)
}

func TestLogicalOperators(t *testing.T) {
	expr := parseExpression(t, "a && b || c")
	or, ok := expr.(*ast.LogicalExpr)
	require.True(t, ok)
	assert.Equal(t, "||", or.Op)

	and, ok := or.Left.(*ast.LogicalExpr)
	require.True(t, ok)
	assert.Equal(t, "&&", and.Op)
}

func TestNullishCoalescing(t *testing.T) {
	expr := parseExpression(t, "x ?? 7")
	nullish, ok := expr.(*ast.LogicalExpr)
	require.True(t, ok)
	assert.Equal(t, "??", nullish.Op)
}

func TestConditionalExpression(t *testing.T) {
	expr := parseExpression(t, "c ? 1 : 2")
	cond, ok := expr.(*ast.ConditionalExpr)
	require.True(t, ok)
	assert.NotNil(t, cond.Test)
	assert.NotNil(t, cond.Consequent)
	assert.NotNil(t, cond.Alternate)
}

func TestMemberAndCall(t *testing.T) {
	expr := parseExpression(t, "obj.items[0].map(f, ...rest)")
	call, ok := expr.(*ast.CallExpr)
	require.True(t, ok)
	require.Len(t, call.Args, 2)
	assert.False(t, call.Args[0].Spread)
	assert.True(t, call.Args[1].Spread)

	member, ok := call.Callee.(*ast.MemberExpr)
	require.True(t, ok)
	assert.Equal(t, "map", member.Property)
	assert.False(t, member.Computed)

	computed, ok := member.Object.(*ast.MemberExpr)
	require.True(t, ok)
	assert.True(t, computed.Computed)
}

func TestObjectLiteralForms(t *testing.T) {
	expr := parseExpression(t, `{ a: 1, "b": 2, [k]: 3, c, ...rest }`)
	obj, ok := expr.(*ast.ObjectLit)
	require.True(t, ok)
	require.Len(t, obj.Props, 5)

	assert.Equal(t, "a", obj.Props[0].Key)
	assert.Equal(t, "b", obj.Props[1].Key)
	assert.True(t, obj.Props[2].Computed)
	assert.Equal(t, "c", obj.Props[3].Key)
	ident, ok := obj.Props[3].Value.(*ast.Ident)
	require.True(t, ok, "shorthand expands to identifier value")
	assert.Equal(t, "c", ident.Name)
	assert.True(t, obj.Props[4].Spread)
}

func TestArrayLiteralWithHolesAndSpread(t *testing.T) {
	expr := parseExpression(t, "[1, , 3, ...rest]")
	arr, ok := expr.(*ast.ArrayLit)
	require.True(t, ok)
	require.Len(t, arr.Elems, 4)
	assert.True(t, arr.Elems[1].Hole)
	assert.True(t, arr.Elems[3].Spread)
}

func TestCompoundAssignment(t *testing.T) {
	fn := parseOneFunction(t, "function f() { s += 2; }")
	stmt := fn.Body.Stmts[0].(*ast.ExprStmt)
	assign, ok := stmt.X.(*ast.AssignExpr)
	require.True(t, ok)
	assert.Equal(t, "+=", assign.Op)
	_, ok = assign.Target.(*ast.Ident)
	assert.True(t, ok)
}

func TestDestructuringAssignment(t *testing.T) {
	fn := parseOneFunction(t, "function f(arr) { [a, b] = arr; }")
	stmt := fn.Body.Stmts[0].(*ast.ExprStmt)
	assign := stmt.X.(*ast.AssignExpr)

	pattern, ok := assign.Target.(*ast.ArrayPattern)
	require.True(t, ok, "array literal target becomes a pattern")
	assert.Len(t, pattern.Elems, 2)
}

func TestUnaryOperators(t *testing.T) {
	for _, op := range []string{"!", "-", "~", "typeof", "void"} {
		expr := parseExpression(t, op+" x")
		unary, ok := expr.(*ast.UnaryExpr)
		require.True(t, ok, "op %q", op)
		assert.Equal(t, op, unary.Op)
	}
}

func TestPrefixAndPostfixUpdate(t *testing.T) {
	pre := parseExpression(t, "++i")
	preUpdate := pre.(*ast.UpdateExpr)
	assert.True(t, preUpdate.Prefix)

	post := parseExpression(t, "i--")
	postUpdate := post.(*ast.UpdateExpr)
	assert.False(t, postUpdate.Prefix)
	assert.Equal(t, "--", postUpdate.Op)
}

func TestStringEscapeDecoding(t *testing.T) {
	expr := parseExpression(t, `"a\nb\t\"c\""`)
	str, ok := expr.(*ast.StringLit)
	require.True(t, ok)
	assert.Equal(t, "a\nb\t\"c\"", str.Value)
}
