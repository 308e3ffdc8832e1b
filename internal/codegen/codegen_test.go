package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memoc/internal/hir"
	"memoc/internal/parser"
	"memoc/internal/reactive"
)

func compileFunction(t *testing.T, source string) string {
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
	tree := reactive.Build(ssa, sched, scopes)
	return Generate(tree, scopes)
}

func TestGenerateStraightLine(t *testing.T) {
	output := compileFunction(t, "function add(a, b) { return a + b; }")

	expected := `function add(a, b) {
  const t0 = a;
  const t1 = b;
  const t2 = t0 + t1;
  return t2;
}
`
	assert.Equal(t, expected, output)
}

func TestGenerateNoCacheWithoutScopes(t *testing.T) {
	output := compileFunction(t, "function add(a, b) { return a + b; }")
	assert.NotContains(t, output, "_c(")
}

func TestGenerateCacheCallAndSize(t *testing.T) {
	output := compileFunction(t, "function f(a) { let x = a + 1; return x; }")

	// One cache init; size is the sum of |deps| + |decls| over scopes.
	assert.Equal(t, 1, strings.Count(output, "_c("))
	assert.Contains(t, output, "const $ = _c(")
}

func TestGenerateScopePattern(t *testing.T) {
	output := compileFunction(t, "function f(a) { let x = a + 1; return x; }")

	assert.Contains(t, output, "if ($[0] !== ", "dependency comparison guards the scope")
	assert.Contains(t, output, "$[0] = ", "dependencies are written back")
	assert.Regexp(t, `x_1 = \$\[\d+\];`, output, "declarations are read back from the cache")
}

func TestGenerateSentinelGuardWithoutDeps(t *testing.T) {
	output := compileFunction(t, "function k() { let x = 1; return x; }")
	assert.Contains(t, output, `Symbol.for("react.memo_cache_sentinel")`)
}

func TestGenerateHoistsUserVariables(t *testing.T) {
	output := compileFunction(t, "function f(c) { let x = 0; if (c) { x = 1; } return x; }")

	lines := strings.Split(output, "\n")
	var letLine string
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "let ") {
			letLine = strings.TrimSpace(line)
			break
		}
	}
	require.NotEmpty(t, letLine, "hoisted let list exists")
	assert.Contains(t, letLine, "x_1")
	assert.NotContains(t, letLine, "c", "parameters are never hoisted")
	assert.Equal(t, 1, strings.Count(output, "let "), "exactly one hoisted let declaration")
}

func TestGenerateParamsKeepNamesAndOrder(t *testing.T) {
	output := compileFunction(t, "function f(beta, alpha) { return beta - alpha; }")
	assert.Contains(t, output, "function f(beta, alpha) {")
}

func TestGenerateAnonymousName(t *testing.T) {
	tree := &reactive.Function{Name: ""}
	output := Generate(tree, &hir.ScopeResult{})
	assert.Contains(t, output, "function anonymous() {")
}

func TestGenerateNumberFormatting(t *testing.T) {
	output := compileFunction(t, "function f() { return 3; }")
	assert.Contains(t, output, "= 3;")
	assert.NotContains(t, output, "= 3.0;")

	output = compileFunction(t, "function f() { return 2.5; }")
	assert.Contains(t, output, "= 2.5;")
}

func TestGenerateStringEscaping(t *testing.T) {
	output := compileFunction(t, `function f() { return "a\nb\"c"; }`)
	assert.Contains(t, output, `"a\nb\"c"`)
}

func TestGenerateNullishRendersAsEqNull(t *testing.T) {
	output := compileFunction(t, "function nullish(x) { return x ?? 7; }")
	assert.Contains(t, output, "== null)")
}

func TestGenerateSkipsIdentityCopies(t *testing.T) {
	output := compileFunction(t, "function nullish(x) { return x ?? 7; }")
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if eq := strings.Index(trimmed, " = "); eq > 0 && strings.HasSuffix(trimmed, ";") {
			lhs := strings.TrimPrefix(trimmed[:eq], "const ")
			rhs := strings.TrimSuffix(trimmed[eq+3:], ";")
			assert.NotEqual(t, lhs, rhs, "identity copy leaked: %s", trimmed)
		}
	}
}

func TestGenerateExternalCallKeepsBareName(t *testing.T) {
	output := compileFunction(t, "function f(x) { return compute(x); }")
	assert.Contains(t, output, "= compute;")
}

func TestGenerateUninitializedReadRendersUndefined(t *testing.T) {
	output := compileFunction(t, "function f(c) { let y = x; let x = 1; return y; }")
	assert.Contains(t, output, "undefined")
}

func TestGenerateSwitchStructure(t *testing.T) {
	output := compileFunction(t, `function f(x) {
		switch (x) {
			case 1: return 10;
			default: return 30;
		}
	}`)

	assert.Contains(t, output, "switch (")
	assert.Contains(t, output, "case ")
	assert.Contains(t, output, "default: {")
}

func TestGenerateWordUnaryOperators(t *testing.T) {
	output := compileFunction(t, "function f(x) { return typeof x; }")
	assert.Contains(t, output, "typeof t0")
}
