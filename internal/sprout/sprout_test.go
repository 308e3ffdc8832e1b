package sprout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEntrypoint(t *testing.T) {
	source := `function add(a, b) { return a + b; }

const FIXTURE_ENTRYPOINT = {
    fn: add,
    params: [1, 2],
};

trailing();`

	entry, ok := ExtractEntrypoint(source)
	require.True(t, ok)
	assert.Contains(t, entry, "const FIXTURE_ENTRYPOINT")
	assert.Contains(t, entry, "params: [1, 2]")
	assert.NotContains(t, entry, "trailing")
}

func TestExtractEntrypointMissing(t *testing.T) {
	_, ok := ExtractEntrypoint("function f() {}")
	assert.False(t, ok)
}

func TestPrepareCompiledIncludesCacheMock(t *testing.T) {
	prepared := PrepareCompiled("function f() {}", "const FIXTURE_ENTRYPOINT = { fn: f, params: [] };")
	assert.Contains(t, prepared, "function _c(size)")
	assert.Contains(t, prepared, "FIXTURE_ENTRYPOINT")
}

func TestVerifyIdenticalCode(t *testing.T) {
	if !HostAvailable() {
		t.Skip("node not available")
	}

	code := `
function add(a, b) { return a + b; }
const FIXTURE_ENTRYPOINT = { fn: add, params: [1, 2] };
`
	result, err := Verify(code, code)
	require.NoError(t, err)
	assert.True(t, result.Passed, "identical code must pass: %+v", result)
}

func TestVerifyEquivalentCode(t *testing.T) {
	if !HostAvailable() {
		t.Skip("node not available")
	}

	original := `
function add(a, b) { return a + b; }
const FIXTURE_ENTRYPOINT = { fn: add, params: [5, 3] };
`
	compiled := `
function add(a, b) { const result = a + b; return result; }
const FIXTURE_ENTRYPOINT = { fn: add, params: [5, 3] };
`
	result, err := Verify(original, compiled)
	require.NoError(t, err)
	assert.True(t, result.Passed)
}

func TestVerifyDifferentResultsFail(t *testing.T) {
	if !HostAvailable() {
		t.Skip("node not available")
	}

	original := `
function getValue() { return 42; }
const FIXTURE_ENTRYPOINT = { fn: getValue, params: [] };
`
	wrong := `
function getValue() { return 100; }
const FIXTURE_ENTRYPOINT = { fn: getValue, params: [] };
`
	result, err := Verify(original, wrong)
	require.NoError(t, err)
	assert.False(t, result.Passed)
}
