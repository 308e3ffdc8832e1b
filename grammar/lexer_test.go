package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenValues(t *testing.T, source string) []string {
	t.Helper()
	tokens, err := Tokenize("test.js", source)
	require.NoError(t, err)

	var values []string
	for _, tok := range tokens {
		if tok.EOF() {
			break
		}
		values = append(values, tok.Value)
	}
	return values
}

func TestTokenizeSimpleFunction(t *testing.T) {
	values := tokenValues(t, "function f(x) { return x + 1; }")
	assert.Equal(t, []string{"function", "f", "(", "x", ")", "{", "return", "x", "+", "1", ";", "}"}, values)
}

func TestTokenizeMultiCharOperators(t *testing.T) {
	values := tokenValues(t, "a === b !== c ?? d && e || f >>> g")
	assert.Contains(t, values, "===")
	assert.Contains(t, values, "!==")
	assert.Contains(t, values, "??")
	assert.Contains(t, values, "&&")
	assert.Contains(t, values, "||")
	assert.Contains(t, values, ">>>")
}

func TestTokenizeUpdateAndSpread(t *testing.T) {
	values := tokenValues(t, "i++; --j; f(...rest)")
	assert.Contains(t, values, "++")
	assert.Contains(t, values, "--")
	assert.Contains(t, values, "...")
}

func TestTokenizeStringsWithEscapes(t *testing.T) {
	values := tokenValues(t, `let s = "he said \"hi\"\n";`)
	assert.Contains(t, values, `"he said \"hi\"\n"`)

	values = tokenValues(t, `let s = 'single';`)
	assert.Contains(t, values, `'single'`)
}

func TestTokenizeElidesCommentsAndWhitespace(t *testing.T) {
	values := tokenValues(t, "// line comment\nlet /* inline */ x = 1;")
	assert.Equal(t, []string{"let", "x", "=", "1", ";"}, values)
}

func TestTokenizeNumbers(t *testing.T) {
	values := tokenValues(t, "1 2.5 1e3 1.5e-2")
	assert.Equal(t, []string{"1", "2.5", "1e3", "1.5e-2"}, values)
}

func TestTokenTypes(t *testing.T) {
	tokens, err := Tokenize("test.js", `name "str" 42`)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(tokens), 3)

	assert.Equal(t, Symbol("Ident"), tokens[0].Type)
	assert.Equal(t, Symbol("String"), tokens[1].Type)
	assert.Equal(t, Symbol("Number"), tokens[2].Type)
}
