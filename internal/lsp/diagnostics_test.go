package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"memoc/internal/ast"
	"memoc/internal/errors"
	"memoc/internal/parser"
)

func TestConvertParseErrorsPositionsAreZeroBased(t *testing.T) {
	diags := convertParseErrors([]errors.CompilerError{
		errors.NewParse("unexpected token", ast.Position{Line: 3, Column: 5}),
	})

	require.Len(t, diags, 1)
	assert.Equal(t, uint32(2), diags[0].Range.Start.Line)
	assert.Equal(t, uint32(4), diags[0].Range.Start.Character)
	assert.Equal(t, protocol.DiagnosticSeverityError, *diags[0].Severity)
	assert.Equal(t, "memoc", *diags[0].Source)
}

func TestConvertParseErrorsFromRealParse(t *testing.T) {
	_, parseErrors := parser.ParseSource("broken.js", "function f( {")
	require.NotEmpty(t, parseErrors)

	diags := convertParseErrors(parseErrors)
	assert.Len(t, diags, len(parseErrors))
	for _, diag := range diags {
		assert.NotEmpty(t, diag.Message)
	}
}

func TestConvertParseErrorsEmpty(t *testing.T) {
	assert.Empty(t, convertParseErrors(nil))
}
