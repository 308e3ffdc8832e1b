package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"memoc/internal/errors"
)

// convertParseErrors transforms parser errors into LSP diagnostics so the
// editor can underline syntax problems as the user types.
func convertParseErrors(parseErrors []errors.CompilerError) []protocol.Diagnostic {
	var diagnostics []protocol.Diagnostic

	for _, parseErr := range parseErrors {
		line := parseErr.Position.Line - 1
		if line < 0 {
			line = 0
		}
		column := parseErr.Position.Column - 1
		if column < 0 {
			column = 0
		}
		length := parseErr.Length
		if length < 1 {
			length = 1
		}

		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: uint32(line), Character: uint32(column)},
				End:   protocol.Position{Line: uint32(line), Character: uint32(column + length)},
			},
			Severity: ptrSeverity(protocol.DiagnosticSeverityError),
			Source:   ptrString("memoc"),
			Message:  parseErr.Message,
		})
	}

	return diagnostics
}

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

func ptrString(s string) *string {
	return &s
}
