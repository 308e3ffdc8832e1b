package errors

import (
	"fmt"

	"memoc/internal/ast"
)

// Kind classifies compiler errors by the stage that produced them.
type Kind string

const (
	// Parse errors come from the surface parser and abort the whole
	// compilation.
	Parse Kind = "parse"

	// Lowering errors mark AST nodes the lowerer does not recognise. They
	// are logged and the defective region becomes a dead temporary.
	Lowering Kind = "lowering"

	// UnsupportedSyntax marks recognised constructs that are deliberately
	// rejected.
	UnsupportedSyntax Kind = "unsupported"

	// IO errors only occur at the periphery (file reading), never inside
	// the core pipeline.
	IO Kind = "io"
)

// CompilerError is a structured error with a kind and source position.
type CompilerError struct {
	Kind     Kind
	Message  string
	Position ast.Position
	Length   int
}

func (e CompilerError) Error() string {
	if e.Position.Line > 0 {
		return fmt.Sprintf("%s error at %d:%d: %s", e.Kind, e.Position.Line, e.Position.Column, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// NewParse builds a parse error at the given position.
func NewParse(message string, pos ast.Position) CompilerError {
	return CompilerError{Kind: Parse, Message: message, Position: pos}
}

// NewLowering builds a contained lowering error.
func NewLowering(message string, pos ast.Position) CompilerError {
	return CompilerError{Kind: Lowering, Message: message, Position: pos}
}

// NewUnsupported builds an error for recognised but rejected syntax.
func NewUnsupported(syntax string, pos ast.Position) CompilerError {
	return CompilerError{Kind: UnsupportedSyntax, Message: fmt.Sprintf("unsupported syntax: %s", syntax), Position: pos}
}
