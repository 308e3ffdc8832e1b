package parser

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"

	"memoc/grammar"
	"memoc/internal/ast"
	"memoc/internal/errors"
)

// Parser is a recursive-descent parser over the grammar lexer's token
// stream. It collects errors instead of stopping at the first one so a
// single pass can report every syntax problem in a file.
type Parser struct {
	tokens  []lexer.Token
	current int
	errors  []errors.CompilerError
}

// ParseSource parses a module. The returned error list is non-empty when
// the source had syntax problems; the module still contains everything that
// parsed cleanly.
func ParseSource(filename, source string) (*ast.Module, []errors.CompilerError) {
	tokens, err := grammar.Tokenize(filename, source)
	if err != nil {
		pos := ast.Position{Line: 1, Column: 1}
		if lexErr, ok := err.(participleError); ok {
			pos = positionFrom(lexErr.Position())
		}
		return &ast.Module{}, []errors.CompilerError{errors.NewParse(err.Error(), pos)}
	}

	p := &Parser{tokens: tokens}
	module := p.parseModule()
	return module, p.errors
}

// participleError matches the position-carrying error interface of
// participle lexer errors.
type participleError interface {
	Position() lexer.Position
}

func positionFrom(pos lexer.Position) ast.Position {
	return ast.Position{Line: pos.Line, Column: pos.Column, Offset: pos.Offset}
}

func (p *Parser) parseModule() *ast.Module {
	module := &ast.Module{}

	for !p.isAtEnd() {
		if p.atKeyword("function") {
			if fn := p.parseFunction(); fn != nil {
				module.Functions = append(module.Functions, fn)
			}
			continue
		}
		// Other top-level statements are parsed for error reporting only.
		before := p.current
		p.parseStatement()
		if p.current == before {
			// Could not make progress; skip the offending token.
			p.errorAt(p.peek(), fmt.Sprintf("unexpected token %q", p.peek().Value))
			p.advance()
		}
	}

	return module
}

// Token helpers

func (p *Parser) peek() lexer.Token {
	return p.tokens[p.current]
}

func (p *Parser) previous() lexer.Token {
	if p.current == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.current-1]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().EOF()
}

func (p *Parser) advance() lexer.Token {
	tok := p.peek()
	if !p.isAtEnd() {
		p.current++
	}
	return tok
}

// at reports whether the current token's text matches value.
func (p *Parser) at(value string) bool {
	return !p.isAtEnd() && p.peek().Value == value
}

// atKeyword is like at but additionally requires an identifier token, so
// string literals can never masquerade as keywords.
func (p *Parser) atKeyword(kw string) bool {
	tok := p.peek()
	return tok.Type == grammar.Symbol("Ident") && tok.Value == kw
}

func (p *Parser) atType(name string) bool {
	return p.peek().Type == grammar.Symbol(name)
}

func (p *Parser) match(value string) bool {
	if p.at(value) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) matchKeyword(kw string) bool {
	if p.atKeyword(kw) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(value string) lexer.Token {
	if p.at(value) {
		return p.advance()
	}
	p.errorAt(p.peek(), fmt.Sprintf("expected %q, found %q", value, p.peek().Value))
	return p.peek()
}

func (p *Parser) expectIdent() (string, bool) {
	if p.atType("Ident") {
		return p.advance().Value, true
	}
	p.errorAt(p.peek(), fmt.Sprintf("expected identifier, found %q", p.peek().Value))
	return "", false
}

func (p *Parser) errorAt(tok lexer.Token, message string) {
	p.errors = append(p.errors, errors.NewParse(message, positionFrom(tok.Pos)))
}

func (p *Parser) tokenPos() ast.Position {
	return positionFrom(p.peek().Pos)
}

// synchronize skips tokens until a statement boundary so one syntax error
// does not cascade through the rest of the file.
func (p *Parser) synchronize() {
	for !p.isAtEnd() {
		if p.match(";") {
			return
		}
		if p.at("}") || p.atKeyword("function") {
			return
		}
		p.advance()
	}
}
