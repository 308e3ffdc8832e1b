package parser

import (
	"fmt"

	"memoc/internal/ast"
)

func (p *Parser) parseFunction() *ast.Function {
	pos := p.tokenPos()
	p.expect("function")

	name, ok := p.expectIdent()
	if !ok {
		p.synchronize()
		return nil
	}

	fn := &ast.Function{Pos: pos, Name: name}

	p.expect("(")
	for !p.at(")") && !p.isAtEnd() {
		fn.Params = append(fn.Params, p.parseParam())
		if !p.match(",") {
			break
		}
	}
	p.expect(")")

	fn.Body = p.parseBlock()
	return fn
}

func (p *Parser) parseParam() ast.Param {
	if p.at("{") || p.at("[") {
		pattern := p.parseBindingPattern()
		return ast.Param{Pattern: pattern}
	}
	name, _ := p.expectIdent()
	return ast.Param{Name: name}
}

// parseBindingPattern parses an object or array destructuring pattern in
// binding position (declarations and parameters).
func (p *Parser) parseBindingPattern() ast.Pattern {
	pos := p.tokenPos()

	if p.match("{") {
		pattern := &ast.ObjectPattern{Pos: pos}
		for !p.at("}") && !p.isAtEnd() {
			key, ok := p.expectIdent()
			if !ok {
				break
			}
			prop := ast.ObjectPatternProp{Key: key}
			if p.match(":") {
				if p.at("{") || p.at("[") {
					prop.Binding = p.parseBindingPattern()
				} else {
					name, _ := p.expectIdent()
					prop.Binding = &ast.Ident{Pos: p.previousPos(), Name: name}
				}
			} else {
				prop.Binding = &ast.Ident{Pos: p.previousPos(), Name: key}
			}
			pattern.Props = append(pattern.Props, prop)
			if !p.match(",") {
				break
			}
		}
		p.expect("}")
		return pattern
	}

	p.expect("[")
	pattern := &ast.ArrayPattern{Pos: pos}
	for !p.at("]") && !p.isAtEnd() {
		if p.at(",") {
			pattern.Elems = append(pattern.Elems, nil)
			p.advance()
			continue
		}
		if p.at("{") || p.at("[") {
			pattern.Elems = append(pattern.Elems, p.parseBindingPattern())
		} else {
			name, ok := p.expectIdent()
			if !ok {
				break
			}
			pattern.Elems = append(pattern.Elems, &ast.Ident{Pos: p.previousPos(), Name: name})
		}
		if !p.match(",") {
			break
		}
	}
	p.expect("]")
	return pattern
}

func (p *Parser) previousPos() ast.Position {
	return positionFrom(p.previous().Pos)
}

func (p *Parser) parseBlock() *ast.BlockStmt {
	pos := p.tokenPos()
	p.expect("{")
	block := &ast.BlockStmt{Pos: pos}
	for !p.at("}") && !p.isAtEnd() {
		before := p.current
		if stmt := p.parseStatement(); stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
		if p.current == before {
			p.errorAt(p.peek(), fmt.Sprintf("unexpected token %q", p.peek().Value))
			p.advance()
		}
	}
	p.expect("}")
	return block
}

func (p *Parser) parseStatement() ast.Stmt {
	switch {
	case p.at("{"):
		return p.parseBlock()
	case p.atKeyword("let"), p.atKeyword("const"), p.atKeyword("var"):
		return p.parseVarDecl()
	case p.atKeyword("return"):
		return p.parseReturn()
	case p.atKeyword("if"):
		return p.parseIf()
	case p.atKeyword("while"):
		return p.parseWhile()
	case p.atKeyword("for"):
		return p.parseFor()
	case p.atKeyword("break"):
		pos := p.tokenPos()
		p.advance()
		p.match(";")
		return &ast.BreakStmt{Pos: pos}
	case p.atKeyword("continue"):
		pos := p.tokenPos()
		p.advance()
		p.match(";")
		return &ast.ContinueStmt{Pos: pos}
	case p.atKeyword("switch"):
		return p.parseSwitch()
	case p.at(";"):
		p.advance()
		return nil
	default:
		return p.parseExprStatement()
	}
}

func (p *Parser) parseVarDecl() ast.Stmt {
	pos := p.tokenPos()
	kind := p.advance().Value

	decl := &ast.VarDecl{Pos: pos, Kind: kind}
	for {
		var target ast.Node
		if p.at("{") || p.at("[") {
			target = p.parseBindingPattern()
		} else {
			name, ok := p.expectIdent()
			if !ok {
				p.synchronize()
				return decl
			}
			target = &ast.Ident{Pos: p.previousPos(), Name: name}
		}

		d := ast.Declarator{Target: target}
		if p.match("=") {
			d.Init = p.parseAssignExpr()
		}
		decl.Decls = append(decl.Decls, d)

		if !p.match(",") {
			break
		}
	}
	p.match(";")
	return decl
}

func (p *Parser) parseReturn() ast.Stmt {
	pos := p.tokenPos()
	p.advance()

	stmt := &ast.ReturnStmt{Pos: pos}
	if !p.at(";") && !p.at("}") && !p.isAtEnd() {
		stmt.Value = p.parseExpr()
	}
	p.match(";")
	return stmt
}

func (p *Parser) parseIf() ast.Stmt {
	pos := p.tokenPos()
	p.advance()
	p.expect("(")
	test := p.parseExpr()
	p.expect(")")

	consequent := p.parseStatement()
	stmt := &ast.IfStmt{Pos: pos, Test: test, Consequent: consequent}
	if p.matchKeyword("else") {
		stmt.Alternate = p.parseStatement()
	}
	return stmt
}

func (p *Parser) parseWhile() ast.Stmt {
	pos := p.tokenPos()
	p.advance()
	p.expect("(")
	test := p.parseExpr()
	p.expect(")")
	body := p.parseStatement()
	return &ast.WhileStmt{Pos: pos, Test: test, Body: body}
}

func (p *Parser) parseFor() ast.Stmt {
	pos := p.tokenPos()
	p.advance()
	p.expect("(")

	stmt := &ast.ForStmt{Pos: pos}

	// Init clause (consumes its own semicolon when it is a declaration).
	if p.at(";") {
		p.advance()
	} else if p.atKeyword("let") || p.atKeyword("const") || p.atKeyword("var") {
		stmt.Init = p.parseVarDecl()
	} else {
		init := p.parseSequence()
		stmt.Init = &ast.ExprStmt{Pos: init.NodePos(), X: init}
		p.expect(";")
	}

	if !p.at(";") {
		stmt.Test = p.parseExpr()
	}
	p.expect(";")

	if !p.at(")") {
		stmt.Update = p.parseSequence()
	}
	p.expect(")")

	stmt.Body = p.parseStatement()
	return stmt
}

func (p *Parser) parseSwitch() ast.Stmt {
	pos := p.tokenPos()
	p.advance()
	p.expect("(")
	discriminant := p.parseExpr()
	p.expect(")")
	p.expect("{")

	stmt := &ast.SwitchStmt{Pos: pos, Discriminant: discriminant}
	for !p.at("}") && !p.isAtEnd() {
		var c ast.SwitchCase
		if p.matchKeyword("case") {
			c.Test = p.parseExpr()
			p.expect(":")
		} else if p.matchKeyword("default") {
			p.expect(":")
		} else {
			p.errorAt(p.peek(), fmt.Sprintf("expected case or default, found %q", p.peek().Value))
			p.synchronize()
			break
		}

		for !p.at("}") && !p.atKeyword("case") && !p.atKeyword("default") && !p.isAtEnd() {
			before := p.current
			if s := p.parseStatement(); s != nil {
				c.Body = append(c.Body, s)
			}
			if p.current == before {
				p.advance()
			}
		}
		stmt.Cases = append(stmt.Cases, c)
	}
	p.expect("}")
	return stmt
}

func (p *Parser) parseExprStatement() ast.Stmt {
	pos := p.tokenPos()
	expr := p.parseExpr()
	if expr == nil {
		p.synchronize()
		return nil
	}
	p.match(";")
	return &ast.ExprStmt{Pos: pos, X: expr}
}

// parseSequence parses comma-joined expressions (for-loop clauses only).
func (p *Parser) parseSequence() ast.Expr {
	first := p.parseAssignExpr()
	if !p.at(",") {
		return first
	}
	seq := &ast.SequenceExpr{Pos: first.NodePos(), Exprs: []ast.Expr{first}}
	for p.match(",") {
		seq.Exprs = append(seq.Exprs, p.parseAssignExpr())
	}
	return seq
}
