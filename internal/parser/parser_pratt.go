package parser

import (
	"fmt"
	"strconv"
	"strings"

	"memoc/internal/ast"
	"memoc/internal/errors"
)

var binaryPrecedence = map[string]int{
	"??": 1,
	"||": 2,
	"&&": 3,
	"|":  4,
	"^":  5,
	"&":  6,
	"==": 7, "!=": 7, "===": 7, "!==": 7,
	"<": 8, "<=": 8, ">": 8, ">=": 8, "instanceof": 8, "in": 8,
	"<<": 9, ">>": 9, ">>>": 9,
	"+": 10, "-": 10,
	"*": 11, "/": 11, "%": 11,
}

var assignOperators = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"&=": true, "|=": true, "^=": true, "<<=": true, ">>=": true, ">>>=": true,
}

func isLogicalOp(op string) bool {
	return op == "&&" || op == "||" || op == "??"
}

func (p *Parser) parseExpr() ast.Expr {
	return p.parseAssignExpr()
}

func (p *Parser) parseAssignExpr() ast.Expr {
	left := p.parseConditional()

	op := p.peek().Value
	if !assignOperators[op] {
		return left
	}
	opTok := p.advance()

	target := p.toAssignTarget(left)
	if target == nil {
		p.errorAt(opTok, "invalid assignment target")
		target = left
	}
	if op != "=" {
		switch target.(type) {
		case *ast.ObjectPattern, *ast.ArrayPattern:
			p.errors = append(p.errors, errors.NewUnsupported(
				"compound assignment to destructuring target", positionFrom(opTok.Pos)))
		}
	}

	value := p.parseAssignExpr()
	return &ast.AssignExpr{Pos: left.NodePos(), Op: op, Target: target, Value: value}
}

// toAssignTarget reinterprets an already-parsed expression as an assignment
// target. Object and array literals become destructuring patterns.
func (p *Parser) toAssignTarget(expr ast.Expr) ast.Node {
	switch e := expr.(type) {
	case *ast.Ident, *ast.MemberExpr:
		return e
	case *ast.ObjectLit:
		pattern := &ast.ObjectPattern{Pos: e.Pos}
		for _, prop := range e.Props {
			if prop.Spread || prop.Computed {
				return nil
			}
			binding := p.toAssignTarget(prop.Value)
			if binding == nil {
				return nil
			}
			pattern.Props = append(pattern.Props, ast.ObjectPatternProp{Key: prop.Key, Binding: binding})
		}
		return pattern
	case *ast.ArrayLit:
		pattern := &ast.ArrayPattern{Pos: e.Pos}
		for _, elem := range e.Elems {
			if elem.Spread {
				return nil
			}
			if elem.Hole {
				pattern.Elems = append(pattern.Elems, nil)
				continue
			}
			binding := p.toAssignTarget(elem.Value)
			if binding == nil {
				return nil
			}
			pattern.Elems = append(pattern.Elems, binding)
		}
		return pattern
	default:
		return nil
	}
}

func (p *Parser) parseConditional() ast.Expr {
	test := p.parsePrattExpr(1)
	if !p.match("?") {
		return test
	}
	consequent := p.parseAssignExpr()
	p.expect(":")
	alternate := p.parseAssignExpr()
	return &ast.ConditionalExpr{Pos: test.NodePos(), Test: test, Consequent: consequent, Alternate: alternate}
}

func (p *Parser) parsePrattExpr(minPrec int) ast.Expr {
	expr := p.parseUnary()

	for {
		tok := p.peek()
		prec, ok := binaryPrecedence[tok.Value]
		if !ok || prec < minPrec {
			break
		}
		// instanceof/in are identifier tokens; everything else is an operator
		p.advance()
		right := p.parsePrattExpr(prec + 1)

		if isLogicalOp(tok.Value) {
			expr = &ast.LogicalExpr{Pos: expr.NodePos(), Op: tok.Value, Left: expr, Right: right}
		} else {
			expr = &ast.BinaryExpr{Pos: expr.NodePos(), Op: tok.Value, Left: expr, Right: right}
		}
	}

	return expr
}

func (p *Parser) parseUnary() ast.Expr {
	pos := p.tokenPos()

	switch {
	case p.at("!"), p.at("-"), p.at("+"), p.at("~"):
		op := p.advance().Value
		return &ast.UnaryExpr{Pos: pos, Op: op, Operand: p.parseUnary()}
	case p.atKeyword("typeof"), p.atKeyword("void"), p.atKeyword("delete"):
		op := p.advance().Value
		return &ast.UnaryExpr{Pos: pos, Op: op, Operand: p.parseUnary()}
	case p.at("++"), p.at("--"):
		op := p.advance().Value
		return &ast.UpdateExpr{Pos: pos, Op: op, Prefix: true, Target: p.parseUnary()}
	}

	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Expr {
	expr := p.parsePrimary()

	for {
		switch {
		case p.at("."):
			p.advance()
			name, ok := p.expectIdent()
			if !ok {
				return expr
			}
			expr = &ast.MemberExpr{Pos: expr.NodePos(), Object: expr, Property: name}
		case p.at("["):
			p.advance()
			prop := p.parseExpr()
			p.expect("]")
			expr = &ast.MemberExpr{Pos: expr.NodePos(), Object: expr, Computed: true, PropExpr: prop}
		case p.at("("):
			p.advance()
			call := &ast.CallExpr{Pos: expr.NodePos(), Callee: expr}
			for !p.at(")") && !p.isAtEnd() {
				arg := ast.Argument{}
				if p.match("...") {
					arg.Spread = true
				}
				arg.Value = p.parseAssignExpr()
				call.Args = append(call.Args, arg)
				if !p.match(",") {
					break
				}
			}
			p.expect(")")
			expr = call
		case p.at("++"), p.at("--"):
			op := p.advance().Value
			expr = &ast.UpdateExpr{Pos: expr.NodePos(), Op: op, Prefix: false, Target: expr}
		default:
			return expr
		}
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	pos := p.tokenPos()

	switch {
	case p.atType("Number"):
		tok := p.advance()
		value, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			p.errorAt(tok, fmt.Sprintf("invalid number literal %q", tok.Value))
		}
		return &ast.NumberLit{Pos: pos, Value: value, Raw: tok.Value}

	case p.atType("String"):
		tok := p.advance()
		return &ast.StringLit{Pos: pos, Value: decodeString(tok.Value)}

	case p.atKeyword("true"):
		p.advance()
		return &ast.BoolLit{Pos: pos, Value: true}

	case p.atKeyword("false"):
		p.advance()
		return &ast.BoolLit{Pos: pos, Value: false}

	case p.atKeyword("null"):
		p.advance()
		return &ast.NullLit{Pos: pos}

	case p.atType("Ident"):
		tok := p.advance()
		return &ast.Ident{Pos: pos, Name: tok.Value}

	case p.at("("):
		p.advance()
		expr := p.parseExpr()
		p.expect(")")
		return expr

	case p.at("["):
		return p.parseArrayLit()

	case p.at("{"):
		return p.parseObjectLit()
	}

	p.errorAt(p.peek(), fmt.Sprintf("unexpected token %q in expression", p.peek().Value))
	return &ast.NullLit{Pos: pos}
}

func (p *Parser) parseArrayLit() ast.Expr {
	pos := p.tokenPos()
	p.expect("[")

	lit := &ast.ArrayLit{Pos: pos}
	for !p.at("]") && !p.isAtEnd() {
		if p.at(",") {
			lit.Elems = append(lit.Elems, ast.ArrayElem{Hole: true})
			p.advance()
			continue
		}
		elem := ast.ArrayElem{}
		if p.match("...") {
			elem.Spread = true
		}
		elem.Value = p.parseAssignExpr()
		lit.Elems = append(lit.Elems, elem)
		if !p.match(",") {
			break
		}
	}
	p.expect("]")
	return lit
}

func (p *Parser) parseObjectLit() ast.Expr {
	pos := p.tokenPos()
	p.expect("{")

	lit := &ast.ObjectLit{Pos: pos}
	for !p.at("}") && !p.isAtEnd() {
		prop := ast.ObjectProp{}

		switch {
		case p.match("..."):
			prop.Spread = true
			prop.Value = p.parseAssignExpr()

		case p.at("["):
			p.advance()
			prop.Computed = true
			prop.KeyExpr = p.parseExpr()
			p.expect("]")
			p.expect(":")
			prop.Value = p.parseAssignExpr()

		case p.atType("String"):
			tok := p.advance()
			prop.Key = decodeString(tok.Value)
			p.expect(":")
			prop.Value = p.parseAssignExpr()

		case p.atType("Number"):
			tok := p.advance()
			prop.Key = tok.Value
			p.expect(":")
			prop.Value = p.parseAssignExpr()

		default:
			key, ok := p.expectIdent()
			if !ok {
				p.synchronize()
				return lit
			}
			prop.Key = key
			if p.match(":") {
				prop.Value = p.parseAssignExpr()
			} else {
				// Shorthand property: { a } means { a: a }
				prop.Value = &ast.Ident{Pos: p.previousPos(), Name: key}
			}
		}

		lit.Props = append(lit.Props, prop)
		if !p.match(",") {
			break
		}
	}
	p.expect("}")
	return lit
}

// decodeString strips the quotes from a string token and resolves the
// escape sequences the emitter knows how to re-encode.
func decodeString(raw string) string {
	if len(raw) < 2 {
		return raw
	}
	body := raw[1 : len(raw)-1]

	var sb strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 >= len(body) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch body[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '0':
			sb.WriteByte(0)
		case '\\':
			sb.WriteByte('\\')
		case '"':
			sb.WriteByte('"')
		case '\'':
			sb.WriteByte('\'')
		default:
			sb.WriteByte(body[i])
		}
	}
	return sb.String()
}
