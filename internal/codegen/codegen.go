// Package codegen prints a reactive function tree as target source text,
// materializing each scope as a cache-hit / cache-fill region backed by
// the host-provided _c(n) cache.
package codegen

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"memoc/internal/hir"
	"memoc/internal/reactive"
)

// Generate emits the source text for one function.
func Generate(fn *reactive.Function, scopes *hir.ScopeResult) string {
	g := newGenerator(scopes)
	return g.generateFunction(fn)
}

type generator struct {
	output strings.Builder
	indent int
	scopes *hir.ScopeResult

	cacheSize int
	scopeBase map[hir.ScopeID]int

	declared          map[string]bool
	declaredBaseNames map[string]bool
	params            map[string]bool
}

func newGenerator(scopes *hir.ScopeResult) *generator {
	// Dependencies occupy [base, base+D), declarations [base+D, base+D+K);
	// each scope's base is offset by the sizes of all preceding scopes.
	base := map[hir.ScopeID]int{}
	size := 0
	for _, scope := range scopes.Scopes {
		base[scope.ID] = size
		size += len(scope.Dependencies) + len(scope.Declarations)
	}
	if size < 1 {
		size = 1
	}

	return &generator{
		scopes:            scopes,
		cacheSize:         size,
		scopeBase:         base,
		declared:          map[string]bool{},
		declaredBaseNames: map[string]bool{},
		params:            map[string]bool{},
	}
}

func (g *generator) generateFunction(fn *reactive.Function) string {
	name := fn.Name
	if name == "" {
		name = "anonymous"
	}

	for _, param := range fn.Params {
		g.params[param.Name] = true
	}
	paramNames := make([]string, 0, len(fn.Params))
	for _, param := range fn.Params {
		paramNames = append(paramNames, param.Name)
	}

	fmt.Fprintf(&g.output, "function %s(%s) {\n", name, strings.Join(paramNames, ", "))
	g.indent++

	if len(g.scopes.Scopes) > 0 {
		g.writeIndent()
		fmt.Fprintf(&g.output, "const $ = _c(%d);\n", g.cacheSize)
	}

	// Hoist every non-temporary lvalue into one let list; parameters keep
	// their own binding and are excluded.
	for _, stmt := range fn.Body {
		g.collectDeclarations(stmt)
	}
	if len(g.declared) > 0 {
		names := make([]string, 0, len(g.declared))
		for decl := range g.declared {
			names = append(names, decl)
		}
		sort.Strings(names)
		g.writeIndent()
		fmt.Fprintf(&g.output, "let %s;\n", strings.Join(names, ", "))
	}

	for _, stmt := range fn.Body {
		g.generateStatement(stmt)
	}

	g.indent--
	g.output.WriteString("}\n")
	return g.output.String()
}

func (g *generator) collectDeclarations(stmt reactive.Statement) {
	switch s := stmt.(type) {
	case *reactive.Instruction:
		id := s.LValue
		if id.Temp || isReserved(id.Name) || g.params[id.Name] {
			return
		}
		name := canonicalName(id)
		if !g.declared[name] {
			g.declared[name] = true
			g.declaredBaseNames[id.Name] = true
		}
	case *reactive.Scope:
		for _, inner := range s.Body {
			g.collectDeclarations(inner)
		}
	case *reactive.If:
		for _, inner := range s.Consequent {
			g.collectDeclarations(inner)
		}
		for _, inner := range s.Alternate {
			g.collectDeclarations(inner)
		}
	case *reactive.While:
		for _, inner := range s.Body {
			g.collectDeclarations(inner)
		}
	case *reactive.Switch:
		for _, c := range s.Cases {
			for _, inner := range c.Body {
				g.collectDeclarations(inner)
			}
		}
	}
}

func (g *generator) generateStatement(stmt reactive.Statement) {
	switch s := stmt.(type) {
	case *reactive.Instruction:
		g.generateInstruction(s)

	case *reactive.Scope:
		g.generateScope(s)

	case *reactive.If:
		g.writeIndent()
		fmt.Fprintf(&g.output, "if (%s) {\n", g.identifierName(s.Test))
		g.indent++
		for _, inner := range s.Consequent {
			g.generateStatement(inner)
		}
		g.indent--
		if len(s.Alternate) > 0 {
			g.writeIndent()
			g.output.WriteString("} else {\n")
			g.indent++
			for _, inner := range s.Alternate {
				g.generateStatement(inner)
			}
			g.indent--
		}
		g.writeIndent()
		g.output.WriteString("}\n")

	case *reactive.While:
		g.writeIndent()
		fmt.Fprintf(&g.output, "while (%s) {\n", g.identifierName(s.Test))
		g.indent++
		for _, inner := range s.Body {
			g.generateStatement(inner)
		}
		g.indent--
		g.writeIndent()
		g.output.WriteString("}\n")

	case *reactive.Break:
		g.writeIndent()
		g.output.WriteString("break;\n")

	case *reactive.Continue:
		g.writeIndent()
		g.output.WriteString("continue;\n")

	case *reactive.Return:
		g.writeIndent()
		if s.Value != nil {
			fmt.Fprintf(&g.output, "return %s;\n", g.identifierName(*s.Value))
		} else {
			g.output.WriteString("return;\n")
		}

	case *reactive.Switch:
		g.writeIndent()
		fmt.Fprintf(&g.output, "switch (%s) {\n", g.identifierName(s.Test))
		g.indent++
		for _, c := range s.Cases {
			g.writeIndent()
			if c.Label != nil {
				fmt.Fprintf(&g.output, "case %s: {\n", g.identifierName(*c.Label))
			} else {
				g.output.WriteString("default: {\n")
			}
			g.indent++
			for _, inner := range c.Body {
				g.generateStatement(inner)
			}
			g.indent--
			g.writeIndent()
			g.output.WriteString("}\n")
		}
		g.indent--
		g.writeIndent()
		g.output.WriteString("}\n")
	}
}

func (g *generator) generateInstruction(instr *reactive.Instruction) {
	lvalue := g.identifierName(instr.LValue)

	// Identity copies render to nothing.
	if load, ok := instr.Value.(*reactive.LoadLocal); ok {
		if g.identifierName(load.Source) == lvalue {
			return
		}
	}

	rvalue := g.generateValue(instr.Value)
	g.writeIndent()

	switch {
	case instr.LValue.Temp || isReserved(instr.LValue.Name):
		fmt.Fprintf(&g.output, "const %s = %s;\n", lvalue, rvalue)
	case g.params[instr.LValue.Name] || g.declared[canonicalName(instr.LValue)]:
		fmt.Fprintf(&g.output, "%s = %s;\n", lvalue, rvalue)
	default:
		g.declared[canonicalName(instr.LValue)] = true
		fmt.Fprintf(&g.output, "let %s = %s;\n", lvalue, rvalue)
	}
}

// generateScope prints the cache-predication pattern: compare each
// dependency against its slot, run the body on any mismatch, write back
// dependencies then declarations, and read every declaration back out of
// the cache on all invocations.
func (g *generator) generateScope(scope *reactive.Scope) {
	if len(scope.Dependencies) == 0 && len(scope.Body) == 0 {
		return
	}

	base := g.scopeBase[scope.ID]
	depCount := len(scope.Dependencies)

	g.writeIndent()
	if depCount == 0 {
		fmt.Fprintf(&g.output, "if ($[%d] === Symbol.for(\"react.memo_cache_sentinel\")) {\n", base)
	} else {
		conditions := make([]string, 0, depCount)
		for i, dep := range scope.Dependencies {
			conditions = append(conditions, fmt.Sprintf("$[%d] !== %s", base+i, g.identifierName(dep)))
		}
		fmt.Fprintf(&g.output, "if (%s) {\n", strings.Join(conditions, " || "))
	}
	g.indent++

	for _, stmt := range scope.Body {
		g.generateStatement(stmt)
	}

	for i, dep := range scope.Dependencies {
		g.writeIndent()
		fmt.Fprintf(&g.output, "$[%d] = %s;\n", base+i, g.identifierName(dep))
	}
	for i, decl := range scope.Declarations {
		g.writeIndent()
		fmt.Fprintf(&g.output, "$[%d] = %s;\n", base+depCount+i, g.identifierName(decl))
	}

	g.indent--
	g.writeIndent()
	g.output.WriteString("}\n")

	for i, decl := range scope.Declarations {
		g.writeIndent()
		if decl.Temp || isReserved(decl.Name) {
			fmt.Fprintf(&g.output, "const %s = $[%d];\n", g.identifierName(decl), base+depCount+i)
		} else {
			fmt.Fprintf(&g.output, "%s = $[%d];\n", g.identifierName(decl), base+depCount+i)
		}
	}
}

func (g *generator) generateValue(value reactive.Value) string {
	switch v := value.(type) {
	case *reactive.Constant:
		return renderConst(v.Value)

	case *reactive.Binary:
		return fmt.Sprintf("%s %s %s", g.identifierName(v.Left), v.Op, g.identifierName(v.Right))

	case *reactive.Unary:
		switch v.Op {
		case hir.OpIsNullish:
			// x == null covers both null and undefined
			return fmt.Sprintf("(%s == null)", g.identifierName(v.Operand))
		case "typeof", "void", "delete":
			return fmt.Sprintf("%s %s", v.Op, g.identifierName(v.Operand))
		default:
			return v.Op + g.identifierName(v.Operand)
		}

	case *reactive.Call:
		args := make([]string, 0, len(v.Args))
		for _, arg := range v.Args {
			if arg.Spread {
				args = append(args, "..."+g.identifierName(arg.Value))
			} else {
				args = append(args, g.identifierName(arg.Value))
			}
		}
		return fmt.Sprintf("%s(%s)", g.identifierName(v.Callee), strings.Join(args, ", "))

	case *reactive.Object:
		props := make([]string, 0, len(v.Properties))
		for _, prop := range v.Properties {
			switch {
			case prop.Spread:
				props = append(props, "..."+g.identifierName(prop.Value))
			case prop.Computed:
				props = append(props, fmt.Sprintf("[%s]: %s", g.identifierName(prop.KeyIdent), g.identifierName(prop.Value)))
			default:
				props = append(props, fmt.Sprintf("%s: %s", prop.Key, g.identifierName(prop.Value)))
			}
		}
		return fmt.Sprintf("{ %s }", strings.Join(props, ", "))

	case *reactive.Array:
		elems := make([]string, 0, len(v.Elements))
		for _, elem := range v.Elements {
			switch elem.Kind {
			case hir.ElementHole:
				elems = append(elems, "")
			case hir.ElementSpread:
				elems = append(elems, "..."+g.identifierName(elem.Value))
			default:
				elems = append(elems, g.identifierName(elem.Value))
			}
		}
		return fmt.Sprintf("[%s]", strings.Join(elems, ", "))

	case *reactive.PropertyLoad:
		return fmt.Sprintf("%s.%s", g.identifierName(v.Object), v.Property)

	case *reactive.PropertyStore:
		return fmt.Sprintf("%s.%s = %s", g.identifierName(v.Object), v.Property, g.identifierName(v.Value))

	case *reactive.ComputedLoad:
		return fmt.Sprintf("%s[%s]", g.identifierName(v.Object), g.identifierName(v.Property))

	case *reactive.ComputedStore:
		return fmt.Sprintf("%s[%s] = %s", g.identifierName(v.Object), g.identifierName(v.Property), g.identifierName(v.Value))

	case *reactive.LoadLocal:
		return g.identifierName(v.Source)

	case *reactive.Phi:
		// Edge copies normally eliminate Φs before emission; render the
		// first operand if one leaks through.
		if len(v.Operands) > 0 {
			return g.identifierName(v.Operands[0])
		}
		return "undefined"
	}
	return "undefined"
}

func renderConst(c hir.ConstValue) string {
	switch v := c.(type) {
	case hir.IntConst:
		return strconv.FormatInt(int64(v), 10)
	case hir.FloatConst:
		f := float64(v)
		if f == float64(int64(f)) {
			return strconv.FormatInt(int64(f), 10)
		}
		return strconv.FormatFloat(f, 'g', -1, 64)
	case hir.StringConst:
		return `"` + escapeString(string(v)) + `"`
	case hir.BoolConst:
		return strconv.FormatBool(bool(v))
	case hir.NullConst:
		return "null"
	case hir.UndefinedConst:
		return "undefined"
	}
	return "undefined"
}

func escapeString(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case 0:
			sb.WriteString(`\0`)
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

func isReserved(name string) bool {
	switch name {
	case "true", "false", "null", "undefined":
		return true
	}
	return false
}

func canonicalName(id hir.Identifier) string {
	if id.Temp || isReserved(id.Name) {
		return id.Name
	}
	return fmt.Sprintf("%s_%d", id.Name, id.Version)
}

// identifierName resolves how an identifier renders: parameters by bare
// name; version 0 as the bare name (free variable) unless the name is also
// defined locally, in which case the read was uninitialized and renders as
// undefined.
func (g *generator) identifierName(id hir.Identifier) string {
	if g.params[id.Name] {
		return id.Name
	}
	if id.Temp || isReserved(id.Name) {
		return id.Name
	}
	if id.Version == 0 {
		if g.declaredBaseNames[id.Name] {
			return "undefined"
		}
		return id.Name
	}
	return canonicalName(id)
}

func (g *generator) writeIndent() {
	for i := 0; i < g.indent; i++ {
		g.output.WriteString("  ")
	}
}
