package hir

import (
	"fmt"
	"strconv"
	"strings"
)

// Printer pretty-prints an HIR function for debug dumps. The format is
// not guaranteed to be stable.
type Printer struct {
	output strings.Builder
}

// Print returns a textual dump of the function.
func Print(f *HIRFunction) string {
	p := &Printer{}
	p.printFunction(f)
	return p.output.String()
}

func (p *Printer) printFunction(f *HIRFunction) {
	params := make([]string, 0, len(f.Params))
	for _, param := range f.Params {
		params = append(params, param.Name)
	}
	name := f.Name
	if name == "" {
		name = "anonymous"
	}
	p.writeLine("function %s(%s)", name, strings.Join(params, ", "))

	for _, id := range f.BlockIDs() {
		block := f.Blocks[id]
		header := fmt.Sprintf("bb%d:", id)
		if f.LoopHeaders[id] {
			header += " (loop header)"
		}
		if len(block.Preds) > 0 {
			preds := make([]string, 0, len(block.Preds))
			for _, pred := range block.Preds {
				preds = append(preds, fmt.Sprintf("bb%d", pred))
			}
			header += " preds=[" + strings.Join(preds, ", ") + "]"
		}
		p.writeLine("%s", header)

		for _, instr := range block.Instructions {
			p.writeLine("  %s = %s", FormatIdentifier(instr.LValue.Identifier), formatValue(instr.Value))
		}
		p.writeLine("  %s", formatTerminal(block.Terminal))
	}
}

func (p *Printer) writeLine(format string, args ...interface{}) {
	p.output.WriteString(fmt.Sprintf(format, args...))
	p.output.WriteString("\n")
}

// FormatIdentifier renders name@version for dump output.
func FormatIdentifier(id Identifier) string {
	return fmt.Sprintf("%s@%d", id.Name, id.Version)
}

func formatPlace(place Place) string {
	return FormatIdentifier(place.Identifier)
}

// FormatConst renders a constant the way the emitter would.
func FormatConst(c ConstValue) string {
	switch v := c.(type) {
	case IntConst:
		return strconv.FormatInt(int64(v), 10)
	case FloatConst:
		if v == FloatConst(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(float64(v), 'g', -1, 64)
	case StringConst:
		return fmt.Sprintf("%q", string(v))
	case BoolConst:
		return strconv.FormatBool(bool(v))
	case NullConst:
		return "null"
	case UndefinedConst:
		return "undefined"
	}
	return "?"
}

func formatValue(value InstructionValue) string {
	switch v := value.(type) {
	case *Constant:
		return "Const " + FormatConst(v.Value)
	case *BinaryOp:
		return fmt.Sprintf("Binary %s %s %s", formatPlace(v.Left), v.Op, formatPlace(v.Right))
	case *UnaryOp:
		return fmt.Sprintf("Unary %s %s", v.Op, formatPlace(v.Operand))
	case *Call:
		args := make([]string, 0, len(v.Args))
		for _, arg := range v.Args {
			if arg.Spread {
				args = append(args, "..."+formatPlace(arg.Value))
			} else {
				args = append(args, formatPlace(arg.Value))
			}
		}
		return fmt.Sprintf("Call %s(%s)", formatPlace(v.Callee), strings.Join(args, ", "))
	case *Object:
		props := make([]string, 0, len(v.Properties))
		for _, prop := range v.Properties {
			switch {
			case prop.Spread:
				props = append(props, "..."+formatPlace(prop.Value))
			case prop.Computed:
				props = append(props, fmt.Sprintf("[%s]: %s", formatPlace(prop.KeyPlace), formatPlace(prop.Value)))
			default:
				props = append(props, fmt.Sprintf("%s: %s", prop.Key, formatPlace(prop.Value)))
			}
		}
		return fmt.Sprintf("Object {%s}", strings.Join(props, ", "))
	case *Array:
		elems := make([]string, 0, len(v.Elements))
		for _, elem := range v.Elements {
			switch elem.Kind {
			case ElementHole:
				elems = append(elems, "<hole>")
			case ElementSpread:
				elems = append(elems, "..."+formatPlace(elem.Value))
			default:
				elems = append(elems, formatPlace(elem.Value))
			}
		}
		return fmt.Sprintf("Array [%s]", strings.Join(elems, ", "))
	case *PropertyLoad:
		return fmt.Sprintf("PropertyLoad %s.%s", formatPlace(v.Object), v.Property)
	case *PropertyStore:
		return fmt.Sprintf("PropertyStore %s.%s = %s", formatPlace(v.Object), v.Property, formatPlace(v.Value))
	case *ComputedLoad:
		return fmt.Sprintf("ComputedLoad %s[%s]", formatPlace(v.Object), formatPlace(v.Property))
	case *ComputedStore:
		return fmt.Sprintf("ComputedStore %s[%s] = %s", formatPlace(v.Object), formatPlace(v.Property), formatPlace(v.Value))
	case *LoadLocal:
		return "LoadLocal " + formatPlace(v.Source)
	case *StoreLocal:
		return fmt.Sprintf("StoreLocal %s = %s", formatPlace(v.Target), formatPlace(v.Value))
	case *Phi:
		operands := make([]string, 0, len(v.Operands))
		for _, op := range v.Operands {
			operands = append(operands, fmt.Sprintf("bb%d: %s", op.Pred, formatPlace(op.Value)))
		}
		return fmt.Sprintf("Phi [%s]", strings.Join(operands, ", "))
	}
	return "?"
}

func formatTerminal(terminal Terminal) string {
	switch t := terminal.(type) {
	case *GotoTerminal:
		return fmt.Sprintf("Goto bb%d", t.Target)
	case *IfTerminal:
		return fmt.Sprintf("If %s then bb%d else bb%d", formatPlace(t.Test), t.Consequent, t.Alternate)
	case *ReturnTerminal:
		if t.Value == nil {
			return "Return"
		}
		return "Return " + formatPlace(*t.Value)
	case *SwitchTerminal:
		cases := make([]string, 0, len(t.Cases))
		for _, c := range t.Cases {
			cases = append(cases, fmt.Sprintf("%s: bb%d", formatPlace(c.Match), c.Target))
		}
		return fmt.Sprintf("Switch %s [%s] default bb%d merge bb%d",
			formatPlace(t.Test), strings.Join(cases, ", "), t.Default, t.Merge)
	}
	return "?"
}
