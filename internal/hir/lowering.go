package hir

import (
	"fmt"

	"github.com/tliron/commonlog"

	"memoc/internal/ast"
	"memoc/internal/errors"
)

var log = commonlog.GetLogger("memoc.lowering")

// Lowerer turns a surface function into an HIRFunction. It never fails: a
// construct it does not model becomes a dead temporary and the error is
// recorded for callers running in strict mode.
type Lowerer struct {
	blocks      map[BlockID]*BasicBlock
	current     BlockID
	nextBlock   int
	nextInstr   int
	nextTemp    int
	loopStack   []loopInfo
	terminated  map[BlockID]bool
	loopHeaders map[BlockID]bool
	errs        []errors.CompilerError
}

type loopInfo struct {
	breakTarget    BlockID
	continueTarget BlockID // NoBlock inside a switch
}

// NewLowerer creates a lowerer with the entry block allocated.
func NewLowerer() *Lowerer {
	entry := &BasicBlock{ID: 0, Terminal: &ReturnTerminal{}}
	return &Lowerer{
		blocks:      map[BlockID]*BasicBlock{0: entry},
		current:     0,
		nextBlock:   1,
		terminated:  map[BlockID]bool{},
		loopHeaders: map[BlockID]bool{},
	}
}

// Lower builds the HIR for one function. The error list holds the
// recovered lowering errors; the function itself is always well formed.
func Lower(fn *ast.Function) (*HIRFunction, []errors.CompilerError) {
	l := NewLowerer()

	params := make([]Identifier, 0, len(fn.Params))
	for i, param := range fn.Params {
		if param.Pattern == nil {
			params = append(params, Identifier{Name: param.Name})
			continue
		}
		// Destructuring parameter: bind a synthetic name and unpack it
		// with assignment synthesis at function entry.
		name := fmt.Sprintf("_p%d", i)
		params = append(params, Identifier{Name: name})
		value := l.pushInstruction(&LoadLocal{Source: Place{Identifier: Identifier{Name: name}}})
		l.lowerPattern(param.Pattern, value)
	}

	if fn.Body != nil {
		for _, stmt := range fn.Body.Stmts {
			l.lowerStatement(stmt)
		}
	}

	return &HIRFunction{
		Name:        fn.Name,
		Params:      params,
		Entry:       0,
		Blocks:      l.blocks,
		LoopHeaders: l.loopHeaders,
	}, l.errs
}

func (l *Lowerer) lowerStatement(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.ReturnStmt:
		var value *Place
		if s.Value != nil {
			place := l.lowerExpression(s.Value)
			value = &place
		}
		l.terminateBlock(&ReturnTerminal{Value: value})

	case *ast.VarDecl:
		l.lowerVarDecl(s)

	case *ast.ExprStmt:
		l.lowerExpression(s.X)

	case *ast.IfStmt:
		test := l.lowerExpression(s.Test)

		thenBlock := l.allocBlock()
		elseBlock := l.allocBlock()
		mergeBlock := l.allocBlock()

		l.terminateBlock(&IfTerminal{Test: test, Consequent: thenBlock, Alternate: elseBlock})

		l.startBlock(thenBlock)
		l.lowerStatement(s.Consequent)
		if !l.terminated[l.current] {
			l.terminateBlock(&GotoTerminal{Target: mergeBlock})
		}

		l.startBlock(elseBlock)
		if s.Alternate != nil {
			l.lowerStatement(s.Alternate)
		}
		if !l.terminated[l.current] {
			l.terminateBlock(&GotoTerminal{Target: mergeBlock})
		}

		l.startBlock(mergeBlock)

	case *ast.WhileStmt:
		header := l.allocBlock()
		body := l.allocBlock()
		exit := l.allocBlock()

		l.terminateBlock(&GotoTerminal{Target: header})

		l.startBlock(header)
		test := l.lowerExpression(s.Test)
		l.terminateBlock(&IfTerminal{Test: test, Consequent: body, Alternate: exit})

		l.startBlock(body)
		l.startLoop(header, exit, header)
		l.lowerStatement(s.Body)
		l.endLoop()
		if !l.terminated[l.current] {
			l.terminateBlock(&GotoTerminal{Target: header})
		}

		l.startBlock(exit)

	case *ast.ForStmt:
		if s.Init != nil {
			l.lowerStatement(s.Init)
		}

		header := l.allocBlock()
		body := l.allocBlock()
		update := l.allocBlock()
		exit := l.allocBlock()

		l.terminateBlock(&GotoTerminal{Target: header})

		l.startBlock(header)
		var test Place
		if s.Test != nil {
			test = l.lowerExpression(s.Test)
		} else {
			// for(;;) loops forever until break
			test = l.pushInstruction(&Constant{Value: BoolConst(true)})
		}
		l.terminateBlock(&IfTerminal{Test: test, Consequent: body, Alternate: exit})

		l.startBlock(body)
		l.startLoop(header, exit, update)
		l.lowerStatement(s.Body)
		l.endLoop()
		if !l.terminated[l.current] {
			l.terminateBlock(&GotoTerminal{Target: update})
		}

		l.startBlock(update)
		if s.Update != nil {
			l.lowerExpression(s.Update)
		}
		l.terminateBlock(&GotoTerminal{Target: header})

		l.startBlock(exit)

	case *ast.BlockStmt:
		for _, inner := range s.Stmts {
			l.lowerStatement(inner)
		}

	case *ast.BreakStmt:
		if len(l.loopStack) > 0 {
			l.terminateBlock(&GotoTerminal{Target: l.loopStack[len(l.loopStack)-1].breakTarget})
		}

	case *ast.ContinueStmt:
		// Nearest loop; switches push records without a continue target.
		for i := len(l.loopStack) - 1; i >= 0; i-- {
			if l.loopStack[i].continueTarget != NoBlock {
				l.terminateBlock(&GotoTerminal{Target: l.loopStack[i].continueTarget})
				break
			}
		}

	case *ast.SwitchStmt:
		l.lowerSwitch(s)

	default:
		l.recover(stmt, "statement")
	}
}

func (l *Lowerer) lowerVarDecl(decl *ast.VarDecl) {
	for _, d := range decl.Decls {
		if d.Init == nil {
			continue
		}
		value := l.lowerExpression(d.Init)
		l.lowerPattern(d.Target, value)
	}
}

// lowerPattern stores value into an assignment target: an identifier, a
// member expression, or a destructuring pattern walked element by element.
func (l *Lowerer) lowerPattern(target ast.Node, value Place) {
	switch t := target.(type) {
	case *ast.Ident:
		l.pushInstruction(&StoreLocal{
			Target: Place{Identifier: Identifier{Name: t.Name}},
			Value:  value,
		})

	case *ast.MemberExpr:
		object := l.lowerExpression(t.Object)
		if t.Computed {
			property := l.lowerExpression(t.PropExpr)
			l.pushInstruction(&ComputedStore{Object: object, Property: property, Value: value})
		} else {
			l.pushInstruction(&PropertyStore{Object: object, Property: t.Property, Value: value})
		}

	case *ast.ArrayPattern:
		for idx, elem := range t.Elems {
			if elem == nil {
				continue
			}
			idxPlace := l.pushInstruction(&Constant{Value: IntConst(int64(idx))})
			elemValue := l.pushInstruction(&ComputedLoad{Object: value, Property: idxPlace})
			l.lowerPattern(elem, elemValue)
		}

	case *ast.ObjectPattern:
		for _, prop := range t.Props {
			propValue := l.pushInstruction(&PropertyLoad{Object: value, Property: prop.Key})
			l.lowerPattern(prop.Binding, propValue)
		}

	default:
		l.recover(target, "assignment target")
	}
}

func (l *Lowerer) lowerExpression(expr ast.Expr) Place {
	switch e := expr.(type) {
	case *ast.NumberLit:
		return l.pushInstruction(&Constant{Value: FloatConst(e.Value)})

	case *ast.StringLit:
		return l.pushInstruction(&Constant{Value: StringConst(e.Value)})

	case *ast.BoolLit:
		return l.pushInstruction(&Constant{Value: BoolConst(e.Value)})

	case *ast.NullLit:
		return l.pushInstruction(&Constant{Value: NullConst{}})

	case *ast.Ident:
		return l.pushInstruction(&LoadLocal{Source: Place{Identifier: Identifier{Name: e.Name}}})

	case *ast.BinaryExpr:
		left := l.lowerExpression(e.Left)
		right := l.lowerExpression(e.Right)
		return l.pushInstruction(&BinaryOp{Op: e.Op, Left: left, Right: right})

	case *ast.UnaryExpr:
		operand := l.lowerExpression(e.Operand)
		return l.pushInstruction(&UnaryOp{Op: e.Op, Operand: operand})

	case *ast.UpdateExpr:
		return l.lowerUpdate(e)

	case *ast.AssignExpr:
		return l.lowerAssign(e)

	case *ast.CallExpr:
		callee := l.lowerExpression(e.Callee)
		args := make([]Argument, 0, len(e.Args))
		for _, arg := range e.Args {
			args = append(args, Argument{Spread: arg.Spread, Value: l.lowerExpression(arg.Value)})
		}
		return l.pushInstruction(&Call{Callee: callee, Args: args})

	case *ast.MemberExpr:
		object := l.lowerExpression(e.Object)
		if e.Computed {
			property := l.lowerExpression(e.PropExpr)
			return l.pushInstruction(&ComputedLoad{Object: object, Property: property})
		}
		return l.pushInstruction(&PropertyLoad{Object: object, Property: e.Property})

	case *ast.ObjectLit:
		properties := make([]ObjectProperty, 0, len(e.Props))
		for _, prop := range e.Props {
			if prop.Spread {
				properties = append(properties, ObjectProperty{
					Spread: true,
					Value:  l.lowerExpression(prop.Value),
				})
				continue
			}
			p := ObjectProperty{Key: prop.Key}
			if prop.Computed {
				p.Computed = true
				p.KeyPlace = l.lowerExpression(prop.KeyExpr)
			}
			p.Value = l.lowerExpression(prop.Value)
			properties = append(properties, p)
		}
		return l.pushInstruction(&Object{Properties: properties})

	case *ast.ArrayLit:
		elements := make([]ArrayElement, 0, len(e.Elems))
		for _, elem := range e.Elems {
			switch {
			case elem.Hole:
				elements = append(elements, ArrayElement{Kind: ElementHole})
			case elem.Spread:
				elements = append(elements, ArrayElement{Kind: ElementSpread, Value: l.lowerExpression(elem.Value)})
			default:
				elements = append(elements, ArrayElement{Kind: ElementRegular, Value: l.lowerExpression(elem.Value)})
			}
		}
		return l.pushInstruction(&Array{Elements: elements})

	case *ast.LogicalExpr:
		return l.lowerLogical(e)

	case *ast.ConditionalExpr:
		return l.lowerConditional(e)

	case *ast.SequenceExpr:
		var last Place
		for _, inner := range e.Exprs {
			last = l.lowerExpression(inner)
		}
		return last
	}

	l.recover(expr, "expression")
	return l.createTemp()
}

// lowerLogical lowers && || ?? as a diamond CFG with an explicit result
// local: the short-circuit branch stores the left value, the other branch
// evaluates and stores the right, and the join loads the result.
func (l *Lowerer) lowerLogical(e *ast.LogicalExpr) Place {
	left := l.lowerExpression(e.Left)

	rightBlock := l.allocBlock()
	shortCircuitBlock := l.allocBlock()
	mergeBlock := l.allocBlock()
	result := l.createTemp()

	switch e.Op {
	case "&&":
		l.terminateBlock(&IfTerminal{Test: left, Consequent: rightBlock, Alternate: shortCircuitBlock})
	case "||":
		l.terminateBlock(&IfTerminal{Test: left, Consequent: shortCircuitBlock, Alternate: rightBlock})
	default: // ??
		isNullish := l.pushInstruction(&UnaryOp{Op: OpIsNullish, Operand: left})
		l.terminateBlock(&IfTerminal{Test: isNullish, Consequent: rightBlock, Alternate: shortCircuitBlock})
	}

	l.startBlock(shortCircuitBlock)
	l.pushInstruction(&StoreLocal{Target: result, Value: left})
	l.terminateBlock(&GotoTerminal{Target: mergeBlock})

	l.startBlock(rightBlock)
	right := l.lowerExpression(e.Right)
	l.pushInstruction(&StoreLocal{Target: result, Value: right})
	l.terminateBlock(&GotoTerminal{Target: mergeBlock})

	l.startBlock(mergeBlock)
	return l.pushInstruction(&LoadLocal{Source: result})
}

func (l *Lowerer) lowerConditional(e *ast.ConditionalExpr) Place {
	test := l.lowerExpression(e.Test)

	thenBlock := l.allocBlock()
	elseBlock := l.allocBlock()
	mergeBlock := l.allocBlock()
	result := l.createTemp()

	l.terminateBlock(&IfTerminal{Test: test, Consequent: thenBlock, Alternate: elseBlock})

	l.startBlock(thenBlock)
	thenValue := l.lowerExpression(e.Consequent)
	l.pushInstruction(&StoreLocal{Target: result, Value: thenValue})
	l.terminateBlock(&GotoTerminal{Target: mergeBlock})

	l.startBlock(elseBlock)
	elseValue := l.lowerExpression(e.Alternate)
	l.pushInstruction(&StoreLocal{Target: result, Value: elseValue})
	l.terminateBlock(&GotoTerminal{Target: mergeBlock})

	l.startBlock(mergeBlock)
	return l.pushInstruction(&LoadLocal{Source: result})
}

// lowerUpdate expands ++/-- into load, add/sub 1, store, yielding the pre-
// or post-value per the prefix flag.
func (l *Lowerer) lowerUpdate(e *ast.UpdateExpr) Place {
	ident, ok := e.Target.(*ast.Ident)
	if !ok {
		l.recover(e, "update target")
		return l.createTemp()
	}

	target := Place{Identifier: Identifier{Name: ident.Name}}
	current := l.pushInstruction(&LoadLocal{Source: target})
	one := l.pushInstruction(&Constant{Value: FloatConst(1)})

	op := "+"
	if e.Op == "--" {
		op = "-"
	}
	updated := l.pushInstruction(&BinaryOp{Op: op, Left: current, Right: one})
	l.pushInstruction(&StoreLocal{Target: target, Value: updated})

	if e.Prefix {
		return updated
	}
	return current
}

func (l *Lowerer) lowerAssign(e *ast.AssignExpr) Place {
	rightValue := l.lowerExpression(e.Value)

	value := rightValue
	if e.Op != "=" {
		ident, ok := e.Target.(*ast.Ident)
		if !ok {
			l.errs = append(l.errs, errors.NewUnsupported(
				"compound assignment to non-identifier target", e.Pos))
			log.Errorf("unsupported compound assignment target at %d:%d", e.Pos.Line, e.Pos.Column)
			return l.createTemp()
		}
		left := l.pushInstruction(&LoadLocal{Source: Place{Identifier: Identifier{Name: ident.Name}}})
		op := e.Op[:len(e.Op)-1] // "+=" -> "+"
		value = l.pushInstruction(&BinaryOp{Op: op, Left: left, Right: rightValue})
	}

	l.lowerPattern(e.Target, value)
	return value
}

// lowerSwitch evaluates the discriminant and every case test up front,
// emits a Switch terminal, then lowers case bodies in source order linking
// fallthrough edges.
func (l *Lowerer) lowerSwitch(s *ast.SwitchStmt) {
	discriminant := l.lowerExpression(s.Discriminant)
	exit := l.allocBlock()

	// break escapes to exit; continue must search an outer loop
	l.loopStack = append(l.loopStack, loopInfo{breakTarget: exit, continueTarget: NoBlock})

	type caseBlock struct {
		block BlockID
		c     ast.SwitchCase
	}
	caseBlocks := make([]caseBlock, 0, len(s.Cases))
	defaultTarget := exit
	for _, c := range s.Cases {
		block := l.allocBlock()
		caseBlocks = append(caseBlocks, caseBlock{block: block, c: c})
		if c.Test == nil {
			defaultTarget = block
		}
	}

	var cases []SwitchCase
	for _, cb := range caseBlocks {
		if cb.c.Test == nil {
			continue
		}
		// Case tests are evaluated at the switch header. Side effects in
		// tests past the matching case run earlier than a host switch
		// would run them.
		test := l.lowerExpression(cb.c.Test)
		cases = append(cases, SwitchCase{Match: test, Target: cb.block})
	}

	l.terminateBlock(&SwitchTerminal{
		Test:    discriminant,
		Cases:   cases,
		Default: defaultTarget,
		Merge:   exit,
	})

	for i, cb := range caseBlocks {
		l.startBlock(cb.block)
		for _, stmt := range cb.c.Body {
			l.lowerStatement(stmt)
		}
		if !l.terminated[l.current] {
			next := exit
			if i+1 < len(caseBlocks) {
				next = caseBlocks[i+1].block
			}
			l.terminateBlock(&GotoTerminal{Target: next})
		}
	}

	l.loopStack = l.loopStack[:len(l.loopStack)-1]
	l.startBlock(exit)
}

// Block and instruction management

func (l *Lowerer) pushInstruction(value InstructionValue) Place {
	temp := l.createTemp()
	instr := &Instruction{
		ID:     InstrID(l.nextInstr),
		LValue: temp,
		Value:  value,
		Scope:  NoScope,
	}
	l.nextInstr++
	block := l.blocks[l.current]
	block.Instructions = append(block.Instructions, instr)
	return temp
}

func (l *Lowerer) startBlock(id BlockID) {
	if _, ok := l.blocks[id]; !ok {
		l.blocks[id] = &BasicBlock{ID: id, Terminal: &ReturnTerminal{}}
	}
	l.current = id
}

// terminateBlock writes the current block's terminal and moves the cursor
// to a fresh block so trailing statements never write into a terminated
// block.
func (l *Lowerer) terminateBlock(terminal Terminal) {
	l.terminated[l.current] = true
	l.blocks[l.current].Terminal = terminal
	l.startBlock(l.allocBlock())
}

func (l *Lowerer) allocBlock() BlockID {
	id := BlockID(l.nextBlock)
	l.nextBlock++
	return id
}

func (l *Lowerer) createTemp() Place {
	id := l.nextTemp
	l.nextTemp++
	return Place{Identifier: Identifier{Name: fmt.Sprintf("t%d", id), Temp: true}}
}

func (l *Lowerer) startLoop(header, breakTarget, continueTarget BlockID) {
	l.loopStack = append(l.loopStack, loopInfo{breakTarget: breakTarget, continueTarget: continueTarget})
	l.loopHeaders[header] = true
}

func (l *Lowerer) endLoop() {
	l.loopStack = l.loopStack[:len(l.loopStack)-1]
}

// recover records a lowering error for the node and leaves a dead
// temporary in its place.
func (l *Lowerer) recover(node ast.Node, what string) {
	pos := ast.Position{}
	if node != nil {
		pos = node.NodePos()
	}
	err := errors.NewLowering(fmt.Sprintf("unrecognised %s node %T", what, node), pos)
	l.errs = append(l.errs, err)
	log.Errorf("%s", err.Error())
}
