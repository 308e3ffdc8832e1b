package reactive

import (
	"memoc/internal/hir"
)

// Build reconstructs the statement tree for a function and groups scoped
// instruction runs into Scope nodes.
func Build(f *hir.HIRFunction, sched *hir.Schedule, scopes *hir.ScopeResult) *Function {
	b := &treeBuilder{
		f:       f,
		sched:   sched,
		scopes:  scopes,
		visited: map[hir.BlockID]bool{},
	}

	body := b.buildBlock(f.Entry, hir.NoBlock)
	body = wrapScopes(body, scopes)

	return &Function{
		Name:   f.Name,
		Params: f.Params,
		Body:   body,
	}
}

type treeBuilder struct {
	f      *hir.HIRFunction
	sched  *hir.Schedule
	scopes *hir.ScopeResult

	// visited acts as a recursion stack: a block on it is currently being
	// reconstructed, so re-entering it would loop forever. Join blocks
	// popped off again get duplicated into each incoming path instead.
	visited   map[hir.BlockID]bool
	loopStack []treeLoop
}

type treeLoop struct {
	header      hir.BlockID // NoBlock for switch records
	breakTarget hir.BlockID
}

func (b *treeBuilder) buildBlock(blockID, prev hir.BlockID) []Statement {
	var statements []Statement

	// Materialize Φ-semantics for the edge prev -> blockID as explicit
	// copies on the predecessor side.
	if prev != hir.NoBlock {
		statements = append(statements, b.phiAssignments(blockID, prev)...)
	}

	if b.visited[blockID] {
		return statements
	}
	b.visited[blockID] = true
	defer delete(b.visited, blockID)

	block, ok := b.f.Blocks[blockID]
	if !ok {
		return statements
	}

	if b.f.LoopHeaders[blockID] {
		if ifTerm, ok := block.Terminal.(*hir.IfTerminal); ok {
			return append(statements, b.buildLoop(block, ifTerm)...)
		}
	}

	for _, instr := range block.Instructions {
		if _, isPhi := instr.Value.(*hir.Phi); isPhi {
			continue
		}
		statements = append(statements, b.convertInstruction(instr))
	}

	switch term := block.Terminal.(type) {
	case *hir.ReturnTerminal:
		ret := &Return{}
		if term.Value != nil {
			id := term.Value.Identifier
			ret.Value = &id
		}
		statements = append(statements, ret)

	case *hir.GotoTerminal:
		for i := len(b.loopStack) - 1; i >= 0; i-- {
			loop := b.loopStack[i]
			if term.Target == loop.breakTarget {
				statements = append(statements, b.phiAssignments(term.Target, blockID)...)
				return append(statements, &Break{})
			}
			if loop.header != hir.NoBlock && term.Target == loop.header {
				statements = append(statements, b.phiAssignments(term.Target, blockID)...)
				return append(statements, &Continue{})
			}
		}
		statements = append(statements, b.buildBlock(term.Target, blockID)...)

	case *hir.IfTerminal:
		consequent := b.buildBlock(term.Consequent, blockID)
		alternate := b.buildBlock(term.Alternate, blockID)
		statements = append(statements, &If{
			Test:       term.Test.Identifier,
			Consequent: consequent,
			Alternate:  alternate,
		})

	case *hir.SwitchTerminal:
		statements = append(statements, b.buildSwitch(blockID, term)...)
	}

	return statements
}

// buildLoop renders a loop header as while(true) with the header's test
// re-emitted inside the body as if(test){}else{break}, so header tests
// whose value was consumed by Φ-copies need no special casing.
func (b *treeBuilder) buildLoop(block *hir.BasicBlock, term *hir.IfTerminal) []Statement {
	var loopBody []Statement
	for _, instr := range block.Instructions {
		if _, isPhi := instr.Value.(*hir.Phi); isPhi {
			continue
		}
		loopBody = append(loopBody, b.convertInstruction(instr))
	}

	loopBody = append(loopBody, &If{
		Test:      term.Test.Identifier,
		Alternate: []Statement{&Break{}},
	})

	b.loopStack = append(b.loopStack, treeLoop{header: block.ID, breakTarget: term.Alternate})
	loopBody = append(loopBody, b.buildBlock(term.Consequent, block.ID)...)
	b.loopStack = b.loopStack[:len(b.loopStack)-1]

	statements := []Statement{&While{
		Test: hir.Identifier{Name: "true"},
		Body: loopBody,
	}}

	// The exit path continues after the loop; its Φs bind to the
	// header->exit edge.
	return append(statements, b.buildBlock(term.Alternate, block.ID)...)
}

func (b *treeBuilder) buildSwitch(blockID hir.BlockID, term *hir.SwitchTerminal) []Statement {
	if term.Merge != hir.NoBlock {
		b.loopStack = append(b.loopStack, treeLoop{header: hir.NoBlock, breakTarget: term.Merge})
	}

	cases := make([]SwitchCase, 0, len(term.Cases)+1)
	for _, c := range term.Cases {
		label := c.Match.Identifier
		cases = append(cases, SwitchCase{
			Label: &label,
			Body:  b.buildBlock(c.Target, blockID),
		})
	}

	// A source-level default recurses like any case. When the default
	// edge goes straight to the merge block, the arm carries only the
	// edge's Φ-copies and control falls out of the switch into the
	// continuation below.
	if term.Default != term.Merge {
		cases = append(cases, SwitchCase{Body: b.buildBlock(term.Default, blockID)})
	} else {
		cases = append(cases, SwitchCase{Body: b.phiAssignments(term.Default, blockID)})
	}

	if term.Merge != hir.NoBlock {
		b.loopStack = b.loopStack[:len(b.loopStack)-1]
	}

	statements := []Statement{&Switch{Test: term.Test.Identifier, Cases: cases}}

	// Code after the switch: break arms jump here. Φ-copies were already
	// emitted per incoming edge, so no previous block is passed.
	if term.Merge != hir.NoBlock {
		statements = append(statements, b.buildBlock(term.Merge, hir.NoBlock)...)
	}
	return statements
}

// phiAssignments emits lvalue <- operand copies for every Φ in target that
// has an operand flowing in from pred.
func (b *treeBuilder) phiAssignments(target, pred hir.BlockID) []Statement {
	block, ok := b.f.Blocks[target]
	if !ok {
		return nil
	}

	var statements []Statement
	for _, instr := range block.Instructions {
		phi, ok := instr.Value.(*hir.Phi)
		if !ok {
			break
		}
		for _, op := range phi.Operands {
			if op.Pred == pred {
				statements = append(statements, &Instruction{
					LValue: instr.LValue.Identifier,
					Value:  &LoadLocal{Source: op.Value.Identifier},
					Scope:  hir.NoScope,
				})
			}
		}
	}
	return statements
}

func (b *treeBuilder) scopeOf(instr *hir.Instruction) hir.ScopeID {
	idx, ok := b.sched.IndexOf[instr.ID]
	if !ok {
		return hir.NoScope
	}
	if scope, ok := b.scopes.InstructionScopes[idx]; ok {
		return scope
	}
	return hir.NoScope
}

func (b *treeBuilder) convertInstruction(instr *hir.Instruction) *Instruction {
	var value Value

	switch v := instr.Value.(type) {
	case *hir.Constant:
		value = &Constant{Value: v.Value}

	case *hir.BinaryOp:
		value = &Binary{Op: v.Op, Left: v.Left.Identifier, Right: v.Right.Identifier}

	case *hir.UnaryOp:
		value = &Unary{Op: v.Op, Operand: v.Operand.Identifier}

	case *hir.Call:
		args := make([]Argument, 0, len(v.Args))
		for _, arg := range v.Args {
			args = append(args, Argument{Spread: arg.Spread, Value: arg.Value.Identifier})
		}
		value = &Call{Callee: v.Callee.Identifier, Args: args}

	case *hir.Object:
		props := make([]ObjectProperty, 0, len(v.Properties))
		for _, prop := range v.Properties {
			props = append(props, ObjectProperty{
				Spread:   prop.Spread,
				Computed: prop.Computed,
				Key:      prop.Key,
				KeyIdent: prop.KeyPlace.Identifier,
				Value:    prop.Value.Identifier,
			})
		}
		value = &Object{Properties: props}

	case *hir.Array:
		elems := make([]ArrayElement, 0, len(v.Elements))
		for _, elem := range v.Elements {
			elems = append(elems, ArrayElement{Kind: elem.Kind, Value: elem.Value.Identifier})
		}
		value = &Array{Elements: elems}

	case *hir.PropertyLoad:
		value = &PropertyLoad{Object: v.Object.Identifier, Property: v.Property}

	case *hir.PropertyStore:
		value = &PropertyStore{Object: v.Object.Identifier, Property: v.Property, Value: v.Value.Identifier}

	case *hir.ComputedLoad:
		value = &ComputedLoad{Object: v.Object.Identifier, Property: v.Property.Identifier}

	case *hir.ComputedStore:
		value = &ComputedStore{Object: v.Object.Identifier, Property: v.Property.Identifier, Value: v.Value.Identifier}

	case *hir.LoadLocal:
		value = &LoadLocal{Source: v.Source.Identifier}

	case *hir.StoreLocal:
		// StoreLocal survives only when SSA never ran; render it as the
		// copy it would have become.
		value = &LoadLocal{Source: v.Value.Identifier}

	case *hir.Phi:
		operands := make([]hir.Identifier, 0, len(v.Operands))
		for _, op := range v.Operands {
			operands = append(operands, op.Value.Identifier)
		}
		value = &Phi{Operands: operands}

	default:
		value = &Constant{Value: hir.UndefinedConst{}}
	}

	return &Instruction{
		LValue: instr.LValue.Identifier,
		Value:  value,
		Scope:  b.scopeOf(instr),
	}
}
