package hir

import (
	"sort"

	"github.com/bits-and-blooms/bitset"
)

// EnterSSA rewrites a lowered function into SSA form: it rebuilds the
// predecessor lists, inserts Φ-instructions at iterated dominance
// frontiers for every promotable variable, and renames definitions and
// uses over the dominator tree. The function is transformed in place and
// returned for pipeline chaining.
func EnterSSA(f *HIRFunction) *HIRFunction {
	RebuildPredecessors(f)

	dom := ComputeDominators(f)

	// A variable is promotable iff it has a StoreLocal anywhere.
	defBlocks := map[string]*bitset.BitSet{}
	tempFlag := map[string]bool{}
	size := uint(f.maxBlockID()) + 1
	for _, id := range f.BlockIDs() {
		for _, instr := range f.Blocks[id].Instructions {
			if store, ok := instr.Value.(*StoreLocal); ok {
				name := store.Target.Identifier.Name
				if defBlocks[name] == nil {
					defBlocks[name] = bitset.New(size)
					tempFlag[name] = store.Target.Identifier.Temp
				}
				defBlocks[name].Set(uint(id))
			}
		}
	}

	names := make([]string, 0, len(defBlocks))
	for name := range defBlocks {
		names = append(names, name)
	}
	sort.Strings(names)

	// Φ ids must not collide with existing instruction ids.
	maxInstr := InstrID(0)
	for _, id := range f.BlockIDs() {
		for _, instr := range f.Blocks[id].Instructions {
			if instr.ID > maxInstr {
				maxInstr = instr.ID
			}
		}
	}
	nextInstr := maxInstr + 1

	// Iterated dominance frontier worklist per variable.
	phiPlacements := map[BlockID][]*Instruction{}
	for _, name := range names {
		var worklist []BlockID
		defs := defBlocks[name]
		for i, found := defs.NextSet(0); found; i, found = defs.NextSet(i + 1) {
			worklist = append(worklist, BlockID(i))
		}

		hasPhi := bitset.New(size)
		queued := bitset.New(size)
		for len(worklist) > 0 {
			b := worklist[len(worklist)-1]
			worklist = worklist[:len(worklist)-1]

			for _, d := range dom.FrontierBlocks(b) {
				if hasPhi.Test(uint(d)) {
					continue
				}
				phi := &Instruction{
					ID:     nextInstr,
					LValue: Place{Identifier: Identifier{Name: name, Temp: tempFlag[name]}},
					Value:  &Phi{},
					Scope:  NoScope,
				}
				nextInstr++
				phiPlacements[d] = append(phiPlacements[d], phi)
				hasPhi.Set(uint(d))
				if !queued.Test(uint(d)) {
					queued.Set(uint(d))
					worklist = append(worklist, d)
				}
			}
		}
	}

	for blockID, phis := range phiPlacements {
		block := f.Blocks[blockID]
		block.Instructions = append(phis, block.Instructions...)
	}

	// Rename over the dominator tree.
	r := &renamer{
		f:        f,
		dom:      dom,
		stacks:   map[string][]int{},
		counters: map[string]int{},
		children: domChildren(dom),
	}
	for _, name := range names {
		r.stacks[name] = []int{0} // version 0 is the uninitialized entry value
		r.counters[name] = 1
	}
	r.renameBlock(f.Entry)

	return f
}

type renamer struct {
	f        *HIRFunction
	dom      *DominatorTree
	stacks   map[string][]int
	counters map[string]int
	children map[BlockID][]BlockID
}

func domChildren(dom *DominatorTree) map[BlockID][]BlockID {
	children := map[BlockID][]BlockID{}
	for child, parent := range dom.IDoms {
		if child == parent {
			continue
		}
		children[parent] = append(children[parent], child)
	}
	// Sorted traversal keeps the output deterministic.
	for parent := range children {
		kids := children[parent]
		sort.Slice(kids, func(i, j int) bool { return kids[i] < kids[j] })
	}
	return children
}

func (r *renamer) newVersion(name string) int {
	v := r.counters[name]
	r.counters[name] = v + 1
	r.stacks[name] = append(r.stacks[name], v)
	return v
}

func (r *renamer) currentVersion(name string) int {
	stack := r.stacks[name]
	if len(stack) == 0 {
		return 0
	}
	return stack[len(stack)-1]
}

func (r *renamer) popVersion(name string) {
	stack := r.stacks[name]
	if len(stack) > 0 {
		r.stacks[name] = stack[:len(stack)-1]
	}
}

func (r *renamer) renameBlock(blockID BlockID) {
	block := r.f.Blocks[blockID]
	var pushed []string

	for _, instr := range block.Instructions {
		switch value := instr.Value.(type) {
		case *Phi:
			name := instr.LValue.Identifier.Name
			instr.LValue.Identifier.Version = r.newVersion(name)
			pushed = append(pushed, name)

		case *LoadLocal:
			// Uses see the version on top of the stack; an empty stack
			// means the name is external (or an uninitialized read).
			name := value.Source.Identifier.Name
			value.Source.Identifier.Version = r.currentVersion(name)

		case *StoreLocal:
			// Rewrite the store into a definition-carrying copy:
			// lvalue=target@new, value=LoadLocal(source).
			target := value.Target.Identifier
			version := r.newVersion(target.Name)
			instr.LValue = Place{Identifier: Identifier{
				Name:    target.Name,
				Version: version,
				Temp:    target.Temp,
			}}
			instr.Value = &LoadLocal{Source: value.Value}
			pushed = append(pushed, target.Name)

		default:
			// Other operands are single-def single-use temporaries by
			// construction; nothing to rename.
		}
	}

	// Append this block's incoming value to the leading Φs of each
	// successor.
	for _, succ := range block.Terminal.Successors() {
		succBlock, ok := r.f.Blocks[succ]
		if !ok {
			continue
		}
		for _, instr := range succBlock.Instructions {
			phi, ok := instr.Value.(*Phi)
			if !ok {
				break // Φs sit at the top of the block
			}
			name := instr.LValue.Identifier.Name
			if _, tracked := r.stacks[name]; !tracked {
				continue
			}
			phi.Operands = append(phi.Operands, PhiOperand{
				Pred: blockID,
				Value: Place{Identifier: Identifier{
					Name:    name,
					Version: r.currentVersion(name),
					Temp:    instr.LValue.Identifier.Temp,
				}},
			})
		}
	}

	for _, child := range r.children[blockID] {
		r.renameBlock(child)
	}

	for _, name := range pushed {
		r.popVersion(name)
	}
}
