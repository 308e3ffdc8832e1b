package hir

import (
	"sort"

	"github.com/bits-and-blooms/bitset"
)

// The HIR is a control flow graph of basic blocks holding three-address
// instructions. Blocks refer to each other by ID only; the graph is cyclic
// and owning references would entangle lifetimes for no benefit.

// BlockID uniquely identifies a basic block within a function.
type BlockID int

// InstrID uniquely identifies an instruction within a function.
type InstrID int

// ScopeID identifies a reactive scope.
type ScopeID int

// NoScope marks an instruction that belongs to no reactive scope.
const NoScope ScopeID = -1

// NoBlock is the absent-block sentinel (e.g. a switch without a merge).
const NoBlock BlockID = -1

// Identifier is a (name, version) pair. Version 0 covers every variable
// before SSA; after SSA it denotes an uninitialized read or a free
// variable. Temp marks compiler-generated temporaries so later passes do
// not have to guess from the spelling of the name.
type Identifier struct {
	Name    string
	Version int
	Temp    bool
}

// Place is a reference to an identifier. It is the sole operand type
// inside instructions; effect metadata may be attached here by future
// passes.
type Place struct {
	Identifier Identifier
}

// Instruction is a single three-address operation: lvalue = value.
type Instruction struct {
	ID     InstrID
	LValue Place
	Value  InstructionValue
	Scope  ScopeID
}

// InstructionValue is the operation performed by an instruction.
// UsedPlaces returns pointers to the operand places so passes can rewrite
// versions in place.
type InstructionValue interface {
	UsedPlaces() []*Place
}

// ConstValue is a literal constant.
type ConstValue interface {
	constValue()
}

type IntConst int64
type FloatConst float64
type StringConst string
type BoolConst bool
type NullConst struct{}
type UndefinedConst struct{}

func (IntConst) constValue()       {}
func (FloatConst) constValue()     {}
func (StringConst) constValue()    {}
func (BoolConst) constValue()      {}
func (NullConst) constValue()      {}
func (UndefinedConst) constValue() {}

// OpIsNullish is the unary operator synthesized for `??` lowering. It
// tests whether a value is null or undefined.
const OpIsNullish = "isNullish"

// Constant materializes a literal.
type Constant struct {
	Value ConstValue
}

// BinaryOp computes left op right.
type BinaryOp struct {
	Op    string
	Left  Place
	Right Place
}

// UnaryOp computes op operand.
type UnaryOp struct {
	Op      string
	Operand Place
}

// Argument is a call argument, possibly spread.
type Argument struct {
	Spread bool
	Value  Place
}

// Call invokes callee with args.
type Call struct {
	Callee Place
	Args   []Argument
}

// ObjectProperty is one entry of an object literal.
type ObjectProperty struct {
	Spread   bool
	Computed bool
	Key      string
	KeyPlace Place // set when Computed
	Value    Place
}

// Object builds an object literal.
type Object struct {
	Properties []ObjectProperty
}

// ArrayElementKind distinguishes regular, spread and hole elements.
type ArrayElementKind int

const (
	ElementRegular ArrayElementKind = iota
	ElementSpread
	ElementHole
)

// ArrayElement is one entry of an array literal.
type ArrayElement struct {
	Kind  ArrayElementKind
	Value Place
}

// Array builds an array literal.
type Array struct {
	Elements []ArrayElement
}

// PropertyLoad reads object.property.
type PropertyLoad struct {
	Object   Place
	Property string
}

// PropertyStore writes object.property = value.
type PropertyStore struct {
	Object   Place
	Property string
	Value    Place
}

// ComputedLoad reads object[property].
type ComputedLoad struct {
	Object   Place
	Property Place
}

// ComputedStore writes object[property] = value.
type ComputedStore struct {
	Object   Place
	Property Place
	Value    Place
}

// LoadLocal reads a local binding. After SSA it doubles as the copy
// instruction that replaces StoreLocal.
type LoadLocal struct {
	Source Place
}

// StoreLocal writes a local binding. SSA renaming rewrites every
// StoreLocal into a definition-carrying LoadLocal copy.
type StoreLocal struct {
	Target Place
	Value  Place
}

// PhiOperand pairs a predecessor block with the value flowing in from it.
type PhiOperand struct {
	Pred  BlockID
	Value Place
}

// Phi selects among incoming values based on the predecessor taken.
type Phi struct {
	Operands []PhiOperand
}

func (v *Constant) UsedPlaces() []*Place { return nil }

func (v *BinaryOp) UsedPlaces() []*Place { return []*Place{&v.Left, &v.Right} }

func (v *UnaryOp) UsedPlaces() []*Place { return []*Place{&v.Operand} }

func (v *Call) UsedPlaces() []*Place {
	places := []*Place{&v.Callee}
	for i := range v.Args {
		places = append(places, &v.Args[i].Value)
	}
	return places
}

func (v *Object) UsedPlaces() []*Place {
	var places []*Place
	for i := range v.Properties {
		if v.Properties[i].Computed {
			places = append(places, &v.Properties[i].KeyPlace)
		}
		places = append(places, &v.Properties[i].Value)
	}
	return places
}

func (v *Array) UsedPlaces() []*Place {
	var places []*Place
	for i := range v.Elements {
		if v.Elements[i].Kind != ElementHole {
			places = append(places, &v.Elements[i].Value)
		}
	}
	return places
}

func (v *PropertyLoad) UsedPlaces() []*Place { return []*Place{&v.Object} }

func (v *PropertyStore) UsedPlaces() []*Place { return []*Place{&v.Object, &v.Value} }

func (v *ComputedLoad) UsedPlaces() []*Place { return []*Place{&v.Object, &v.Property} }

func (v *ComputedStore) UsedPlaces() []*Place {
	return []*Place{&v.Object, &v.Property, &v.Value}
}

func (v *LoadLocal) UsedPlaces() []*Place { return []*Place{&v.Source} }

// StoreLocal's target is a definition, not a use.
func (v *StoreLocal) UsedPlaces() []*Place { return []*Place{&v.Value} }

func (v *Phi) UsedPlaces() []*Place {
	var places []*Place
	for i := range v.Operands {
		places = append(places, &v.Operands[i].Value)
	}
	return places
}

// Terminal determines how control leaves a block.
type Terminal interface {
	Successors() []BlockID
}

// GotoTerminal jumps unconditionally.
type GotoTerminal struct {
	Target BlockID
}

// IfTerminal branches on a test value.
type IfTerminal struct {
	Test       Place
	Consequent BlockID
	Alternate  BlockID
}

// ReturnTerminal leaves the function. Value may be nil.
type ReturnTerminal struct {
	Value *Place
}

// SwitchCase pairs a case test value with its target block.
type SwitchCase struct {
	Match  Place
	Target BlockID
}

// SwitchTerminal dispatches on a discriminant. Merge records where break
// inside the switch escapes to.
type SwitchTerminal struct {
	Test    Place
	Cases   []SwitchCase
	Default BlockID
	Merge   BlockID
}

func (t *GotoTerminal) Successors() []BlockID { return []BlockID{t.Target} }

func (t *IfTerminal) Successors() []BlockID {
	return []BlockID{t.Consequent, t.Alternate}
}

func (t *ReturnTerminal) Successors() []BlockID { return nil }

func (t *SwitchTerminal) Successors() []BlockID {
	succs := make([]BlockID, 0, len(t.Cases)+1)
	for _, c := range t.Cases {
		succs = append(succs, c.Target)
	}
	succs = append(succs, t.Default)
	return succs
}

// BasicBlock holds straight-line instructions; control leaves only via the
// terminal.
type BasicBlock struct {
	ID           BlockID
	Instructions []*Instruction
	Terminal     Terminal
	Preds        []BlockID
}

// HIRFunction is a function represented as a CFG.
type HIRFunction struct {
	Name        string
	Params      []Identifier
	Entry       BlockID
	Blocks      map[BlockID]*BasicBlock
	LoopHeaders map[BlockID]bool
}

// BlockIDs returns all block IDs in ascending order. Downstream passes rely
// on this deterministic iteration order.
func (f *HIRFunction) BlockIDs() []BlockID {
	ids := make([]BlockID, 0, len(f.Blocks))
	for id := range f.Blocks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// maxBlockID is used to size bitsets indexed by block ID.
func (f *HIRFunction) maxBlockID() BlockID {
	max := BlockID(0)
	for id := range f.Blocks {
		if id > max {
			max = id
		}
	}
	return max
}

// ReversePostOrder returns the reachable blocks in reverse post-order.
// Unreachable blocks do not appear.
func ReversePostOrder(f *HIRFunction) []BlockID {
	visited := bitset.New(uint(f.maxBlockID()) + 1)
	var po []BlockID

	var walk func(id BlockID)
	walk = func(id BlockID) {
		if visited.Test(uint(id)) {
			return
		}
		visited.Set(uint(id))
		if block, ok := f.Blocks[id]; ok {
			for _, succ := range block.Terminal.Successors() {
				walk(succ)
			}
		}
		po = append(po, id)
	}
	walk(f.Entry)

	for i, j := 0, len(po)-1; i < j; i, j = i+1, j-1 {
		po[i], po[j] = po[j], po[i]
	}
	return po
}

// RebuildPredecessors recomputes every block's predecessor list from the
// successor edges, restoring the pred/succ bijection no matter what state
// lowering left behind.
func RebuildPredecessors(f *HIRFunction) {
	for _, block := range f.Blocks {
		block.Preds = nil
	}
	for _, id := range f.BlockIDs() {
		for _, succ := range f.Blocks[id].Terminal.Successors() {
			if target, ok := f.Blocks[succ]; ok {
				target.Preds = append(target.Preds, id)
			}
		}
	}
}
