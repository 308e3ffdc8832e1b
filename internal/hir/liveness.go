package hir

// Range is a half-open interval [Start, End) over linear schedule indices.
type Range struct {
	Start int
	End   int
}

// Schedule is the linearization of a function's reachable blocks in
// reverse post-order, with contiguous instruction indices.
type Schedule struct {
	Instructions []*Instruction
	IndexOf      map[InstrID]int
}

// NewSchedule flattens the reachable blocks in RPO.
func NewSchedule(f *HIRFunction) *Schedule {
	sched := &Schedule{IndexOf: map[InstrID]int{}}
	for _, blockID := range ReversePostOrder(f) {
		block, ok := f.Blocks[blockID]
		if !ok {
			continue
		}
		for _, instr := range block.Instructions {
			sched.IndexOf[instr.ID] = len(sched.Instructions)
			sched.Instructions = append(sched.Instructions, instr)
		}
	}
	return sched
}

// LivenessResult maps each SSA identifier to its live range in the linear
// schedule. Aliases unions Φ operands and copy sources with their
// destinations; after merging, each identifier reports the union range of
// its class.
type LivenessResult struct {
	Ranges  map[Identifier]Range
	Aliases *DisjointSet
}

// InferLiveness derives live ranges over the schedule. Because RPO visits
// loop headers before backedges, a use on a backedge extends a range past
// its lexical position; ranges model logical liveness.
func InferLiveness(f *HIRFunction, sched *Schedule) *LivenessResult {
	ranges := map[Identifier]Range{}
	aliases := NewDisjointSet()

	// Definition pass: seed ranges and union aliases.
	for i, instr := range sched.Instructions {
		ranges[instr.LValue.Identifier] = Range{Start: i, End: i + 1}

		switch value := instr.Value.(type) {
		case *LoadLocal:
			aliases.Union(instr.LValue.Identifier, value.Source.Identifier)
		case *Phi:
			for _, op := range value.Operands {
				aliases.Union(instr.LValue.Identifier, op.Value.Identifier)
			}
		}
	}

	// Use pass: extend range ends.
	for i, instr := range sched.Instructions {
		for _, place := range instr.Value.UsedPlaces() {
			if rng, ok := ranges[place.Identifier]; ok {
				if i+1 > rng.End {
					rng.End = i + 1
					ranges[place.Identifier] = rng
				}
			}
		}
	}

	// Merge: every identifier reports its class's union range.
	merged := map[Identifier]Range{}
	for id, rng := range ranges {
		root := aliases.Find(id)
		if existing, ok := merged[root]; ok {
			if rng.Start < existing.Start {
				existing.Start = rng.Start
			}
			if rng.End > existing.End {
				existing.End = rng.End
			}
			merged[root] = existing
		} else {
			merged[root] = rng
		}
	}

	final := make(map[Identifier]Range, len(ranges))
	for id := range ranges {
		final[id] = merged[aliases.Find(id)]
	}

	return &LivenessResult{Ranges: final, Aliases: aliases}
}

// DisjointSet is a union-find over identifiers. Cyclic alias chains
// collapse into a single class, so range merging always terminates.
type DisjointSet struct {
	parents map[Identifier]Identifier
}

// NewDisjointSet creates an empty union-find.
func NewDisjointSet() *DisjointSet {
	return &DisjointSet{parents: map[Identifier]Identifier{}}
}

// Find returns the class representative with path compression.
func (d *DisjointSet) Find(id Identifier) Identifier {
	parent, ok := d.parents[id]
	if !ok {
		d.parents[id] = id
		return id
	}
	if parent == id {
		return id
	}
	root := d.Find(parent)
	d.parents[id] = root
	return root
}

// Union merges the classes of a and b.
func (d *DisjointSet) Union(a, b Identifier) {
	rootA := d.Find(a)
	rootB := d.Find(b)
	if rootA != rootB {
		d.parents[rootA] = rootB
	}
}
