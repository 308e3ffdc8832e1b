package hir

import (
	"github.com/bits-and-blooms/bitset"
)

// DominatorTree holds the immediate-dominator map and the dominance
// frontiers of a function's CFG. Unreachable blocks appear in neither.
type DominatorTree struct {
	IDoms     map[BlockID]BlockID
	Frontiers map[BlockID]*bitset.BitSet
	rpo       []BlockID
	rpoIndex  map[BlockID]int
}

// ComputeDominators runs the iterative immediate-dominator algorithm over
// the reverse post-order, then derives dominance frontiers with the
// standard runner walk.
func ComputeDominators(f *HIRFunction) *DominatorTree {
	rpo := ReversePostOrder(f)
	rpoIndex := make(map[BlockID]int, len(rpo))
	for i, id := range rpo {
		rpoIndex[id] = i
	}

	idoms := map[BlockID]BlockID{f.Entry: f.Entry}

	changed := true
	for changed {
		changed = false
		for _, b := range rpo {
			if b == f.Entry {
				continue
			}

			newIDom := NoBlock
			for _, p := range f.Blocks[b].Preds {
				if _, processed := idoms[p]; !processed {
					continue
				}
				if newIDom == NoBlock {
					newIDom = p
				} else {
					newIDom = intersect(idoms, rpoIndex, newIDom, p)
				}
			}

			if current, seen := idoms[b]; newIDom != NoBlock && (!seen || current != newIDom) {
				idoms[b] = newIDom
				changed = true
			}
		}
	}

	// Frontiers: for each join block b, walk each predecessor up the
	// dominator tree, adding b until reaching idom(b).
	size := uint(f.maxBlockID()) + 1
	frontiers := make(map[BlockID]*bitset.BitSet, len(f.Blocks))
	for id := range f.Blocks {
		frontiers[id] = bitset.New(size)
	}

	for _, b := range f.BlockIDs() {
		block := f.Blocks[b]
		if len(block.Preds) < 2 {
			continue
		}
		bIDom, reachable := idoms[b]
		if !reachable {
			continue
		}
		for _, p := range block.Preds {
			runner := p
			if _, ok := idoms[runner]; !ok {
				continue
			}
			for runner != bIDom {
				frontiers[runner].Set(uint(b))
				next, ok := idoms[runner]
				if !ok || next == runner {
					break
				}
				runner = next
			}
		}
	}

	return &DominatorTree{
		IDoms:     idoms,
		Frontiers: frontiers,
		rpo:       rpo,
		rpoIndex:  rpoIndex,
	}
}

// intersect climbs toward the entry from both blocks, higher RPO index
// first, until the paths meet.
func intersect(idoms map[BlockID]BlockID, rpoIndex map[BlockID]int, b1, b2 BlockID) BlockID {
	idx1, idx2 := rpoIndex[b1], rpoIndex[b2]
	for idx1 != idx2 {
		for idx1 > idx2 {
			b1 = idoms[b1]
			idx1 = rpoIndex[b1]
		}
		for idx2 > idx1 {
			b2 = idoms[b2]
			idx2 = rpoIndex[b2]
		}
	}
	return b1
}

// FrontierBlocks returns the dominance frontier of b in ascending order.
func (d *DominatorTree) FrontierBlocks(b BlockID) []BlockID {
	set, ok := d.Frontiers[b]
	if !ok {
		return nil
	}
	var blocks []BlockID
	for i, found := set.NextSet(0); found; i, found = set.NextSet(i + 1) {
		blocks = append(blocks, BlockID(i))
	}
	return blocks
}

// Dominates reports whether a dominates b (reflexively).
func (d *DominatorTree) Dominates(a, b BlockID) bool {
	for {
		if a == b {
			return true
		}
		next, ok := d.IDoms[b]
		if !ok || next == b {
			return false
		}
		b = next
	}
}
