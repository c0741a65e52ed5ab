package icall

import "iter"

// Walk returns every (block, instruction) pair of fn in declared order:
// blocks in the outer loop, their instructions in the inner loop. The
// walk has no side effects and stops as soon as the consumer stops.
func Walk(fn Function) iter.Seq2[Block, Instruction] {
	return func(yield func(Block, Instruction) bool) {
		if fn == nil {
			return
		}
		for b := range fn.Blocks() {
			for instr := range b.Instructions() {
				if !yield(b, instr) {
					return
				}
			}
		}
	}
}

// IsIndirectCall reports whether instr is a call site with no statically
// known callee.
func IsIndirectCall(instr Instruction) bool {
	return instr != nil && instr.Kind() == KindIndirectCall
}
