package icall

import (
	"go/token"
	"iter"
)

// Kind classifies an instruction for the purposes of the audit. It is
// resolved once per instruction by whatever adapts a program representation
// to this package.
type Kind uint8

const (
	// KindOther is any instruction that is not a call site.
	KindOther Kind = iota
	// KindDirectCall is a call site with a statically known callee.
	KindDirectCall
	// KindIndirectCall is a call site whose callee is only known at runtime.
	KindIndirectCall
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindOther:
		return "other"
	case KindDirectCall:
		return "direct"
	case KindIndirectCall:
		return "indirect"
	default:
		return "unknown"
	}
}

// Function is an ordered sequence of basic blocks.
type Function interface {
	Name() string
	Blocks() iter.Seq[Block]
}

// Block is an ordered sequence of instructions. A block may have no name,
// which is a legitimate state and not an error.
type Block interface {
	Name() (string, bool)
	Instructions() iter.Seq[Instruction]
}

// Instruction is a node of a block in program order.
type Instruction interface {
	Kind() Kind

	// String returns the textual representation of the instruction,
	// used to identify uncovered call sites.
	String() string
}

// Positioner is implemented by instructions that know their source position.
type Positioner interface {
	Position() token.Position
}

// PositionOf returns the source position of the instruction, or the zero
// position if it has none.
func PositionOf(instr Instruction) token.Position {
	if p, ok := instr.(Positioner); ok {
		return p.Position()
	}
	return token.Position{}
}

// Value is a single observation of a profiling value record, such as an
// indirect call target and how many times it was seen.
type Value struct {
	Value string
	Count uint64
}

// Record is the profiling value record attached to an instruction. A present
// record with zero values is still present.
type Record struct {
	Values []Value
	Total  uint64
}

// ProfileLookup retrieves the profiling value record of an instruction,
// reporting absence with ok == false.
type ProfileLookup interface {
	Lookup(instr Instruction) (rec *Record, ok bool)
}

// ProfileLookupFunc adapts a function to the ProfileLookup interface.
type ProfileLookupFunc func(instr Instruction) (*Record, bool)

// Lookup calls f(instr).
func (f ProfileLookupFunc) Lookup(instr Instruction) (*Record, bool) {
	return f(instr)
}
