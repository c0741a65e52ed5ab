package icall_test

import (
	"go/token"
	"iter"

	"github.com/picatz/icall"
)

type fakeInstr struct {
	kind icall.Kind
	text string
	pos  token.Position
}

func (i *fakeInstr) Kind() icall.Kind         { return i.kind }
func (i *fakeInstr) String() string           { return i.text }
func (i *fakeInstr) Position() token.Position { return i.pos }

type fakeBlock struct {
	name   string
	named  bool
	instrs []icall.Instruction
}

func (b *fakeBlock) Name() (string, bool) { return b.name, b.named }

func (b *fakeBlock) Instructions() iter.Seq[icall.Instruction] {
	return func(yield func(icall.Instruction) bool) {
		for _, instr := range b.instrs {
			if !yield(instr) {
				return
			}
		}
	}
}

type fakeFunc struct {
	name   string
	blocks []icall.Block
}

func (f *fakeFunc) Name() string { return f.name }

func (f *fakeFunc) Blocks() iter.Seq[icall.Block] {
	return func(yield func(icall.Block) bool) {
		for _, b := range f.blocks {
			if !yield(b) {
				return
			}
		}
	}
}

func named(name string, instrs ...icall.Instruction) *fakeBlock {
	return &fakeBlock{name: name, named: true, instrs: instrs}
}

func unnamed(instrs ...icall.Instruction) *fakeBlock {
	return &fakeBlock{instrs: instrs}
}

func indirect(text string) *fakeInstr {
	return &fakeInstr{kind: icall.KindIndirectCall, text: text}
}

func direct(text string) *fakeInstr {
	return &fakeInstr{kind: icall.KindDirectCall, text: text}
}

func other(text string) *fakeInstr {
	return &fakeInstr{kind: icall.KindOther, text: text}
}

func function(name string, blocks ...icall.Block) *fakeFunc {
	return &fakeFunc{name: name, blocks: blocks}
}

// profileOf returns a lookup that has a record, with no values, for each of
// the given instructions only.
func profileOf(instrs ...icall.Instruction) icall.ProfileLookup {
	present := make(map[icall.Instruction]bool, len(instrs))
	for _, instr := range instrs {
		present[instr] = true
	}
	return icall.ProfileLookupFunc(func(instr icall.Instruction) (*icall.Record, bool) {
		if !present[instr] {
			return nil, false
		}
		return &icall.Record{}, true
	})
}
