// Package ssair adapts Go SSA form (golang.org/x/tools/go/ssa) to the
// program representation audited by package icall.
//
// Block names are the comments the SSA builder gives each block, such as
// "entry", "if.then" or "for.body".
package ssair

import (
	"fmt"
	"go/token"
	"iter"

	"github.com/picatz/icall"
	"golang.org/x/tools/go/ssa"
)

// Function adapts an *ssa.Function to icall.Function.
type Function struct {
	fn *ssa.Function
}

// NewFunction returns the icall view of fn.
func NewFunction(fn *ssa.Function) *Function {
	return &Function{fn: fn}
}

// Functions adapts every function of fns.
func Functions(fns []*ssa.Function) []icall.Function {
	out := make([]icall.Function, 0, len(fns))
	for _, fn := range fns {
		out = append(out, NewFunction(fn))
	}
	return out
}

// SSA returns the underlying SSA function.
func (f *Function) SSA() *ssa.Function {
	return f.fn
}

// Name returns the fully qualified name of the function.
func (f *Function) Name() string {
	return f.fn.String()
}

// Blocks yields the basic blocks of the function in index order. External
// functions have no blocks.
func (f *Function) Blocks() iter.Seq[icall.Block] {
	return func(yield func(icall.Block) bool) {
		fset := fileSet(f.fn)
		for _, b := range f.fn.Blocks {
			if !yield(&Block{b: b, fset: fset}) {
				return
			}
		}
	}
}

// Block adapts an *ssa.BasicBlock to icall.Block.
type Block struct {
	b    *ssa.BasicBlock
	fset *token.FileSet
}

// SSA returns the underlying SSA block.
func (b *Block) SSA() *ssa.BasicBlock {
	return b.b
}

// Name returns the comment of the block; blocks without one are unnamed.
func (b *Block) Name() (string, bool) {
	return b.b.Comment, b.b.Comment != ""
}

// Instructions yields the instructions of the block in order.
func (b *Block) Instructions() iter.Seq[icall.Instruction] {
	return func(yield func(icall.Instruction) bool) {
		for _, instr := range b.b.Instrs {
			if !yield(NewInstruction(instr, b.fset)) {
				return
			}
		}
	}
}

// Instruction adapts an ssa.Instruction to icall.Instruction. Its kind is
// resolved once, on construction.
type Instruction struct {
	instr ssa.Instruction
	kind  icall.Kind
	fset  *token.FileSet
}

// NewInstruction returns the icall view of instr. The file set is used to
// resolve positions and may be nil.
func NewInstruction(instr ssa.Instruction, fset *token.FileSet) *Instruction {
	return &Instruction{
		instr: instr,
		kind:  KindOf(instr),
		fset:  fset,
	}
}

// SSA returns the underlying SSA instruction.
func (i *Instruction) SSA() ssa.Instruction {
	return i.instr
}

// Kind returns the call kind of the instruction.
func (i *Instruction) Kind() icall.Kind {
	return i.kind
}

// String returns the instruction the way ssa.Function.WriteTo prints it.
func (i *Instruction) String() string {
	if v, ok := i.instr.(ssa.Value); ok && v.Name() != "" {
		return fmt.Sprintf("%s = %s", v.Name(), i.instr)
	}
	return i.instr.String()
}

// Position returns the source position of the instruction, which is the
// zero position for synthetic instructions.
func (i *Instruction) Position() token.Position {
	if i.fset == nil {
		return token.Position{}
	}
	return i.fset.Position(i.instr.Pos())
}

// KindOf resolves the call kind of an SSA instruction.
//
// Calls, go and defer statements are call sites. A site is direct when its
// callee is a static function, including closures built in place, or a
// builtin; interface method invocations and calls through function values
// are indirect.
func KindOf(instr ssa.Instruction) icall.Kind {
	site, ok := instr.(ssa.CallInstruction)
	if !ok {
		return icall.KindOther
	}

	common := site.Common()
	if common.IsInvoke() {
		return icall.KindIndirectCall
	}

	if common.StaticCallee() != nil {
		return icall.KindDirectCall
	}

	if _, ok := common.Value.(*ssa.Builtin); ok {
		return icall.KindDirectCall
	}

	return icall.KindIndirectCall
}

func fileSet(fn *ssa.Function) *token.FileSet {
	if fn == nil || fn.Prog == nil {
		return nil
	}
	return fn.Prog.Fset
}
