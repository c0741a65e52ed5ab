package icall

import (
	"fmt"
	"go/token"
	"io"
)

// Site is an indirect call site, as handed from the filter to the classifier.
type Site struct {
	Func  Function
	Block Block
	Instr Instruction
}

// Emitter receives every uncovered call site as soon as it is classified.
type Emitter interface {
	Emit(site Site)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(site Site)

// Emit calls f(site).
func (f EmitterFunc) Emit(site Site) {
	f(site)
}

// TextEmitter returns an Emitter writing one line per uncovered call site
// to w: the textual representation of the instruction, prefixed with its
// source position when it has one.
func TextEmitter(w io.Writer) Emitter {
	return EmitterFunc(func(site Site) {
		pos := PositionOf(site.Instr)
		if pos.IsValid() {
			fmt.Fprintf(w, "%s: %s\n", pos, site.Instr)
			return
		}
		fmt.Fprintf(w, "%s\n", site.Instr)
	})
}

// Finding is the flattened, printable verdict of a single call site.
type Finding struct {
	Func     string
	Block    string
	Instr    string
	Position token.Position
	Verdict  Verdict
}

// NewFinding flattens site and its verdict into a Finding.
func NewFinding(site Site, v Verdict) Finding {
	f := Finding{
		Instr:    site.Instr.String(),
		Position: PositionOf(site.Instr),
		Verdict:  v,
	}
	if site.Func != nil {
		f.Func = site.Func.Name()
	}
	if site.Block != nil {
		f.Block, _ = site.Block.Name()
	}
	return f
}
