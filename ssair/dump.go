package ssair

import (
	"bufio"
	"fmt"
	"io"

	"github.com/picatz/icall"
	"golang.org/x/tools/go/ssa"
)

// Dump writes fn to w block by block, with the name of every block and the
// kind of every call site, which is what an audit policy is matched against.
func Dump(w io.Writer, fn *ssa.Function) error {
	b := bufio.NewWriter(w)

	fmt.Fprintf(b, "func %s\n", fn)
	if len(fn.Blocks) == 0 {
		b.WriteString("\t(external)\n")
	}

	for _, block := range fn.Blocks {
		name := block.Comment
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Fprintf(b, "%d: %s\n", block.Index, name)

		for _, instr := range block.Instrs {
			in := NewInstruction(instr, fileSet(fn))
			switch in.Kind() {
			case icall.KindOther:
				fmt.Fprintf(b, "\t%s\n", in)
			default:
				fmt.Fprintf(b, "\t%s\t; %s call\n", in, in.Kind())
			}
		}
	}
	b.WriteString("\n")

	if err := b.Flush(); err != nil {
		return fmt.Errorf("failed to dump %s: %w", fn, err)
	}
	return nil
}
