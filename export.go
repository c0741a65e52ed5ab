package icall

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// WriteCSV writes one row per finding to w in CSV format, preceded by a
// header row.
func WriteCSV(w io.Writer, findings []Finding) error {
	cw := csv.NewWriter(w)
	cw.Comma = ','

	if err := cw.Write([]string{
		"func",
		"block",
		"file",
		"line",
		"column",
		"instr",
		"verdict",
	}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, f := range findings {
		var line, column string
		if f.Position.IsValid() {
			line = strconv.Itoa(f.Position.Line)
			column = strconv.Itoa(f.Position.Column)
		}

		if err := cw.Write([]string{
			f.Func,
			f.Block,
			f.Position.Filename,
			line,
			column,
			f.Instr,
			f.Verdict.String(),
		}); err != nil {
			return fmt.Errorf("failed to write finding: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// verdictColors are the Graphviz fill colors of call site nodes.
var verdictColors = map[Verdict]string{
	UnnamedBlock:  "gray90",
	DevirtCovered: "palegreen",
	PGOCovered:    "lightblue",
	Unexercised:   "lightyellow",
	Uncovered:     "salmon",
}

// WriteDOT writes the findings to w in the DOT format: one cluster per
// function, holding one node per call site filled by its verdict.
func WriteDOT(w io.Writer, findings []Finding) error {
	b := bufio.NewWriter(w)

	b.WriteString("digraph icall {\n")
	b.WriteString("\tgraph [fontname=\"Helvetica\", rankdir=LR];\n")
	b.WriteString("\tnode [fontname=\"Helvetica\", shape=box, style=filled];\n")

	// Findings of the same function are adjacent in audit order.
	cluster := -1
	for i, f := range findings {
		if i == 0 || findings[i-1].Func != f.Func {
			if cluster >= 0 {
				b.WriteString("\t}\n")
			}
			cluster++
			fmt.Fprintf(b, "\tsubgraph \"cluster_%d\" {\n", cluster)
			fmt.Fprintf(b, "\t\tlabel=%q;\n", f.Func)
		}

		label := f.Instr
		if f.Block != "" {
			label = f.Block + ": " + label
		}
		fmt.Fprintf(b, "\t\t\"s%d\" [label=%q, fillcolor=%q, tooltip=%q];\n", i, label, verdictColors[f.Verdict], f.Verdict.String())
	}
	if cluster >= 0 {
		b.WriteString("\t}\n")
	}

	b.WriteString("}\n")

	if err := b.Flush(); err != nil {
		return fmt.Errorf("failed to write dot: %w", err)
	}
	return nil
}
