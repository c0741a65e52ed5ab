package icall_test

import (
	"bytes"
	"encoding/csv"
	"go/token"
	"strings"
	"testing"

	"github.com/picatz/icall"
)

func sampleFindings() []icall.Finding {
	fn := function("main.run")
	call := indirect("t1()")
	call.pos = token.Position{Filename: "main.go", Line: 7, Column: 3}

	return []icall.Finding{
		icall.NewFinding(icall.Site{Func: fn, Block: named("if.then"), Instr: call}, icall.Uncovered),
		icall.NewFinding(icall.Site{Func: fn, Block: unnamed(), Instr: indirect("invoke x.M()")}, icall.UnnamedBlock),
		icall.NewFinding(icall.Site{Func: function("main.other"), Block: named("default_indirect"), Instr: indirect("t0()")}, icall.DevirtCovered),
	}
}

func TestNewFinding(t *testing.T) {
	f := sampleFindings()[0]

	want := icall.Finding{
		Func:     "main.run",
		Block:    "if.then",
		Instr:    "t1()",
		Position: token.Position{Filename: "main.go", Line: 7, Column: 3},
		Verdict:  icall.Uncovered,
	}
	if f != want {
		t.Fatalf("got %+v, want %+v", f, want)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := icall.WriteCSV(&buf, sampleFindings()); err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4", len(records))
	}

	if got := strings.Join(records[0], ","); got != "func,block,file,line,column,instr,verdict" {
		t.Fatalf("unexpected header %q", got)
	}
	if got := strings.Join(records[1], ","); got != "main.run,if.then,main.go,7,3,t1(),uncovered" {
		t.Fatalf("unexpected row %q", got)
	}
	if got := strings.Join(records[2], ","); got != "main.run,,,,,invoke x.M(),unnamed-block" {
		t.Fatalf("unexpected row %q", got)
	}
}

func TestWriteDOT(t *testing.T) {
	var buf bytes.Buffer
	if err := icall.WriteDOT(&buf, sampleFindings()); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "digraph icall {\n") || !strings.HasSuffix(out, "}\n") {
		t.Fatalf("not a digraph:\n%s", out)
	}
	if n := strings.Count(out, "subgraph"); n != 2 {
		t.Fatalf("got %d clusters, want 2:\n%s", n, out)
	}
	for _, want := range []string{
		`label="main.run";`,
		`label="main.other";`,
		`"s0" [label="if.then: t1()", fillcolor="salmon", tooltip="uncovered"];`,
		`"s1" [label="invoke x.M()", fillcolor="gray90", tooltip="unnamed-block"];`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in:\n%s", want, out)
		}
	}
}

func TestWriteDOTEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := icall.WriteDOT(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "subgraph") {
		t.Fatalf("unexpected cluster:\n%s", buf.String())
	}
}
