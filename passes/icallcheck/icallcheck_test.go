package icallcheck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/pprof/profile"
	"github.com/picatz/icall"
	"golang.org/x/tools/go/analysis/analysistest"
)

var testdata = analysistest.TestData()

// setFlag sets an analyzer flag for the duration of the test.
func setFlag(t *testing.T, name, value string) {
	t.Helper()

	old := Analyzer.Flags.Lookup(name).Value.String()
	if err := Analyzer.Flags.Set(name, value); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		Analyzer.Flags.Set(name, old)
	})
}

// writeProfile writes a CPU profile with one sample at each of the given
// lines of file, and returns its path.
func writeProfile(t *testing.T, file string, lines ...int64) string {
	t.Helper()

	fn := &profile.Function{ID: 1, Name: "b.run", Filename: file}
	prof := &profile.Profile{
		SampleType: []*profile.ValueType{{Type: "samples", Unit: "count"}},
		PeriodType: &profile.ValueType{Type: "cpu", Unit: "nanoseconds"},
		Period:     10000000,
		Function:   []*profile.Function{fn},
	}
	for i, line := range lines {
		loc := &profile.Location{ID: uint64(i + 1), Line: []profile.Line{{Function: fn, Line: line}}}
		prof.Location = append(prof.Location, loc)
		prof.Sample = append(prof.Sample, &profile.Sample{Location: []*profile.Location{loc}, Value: []int64{1}})
	}

	path := filepath.Join(t.TempDir(), "cpu.pprof")
	fh, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer fh.Close()

	if err := prof.Write(fh); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNoProfile(t *testing.T) {
	results := analysistest.Run(t, testdata, Analyzer, "a")

	c := results[0].Result.(*icall.Counters)
	if c.Total != 2 || c.Unexercised != 2 {
		t.Fatalf("got %+v, want 2 unexercised indirect calls", c)
	}
}

func TestProfile(t *testing.T) {
	setFlag(t, "profile", writeProfile(t, "b/b.go", 8, 12))
	setFlag(t, "pgo-prefix", "if.then")

	results := analysistest.Run(t, testdata, Analyzer, "b")

	c := results[0].Result.(*icall.Counters)
	want := icall.Counters{Total: 3, PGOCovered: 1, Unexercised: 1, Uncovered: 1}
	if *c != want {
		t.Fatalf("got %+v, want %+v", *c, want)
	}
}
