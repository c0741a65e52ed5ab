// Package valueprof answers profiling value record lookups for call sites
// from pprof profiles, such as the CPU profiles used for Go's
// profile-guided optimization.
//
// A call site has a record when any sampled stack holds a frame at its
// source line. The function in the frame directly above it, when there is
// one, is the observed call target and becomes a value of the record.
package valueprof

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/pprof/profile"
	"github.com/picatz/icall"
)

// DefaultMaxValues bounds the number of values kept per record.
const DefaultMaxValues = 100

// ErrNoProfiles is returned by Open when it is given no paths.
var ErrNoProfiles = errors.New("valueprof: no profiles given")

type key struct {
	file string
	line int64
}

type site struct {
	total  uint64
	values map[string]uint64
}

// Index is a lookup table from source lines to profiling value records.
// It is immutable once built and safe for concurrent use.
type Index struct {
	records    map[key]*icall.Record
	byBase     map[key][]string
	sampleType string
	trim       []string
}

type options struct {
	sampleType string
	trim       []string
	maxValues  int
}

// Option configures an Index.
type Option func(*options)

// WithSampleType selects the sample value counted into records, by type
// name (e.g. "samples" or "cpu"). By default "samples" is used if present,
// otherwise the profile's default sample type.
func WithSampleType(name string) Option {
	return func(o *options) {
		o.sampleType = name
	}
}

// WithTrimPrefix removes the given prefixes from file names, both in the
// profile and in looked up positions, like -trimpath does for binaries.
func WithTrimPrefix(prefixes ...string) Option {
	return func(o *options) {
		o.trim = append(o.trim, prefixes...)
	}
}

// WithMaxValues bounds the number of values kept per record, keeping the
// most frequent ones.
func WithMaxValues(n int) Option {
	return func(o *options) {
		o.maxValues = n
	}
}

// Open parses the pprof profiles at paths, merges them, and indexes the
// result. Compressed profiles are handled transparently.
func Open(paths []string, opts ...Option) (*Index, error) {
	if len(paths) == 0 {
		return nil, ErrNoProfiles
	}

	profs := make([]*profile.Profile, 0, len(paths))
	for _, p := range paths {
		prof, err := parseFile(p)
		if err != nil {
			return nil, err
		}
		profs = append(profs, prof)
	}

	prof := profs[0]
	if len(profs) > 1 {
		merged, err := profile.Merge(profs)
		if err != nil {
			return nil, fmt.Errorf("failed to merge profiles: %w", err)
		}
		prof = merged
	}

	return New(prof, opts...)
}

func parseFile(name string) (*profile.Profile, error) {
	fh, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile: %w", err)
	}
	defer fh.Close()

	prof, err := profile.Parse(fh)
	if err != nil {
		return nil, fmt.Errorf("failed to parse profile %q: %w", name, err)
	}
	return prof, nil
}

// New indexes prof.
func New(prof *profile.Profile, opts ...Option) (*Index, error) {
	o := options{maxValues: DefaultMaxValues}
	for _, opt := range opts {
		opt(&o)
	}

	idx, err := sampleIndex(prof, o.sampleType)
	if err != nil {
		return nil, err
	}

	ix := &Index{
		records:    make(map[key]*icall.Record),
		byBase:     make(map[key][]string),
		sampleType: prof.SampleType[idx].Type,
		trim:       o.trim,
	}

	sites := make(map[key]*site)

	for _, s := range prof.Sample {
		var v uint64
		if n := s.Value[idx]; n > 0 {
			v = uint64(n)
		}

		// Leaf first: the last line of a location is the caller its
		// preceding lines were inlined into.
		var frames []profile.Line
		for _, loc := range s.Location {
			frames = append(frames, loc.Line...)
		}

		// Recursive stacks visit a line more than once; count it once.
		seen := make(map[key]bool, len(frames))
		for i, fr := range frames {
			if fr.Function == nil || fr.Line <= 0 {
				continue
			}
			k := key{file: ix.normalize(fr.Function.Filename), line: fr.Line}
			if seen[k] {
				continue
			}
			seen[k] = true

			st := sites[k]
			if st == nil {
				st = &site{values: make(map[string]uint64)}
				sites[k] = st
			}
			st.total += v

			if i > 0 && frames[i-1].Function != nil {
				st.values[frames[i-1].Function.Name] += v
			}
		}
	}

	for k, st := range sites {
		ix.records[k] = st.record(o.maxValues)

		bk := key{file: path.Base(k.file), line: k.line}
		ix.byBase[bk] = append(ix.byBase[bk], k.file)
	}

	return ix, nil
}

func sampleIndex(prof *profile.Profile, name string) (int, error) {
	if len(prof.SampleType) == 0 {
		return 0, fmt.Errorf("valueprof: profile has no sample types")
	}
	if name == "" {
		for i, st := range prof.SampleType {
			if st.Type == "samples" {
				return i, nil
			}
		}
	}
	idx, err := prof.SampleIndexByName(name)
	if err != nil {
		return 0, fmt.Errorf("valueprof: %w", err)
	}
	return idx, nil
}

func (st *site) record(maxValues int) *icall.Record {
	rec := &icall.Record{Total: st.total}
	for name, count := range st.values {
		rec.Values = append(rec.Values, icall.Value{Value: name, Count: count})
	}
	slices.SortFunc(rec.Values, func(a, b icall.Value) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Value, b.Value)
	})
	if maxValues > 0 && len(rec.Values) > maxValues {
		rec.Values = rec.Values[:maxValues]
	}
	return rec
}

// normalize returns file with forward slashes and any trim prefix removed.
func (ix *Index) normalize(file string) string {
	file = filepath.ToSlash(file)
	for _, prefix := range ix.trim {
		if prefix == "" {
			continue
		}
		prefix = filepath.ToSlash(prefix)
		if rest, ok := strings.CutPrefix(file, prefix); ok {
			return strings.TrimPrefix(rest, "/")
		}
	}
	return file
}

// SampleType returns the name of the sample type counted into records.
func (ix *Index) SampleType() string {
	return ix.sampleType
}

// Len returns the number of source lines with a record.
func (ix *Index) Len() int {
	return len(ix.records)
}

// Lookup returns the record of the line instr is on. Instructions without
// a position never have one.
//
// The full file name is tried first. Otherwise, profiles built with a
// trimmed path or on another machine are matched by base name and line, as
// long as exactly one candidate file shares a path suffix with the
// position.
func (ix *Index) Lookup(instr icall.Instruction) (*icall.Record, bool) {
	pos := icall.PositionOf(instr)
	if !pos.IsValid() || pos.Line <= 0 {
		return nil, false
	}
	return ix.LookupLine(pos.Filename, int64(pos.Line))
}

// LookupLine returns the record of a source line.
func (ix *Index) LookupLine(file string, line int64) (*icall.Record, bool) {
	file = ix.normalize(file)

	if rec, ok := ix.records[key{file: file, line: line}]; ok {
		return rec, true
	}

	var match string
	for _, cand := range ix.byBase[key{file: path.Base(file), line: line}] {
		if !suffixMatch(cand, file) {
			continue
		}
		if match != "" {
			return nil, false // ambiguous
		}
		match = cand
	}
	if match == "" {
		return nil, false
	}

	rec, ok := ix.records[key{file: match, line: line}]
	return rec, ok
}

// suffixMatch reports whether one of a and b ends with the other, on a path
// element boundary.
func suffixMatch(a, b string) bool {
	if len(a) < len(b) {
		a, b = b, a
	}
	if !strings.HasSuffix(a, b) {
		return false
	}
	return len(a) == len(b) || b[0] == '/' || a[len(a)-len(b)-1] == '/'
}
