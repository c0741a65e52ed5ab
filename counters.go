package icall

import (
	"bufio"
	"fmt"
	"io"
)

// Counters aggregates verdicts across every analyzed function.
//
// Total always equals the sum of the five verdict counters once a call site
// has been recorded. The zero value is ready to use.
type Counters struct {
	Total         uint64
	DevirtCovered uint64
	PGOCovered    uint64
	Unexercised   uint64
	Uncovered     uint64
	UnnamedBlock  uint64
}

// IncrementTotal counts one more indirect call.
func (c *Counters) IncrementTotal() {
	c.Total++
}

// Record counts the verdict of an indirect call already included in Total.
func (c *Counters) Record(v Verdict) {
	switch v {
	case UnnamedBlock:
		c.UnnamedBlock++
	case DevirtCovered:
		c.DevirtCovered++
	case PGOCovered:
		c.PGOCovered++
	case Unexercised:
		c.Unexercised++
	case Uncovered:
		c.Uncovered++
	}
}

// Merge adds the counts of other into c.
func (c *Counters) Merge(other Counters) {
	c.Total += other.Total
	c.DevirtCovered += other.DevirtCovered
	c.PGOCovered += other.PGOCovered
	c.Unexercised += other.Unexercised
	c.Uncovered += other.Uncovered
	c.UnnamedBlock += other.UnnamedBlock
}

// Count returns the counter of the given verdict.
func (c Counters) Count(v Verdict) uint64 {
	switch v {
	case UnnamedBlock:
		return c.UnnamedBlock
	case DevirtCovered:
		return c.DevirtCovered
	case PGOCovered:
		return c.PGOCovered
	case Unexercised:
		return c.Unexercised
	case Uncovered:
		return c.Uncovered
	default:
		return 0
	}
}

// Consistent reports whether the grand total matches the verdict counters.
func (c Counters) Consistent() bool {
	return c.Total == c.DevirtCovered+c.PGOCovered+c.Unexercised+c.Uncovered+c.UnnamedBlock
}

// Report writes the four line summary of the audit to w. It does not modify
// the counters.
func (c Counters) Report(w io.Writer) error {
	b := bufio.NewWriter(w)

	fmt.Fprintf(b, "Num Indirect Call:%d\n", c.Total)
	fmt.Fprintf(b, "Num Indirect Call covered by devirt:%d\n", c.DevirtCovered)
	fmt.Fprintf(b, "Num Indirect Call covered by PGO:%d\n", c.PGOCovered)
	fmt.Fprintf(b, "Num Indirect Call not covered but also not exercised:%d\n", c.Unexercised)

	if err := b.Flush(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
