package icall

import (
	"errors"
	"fmt"
	"strings"
)

// Verdict is the classification of a single indirect call site.
type Verdict uint8

const (
	// UnnamedBlock means the enclosing block has no name, so no claim about
	// coverage can be made either way.
	UnnamedBlock Verdict = iota
	// DevirtCovered means the call sits in the fallback block of a
	// devirtualization pass.
	DevirtCovered
	// PGOCovered means the call sits in the fallback branch of
	// profile-guided indirect call promotion.
	PGOCovered
	// Unexercised means the call was never observed executing under the
	// profiling workload.
	Unexercised
	// Uncovered means the call executes in practice and nothing accounts
	// for it.
	Uncovered
)

// Verdicts lists every verdict in precedence order.
var Verdicts = []Verdict{UnnamedBlock, DevirtCovered, PGOCovered, Unexercised, Uncovered}

// String returns the stable label of the verdict.
func (v Verdict) String() string {
	switch v {
	case UnnamedBlock:
		return "unnamed-block"
	case DevirtCovered:
		return "devirt-covered"
	case PGOCovered:
		return "pgo-covered"
	case Unexercised:
		return "unexercised"
	case Uncovered:
		return "uncovered"
	default:
		return fmt.Sprintf("verdict(%d)", uint8(v))
	}
}

// ErrInvalidPolicy is returned by Policy.Validate.
var ErrInvalidPolicy = errors.New("icall: invalid policy")

// Policy holds the block naming conventions that signal coverage. Matching
// is a literal, case-sensitive prefix test on the block name; an empty
// prefix disables its rule.
type Policy struct {
	// DevirtPrefix starts the name of the fallback block a devirtualization
	// pass creates for calls it could not resolve.
	DevirtPrefix string
	// PGOPrefix starts the name of the fallback branch created by
	// profile-guided indirect call promotion.
	PGOPrefix string
}

// DefaultPolicy uses the block names emitted by the devirtualization and
// PGO indirect call promotion passes of the LLVM based pipeline.
var DefaultPolicy = Policy{
	DevirtPrefix: "default_indirect",
	PGOPrefix:    "if.false",
}

// Validate reports whether the policy can tell its two rules apart.
func (p Policy) Validate() error {
	if p.DevirtPrefix != "" && p.DevirtPrefix == p.PGOPrefix {
		return fmt.Errorf("%w: devirt and pgo prefixes are both %q", ErrInvalidPolicy, p.DevirtPrefix)
	}
	return nil
}

// Classify returns the verdict for an indirect call instr found in block.
// Rules are evaluated in order and the first match wins, so the profile is
// only consulted when no naming convention applies. A nil lookup behaves
// like a profile that has no record for any instruction.
func (p Policy) Classify(block Block, instr Instruction, lookup ProfileLookup) Verdict {
	name, ok := block.Name()
	if !ok || name == "" {
		return UnnamedBlock
	}

	if p.DevirtPrefix != "" && strings.HasPrefix(name, p.DevirtPrefix) {
		return DevirtCovered
	}

	if p.PGOPrefix != "" && strings.HasPrefix(name, p.PGOPrefix) {
		return PGOCovered
	}

	if lookup == nil {
		return Unexercised
	}
	if _, ok := lookup.Lookup(instr); !ok {
		return Unexercised
	}

	return Uncovered
}
