package icall

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Auditor runs the audit pipeline: walk, filter, classify, count.
type Auditor struct {
	// Policy holds the naming conventions recognized as coverage.
	Policy Policy

	// Profile is consulted for calls no naming convention covers. A nil
	// profile classifies every such call as unexercised.
	Profile ProfileLookup

	// Emitter, if set, receives every uncovered call site immediately.
	Emitter Emitter

	// Observe, if set, is called with every indirect call site and its
	// verdict, after the counters are updated.
	Observe func(site Site, v Verdict)

	// Jobs is the number of functions analyzed concurrently by Run.
	// Values below 2 analyze functions one at a time, in order.
	Jobs int
}

// Function audits every indirect call of fn, recording into c.
func (a *Auditor) Function(fn Function, c *Counters) {
	for b, instr := range Walk(fn) {
		if !IsIndirectCall(instr) {
			continue
		}

		// Counted before classification, even when the block turns out
		// to be unnamed.
		c.IncrementTotal()

		v := a.Policy.Classify(b, instr, a.Profile)
		c.Record(v)

		site := Site{Func: fn, Block: b, Instr: instr}
		if v == Uncovered && a.Emitter != nil {
			a.Emitter.Emit(site)
		}
		if a.Observe != nil {
			a.Observe(site, v)
		}
	}
}

// Run audits fns and returns the merged counters.
//
// Cancellation is checked between functions; on cancellation the counters
// merged so far are returned along with the context's error, and they are
// still consistent.
func (a *Auditor) Run(ctx context.Context, fns []Function) (Counters, error) {
	var total Counters

	if err := a.Policy.Validate(); err != nil {
		return total, err
	}

	logger := FromContext(ctx).WithPrefix("audit")
	logger.Debug("policy: devirt=%q pgo=%q, profile=%t, jobs=%d", a.Policy.DevirtPrefix, a.Policy.PGOPrefix, a.Profile != nil, a.Jobs)

	tracker := NewProgressTracker(WithLogger(ctx, logger), "auditing functions", len(fns))

	if a.Jobs < 2 {
		for _, fn := range fns {
			if err := ctx.Err(); err != nil {
				return total, err
			}
			a.Function(fn, &total)
			tracker.Update(fn.Name())
		}
		tracker.Complete()
		return total, nil
	}

	var (
		mu     sync.Mutex // guards total and tracker
		emitMu sync.Mutex // serializes Emitter and Observe
	)

	worker := *a
	if a.Emitter != nil {
		worker.Emitter = EmitterFunc(func(site Site) {
			emitMu.Lock()
			defer emitMu.Unlock()
			a.Emitter.Emit(site)
		})
	}
	if a.Observe != nil {
		worker.Observe = func(site Site, v Verdict) {
			emitMu.Lock()
			defer emitMu.Unlock()
			a.Observe(site, v)
		}
	}

	s := semaphore.NewWeighted(int64(a.Jobs))
	eg, egCtx := errgroup.WithContext(ctx)

	for _, fn := range fns {
		if err := s.Acquire(egCtx, 1); err != nil {
			break
		}
		eg.Go(func() error {
			defer s.Release(1)

			// Per-function tally, merged in one step so the merged
			// counters never observe a half-classified call.
			var local Counters
			worker.Function(fn, &local)

			mu.Lock()
			total.Merge(local)
			tracker.Update(fn.Name())
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return total, fmt.Errorf("failed to audit functions: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return total, err
	}

	tracker.Complete()
	return total, nil
}
