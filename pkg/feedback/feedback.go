/*
File: feedback.go
Description: Feedback engine for the Riven Fuzzer. Implements maximizing map
feedback over the cumulative coverage bitmap, a time feedback that rides along
with novelty votes, the crash objective feedback, and OR-composition that
always evaluates every member so stateful feedbacks keep their state current.
*/

package feedback

import (
	"encoding/base64"
	"sync/atomic"
	"time"

	"github.com/rivenfuzz/riven-fuzzer/pkg/interfaces"
	"github.com/rivenfuzz/riven-fuzzer/pkg/observers"
)

// MapFeedback is the coverage novelty detector. It keeps a cumulative bitmap
// of every edge ever observed; an execution is interesting iff it touches at
// least one previously-unset edge. Bits are never cleared (maximization).
type MapFeedback struct {
	cumulative []byte
	edges      uint64 // read by the monitor goroutine, kept atomic
}

// NewMapFeedback creates a map feedback with an empty cumulative bitmap.
func NewMapFeedback() *MapFeedback {
	return &MapFeedback{cumulative: make([]byte, observers.MapSize)}
}

// Name returns the feedback identifier.
func (f *MapFeedback) Name() string { return "max-map" }

// IsInteresting unions the execution's coverage into the cumulative bitmap
// and reports whether any new edge was set. Timed-out executions carry no
// observations and are never interesting.
func (f *MapFeedback) IsInteresting(res *interfaces.ExecutionResult) bool {
	if res == nil || res.Outcome == interfaces.OutcomeTimedOut || res.Coverage == nil {
		return false
	}
	novel := false
	n := len(res.Coverage)
	if n > len(f.cumulative) {
		n = len(f.cumulative)
	}
	for i := 0; i < n; i++ {
		if res.Coverage[i] != 0 && f.cumulative[i] == 0 {
			f.cumulative[i] = 1
			atomic.AddUint64(&f.edges, 1)
			novel = true
		}
	}
	return novel
}

// EdgeCount returns the number of distinct edges ever observed. Safe to call
// from the monitor goroutine while the fuzz loop evaluates.
func (f *MapFeedback) EdgeCount() int { return int(atomic.LoadUint64(&f.edges)) }

// ExportBitmap serializes the cumulative bitmap for snapshots.
func (f *MapFeedback) ExportBitmap() string {
	return base64.StdEncoding.EncodeToString(f.cumulative)
}

// RestoreBitmap rehydrates the cumulative bitmap from a snapshot.
func (f *MapFeedback) RestoreBitmap(encoded string) error {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return err
	}
	f.cumulative = make([]byte, observers.MapSize)
	copy(f.cumulative, raw)
	var edges uint64
	for _, v := range f.cumulative {
		if v != 0 {
			edges++
		}
	}
	atomic.StoreUint64(&f.edges, edges)
	return nil
}

// TimeFeedback records execution durations as metadata riders. It carries no
// novelty of its own: it never independently votes interesting, it only rides
// along when another feedback in the OR set says yes.
type TimeFeedback struct {
	last interfaces.ExecutionResult
}

// NewTimeFeedback creates a time feedback.
func NewTimeFeedback() *TimeFeedback { return &TimeFeedback{} }

// Name returns the feedback identifier.
func (f *TimeFeedback) Name() string { return "time" }

// IsInteresting stores the duration for later attachment and declines to vote.
func (f *TimeFeedback) IsInteresting(res *interfaces.ExecutionResult) bool {
	if res != nil {
		f.last = *res
	}
	return false
}

// LastDuration returns the duration recorded from the most recent evaluation.
func (f *TimeFeedback) LastDuration() time.Duration {
	return f.last.Duration
}

// CrashFeedback is the objective detector: an execution is an objective iff
// the executor reported a crash.
type CrashFeedback struct{}

// NewCrashFeedback creates a crash feedback.
func NewCrashFeedback() *CrashFeedback { return &CrashFeedback{} }

// Name returns the feedback identifier.
func (f *CrashFeedback) Name() string { return "crash" }

// IsInteresting reports whether the target crashed.
func (f *CrashFeedback) IsInteresting(res *interfaces.ExecutionResult) bool {
	return res != nil && res.Outcome == interfaces.OutcomeCrashed
}

// CombinedFeedback ORs a fixed ordered list of feedbacks. Every member is
// evaluated on every call, even after one has already voted yes, because some
// feedbacks carry side-effecting state updates.
type CombinedFeedback struct {
	members []interfaces.Feedback
}

// NewCombinedFeedback creates an OR-composition over the given feedbacks.
func NewCombinedFeedback(members ...interfaces.Feedback) *CombinedFeedback {
	return &CombinedFeedback{members: members}
}

// Name returns the feedback identifier.
func (f *CombinedFeedback) Name() string { return "or" }

// IsInteresting evaluates all members without short-circuiting and returns
// the logical OR of their votes.
func (f *CombinedFeedback) IsInteresting(res *interfaces.ExecutionResult) bool {
	interesting := false
	for _, m := range f.members {
		if m.IsInteresting(res) {
			interesting = true
		}
	}
	return interesting
}
