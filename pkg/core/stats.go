/*
File: stats.go
Description: Campaign statistics for the Riven Fuzzer. Atomic counters updated
on the hot path and sampled periodically by monitors; the counters survive
restarts through the snapshot file, so reported totals span the whole campaign
rather than the current process.
*/

package core

import (
	"sync/atomic"
	"time"

	"github.com/rivenfuzz/riven-fuzzer/pkg/interfaces"
)

// Stats tracks campaign counters.
type Stats struct {
	executions uint64
	objectives uint64
	timeouts   uint64
	start      time.Time
	baseline   uint64 // Executions inherited from before the last restart
}

// NewStats creates a stats tracker starting now.
func NewStats() *Stats {
	return &Stats{start: time.Now()}
}

// RestoreExecutions seeds the execution total from a snapshot.
func (s *Stats) RestoreExecutions(total uint64) {
	atomic.StoreUint64(&s.executions, total)
	s.baseline = total
}

// IncExecutions bumps the execution counter and returns the new total.
func (s *Stats) IncExecutions() uint64 {
	return atomic.AddUint64(&s.executions, 1)
}

// Executions returns the campaign-wide execution total.
func (s *Stats) Executions() uint64 {
	return atomic.LoadUint64(&s.executions)
}

// IncObjectives bumps the distinct objective counter.
func (s *Stats) IncObjectives() {
	atomic.AddUint64(&s.objectives, 1)
}

// IncTimeouts bumps the timeout counter.
func (s *Stats) IncTimeouts() {
	atomic.AddUint64(&s.timeouts, 1)
}

// Snapshot assembles the monitor view. Execution rate is computed over this
// process's lifetime only, since the restart gap is not fuzzing time.
func (s *Stats) Snapshot(corpusCount, coverageEdges int) interfaces.CampaignStats {
	runtime := time.Since(s.start)
	execs := atomic.LoadUint64(&s.executions)
	rate := 0.0
	if secs := runtime.Seconds(); secs > 0 {
		rate = float64(execs-s.baseline) / secs
	}
	return interfaces.CampaignStats{
		Executions:    execs,
		ExecsPerSec:   rate,
		CorpusCount:   corpusCount,
		Objectives:    atomic.LoadUint64(&s.objectives),
		Timeouts:      atomic.LoadUint64(&s.timeouts),
		CoverageEdges: coverageEdges,
		Runtime:       runtime,
	}
}
