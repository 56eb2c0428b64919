/*
File: interfaces.go
Description: Central contracts for the Riven Fuzzer. Defines the interfaces that
connect the executor, feedback engine, scheduler, and monitor so that each
concern stays pluggable while the engine owns the single fuzzing flow.
*/

package interfaces

import "time"

// Executor runs the target on one candidate input, enforcing a wall-clock
// timeout, and maps the target outcome to Completed, Crashed, or TimedOut.
// Observation channels attached to the executor are populated exactly once
// per call and stay valid only until the next call.
type Executor interface {
	// Execute runs the target once on data.
	Execute(data []byte, opts ExecOptions) (*ExecutionResult, error)
}

// Feedback decides whether one execution's observations are interesting.
// Implementations may keep cumulative state (for example the coverage bitmap)
// and update it during IsInteresting. Evaluation must never fail: internal
// inconsistency is reported as "not interesting" to keep the loop alive.
type Feedback interface {
	// Name returns the feedback's identifier for logging.
	Name() string
	// IsInteresting evaluates one execution result and updates internal state.
	IsInteresting(res *ExecutionResult) bool
}

// Scheduler chooses which corpus entry to mutate next.
type Scheduler interface {
	// Add registers a newly accepted corpus entry id.
	Add(id string)
	// Next returns the next entry id to fuzz. Returns an error only when the
	// scheduler is empty, which the engine treats as a fatal invariant
	// violation once seeds have been loaded.
	Next() (string, error)
	// Count returns the number of scheduled entries.
	Count() int
	// OnExecution is invoked after every target execution with the running
	// total; minimizing schedulers use it as their re-scoring cadence.
	OnExecution(total uint64)
}

// Monitor is a pure reporting sink invoked periodically with campaign
// statistics. It feeds nothing back into the loop.
type Monitor interface {
	// Report receives a statistics update.
	Report(stats CampaignStats)
}

// CampaignStats is the snapshot handed to monitors.
type CampaignStats struct {
	Executions    uint64        `json:"executions"`
	ExecsPerSec   float64       `json:"execs_per_sec"`
	CorpusCount   int           `json:"corpus_count"`
	Objectives    uint64        `json:"objectives"`
	Timeouts      uint64        `json:"timeouts"`
	CoverageEdges int           `json:"coverage_edges"`
	Runtime       time.Duration `json:"runtime"`
}
