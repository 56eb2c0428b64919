/*
File: types.go
Description: Core data types for the Riven Fuzzer engine. Defines the fundamental
structures used throughout the fuzzing process including inputs, generalized
input segments, execution outcomes, comparison traces, and configuration.
*/

package interfaces

import "time"

// Segment is one element of a generalized input form: either a run of fixed
// bytes that is load-bearing for coverage, or a gap standing for an
// arbitrary-length don't-care region.
type Segment struct {
	Bytes []byte `json:"bytes,omitempty"` // Fixed byte chunk (nil for gaps)
	Gap   bool   `json:"gap"`             // True if this segment is a don't-care gap
}

// Input is the mutable unit under evolution: a byte sequence plus an optional
// generalized structural form discovered by the generalization stage.
type Input struct {
	Bytes       []byte    `json:"bytes"`
	Generalized []Segment `json:"generalized,omitempty"`
}

// NewInput creates an input that owns a private copy of data.
func NewInput(data []byte) *Input {
	b := make([]byte, len(data))
	copy(b, data)
	return &Input{Bytes: b}
}

// Clone returns a deep copy. Inputs are passed by ownership between pipeline
// stages and must never be aliased mutably by two stages at once.
func (in *Input) Clone() *Input {
	c := NewInput(in.Bytes)
	if in.Generalized != nil {
		c.Generalized = CloneSegments(in.Generalized)
	}
	return c
}

// HasGeneralized reports whether a generalized form has been attached.
func (in *Input) HasGeneralized() bool {
	return len(in.Generalized) > 0
}

// CloneSegments deep-copies a generalized form.
func CloneSegments(segs []Segment) []Segment {
	out := make([]Segment, len(segs))
	for i, s := range segs {
		out[i].Gap = s.Gap
		if s.Bytes != nil {
			out[i].Bytes = append([]byte(nil), s.Bytes...)
		}
	}
	return out
}

// MaterializeSegments converts a generalized form back to raw bytes.
// Gaps resolve to the empty byte string.
func MaterializeSegments(segs []Segment) []byte {
	var out []byte
	for _, s := range segs {
		if !s.Gap {
			out = append(out, s.Bytes...)
		}
	}
	return out
}

// Outcome classifies a single target execution.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeCrashed
	OutcomeTimedOut
)

// String returns a human readable outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeCrashed:
		return "crashed"
	case OutcomeTimedOut:
		return "timed-out"
	default:
		return "unknown"
	}
}

// CmpPair is one operand pair captured at a comparison instruction during a
// traced execution. Left is the value derived from the input side, Right the
// value it was compared against.
type CmpPair struct {
	Left  []byte `json:"left"`
	Right []byte `json:"right"`
}

// ExecutionResult carries everything observed during one target execution.
// Observation fields are valid until the next execution populates new ones.
type ExecutionResult struct {
	Outcome     Outcome       `json:"outcome"`
	Duration    time.Duration `json:"duration"`
	Coverage    []byte        `json:"-"`            // Edge map snapshot (nil on timeout)
	CmpLog      []CmpPair     `json:"-"`            // Comparison trace (traced runs only)
	CrashOutput []byte        `json:"crash_output"` // Panic message and stack on crash
}

// ExecOptions selects per-execution behavior of the executor.
type ExecOptions struct {
	Timeout   time.Duration // Wall-clock budget for this execution
	TraceCmps bool          // Capture a comparison trace (slower)
}

// Config contains all configuration parameters for a fuzzing campaign.
type Config struct {
	// Directories
	InputDir  string `json:"input_dir"`  // Seed directory, read once when the corpus is empty
	CorpusDir string `json:"corpus_dir"` // Working corpus persistence, one file per entry
	CrashDir  string `json:"crash_dir"`  // Objective (crash) persistence

	// Dictionary
	TokensFile string `json:"tokens_file"` // Optional dictionary file

	// Execution
	Timeout      time.Duration `json:"timeout"`        // Per-execution budget (tracing runs get 10x)
	MaxInputSize int           `json:"max_input_size"` // Upper bound for mutated inputs

	// Campaign
	Seed          int64  `json:"seed"`           // PRNG seed (0 = derive from clock)
	MaxIterations uint64 `json:"max_iterations"` // Stop after this many loop iterations (0 = unbounded)

	// Snapshot channel shared between restarted child processes
	SnapshotPath string `json:"snapshot_path"`

	// Logging
	LogLevel        string        `json:"log_level"`
	LogFile         string        `json:"log_file"`
	JSONLogs        bool          `json:"json_logs"`
	MonitorInterval time.Duration `json:"monitor_interval"`
}

// DefaultTimeout is the per-execution wall-clock budget when none is given.
const DefaultTimeout = 12000 * time.Millisecond

// DefaultMaxInputSize bounds mutant growth during havoc and grimoire stages.
const DefaultMaxInputSize = 1 << 16
