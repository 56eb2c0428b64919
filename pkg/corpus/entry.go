/*
File: entry.go
Description: Corpus entry type for the Riven Fuzzer. An entry couples an input
with the coverage and timing evidence that justified its acceptance, plus fixed
metadata slots for the generalized form, the comparison trace, and scheduler
bookkeeping. An open metadata bag is reserved for rare optional attachments.
*/

package corpus

import (
	"time"

	"github.com/rivenfuzz/riven-fuzzer/pkg/interfaces"
)

// Entry is one accepted corpus member. Entries are never mutated concurrently;
// the engine is single-flow per process.
type Entry struct {
	ID        string            `json:"id"`
	Input     *interfaces.Input `json:"input"`
	Coverage  []byte            `json:"-"`         // Edge snapshot that justified acceptance
	ExecTime  time.Duration     `json:"exec_time"` // Duration of the accepting execution
	ParentID  string            `json:"parent_id"` // Lineage (best effort)
	Stage     string            `json:"stage"`     // Stage that produced the input
	CreatedAt time.Time         `json:"created_at"`

	// Fixed metadata slots. Giving frequent attachments their own field
	// avoids runtime type dispatch through the open bag.
	CmpLog  []interfaces.CmpPair `json:"-"` // Comparison trace from the tracing stage
	Score   float64              `json:"score"`
	Favored bool                 `json:"favored"`

	// Metadata holds rare optional attachments only.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// NewEntry creates an entry for an input accepted with the given evidence.
func NewEntry(input *interfaces.Input, coverage []byte, execTime time.Duration) *Entry {
	cov := make([]byte, len(coverage))
	copy(cov, coverage)
	return &Entry{
		Input:     input,
		Coverage:  cov,
		ExecTime:  execTime,
		CreatedAt: time.Now(),
		Favored:   true,
	}
}

// Len returns the input length in bytes.
func (e *Entry) Len() int {
	if e.Input == nil {
		return 0
	}
	return len(e.Input.Bytes)
}
