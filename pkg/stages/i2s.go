/*
File: i2s.go
Description: Input-to-state stage for the Riven Fuzzer. For each comparison
operand pair recorded by the tracing stage, if the left operand appears
literally in the entry's bytes it is replaced with the right operand (and
vice versa), producing candidates that satisfy comparisons the entry
currently fails. This solves magic-value and keyword checks without any
symbolic reasoning.
*/

package stages

import (
	"bytes"
	"fmt"

	"github.com/rivenfuzz/riven-fuzzer/pkg/corpus"
	"github.com/rivenfuzz/riven-fuzzer/pkg/rng"
)

// maxI2SCandidates bounds the mutants submitted per entry per round.
const maxI2SCandidates = 64

// I2SStage performs input-to-state replacement mutations.
type I2SStage struct{}

// NewI2SStage creates the input-to-state stage.
func NewI2SStage() *I2SStage {
	return &I2SStage{}
}

// Name returns the stage name.
func (s *I2SStage) Name() string { return "i2s" }

// Perform submits one candidate per locatable operand pair, trying both
// replacement directions. Pairs whose operand does not occur in the input
// are skipped silently; the trace may be stale relative to the bytes.
func (s *I2SStage) Perform(c Campaign, entry *corpus.Entry) error {
	if len(entry.CmpLog) == 0 {
		return nil
	}
	r := c.Rand()
	submitted := 0
	for _, pair := range entry.CmpLog {
		if submitted >= maxI2SCandidates {
			break
		}
		if len(pair.Left) == 0 || len(pair.Right) == 0 {
			continue
		}
		if cand, ok := replaceOnce(r, entry.Input.Bytes, pair.Left, pair.Right); ok {
			if err := c.RunCandidate(entry.ID, cand, nil, s.Name()); err != nil {
				return fmt.Errorf("i2s candidate failed: %w", err)
			}
			submitted++
			continue
		}
		if cand, ok := replaceOnce(r, entry.Input.Bytes, pair.Right, pair.Left); ok {
			if err := c.RunCandidate(entry.ID, cand, nil, s.Name()); err != nil {
				return fmt.Errorf("i2s candidate failed: %w", err)
			}
			submitted++
		}
	}
	return nil
}

// replaceOnce replaces one occurrence of from with to. When from occurs more
// than once a random occurrence is chosen so repeated rounds cover them all.
func replaceOnce(r *rng.Rand, data, from, to []byte) ([]byte, bool) {
	count := bytes.Count(data, from)
	if count == 0 {
		return nil, false
	}
	target := r.Intn(count)
	idx := 0
	for i := 0; i <= target; i++ {
		off := bytes.Index(data[idx:], from)
		if off < 0 {
			return nil, false
		}
		idx += off
		if i < target {
			idx += len(from)
		}
	}
	out := make([]byte, 0, len(data)-len(from)+len(to))
	out = append(out, data[:idx]...)
	out = append(out, to...)
	out = append(out, data[idx+len(from):]...)
	return out, true
}
