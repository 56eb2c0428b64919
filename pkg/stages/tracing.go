/*
File: tracing.go
Description: Comparison tracing stage for the Riven Fuzzer. Re-executes the
selected entry once with comparison logging armed and attaches the observed
operand pairs to the entry. The trace feeds the input-to-state stage; entries
are traced at most once, with the extended tracing timeout so instrumentation
overhead does not misclassify the run as a hang.
*/

package stages

import (
	"fmt"

	"github.com/rivenfuzz/riven-fuzzer/pkg/corpus"
	"github.com/rivenfuzz/riven-fuzzer/pkg/interfaces"
)

// metaTraced marks entries whose tracing run produced no usable trace, so
// they are not re-traced every round.
const metaTraced = "cmp_traced"

// TracingStage records comparison operands for the selected entry.
type TracingStage struct{}

// NewTracingStage creates the tracing stage.
func NewTracingStage() *TracingStage {
	return &TracingStage{}
}

// Name returns the stage name.
func (s *TracingStage) Name() string { return "tracing" }

// Perform traces the entry once. The trace reflects the entry's own bytes;
// later byte-level mutations may invalidate individual pairs, which the
// input-to-state stage tolerates by skipping operands it cannot locate.
func (s *TracingStage) Perform(c Campaign, entry *corpus.Entry) error {
	if len(entry.CmpLog) > 0 {
		return nil
	}
	if _, done := entry.Metadata[metaTraced]; done {
		return nil
	}
	if entry.Metadata == nil {
		entry.Metadata = make(map[string]interface{})
	}
	entry.Metadata[metaTraced] = true

	res, err := c.Probe(entry.Input.Bytes, true)
	if err != nil {
		return fmt.Errorf("tracing probe failed: %w", err)
	}
	if res.Outcome != interfaces.OutcomeCompleted || len(res.CmpLog) == 0 {
		return nil
	}
	entry.CmpLog = res.CmpLog
	return nil
}
