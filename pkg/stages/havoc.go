/*
File: havoc.go
Description: Havoc stage for the Riven Fuzzer. Submits a batch of byte-level
mutants of the selected entry per round, drawing splice material from the
mutation dictionary and from a randomly chosen donor entry. This is the
workhorse stage; the structural stages refine what havoc cannot reach.
*/

package stages

import (
	"fmt"

	"github.com/rivenfuzz/riven-fuzzer/pkg/corpus"
	"github.com/rivenfuzz/riven-fuzzer/pkg/strategies"
)

// havocMutantsPerRound is the candidate batch size per selected entry.
const havocMutantsPerRound = 16

// HavocStage submits randomly stacked byte-level mutants.
type HavocStage struct {
	mutator *strategies.HavocMutator
}

// NewHavocStage creates a havoc stage with the given mutant size cap.
func NewHavocStage(maxSize int) *HavocStage {
	return &HavocStage{mutator: strategies.NewHavocMutator(2, maxSize)}
}

// Name returns the stage name.
func (s *HavocStage) Name() string { return "havoc" }

// Perform submits the mutant batch. The donor is re-drawn per mutant so a
// single round crosses the entry with several corpus members.
func (s *HavocStage) Perform(c Campaign, entry *corpus.Entry) error {
	r := c.Rand()
	tokens := c.Tokens()
	for i := 0; i < havocMutantsPerRound; i++ {
		var donor []byte
		if d := c.RandomEntry(); d != nil && d.ID != entry.ID {
			donor = d.Input.Bytes
		}
		mutant := s.mutator.Mutate(r, entry.Input.Bytes, tokens, donor)
		if len(mutant) == 0 {
			continue
		}
		if err := c.RunCandidate(entry.ID, mutant, nil, s.Name()); err != nil {
			return fmt.Errorf("havoc candidate failed: %w", err)
		}
	}
	return nil
}
