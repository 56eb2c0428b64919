/*
File: grimoire.go
Description: Grimoire stage for the Riven Fuzzer. Runs only on entries that
carry a generalized form and submits mutants produced by the structural
operators: donor material comes from the generalized form of another corpus
entry, so structure learned from one input recombines into others. Accepted
mutants inherit the mutated segment sequence as their own generalized form.
*/

package stages

import (
	"fmt"

	"github.com/rivenfuzz/riven-fuzzer/pkg/corpus"
	"github.com/rivenfuzz/riven-fuzzer/pkg/interfaces"
	"github.com/rivenfuzz/riven-fuzzer/pkg/strategies"
)

// grimoireMutantsPerRound is the candidate batch size per selected entry.
const grimoireMutantsPerRound = 8

// GrimoireStage submits structural mutants of generalized entries.
type GrimoireStage struct {
	mutator *strategies.GrimoireMutator
	maxSize int
}

// NewGrimoireStage creates a grimoire stage with the given mutant size cap.
func NewGrimoireStage(maxSize int) *GrimoireStage {
	if maxSize <= 0 {
		maxSize = interfaces.DefaultMaxInputSize
	}
	return &GrimoireStage{mutator: strategies.NewGrimoireMutator(3), maxSize: maxSize}
}

// Name returns the stage name.
func (s *GrimoireStage) Name() string { return "grimoire" }

// Perform submits the structural mutant batch. Gaps materialize to empty
// when the segment sequence is rendered to bytes for execution.
func (s *GrimoireStage) Perform(c Campaign, entry *corpus.Entry) error {
	if !entry.Input.HasGeneralized() {
		return nil
	}
	r := c.Rand()
	for i := 0; i < grimoireMutantsPerRound; i++ {
		var donor []interfaces.Segment
		if d := c.RandomEntry(); d != nil && d.ID != entry.ID && d.Input.HasGeneralized() {
			donor = d.Input.Generalized
		}
		segs := s.mutator.Mutate(r, entry.Input.Generalized, donor)
		data := interfaces.MaterializeSegments(segs)
		if len(data) == 0 {
			continue
		}
		if len(data) > s.maxSize {
			continue
		}
		if err := c.RunCandidate(entry.ID, data, segs, s.Name()); err != nil {
			return fmt.Errorf("grimoire candidate failed: %w", err)
		}
	}
	return nil
}
