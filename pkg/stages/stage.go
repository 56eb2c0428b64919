/*
File: stage.go
Description: Stage pipeline contracts for the Riven Fuzzer. A stage is one
step applied to the corpus entry selected by the scheduler each round; the
Campaign interface is the narrow view of the engine that stages operate
through, so individual stages stay decoupled from engine internals.
*/

package stages

import (
	"github.com/sirupsen/logrus"

	"github.com/rivenfuzz/riven-fuzzer/pkg/corpus"
	"github.com/rivenfuzz/riven-fuzzer/pkg/interfaces"
	"github.com/rivenfuzz/riven-fuzzer/pkg/rng"
)

// Campaign is the engine surface a stage works against.
type Campaign interface {
	// Rand returns the campaign PRNG. All stage randomness must come from
	// it so runs are reproducible from a seed.
	Rand() *rng.Rand

	// Tokens returns the mutation dictionary.
	Tokens() [][]byte

	// RandomEntry returns a random corpus entry for splice material, or nil
	// if the corpus is empty.
	RandomEntry() *corpus.Entry

	// RunCandidate executes a mutant and judges it: interesting candidates
	// join the corpus, objectives join the objective store. generalized, if
	// non-nil, is the segment form the candidate inherits when accepted.
	RunCandidate(parentID string, data []byte, generalized []interfaces.Segment, stage string) error

	// Probe executes data and returns the raw result without judging it.
	// With traceCmps set the run records comparison operands and uses the
	// extended tracing timeout.
	Probe(data []byte, traceCmps bool) (*interfaces.ExecutionResult, error)

	// MaxInputSize returns the mutant size cap in bytes.
	MaxInputSize() int

	// Logger returns the campaign logger.
	Logger() *logrus.Logger
}

// Stage is one step of the per-entry pipeline.
type Stage interface {
	// Name identifies the stage in logs and entry provenance.
	Name() string

	// Perform runs the stage against the selected entry. Stages may mutate
	// the entry's metadata (generalized form, comparison trace) and submit
	// candidates through the campaign; errors abort the round for this
	// entry only.
	Perform(c Campaign, entry *corpus.Entry) error
}
