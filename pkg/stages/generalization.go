/*
File: generalization.go
Description: Generalization stage for the Riven Fuzzer. Learns a structural
segmentation of a corpus entry without any grammar: it speculatively deletes
byte ranges, re-executes, and keeps a deletion as a gap whenever the entry's
coverage bits all survive. The result is a sequence of fixed chunks and gaps
stored on the entry for the grimoire stage to mutate.
*/

package stages

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/rivenfuzz/riven-fuzzer/pkg/corpus"
	"github.com/rivenfuzz/riven-fuzzer/pkg/interfaces"
	"github.com/rivenfuzz/riven-fuzzer/pkg/observers"
)

// generalizeAttempts caps the probe executions spent per entry.
const generalizeAttempts = 256

// metaGeneralized marks entries the stage has already processed, including
// entries where no gap could be found.
const metaGeneralized = "generalized"

// GeneralizationStage learns the gap structure of corpus entries.
type GeneralizationStage struct{}

// NewGeneralizationStage creates the generalization stage.
func NewGeneralizationStage() *GeneralizationStage {
	return &GeneralizationStage{}
}

// Name returns the stage name.
func (s *GeneralizationStage) Name() string { return "generalization" }

// Perform generalizes the entry once. The stage adds no corpus entries; its
// only output is the generalized form attached to the entry.
func (s *GeneralizationStage) Perform(c Campaign, entry *corpus.Entry) error {
	if entry.Input.HasGeneralized() {
		return nil
	}
	if _, done := entry.Metadata[metaGeneralized]; done {
		return nil
	}
	if entry.Metadata == nil {
		entry.Metadata = make(map[string]interface{})
	}
	entry.Metadata[metaGeneralized] = true

	data := entry.Input.Bytes
	if len(data) < 2 {
		return nil
	}

	removed := make([]bool, len(data))
	attempts := 0

	// Trial-delete chunks, halving the chunk size each sweep. A deletion
	// sticks when every coverage bit of the original input survives it.
	for size := len(data) / 2; size >= 1 && attempts < generalizeAttempts; size /= 2 {
		for start := 0; start < len(data) && attempts < generalizeAttempts; start += size {
			end := start + size
			if end > len(data) {
				end = len(data)
			}
			if allRemoved(removed, start, end) {
				continue
			}
			candidate := materialize(data, removed, start, end)
			if len(candidate) == 0 {
				continue
			}
			attempts++
			res, err := c.Probe(candidate, false)
			if err != nil {
				return fmt.Errorf("generalization probe failed: %w", err)
			}
			if res.Outcome != interfaces.OutcomeCompleted || res.Coverage == nil {
				continue
			}
			if observers.IsCoverageSubset(entry.Coverage, res.Coverage) {
				for i := start; i < end; i++ {
					removed[i] = true
				}
			}
		}
	}

	segs := segmentsFromMask(data, removed)
	if !hasGap(segs) {
		return nil
	}
	entry.Input.Generalized = segs
	c.Logger().WithFields(logrus.Fields{
		"entry_id": entry.ID,
		"segments": len(segs),
		"probes":   attempts,
	}).Debug("Entry generalized")
	return nil
}

// allRemoved reports whether the whole range is already gapped.
func allRemoved(removed []bool, start, end int) bool {
	for i := start; i < end; i++ {
		if !removed[i] {
			return false
		}
	}
	return true
}

// materialize renders the input with the removal mask applied plus the trial
// range [start, end) deleted.
func materialize(data []byte, removed []bool, start, end int) []byte {
	out := make([]byte, 0, len(data))
	for i, b := range data {
		if removed[i] || (i >= start && i < end) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// segmentsFromMask converts the removal mask into alternating chunk and gap
// segments. Adjacent removed bytes collapse into a single gap.
func segmentsFromMask(data []byte, removed []bool) []interfaces.Segment {
	var segs []interfaces.Segment
	i := 0
	for i < len(data) {
		j := i
		for j < len(data) && removed[j] == removed[i] {
			j++
		}
		if removed[i] {
			segs = append(segs, interfaces.Segment{Gap: true})
		} else {
			segs = append(segs, interfaces.Segment{Bytes: append([]byte(nil), data[i:j]...)})
		}
		i = j
	}
	return segs
}

// hasGap reports whether any segment is a gap.
func hasGap(segs []interfaces.Segment) bool {
	for _, s := range segs {
		if s.Gap {
			return true
		}
	}
	return false
}
