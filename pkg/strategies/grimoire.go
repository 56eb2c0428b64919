/*
File: grimoire.go
Description: Structural mutation operators for the Riven Fuzzer. These operate
on the generalized form of an input (alternating fixed chunks and gaps) learned
by the generalization stage: extension splices fragments from other entries at
gap boundaries, recursive replacement swaps structurally similar chunks, string
replacement substitutes token-like chunks, and random delete biases output
length downward to counteract growth.
*/

package strategies

import (
	"github.com/rivenfuzz/riven-fuzzer/pkg/interfaces"
	"github.com/rivenfuzz/riven-fuzzer/pkg/rng"
)

// recursionCap bounds nested replacement depth.
const recursionCap = 3

// GrimoireMutator mutates generalized input forms. Donor material comes from
// other corpus entries' generalized forms, supplied per call.
type GrimoireMutator struct {
	maxStackPow int
}

// NewGrimoireMutator creates a grimoire mutator with the given stack cap
// exponent (stack depth is a random power of two up to 1<<maxStackPow).
func NewGrimoireMutator(maxStackPow int) *GrimoireMutator {
	if maxStackPow <= 0 {
		maxStackPow = 3
	}
	return &GrimoireMutator{maxStackPow: maxStackPow}
}

// Name returns the mutator name.
func (g *GrimoireMutator) Name() string { return "grimoire" }

// Mutate applies a random stack of structural operators to segs. donor is
// another entry's generalized form (may be nil, which disables cross-entry
// operators). Random delete is registered twice so it fires more often and
// keeps mutant length biased downward.
func (g *GrimoireMutator) Mutate(r *rng.Rand, segs []interfaces.Segment, donor []interfaces.Segment) []interfaces.Segment {
	out := interfaces.CloneSegments(segs)
	stack := 1 << (1 + r.Intn(g.maxStackPow))
	for i := 0; i < stack; i++ {
		switch r.Intn(5) {
		case 0:
			out = g.extend(r, out, donor)
		case 1:
			out = g.recursiveReplace(r, out, donor, 0)
		case 2:
			out = g.stringReplace(r, out, donor)
		default: // two slots: delete fires with double weight
			out = g.randomDelete(r, out)
		}
		if len(out) == 0 {
			out = interfaces.CloneSegments(segs)
		}
	}
	return out
}

// extend inserts a donor fragment at a gap boundary.
func (g *GrimoireMutator) extend(r *rng.Rand, segs, donor []interfaces.Segment) []interfaces.Segment {
	frags := fragmentsOf(donor)
	if len(frags) == 0 {
		return segs
	}
	frag := frags[r.Intn(len(frags))]
	gaps := gapPositions(segs)
	if len(gaps) == 0 {
		// No gap to anchor on; append at the end.
		return append(segs, interfaces.CloneSegments(frag)...)
	}
	pos := gaps[r.Intn(len(gaps))]
	out := make([]interfaces.Segment, 0, len(segs)+len(frag))
	out = append(out, segs[:pos+1]...)
	out = append(out, interfaces.CloneSegments(frag)...)
	out = append(out, segs[pos+1:]...)
	return out
}

// recursiveReplace swaps one fixed chunk for a donor fragment, recursing into
// the result so nested structure from the donor can replace nested structure
// in the input.
func (g *GrimoireMutator) recursiveReplace(r *rng.Rand, segs, donor []interfaces.Segment, depth int) []interfaces.Segment {
	if depth >= recursionCap {
		return segs
	}
	chunks := chunkPositions(segs)
	frags := fragmentsOf(donor)
	if len(chunks) == 0 || len(frags) == 0 {
		return segs
	}
	pos := chunks[r.Intn(len(chunks))]
	frag := frags[r.Intn(len(frags))]
	out := make([]interfaces.Segment, 0, len(segs)+len(frag)-1)
	out = append(out, segs[:pos]...)
	out = append(out, interfaces.CloneSegments(frag)...)
	out = append(out, segs[pos+1:]...)
	if r.Bool() {
		return g.recursiveReplace(r, out, donor, depth+1)
	}
	return out
}

// stringReplace substitutes a token-like fixed chunk with a token-like chunk
// observed in the donor.
func (g *GrimoireMutator) stringReplace(r *rng.Rand, segs, donor []interfaces.Segment) []interfaces.Segment {
	var candidates []int
	for i, s := range segs {
		if !s.Gap && looksLikeToken(s.Bytes) {
			candidates = append(candidates, i)
		}
	}
	var replacements [][]byte
	for _, s := range donor {
		if !s.Gap && looksLikeToken(s.Bytes) {
			replacements = append(replacements, s.Bytes)
		}
	}
	if len(candidates) == 0 || len(replacements) == 0 {
		return segs
	}
	pos := candidates[r.Intn(len(candidates))]
	rep := replacements[r.Intn(len(replacements))]
	segs[pos] = interfaces.Segment{Bytes: append([]byte(nil), rep...)}
	return segs
}

// randomDelete removes one randomly chosen segment, chunk or gap.
func (g *GrimoireMutator) randomDelete(r *rng.Rand, segs []interfaces.Segment) []interfaces.Segment {
	if len(segs) <= 1 {
		return segs
	}
	pos := r.Intn(len(segs))
	return append(segs[:pos], segs[pos+1:]...)
}

// fragmentsOf splits a generalized form into maximal runs of fixed chunks
// between gaps. Each fragment is reusable splice material.
func fragmentsOf(segs []interfaces.Segment) [][]interfaces.Segment {
	var frags [][]interfaces.Segment
	var cur []interfaces.Segment
	for _, s := range segs {
		if s.Gap {
			if len(cur) > 0 {
				frags = append(frags, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, s)
	}
	if len(cur) > 0 {
		frags = append(frags, cur)
	}
	return frags
}

// gapPositions returns the indices of gap segments.
func gapPositions(segs []interfaces.Segment) []int {
	var out []int
	for i, s := range segs {
		if s.Gap {
			out = append(out, i)
		}
	}
	return out
}

// chunkPositions returns the indices of fixed-chunk segments.
func chunkPositions(segs []interfaces.Segment) []int {
	var out []int
	for i, s := range segs {
		if !s.Gap {
			out = append(out, i)
		}
	}
	return out
}

// looksLikeToken reports whether a chunk is short printable text, the shape
// of keywords and delimiters worth substituting for each other.
func looksLikeToken(b []byte) bool {
	if len(b) == 0 || len(b) > 64 {
		return false
	}
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}
