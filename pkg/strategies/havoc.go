/*
File: havoc.go
Description: Havoc mutation strategy for the Riven Fuzzer. Applies a randomly
composed stack of classic byte-level mutations: bit flips, byte flips,
arithmetic nudges, interesting-value insertion, block delete/duplicate/insert,
dictionary token splice, and cross-entry splice. Operates on raw bytes and
ignores any generalized form.
*/

package strategies

import (
	"github.com/rivenfuzz/riven-fuzzer/pkg/rng"
)

// Interesting values known to exercise boundary conditions, in the AFL
// tradition. The wider tables include the narrower values by construction
// at the call sites that use them.
var (
	interesting8  = []int8{-128, -1, 0, 1, 16, 32, 64, 100, 127}
	interesting16 = []int16{-32768, -129, 128, 255, 256, 512, 1000, 1024, 4096, 32767}
	interesting32 = []int32{-2147483648, -100663046, -32769, 32768, 65535, 65536, 100663045, 2147483647}
)

// havocOp is one elementary mutation. Operators may return the slice they
// were given (mutated in place) or a fresh one.
type havocOp func(m *HavocMutator, r *rng.Rand, data []byte) []byte

// HavocMutator composes randomly stacked byte-level mutations.
type HavocMutator struct {
	maxStackPow int
	maxSize     int
	ops         []havocOp
}

// NewHavocMutator creates a havoc mutator. The mutation stack depth is a
// random power of two bounded by 1<<maxStackPow; mutants never exceed maxSize.
func NewHavocMutator(maxStackPow, maxSize int) *HavocMutator {
	if maxStackPow <= 0 {
		maxStackPow = 2
	}
	if maxSize <= 0 {
		maxSize = 1 << 16
	}
	m := &HavocMutator{maxStackPow: maxStackPow, maxSize: maxSize}
	m.ops = []havocOp{
		opBitFlip,
		opByteFlip,
		opByteInc,
		opByteDec,
		opByteRand,
		opInteresting8,
		opInteresting16,
		opInteresting32,
		opDeleteBlock,
		opDuplicateBlock,
		opInsertRandBlock,
	}
	return m
}

// Name returns the mutator name.
func (m *HavocMutator) Name() string { return "havoc" }

// Mutate produces one mutant of data. tokens supplies the dictionary splice
// vocabulary and donor optional cross-entry splice material; both may be nil.
func (m *HavocMutator) Mutate(r *rng.Rand, data []byte, tokens [][]byte, donor []byte) []byte {
	res := append([]byte(nil), data...)
	stack := 1 << (1 + r.Intn(m.maxStackPow))
	for i := 0; i < stack; i++ {
		// Token and donor splices join the operator pool only when they
		// have material to work with.
		pool := len(m.ops)
		if len(tokens) > 0 {
			pool += 2
		}
		if len(donor) > 0 {
			pool++
		}
		pick := r.Intn(pool)
		switch {
		case pick < len(m.ops):
			res = m.ops[pick](m, r, res)
		case pick < len(m.ops)+2 && len(tokens) > 0:
			if pick == len(m.ops) {
				res = m.insertToken(r, res, tokens)
			} else {
				res = m.overwriteToken(r, res, tokens)
			}
		default:
			res = m.splice(r, res, donor)
		}
		if len(res) > m.maxSize {
			res = res[:m.maxSize]
		}
	}
	return res
}

func opBitFlip(m *HavocMutator, r *rng.Rand, data []byte) []byte {
	if len(data) == 0 {
		return data
	}
	pos := r.Intn(len(data))
	data[pos] ^= 1 << uint(r.Intn(8))
	return data
}

func opByteFlip(m *HavocMutator, r *rng.Rand, data []byte) []byte {
	if len(data) == 0 {
		return data
	}
	data[r.Intn(len(data))] ^= 0xff
	return data
}

func opByteInc(m *HavocMutator, r *rng.Rand, data []byte) []byte {
	if len(data) == 0 {
		return data
	}
	data[r.Intn(len(data))]++
	return data
}

func opByteDec(m *HavocMutator, r *rng.Rand, data []byte) []byte {
	if len(data) == 0 {
		return data
	}
	data[r.Intn(len(data))]--
	return data
}

func opByteRand(m *HavocMutator, r *rng.Rand, data []byte) []byte {
	if len(data) == 0 {
		return data
	}
	data[r.Intn(len(data))] = r.Byte()
	return data
}

func opInteresting8(m *HavocMutator, r *rng.Rand, data []byte) []byte {
	if len(data) == 0 {
		return data
	}
	data[r.Intn(len(data))] = byte(interesting8[r.Intn(len(interesting8))])
	return data
}

func opInteresting16(m *HavocMutator, r *rng.Rand, data []byte) []byte {
	if len(data) < 2 {
		return data
	}
	pos := r.Intn(len(data) - 1)
	v := uint16(interesting16[r.Intn(len(interesting16))])
	if r.Bool() {
		v = v<<8 | v>>8 // byte-swapped variant
	}
	data[pos] = byte(v)
	data[pos+1] = byte(v >> 8)
	return data
}

func opInteresting32(m *HavocMutator, r *rng.Rand, data []byte) []byte {
	if len(data) < 4 {
		return data
	}
	pos := r.Intn(len(data) - 3)
	v := uint32(interesting32[r.Intn(len(interesting32))])
	if r.Bool() {
		v = v<<24 | (v&0xff00)<<8 | (v>>8)&0xff00 | v>>24
	}
	data[pos] = byte(v)
	data[pos+1] = byte(v >> 8)
	data[pos+2] = byte(v >> 16)
	data[pos+3] = byte(v >> 24)
	return data
}

func opDeleteBlock(m *HavocMutator, r *rng.Rand, data []byte) []byte {
	if len(data) < 2 {
		return data
	}
	start := r.Intn(len(data) - 1)
	n := 1 + r.Intn(len(data)-start-1+1)
	if start+n > len(data) {
		n = len(data) - start
	}
	return append(data[:start], data[start+n:]...)
}

func opDuplicateBlock(m *HavocMutator, r *rng.Rand, data []byte) []byte {
	if len(data) == 0 {
		return data
	}
	start := r.Intn(len(data))
	n := 1 + r.Intn(len(data)-start)
	block := append([]byte(nil), data[start:start+n]...)
	pos := r.Intn(len(data) + 1)
	out := make([]byte, 0, len(data)+n)
	out = append(out, data[:pos]...)
	out = append(out, block...)
	out = append(out, data[pos:]...)
	return out
}

func opInsertRandBlock(m *HavocMutator, r *rng.Rand, data []byte) []byte {
	n := 1 + r.Intn(8)
	block := make([]byte, n)
	for i := range block {
		block[i] = r.Byte()
	}
	pos := r.Intn(len(data) + 1)
	out := make([]byte, 0, len(data)+n)
	out = append(out, data[:pos]...)
	out = append(out, block...)
	out = append(out, data[pos:]...)
	return out
}

// insertToken splices a dictionary token into a random position.
func (m *HavocMutator) insertToken(r *rng.Rand, data []byte, tokens [][]byte) []byte {
	tok := tokens[r.Intn(len(tokens))]
	pos := r.Intn(len(data) + 1)
	out := make([]byte, 0, len(data)+len(tok))
	out = append(out, data[:pos]...)
	out = append(out, tok...)
	out = append(out, data[pos:]...)
	return out
}

// overwriteToken stamps a dictionary token over existing bytes.
func (m *HavocMutator) overwriteToken(r *rng.Rand, data []byte, tokens [][]byte) []byte {
	tok := tokens[r.Intn(len(tokens))]
	if len(data) == 0 || len(tok) == 0 {
		return m.insertToken(r, data, tokens)
	}
	pos := r.Intn(len(data))
	n := len(tok)
	if pos+n > len(data) {
		n = len(data) - pos
	}
	copy(data[pos:pos+n], tok[:n])
	return data
}

// splice crosses data over with material from another corpus entry.
func (m *HavocMutator) splice(r *rng.Rand, data, donor []byte) []byte {
	if len(donor) == 0 {
		return data
	}
	dStart := r.Intn(len(donor))
	dLen := 1 + r.Intn(len(donor)-dStart)
	pos := r.Intn(len(data) + 1)
	out := make([]byte, 0, len(data)+dLen)
	out = append(out, data[:pos]...)
	out = append(out, donor[dStart:dStart+dLen]...)
	out = append(out, data[pos:]...)
	return out
}
