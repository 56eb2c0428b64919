/*
File: rand.go
Description: Deterministic PRNG for the Riven Fuzzer. A splitmix64 generator with
fully exportable state so the fuzzing campaign can be snapshotted before every
execution and resumed bit-for-bit after a target crash.
*/

package rng

// State is the serializable generator state. It is embedded in campaign
// snapshots; restoring it resumes the random stream exactly where it stopped.
type State struct {
	Counter uint64 `json:"counter"`
	Seed    uint64 `json:"seed"`
}

// Rand is a splitmix64 pseudo random generator.
// Not safe for concurrent use; the fuzzing flow is single-threaded per process.
type Rand struct {
	seed    uint64
	counter uint64
}

// New creates a generator from a seed. The same seed always yields the same
// stream, which keeps campaigns reproducible.
func New(seed uint64) *Rand {
	return &Rand{seed: seed}
}

// Restore rebuilds a generator from a snapshot state.
func Restore(s State) *Rand {
	return &Rand{seed: s.Seed, counter: s.Counter}
}

// Export returns the current state for snapshotting.
func (r *Rand) Export() State {
	return State{Counter: r.counter, Seed: r.seed}
}

// Uint64 returns the next value in the stream.
func (r *Rand) Uint64() uint64 {
	r.counter++
	z := r.seed + r.counter*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Below returns a value in [0, n). n must be positive.
func (r *Rand) Below(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	return r.Uint64() % n
}

// Intn returns a value in [0, n). Returns 0 for n <= 0.
func (r *Rand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.Below(uint64(n)))
}

// Bool returns a random boolean.
func (r *Rand) Bool() bool {
	return r.Uint64()&1 == 1
}

// Byte returns a random byte.
func (r *Rand) Byte() byte {
	return byte(r.Uint64())
}
