/*
File: cmplog.go
Description: Comparison trace runtime and observer for the Riven Fuzzer.
Instrumented comparison sites report their operand pairs through RecordCmp
while tracing is armed; the tracing stage replays a corpus entry once with the
observer attached and stores the captured trace for input-to-state mutation.
*/

package observers

import (
	"sync/atomic"

	"github.com/rivenfuzz/riven-fuzzer/pkg/interfaces"
)

// maxCmpEntries bounds trace growth on comparison-heavy targets.
const maxCmpEntries = 256

var (
	cmpArmed uint32
	cmpTrace []interfaces.CmpPair
)

// RecordCmp logs one comparison operand pair. It is a no-op unless a traced
// execution is in flight, so ordinary fuzzing executions pay almost nothing.
func RecordCmp(left, right []byte) {
	if atomic.LoadUint32(&cmpArmed) == 0 || len(cmpTrace) >= maxCmpEntries {
		return
	}
	cmpTrace = append(cmpTrace, interfaces.CmpPair{
		Left:  append([]byte(nil), left...),
		Right: append([]byte(nil), right...),
	})
}

// RecordCmpU64 logs an integer comparison in little-endian byte form,
// trimmed to the given operand width in bytes (1, 2, 4, or 8).
func RecordCmpU64(left, right uint64, width int) {
	if atomic.LoadUint32(&cmpArmed) == 0 {
		return
	}
	if width < 1 || width > 8 {
		width = 8
	}
	l := make([]byte, width)
	r := make([]byte, width)
	for i := 0; i < width; i++ {
		l[i] = byte(left >> (8 * i))
		r[i] = byte(right >> (8 * i))
	}
	RecordCmp(l, r)
}

// CmpObserver captures the comparison trace of one traced execution.
type CmpObserver struct {
	last []interfaces.CmpPair
}

// NewCmpObserver creates a comparison observer.
func NewCmpObserver() *CmpObserver {
	return &CmpObserver{}
}

// PreExec arms trace capture and clears the previous trace.
func (o *CmpObserver) PreExec() {
	cmpTrace = cmpTrace[:0]
	atomic.StoreUint32(&cmpArmed, 1)
}

// PostExec disarms capture and snapshots the trace.
func (o *CmpObserver) PostExec() {
	atomic.StoreUint32(&cmpArmed, 0)
	o.last = make([]interfaces.CmpPair, len(cmpTrace))
	copy(o.last, cmpTrace)
}

// Abort disarms capture without snapshotting; the trace of a timed-out run
// is discarded.
func (o *CmpObserver) Abort() {
	atomic.StoreUint32(&cmpArmed, 0)
}

// Trace returns the operand pairs captured by the last traced execution.
func (o *CmpObserver) Trace() []interfaces.CmpPair {
	return o.last
}
