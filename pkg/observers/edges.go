/*
File: edges.go
Description: Shared edge-coverage map runtime for the Riven Fuzzer. Instrumented
targets report edge hits into a fixed-size process-global map through CoverEdge;
the map observer snapshots and resets it around every execution. Writes are
gated on an atomic flag so a goroutine left behind by a timed-out execution
cannot pollute the map of a later run.
*/

package observers

import "sync/atomic"

// MapSize is the number of tracked edges. Edge ids wrap modulo this size.
const MapSize = 65536

// edgeMap is the process-global coverage region. Only the harness goroutine of
// the in-flight execution writes it, and only while edgesArmed is set.
var edgeMap [MapSize]byte

// edgesArmed gates CoverEdge. Armed between PreExec and PostExec/Abort of the
// map observer; writes arriving outside that window are dropped.
var edgesArmed uint32

// CoverEdge records a hit on an instrumented edge. Targets call this from
// injected instrumentation (or by hand in test harnesses). It is a no-op
// unless an execution is in flight.
func CoverEdge(id uint32) {
	if atomic.LoadUint32(&edgesArmed) == 0 {
		return
	}
	idx := id % MapSize
	if edgeMap[idx] != 0xff {
		edgeMap[idx]++
	}
}

// armEdges opens the write window for one execution.
func armEdges() {
	atomic.StoreUint32(&edgesArmed, 1)
}

// disarmEdges closes the write window.
func disarmEdges() {
	atomic.StoreUint32(&edgesArmed, 0)
}

// resetEdges clears the map before an execution.
func resetEdges() {
	edgeMap = [MapSize]byte{}
}

// snapshotEdges copies the current map contents.
func snapshotEdges() []byte {
	out := make([]byte, MapSize)
	copy(out, edgeMap[:])
	return out
}

// CountSetBytes returns the number of non-zero cells in a coverage snapshot.
func CountSetBytes(cov []byte) int {
	n := 0
	for _, v := range cov {
		if v != 0 {
			n++
		}
	}
	return n
}

// IsCoverageSubset reports whether every edge hit in a is also hit in b.
// Hit counts are ignored; only the set of touched edges matters.
func IsCoverageSubset(a, b []byte) bool {
	for i, v := range a {
		if v != 0 && (i >= len(b) || b[i] == 0) {
			return false
		}
	}
	return true
}
