/*
File: observers.go
Description: Observation channels for the Riven Fuzzer. Each observer exposes one
typed value after an execution: the edge coverage snapshot or the elapsed wall
clock time. Observers are stateless between executions and own no fuzzing logic.
*/

package observers

import "time"

// MapObserver exposes the edge coverage map of the most recent execution.
type MapObserver struct {
	last []byte
}

// NewMapObserver creates a map observer over the shared edge region.
func NewMapObserver() *MapObserver {
	return &MapObserver{}
}

// PreExec clears the shared edge map and opens the write window.
func (o *MapObserver) PreExec() {
	resetEdges()
	armEdges()
}

// PostExec closes the write window and snapshots the edge map.
func (o *MapObserver) PostExec() {
	disarmEdges()
	o.last = snapshotEdges()
}

// Abort closes the write window without taking a snapshot. Used after a
// timeout: the map contents are untrusted and late writes from the runaway
// goroutine must be dropped.
func (o *MapObserver) Abort() {
	disarmEdges()
}

// Coverage returns the snapshot taken by the last PostExec. Valid only until
// the next execution.
func (o *MapObserver) Coverage() []byte {
	return o.last
}

// TimeObserver measures the wall-clock duration of one execution.
type TimeObserver struct {
	start time.Time
	last  time.Duration
}

// NewTimeObserver creates a time observer.
func NewTimeObserver() *TimeObserver {
	return &TimeObserver{}
}

// PreExec records the start instant.
func (o *TimeObserver) PreExec() {
	o.start = time.Now()
}

// PostExec records the elapsed duration.
func (o *TimeObserver) PostExec() {
	o.last = time.Since(o.start)
}

// Elapsed returns the duration of the last execution.
func (o *TimeObserver) Elapsed() time.Duration {
	return o.last
}
