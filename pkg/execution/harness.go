/*
File: harness.go
Description: Harness registration for the Riven Fuzzer. A harness is the
target code under test, compiled into the fuzzer binary and driven in
process. It exposes an optional one-time Init, the per-input Run entry
point, and an optional static token vocabulary merged into the mutation
dictionary at startup.
*/

package execution

import "fmt"

// Harness is an in-process fuzz target.
type Harness struct {
	// Name identifies the harness in logs and snapshots.
	Name string

	// Init runs once before the first execution. Optional.
	Init func(args []string) error

	// Run consumes one input. A panic inside Run is an objective; Run
	// must not retain the input slice past its return.
	Run func(data []byte)

	// Tokens is a static vocabulary contributed to the mutation
	// dictionary. Optional.
	Tokens [][]byte
}

var registered *Harness

// RegisterHarness installs the process harness. Exactly one harness may be
// registered; the fuzz and replay commands refuse to start without one.
func RegisterHarness(h *Harness) {
	if h == nil || h.Run == nil {
		panic("execution: harness must provide a Run function")
	}
	if registered != nil {
		panic(fmt.Sprintf("execution: harness %q already registered", registered.Name))
	}
	registered = h
}

// DefaultHarness returns the registered harness.
func DefaultHarness() (*Harness, error) {
	if registered == nil {
		return nil, fmt.Errorf("no harness registered")
	}
	return registered, nil
}
