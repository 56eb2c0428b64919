/*
File: triage_test.go
Description: Tests for crash triage. Verifies suppression extraction from real
panic dumps, the panic-line fallback for unparseable output, and that the
suppression is stable across repeated crashes of the same bug.
*/

package analysis

import (
	"fmt"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturePanicOutput produces a crash report the way the executor does.
func capturePanicOutput(f func()) (out []byte) {
	defer func() {
		if r := recover(); r != nil {
			out = []byte(fmt.Sprintf("panic: %v\n\n%s", r, debug.Stack()))
		}
	}()
	f()
	return nil
}

func TestSuppressionFromRealPanic(t *testing.T) {
	out := capturePanicOutput(func() { panic("boom") })
	require.NotNil(t, out)

	supp := Suppression(out)
	assert.NotEmpty(t, supp)
	// The suppression is a reduction, never an expansion.
	assert.LessOrEqual(t, len(supp), len(out))
}

func triggerBug() {
	panic("same bug every time")
}

func TestSuppressionStableForSameBug(t *testing.T) {
	a := Suppression(capturePanicOutput(triggerBug))
	b := Suppression(capturePanicOutput(triggerBug))
	assert.Equal(t, a, b)
}

func TestSuppressionFallsBackToPanicLine(t *testing.T) {
	out := []byte("some preamble\npanic: runtime error: index out of range\nno stack here")
	supp := Suppression(out)
	assert.Equal(t, []byte("panic: runtime error: index out of range"), supp)
}

func TestSuppressionGarbageReturnsWhole(t *testing.T) {
	out := []byte("completely unstructured output")
	assert.Equal(t, out, Suppression(out))
}

func TestPanicLineEmptyInput(t *testing.T) {
	assert.Empty(t, Suppression(nil))
}
