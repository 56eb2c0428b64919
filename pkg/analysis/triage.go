/*
File: triage.go
Description: Crash triage for the Riven Fuzzer. Reduces a panic report to a
suppression: the stable frames of the crashing goroutine with panic machinery
and fuzzer frames stripped. Crashes with equal suppressions are duplicates of
one bug, so the objective store keeps only the first of each.
*/

package analysis

import (
	"bytes"
	"io"
	"strings"

	"github.com/maruel/panicparse/stack"
)

// frames below the harness that never identify the bug.
var skipPrefixes = []string{
	"runtime.",
	"execution.",
}

// Suppression derives the deduplication key from a crash output. Parsing is
// best effort: when the output is not a recognizable goroutine dump the
// panic line alone is the key, and failing that the whole output is.
func Suppression(output []byte) []byte {
	ctx, err := stack.ParseDump(bytes.NewBuffer(output), io.Discard, false)
	if err != nil || ctx == nil {
		return panicLine(output)
	}
	for _, gr := range ctx.Goroutines {
		if !gr.First {
			continue
		}
		var supp []byte
		for i, call := range gr.Stack.Calls {
			name := call.Func.PkgDotName()
			if skippable(name) {
				continue
			}
			if len(supp) == 0 {
				// The innermost frame carries its line number so two
				// distinct bugs in one function stay distinct.
				supp = append(supp, []byte("\n"+call.FullSrcLine())...)
				continue
			}
			supp = append(supp, []byte("\n"+name)...)
			if i > 16 {
				break
			}
		}
		if len(supp) > 0 {
			return supp
		}
	}
	return panicLine(output)
}

// skippable reports whether a frame belongs to panic plumbing rather than
// the code under test.
func skippable(name string) bool {
	for _, p := range skipPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// panicLine extracts the first "panic:" line, or returns the whole output.
func panicLine(output []byte) []byte {
	for _, line := range bytes.Split(output, []byte("\n")) {
		if bytes.HasPrefix(line, []byte("panic:")) {
			return append([]byte(nil), line...)
		}
	}
	return output
}
