/*
File: harness.go
Description: Built-in sample harness for the Riven Fuzzer. A tiny hand-rolled
message parser with manual edge and comparison instrumentation, registered on
import so the shipped binary has something to fuzz out of the box. It hides a
reachable panic behind a magic header and a keyword comparison, which the
input-to-state stage should solve within minutes.
*/

package demo

import (
	"bytes"
	"encoding/binary"

	"github.com/rivenfuzz/riven-fuzzer/pkg/execution"
	"github.com/rivenfuzz/riven-fuzzer/pkg/observers"
)

var magicHeader = []byte("RVN1")

func init() {
	execution.RegisterHarness(&execution.Harness{
		Name: "demo-parser",
		Run:  parseMessage,
		Tokens: [][]byte{
			[]byte("RVN1"),
			[]byte("body"),
		},
	})
}

// parseMessage parses a toy framed message: a 4-byte magic header, a 4-byte
// little-endian body length, and the body. A body starting with "boom" after
// a valid frame panics.
func parseMessage(data []byte) {
	observers.CoverEdge(1)
	if len(data) < 4 {
		observers.CoverEdge(2)
		return
	}

	observers.RecordCmp(data[:4], magicHeader)
	if !bytes.Equal(data[:4], magicHeader) {
		observers.CoverEdge(3)
		return
	}
	observers.CoverEdge(4)

	if len(data) < 8 {
		observers.CoverEdge(5)
		return
	}
	bodyLen := binary.LittleEndian.Uint32(data[4:8])
	observers.RecordCmpU64(uint64(bodyLen), uint64(len(data)-8), 4)
	if int(bodyLen) > len(data)-8 {
		observers.CoverEdge(6)
		return
	}
	observers.CoverEdge(7)

	body := data[8 : 8+int(bodyLen)]
	if len(body) >= 4 {
		observers.RecordCmp(body[:4], []byte("boom"))
		if bytes.Equal(body[:4], []byte("boom")) {
			observers.CoverEdge(8)
			panic("demo parser reached the hidden crash")
		}
	}
	observers.CoverEdge(9)
}
