// Package oracletrace records an oracle's draw sequence to a CBOR-encoded
// snapshot, so determinism tests can assert byte-identical draw sequences
// across code changes without embedding a giant literal slice in a _test.go
// file (golden-fixture pattern).
package oracletrace

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/Loadstring-Afk/Celestial-SF/internal/oracle"
)

// Recorder wraps an Oracle and records every direct U32 draw made through
// the Recorder itself. Go has no virtual dispatch, so calls the embedded
// Oracle makes internally (Range, Choice, Identifier) are not observed here
// — Recorder is for tests that draw via r.U32() directly, not for tracing a
// pass's Identifier() calls end to end.
type Recorder struct {
	*oracle.Oracle
	draws []uint32
}

// NewRecorder wraps an existing oracle for draw recording.
func NewRecorder(o *oracle.Oracle) *Recorder {
	return &Recorder{Oracle: o}
}

// U32 shadows the embedded Oracle's U32, recording each draw.
func (r *Recorder) U32() uint32 {
	v := r.Oracle.U32()
	r.draws = append(r.draws, v)
	return v
}

// Snapshot CBOR-encodes the recorded draw sequence.
func (r *Recorder) Snapshot() ([]byte, error) {
	return cbor.Marshal(r.draws)
}

// LoadSnapshot decodes a previously captured draw sequence for comparison
// against a fresh Recorder.Snapshot() in a golden-fixture test.
func LoadSnapshot(data []byte) ([]uint32, error) {
	var draws []uint32
	if err := cbor.Unmarshal(data, &draws); err != nil {
		return nil, err
	}
	return draws, nil
}
