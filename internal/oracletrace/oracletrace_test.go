package oracletrace

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Loadstring-Afk/Celestial-SF/internal/oracle"
)

func TestSnapshot_RoundTripsThroughCBOR(t *testing.T) {
	r := NewRecorder(oracle.New(11))
	for i := 0; i < 10; i++ {
		r.U32()
	}
	snap, err := r.Snapshot()
	require.NoError(t, err)

	draws, err := LoadSnapshot(snap)
	require.NoError(t, err)
	require.Len(t, draws, 10)
}

func TestSnapshot_MatchesFreshRecorderWithSameSeed(t *testing.T) {
	r1 := NewRecorder(oracle.New(55))
	r2 := NewRecorder(oracle.New(55))
	for i := 0; i < 20; i++ {
		require.Equal(t, r1.U32(), r2.U32())
	}
	s1, err := r1.Snapshot()
	require.NoError(t, err)
	s2, err := r2.Snapshot()
	require.NoError(t, err)
	require.Equal(t, s1, s2)
}
