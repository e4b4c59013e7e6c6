package checksum

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSum_Deterministic(t *testing.T) {
	require.Equal(t, Sum([]byte("hello")), Sum([]byte("hello")))
}

func TestSum_DiffersOnDifferentInput(t *testing.T) {
	require.NotEqual(t, Sum([]byte("hello")), Sum([]byte("hellp")))
}

func TestSum_EmptyInputIsStable(t *testing.T) {
	require.Equal(t, Sum(nil), Sum([]byte{}))
}

func TestSum_FixedWidth(t *testing.T) {
	require.Len(t, Sum([]byte("x")), 16)
}
