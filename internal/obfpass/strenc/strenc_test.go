package strenc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Loadstring-Afk/Celestial-SF/internal/oracle"
	"github.com/Loadstring-Afk/Celestial-SF/internal/parser"
	"github.com/Loadstring-Afk/Celestial-SF/internal/printer"
)

func TestEncodeDecode_RoundTripsForArbitraryBytes(t *testing.T) {
	o := oracle.New(3)
	perm, inv := newPermutation(o)
	for _, key := range []int{0, 1, 255, 128} {
		original := []byte("hello, obfuscated world! \x00\x01\xff")
		enc := encode(original, key, perm)
		dec := decode(enc, key, inv)
		require.Equal(t, original, dec)
	}
}

func TestKeystream_IsItsOwnInverseUnderXOR(t *testing.T) {
	for r := 0; r < len(oddMultipliers); r++ {
		ks := keystream(17, 42, r)
		require.Equal(t, 0, (ks^ks)&0xff)
	}
}

func TestModInverse_IsTrueInverseForAllOddValues(t *testing.T) {
	for a := 1; a < 256; a += 2 {
		inv := modInverse(a)
		require.Equal(t, 1, (a*inv)&0xff)
	}
}

func TestApply_ReplacesStringLiteralsWithDecoderCalls(t *testing.T) {
	prog, err := parser.Parse(`local s = "secret"`)
	require.NoError(t, err)

	Apply(prog, oracle.New(1))
	out := printer.Print(prog)

	require.NotContains(t, out, "secret")
	require.Contains(t, out, decoderName)
}

func TestApply_NoLiteralsEmitsNoPrologue(t *testing.T) {
	prog, err := parser.Parse(`local x = 1`)
	require.NoError(t, err)

	Apply(prog, oracle.New(1))
	out := printer.Print(prog)

	require.NotContains(t, out, decoderName)
}

func TestApply_DeterministicForSameSeed(t *testing.T) {
	src := `local s = "a" return s .. "b"`
	p1, err := parser.Parse(src)
	require.NoError(t, err)
	p2, err := parser.Parse(src)
	require.NoError(t, err)

	Apply(p1, oracle.New(42))
	Apply(p2, oracle.New(42))

	require.Equal(t, printer.Print(p1), printer.Print(p2))
}
