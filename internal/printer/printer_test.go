package printer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Loadstring-Afk/Celestial-SF/internal/parser"
	"github.com/Loadstring-Afk/Celestial-SF/internal/printer"
)

func reparse(t *testing.T, src string) string {
	t.Helper()
	prog, err := parser.Parse(src)
	require.NoError(t, err)
	return printer.Print(prog)
}

func TestPrint_RoundTripPreservesSemanticShape(t *testing.T) {
	src := "local x = 1\nif x > 0 then\n  return x\nend\n"
	out := reparse(t, src)

	reprinted, err := parser.Parse(out)
	require.NoError(t, err)
	out2 := printer.Print(reprinted)
	require.Equal(t, out, out2)
}

func TestPrint_AddsParensWhenPrecedenceRequiresIt(t *testing.T) {
	out := reparse(t, "local x = (1 + 2) * 3")
	require.Contains(t, out, "(1 + 2) * 3")
}

func TestPrint_OmitsParensWhenPrecedenceAllows(t *testing.T) {
	out := reparse(t, "local x = 1 + 2 * 3")
	require.NotContains(t, out, "(")
}

func TestPrint_RightAssociativeConcatNeedsNoParens(t *testing.T) {
	out := reparse(t, `local s = "a" .. "b" .. "c"`)
	require.NotContains(t, out, "(")
}

func TestPrint_FunctionExprBodyIndented(t *testing.T) {
	out := reparse(t, "local f = function(a, b)\n  return a\nend")
	require.Contains(t, out, "function(a, b)")
	require.Contains(t, out, "  return a")
}

func TestPrint_StandaloneDoBlockRoundTrips(t *testing.T) {
	out := reparse(t, "do\n  local x = 1\nend\n")
	require.Contains(t, out, "do")
	require.Contains(t, out, "local x = 1")
	require.Contains(t, out, "end")
}

func TestPrint_TableConstructorFields(t *testing.T) {
	out := reparse(t, `local t = { 1, x = 2, [3] = "z" }`)
	require.Contains(t, out, "x = 2")
	require.Contains(t, out, "[3] = ")
}
