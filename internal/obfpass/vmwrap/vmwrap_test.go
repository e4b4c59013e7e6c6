package vmwrap_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Loadstring-Afk/Celestial-SF/internal/obfpass/vmwrap"
	"github.com/Loadstring-Afk/Celestial-SF/internal/oracle"
	"github.com/Loadstring-Afk/Celestial-SF/internal/parser"
	"github.com/Loadstring-Afk/Celestial-SF/internal/printer"
)

func TestApply_WrapsEligibleStraightLineFunction(t *testing.T) {
	prog, err := parser.Parse("function add(a, b)\n  local c = a + b\n  return c\nend\n")
	require.NoError(t, err)

	vmwrap.Apply(prog, oracle.New(1), vmwrap.Options{Probability: 1})
	out := printer.Print(prog)

	require.Contains(t, out, "__celestial_vmexec")
}

func TestApply_LeavesIneligibleFunctionUntouched(t *testing.T) {
	prog, err := parser.Parse("function f()\n  if true then\n    return 1\n  end\nend\n")
	require.NoError(t, err)

	vmwrap.Apply(prog, oracle.New(1), vmwrap.Options{Probability: 1})
	out := printer.Print(prog)

	require.Contains(t, out, "if true then")
	require.NotContains(t, out, "__celestial_vmexec")
}

func TestApply_ZeroProbabilityWrapsNothing(t *testing.T) {
	prog, err := parser.Parse("function add(a, b)\n  return a + b\nend\n")
	require.NoError(t, err)

	vmwrap.Apply(prog, oracle.New(1), vmwrap.Options{Probability: 0})
	out := printer.Print(prog)

	require.NotContains(t, out, "__celestial_vmexec")
	require.Contains(t, out, "return a + b")
}

func TestApply_DeterministicForSameSeed(t *testing.T) {
	src := "function add(a, b)\n  local c = a + b\n  return c\nend\n"
	p1, err := parser.Parse(src)
	require.NoError(t, err)
	p2, err := parser.Parse(src)
	require.NoError(t, err)

	vmwrap.Apply(p1, oracle.New(88), vmwrap.Options{Probability: 1})
	vmwrap.Apply(p2, oracle.New(88), vmwrap.Options{Probability: 1})

	require.Equal(t, printer.Print(p1), printer.Print(p2))
}
