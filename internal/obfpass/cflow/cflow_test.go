package cflow_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Loadstring-Afk/Celestial-SF/internal/obfpass/cflow"
	"github.com/Loadstring-Afk/Celestial-SF/internal/oracle"
	"github.com/Loadstring-Afk/Celestial-SF/internal/parser"
	"github.com/Loadstring-Afk/Celestial-SF/internal/printer"
)

func TestApply_FlattensEligibleBlock(t *testing.T) {
	prog, err := parser.Parse("local a = 1\nlocal b = 2\nlocal c = 3\n")
	require.NoError(t, err)

	cflow.Apply(prog, oracle.New(1), cflow.DefaultOptions())
	out := printer.Print(prog)

	require.Contains(t, out, "while")
}

func TestApply_SkipsBlockContainingReturn(t *testing.T) {
	prog, err := parser.Parse("local a = 1\nlocal b = 2\nreturn a + b\n")
	require.NoError(t, err)

	cflow.Apply(prog, oracle.New(1), cflow.DefaultOptions())
	out := printer.Print(prog)

	require.NotContains(t, out, "while")
	require.Contains(t, out, "return")
}

func TestApply_SkipsBlockContainingBreakInsideLoop(t *testing.T) {
	src := "while true do\n  local a = 1\n  local b = 2\n  break\nend\n"
	prog, err := parser.Parse(src)
	require.NoError(t, err)

	cflow.Apply(prog, oracle.New(1), cflow.DefaultOptions())
	out := printer.Print(prog)

	require.Contains(t, out, "break")
}

func TestApply_SkipsTooShortBlocks(t *testing.T) {
	prog, err := parser.Parse("local a = 1\n")
	require.NoError(t, err)

	cflow.Apply(prog, oracle.New(1), cflow.DefaultOptions())
	out := printer.Print(prog)

	require.NotContains(t, out, "while")
}

func TestApply_PreservesSameBlockLocalDependencyChain(t *testing.T) {
	src := "local a = 1\nlocal b = a + 1\nprint(b)\n"
	prog, err := parser.Parse(src)
	require.NoError(t, err)

	cflow.Apply(prog, oracle.New(7), cflow.DefaultOptions())
	out := printer.Print(prog)

	require.Contains(t, out, "while")
	// both names must be hoisted to one shared declaration ahead of the
	// dispatch loop, not redeclared inside a branch where a sibling arm
	// couldn't see them.
	require.Contains(t, out, "local a, b")
	require.NotContains(t, out, "local a =")
	require.NotContains(t, out, "local b =")
	require.Contains(t, out, "a = 1")
	require.Contains(t, out, "b = a + 1")
}

func TestApply_DeterministicForSameSeed(t *testing.T) {
	src := "local a = 1\nlocal b = 2\nlocal c = 3\n"
	p1, err := parser.Parse(src)
	require.NoError(t, err)
	p2, err := parser.Parse(src)
	require.NoError(t, err)

	cflow.Apply(p1, oracle.New(123), cflow.DefaultOptions())
	cflow.Apply(p2, oracle.New(123), cflow.DefaultOptions())

	require.Equal(t, printer.Print(p1), printer.Print(p2))
}
