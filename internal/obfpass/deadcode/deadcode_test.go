package deadcode_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Loadstring-Afk/Celestial-SF/internal/obfpass/deadcode"
	"github.com/Loadstring-Afk/Celestial-SF/internal/oracle"
	"github.com/Loadstring-Afk/Celestial-SF/internal/parser"
	"github.com/Loadstring-Afk/Celestial-SF/internal/printer"
)

func TestApply_NonzeroDensityInjectsForSeed1(t *testing.T) {
	prog, err := parser.Parse("local a = 1\n")
	require.NoError(t, err)

	deadcode.Apply(prog, oracle.New(1), deadcode.Options{Density: 0.3})
	require.Greater(t, len(prog.Body.Stmts), 1)
}

func TestApply_DensityZeroNeverInjects(t *testing.T) {
	prog, err := parser.Parse("local a = 1\nlocal b = 2\n")
	require.NoError(t, err)

	deadcode.Apply(prog, oracle.New(1), deadcode.Options{Density: 0})
	require.Len(t, prog.Body.Stmts, 2)
}

func TestApply_RejectsDensityAboveCeiling(t *testing.T) {
	prog, err := parser.Parse("local a = 1\n")
	require.NoError(t, err)

	require.Panics(t, func() {
		deadcode.Apply(prog, oracle.New(1), deadcode.Options{Density: 0.9})
	})
}

func TestApply_PreservesOriginalStatementsInOrder(t *testing.T) {
	prog, err := parser.Parse("local a = 1\nlocal b = 2\nlocal c = 3\n")
	require.NoError(t, err)

	deadcode.Apply(prog, oracle.New(5), deadcode.DefaultOptions())
	out := printer.Print(prog)

	require.Contains(t, out, "local a = 1")
	require.Contains(t, out, "local b = 2")
	require.Contains(t, out, "local c = 3")
}

func TestApply_InjectsAllTemplateCategoriesAcrossSeeds(t *testing.T) {
	markers := map[string]string{
		"break":        "break",
		"mock func":    "function(",
		"table/nil":    "= nil",
		"setmetatable": "setmetatable(",
	}
	found := map[string]bool{}
	for seed := uint64(1); seed <= 200; seed++ {
		prog, err := parser.Parse("local a = 1\nlocal b = 2\n")
		require.NoError(t, err)
		deadcode.Apply(prog, oracle.New(seed), deadcode.Options{Density: 0.3})
		out := printer.Print(prog)
		for name, marker := range markers {
			if strings.Contains(out, marker) {
				found[name] = true
			}
		}
	}
	for name := range markers {
		require.True(t, found[name], "expected at least one seed to inject a %q template", name)
	}
}

func TestApply_DeterministicForSameSeed(t *testing.T) {
	src := "local a = 1\nlocal b = 2\n"
	p1, err := parser.Parse(src)
	require.NoError(t, err)
	p2, err := parser.Parse(src)
	require.NoError(t, err)

	deadcode.Apply(p1, oracle.New(77), deadcode.DefaultOptions())
	deadcode.Apply(p2, oracle.New(77), deadcode.DefaultOptions())

	require.Equal(t, printer.Print(p1), printer.Print(p2))
}
