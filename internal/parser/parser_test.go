package parser_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/Loadstring-Afk/Celestial-SF/internal/ast"
	"github.com/Loadstring-Afk/Celestial-SF/internal/obferr"
	"github.com/Loadstring-Afk/Celestial-SF/internal/parser"
)

func TestParse_SameSourceProducesIdenticalAST(t *testing.T) {
	src := "local x = 1 + 2 * 3\nif x > 0 then\n  return x\nend\n"
	p1, err := parser.Parse(src)
	require.NoError(t, err)
	p2, err := parser.Parse(src)
	require.NoError(t, err)

	diff := cmp.Diff(p1, p2)
	require.Empty(t, diff)
}

func TestParse_AssignmentVsLocalDisambiguation(t *testing.T) {
	prog, err := parser.Parse("x = 1\n")
	require.NoError(t, err)
	require.Len(t, prog.Body.Stmts, 1)
}

func TestParse_ErrorOnMissingIdentifierAfterLocal(t *testing.T) {
	_, err := parser.Parse("local =")
	require.Error(t, err)
	var pe *obferr.ParseError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, 6, pe.Offset)
}

func TestParse_PrecedenceClimbsCorrectly(t *testing.T) {
	prog, err := parser.Parse("local x = 1 + 2 * 3\n")
	require.NoError(t, err)
	require.Len(t, prog.Body.Stmts, 1)
	local, ok := prog.Body.Stmts[0].(*ast.LocalStmt)
	require.True(t, ok)
	sum, ok := local.Values[0].(*ast.Binary)
	require.True(t, ok)
	require.Equal(t, "+", sum.Op)
	product, ok := sum.Right.(*ast.Binary)
	require.True(t, ok)
	require.Equal(t, "*", product.Op)
}

func TestParse_NestedParenDepthWithinLimit(t *testing.T) {
	_, err := parser.Parse("local x = ((((1))))\n")
	require.NoError(t, err)
}

func TestParse_RepeatUntilSeesBodyLocals(t *testing.T) {
	_, err := parser.Parse("repeat\n  local done = true\nuntil done\n")
	require.NoError(t, err)
}

func TestParse_BitwiseOperatorsParse(t *testing.T) {
	_, err := parser.Parse("local x = a & b | c ~ d << 2 >> 1\nlocal y = ~a\n")
	require.NoError(t, err)
}

func TestParse_GenericForLoop(t *testing.T) {
	_, err := parser.Parse("for k, v in pairs(t) do\n  print(k, v)\nend\n")
	require.NoError(t, err)
}
