package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Loadstring-Afk/Celestial-SF/internal/token"
)

func TestNextToken_KeywordsAndIdentifiers(t *testing.T) {
	l := New("local x = 1 return x")
	var kinds []token.Kind
	var lexemes []string
	for {
		tok := l.Next()
		if tok.Kind == token.EOF {
			break
		}
		kinds = append(kinds, tok.Kind)
		lexemes = append(lexemes, tok.Lexeme)
	}
	require.Equal(t, []string{"local", "x", "=", "1", "return", "x"}, lexemes)
	require.Equal(t, token.Keyword, kinds[0])
	require.Equal(t, token.Identifier, kinds[1])
	require.Equal(t, token.Operator, kinds[2])
	require.Equal(t, token.Number, kinds[3])
	require.Equal(t, token.Keyword, kinds[4])
	require.Equal(t, token.Identifier, kinds[5])
}

func TestNextToken_MultiCharOperators(t *testing.T) {
	l := New("a == b ~= c <= d >= e .. f")
	var lexemes []string
	for {
		tok := l.Next()
		if tok.Kind == token.EOF {
			break
		}
		lexemes = append(lexemes, tok.Lexeme)
	}
	require.Contains(t, lexemes, "==")
	require.Contains(t, lexemes, "~=")
	require.Contains(t, lexemes, "<=")
	require.Contains(t, lexemes, ">=")
	require.Contains(t, lexemes, "..")
}

func TestNextToken_BitwiseOperators(t *testing.T) {
	l := New("a & b | c ~ d << e >> f")
	var lexemes []string
	for {
		tok := l.Next()
		if tok.Kind == token.EOF {
			break
		}
		lexemes = append(lexemes, tok.Lexeme)
	}
	require.Contains(t, lexemes, "&")
	require.Contains(t, lexemes, "|")
	require.Contains(t, lexemes, "~")
	require.Contains(t, lexemes, "<<")
	require.Contains(t, lexemes, ">>")
}

func TestNextToken_OffsetsAreAbsolute(t *testing.T) {
	l := New("  local")
	tok := l.Next()
	require.Equal(t, token.Keyword, tok.Kind)
	require.Equal(t, 2, tok.Offset)
}

func TestNextToken_LineCommentSkipped(t *testing.T) {
	l := New("-- a comment\nlocal x")
	tok := l.Next()
	require.Equal(t, "local", tok.Lexeme)
}

func TestNextToken_LongStringAndComment(t *testing.T) {
	l := New(`--[[ block comment ]] local s = [[long string]]`)
	tok := l.Next()
	require.Equal(t, "local", tok.Lexeme)
	l.Next() // s
	l.Next() // =
	tok = l.Next()
	require.Equal(t, token.String, tok.Kind)
	require.Equal(t, "[[long string]]", tok.Lexeme)
}

func TestNextToken_UnknownByteContinues(t *testing.T) {
	l := New("local $ x")
	toks := l.TokenizeToSlice()
	require.Equal(t, token.Keyword, toks[0].Kind)
	require.Equal(t, token.Unknown, toks[1].Kind)
	require.Equal(t, "$", toks[1].Lexeme)
	require.Equal(t, token.Identifier, toks[2].Kind)
	require.Equal(t, token.EOF, toks[len(toks)-1].Kind)
}

func TestNextToken_HexAndFloatNumbers(t *testing.T) {
	l := New("0xFF 3.14 2e10")
	var lexemes []string
	for {
		tok := l.Next()
		if tok.Kind == token.EOF {
			break
		}
		require.Equal(t, token.Number, tok.Kind)
		lexemes = append(lexemes, tok.Lexeme)
	}
	require.Equal(t, []string{"0xFF", "3.14", "2e10"}, lexemes)
}

func TestTokenizeToSlice_TerminatesWithEOF(t *testing.T) {
	toks := New("return 1").TokenizeToSlice()
	require.Equal(t, token.EOF, toks[len(toks)-1].Kind)
}
