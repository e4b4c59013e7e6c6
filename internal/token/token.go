// Package token defines the lexical tokens produced by the lexer and
// consumed by the parser (§3). Tokens are immutable once produced.
package token

// Kind classifies a token.
type Kind uint8

const (
	EOF Kind = iota
	Unknown
	Keyword
	Identifier
	Number
	String
	Operator
	Punctuation
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Unknown:
		return "Unknown"
	case Keyword:
		return "Keyword"
	case Identifier:
		return "Identifier"
	case Number:
		return "Number"
	case String:
		return "String"
	case Operator:
		return "Operator"
	case Punctuation:
		return "Punctuation"
	default:
		return "Invalid"
	}
}

// Token is the immutable unit produced by the lexer: {kind, lexeme, offset}.
type Token struct {
	Kind   Kind
	Lexeme string
	Offset int // absolute byte offset into the source
}

func (t Token) String() string {
	return t.Lexeme
}

// Keywords is the closed set of reserved words of the target dialect.
var Keywords = map[string]bool{
	"and": true, "break": true, "do": true, "else": true, "elseif": true,
	"end": true, "false": true, "for": true, "function": true, "goto": true,
	"if": true, "in": true, "local": true, "nil": true, "not": true,
	"or": true, "repeat": true, "return": true, "then": true, "true": true,
	"until": true, "while": true,
}

// KeywordList is Keywords flattened for fuzzy-match "did you mean" hints.
func KeywordList() []string {
	list := make([]string, 0, len(Keywords))
	for k := range Keywords {
		list = append(list, k)
	}
	return list
}
