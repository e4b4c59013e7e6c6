// Package parser implements the recursive-descent, precedence-climbing
// parser of §4.3. It trusts the lexer to have tokenized correctly and
// focuses purely on assembling the AST. Unlike a resilient IDE-style parser,
// it aborts on the first unexpected token (§4.3: "not resilient").
package parser

import (
	"strconv"
	"strings"

	"github.com/Loadstring-Afk/Celestial-SF/internal/ast"
	"github.com/Loadstring-Afk/Celestial-SF/internal/lexer"
	"github.com/Loadstring-Afk/Celestial-SF/internal/obferr"
	"github.com/Loadstring-Afk/Celestial-SF/internal/token"
)

// MaxDepth bounds recursive descent (§5: "maximum AST depth ≤ 1024").
const MaxDepth = 1024

// Parser assembles an AST from a token slice produced by the lexer.
type Parser struct {
	input  string
	tokens []token.Token
	pos    int
	depth  int
}

// Parse tokenizes and parses input into a Program, or a *obferr.ParseError
// (or *obferr.ResourceExceeded, on the depth bound) on the first failure.
func Parse(input string) (*ast.Program, error) {
	lex := lexer.New(input)
	p := &Parser{input: input, tokens: lex.TokenizeToSlice()}

	body, err := p.parseBlockUntilEOF()
	if err != nil {
		return nil, err
	}
	return &ast.Program{Body: body}, nil
}

func (p *Parser) parseBlockUntilEOF() (*ast.Block, error) {
	stmts, err := p.parseStatements(func() bool { return p.isAtEnd() })
	if err != nil {
		return nil, err
	}
	return &ast.Block{Stmts: stmts}, nil
}

// ---- token stream helpers -------------------------------------------------

func (p *Parser) current() token.Token { return p.tokens[p.pos] }

func (p *Parser) peek() token.Token {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) advance() token.Token {
	tok := p.current()
	if !p.isAtEnd() {
		p.pos++
	}
	return tok
}

func (p *Parser) isAtEnd() bool { return p.current().Kind == token.EOF }

func (p *Parser) check(lexeme string) bool {
	return p.current().Lexeme == lexeme && p.current().Kind != token.EOF
}

func (p *Parser) match(lexeme string) bool {
	if p.check(lexeme) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(lexeme, context string) (token.Token, error) {
	if !p.check(lexeme) {
		return token.Token{}, p.unexpected(lexeme, context)
	}
	return p.advance(), nil
}

func (p *Parser) unexpected(expected, context string) error {
	got := p.current().Lexeme
	if p.current().Kind == token.EOF {
		got = "<eof>"
	}
	var suggestion string
	if p.current().Kind == token.Identifier {
		suggestion = obferr.SuggestKeyword(got, token.KeywordList())
	}
	return &obferr.ParseError{
		Expected:   expected + " (" + context + ")",
		Got:        got,
		Offset:     p.current().Offset,
		Suggestion: suggestion,
	}
}

func (p *Parser) enterDepth() error {
	p.depth++
	if p.depth > MaxDepth {
		return &obferr.ResourceExceeded{Limit: "AST depth 1024", Actual: strconv.Itoa(p.depth)}
	}
	return nil
}

func (p *Parser) exitDepth() { p.depth-- }

// ---- statements ------------------------------------------------------------

func (p *Parser) parseStatements(stop func() bool) ([]ast.Statement, error) {
	var stmts []ast.Statement
	for !stop() && !p.isAtEnd() {
		if p.check(";") {
			p.advance()
			continue
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		if _, isReturn := stmt.(*ast.ReturnStmt); isReturn {
			break // a return statement must be the last statement of a block
		}
	}
	return stmts, nil
}

func (p *Parser) parseBlockUntil(terminators ...string) (*ast.Block, error) {
	if err := p.enterDepth(); err != nil {
		return nil, err
	}
	defer p.exitDepth()

	offset := p.current().Offset
	stmts, err := p.parseStatements(func() bool {
		for _, t := range terminators {
			if p.check(t) {
				return true
			}
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	return &ast.Block{Base: ast.Base{Offset: offset}, Stmts: stmts}, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	offset := p.current().Offset
	switch {
	case p.match("local"):
		return p.parseLocal(offset)
	case p.match("if"):
		return p.parseIf(offset)
	case p.match("while"):
		return p.parseWhile(offset)
	case p.match("repeat"):
		return p.parseRepeat(offset)
	case p.match("for"):
		return p.parseFor(offset)
	case p.match("function"):
		return p.parseFunctionDecl(offset)
	case p.match("return"):
		return p.parseReturn(offset)
	case p.match("break"):
		return &ast.BreakStmt{}, nil
	case p.match("goto"):
		name, err := p.expectIdentifier("label name")
		if err != nil {
			return nil, err
		}
		return &ast.GotoStmt{Label: name}, nil
	case p.match("::"):
		name, err := p.expectIdentifier("label name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect("::", "label close"); err != nil {
			return nil, err
		}
		return &ast.LabelStmt{Name: name}, nil
	case p.match("do"):
		body, err := p.parseBlockUntil("end")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect("end", "do block"); err != nil {
			return nil, err
		}
		return body, nil
	default:
		return p.parseExpressionOrAssignment(offset)
	}
}

func (p *Parser) expectIdentifier(context string) (string, error) {
	if p.current().Kind != token.Identifier {
		return "", p.unexpected("identifier", context)
	}
	return p.advance().Lexeme, nil
}

func (p *Parser) parseLocal(offset int) (ast.Statement, error) {
	var names []string
	for {
		name, err := p.expectIdentifier("local name")
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		if !p.match(",") {
			break
		}
	}
	var values []ast.Expression
	if p.match("=") {
		vs, err := p.parseExpressionList()
		if err != nil {
			return nil, err
		}
		values = vs
	}
	return &ast.LocalStmt{Base: ast.Base{Offset: offset}, Names: names, Values: values}, nil
}

func (p *Parser) parseIf(offset int) (ast.Statement, error) {
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect("then", "if condition"); err != nil {
		return nil, err
	}
	then, err := p.parseBlockUntil("elseif", "else", "end")
	if err != nil {
		return nil, err
	}
	stmt := &ast.IfStmt{Cond: cond, Then: then}
	stmt.Offset = offset
	for p.match("elseif") {
		ec, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect("then", "elseif condition"); err != nil {
			return nil, err
		}
		eb, err := p.parseBlockUntil("elseif", "else", "end")
		if err != nil {
			return nil, err
		}
		stmt.ElseIfs = append(stmt.ElseIfs, ast.ElseIfClause{Cond: ec, Body: eb})
	}
	if p.match("else") {
		eb, err := p.parseBlockUntil("end")
		if err != nil {
			return nil, err
		}
		stmt.Else = eb
	}
	if _, err := p.expect("end", "if statement"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseWhile(offset int) (ast.Statement, error) {
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect("do", "while condition"); err != nil {
		return nil, err
	}
	body, err := p.parseBlockUntil("end")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect("end", "while body"); err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Base: ast.Base{Offset: offset}, Cond: cond, Body: body}, nil
}

func (p *Parser) parseRepeat(offset int) (ast.Statement, error) {
	body, err := p.parseBlockUntil("until")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect("until", "repeat body"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.RepeatStmt{Base: ast.Base{Offset: offset}, Body: body, Cond: cond}, nil
}

func (p *Parser) parseFor(offset int) (ast.Statement, error) {
	first, err := p.expectIdentifier("loop variable")
	if err != nil {
		return nil, err
	}
	if p.match("=") {
		start, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(",", "numeric for range"); err != nil {
			return nil, err
		}
		end, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		var step ast.Expression
		if p.match(",") {
			step, err = p.parseExpression()
			if err != nil {
				return nil, err
			}
		}
		if _, err := p.expect("do", "numeric for header"); err != nil {
			return nil, err
		}
		body, err := p.parseBlockUntil("end")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect("end", "numeric for body"); err != nil {
			return nil, err
		}
		return &ast.NumericForStmt{Base: ast.Base{Offset: offset}, Var: first, Start: start, End: end, Step: step, Body: body}, nil
	}

	vars := []string{first}
	for p.match(",") {
		name, err := p.expectIdentifier("loop variable")
		if err != nil {
			return nil, err
		}
		vars = append(vars, name)
	}
	if _, err := p.expect("in", "generic for header"); err != nil {
		return nil, err
	}
	exprs, err := p.parseExpressionList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect("do", "generic for header"); err != nil {
		return nil, err
	}
	body, err := p.parseBlockUntil("end")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect("end", "generic for body"); err != nil {
		return nil, err
	}
	return &ast.GenericForStmt{Base: ast.Base{Offset: offset}, Vars: vars, Exprs: exprs, Body: body}, nil
}

func (p *Parser) parseFunctionDecl(offset int) (ast.Statement, error) {
	name, err := p.expectIdentifier("function name")
	if err != nil {
		return nil, err
	}
	for p.match(".") {
		field, err := p.expectIdentifier("function name")
		if err != nil {
			return nil, err
		}
		name += "." + field
	}
	params, vararg, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlockUntil("end")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect("end", "function body"); err != nil {
		return nil, err
	}
	return &ast.FunctionDecl{Base: ast.Base{Offset: offset}, Name: name, Params: params, Vararg: vararg, Body: body}, nil
}

func (p *Parser) parseParamList() ([]string, bool, error) {
	if _, err := p.expect("(", "parameter list"); err != nil {
		return nil, false, err
	}
	var params []string
	vararg := false
	if !p.check(")") {
		for {
			if p.match("...") {
				vararg = true
				break
			}
			name, err := p.expectIdentifier("parameter name")
			if err != nil {
				return nil, false, err
			}
			params = append(params, name)
			if !p.match(",") {
				break
			}
		}
	}
	if _, err := p.expect(")", "parameter list"); err != nil {
		return nil, false, err
	}
	return params, vararg, nil
}

func (p *Parser) parseReturn(offset int) (ast.Statement, error) {
	var exprs []ast.Expression
	if !p.isAtEnd() && !p.check(";") && !p.check("end") && !p.check("else") &&
		!p.check("elseif") && !p.check("until") {
		es, err := p.parseExpressionList()
		if err != nil {
			return nil, err
		}
		exprs = es
	}
	return &ast.ReturnStmt{Base: ast.Base{Offset: offset}, Exprs: exprs}, nil
}

// parseExpressionOrAssignment resolves the statement/assignment fork by a
// bounded look-ahead on '=' after parsing a prefix expression (§4.3).
func (p *Parser) parseExpressionOrAssignment(offset int) (ast.Statement, error) {
	first, err := p.parseSuffixedExpression()
	if err != nil {
		return nil, err
	}

	if p.check("=") || p.check(",") {
		targets := []ast.Expression{first}
		for p.match(",") {
			t, err := p.parseSuffixedExpression()
			if err != nil {
				return nil, err
			}
			targets = append(targets, t)
		}
		if _, err := p.expect("=", "assignment"); err != nil {
			return nil, err
		}
		values, err := p.parseExpressionList()
		if err != nil {
			return nil, err
		}
		return &ast.AssignStmt{Base: ast.Base{Offset: offset}, Targets: targets, Values: values}, nil
	}

	return &ast.ExpressionStmt{Base: ast.Base{Offset: offset}, Expr: first}, nil
}

// ---- expressions -----------------------------------------------------------

func (p *Parser) parseExpressionList() ([]ast.Expression, error) {
	var exprs []ast.Expression
	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	exprs = append(exprs, e)
	for p.match(",") {
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}

func (p *Parser) parseExpression() (ast.Expression, error) {
	return p.parseBinary(0)
}

func (p *Parser) parseBinary(minPrec int) (ast.Expression, error) {
	if err := p.enterDepth(); err != nil {
		return nil, err
	}
	defer p.exitDepth()

	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		op := p.current().Lexeme
		kind := p.current().Kind
		if kind != token.Operator && kind != token.Keyword {
			break
		}
		prec := ast.Precedence(op)
		if prec == 0 || prec < minPrec {
			break
		}
		offset := p.current().Offset
		p.advance()

		nextMin := prec + 1
		if ast.RightAssociative(op) {
			nextMin = prec
		}
		right, err := p.parseBinary(nextMin)
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Base: ast.Base{Offset: offset}, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	if p.check("not") || p.check("-") || p.check("#") || p.check("~") {
		op := p.current().Lexeme
		offset := p.current().Offset
		p.advance()
		arg, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Base: ast.Base{Offset: offset}, Op: op, Arg: arg}, nil
	}
	return p.parseSuffixedExpression()
}

func (p *Parser) parseSuffixedExpression() (ast.Expression, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		offset := p.current().Offset
		switch {
		case p.match("."):
			member, err := p.expectIdentifier("member name")
			if err != nil {
				return nil, err
			}
			expr = &ast.MemberAccess{Base: ast.Base{Offset: offset}, Obj: expr, Member: member}
		case p.match("["):
			idx, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect("]", "index expression"); err != nil {
				return nil, err
			}
			expr = &ast.IndexAccess{Base: ast.Base{Offset: offset}, Obj: expr, Index: idx}
		case p.match(":"):
			method, err := p.expectIdentifier("method name")
			if err != nil {
				return nil, err
			}
			args, err := p.parseCallArgs()
			if err != nil {
				return nil, err
			}
			expr = &ast.MethodCall{Base: ast.Base{Offset: offset}, Obj: expr, Method: method, Args: args}
		case p.check("(") || p.current().Kind == token.String || p.check("{"):
			args, err := p.parseCallArgs()
			if err != nil {
				return nil, err
			}
			expr = &ast.Call{Base: ast.Base{Offset: offset}, Callee: expr, Args: args}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parseCallArgs() ([]ast.Expression, error) {
	if p.current().Kind == token.String {
		s, err := p.parseStringLiteral()
		if err != nil {
			return nil, err
		}
		return []ast.Expression{s}, nil
	}
	if p.check("{") {
		t, err := p.parseTable()
		if err != nil {
			return nil, err
		}
		return []ast.Expression{t}, nil
	}
	if _, err := p.expect("(", "call arguments"); err != nil {
		return nil, err
	}
	var args []ast.Expression
	if !p.check(")") {
		as, err := p.parseExpressionList()
		if err != nil {
			return nil, err
		}
		args = as
	}
	if _, err := p.expect(")", "call arguments"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	tok := p.current()
	offset := tok.Offset

	switch {
	case tok.Kind == token.Number:
		p.advance()
		return &ast.NumberLit{Base: ast.Base{Offset: offset}, Value: tok.Lexeme}, nil
	case tok.Kind == token.String:
		return p.parseStringLiteral()
	case p.match("true"):
		return &ast.BoolLit{Base: ast.Base{Offset: offset}, Value: true}, nil
	case p.match("false"):
		return &ast.BoolLit{Base: ast.Base{Offset: offset}, Value: false}, nil
	case p.match("nil"):
		return &ast.NilLit{ast.Base{Offset: offset}}, nil
	case p.match("..."):
		return &ast.Vararg{ast.Base{Offset: offset}}, nil
	case p.match("function"):
		params, vararg, err := p.parseParamList()
		if err != nil {
			return nil, err
		}
		body, err := p.parseBlockUntil("end")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect("end", "function expression"); err != nil {
			return nil, err
		}
		return &ast.FunctionExpr{Base: ast.Base{Offset: offset}, Params: params, Vararg: vararg, Body: body}, nil
	case p.check("{"):
		return p.parseTable()
	case p.match("("):
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(")", "parenthesized expression"); err != nil {
			return nil, err
		}
		return inner, nil
	case tok.Kind == token.Identifier:
		p.advance()
		return &ast.Variable{Base: ast.Base{Offset: offset}, Name: tok.Lexeme}, nil
	default:
		return nil, p.unexpected("expression", "primary expression")
	}
}

func (p *Parser) parseStringLiteral() (ast.Expression, error) {
	tok := p.advance()
	return &ast.StringLit{Base: ast.Base{Offset: tok.Offset}, Value: decodeStringLexeme(tok.Lexeme), Raw: tok.Lexeme}, nil
}

func (p *Parser) parseTable() (ast.Expression, error) {
	offset := p.current().Offset
	if _, err := p.expect("{", "table constructor"); err != nil {
		return nil, err
	}
	var fields []ast.TableField
	for !p.check("}") {
		field, err := p.parseTableField()
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
		if !p.match(",") && !p.match(";") {
			break
		}
	}
	if _, err := p.expect("}", "table constructor"); err != nil {
		return nil, err
	}
	return &ast.Table{Base: ast.Base{Offset: offset}, Fields: fields}, nil
}

func (p *Parser) parseTableField() (ast.TableField, error) {
	offset := p.current().Offset
	if p.match("[") {
		key, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect("]", "table key"); err != nil {
			return nil, err
		}
		if _, err := p.expect("=", "table key"); err != nil {
			return nil, err
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ast.IndexField{Base: ast.Base{Offset: offset}, Key: key, Value: value}, nil
	}
	if p.current().Kind == token.Identifier && p.peek().Lexeme == "=" {
		name := p.advance().Lexeme
		p.advance() // '='
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ast.NamedField{Base: ast.Base{Offset: offset}, Name: name, Value: value}, nil
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.ArrayField{Base: ast.Base{Offset: offset}, Value: value}, nil
}

// decodeStringLexeme resolves backslash escapes in a quoted-string lexeme
// (the lexer preserves them verbatim). Long-bracket strings pass through
// unescaped, per the target dialect.
func decodeStringLexeme(lexeme string) string {
	if len(lexeme) >= 2 && lexeme[0] == '[' {
		return stripLongBracketDelimiters(lexeme)
	}
	if len(lexeme) < 2 {
		return lexeme
	}
	body := lexeme[1 : len(lexeme)-1]
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			i++
			switch body[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '"', '\'', '\\':
				b.WriteByte(body[i])
			default:
				b.WriteByte(body[i])
			}
			continue
		}
		b.WriteByte(body[i])
	}
	return b.String()
}

func stripLongBracketDelimiters(lexeme string) string {
	i := 1
	for i < len(lexeme) && lexeme[i] == '=' {
		i++
	}
	if i >= len(lexeme) || lexeme[i] != '[' {
		return lexeme
	}
	level := i - 1
	closer := "]" + strings.Repeat("=", level) + "]"
	start := i + 1
	end := len(lexeme) - len(closer)
	if end < start {
		return ""
	}
	return lexeme[start:end]
}
