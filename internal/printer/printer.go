// Package printer renders an AST back to target-language source text
// (§4.10). It is precedence-aware — a child expression is parenthesized
// only when the grammar would otherwise parse it differently — and
// re-quotes string literals with the shortest safe quoting, not a literal
// copy of whatever quote style the source used.
package printer

import (
	"strconv"
	"strings"

	"github.com/Loadstring-Afk/Celestial-SF/internal/ast"
	"github.com/Loadstring-Afk/Celestial-SF/internal/invariant"
)

const indentStep = "  "

// Printer accumulates rendered text over one Program. Not safe for
// concurrent use; construct one per print.
type Printer struct {
	b      strings.Builder
	indent int
}

// Print renders a complete program.
func Print(p *ast.Program) string {
	pr := &Printer{}
	pr.block(p.Body)
	return pr.b.String()
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.b.WriteString(indentStep)
	}
}

func (p *Printer) line(s string) {
	p.writeIndent()
	p.b.WriteString(s)
	p.b.WriteByte('\n')
}

func (p *Printer) block(b *ast.Block) {
	invariant.NotNil(b, "printer.block")
	for _, s := range b.Stmts {
		p.stmt(s)
	}
}

func (p *Printer) stmt(s ast.Statement) {
	switch v := s.(type) {
	case *ast.LocalStmt:
		line := "local " + strings.Join(v.Names, ", ")
		if len(v.Values) > 0 {
			line += " = " + p.exprList(v.Values)
		}
		p.line(line)
	case *ast.AssignStmt:
		p.line(p.exprList(v.Targets) + " = " + p.exprList(v.Values))
	case *ast.IfStmt:
		p.line("if " + p.expr(v.Cond, 0) + " then")
		p.indent++
		p.block(v.Then)
		p.indent--
		for _, ei := range v.ElseIfs {
			p.line("elseif " + p.expr(ei.Cond, 0) + " then")
			p.indent++
			p.block(ei.Body)
			p.indent--
		}
		if v.Else != nil {
			p.line("else")
			p.indent++
			p.block(v.Else)
			p.indent--
		}
		p.line("end")
	case *ast.NumericForStmt:
		header := "for " + v.Var + " = " + p.expr(v.Start, 0) + ", " + p.expr(v.End, 0)
		if v.Step != nil {
			header += ", " + p.expr(v.Step, 0)
		}
		p.line(header + " do")
		p.indent++
		p.block(v.Body)
		p.indent--
		p.line("end")
	case *ast.GenericForStmt:
		p.line("for " + strings.Join(v.Vars, ", ") + " in " + p.exprList(v.Exprs) + " do")
		p.indent++
		p.block(v.Body)
		p.indent--
		p.line("end")
	case *ast.WhileStmt:
		p.line("while " + p.expr(v.Cond, 0) + " do")
		p.indent++
		p.block(v.Body)
		p.indent--
		p.line("end")
	case *ast.RepeatStmt:
		p.line("repeat")
		p.indent++
		p.block(v.Body)
		p.indent--
		p.line("until " + p.expr(v.Cond, 0))
	case *ast.ReturnStmt:
		line := "return"
		if len(v.Exprs) > 0 {
			line += " " + p.exprList(v.Exprs)
		}
		p.line(line)
	case *ast.BreakStmt:
		p.line("break")
	case *ast.GotoStmt:
		p.line("goto " + v.Label)
	case *ast.LabelStmt:
		p.line("::" + v.Name + "::")
	case *ast.FunctionDecl:
		header := "function " + v.Name + "(" + p.paramList(v.Params, v.Vararg) + ")"
		p.line(header)
		p.indent++
		p.block(v.Body)
		p.indent--
		p.line("end")
	case *ast.ExpressionStmt:
		p.line(p.expr(v.Expr, 0))
	case *ast.RawEmit:
		p.line(v.Text)
	case *ast.Block:
		p.line("do")
		p.indent++
		p.block(v)
		p.indent--
		p.line("end")
	default:
		invariant.Invariant(false, "printer.stmt: unhandled statement type %T", s)
	}
}

func (p *Printer) paramList(params []string, vararg bool) string {
	parts := append([]string(nil), params...)
	if vararg {
		parts = append(parts, "...")
	}
	return strings.Join(parts, ", ")
}

func (p *Printer) exprList(exprs []ast.Expression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = p.expr(e, 0)
	}
	return strings.Join(parts, ", ")
}

// expr renders e, parenthesizing it if its own precedence is lower than
// parentPrec (i.e. it would bind looser than the context requires).
func (p *Printer) expr(e ast.Expression, parentPrec int) string {
	switch v := e.(type) {
	case *ast.NumberLit:
		return v.Value
	case *ast.StringLit:
		return quote(v.Value)
	case *ast.BoolLit:
		if v.Value {
			return "true"
		}
		return "false"
	case *ast.NilLit:
		return "nil"
	case *ast.Vararg:
		return "..."
	case *ast.Variable:
		return v.Name
	case *ast.MemberAccess:
		return p.expr(v.Obj, ast.PrecUnary) + "." + v.Member
	case *ast.IndexAccess:
		return p.expr(v.Obj, ast.PrecUnary) + "[" + p.expr(v.Index, 0) + "]"
	case *ast.Call:
		return p.expr(v.Callee, ast.PrecUnary) + "(" + p.exprList(v.Args) + ")"
	case *ast.MethodCall:
		return p.expr(v.Obj, ast.PrecUnary) + ":" + v.Method + "(" + p.exprList(v.Args) + ")"
	case *ast.Binary:
		prec := ast.Precedence(v.Op)
		leftMin, rightMin := prec, prec+1
		if ast.RightAssociative(v.Op) {
			leftMin, rightMin = prec+1, prec
		}
		s := p.expr(v.Left, leftMin) + " " + v.Op + " " + p.expr(v.Right, rightMin)
		if prec < parentPrec {
			return "(" + s + ")"
		}
		return s
	case *ast.Unary:
		sep := ""
		if v.Op == "not" {
			sep = " "
		}
		s := v.Op + sep + p.expr(v.Arg, ast.PrecUnary)
		if ast.PrecUnary < parentPrec {
			return "(" + s + ")"
		}
		return s
	case *ast.FunctionExpr:
		var sub Printer
		sub.indent = p.indent + 1
		sub.block(v.Body)
		return "function(" + p.paramList(v.Params, v.Vararg) + ")\n" + sub.b.String() + strings.Repeat(indentStep, p.indent) + "end"
	case *ast.Table:
		return p.table(v)
	case *ast.RawEmit:
		return v.Text
	default:
		invariant.Invariant(false, "printer.expr: unhandled expression type %T", e)
		return ""
	}
}

func (p *Printer) table(t *ast.Table) string {
	if len(t.Fields) == 0 {
		return "{}"
	}
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		switch field := f.(type) {
		case *ast.IndexField:
			parts[i] = "[" + p.expr(field.Key, 0) + "] = " + p.expr(field.Value, 0)
		case *ast.NamedField:
			parts[i] = field.Name + " = " + p.expr(field.Value, 0)
		case *ast.ArrayField:
			parts[i] = p.expr(field.Value, 0)
		default:
			invariant.Invariant(false, "printer.table: unhandled field type %T", f)
		}
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// quote renders s as a double-quoted string literal with the minimal
// escaping needed to round-trip (§4.10: "minimal re-quoting", not a copy of
// the original lexeme).
func quote(s string) string {
	return strconv.Quote(s)
}
