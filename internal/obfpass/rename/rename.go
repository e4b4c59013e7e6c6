// Package rename implements the scope-sensitive alpha-renaming pass (§4.4):
// every local binding (locals, function parameters, for-loop control
// variables) is replaced with an oracle-generated identifier, without ever
// capturing an outer binding; names declared by a function statement are
// globals and keep their names. A rename is
// capture-free if substituting the new name cannot change which
// declaration a reference resolves to.
package rename

import (
	"github.com/Loadstring-Afk/Celestial-SF/internal/ast"
	"github.com/Loadstring-Afk/Celestial-SF/internal/oracle"
)

// scope is one lexical binding frame: a map from source name to its
// oracle-generated replacement, plus a link to the enclosing scope.
// Lookup walks outward, which is what makes renaming capture-free — a
// reference always resolves through the same chain of frames before and
// after substitution.
type scope struct {
	names  map[string]string
	parent *scope
}

func newScope(parent *scope) *scope {
	return &scope{names: make(map[string]string), parent: parent}
}

func (s *scope) declare(o *oracle.Oracle, original string) string {
	fresh := o.Identifier()
	s.names[original] = fresh
	return fresh
}

func (s *scope) resolve(name string) (string, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if fresh, ok := cur.names[name]; ok {
			return fresh, true
		}
	}
	return "", false
}

// Apply renames every local binding reachable from prog's top-level block.
// Globals (names never locally declared) are left untouched, since a
// global may be referenced by code outside the obfuscated unit.
func Apply(prog *ast.Program, o *oracle.Oracle) {
	root := newScope(nil)
	renameBlock(prog.Body, root, o)
}

func renameBlock(b *ast.Block, parent *scope, o *oracle.Oracle) {
	s := newScope(parent)
	for _, stmt := range b.Stmts {
		renameStmt(stmt, s, o)
	}
}

func renameStmt(stmt ast.Statement, s *scope, o *oracle.Oracle) {
	switch v := stmt.(type) {
	case *ast.LocalStmt:
		for _, e := range v.Values {
			renameExpr(e, s, o)
		}
		for i, name := range v.Names {
			v.Names[i] = s.declare(o, name)
		}
	case *ast.AssignStmt:
		for _, t := range v.Targets {
			renameExpr(t, s, o)
		}
		for _, e := range v.Values {
			renameExpr(e, s, o)
		}
	case *ast.IfStmt:
		renameExpr(v.Cond, s, o)
		renameBlock(v.Then, s, o)
		for i := range v.ElseIfs {
			renameExpr(v.ElseIfs[i].Cond, s, o)
			renameBlock(v.ElseIfs[i].Body, s, o)
		}
		if v.Else != nil {
			renameBlock(v.Else, s, o)
		}
	case *ast.NumericForStmt:
		renameExpr(v.Start, s, o)
		renameExpr(v.End, s, o)
		if v.Step != nil {
			renameExpr(v.Step, s, o)
		}
		loopScope := newScope(s)
		v.Var = loopScope.declare(o, v.Var)
		for _, inner := range v.Body.Stmts {
			renameStmt(inner, loopScope, o)
		}
	case *ast.GenericForStmt:
		for _, e := range v.Exprs {
			renameExpr(e, s, o)
		}
		loopScope := newScope(s)
		for i, name := range v.Vars {
			v.Vars[i] = loopScope.declare(o, name)
		}
		for _, inner := range v.Body.Stmts {
			renameStmt(inner, loopScope, o)
		}
	case *ast.WhileStmt:
		renameExpr(v.Cond, s, o)
		renameBlock(v.Body, s, o)
	case *ast.RepeatStmt:
		// repeat's until-condition can see the body's locals, so it shares
		// the body's scope rather than the enclosing one.
		bodyScope := newScope(s)
		for _, inner := range v.Body.Stmts {
			renameStmt(inner, bodyScope, o)
		}
		renameExpr(v.Cond, bodyScope, o)
	case *ast.ReturnStmt:
		for _, e := range v.Exprs {
			renameExpr(e, s, o)
		}
	case *ast.FunctionDecl:
		fnScope := newScope(s)
		for i, p := range v.Params {
			v.Params[i] = fnScope.declare(o, p)
		}
		for _, inner := range v.Body.Stmts {
			renameStmt(inner, fnScope, o)
		}
	case *ast.ExpressionStmt:
		renameExpr(v.Expr, s, o)
	case *ast.Block:
		renameBlock(v, s, o)
	case *ast.BreakStmt, *ast.GotoStmt, *ast.LabelStmt, *ast.RawEmit:
		// no bindings, no references
	}
}

func renameExpr(expr ast.Expression, s *scope, o *oracle.Oracle) {
	switch v := expr.(type) {
	case *ast.Variable:
		if fresh, ok := s.resolve(v.Name); ok {
			v.Name = fresh
		}
	case *ast.MemberAccess:
		renameExpr(v.Obj, s, o)
	case *ast.IndexAccess:
		renameExpr(v.Obj, s, o)
		renameExpr(v.Index, s, o)
	case *ast.Call:
		renameExpr(v.Callee, s, o)
		for _, a := range v.Args {
			renameExpr(a, s, o)
		}
	case *ast.MethodCall:
		renameExpr(v.Obj, s, o)
		for _, a := range v.Args {
			renameExpr(a, s, o)
		}
	case *ast.Binary:
		renameExpr(v.Left, s, o)
		renameExpr(v.Right, s, o)
	case *ast.Unary:
		renameExpr(v.Arg, s, o)
	case *ast.FunctionExpr:
		fnScope := newScope(s)
		for i, p := range v.Params {
			v.Params[i] = fnScope.declare(o, p)
		}
		for _, inner := range v.Body.Stmts {
			renameStmt(inner, fnScope, o)
		}
	case *ast.Table:
		for _, f := range v.Fields {
			renameTableField(f, s, o)
		}
	case *ast.NumberLit, *ast.StringLit, *ast.BoolLit, *ast.NilLit, *ast.Vararg, *ast.RawEmit:
		// leaves, no references
	}
}

func renameTableField(f ast.TableField, s *scope, o *oracle.Oracle) {
	switch v := f.(type) {
	case *ast.IndexField:
		renameExpr(v.Key, s, o)
		renameExpr(v.Value, s, o)
	case *ast.NamedField:
		renameExpr(v.Value, s, o)
	case *ast.ArrayField:
		renameExpr(v.Value, s, o)
	}
}
