// Package deadcode implements the dead-statement injection pass (§4.7):
// oracle-gated splicing of self-contained, side-effect-free template
// statements between real statements, bounded by a density ceiling so
// output size stays predictable.
package deadcode

import (
	"fmt"

	"github.com/Loadstring-Afk/Celestial-SF/internal/ast"
	"github.com/Loadstring-Afk/Celestial-SF/internal/invariant"
	"github.com/Loadstring-Afk/Celestial-SF/internal/oracle"
)

// Options controls injection aggressiveness.
type Options struct {
	// Density is the per-insertion-point probability of splicing a dead
	// statement, in [0, 1]. Default density is bounded at 0.3 (§4.7: "bounded
	// density, default <= 30%").
	Density float64
}

const maxDensity = 0.3

func DefaultOptions() Options {
	return Options{Density: 0.2}
}

// Apply walks prog and splices dead statements between existing statements
// at every block level, gated by opts.Density.
func Apply(prog *ast.Program, o *oracle.Oracle, opts Options) {
	invariant.Precondition(opts.Density >= 0 && opts.Density <= maxDensity,
		"deadcode: density %.3f exceeds the %.2f ceiling", opts.Density, maxDensity)
	transformBlock(prog.Body, o, opts)
}

func transformBlock(b *ast.Block, o *oracle.Oracle, opts Options) {
	var out []ast.Statement
	for _, s := range b.Stmts {
		transformNested(s, o, opts)
		if o.Bool(opts.Density) {
			out = append(out, template(o))
		}
		out = append(out, s)
	}
	if o.Bool(opts.Density) {
		out = append(out, template(o))
	}
	b.Stmts = out
}

func transformNested(s ast.Statement, o *oracle.Oracle, opts Options) {
	switch v := s.(type) {
	case *ast.IfStmt:
		transformBlock(v.Then, o, opts)
		for i := range v.ElseIfs {
			transformBlock(v.ElseIfs[i].Body, o, opts)
		}
		if v.Else != nil {
			transformBlock(v.Else, o, opts)
		}
	case *ast.NumericForStmt:
		transformBlock(v.Body, o, opts)
	case *ast.GenericForStmt:
		transformBlock(v.Body, o, opts)
	case *ast.WhileStmt:
		transformBlock(v.Body, o, opts)
	case *ast.RepeatStmt:
		transformBlock(v.Body, o, opts)
	case *ast.FunctionDecl:
		transformBlock(v.Body, o, opts)
	case *ast.Block:
		transformBlock(v, o, opts)
	}
}

// template builds one self-contained, side-effect-free dead statement,
// drawn from the categories named in §4.7: arithmetic on a fresh local, a
// loop that runs once and breaks immediately, a mock function that is
// declared but never called, and table construction paired with its own
// teardown (with or without installing a metatable). Each call uses fresh
// oracle-generated names, so repeated templates never collide.
func template(o *oracle.Oracle) ast.Statement {
	name := o.Identifier()
	switch o.Range(0, 6) {
	case 0:
		return &ast.LocalStmt{
			Names:  []string{name},
			Values: []ast.Expression{&ast.NumberLit{Value: fmt.Sprintf("%d", o.Range(0, 1000))}},
		}
	case 1:
		return &ast.LocalStmt{
			Names: []string{name},
			Values: []ast.Expression{&ast.Binary{
				Op:    "+",
				Left:  &ast.NumberLit{Value: fmt.Sprintf("%d", o.Range(1, 100))},
				Right: &ast.NumberLit{Value: fmt.Sprintf("%d", o.Range(1, 100))},
			}},
		}
	case 2:
		return &ast.IfStmt{
			Cond: &ast.BoolLit{Value: false},
			Then: &ast.Block{Stmts: []ast.Statement{
				&ast.LocalStmt{Names: []string{name}, Values: []ast.Expression{&ast.NilLit{}}},
			}},
		}
	case 3:
		return fakeLoop(o, name)
	case 4:
		return mockFunction(o, name)
	default:
		return tableConstructTeardown(o, name)
	}
}

// fakeLoop declares a fresh numeric-for loop whose body is a lone break, so
// the body runs once, never reaches a second iteration, and has no
// observable effect.
func fakeLoop(o *oracle.Oracle, name string) ast.Statement {
	return &ast.NumericForStmt{
		Var:   name,
		Start: &ast.NumberLit{Value: "1"},
		End:   &ast.NumberLit{Value: "1"},
		Body:  &ast.Block{Stmts: []ast.Statement{&ast.BreakStmt{}}},
	}
}

// mockFunction declares a function value under a fresh name that nothing
// in the program calls.
func mockFunction(o *oracle.Oracle, name string) ast.Statement {
	paramName := o.Identifier()
	return &ast.LocalStmt{
		Names: []string{name},
		Values: []ast.Expression{&ast.FunctionExpr{
			Params: []string{paramName},
			Body: &ast.Block{Stmts: []ast.Statement{
				&ast.ReturnStmt{Exprs: []ast.Expression{&ast.Variable{Name: paramName}}},
			}},
		}},
	}
}

// tableConstructTeardown builds a fresh table, optionally installs an empty
// metatable on it, then immediately tears it down by clearing the local to
// nil — none of it is ever read afterward.
func tableConstructTeardown(o *oracle.Oracle, name string) ast.Statement {
	stmts := []ast.Statement{
		&ast.LocalStmt{
			Names: []string{name},
			Values: []ast.Expression{&ast.Table{Fields: []ast.TableField{
				&ast.ArrayField{Value: &ast.NumberLit{Value: fmt.Sprintf("%d", o.Range(0, 100))}},
			}}},
		},
	}
	if o.Bool(0.5) {
		stmts = append(stmts, &ast.ExpressionStmt{Expr: &ast.Call{
			Callee: &ast.Variable{Name: "setmetatable"},
			Args:   []ast.Expression{&ast.Variable{Name: name}, &ast.Table{}},
		}})
	}
	stmts = append(stmts, &ast.AssignStmt{
		Targets: []ast.Expression{&ast.Variable{Name: name}},
		Values:  []ast.Expression{&ast.NilLit{}},
	})
	return &ast.Block{Stmts: stmts}
}
