// Package cflow implements the control-flow flattening pass (§4.6): an
// eligible statement sequence is rewritten into a single dispatch loop
// driven by a state variable, with each original statement becoming one
// arm of an if/elseif chain keyed on an oracle-permuted state value.
//
// Flattening a block that contains a break, return, goto, or label is
// unsound — the statement's control transfer would now have to escape the
// synthetic dispatch loop, which this pass does not attempt to rewrite.
// containsEscapingControl is a hard precondition: any such block is left
// untouched rather than flattened.
package cflow

import (
	"fmt"

	"github.com/Loadstring-Afk/Celestial-SF/internal/ast"
	"github.com/Loadstring-Afk/Celestial-SF/internal/invariant"
	"github.com/Loadstring-Afk/Celestial-SF/internal/oracle"
)

// Options controls how aggressively the pass flattens.
type Options struct {
	// MinStatements is the minimum block length worth flattening; very
	// short blocks gain little obfuscation for their dispatch overhead.
	MinStatements int
}

func DefaultOptions() Options {
	return Options{MinStatements: 2}
}

// Apply flattens every eligible block reachable from prog.
func Apply(prog *ast.Program, o *oracle.Oracle, opts Options) {
	prog.Body = transformBlock(prog.Body, o, opts)
}

func transformBlock(b *ast.Block, o *oracle.Oracle, opts Options) *ast.Block {
	for i, s := range b.Stmts {
		b.Stmts[i] = transformStmt(s, o, opts)
	}
	if containsEscapingControl(b) || len(b.Stmts) < opts.MinStatements {
		return b
	}
	return flatten(b, o)
}

func transformStmt(s ast.Statement, o *oracle.Oracle, opts Options) ast.Statement {
	switch v := s.(type) {
	case *ast.IfStmt:
		v.Then = transformBlock(v.Then, o, opts)
		for i := range v.ElseIfs {
			v.ElseIfs[i].Body = transformBlock(v.ElseIfs[i].Body, o, opts)
		}
		if v.Else != nil {
			v.Else = transformBlock(v.Else, o, opts)
		}
	case *ast.NumericForStmt:
		v.Body = transformBlock(v.Body, o, opts)
	case *ast.GenericForStmt:
		v.Body = transformBlock(v.Body, o, opts)
	case *ast.WhileStmt:
		v.Body = transformBlock(v.Body, o, opts)
	case *ast.RepeatStmt:
		v.Body = transformBlock(v.Body, o, opts)
	case *ast.FunctionDecl:
		v.Body = transformBlock(v.Body, o, opts)
	case *ast.Block:
		transformed := transformBlock(v, o, opts)
		return transformed
	}
	return s
}

// containsEscapingControl reports whether any statement in b, at any
// nesting depth, could transfer control out of a dispatch loop built around
// b: break, return, goto, or a label that something outside b might jump
// into.
func containsEscapingControl(b *ast.Block) bool {
	for _, s := range b.Stmts {
		if stmtEscapes(s) {
			return true
		}
	}
	return false
}

func stmtEscapes(s ast.Statement) bool {
	switch v := s.(type) {
	case *ast.BreakStmt, *ast.ReturnStmt, *ast.GotoStmt, *ast.LabelStmt:
		return true
	case *ast.IfStmt:
		if containsEscapingControl(v.Then) {
			return true
		}
		for _, ei := range v.ElseIfs {
			if containsEscapingControl(ei.Body) {
				return true
			}
		}
		return v.Else != nil && containsEscapingControl(v.Else)
	case *ast.NumericForStmt:
		return containsEscapingControl(v.Body)
	case *ast.GenericForStmt:
		return containsEscapingControl(v.Body)
	case *ast.WhileStmt:
		return containsEscapingControl(v.Body)
	case *ast.RepeatStmt:
		return containsEscapingControl(v.Body)
	case *ast.FunctionDecl:
		// a nested function's own return/break is scoped to itself, not an
		// escape from the enclosing block.
		return false
	case *ast.Block:
		return containsEscapingControl(v)
	}
	return false
}

// opaquePredicate returns an always-true comparison built from a fresh
// oracle-chosen operand, using the identity that a*a+a is even for every
// integer a. A static reader cannot discharge it without reasoning about
// parity; a dynamic one just sees a cheap arithmetic check that always
// passes.
func opaquePredicate(o *oracle.Oracle) ast.Expression {
	a := o.Range(2, 1000)
	// (a*a + a) % 2 == 0
	aLit := &ast.NumberLit{Value: fmt.Sprintf("%d", a)}
	square := &ast.Binary{Op: "*", Left: aLit, Right: &ast.NumberLit{Value: fmt.Sprintf("%d", a)}}
	sum := &ast.Binary{Op: "+", Left: square, Right: &ast.NumberLit{Value: fmt.Sprintf("%d", a)}}
	mod := &ast.Binary{Op: "%", Left: sum, Right: &ast.NumberLit{Value: "2"}}
	return &ast.Binary{Op: "==", Left: mod, Right: &ast.NumberLit{Value: "0"}}
}

// flatten rewrites b's statement sequence into a state-dispatch loop.
//
// A sibling if/elseif/else chain gives each arm its own nested block scope,
// so a local declared in one arm is invisible to a later arm — the opposite
// of what the original straight-line block guaranteed, where every local
// stays visible to every statement after it in the same block. hoistLocals
// below restores that by declaring every name the block locally introduces,
// nil-initialized, once at the top of the flattened block, and rewriting
// each original LocalStmt in place into a plain assignment to that name.
func flatten(b *ast.Block, o *oracle.Oracle) *ast.Block {
	invariant.Precondition(len(b.Stmts) > 0, "cflow.flatten: block must be non-empty")

	hoisted, stmts := hoistLocals(b.Stmts)

	n := len(stmts)
	states := make([]int, n+1)
	seen := map[int]bool{}
	for i := range states {
		for {
			v := o.Range(0, 1_000_000)
			if !seen[v] {
				seen[v] = true
				states[i] = v
				break
			}
		}
	}
	doneState := states[n]
	stateVar := o.Identifier()

	and := func(l, r ast.Expression) ast.Expression { return &ast.Binary{Op: "and", Left: l, Right: r} }
	stateEquals := func(v int) ast.Expression {
		return &ast.Binary{Op: "==", Left: &ast.Variable{Name: stateVar}, Right: &ast.NumberLit{Value: fmt.Sprintf("%d", v)}}
	}

	var dispatch *ast.IfStmt
	var tail *ast.IfStmt
	for i := 0; i < n; i++ {
		cond := and(stateEquals(states[i]), opaquePredicate(o))
		advance := &ast.AssignStmt{
			Targets: []ast.Expression{&ast.Variable{Name: stateVar}},
			Values:  []ast.Expression{&ast.NumberLit{Value: fmt.Sprintf("%d", states[i+1])}},
		}
		arm := &ast.IfStmt{
			Cond: cond,
			Then: &ast.Block{Stmts: []ast.Statement{stmts[i], advance}},
		}
		if dispatch == nil {
			dispatch = arm
			tail = arm
		} else {
			tail.Else = &ast.Block{Stmts: []ast.Statement{arm}}
			tail = arm
		}
	}

	loop := &ast.WhileStmt{
		Cond: &ast.Binary{Op: "~=", Left: &ast.Variable{Name: stateVar}, Right: &ast.NumberLit{Value: fmt.Sprintf("%d", doneState)}},
		Body: &ast.Block{Stmts: []ast.Statement{dispatch}},
	}

	out := &ast.Block{Stmts: []ast.Statement{}}
	if hoisted != nil {
		out.Stmts = append(out.Stmts, hoisted)
	}
	out.Stmts = append(out.Stmts,
		&ast.LocalStmt{Names: []string{stateVar}, Values: []ast.Expression{&ast.NumberLit{Value: fmt.Sprintf("%d", states[0])}}},
		loop,
	)
	return out
}

// hoistLocals pulls every name declared by a top-level LocalStmt in stmts
// out into one nil-initialized LocalStmt (or nil if none were declared),
// and returns a copy of stmts with each original LocalStmt rewritten into
// an AssignStmt against those same names, preserving value-list shape
// (including multi-value assignment from a single call expression).
func hoistLocals(in []ast.Statement) (*ast.LocalStmt, []ast.Statement) {
	var names []string
	out := make([]ast.Statement, len(in))
	for i, s := range in {
		local, ok := s.(*ast.LocalStmt)
		if !ok {
			out[i] = s
			continue
		}
		names = append(names, local.Names...)
		targets := make([]ast.Expression, len(local.Names))
		for j, n := range local.Names {
			targets[j] = &ast.Variable{Name: n}
		}
		out[i] = &ast.AssignStmt{Targets: targets, Values: local.Values}
	}
	if len(names) == 0 {
		return nil, out
	}
	return &ast.LocalStmt{Names: names}, out
}
