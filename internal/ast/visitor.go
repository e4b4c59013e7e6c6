package ast

import "github.com/Loadstring-Afk/Celestial-SF/internal/invariant"

// Visitor is called once per node during a Walk, pre-order. Returning false
// skips the node's children.
type Visitor func(n Node) bool

// Walk performs an explicit recursive pre-order traversal — no generator
// machinery, per §9's "tree walks are explicit recursive procedures".
// Parent context, where a pass needs it, is carried on the Go call stack,
// not via back-pointers on the node (§9: "no back-pointers from child to
// parent").
func Walk(n Node, visit Visitor) {
	if n == nil {
		return
	}
	invariant.NotNil(n, "ast.Walk node")
	if !visit(n) {
		return
	}

	switch v := n.(type) {
	case *Program:
		Walk(v.Body, visit)
	case *Block:
		for _, s := range v.Stmts {
			Walk(s, visit)
		}
	case *LocalStmt:
		for _, e := range v.Values {
			Walk(e, visit)
		}
	case *AssignStmt:
		for _, t := range v.Targets {
			Walk(t, visit)
		}
		for _, e := range v.Values {
			Walk(e, visit)
		}
	case *IfStmt:
		Walk(v.Cond, visit)
		Walk(v.Then, visit)
		for _, ei := range v.ElseIfs {
			Walk(ei.Cond, visit)
			Walk(ei.Body, visit)
		}
		if v.Else != nil {
			Walk(v.Else, visit)
		}
	case *NumericForStmt:
		Walk(v.Start, visit)
		Walk(v.End, visit)
		if v.Step != nil {
			Walk(v.Step, visit)
		}
		Walk(v.Body, visit)
	case *GenericForStmt:
		for _, e := range v.Exprs {
			Walk(e, visit)
		}
		Walk(v.Body, visit)
	case *WhileStmt:
		Walk(v.Cond, visit)
		Walk(v.Body, visit)
	case *RepeatStmt:
		Walk(v.Body, visit)
		Walk(v.Cond, visit)
	case *ReturnStmt:
		for _, e := range v.Exprs {
			Walk(e, visit)
		}
	case *FunctionDecl:
		Walk(v.Body, visit)
	case *ExpressionStmt:
		Walk(v.Expr, visit)
	case *MemberAccess:
		Walk(v.Obj, visit)
	case *IndexAccess:
		Walk(v.Obj, visit)
		Walk(v.Index, visit)
	case *Call:
		Walk(v.Callee, visit)
		for _, a := range v.Args {
			Walk(a, visit)
		}
	case *MethodCall:
		Walk(v.Obj, visit)
		for _, a := range v.Args {
			Walk(a, visit)
		}
	case *Binary:
		Walk(v.Left, visit)
		Walk(v.Right, visit)
	case *Unary:
		Walk(v.Arg, visit)
	case *FunctionExpr:
		Walk(v.Body, visit)
	case *Table:
		for _, f := range v.Fields {
			Walk(f, visit)
		}
	case *IndexField:
		Walk(v.Key, visit)
		Walk(v.Value, visit)
	case *NamedField:
		Walk(v.Value, visit)
	case *ArrayField:
		Walk(v.Value, visit)
	// Leaf nodes: NumberLit, StringLit, BoolLit, NilLit, Vararg, Variable,
	// RawEmit, BreakStmt, GotoStmt, LabelStmt — no children.
	case *NumberLit, *StringLit, *BoolLit, *NilLit, *Vararg, *Variable,
		*RawEmit, *BreakStmt, *GotoStmt, *LabelStmt:
	default:
		invariant.Invariant(false, "ast.Walk: unhandled node type %T", n)
	}
}

// Clone deep-clones a node and all of its children. Passes that need to
// share a subtree (the dead-code pass reusing a template, the control-flow
// pass duplicating a condition into an opaque-predicate expression) must
// clone first — §3 invariant 4: every non-leaf node owns its children
// exclusively.
func Clone(n Node) Node {
	if n == nil {
		return nil
	}
	switch v := n.(type) {
	case *Program:
		return &Program{Base: v.Base, Body: cloneBlock(v.Body)}
	case *Block:
		return cloneBlock(v)
	case *LocalStmt:
		return &LocalStmt{Base: v.Base, Names: append([]string(nil), v.Names...), Values: cloneExprs(v.Values)}
	case *AssignStmt:
		return &AssignStmt{Base: v.Base, Targets: cloneExprs(v.Targets), Values: cloneExprs(v.Values)}
	case *IfStmt:
		clone := &IfStmt{Base: v.Base, Cond: cloneExpr(v.Cond), Then: cloneBlock(v.Then)}
		for _, ei := range v.ElseIfs {
			clone.ElseIfs = append(clone.ElseIfs, ElseIfClause{Cond: cloneExpr(ei.Cond), Body: cloneBlock(ei.Body)})
		}
		if v.Else != nil {
			clone.Else = cloneBlock(v.Else)
		}
		return clone
	case *NumericForStmt:
		clone := &NumericForStmt{Base: v.Base, Var: v.Var, Start: cloneExpr(v.Start), End: cloneExpr(v.End), Body: cloneBlock(v.Body)}
		if v.Step != nil {
			clone.Step = cloneExpr(v.Step)
		}
		return clone
	case *GenericForStmt:
		return &GenericForStmt{Base: v.Base, Vars: append([]string(nil), v.Vars...), Exprs: cloneExprs(v.Exprs), Body: cloneBlock(v.Body)}
	case *WhileStmt:
		return &WhileStmt{Base: v.Base, Cond: cloneExpr(v.Cond), Body: cloneBlock(v.Body)}
	case *RepeatStmt:
		return &RepeatStmt{Base: v.Base, Body: cloneBlock(v.Body), Cond: cloneExpr(v.Cond)}
	case *ReturnStmt:
		return &ReturnStmt{Base: v.Base, Exprs: cloneExprs(v.Exprs)}
	case *BreakStmt:
		c := *v
		return &c
	case *GotoStmt:
		c := *v
		return &c
	case *LabelStmt:
		c := *v
		return &c
	case *FunctionDecl:
		return &FunctionDecl{Base: v.Base, Name: v.Name, Params: append([]string(nil), v.Params...), Vararg: v.Vararg, Body: cloneBlock(v.Body)}
	case *ExpressionStmt:
		return &ExpressionStmt{Base: v.Base, Expr: cloneExpr(v.Expr)}
	case *RawEmit:
		c := *v
		return &c
	case *NumberLit:
		c := *v
		return &c
	case *StringLit:
		c := *v
		return &c
	case *BoolLit:
		c := *v
		return &c
	case *NilLit:
		c := *v
		return &c
	case *Vararg:
		c := *v
		return &c
	case *Variable:
		c := *v
		return &c
	case *MemberAccess:
		return &MemberAccess{Base: v.Base, Obj: cloneExpr(v.Obj), Member: v.Member}
	case *IndexAccess:
		return &IndexAccess{Base: v.Base, Obj: cloneExpr(v.Obj), Index: cloneExpr(v.Index)}
	case *Call:
		return &Call{Base: v.Base, Callee: cloneExpr(v.Callee), Args: cloneExprs(v.Args)}
	case *MethodCall:
		return &MethodCall{Base: v.Base, Obj: cloneExpr(v.Obj), Method: v.Method, Args: cloneExprs(v.Args)}
	case *Binary:
		return &Binary{Base: v.Base, Op: v.Op, Left: cloneExpr(v.Left), Right: cloneExpr(v.Right)}
	case *Unary:
		return &Unary{Base: v.Base, Op: v.Op, Arg: cloneExpr(v.Arg)}
	case *FunctionExpr:
		return &FunctionExpr{Base: v.Base, Params: append([]string(nil), v.Params...), Vararg: v.Vararg, Body: cloneBlock(v.Body)}
	case *Table:
		fields := make([]TableField, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = Clone(f).(TableField)
		}
		return &Table{Base: v.Base, Fields: fields}
	case *IndexField:
		return &IndexField{Base: v.Base, Key: cloneExpr(v.Key), Value: cloneExpr(v.Value)}
	case *NamedField:
		return &NamedField{Base: v.Base, Name: v.Name, Value: cloneExpr(v.Value)}
	case *ArrayField:
		return &ArrayField{Base: v.Base, Value: cloneExpr(v.Value)}
	default:
		invariant.Invariant(false, "ast.Clone: unhandled node type %T", n)
		return nil
	}
}

func cloneBlock(b *Block) *Block {
	if b == nil {
		return nil
	}
	stmts := make([]Statement, len(b.Stmts))
	for i, s := range b.Stmts {
		stmts[i] = Clone(s).(Statement)
	}
	return &Block{Base: b.Base, Stmts: stmts}
}

func cloneExpr(e Expression) Expression {
	if e == nil {
		return nil
	}
	return Clone(e).(Expression)
}

func cloneExprs(es []Expression) []Expression {
	if es == nil {
		return nil
	}
	out := make([]Expression, len(es))
	for i, e := range es {
		out[i] = cloneExpr(e)
	}
	return out
}
