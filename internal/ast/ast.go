// Package ast defines the tagged-variant AST of §3: a closed set of
// expression and statement node kinds, produced by the parser and rewritten
// in place by the pass chain. Pass dispatch is a type switch over these
// concrete types, not virtual calls — new passes are added by extending the
// pipeline, not by subclassing nodes (§9).
package ast

import "fmt"

// Node is satisfied by every AST node. Pos reports the byte offset of the
// first token that produced the node, for error reporting.
type Node interface {
	Pos() int
	exprOrStmt()
}

// Expression is satisfied by every expression node.
type Expression interface {
	Node
	exprNode()
}

// Statement is satisfied by every statement node.
type Statement interface {
	Node
	stmtNode()
}

// Base carries the source offset common to every node.
type Base struct {
	Offset int
}

func (b Base) Pos() int      { return b.Offset }
func (b Base) exprOrStmt()   {}

// ---- Expressions --------------------------------------------------------

type NumberLit struct {
	Base
	Value string // lexeme, decimal or 0x-prefixed hex
}

func (*NumberLit) exprNode() {}

type StringLit struct {
	Base
	Value string // decoded string value (without quotes, escapes resolved)
	Raw   string // original lexeme, including quotes, as written
}

func (*StringLit) exprNode() {}

type BoolLit struct {
	Base
	Value bool
}

func (*BoolLit) exprNode() {}

type NilLit struct{ Base }

func (*NilLit) exprNode() {}

type Vararg struct{ Base }

func (*Vararg) exprNode() {}

// Variable is a reference to an identifier.
type Variable struct {
	Base
	Name string
}

func (*Variable) exprNode() {}

type MemberAccess struct {
	Base
	Obj    Expression
	Member string
}

func (*MemberAccess) exprNode() {}

type IndexAccess struct {
	Base
	Obj   Expression
	Index Expression
}

func (*IndexAccess) exprNode() {}

type Call struct {
	Base
	Callee Expression
	Args   []Expression
}

func (*Call) exprNode() {}

type MethodCall struct {
	Base
	Obj    Expression
	Method string
	Args   []Expression
}

func (*MethodCall) exprNode() {}

// Precedence table, §4.3: or=1, and=2, comparisons=3, bitwise or=4,
// bitwise xor=5, bitwise and=6, shifts=7, concat=8 (right), + -=9,
// * / %=10, ^=11 (right). Unary binds tighter than any binary.
const (
	PrecOr = 1 + iota
	PrecAnd
	PrecCompare
	PrecBitOr
	PrecBitXor
	PrecBitAnd
	PrecShift
	PrecConcat
	PrecAddSub
	PrecMulDivMod
	PrecPow
	PrecUnary
)

var binaryPrecedence = map[string]int{
	"or": PrecOr, "and": PrecAnd,
	"<": PrecCompare, ">": PrecCompare, "<=": PrecCompare, ">=": PrecCompare, "==": PrecCompare, "~=": PrecCompare,
	"|":  PrecBitOr,
	"~":  PrecBitXor,
	"&":  PrecBitAnd,
	"<<": PrecShift, ">>": PrecShift,
	"..": PrecConcat,
	"+":  PrecAddSub, "-": PrecAddSub,
	"*": PrecMulDivMod, "/": PrecMulDivMod, "%": PrecMulDivMod,
	"^": PrecPow,
}

// RightAssociative reports whether op groups right-to-left (.. and ^).
func RightAssociative(op string) bool {
	return op == ".." || op == "^"
}

// Precedence returns the binding power of a binary operator.
func Precedence(op string) int {
	if p, ok := binaryPrecedence[op]; ok {
		return p
	}
	return 0
}

type Binary struct {
	Base
	Op          string
	Left, Right Expression
}

func (*Binary) exprNode() {}

type Unary struct {
	Base
	Op  string // "not", "-", "#", "~" (bitwise not)
	Arg Expression
}

func (*Unary) exprNode() {}

type FunctionExpr struct {
	Base
	Params  []string
	Vararg  bool
	Body    *Block
}

func (*FunctionExpr) exprNode() {}

// TableField is the disjoint union of §3 invariant 3: IndexField, NamedField,
// ArrayField. Positional ArrayFields retain insertion order within Fields.
type TableField interface {
	Node
	tableFieldNode()
}

type IndexField struct {
	Base
	Key, Value Expression
}

func (*IndexField) exprNode()       {}
func (*IndexField) tableFieldNode() {}

type NamedField struct {
	Base
	Name  string
	Value Expression
}

func (*NamedField) exprNode()       {}
func (*NamedField) tableFieldNode() {}

type ArrayField struct {
	Base
	Value Expression
}

func (*ArrayField) exprNode()       {}
func (*ArrayField) tableFieldNode() {}

type Table struct {
	Base
	Fields []TableField
}

func (*Table) exprNode() {}

// RawEmit is the terminal escape hatch (§3): a pre-formed target-language
// source fragment attached by a pass that generates text directly (the VM
// loader, the string decoder call). Its contents must be legal
// target-language source on their own. RawEmit is valid in both expression
// and statement position: string-encryption replaces an expression,
// VM-wrap replaces a statement or whole function body.
type RawEmit struct {
	Base
	Text string
}

func (*RawEmit) exprNode() {}
func (*RawEmit) stmtNode() {}

// ---- Statements ----------------------------------------------------------

type Block struct {
	Base
	Stmts []Statement
}

func (*Block) stmtNode() {}

type LocalStmt struct {
	Base
	Names  []string
	Values []Expression
}

func (*LocalStmt) stmtNode() {}

type AssignStmt struct {
	Base
	Targets []Expression
	Values  []Expression
}

func (*AssignStmt) stmtNode() {}

type ElseIfClause struct {
	Cond Expression
	Body *Block
}

type IfStmt struct {
	Base
	Cond    Expression
	Then    *Block
	ElseIfs []ElseIfClause
	Else    *Block // nil if absent
}

func (*IfStmt) stmtNode() {}

type NumericForStmt struct {
	Base
	Var   string
	Start Expression
	End   Expression
	Step  Expression // nil if absent
	Body  *Block
}

func (*NumericForStmt) stmtNode() {}

type GenericForStmt struct {
	Base
	Vars  []string
	Exprs []Expression
	Body  *Block
}

func (*GenericForStmt) stmtNode() {}

type WhileStmt struct {
	Base
	Cond Expression
	Body *Block
}

func (*WhileStmt) stmtNode() {}

type RepeatStmt struct {
	Base
	Body *Block
	Cond Expression
}

func (*RepeatStmt) stmtNode() {}

type ReturnStmt struct {
	Base
	Exprs []Expression
}

func (*ReturnStmt) stmtNode() {}

type BreakStmt struct{ Base }

func (*BreakStmt) stmtNode() {}

// GotoStmt and LabelStmt round out the target dialect's goto support
// (§1: "a Lua-family dialect with ... goto"). Passes that forbid control
// transfer out of a rewritten region (§4.6) must treat these the same as
// Break/Return.
type GotoStmt struct {
	Base
	Label string
}

func (*GotoStmt) stmtNode() {}

type LabelStmt struct {
	Base
	Name string
}

func (*LabelStmt) stmtNode() {}

type FunctionDecl struct {
	Base
	Name   string
	Params []string
	Vararg bool
	Body   *Block
}

func (*FunctionDecl) stmtNode() {}

type ExpressionStmt struct {
	Base
	Expr Expression
}

func (*ExpressionStmt) stmtNode() {}

// Program is the root of the AST for one request.
type Program struct {
	Base
	Body *Block
}

func (*Program) stmtNode() {}

func (p *Program) String() string {
	return fmt.Sprintf("Program(%d top-level statements)", len(p.Body.Stmts))
}
