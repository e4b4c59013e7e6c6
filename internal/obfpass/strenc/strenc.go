// Package strenc implements the string-encryption pass (§4.5): every string
// literal is replaced by a call to a per-program decoder function emitted
// as a RawEmit prologue, driven by a composed three-round invertible byte
// transform seeded from the oracle. Each round r (0, 1, 2) uses a fixed odd
// multiplier from {7, 13, 31} and an XOR keystream derived from the call's
// key and an index-dependent left shift:
//
//	x = (x * mul[r]) mod 256
//	x = x XOR ((key + r*97) XOR (i << (r+1)))   (masked to a byte)
//
// applied for r = 0, 1, 2 in order, then remapped through an
// oracle-generated permutation table. Every step is invertible: XOR is its
// own inverse, and multiplying by the modular inverse of an odd multiplier
// undoes multiplication mod 256 (256 being a power of two guarantees every
// odd residue has one). Decoding replays the rounds in reverse.
package strenc

import (
	"fmt"
	"strings"

	"github.com/Loadstring-Afk/Celestial-SF/internal/ast"
	"github.com/Loadstring-Afk/Celestial-SF/internal/oracle"
)

const decoderName = "__celestial_strdec"

// oddMultipliers is applied in this fixed order across the three rounds.
var oddMultipliers = []int{7, 13, 31}

// modInverse returns the multiplicative inverse of a modulo 256. a must be
// odd, which guarantees an inverse exists since 256 is a power of two.
func modInverse(a int) int {
	a = a & 0xff
	for x := 1; x < 256; x++ {
		if (a*x)&0xff == 1 {
			return x
		}
	}
	panic(fmt.Sprintf("strenc: %d has no inverse mod 256", a))
}

func newPermutation(o *oracle.Oracle) (perm [256]byte, inv [256]byte) {
	for i := range perm {
		perm[i] = byte(i)
	}
	for i := 255; i > 0; i-- {
		j := o.Range(0, i+1)
		perm[i], perm[j] = perm[j], perm[i]
	}
	for i, p := range perm {
		inv[p] = byte(i)
	}
	return perm, inv
}

// keystream computes round r's XOR keystream byte for plaintext index i
// under the given call key.
func keystream(key, i, r int) int {
	return ((key + r*97) ^ (i << uint(r+1))) & 0xff
}

func encode(data []byte, key int, perm [256]byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		x := int(b)
		for r, mul := range oddMultipliers {
			x = (x * mul) & 0xff
			x ^= keystream(key, i, r)
		}
		out[i] = perm[x]
	}
	return out
}

// decode inverts encode; kept for round-trip unit testing the transform
// without a target-language runtime.
func decode(data []byte, key int, inv [256]byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		x := int(inv[b])
		for r := len(oddMultipliers) - 1; r >= 0; r-- {
			x ^= keystream(key, i, r)
			x = (x * modInverse(oddMultipliers[r])) & 0xff
		}
		out[i] = byte(x)
	}
	return out
}

// state accumulates per-program encryption context: whether the decoder
// prologue has been emitted yet, and the shared permutation table (one per
// program keeps the emitted table small instead of one per literal).
type state struct {
	o          *oracle.Oracle
	perm       [256]byte
	inv        [256]byte
	decoderDef string
}

// Apply replaces every string literal in prog with a decoder call and
// prepends the decoder function definition, if at least one literal was
// found.
func Apply(prog *ast.Program, o *oracle.Oracle) {
	perm, inv := newPermutation(o)
	st := &state{o: o, perm: perm, inv: inv}
	replaceBlock(prog.Body, st)
	if st.decoderDef != "" {
		prologue := &ast.RawEmit{Text: st.decoderDef}
		prog.Body.Stmts = append([]ast.Statement{prologue}, prog.Body.Stmts...)
	}
}

func (st *state) encodeLiteral(value string) *ast.RawEmit {
	if st.decoderDef == "" {
		st.decoderDef = buildDecoderDef(st.inv)
	}
	key := st.o.Range(0, 256)
	encoded := encode([]byte(value), key, st.perm)

	var escaped strings.Builder
	for _, b := range encoded {
		fmt.Fprintf(&escaped, "\\%d", b)
	}
	call := fmt.Sprintf(`%s("%s", %d)`, decoderName, escaped.String(), key)
	return &ast.RawEmit{Text: call}
}

// buildDecoderDef emits the Lua-side inverse of encode/decode above: an
// invmod helper recovers each odd multiplier's modular inverse at runtime
// by brute force (keeping the constants themselves out of a lookup table),
// then the three rounds are undone in reverse order using the dialect's
// real bitwise XOR (~) and shift (<<) operators.
func buildDecoderDef(inv [256]byte) string {
	var tbl strings.Builder
	tbl.WriteString("{")
	for i, b := range inv {
		if i > 0 {
			tbl.WriteString(", ")
		}
		fmt.Fprintf(&tbl, "%d", b)
	}
	tbl.WriteString("}")

	var rounds strings.Builder
	for r := len(oddMultipliers) - 1; r >= 0; r-- {
		fmt.Fprintf(&rounds, "    x = x ~ (((key + %d*97) ~ (idx << %d)) & 0xff)\n", r, r+1)
		fmt.Fprintf(&rounds, "    x = (x * inv%d) %% 256\n", oddMultipliers[r])
	}

	var invDecls strings.Builder
	for _, mul := range oddMultipliers {
		fmt.Fprintf(&invDecls, "  local inv%d = invmod(%d)\n", mul, mul)
	}

	return fmt.Sprintf(`local %s_inv = %s
local function %s(data, key)
  local function invmod(m)
    local r = 1
    for x = 1, 255 do
      if (m * x) %% 256 == 1 then
        r = x
        break
      end
    end
    return r
  end
%s  local out = {}
  for i = 1, #data do
    local c = string.byte(data, i)
    local x = %s_inv[c + 1]
    local idx = i - 1
%s    out[i] = string.char(x)
  end
  return table.concat(out)
end`, decoderName, tbl.String(), decoderName, invDecls.String(), decoderName, rounds.String())
}

func replaceBlock(b *ast.Block, st *state) {
	for i, s := range b.Stmts {
		b.Stmts[i] = replaceStmt(s, st)
	}
}

func replaceStmt(s ast.Statement, st *state) ast.Statement {
	switch v := s.(type) {
	case *ast.LocalStmt:
		for i, e := range v.Values {
			v.Values[i] = replaceExpr(e, st)
		}
	case *ast.AssignStmt:
		for i, e := range v.Targets {
			v.Targets[i] = replaceExpr(e, st)
		}
		for i, e := range v.Values {
			v.Values[i] = replaceExpr(e, st)
		}
	case *ast.IfStmt:
		v.Cond = replaceExpr(v.Cond, st)
		replaceBlock(v.Then, st)
		for i := range v.ElseIfs {
			v.ElseIfs[i].Cond = replaceExpr(v.ElseIfs[i].Cond, st)
			replaceBlock(v.ElseIfs[i].Body, st)
		}
		if v.Else != nil {
			replaceBlock(v.Else, st)
		}
	case *ast.NumericForStmt:
		v.Start = replaceExpr(v.Start, st)
		v.End = replaceExpr(v.End, st)
		if v.Step != nil {
			v.Step = replaceExpr(v.Step, st)
		}
		replaceBlock(v.Body, st)
	case *ast.GenericForStmt:
		for i, e := range v.Exprs {
			v.Exprs[i] = replaceExpr(e, st)
		}
		replaceBlock(v.Body, st)
	case *ast.WhileStmt:
		v.Cond = replaceExpr(v.Cond, st)
		replaceBlock(v.Body, st)
	case *ast.RepeatStmt:
		replaceBlock(v.Body, st)
		v.Cond = replaceExpr(v.Cond, st)
	case *ast.ReturnStmt:
		for i, e := range v.Exprs {
			v.Exprs[i] = replaceExpr(e, st)
		}
	case *ast.FunctionDecl:
		replaceBlock(v.Body, st)
	case *ast.ExpressionStmt:
		v.Expr = replaceExpr(v.Expr, st)
	case *ast.Block:
		replaceBlock(v, st)
	}
	return s
}

func replaceExpr(e ast.Expression, st *state) ast.Expression {
	switch v := e.(type) {
	case *ast.StringLit:
		return st.encodeLiteral(v.Value)
	case *ast.MemberAccess:
		v.Obj = replaceExpr(v.Obj, st)
	case *ast.IndexAccess:
		v.Obj = replaceExpr(v.Obj, st)
		v.Index = replaceExpr(v.Index, st)
	case *ast.Call:
		v.Callee = replaceExpr(v.Callee, st)
		for i, a := range v.Args {
			v.Args[i] = replaceExpr(a, st)
		}
	case *ast.MethodCall:
		v.Obj = replaceExpr(v.Obj, st)
		for i, a := range v.Args {
			v.Args[i] = replaceExpr(a, st)
		}
	case *ast.Binary:
		v.Left = replaceExpr(v.Left, st)
		v.Right = replaceExpr(v.Right, st)
	case *ast.Unary:
		v.Arg = replaceExpr(v.Arg, st)
	case *ast.FunctionExpr:
		replaceBlock(v.Body, st)
	case *ast.Table:
		for i, f := range v.Fields {
			v.Fields[i] = replaceTableField(f, st)
		}
	}
	return e
}

func replaceTableField(f ast.TableField, st *state) ast.TableField {
	switch v := f.(type) {
	case *ast.IndexField:
		v.Key = replaceExpr(v.Key, st)
		v.Value = replaceExpr(v.Value, st)
	case *ast.NamedField:
		v.Value = replaceExpr(v.Value, st)
	case *ast.ArrayField:
		v.Value = replaceExpr(v.Value, st)
	}
	return f
}
