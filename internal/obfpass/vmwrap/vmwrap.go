// Package vmwrap implements the VM-wrap pass (§4.8): a restricted
// straight-line subset of a function body — reads of its parameters, local
// declarations, simple assignments, binary arithmetic and comparison, and a
// single trailing return — is compiled to a flat bit-packed instruction stream over a
// fixed, bounded register file, with a randomized opcode-to-number
// mapping, and replaced by a call into a self-contained interpreter
// emitted once per program.
//
// Each instruction occupies two ints in the stream: the first packs the
// opcode into its low 16 bits and the two primary operands (register A,
// register B) into the following two bytes (opcode | a<<16 | b<<24); the
// second int carries the third operand verbatim. The interpreter recovers
// opcode and operands with the dialect's bitwise AND/shift operators.
//
// A function using anything outside that subset (control flow, calls,
// coroutines, goto, metatables), or one that needs more than maxRegisters
// registers in total (a register is never reused within a function), is
// left untouched — compile reports ineligibility
// rather than attempting a partial translation.
package vmwrap

import (
	"fmt"
	"strings"

	"github.com/Loadstring-Afk/Celestial-SF/internal/ast"
	"github.com/Loadstring-Afk/Celestial-SF/internal/oracle"
)

// Options controls selection of eligible functions.
type Options struct {
	// Probability is the oracle-gated chance that an eligible function is
	// actually wrapped, so not every straight-line function in a program
	// gets the same treatment.
	Probability float64
}

func DefaultOptions() Options {
	return Options{Probability: 0.5}
}

var opcodeNames = []string{
	"MOVE", "LOADK", "ADD", "SUB", "MUL", "DIV", "MOD", "POW",
	"EQ", "NE", "LT", "LE", "GT", "GE", "RET",
}

const interpreterName = "__celestial_vmexec"

// maxRegisters is the size of the fixed, named register file every
// compiled function shares: a function whose parameters, constants and
// intermediate results need more registers than this in total is
// ineligible rather than grown without bound.
const maxRegisters = 16

// noRegister marks RET's operand when a function returns no value; it must
// sit outside [0, maxRegisters) to be unambiguous, and within one byte to
// survive packing.
const noRegister = 0xff

// opcodeMap assigns each logical opcode a randomized, distinct numeric tag
// in [0, 32), shared between the compiled instruction stream and the
// emitted interpreter's dispatch chain for one obfuscation run.
type opcodeMap map[string]int

func newOpcodeMap(o *oracle.Oracle) opcodeMap {
	slots := make([]int, 32)
	for i := range slots {
		slots[i] = i
	}
	for i := len(slots) - 1; i > 0; i-- {
		j := o.Range(0, i+1)
		slots[i], slots[j] = slots[j], slots[i]
	}
	m := make(opcodeMap, len(opcodeNames))
	for i, name := range opcodeNames {
		m[name] = slots[i]
	}
	return m
}

// newRegisterOrder returns a permutation of [0, maxRegisters), so the
// concrete register number a given variable is assigned is oracle-issued
// rather than always counting up from zero.
func newRegisterOrder(o *oracle.Oracle) []int {
	regs := make([]int, maxRegisters)
	for i := range regs {
		regs[i] = i
	}
	for i := len(regs) - 1; i > 0; i-- {
		j := o.Range(0, i+1)
		regs[i], regs[j] = regs[j], regs[i]
	}
	return regs
}

// compiler turns a restricted block into a flat instruction stream plus a
// constant pool, or reports ineligibility.
type compiler struct {
	ops        opcodeMap
	regOrder   []int
	nextReg    int
	instr      []int
	consts     []string
	slotOf     map[string]int
	ineligible bool
}

func newCompiler(ops opcodeMap, regOrder []int) *compiler {
	return &compiler{ops: ops, regOrder: regOrder, slotOf: make(map[string]int)}
}

// emit packs op, a, b into one instruction word and appends c as the
// following word.
func (c *compiler) emit(op string, a, b, cc int) {
	packed := c.ops[op] | (a << 16) | (b << 24)
	c.instr = append(c.instr, packed, cc)
}

// allocSlot issues the next register in this function's oracle-permuted
// order, or marks the function ineligible once the fixed register file is
// exhausted.
func (c *compiler) allocSlot() int {
	if c.nextReg >= len(c.regOrder) {
		c.ineligible = true
		return 0
	}
	s := c.regOrder[c.nextReg]
	c.nextReg++
	return s
}

func (c *compiler) constIndex(lexeme string) int {
	for i, v := range c.consts {
		if v == lexeme {
			return i
		}
	}
	c.consts = append(c.consts, lexeme)
	return len(c.consts) - 1
}

var arithOps = map[string]string{
	"+": "ADD", "-": "SUB", "*": "MUL", "/": "DIV", "%": "MOD", "^": "POW",
	"==": "EQ", "~=": "NE", "<": "LT", "<=": "LE", ">": "GT", ">=": "GE",
}

func (c *compiler) compileExpr(e ast.Expression) int {
	switch v := e.(type) {
	case *ast.NumberLit:
		dest := c.allocSlot()
		c.emit("LOADK", dest, c.constIndex(v.Value), 0)
		return dest
	case *ast.Variable:
		slot, ok := c.slotOf[v.Name]
		if !ok {
			c.ineligible = true
			return 0
		}
		return slot
	case *ast.Binary:
		opName, ok := arithOps[v.Op]
		if !ok {
			c.ineligible = true
			return 0
		}
		left := c.compileExpr(v.Left)
		right := c.compileExpr(v.Right)
		dest := c.allocSlot()
		c.emit(opName, dest, left, right)
		return dest
	default:
		c.ineligible = true
		return 0
	}
}

func (c *compiler) compileBlock(b *ast.Block) {
	for _, s := range b.Stmts {
		if c.ineligible {
			return
		}
		switch v := s.(type) {
		case *ast.LocalStmt:
			if len(v.Names) != 1 || len(v.Values) != 1 {
				c.ineligible = true
				return
			}
			slot := c.compileExpr(v.Values[0])
			c.slotOf[v.Names[0]] = slot
		case *ast.AssignStmt:
			if len(v.Targets) != 1 || len(v.Values) != 1 {
				c.ineligible = true
				return
			}
			target, ok := v.Targets[0].(*ast.Variable)
			if !ok {
				c.ineligible = true
				return
			}
			srcSlot := c.compileExpr(v.Values[0])
			destSlot, ok := c.slotOf[target.Name]
			if !ok {
				destSlot = c.allocSlot()
				c.slotOf[target.Name] = destSlot
			}
			if destSlot != srcSlot {
				c.emit("MOVE", destSlot, srcSlot, 0)
			}
		case *ast.ReturnStmt:
			if len(v.Exprs) == 0 {
				c.emit("RET", noRegister, 0, 0)
			} else if len(v.Exprs) == 1 {
				slot := c.compileExpr(v.Exprs[0])
				c.emit("RET", slot, 0, 0)
			} else {
				c.ineligible = true
			}
		default:
			c.ineligible = true
			return
		}
	}
}

// Apply wraps every eligible, oracle-selected function body in prog.
func Apply(prog *ast.Program, o *oracle.Oracle, opts Options) {
	ops := newOpcodeMap(o)
	wrapped := false
	for _, s := range prog.Body.Stmts {
		fn, ok := s.(*ast.FunctionDecl)
		if !ok {
			continue
		}
		if !o.Bool(opts.Probability) {
			continue
		}
		c := newCompiler(ops, newRegisterOrder(o))
		// Parameters are passed in through the constant pool: the call site
		// lists each parameter name, and a LOADK copies it into a register.
		for _, p := range fn.Params {
			slot := c.allocSlot()
			c.emit("LOADK", slot, c.constIndex(p), 0)
			c.slotOf[p] = slot
		}
		c.compileBlock(fn.Body)
		if c.ineligible {
			continue
		}
		fn.Body = &ast.Block{Stmts: []ast.Statement{
			&ast.RawEmit{Text: callSite(c)},
		}}
		wrapped = true
	}
	if wrapped {
		prologue := &ast.RawEmit{Text: interpreterDef(ops)}
		prog.Body.Stmts = append([]ast.Statement{prologue}, prog.Body.Stmts...)
	}
}

func callSite(c *compiler) string {
	return fmt.Sprintf("return %s({%s}, {%s})",
		interpreterName, joinInts(c.instr), strings.Join(c.consts, ", "))
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprintf("%d", x)
	}
	return strings.Join(parts, ", ")
}

// interpreterDef emits the self-contained interpreter, keyed to the same
// randomized opcode numbers used to compile every wrapped function this run.
// Every instruction is two stream words: the first bit-packs the opcode
// into its low 16 bits with register operands A and B in the next two
// bytes, the second carries register operand C verbatim.
func interpreterDef(ops opcodeMap) string {
	return fmt.Sprintf(`local function %s(code, consts)
  local slots = {}
  local ip = 1
  while ip <= #code do
    local word, c = code[ip], code[ip + 1]
    local op = word & 0xffff
    local a = (word >> 16) & 0xff
    local b = (word >> 24) & 0xff
    if op == %d then slots[a] = slots[b]
    elseif op == %d then slots[a] = consts[b + 1]
    elseif op == %d then slots[a] = slots[b] + slots[c]
    elseif op == %d then slots[a] = slots[b] - slots[c]
    elseif op == %d then slots[a] = slots[b] * slots[c]
    elseif op == %d then slots[a] = slots[b] / slots[c]
    elseif op == %d then slots[a] = slots[b] %% slots[c]
    elseif op == %d then slots[a] = slots[b] ^ slots[c]
    elseif op == %d then slots[a] = (slots[b] == slots[c])
    elseif op == %d then slots[a] = (slots[b] ~= slots[c])
    elseif op == %d then slots[a] = (slots[b] < slots[c])
    elseif op == %d then slots[a] = (slots[b] <= slots[c])
    elseif op == %d then slots[a] = (slots[b] > slots[c])
    elseif op == %d then slots[a] = (slots[b] >= slots[c])
    elseif op == %d then
      if a == 0xff then return end
      return slots[a]
    end
    ip = ip + 2
  end
end`,
		interpreterName,
		ops["MOVE"], ops["LOADK"], ops["ADD"], ops["SUB"], ops["MUL"], ops["DIV"], ops["MOD"], ops["POW"],
		ops["EQ"], ops["NE"], ops["LT"], ops["LE"], ops["GT"], ops["GE"], ops["RET"])
}
