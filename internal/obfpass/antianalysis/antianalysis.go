// Package antianalysis emits the anti-analysis prologue (§4.9): a set of
// independent RawEmit guard snippets, one per enabled flag, inserted ahead
// of the program body. Each snippet is textual target-language source; this
// package's own job is limited to deciding which snippets to emit, naming
// their helpers without colliding with anything the program already
// references, and computing the one flag (integrityChecks) that needs a
// Go-side digest.
package antianalysis

import (
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/Loadstring-Afk/Celestial-SF/internal/ast"
	"github.com/Loadstring-Afk/Celestial-SF/internal/oracle"
)

// Flags selects which anti-analysis guards are emitted (§4.9). All default
// to disabled — enabling one is an explicit opt-in per profile.
type Flags struct {
	AntiDebug            bool
	AntiTampering        bool
	IntegrityChecks      bool
	EnvironmentDetection bool
	TimingProtection     bool
	MemoryProtection     bool
}

// names holds the fresh, collision-free identifiers a snippet needs for its
// own locals and helper functions. Every snippet draws its names from here
// rather than hardcoding them, so the names follow the seed and never
// shadow something the source already refers to.
type names struct {
	guardImmutable string
	expectedDigest string
	checkIntegrity string
	timingRef      string
}

// reserveProgramIdentifiers walks prog and marks every name it references —
// global or local — as issued on o, so a later o.Identifier() call can never
// collide with the program's own vocabulary (§4.9: guard snippets must not
// collide with program identifiers).
func reserveProgramIdentifiers(prog *ast.Program, o *oracle.Oracle) {
	ast.Walk(prog, func(n ast.Node) bool {
		switch v := n.(type) {
		case *ast.Variable:
			o.Reserve(v.Name)
		case *ast.LocalStmt:
			for _, name := range v.Names {
				o.Reserve(name)
			}
		case *ast.FunctionDecl:
			o.Reserve(v.Name)
			for _, p := range v.Params {
				o.Reserve(p)
			}
		case *ast.FunctionExpr:
			for _, p := range v.Params {
				o.Reserve(p)
			}
		case *ast.NumericForStmt:
			o.Reserve(v.Var)
		case *ast.GenericForStmt:
			for _, name := range v.Vars {
				o.Reserve(name)
			}
		}
		return true
	})
}

// Apply prepends the enabled guard snippets to prog's body, in a fixed
// order so output is deterministic for a given Flags value. referenceSource
// is the pre-obfuscation source the integrity check should bind its digest
// to (only used when Flags.IntegrityChecks is set).
func Apply(prog *ast.Program, o *oracle.Oracle, flags Flags, referenceSource []byte) {
	reserveProgramIdentifiers(prog, o)
	n := names{
		guardImmutable: o.Identifier(),
		expectedDigest: o.Identifier(),
		checkIntegrity: o.Identifier(),
		timingRef:      o.Identifier(),
	}

	var snippets []string
	if flags.AntiDebug {
		snippets = append(snippets, antiDebugSnippet())
	}
	if flags.AntiTampering {
		snippets = append(snippets, antiTamperingSnippet(n))
	}
	if flags.IntegrityChecks {
		snippets = append(snippets, integrityCheckSnippet(n, referenceSource))
	}
	if flags.EnvironmentDetection {
		snippets = append(snippets, environmentDetectionSnippet())
	}
	if flags.TimingProtection {
		snippets = append(snippets, timingProtectionSnippet(n))
	}
	if flags.MemoryProtection {
		snippets = append(snippets, memoryProtectionSnippet())
	}

	stmts := make([]ast.Statement, len(snippets))
	for i, s := range snippets {
		stmts[i] = &ast.RawEmit{Text: s}
	}
	prog.Body.Stmts = append(stmts, prog.Body.Stmts...)
}

func antiDebugSnippet() string {
	return `if debug and debug.gethook and debug.gethook() ~= nil then
  error("debugging is not permitted")
end`
}

func antiTamperingSnippet(n names) string {
	return fmt.Sprintf(`local function %s(t)
  return setmetatable({}, {
    __index = t,
    __newindex = function() error("tampering detected") end,
  })
end`, n.guardImmutable)
}

// integrityCheckSnippet binds a BLAKE2b-256 digest of the reference source
// into a textual equality check the obfuscated program can re-derive at
// load time against its own emitted fingerprint.
func integrityCheckSnippet(n names, referenceSource []byte) string {
	sum := blake2b.Sum256(referenceSource)
	hex := fmt.Sprintf("%x", sum)
	return fmt.Sprintf(`local %s = %q
local function %s(observed)
  if observed ~= %s then
    error("integrity check failed")
  end
end`, n.expectedDigest, hex, n.checkIntegrity, n.expectedDigest)
}

func environmentDetectionSnippet() string {
	return `if os and os.getenv and (os.getenv("CELESTIAL_SANDBOX") or os.getenv("CELESTIAL_ANALYSIS")) then
  error("unsupported execution environment")
end`
}

func timingProtectionSnippet(n names) string {
	return fmt.Sprintf(`local %s = os and os.clock and os.clock() or 0`, n.timingRef)
}

func memoryProtectionSnippet() string {
	return `collectgarbage("stop")`
}
