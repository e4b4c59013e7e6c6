package antianalysis_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"

	"github.com/Loadstring-Afk/Celestial-SF/internal/obfpass/antianalysis"
	"github.com/Loadstring-Afk/Celestial-SF/internal/oracle"
	"github.com/Loadstring-Afk/Celestial-SF/internal/parser"
	"github.com/Loadstring-Afk/Celestial-SF/internal/printer"
)

func TestApply_NoFlagsEmitsNothing(t *testing.T) {
	prog, err := parser.Parse("local x = 1\n")
	require.NoError(t, err)

	antianalysis.Apply(prog, oracle.New(1), antianalysis.Flags{}, nil)
	require.Len(t, prog.Body.Stmts, 1)
}

func TestApply_AntiDebugFlagEmitsGuard(t *testing.T) {
	prog, err := parser.Parse("local x = 1\n")
	require.NoError(t, err)

	antianalysis.Apply(prog, oracle.New(1), antianalysis.Flags{AntiDebug: true}, nil)
	out := printer.Print(prog)

	require.Contains(t, out, "debug.gethook")
}

func TestApply_IntegrityChecksBindsDigestOfReferenceSource(t *testing.T) {
	prog, err := parser.Parse("local x = 1\n")
	require.NoError(t, err)

	antianalysis.Apply(prog, oracle.New(1), antianalysis.Flags{IntegrityChecks: true}, []byte("local x = 1"))
	out := printer.Print(prog)

	require.Contains(t, out, "local ")
	require.Contains(t, out, "integrity check failed")
	sum := blake2b.Sum256([]byte("local x = 1"))
	require.Contains(t, out, fmt.Sprintf("%x", sum))
}

func TestApply_AllFlagsPreserveOriginalStatements(t *testing.T) {
	prog, err := parser.Parse("local x = 1\n")
	require.NoError(t, err)

	antianalysis.Apply(prog, oracle.New(1), antianalysis.Flags{
		AntiDebug: true, AntiTampering: true, IntegrityChecks: true,
		EnvironmentDetection: true, TimingProtection: true, MemoryProtection: true,
	}, []byte("local x = 1"))

	out := printer.Print(prog)
	require.Contains(t, out, "local x = 1")
}

func TestApply_HelperNamesNeverCollideWithProgramIdentifiers(t *testing.T) {
	prog, err := parser.Parse("local celestial_guard = 1\nprint(celestial_guard)\n")
	require.NoError(t, err)

	antianalysis.Apply(prog, oracle.New(3), antianalysis.Flags{
		AntiTampering: true, IntegrityChecks: true, TimingProtection: true,
	}, []byte("local celestial_guard = 1"))

	out := printer.Print(prog)
	require.Contains(t, out, "local celestial_guard = 1")
}
