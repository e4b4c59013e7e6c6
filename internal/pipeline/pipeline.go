// Package pipeline is the driver: it validates Options, resolves a profile
// preset, runs the lexer/parser, threads a single oracle through the
// ordered pass chain, prints the result, applies the final textual pass,
// and assembles the Result metadata record (§6). It is the only package
// that maps internal errors onto the external surface; every pass below it
// surfaces obferr errors unmodified (§7).
package pipeline

import (
	"fmt"
	"strconv"

	"github.com/Loadstring-Afk/Celestial-SF/internal/checksum"
	"github.com/Loadstring-Afk/Celestial-SF/internal/obferr"
	"github.com/Loadstring-Afk/Celestial-SF/internal/obfpass/antianalysis"
	"github.com/Loadstring-Afk/Celestial-SF/internal/obfpass/cflow"
	"github.com/Loadstring-Afk/Celestial-SF/internal/obfpass/deadcode"
	"github.com/Loadstring-Afk/Celestial-SF/internal/obfpass/rename"
	"github.com/Loadstring-Afk/Celestial-SF/internal/obfpass/strenc"
	"github.com/Loadstring-Afk/Celestial-SF/internal/obfpass/vmwrap"
	"github.com/Loadstring-Afk/Celestial-SF/internal/oracle"
	"github.com/Loadstring-Afk/Celestial-SF/internal/parser"
	"github.com/Loadstring-Afk/Celestial-SF/internal/printer"
	"github.com/Loadstring-Afk/Celestial-SF/internal/textualpass"
)

// MaxInputSize is the §5 input bound: 5 MiB.
const MaxInputSize = 5 * 1024 * 1024

// MaxOutputExpansionRatio is the §5 output bound: output must not exceed
// 2x the size of the printed (pre-textual-pass) code.
const MaxOutputExpansionRatio = 2.0

// Obfuscate runs the full pipeline over source using opts and seed,
// returning a Result on success. Errors are one of obferr's exhaustive
// kinds (§7); the pipeline is all-or-nothing — no partial Result is ever
// returned alongside an error.
func Obfuscate(source []byte, opts Options, seed uint64) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = Result{}, &obferr.Internal{Stage: "pipeline", Cause: fmt.Errorf("%v", r)}
		}
	}()
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	if len(source) > MaxInputSize {
		return Result{}, &obferr.ResourceExceeded{Limit: "input size 5MiB", Actual: humanSize(len(source))}
	}

	prog, err := parser.Parse(string(source))
	if err != nil {
		return Result{}, err
	}

	ts := resolve(opts)
	o := oracle.New(seed)

	if ts.rename {
		rename.Apply(prog, o)
	}
	if ts.stringEncrypt {
		strenc.Apply(prog, o)
	}
	if ts.controlFlow {
		cflow.Apply(prog, o, cflow.DefaultOptions())
	}
	if ts.deadCode {
		deadcode.Apply(prog, o, deadcode.Options{Density: floatOr(opts.DeadCodeDensity, 0.2)})
	}
	if ts.vm {
		vmwrap.Apply(prog, o, vmwrap.DefaultOptions())
	}

	flags := antianalysis.Flags{
		AntiDebug:            ts.antiDebug,
		AntiTampering:        ts.antiTampering,
		IntegrityChecks:      ts.integrityChecks,
		EnvironmentDetection: ts.environmentDetection,
		TimingProtection:     ts.timingProtection,
		MemoryProtection:     ts.memoryProtection,
	}
	if flags.AntiDebug || flags.AntiTampering || flags.IntegrityChecks ||
		flags.EnvironmentDetection || flags.TimingProtection || flags.MemoryProtection {
		antianalysis.Apply(prog, o, flags, source)
	}

	printed := printer.Print(prog)

	final, err := textualpass.Apply(printed, textualpass.Options{
		PadProbability:    floatOr(opts.TextualPadProbability, 0),
		MaxExpansionRatio: MaxOutputExpansionRatio,
	}, o)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Code:           final,
		OriginalSize:   len(source),
		ObfuscatedSize: len(final),
		ExpansionRatio: expansionRatio(len(source), len(final)),
		SecurityLevel:  ts.level,
		Checksum:       checksum.Sum([]byte(final)),
	}, nil
}

func humanSize(n int) string {
	return strconv.Itoa(n) + "B"
}
