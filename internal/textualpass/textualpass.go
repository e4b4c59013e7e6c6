// Package textualpass applies the final post-print textual rewrite (§4.11):
// whitespace padding and trailing-comment injection, gated by the oracle so
// the transform is reproducible for a given seed. It runs after the printer
// and is the last place size can grow before the 2x output bound (§5) is
// checked.
package textualpass

import (
	"strings"

	"github.com/Loadstring-Afk/Celestial-SF/internal/obferr"
	"github.com/Loadstring-Afk/Celestial-SF/internal/oracle"
)

// Options controls how aggressively the textual pass pads output.
type Options struct {
	// PadProbability is the per-line chance of appending a space and a
	// trailing filler comment to a non-empty line. Zero disables the pass
	// entirely.
	PadProbability float64
	// MaxExpansionRatio bounds output size as a multiple of input size
	// (§5: output <= 2x pre-textual-pass size).
	MaxExpansionRatio float64
}

var fillerComments = []string{
	"-- ok",
	"-- noop",
	"-- checked",
	"--",
}

// Apply rewrites code, a printer's already-rendered source, injecting
// oracle-gated padding. It returns obferr.ResourceExceeded if the result
// would exceed opts.MaxExpansionRatio times the input size.
func Apply(code string, opts Options, o *oracle.Oracle) (string, error) {
	if opts.PadProbability <= 0 {
		return code, nil
	}
	originalSize := len(code)
	lines := strings.Split(code, "\n")
	var b strings.Builder
	for i, line := range lines {
		b.WriteString(line)
		if line != "" && o.Bool(opts.PadProbability) {
			b.WriteByte(' ')
			b.WriteString(fillerComments[o.Choice(len(fillerComments))])
		}
		if i != len(lines)-1 {
			b.WriteByte('\n')
		}
	}
	out := b.String()

	if opts.MaxExpansionRatio > 0 && float64(len(out)) > opts.MaxExpansionRatio*float64(originalSize) {
		return "", &obferr.ResourceExceeded{
			Limit:  "textual pass output size",
			Actual: "exceeds configured expansion ratio",
		}
	}
	return out, nil
}
