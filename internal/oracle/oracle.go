// Package oracle provides the single source of entropy threaded explicitly
// through every pass (§4.1): a deterministic, seedable PRNG plus an
// identifier generator built on top of it. Two runs seeded identically
// produce byte-identical output — no pass may reach for math/rand,
// crypto/rand, or time-based entropy directly.
package oracle

import (
	_ "embed"
	"fmt"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/Loadstring-Afk/Celestial-SF/internal/invariant"
	"github.com/Loadstring-Afk/Celestial-SF/internal/token"
)

//go:embed palette.yaml
var paletteYAML []byte

// palette is one identifier code-point tier: distinct start and part
// alphabets, since an identifier's first rune is more restricted than the
// rest (no leading digit).
type palette struct {
	Start []rune
	Part  []rune
}

type paletteFile struct {
	ASCII    tierSpec `yaml:"ascii"`
	Extended tierSpec `yaml:"extended"`
}

type tierSpec struct {
	Start string `yaml:"start"`
	Part  string `yaml:"part"`
}

var palettes map[string]palette

func init() {
	var raw paletteFile
	if err := yaml.Unmarshal(paletteYAML, &raw); err != nil {
		panic(fmt.Sprintf("oracle: embedded palette.yaml is malformed: %v", err))
	}
	palettes = map[string]palette{
		"ascii":    mustBuildTier(raw.ASCII),
		"extended": mustBuildTier(raw.Extended),
	}
}

func mustBuildTier(spec tierSpec) palette {
	start := []rune(spec.Start)
	part := []rune(spec.Part)
	invariant.Precondition(len(start) > 0 && len(part) > 0, "oracle: palette tier has an empty alphabet")
	for _, r := range start {
		invariant.Invariant(unicode.IsLetter(r) || r == '_', "oracle: palette start rune %q is not a valid identifier-start code point", r)
	}
	for _, r := range part {
		invariant.Invariant(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_', "oracle: palette part rune %q is not a valid identifier code point", r)
	}
	return palette{Start: start, Part: part}
}

// Oracle is a xorshift32 PRNG plus the issued-identifier bookkeeping needed
// for collision-avoidance (§4.4: renamed identifiers must not collide with
// each other or with reserved words). Zero value is not usable; construct
// with New.
type Oracle struct {
	state   uint32
	issued  map[string]bool
	tier    string
}

// New constructs an Oracle from a 64-bit seed. A zero seed is folded to a
// nonzero xorshift state, since xorshift32 is absorbing at zero.
func New(seed uint64) *Oracle {
	s := uint32(seed ^ (seed >> 32))
	if s == 0 {
		s = 0x9e3779b9
	}
	return &Oracle{state: s, issued: make(map[string]bool), tier: "ascii"}
}

// UseExtendedPalette switches the identifier generator to the non-ASCII
// tier (§9 OQ2). Default is the ASCII tier.
func (o *Oracle) UseExtendedPalette(enabled bool) {
	if enabled {
		o.tier = "extended"
	} else {
		o.tier = "ascii"
	}
}

// U32 advances the generator and returns the next 32-bit draw.
func (o *Oracle) U32() uint32 {
	x := o.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	o.state = x
	return x
}

// Range returns a uniformly distributed integer in [lo, hi).
func (o *Oracle) Range(lo, hi int) int {
	invariant.Precondition(hi > lo, "oracle.Range: hi (%d) must exceed lo (%d)", hi, lo)
	span := uint32(hi - lo)
	return lo + int(o.U32()%span)
}

// Bool returns a weighted coin flip; probability is the chance of true, in
// [0, 1]. Used by the dead-code pass's density gate and the textual pass's
// padding gate.
func (o *Oracle) Bool(probability float64) bool {
	if probability <= 0 {
		return false
	}
	if probability >= 1 {
		return true
	}
	return float64(o.U32()%1_000_000)/1_000_000 < probability
}

// Choice returns a uniformly selected index into a slice of length n.
func (o *Oracle) Choice(n int) int {
	invariant.Precondition(n > 0, "oracle.Choice: n must be positive, got %d", n)
	return o.Range(0, n)
}

const identifierLength = 8

// Identifier generates a fresh identifier from the active palette that does
// not collide with any identifier this Oracle has already issued and is not
// a reserved keyword (§4.4). The returned name is recorded as issued.
func (o *Oracle) Identifier() string {
	p := palettes[o.tier]
	for {
		buf := make([]rune, identifierLength)
		buf[0] = p.Start[o.Choice(len(p.Start))]
		for i := 1; i < identifierLength; i++ {
			buf[i] = p.Part[o.Choice(len(p.Part))]
		}
		name := string(buf)
		if token.Keywords[name] || o.issued[name] {
			continue
		}
		o.issued[name] = true
		return name
	}
}

// Reserve marks name as issued without generating it, so a later Identifier
// call will never collide with an externally chosen name (e.g. a name the
// program already uses, which the anti-analysis pass reserves before naming
// its helpers).
func (o *Oracle) Reserve(name string) {
	o.issued[name] = true
}
