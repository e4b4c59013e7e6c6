package pipeline

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/mod/semver"

	"github.com/Loadstring-Afk/Celestial-SF/internal/obferr"
)

// minBitwiseDialectVersion is the earliest targetDialectVersion that carries
// real bitwise operators. strenc's composed XOR transform and vmwrap's
// bit-packed instruction stream both emit `~`/`<<`/`>>`/`&`, so a caller
// targeting an older runtime must disable those two passes explicitly.
const minBitwiseDialectVersion = "v5.3.0"

//go:embed options_schema.json
var optionsSchemaJSON []byte

var optionsSchema *jsonschema.Schema

func init() {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("options.json", bytes.NewReader(optionsSchemaJSON)); err != nil {
		panic(fmt.Sprintf("pipeline: embedded options_schema.json is malformed: %v", err))
	}
	sch, err := compiler.Compile("options.json")
	if err != nil {
		panic(fmt.Sprintf("pipeline: options schema failed to compile: %v", err))
	}
	optionsSchema = sch
}

// Options mirrors the external Options shape (§6): booleans enabling
// individual passes and anti-analysis snippets, an obfuscationLevel that
// bundles defaults, and a profile name that seeds all of the above before
// any explicit key overrides it.
type Options struct {
	Profile          string `json:"profile,omitempty"`
	ObfuscationLevel int    `json:"obfuscationLevel,omitempty"`

	StringEncryption       *bool `json:"stringEncryption,omitempty"`
	VariableRenaming       *bool `json:"variableRenaming,omitempty"`
	ControlFlowObfuscation *bool `json:"controlFlowObfuscation,omitempty"`
	DeadCodeInjection      *bool `json:"deadCodeInjection,omitempty"`
	VMObfuscation          *bool `json:"vmObfuscation,omitempty"`

	AntiDebug            *bool `json:"antiDebug,omitempty"`
	AntiTampering        *bool `json:"antiTampering,omitempty"`
	IntegrityChecks      *bool `json:"integrityChecks,omitempty"`
	EnvironmentDetection *bool `json:"environmentDetection,omitempty"`
	TimingProtection     *bool `json:"timingProtection,omitempty"`
	MemoryProtection     *bool `json:"memoryProtection,omitempty"`

	DeadCodeDensity       *float64 `json:"deadCodeDensity,omitempty"`
	TextualPadProbability *float64 `json:"textualPadProbability,omitempty"`

	// TargetDialectVersion is a semver string (e.g. "v5.4.0") naming the
	// runtime the obfuscated output must run on. Empty means "assume the
	// dialect's full operator set is available."
	TargetDialectVersion string `json:"targetDialectVersion,omitempty"`
}

// Validate schema-checks o against options_schema.json, producing
// obferr.InvalidOption on the first violation (§7).
func (o Options) Validate() error {
	encoded, err := json.Marshal(o)
	if err != nil {
		return &obferr.Internal{Stage: "options validation", Cause: err}
	}
	var generic interface{}
	if err := json.Unmarshal(encoded, &generic); err != nil {
		return &obferr.Internal{Stage: "options validation", Cause: err}
	}
	if err := optionsSchema.Validate(generic); err != nil {
		return &obferr.InvalidOption{Key: "options", Reason: err.Error()}
	}
	if o.Profile != "" {
		if _, ok := profiles[o.Profile]; !ok {
			return &obferr.InvalidOption{Key: "profile", Reason: fmt.Sprintf("unknown profile %q", o.Profile)}
		}
	}
	if o.TargetDialectVersion != "" {
		if !semver.IsValid(o.TargetDialectVersion) {
			return &obferr.InvalidOption{Key: "targetDialectVersion", Reason: fmt.Sprintf("%q is not a valid semver version", o.TargetDialectVersion)}
		}
		if semver.Compare(o.TargetDialectVersion, minBitwiseDialectVersion) < 0 {
			ts := resolve(o)
			if ts.stringEncrypt || ts.vm {
				return &obferr.InvalidOption{
					Key: "targetDialectVersion",
					Reason: fmt.Sprintf("%q predates %s, which stringEncryption and vmObfuscation both require for their bitwise operators; disable whichever is enabled",
						o.TargetDialectVersion, minBitwiseDialectVersion),
				}
			}
		}
	}
	return nil
}

func boolOr(p *bool, fallback bool) bool {
	if p == nil {
		return fallback
	}
	return *p
}

func floatOr(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}
