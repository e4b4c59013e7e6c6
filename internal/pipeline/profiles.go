package pipeline

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var profilesYAML []byte

type profilePreset struct {
	Level      int      `yaml:"level"`
	Techniques []string `yaml:"techniques"`
}

var profiles map[string]profilePreset

func init() {
	if err := yaml.Unmarshal(profilesYAML, &profiles); err != nil {
		panic(fmt.Sprintf("pipeline: embedded profiles.yaml is malformed: %v", err))
	}
}

// techniqueSet is the resolved, per-pass enable/disable decision after
// folding a profile preset with any explicit Options overrides.
type techniqueSet struct {
	rename, stringEncrypt, controlFlow, deadCode, vm                            bool
	antiDebug, antiTampering, integrityChecks, environmentDetection             bool
	timingProtection, memoryProtection                                         bool
	level int
}

func has(techniques []string, name string) bool {
	for _, t := range techniques {
		if t == name {
			return true
		}
	}
	return false
}

// resolve folds o.Profile's preset (if any) under o's explicit boolean
// overrides — an explicit key always wins over whatever the profile enables
// (§6: "individual keys override").
func resolve(o Options) techniqueSet {
	var preset profilePreset
	if o.Profile != "" {
		preset = profiles[o.Profile]
	}

	ts := techniqueSet{
		rename:               has(preset.Techniques, "rename"),
		stringEncrypt:        has(preset.Techniques, "stringEncryption"),
		controlFlow:          has(preset.Techniques, "controlFlowObfuscation"),
		deadCode:             has(preset.Techniques, "deadCodeInjection"),
		vm:                   has(preset.Techniques, "vmObfuscation"),
		antiDebug:            has(preset.Techniques, "antiDebug"),
		antiTampering:        has(preset.Techniques, "antiTampering"),
		integrityChecks:      has(preset.Techniques, "integrityChecks"),
		environmentDetection: has(preset.Techniques, "environmentDetection"),
		timingProtection:     has(preset.Techniques, "timingProtection"),
		memoryProtection:     has(preset.Techniques, "memoryProtection"),
		level:                preset.Level,
	}

	if o.ObfuscationLevel != 0 {
		ts.level = o.ObfuscationLevel
	}

	ts.rename = boolOr(o.VariableRenaming, ts.rename)
	ts.stringEncrypt = boolOr(o.StringEncryption, ts.stringEncrypt)
	ts.controlFlow = boolOr(o.ControlFlowObfuscation, ts.controlFlow)
	ts.deadCode = boolOr(o.DeadCodeInjection, ts.deadCode)
	ts.vm = boolOr(o.VMObfuscation, ts.vm)
	ts.antiDebug = boolOr(o.AntiDebug, ts.antiDebug)
	ts.antiTampering = boolOr(o.AntiTampering, ts.antiTampering)
	ts.integrityChecks = boolOr(o.IntegrityChecks, ts.integrityChecks)
	ts.environmentDetection = boolOr(o.EnvironmentDetection, ts.environmentDetection)
	ts.timingProtection = boolOr(o.TimingProtection, ts.timingProtection)
	ts.memoryProtection = boolOr(o.MemoryProtection, ts.memoryProtection)

	return ts
}
