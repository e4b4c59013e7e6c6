// Package obfuscate is the public entry point: a thin wrapper over
// internal/pipeline that external callers (the CLI, an embedding service)
// depend on instead of reaching into internal packages directly.
package obfuscate

import (
	"github.com/Loadstring-Afk/Celestial-SF/internal/pipeline"
)

// Options mirrors pipeline.Options; re-exported so callers outside this
// module never need to import an internal package.
type Options = pipeline.Options

// Result mirrors pipeline.Result.
type Result = pipeline.Result

// Obfuscate runs the full lexer/parser/pass-chain/printer pipeline over
// source and returns its Result, or one of obferr's exhaustive error kinds.
func Obfuscate(source []byte, options Options, seed uint64) (Result, error) {
	return pipeline.Obfuscate(source, options, seed)
}
