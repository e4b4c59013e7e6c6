// Package external names the collaborators that would sit in front of
// internal/pipeline in a deployed service (§6): an HTTP surface, a rate
// limiter, a response cache, and an input sanitizer. None of these are
// implemented here — wiring a real HTTP server, rate-limit store, or cache
// backend is out of scope for this core — but the interfaces exist so the
// pipeline's entry point has a documented, stable seam to build against.
package external

import "context"

// RateLimiter decides whether a client may submit another obfuscation
// request. Keyed by client address per §6.
type RateLimiter interface {
	Allow(ctx context.Context, clientKey string) (bool, error)
}

// ResponseCache stores a previously computed Result keyed by a hash of its
// input, so identical requests skip the pipeline entirely.
type ResponseCache interface {
	Get(ctx context.Context, inputHash string) ([]byte, bool, error)
	Put(ctx context.Context, inputHash string, result []byte) error
}

// InputSanitizer strips suspicious escape sequences from a request body
// before it reaches the lexer — never whitespace or comments, which the
// pipeline itself is responsible for handling (§6).
type InputSanitizer interface {
	Sanitize(source []byte) []byte
}

// Server is the HTTP surface named in §6: POST /obfuscate, /analyze,
// /batch, and status endpoints. Implementing the transport is out of scope;
// this interface documents the shape a real implementation would satisfy.
type Server interface {
	Obfuscate(ctx context.Context, request []byte) (response []byte, err error)
	Analyze(ctx context.Context, request []byte) (response []byte, err error)
	Batch(ctx context.Context, requests [][]byte) (responses [][]byte, err error)
	Status(ctx context.Context) (status []byte, err error)
}
