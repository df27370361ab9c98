// Package ir defines the declaration model for repoql: record schemas,
// repository specs, and the operations declared on them.
//
// Declarations are what a caller writes (usually in CUE, see internal/cli);
// everything else in the system is derived from them. The types here are
// plain data with no behavior beyond lookup and validation - resolution
// lives in internal/compiler and execution in internal/engine.
//
// The package also provides canonical JSON serialization (RFC 8785 subset)
// and domain-separated fingerprinting. Compiled query intents are
// fingerprinted through this serialization, which is what makes "resolving
// the same declaration twice yields the same intent" an observable,
// testable identity rather than a structural deep-compare.
package ir
