// Package check implements the individual verification stages of the
// pipeline: syntax validation, domain classification, DNS resolution
// and the SMTP recipient probe. Each stage is independent; the engine
// at the repository root composes them into full results.
package check
