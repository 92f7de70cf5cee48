package mailward

import "errors"

var (
	// ErrNoAddresses is returned by ValidateBatch when, after
	// deduplication and placeholder filtering, nothing is left to
	// verify.
	ErrNoAddresses = errors.New("mailward: no addresses to validate")

	// ErrInvalidMode is returned by New when Options.Mode is neither
	// strict nor lenient.
	ErrInvalidMode = errors.New("mailward: mode must be strict or lenient")
)
