package domain

import "errors"

// Error taxonomy for the analysis path. Callers match with errors.Is.
var (
	// ErrInvalidInput marks caller-fixable problems such as empty text.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRemoteUnavailable marks transient evaluator failures; the caller
	// may retry.
	ErrRemoteUnavailable = errors.New("evaluator unavailable")

	// ErrMalformedResponse marks an evaluator reply that failed schema
	// validation.
	ErrMalformedResponse = errors.New("malformed evaluator response")
)
