package domain

import "errors"

var (
	// ErrMissingParameter means a feature lacks a requested parameter. The
	// upstream response does not match the request and the run must stop.
	ErrMissingParameter = errors.New("missing forecast parameter")

	// ErrEmptyInput means there were no features or no forecast steps.
	ErrEmptyInput = errors.New("empty forecast input")

	// ErrDegenerateExtent means every sample shares a longitude or a latitude,
	// so no lattice can be spanned.
	ErrDegenerateExtent = errors.New("degenerate sample extent")

	// ErrInvalidConfig reports an unusable grid configuration.
	ErrInvalidConfig = errors.New("invalid grid configuration")
)
