package insight

import "errors"

// Error kinds surfaced by the query engine. Callers classify with errors.Is.
var (
	// ErrInvalidArgument reports a caller bug: bad k, bad page size, unknown
	// sort key. Fail fast, never degrade.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDataUnavailable reports that the upstream record source failed.
	// Recoverable by retry or re-fetch at the caller's boundary.
	ErrDataUnavailable = errors.New("record source unavailable")
)
