// Package apperr defines the error kinds shared by the clustering and diff engines.
// Call sites wrap one of these sentinels so that callers can branch with errors.Is.
package apperr

import "errors"

var (
	// ErrNotFound is returned when a results directory, a scan id, or a history database is missing.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when the input can't be processed at all,
	// e.g. a wrong number of diff sources, a malformed findings file, or a bad weight configuration.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformedRecord marks a single finding that lacks expected fields.
	// It is only ever logged; the record is degraded or skipped and the pass continues.
	ErrMalformedRecord = errors.New("malformed record")
)
