package domain

import "errors"

// The two failure kinds the pipeline surfaces. Everything below the top level
// either wraps one of these or degrades to a per-row empty value.
var (
	// ErrDataUnavailable marks fetch failures: network errors, non-2xx
	// responses, empty payloads.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrSchema marks structurally unreadable payloads: not CSV, or a table
	// with zero columns.
	ErrSchema = errors.New("schema error")
)
