package models

import "errors"

var (
	// ErrDataUnavailable marks a missing price or index quote for a date.
	// Batch jobs skip the affected row and continue; never fatal for a run.
	ErrDataUnavailable = errors.New("price data unavailable")

	// ErrIntegrity marks a malformed price series (non-monotonic dates,
	// missing close). Fatal for that series and propagated to the caller.
	ErrIntegrity = errors.New("price series integrity violation")
)
