package analysis

import "errors"

// Sentinel errors for the classification pipeline. Callers match these
// with errors.Is; wrap sites add the city and season involved.
var (
	// ErrInsufficientData indicates a city or season has no observations
	// to derive statistics from.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrBaselineUnavailable indicates no usable seasonal baseline exists
	// for the requested (city, season) pair.
	ErrBaselineUnavailable = errors.New("baseline unavailable")

	// ErrReadingUnavailable indicates the current-temperature lookup
	// failed or returned no usable value.
	ErrReadingUnavailable = errors.New("reading unavailable")
)
