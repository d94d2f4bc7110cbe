package analysis

import (
	"fmt"
	"math"

	"github.com/tempwatch/tempwatch/internal/types"
)

// BaselineSource selects which seasonal profile feeds the normality
// classifier.
type BaselineSource string

const (
	// BaselineRaw tests readings against seasonal statistics of the raw
	// temperature series.
	BaselineRaw BaselineSource = "raw"

	// BaselineRolling tests readings against seasonal statistics of the
	// smoothed rolling center values. This is the default.
	BaselineRolling BaselineSource = "rolling"
)

// IsNormal reports whether a temperature falls inside the inclusive band
// [mean - 2*std, mean + 2*std] of a seasonal baseline.
func IsNormal(b types.SeasonalBaseline, temperature float64) bool {
	return temperature >= b.Mean-SigmaMultiplier*b.Std &&
		temperature <= b.Mean+SigmaMultiplier*b.Std
}

// Classify tests a current reading against the seasonal baseline for the
// season implied by the reading's timestamp. The profile must be keyed
// explicitly by season; a missing entry, or one whose Std is NaN because
// the season had fewer than two samples, yields ErrBaselineUnavailable
// rather than an undefined comparison.
func Classify(profile map[types.Season]types.SeasonalBaseline, reading types.CurrentReading) (types.Classification, error) {
	season := types.SeasonForTime(reading.ObservedAt)

	baseline, ok := profile[season]
	if !ok || math.IsNaN(baseline.Std) {
		return types.Classification{}, fmt.Errorf("%w for %s/%s", ErrBaselineUnavailable, reading.City, season)
	}

	return types.Classification{
		City:        reading.City,
		Season:      season,
		Temperature: reading.Temperature,
		Normal:      IsNormal(baseline, reading.Temperature),
		Baseline:    baseline,
	}, nil
}
