package analysis

import "github.com/tempwatch/tempwatch/internal/types"

// SigmaMultiplier is the band half-width in standard deviations, applied
// symmetrically for both anomaly flagging and normality classification.
const SigmaMultiplier = 2.0

// IsAnomalous reports whether a temperature lies strictly outside the
// inclusive band [center - 2*dispersion, center + 2*dispersion]. Values
// exactly on a bound are not anomalous. When the rolling statistic is
// NaN (an edge row with an incomplete window) both comparisons are false
// under float semantics, so the row is silently not flagged; that is the
// expected boundary behavior, not an error.
func IsAnomalous(temperature float64, rs types.RollingStat) bool {
	lower := rs.Center - SigmaMultiplier*rs.Dispersion
	upper := rs.Center + SigmaMultiplier*rs.Dispersion
	return temperature < lower || temperature > upper
}

// Annotate attaches rolling statistics and anomaly flags to one city's
// time-ordered observation series.
func Annotate(obs []types.Observation, opts RollingOptions) []types.AnnotatedObservation {
	rolling := Rolling(obs, opts)

	annotated := make([]types.AnnotatedObservation, len(obs))
	for i, o := range obs {
		annotated[i] = types.AnnotatedObservation{
			Observation: o,
			Rolling:     rolling[i],
			Anomaly:     IsAnomalous(o.Temperature, rolling[i]),
		}
	}
	return annotated
}
