// Package analysis implements the seasonal temperature statistics engine:
// per-season baselines, centered rolling window statistics, anomaly
// flagging, and normality classification of current readings.
//
// Every function in this package is a pure computation over a single
// city's time-ordered observation series. Nothing here holds state or
// reads data from more than one city.
package analysis

import (
	"math"

	"github.com/tempwatch/tempwatch/internal/types"
	"gonum.org/v1/gonum/stat"
)

// SeasonalProfile groups one city's observations by season and computes
// the mean and sample standard deviation of temperature per group.
// Seasons with no observations are absent from the result; a season with
// a single observation is present with Std = NaN (sample std is undefined
// for n < 2).
func SeasonalProfile(obs []types.Observation) map[types.Season]types.SeasonalBaseline {
	bySeason := make(map[types.Season][]float64)
	var city string
	for _, o := range obs {
		city = o.City
		bySeason[o.Season] = append(bySeason[o.Season], o.Temperature)
	}

	profile := make(map[types.Season]types.SeasonalBaseline, len(bySeason))
	for season, temps := range bySeason {
		profile[season] = types.SeasonalBaseline{
			City:   city,
			Season: season,
			Mean:   stat.Mean(temps, nil),
			Std:    sampleStd(temps),
		}
	}
	return profile
}

// RollingSeasonalProfile computes per-season baselines from the smoothed
// rolling center statistics instead of raw temperatures. Edge rows whose
// rolling statistic is NaN are skipped; a season ends up absent when none
// of its rows have a defined rolling statistic.
func RollingSeasonalProfile(annotated []types.AnnotatedObservation) map[types.Season]types.SeasonalBaseline {
	bySeason := make(map[types.Season][]float64)
	var city string
	for _, a := range annotated {
		city = a.City
		if math.IsNaN(a.Rolling.Center) {
			continue
		}
		bySeason[a.Season] = append(bySeason[a.Season], a.Rolling.Center)
	}

	profile := make(map[types.Season]types.SeasonalBaseline, len(bySeason))
	for season, centers := range bySeason {
		profile[season] = types.SeasonalBaseline{
			City:   city,
			Season: season,
			Mean:   stat.Mean(centers, nil),
			Std:    sampleStd(centers),
		}
	}
	return profile
}

// sampleStd is the n-1 (sample) standard deviation, NaN for n < 2.
func sampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.StdDev(xs, nil)
}
