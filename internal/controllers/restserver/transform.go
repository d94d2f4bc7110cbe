package restserver

import (
	"math"
	"time"

	"github.com/tempwatch/tempwatch/internal/types"
)

// Response types decouple the wire format from the internal model and
// turn NaN statistics into JSON nulls, which encoding/json cannot
// represent as bare floats.

type rollingStatResponse struct {
	Center     *float64 `json:"center"`
	Dispersion *float64 `json:"dispersion"`
}

type observationResponse struct {
	Timestamp   time.Time           `json:"timestamp"`
	Temperature float64             `json:"temperature"`
	Season      types.Season        `json:"season"`
	Rolling     rollingStatResponse `json:"rolling"`
	Anomaly     bool                `json:"anomaly"`
}

type seriesResponse struct {
	City         string                `json:"city"`
	Observations []observationResponse `json:"observations"`
}

type baselineResponse struct {
	Mean *float64 `json:"mean"`
	Std  *float64 `json:"std"`
}

type profileResponse struct {
	City    string                            `json:"city"`
	Source  string                            `json:"source"`
	Profile map[types.Season]baselineResponse `json:"profile"`
}

type classificationResponse struct {
	City        string           `json:"city"`
	Season      types.Season     `json:"season"`
	Temperature float64          `json:"temperature"`
	Normal      bool             `json:"normal"`
	Baseline    baselineResponse `json:"baseline"`
}

type citiesResponse struct {
	Cities []string `json:"cities"`
}

type uploadResponse struct {
	Cities       int `json:"cities"`
	Observations int `json:"observations"`
}

// floatPtr maps NaN to nil so it serializes as null.
func floatPtr(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func toSeriesResponse(city string, annotated []types.AnnotatedObservation) seriesResponse {
	observations := make([]observationResponse, len(annotated))
	for i, a := range annotated {
		observations[i] = observationResponse{
			Timestamp:   a.Timestamp,
			Temperature: a.Temperature,
			Season:      a.Season,
			Rolling: rollingStatResponse{
				Center:     floatPtr(a.Rolling.Center),
				Dispersion: floatPtr(a.Rolling.Dispersion),
			},
			Anomaly: a.Anomaly,
		}
	}
	return seriesResponse{City: city, Observations: observations}
}

func toProfileResponse(city, source string, profile map[types.Season]types.SeasonalBaseline) profileResponse {
	out := make(map[types.Season]baselineResponse, len(profile))
	for season, baseline := range profile {
		out[season] = toBaselineResponse(baseline)
	}
	return profileResponse{City: city, Source: source, Profile: out}
}

func toBaselineResponse(b types.SeasonalBaseline) baselineResponse {
	return baselineResponse{
		Mean: floatPtr(b.Mean),
		Std:  floatPtr(b.Std),
	}
}

func toClassificationResponse(c types.Classification) classificationResponse {
	return classificationResponse{
		City:        c.City,
		Season:      c.Season,
		Temperature: c.Temperature,
		Normal:      c.Normal,
		Baseline:    toBaselineResponse(c.Baseline),
	}
}
