// Package types contains the shared data model for the temperature
// analysis engine: historical observations, derived baselines, and
// classification results.
package types

import (
	"fmt"
	"time"
)

// Season is one of the four meteorological seasons, lowercase English.
type Season string

const (
	Winter Season = "winter"
	Spring Season = "spring"
	Summer Season = "summer"
	Autumn Season = "autumn"
)

// Seasons lists all valid seasons in calendar order starting from winter.
var Seasons = []Season{Winter, Spring, Summer, Autumn}

// ParseSeason validates a season token from an external source.
func ParseSeason(s string) (Season, error) {
	switch Season(s) {
	case Winter, Spring, Summer, Autumn:
		return Season(s), nil
	}
	return "", fmt.Errorf("unknown season %q", s)
}

// SeasonForMonth maps a calendar month to its season:
// Dec/Jan/Feb winter, Mar-May spring, Jun-Aug summer, Sep-Nov autumn.
func SeasonForMonth(m time.Month) Season {
	switch m {
	case time.December, time.January, time.February:
		return Winter
	case time.March, time.April, time.May:
		return Spring
	case time.June, time.July, time.August:
		return Summer
	default:
		return Autumn
	}
}

// SeasonForTime maps a timestamp to its season by calendar month.
func SeasonForTime(t time.Time) Season {
	return SeasonForMonth(t.Month())
}

// Observation is a single historical temperature reading for a city.
// Observations are immutable once loaded.
type Observation struct {
	City        string    `json:"city"`
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
	Season      Season    `json:"season"`
}

// SeasonalBaseline is the historical mean and sample standard deviation
// for one (city, season) pair. Std is NaN when the season has fewer than
// two samples.
type SeasonalBaseline struct {
	City   string  `json:"city"`
	Season Season  `json:"season"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
}

// RollingStat is the centered rolling window statistic attached to a
// single observation. Both fields are NaN where a full window is not
// available (the edges of a city's series).
type RollingStat struct {
	Center     float64 `json:"center"`
	Dispersion float64 `json:"dispersion"`
}

// AnnotatedObservation is an observation together with its derived
// rolling statistic and anomaly flag.
type AnnotatedObservation struct {
	Observation
	Rolling RollingStat `json:"rolling"`
	Anomaly bool        `json:"anomaly"`
}

// CurrentReading is a freshly observed temperature for a city, supplied
// by the weather lookup. It is ephemeral and never joins the historical
// series.
type CurrentReading struct {
	City        string    `json:"city"`
	Temperature float64   `json:"temperature"`
	ObservedAt  time.Time `json:"observed_at"`
}

// Classification is the outcome of testing a current reading against a
// seasonal baseline, together with the inputs that produced it.
type Classification struct {
	City        string           `json:"city"`
	Season      Season           `json:"season"`
	Temperature float64          `json:"temperature"`
	Normal      bool             `json:"normal"`
	Baseline    SeasonalBaseline `json:"baseline"`
}
