package analysis

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/tempwatch/tempwatch/internal/types"
	"gonum.org/v1/gonum/stat"
)

// StatisticMode selects the center statistic for the rolling window.
type StatisticMode string

const (
	// StatMean uses the arithmetic mean as the center statistic and the
	// sample standard deviation as dispersion. Neither skips NaN inputs:
	// a NaN anywhere in the window makes both statistics NaN.
	StatMean StatisticMode = "mean"

	// StatMedian uses the NaN-skipping median as the center statistic
	// and the NaN-skipping population standard deviation as dispersion.
	StatMedian StatisticMode = "median"
)

// DefaultWindow is the rolling window width in observations.
const DefaultWindow = 30

// RollingOptions parameterizes the rolling statistics engine.
type RollingOptions struct {
	// Window is the total window width. Must be >= 2.
	Window int
	// Mode selects the center/dispersion statistics.
	Mode StatisticMode
}

// DefaultRollingOptions returns the mean-based engine over a 30-wide
// centered window.
func DefaultRollingOptions() RollingOptions {
	return RollingOptions{
		Window: DefaultWindow,
		Mode:   StatMean,
	}
}

// Rolling computes the centered rolling statistic for every position of
// one city's time-ordered series.
//
// Window placement: for width w, the window at index i covers
// [i - w/2, i + w/2 - 1] for even w (the current point is the (w/2+1)th
// element, matching a centered even-width window) and [i - w/2, i + w/2]
// for odd w. Positions whose window would extend past either end of the
// series get NaN for both statistics; for the default width of 30 that
// is the first 15 and last 14 positions, leaving len(obs)-29 defined
// rows when len(obs) >= 30 and none otherwise.
func Rolling(obs []types.Observation, opts RollingOptions) []types.RollingStat {
	n := len(obs)
	result := make([]types.RollingStat, n)

	w := opts.Window
	if w < 2 {
		w = DefaultWindow
	}

	for i := 0; i < n; i++ {
		lo := i - w/2
		hi := lo + w - 1
		if w%2 != 0 {
			hi = i + w/2
		}
		if lo < 0 || hi >= n {
			result[i] = types.RollingStat{Center: math.NaN(), Dispersion: math.NaN()}
			continue
		}

		window := make([]float64, 0, w)
		for j := lo; j <= hi; j++ {
			window = append(window, obs[j].Temperature)
		}

		switch opts.Mode {
		case StatMedian:
			result[i] = medianStat(window)
		default:
			result[i] = meanStat(window)
		}
	}
	return result
}

// meanStat computes mean and sample standard deviation over the full
// window. gonum propagates NaN, so a window touching missing data yields
// NaN rather than a partial-window statistic.
func meanStat(window []float64) types.RollingStat {
	return types.RollingStat{
		Center:     stat.Mean(window, nil),
		Dispersion: stat.StdDev(window, nil),
	}
}

// medianStat computes the NaN-skipping median and population standard
// deviation of the window. A window with no defined values yields NaN.
func medianStat(window []float64) types.RollingStat {
	defined := window[:0:0]
	for _, v := range window {
		if !math.IsNaN(v) {
			defined = append(defined, v)
		}
	}
	if len(defined) == 0 {
		return types.RollingStat{Center: math.NaN(), Dispersion: math.NaN()}
	}

	median, err := stats.Median(defined)
	if err != nil {
		return types.RollingStat{Center: math.NaN(), Dispersion: math.NaN()}
	}
	return types.RollingStat{
		Center:     median,
		Dispersion: stat.PopStdDev(defined, nil),
	}
}
