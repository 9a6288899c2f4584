// Package reduce collapses per-timestep hydrodynamic series into per-point
// statistics. Missing values are NaN and propagate without errors.
package reduce

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/Veraticus/ecomap/internal/common"
	"github.com/Veraticus/ecomap/internal/model"
)

// DepthSummary is the reduction of a water-depth series.
type DepthSummary struct {
	Mean      []float64
	Duration  []float64 // fraction of timesteps inundated
	Frequency []float64 // wet-dry cycles
	// NegativeMean flags an aggregate mean below zero, which usually means the
	// depth-sign setting of the map configuration is wrong.
	NegativeMean bool
}

// Salinity returns the mean and the population standard deviation per point.
func Salinity(ts model.TimeSeries) (mean, std []float64) {
	n := ts.Points()
	mean = make([]float64, n)
	std = make([]float64, n)

	for p := 0; p < n; p++ {
		col := ts.Column(p)
		if len(col) == 0 || floats.HasNaN(col) {
			mean[p], std[p] = math.NaN(), math.NaN()
			continue
		}
		mean[p], std[p] = stat.PopMeanStdDev(col, nil)
	}
	return mean, std
}

// WaterDepth returns mean depth, inundation duration and flood frequency per
// point. Depths follow the positive-submerged convention.
func WaterDepth(ts model.TimeSeries) DepthSummary {
	n := ts.Points()
	s := DepthSummary{
		Mean:      make([]float64, n),
		Duration:  make([]float64, n),
		Frequency: make([]float64, n),
	}

	var total float64
	var counted int
	for p := 0; p < n; p++ {
		col := ts.Column(p)
		if len(col) == 0 || floats.HasNaN(col) {
			s.Mean[p], s.Duration[p], s.Frequency[p] = math.NaN(), math.NaN(), math.NaN()
			continue
		}

		s.Mean[p] = stat.Mean(col, nil)
		s.Duration[p] = inundated(col)
		s.Frequency[p] = float64(signChanges(col)) / 2

		total += s.Mean[p]
		counted++
	}

	if counted > 0 && total/float64(counted) < 0 {
		s.NegativeMean = true
	}

	return s
}

// Velocity returns the median and the maximum flow velocity per point.
func Velocity(ts model.TimeSeries) (median, maximum []float64) {
	n := ts.Points()
	median = make([]float64, n)
	maximum = make([]float64, n)

	for p := 0; p < n; p++ {
		col := ts.Column(p)
		if len(col) == 0 || floats.HasNaN(col) {
			median[p], maximum[p] = math.NaN(), math.NaN()
			continue
		}
		median[p] = Median(col)
		maximum[p] = floats.Max(col)
	}
	return median, maximum
}

// Magnitude combines velocity components into flow speed. Both series must
// share their shape and time axis.
func Magnitude(ux, uy model.TimeSeries) (model.TimeSeries, error) {
	if ux.TimeAxis != uy.TimeAxis || len(ux.Data) != len(uy.Data) {
		return model.TimeSeries{}, fmt.Errorf("%w: velocity components differ in shape", common.ErrShape)
	}

	out := model.TimeSeries{Data: make([][]float64, len(ux.Data)), TimeAxis: ux.TimeAxis}
	for i := range ux.Data {
		if len(ux.Data[i]) != len(uy.Data[i]) {
			return model.TimeSeries{}, fmt.Errorf("%w: velocity components differ in row %d", common.ErrShape, i)
		}
		row := make([]float64, len(ux.Data[i]))
		for j := range row {
			row[j] = math.Hypot(ux.Data[i][j], uy.Data[i][j])
		}
		out.Data[i] = row
	}
	return out, nil
}

// Median returns the median of values without modifying them. The median of
// an even count is the mean of the two middle values.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func inundated(col []float64) float64 {
	var wet int
	for _, d := range col {
		if d > 0 {
			wet++
		}
	}
	return float64(wet) / float64(len(col))
}

// signChanges counts the steps where the sign of the depth changes. Stepping
// onto or off exactly zero counts as a change.
func signChanges(col []float64) int {
	var changes int
	for t := 1; t < len(col); t++ {
		if sign(col[t]) != sign(col[t-1]) {
			changes++
		}
	}
	return changes
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
