package model

import (
	"fmt"
	"math"
)

// Point identifies a grid point by its coordinates in grid-native units.
type Point struct {
	X float64
	Y float64
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// Label pairs a grid point with its ecotope label.
type Label struct {
	Code  string
	Point Point
}

// Labels is an ordered collection of labelled grid points.
type Labels []Label

// Map converts the labels to a LabelMap. Later duplicates win.
func (l Labels) Map() LabelMap {
	m := make(LabelMap, len(l))
	for _, label := range l {
		m[label.Point] = label.Code
	}
	return m
}

// LabelMap maps grid points to ecotope labels.
type LabelMap map[Point]string

// Keys returns the points of the map in no particular order.
func (m LabelMap) Keys() []Point {
	keys := make([]Point, 0, len(m))
	for p := range m {
		keys = append(keys, p)
	}
	return keys
}

// TimeSeries is a two-dimensional array of a single variable. TimeAxis tells
// which dimension is time: 0 means Data[t][p], 1 means Data[p][t].
// Missing values are NaN.
type TimeSeries struct {
	Data     [][]float64
	TimeAxis int
}

// Steps returns the number of timesteps.
func (ts TimeSeries) Steps() int {
	if ts.TimeAxis == 0 {
		return len(ts.Data)
	}
	if len(ts.Data) == 0 {
		return 0
	}
	return len(ts.Data[0])
}

// Points returns the number of grid points.
func (ts TimeSeries) Points() int {
	if ts.TimeAxis != 0 {
		return len(ts.Data)
	}
	if len(ts.Data) == 0 {
		return 0
	}
	return len(ts.Data[0])
}

// Column returns the time series of point p. The returned slice is a copy when
// time is the leading axis.
func (ts TimeSeries) Column(p int) []float64 {
	if ts.TimeAxis != 0 {
		return ts.Data[p]
	}
	col := make([]float64, len(ts.Data))
	for t, row := range ts.Data {
		col[t] = row[p]
	}
	return col
}

// Statistics holds the temporal summary of a grid point. NaN marks a value
// that could not be determined.
//
// DepthMean follows the positive-submerged convention: a positive value is a
// water depth below the free surface, a negative value a dry height above it.
type Statistics struct {
	SalinityMean       float64
	SalinityStd        float64
	DepthMean          float64
	InundationDuration float64
	FloodFrequency     float64
	VelocityMedian     float64
	VelocityMax        float64
	GrainSize          float64 // µm
}

// MissingStatistics returns statistics with every value undefined.
func MissingStatistics() Statistics {
	nan := math.NaN()
	return Statistics{
		SalinityMean:       nan,
		SalinityStd:        nan,
		DepthMean:          nan,
		InundationDuration: nan,
		FloodFrequency:     nan,
		VelocityMedian:     nan,
		VelocityMax:        nan,
		GrainSize:          nan,
	}
}

// Partition is the data of one hydrodynamic-model partition, aligned by grid
// point index.
type Partition struct {
	ID         string
	X          []float64
	Y          []float64
	WaterDepth TimeSeries
	Velocity   TimeSeries
	Salinity   TimeSeries
	GrainSize  []float64 // optional, µm
}

// Len returns the number of grid points in the partition.
func (p *Partition) Len() int {
	return len(p.X)
}
