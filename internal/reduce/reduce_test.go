package reduce

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ecomap/internal/common"
	"github.com/Veraticus/ecomap/internal/model"
)

func TestSalinity(t *testing.T) {
	// time along rows: 4 timesteps, 2 points
	ts := model.TimeSeries{
		Data: [][]float64{
			{10, 2},
			{12, 2},
			{14, 2},
			{16, math.NaN()},
		},
		TimeAxis: 0,
	}

	mean, std := Salinity(ts)
	require.Len(t, mean, 2)
	assert.InDelta(t, 13.0, mean[0], 1e-12)
	assert.InDelta(t, math.Sqrt(5), std[0], 1e-12)
	assert.True(t, math.IsNaN(mean[1]))
	assert.True(t, math.IsNaN(std[1]))
}

func TestWaterDepth(t *testing.T) {
	ts := model.TimeSeries{
		Data: [][]float64{
			{1, 1, 1, 1},     // always wet
			{1, -1, 1, -1},   // three sign changes
			{-1, -1, -1, -1}, // always dry
			{1, 0, -1, 1},    // through zero
		},
		TimeAxis: 1,
	}

	s := WaterDepth(ts)
	assert.Equal(t, []float64{1, 0.5, 0, 0.5}, s.Duration)
	assert.Equal(t, []float64{0, 1.5, 0, 1.5}, s.Frequency)
	assert.InDelta(t, 1.0, s.Mean[0], 1e-12)
	assert.InDelta(t, 0.0, s.Mean[1], 1e-12)
	assert.InDelta(t, -1.0, s.Mean[2], 1e-12)
	assert.False(t, s.NegativeMean)
}

func TestWaterDepth_NegativeMeanIsFlagged(t *testing.T) {
	ts := model.TimeSeries{
		Data:     [][]float64{{-3, -2}, {-4, -1}},
		TimeAxis: 0,
	}
	s := WaterDepth(ts)
	assert.True(t, s.NegativeMean)
	assert.Equal(t, []float64{0, 0}, s.Duration)
}

func TestWaterDepth_MissingValues(t *testing.T) {
	ts := model.TimeSeries{Data: [][]float64{{math.NaN(), 1}}, TimeAxis: 1}
	s := WaterDepth(ts)
	assert.True(t, math.IsNaN(s.Mean[0]))
	assert.True(t, math.IsNaN(s.Duration[0]))
	assert.True(t, math.IsNaN(s.Frequency[0]))
	assert.False(t, s.NegativeMean)
}

func TestVelocity(t *testing.T) {
	ts := model.TimeSeries{
		Data: [][]float64{
			{0.4, 0.1, 0.3},
			{0.1, 0.2, 0.3, 0.9},
		},
		TimeAxis: 1,
	}
	median, maximum := Velocity(ts)
	assert.InDelta(t, 0.3, median[0], 1e-12)
	assert.InDelta(t, 0.25, median[1], 1e-12)
	assert.Equal(t, []float64{0.4, 0.9}, maximum)
}

func TestMedian_DoesNotModifyInput(t *testing.T) {
	values := []float64{3, 1, 2}
	assert.Equal(t, 2.0, Median(values))
	assert.Equal(t, []float64{3, 1, 2}, values)
	assert.True(t, math.IsNaN(Median(nil)))
}

func TestMagnitude(t *testing.T) {
	ux := model.TimeSeries{Data: [][]float64{{3, 0}}, TimeAxis: 0}
	uy := model.TimeSeries{Data: [][]float64{{4, -2}}, TimeAxis: 0}

	speed, err := Magnitude(ux, uy)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{5, 2}}, speed.Data)

	_, err = Magnitude(ux, model.TimeSeries{Data: [][]float64{{1}}, TimeAxis: 0})
	assert.ErrorIs(t, err, common.ErrShape)
}

func TestGrainSize(t *testing.T) {
	friction := CalibratedFriction

	tests := []struct {
		name   string
		params GrainParams
		want   float64
	}{
		{
			name:   "defaults",
			params: DefaultGrainParams(),
			want:   3616.6365280289332,
		},
		{
			name:   "low shields",
			params: GrainParams{Shields: 0.03, Chezy: 60, RelativeDensity: 1.58},
			want:   5860.290670417018,
		},
		{
			name:   "calibrated friction",
			params: GrainParams{Shields: 0.07, Chezy: 50, RelativeDensity: 1.58, Friction: &friction},
			want:   1300,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GrainSize([]float64{1, math.NaN()}, tt.params)
			assert.InDelta(t, tt.want, got[0], 1e-6)
			assert.True(t, math.IsNaN(got[1]))
		})
	}
}

func TestReduce(t *testing.T) {
	p := &model.Partition{
		ID: "part-0000",
		X:  []float64{0, 1},
		Y:  []float64{0, 0},
		WaterDepth: model.TimeSeries{
			Data:     [][]float64{{3, 0.5}, {3, -0.5}},
			TimeAxis: 0,
		},
		Velocity: model.TimeSeries{
			Data:     [][]float64{{0.5, 0.1}, {0.5, 0.3}},
			TimeAxis: 0,
		},
		Salinity: model.TimeSeries{
			Data:     [][]float64{{30, 10}, {30, 10}},
			TimeAxis: 0,
		},
	}

	r, err := Reduce(p, DefaultGrainParams())
	require.NoError(t, err)
	require.Len(t, r.Statistics, 2)

	first := r.Statistics[0]
	assert.Equal(t, 30.0, first.SalinityMean)
	assert.Equal(t, 0.0, first.SalinityStd)
	assert.Equal(t, 3.0, first.DepthMean)
	assert.Equal(t, 1.0, first.InundationDuration)
	assert.InDelta(t, 0.25*3616.6365280289332, first.GrainSize, 1e-6)

	second := r.Statistics[1]
	assert.Equal(t, 0.5, second.InundationDuration)
	assert.Equal(t, 0.5, second.FloodFrequency)
	assert.InDelta(t, 0.3, second.VelocityMax, 1e-12)
	assert.False(t, r.NegativeMean)

	p.GrainSize = []float64{120, 900}
	r, err = Reduce(p, DefaultGrainParams())
	require.NoError(t, err)
	assert.Equal(t, 120.0, r.Statistics[0].GrainSize)
}

func TestReduce_ShapeMismatch(t *testing.T) {
	p := &model.Partition{
		ID:         "part-0001",
		X:          []float64{0, 1},
		Y:          []float64{0, 0},
		WaterDepth: model.TimeSeries{Data: [][]float64{{1, 1, 1}}, TimeAxis: 0},
		Velocity:   model.TimeSeries{Data: [][]float64{{1, 1}}, TimeAxis: 0},
		Salinity:   model.TimeSeries{Data: [][]float64{{1, 1}}, TimeAxis: 0},
	}
	_, err := Reduce(p, DefaultGrainParams())
	assert.ErrorIs(t, err, common.ErrShape)
}
