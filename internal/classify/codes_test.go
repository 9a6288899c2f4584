package classify

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ecomap/internal/config"
	"github.com/Veraticus/ecomap/internal/model"
)

var nan = math.NaN()

func defaults(t *testing.T) *config.EcotopeConfig {
	t.Helper()
	cfg, err := config.LoadEcotopeConfig(config.Override{})
	require.NoError(t, err)
	return cfg
}

// sentinel returns thresholds that flip every decision compared to the defaults.
func sentinel(t *testing.T) *config.EcotopeConfig {
	t.Helper()
	cfg := defaults(t)
	inf := math.Inf(1)
	cfg.Salinity = config.SalinityThresholds{Variable: inf, Fresh: inf, Marine: -inf}
	cfg.Depth1.LowWater, cfg.Depth1.HighWater = inf, -inf
	cfg.Hydrodynamics = config.HydrodynamicsThresholds{Stagnant: inf, SubLittoral: -inf, Littoral: -inf}
	cfg.Depth2.SubLittoral.DepthDeep = -inf
	cfg.Depth2.Littoral.InundationUpper = -inf
	cfg.Depth2.SupraLittoral.Frequency1 = -inf
	cfg.Substratum2.Soft.Silt = inf
	return cfg
}

func TestSalinityCode(t *testing.T) {
	cfg := defaults(t)

	tests := []struct {
		name      string
		mean, std float64
		want      string
	}{
		{"missing mean", nan, 0, "x"},
		{"missing std", 10, nan, "x"},
		{"variable", 10, 3, "v"},
		{"fresh", 2.5, 0, "f"},
		{"marine", 28, 4, "z"},
		{"brackish", 15, 3, "b"},
		{"fresh boundary is brackish", 5.4, 0, "b"},
		{"marine boundary is brackish", 18, 0, "b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SalinityCode(cfg, tt.mean, tt.std))
		})
	}
}

func TestSubstratum1Code(t *testing.T) {
	tests := []struct {
		hint    string
		want    string
		wantErr bool
	}{
		{hint: "", want: "x"},
		{hint: "soft", want: "2"},
		{hint: "hard", want: "1"},
		{hint: "rock", wantErr: true},
		{hint: "Soft", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			got, err := Substratum1Code(tt.hint)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSubstratum)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDepth1Code(t *testing.T) {
	cfg := defaults(t)

	tests := []struct {
		name  string
		depth float64
		tide  *TideRange
		want  string
	}{
		{"missing", nan, nil, "x"},
		{"always inundated", 2.8, nil, "1"},
		{"intertidal", 0, nil, "2"},
		{"always drained", -2.5, nil, "3"},
		{"low-water boundary", 2.31, nil, "2"},
		{"dynamic sub-littoral", 1.5, &TideRange{Low: -1, High: 1}, "1"},
		{"dynamic supra-littoral", -1.5, &TideRange{Low: -1, High: 1}, "3"},
		{"dynamic littoral", 2.8, &TideRange{Low: -3, High: 1}, "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Depth1Code(cfg, tt.depth, tt.tide))
		})
	}
}

func TestNewTideRange(t *testing.T) {
	low, high := -2.4, 1.2

	r, err := NewTideRange(nil, nil)
	require.NoError(t, err)
	assert.Nil(t, r)

	r, err = NewTideRange(&low, &high)
	require.NoError(t, err)
	assert.Equal(t, &TideRange{Low: low, High: high}, r)

	_, err = NewTideRange(&low, nil)
	assert.ErrorIs(t, err, ErrTidePairing)
	_, err = NewTideRange(nil, &high)
	assert.ErrorIs(t, err, ErrTidePairing)
	_, err = NewTideRange(&high, &low)
	assert.ErrorIs(t, err, ErrTidePairing)
}

func TestHydrodynamicsCode(t *testing.T) {
	cfg := defaults(t)

	tests := []struct {
		name   string
		vmax   float64
		depth1 string
		want   string
	}{
		{"missing velocity", nan, "1", "x"},
		{"stagnant", 0, "1", "3"},
		{"stagnant with unknown depth", 0, "x", "3"},
		{"unknown depth", 0.5, "x", "x"},
		{"sub-littoral high energy", 0.9, "1", "1"},
		{"sub-littoral low energy", 0.5, "1", "2"},
		{"littoral high energy", 0.5, "2", "1"},
		{"littoral low energy", 0.1, "2", "2"},
		{"supra-littoral uses littoral threshold", 0.3, "3", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HydrodynamicsCode(cfg, tt.vmax, tt.depth1))
		})
	}
}

func TestDepth2Code(t *testing.T) {
	cfg := defaults(t)
	mlws := -2.31

	tests := []struct {
		name      string
		sub1      string
		depth1    string
		depth     float64
		duration  float64
		frequency float64
		lowWater  *float64
		want      string
	}{
		{"hard substratum", "1", "", 0, 0, 0, nil, ""},
		{"hard substratum ignores depth", "1", "1", 20, 1, 0, nil, ""},
		{"unknown depth-1", "2", "x", 20, 1, 0, nil, "x"},
		{"empty depth-1", "x", "", 20, 1, 0, nil, "x"},
		{"very deep", "2", "1", 12, 1, 0, nil, "1"},
		{"intermediate", "2", "1", 7, 1, 0, nil, "2"},
		{"shallow", "2", "1", 3, 1, 0, nil, "3"},
		{"deep relative to low water", "2", "1", 11, 1, 0, &mlws, "2"},
		{"missing depth", "2", "1", nan, 1, 0, nil, "x"},
		{"low littoral", "2", "2", 0, 0.9, 0, nil, "1"},
		{"mid littoral", "2", "2", 0, 0.5, 0, nil, "2"},
		{"high littoral", "2", "2", 0, 0.1, 0, nil, "3"},
		{"missing duration", "2", "2", 0, nan, 0, nil, "x"},
		{"missing frequency", "2", "3", 0, 0, nan, nil, "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Depth2Code(cfg, tt.sub1, tt.depth1, tt.depth, tt.duration, tt.frequency, tt.lowWater)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDepth2Code_SupraLittoralIsMonotonic(t *testing.T) {
	cfg := defaults(t)
	f := cfg.Depth2.SupraLittoral

	frequencies := []float64{f.Frequency1 + 1, f.Frequency2 + 1, f.Frequency3 + 1, f.Frequency3}
	want := []string{"1", "2", "3", "4"}

	for i, freq := range frequencies {
		got, err := Depth2Code(cfg, "2", "3", 0, 0, freq, nil)
		require.NoError(t, err)
		assert.Equal(t, want[i], got, "frequency %g", freq)
	}
}

func TestDepth2Code_UnknownDepth1(t *testing.T) {
	_, err := Depth2Code(defaults(t), "2", "7", 0, 0, 0, nil)
	assert.ErrorIs(t, err, ErrUnknownCode)
}

func TestSubstratum2Code(t *testing.T) {
	cfg := defaults(t)

	tests := []struct {
		name  string
		sub1  string
		hydro string
		grain float64
		want  string
	}{
		{"unknown substratum", "x", "1", 100, "x"},
		{"empty substratum", "", "1", 100, "x"},
		{"hard unknown energy", "1", "x", 100, "x"},
		{"hard high energy", "1", "1", 100, "2"},
		{"hard low energy", "1", "2", 100, "1"},
		{"hard stagnant", "1", "3", 100, "1"},
		{"soft missing grain", "2", "1", nan, "x"},
		{"silt", "2", "", 20, "s"},
		{"fine sand", "2", "", 100, "f"},
		{"coarse sand", "2", "", 2000, "z"},
		{"gravel", "2", "", 3000, "g"},
		{"silt boundary", "2", "", 25, "s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Substratum2Code(cfg, tt.sub1, tt.hydro, tt.grain)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Substratum2Code(cfg, "3", "1", 100)
	assert.ErrorIs(t, err, ErrUnknownCode)
}

func TestMissingInputsIgnoreThresholds(t *testing.T) {
	cfg := sentinel(t)

	assert.Equal(t, model.Wildcard, SalinityCode(cfg, nan, 1))
	assert.Equal(t, model.Wildcard, Depth1Code(cfg, nan, nil))
	assert.Equal(t, model.Wildcard, Depth1Code(cfg, nan, &TideRange{Low: 100, High: 200}))
	assert.Equal(t, model.Wildcard, HydrodynamicsCode(cfg, nan, "1"))

	depth2, err := Depth2Code(cfg, "2", "1", nan, nan, nan, nil)
	require.NoError(t, err)
	assert.Equal(t, model.Wildcard, depth2)

	depth2, err = Depth2Code(cfg, "1", "1", nan, nan, nan, nil)
	require.NoError(t, err)
	assert.Equal(t, "", depth2)

	sub2, err := Substratum2Code(cfg, "2", "1", nan)
	require.NoError(t, err)
	assert.Equal(t, model.Wildcard, sub2)

	sub1, err := Substratum1Code("")
	require.NoError(t, err)
	assert.Equal(t, model.Wildcard, sub1)
}
