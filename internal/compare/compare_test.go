package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ecomap/internal/model"
)

var (
	labels1 = model.LabelMap{
		{X: 0, Y: 0}: "Z2.222f",
		{X: 0, Y: 1}: "Z2.222f",
		{X: 1, Y: 0}: "Z2.222s",
		{X: 1, Y: 1}: "Z2.221s",
	}
	labels2 = model.LabelMap{
		{X: 0, Y: 0}: "Z2.222f",
		{X: 0, Y: 1}: "Z2.222f",
		{X: 1, Y: 0}: "Z2.221s",
		{X: 1, Y: 1}: "Z2.221s",
	}
	labels3 = model.LabelMap{
		{X: 0, Y: 0}: "Z2.222f",
		{X: 0, Y: 1}: "Z2.222f",
		{X: 1, Y: 0}: "Z2.22xs",
		{X: 1, Y: 1}: "Z2.221s",
	}
)

func intPtr(v int) *int {
	return &v
}

func counts(t *testing.T, result map[model.Point]bool) [2]int {
	t.Helper()
	s := Summarize(result)
	return [2]int{s.Matches, s.Mismatches}
}

func TestCompare_Matches(t *testing.T) {
	tests := []struct {
		name        string
		truth, pred model.LabelMap
		want        [2]int
	}{
		{"identical 1", labels1, labels1, [2]int{4, 0}},
		{"identical 2", labels2, labels2, [2]int{4, 0}},
		{"identical 3", labels3, labels3, [2]int{4, 0}},
		{"1 vs 2", labels1, labels2, [2]int{3, 1}},
		{"1 vs 3", labels1, labels3, [2]int{3, 1}},
		{"2 vs 3", labels2, labels3, [2]int{3, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := New(tt.truth, tt.pred).Compare(nil, Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, counts(t, result))
		})
	}
}

func TestCompare_Wildcard(t *testing.T) {
	tests := []struct {
		name     string
		pred     model.LabelMap
		disabled bool
		want     [2]int
	}{
		{"enabled against 1", labels1, false, [2]int{4, 0}},
		{"enabled against 2", labels2, false, [2]int{4, 0}},
		{"disabled against 1", labels1, true, [2]int{3, 1}},
		{"disabled against 2", labels2, true, [2]int{3, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := New(labels3, tt.pred).Compare(nil, Options{DisableWildcard: tt.disabled})
			require.NoError(t, err)
			assert.Equal(t, tt.want, counts(t, result))
		})
	}
}

func TestCompare_PredictedWildcardIsNotAbsorbed(t *testing.T) {
	result, err := New(labels1, labels3).Compare(nil, Options{})
	require.NoError(t, err)
	assert.False(t, result[model.Point{X: 1, Y: 0}])
}

func TestCompare_CustomWildcard(t *testing.T) {
	truth := model.LabelMap{{X: 0, Y: 0}: "Z2.22?f"}
	pred := model.LabelMap{{X: 0, Y: 0}: "Z2.221f"}

	result, err := New(truth, pred, WithWildcard("?")).Compare(nil, Options{})
	require.NoError(t, err)
	assert.True(t, result[model.Point{X: 0, Y: 0}])

	result, err = New(truth, pred).Compare(nil, Options{})
	require.NoError(t, err)
	assert.False(t, result[model.Point{X: 0, Y: 0}])
}

func TestCompare_PrefixLevel(t *testing.T) {
	tests := []struct {
		level int
		want  [2]int
	}{
		{7, [2]int{3, 1}},
		{6, [2]int{3, 1}},
		{5, [2]int{3, 1}},
		{4, [2]int{4, 0}},
		{3, [2]int{4, 0}},
		{2, [2]int{4, 0}},
		{1, [2]int{4, 0}},
		{0, [2]int{4, 0}},
	}

	c := New(labels1, labels2)
	for _, tt := range tests {
		result, err := c.Compare(intPtr(tt.level), Options{})
		require.NoError(t, err)
		assert.Equal(t, tt.want, counts(t, result), "level %d", tt.level)
	}
}

func TestCompare_SpecificComponent(t *testing.T) {
	tests := []struct {
		index int
		want  [2]int
	}{
		{0, [2]int{4, 0}},
		{1, [2]int{4, 0}},
		{2, [2]int{4, 0}},
		{3, [2]int{4, 0}},
		{4, [2]int{3, 1}},
		{5, [2]int{4, 0}},
	}

	c := New(labels1, labels2)
	for _, tt := range tests {
		result, err := c.Compare(intPtr(tt.index), Options{SpecificComponent: true})
		require.NoError(t, err)
		assert.Equal(t, tt.want, counts(t, result), "index %d", tt.index)
	}
}

func TestCompare_Errors(t *testing.T) {
	_, err := New(labels1, labels1).Compare(intPtr(-1), Options{})
	assert.ErrorIs(t, err, ErrNegativeLevel)

	_, err = New(labels1, labels2).Compare(intPtr(6), Options{SpecificComponent: true})
	assert.ErrorIs(t, err, ErrComponentRange)

	_, err = New(labels1, labels2).Compare(intPtr(-1), Options{SpecificComponent: true})
	assert.ErrorIs(t, err, ErrComponentRange)
}

func TestCompare_HardSubstratumLabels(t *testing.T) {
	truth := model.LabelMap{
		{X: 0, Y: 0}: "B1.212",
		{X: 1, Y: 0}: "B1.212",
	}
	pred := model.LabelMap{
		{X: 0, Y: 0}: "b1.212",
		{X: 1, Y: 0}: "B1.211",
	}

	c := New(truth, pred)
	result, err := c.Compare(nil, Options{})
	require.NoError(t, err)
	assert.True(t, result[model.Point{X: 0, Y: 0}])
	assert.False(t, result[model.Point{X: 1, Y: 0}])

	// the substratum-2 code sits at index 5 despite the missing depth-2 code
	result, err = c.Compare(intPtr(model.PosSubstratum2), Options{SpecificComponent: true})
	require.NoError(t, err)
	assert.Equal(t, [2]int{1, 1}, counts(t, result))

	result, err = c.Compare(intPtr(model.PosDepth2), Options{SpecificComponent: true})
	require.NoError(t, err)
	assert.Equal(t, [2]int{2, 0}, counts(t, result))
}

func TestNew_IntersectsKeys(t *testing.T) {
	truth := model.LabelMap{
		{X: 0, Y: 0}: "Z2.222f",
		{X: 5, Y: 5}: "Z2.222f",
	}
	pred := model.LabelMap{
		{X: 0, Y: 0}: "Z2.222f",
		{X: 9, Y: 9}: "Z2.222f",
	}

	c := New(truth, pred)
	assert.Equal(t, []model.Point{{X: 0, Y: 0}}, c.Points())

	result, err := c.Compare(nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, map[model.Point]bool{{X: 0, Y: 0}: true}, result)
}

func TestReport(t *testing.T) {
	c := New(labels1, labels2)

	reports, err := c.Report(nil, Options{})
	require.NoError(t, err)
	require.Len(t, reports, model.Positions)
	assert.Equal(t, 1, reports[0].Level)
	assert.Equal(t, 4, reports[3].Matches)
	assert.Equal(t, 1, reports[4].Mismatches)
	assert.InDelta(t, 0.75, reports[5].Accuracy, 1e-12)

	reports, err = c.Report(nil, Options{SpecificComponent: true})
	require.NoError(t, err)
	assert.Equal(t, 0, reports[0].Level)
	assert.Equal(t, 1, reports[4].Mismatches)

	_, err = c.Report([]int{-2}, Options{})
	assert.ErrorIs(t, err, ErrNegativeLevel)

	assert.Equal(t, Summary{}, Summarize(nil))
}
