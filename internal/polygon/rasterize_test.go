package polygon

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ecomap/internal/model"
)

// Two features: a square with a hole labelled Z2.222f and a small square
// labelled "overig" inside the hole.
const testPolygons = `{
  "type": "FeatureCollection",
  "totalFeatures": 2,
  "features": [
    {
      "type": "Feature",
      "properties": {"zes_code": "Z2.222f"},
      "geometry": {
        "type": "Polygon",
        "coordinates": [
          [[0, 0], [10, 0], [10, 10], [0, 10], [0, 0]],
          [[4, 4], [6, 4], [6, 6], [4, 6], [4, 4]]
        ]
      }
    },
    {
      "type": "Feature",
      "properties": {"zes_code": "overig"},
      "geometry": {
        "type": "MultiPolygon",
        "coordinates": [
          [[[4.5, 4.5], [5.5, 4.5], [5.5, 5.5], [4.5, 5.5], [4.5, 4.5]]]
        ]
      }
    }
  ]
}`

func writePolygons(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "polygons.geojson")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func testGrid() []model.Point {
	return []model.Point{
		{X: 1, Y: 1},     // in the outer ring only
		{X: 4.2, Y: 4.2}, // in the hole
		{X: 5, Y: 5},     // in the hole and in the second feature
		{X: 20, Y: 20},   // outside
		{X: 9, Y: 2},     // in the outer ring only
	}
}

func TestRasterize(t *testing.T) {
	fc, err := ReadFile(writePolygons(t, testPolygons))
	require.NoError(t, err)

	for _, workers := range []int{1, 4} {
		for _, quick := range []bool{false, true} {
			opts := DefaultOptions()
			opts.Workers = workers
			opts.QuickCheck = quick

			labels, err := Rasterize(context.Background(), fc, testGrid(), opts)
			require.NoError(t, err)
			assert.Equal(t, model.Labels{
				{Point: model.Point{X: 1, Y: 1}, Code: "Z2.222f"},
				{Point: model.Point{X: 5, Y: 5}, Code: model.UnclassifiedLabel},
				{Point: model.Point{X: 9, Y: 2}, Code: "Z2.222f"},
			}, labels, "workers=%d quick=%v", workers, quick)
		}
	}
}

func TestRasterize_QuickCheckSkipsDistantFeatures(t *testing.T) {
	fc, err := ReadFile(writePolygons(t, testPolygons))
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.QuickCheck = true
	labels, err := Rasterize(context.Background(), fc, []model.Point{{X: 50, Y: 50}}, opts)
	require.NoError(t, err)
	assert.Empty(t, labels)
}

func TestRasterize_MissingLabel(t *testing.T) {
	content := `{"type": "FeatureCollection", "features": [
	  {"type": "Feature", "properties": {"name": "dune"},
	   "geometry": {"type": "Polygon", "coordinates": [[[0, 0], [1, 0], [1, 1], [0, 0]]]}}
	]}`
	fc, err := ReadFile(writePolygons(t, content))
	require.NoError(t, err)

	_, err = Rasterize(context.Background(), fc, testGrid(), DefaultOptions())
	assert.ErrorContains(t, err, "zes_code")

	opts := DefaultOptions()
	opts.LabelProperty = "name"
	labels, err := Rasterize(context.Background(), fc, []model.Point{{X: 0.8, Y: 0.2}}, opts)
	require.NoError(t, err)
	assert.Equal(t, model.Labels{{Point: model.Point{X: 0.8, Y: 0.2}, Code: "dune"}}, labels)
}

func TestReadFile_Errors(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.geojson"))
	assert.Error(t, err)

	_, err = ReadFile(writePolygons(t, "not json"))
	assert.Error(t, err)
}
