// Package polygon rasterizes ground-truth ecotope polygons onto grid points.
package polygon

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/ecomap/internal/config"
	"github.com/Veraticus/ecomap/internal/model"
)

// Feature properties.
const (
	DefaultLabelProperty = "zes_code"
	UnclassifiedValue    = "overig"
)

// Options configures rasterization.
type Options struct {
	LabelProperty string
	Workers       int
	// QuickCheck skips features whose bounding boxes contain no grid point.
	QuickCheck bool
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		LabelProperty: DefaultLabelProperty,
		Workers:       1,
	}
}

// ReadFile reads a GeoJSON feature collection.
func ReadFile(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(config.ExpandPath(path)) //nolint:gosec // polygon files come from the user
	if err != nil {
		return nil, fmt.Errorf("failed to read polygons: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse polygons %s: %w", path, err)
	}
	return fc, nil
}

// Rasterize labels every grid point inside a feature with the feature's
// label. A point is inside when an odd number of the feature's rings contain
// it. Where features overlap the later feature wins. Labels are returned in
// grid order.
func Rasterize(ctx context.Context, fc *geojson.FeatureCollection, grid []model.Point, opts Options) (model.Labels, error) {
	if opts.LabelProperty == "" {
		opts.LabelProperty = DefaultLabelProperty
	}

	features := fc.Features
	inside := make([][]int, len(features))
	codes := make([]string, len(features))

	workers := max(1, min(opts.Workers, len(features)))
	slog.Debug("Rasterizing polygons", "features", len(features), "points", len(grid), "workers", workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, f := range features {
		i, f := i, f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			code, err := featureLabel(f, opts.LabelProperty)
			if err != nil {
				return fmt.Errorf("feature %d: %w", i, err)
			}
			rings := featureRings(f.Geometry)
			if len(rings) == 0 {
				slog.Warn("Feature without polygon geometry skipped", "feature", i, "type", geometryType(f.Geometry))
				return nil
			}
			if opts.QuickCheck && !anyInBounds(rings, grid) {
				return nil
			}
			codes[i] = code
			inside[i] = pointsInRings(rings, grid)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	assigned := make([]string, len(grid))
	for i, idx := range inside {
		for _, p := range idx {
			assigned[p] = codes[i]
		}
	}

	labels := make(model.Labels, 0, len(grid))
	for p, code := range assigned {
		if code != "" {
			labels = append(labels, model.Label{Point: grid[p], Code: code})
		}
	}
	return labels, nil
}

func featureLabel(f *geojson.Feature, property string) (string, error) {
	value, ok := f.Properties[property]
	if !ok {
		return "", fmt.Errorf("missing label property %q", property)
	}
	label, ok := value.(string)
	if !ok || label == "" {
		return "", fmt.Errorf("label property %q is not a non-empty string", property)
	}
	if label == UnclassifiedValue {
		return model.UnclassifiedLabel, nil
	}
	return label, nil
}

// featureRings flattens all rings of a polygon or multipolygon.
func featureRings(geom orb.Geometry) []orb.Ring {
	switch g := geom.(type) {
	case orb.Polygon:
		return g
	case orb.MultiPolygon:
		var rings []orb.Ring
		for _, p := range g {
			rings = append(rings, p...)
		}
		return rings
	case orb.Ring:
		return []orb.Ring{g}
	default:
		return nil
	}
}

func geometryType(geom orb.Geometry) string {
	if geom == nil {
		return "none"
	}
	return geom.GeoJSONType()
}

func anyInBounds(rings []orb.Ring, grid []model.Point) bool {
	for _, r := range rings {
		b := r.Bound()
		for _, p := range grid {
			if b.Contains(orb.Point{p.X, p.Y}) {
				return true
			}
		}
	}
	return false
}

// pointsInRings returns the indices of the grid points inside an odd number
// of rings.
func pointsInRings(rings []orb.Ring, grid []model.Point) []int {
	bounds := make([]orb.Bound, len(rings))
	for i, r := range rings {
		bounds[i] = r.Bound()
	}

	var idx []int
	for p, gp := range grid {
		pt := orb.Point{gp.X, gp.Y}
		in := false
		for i, r := range rings {
			if bounds[i].Contains(pt) && planar.RingContains(r, pt) {
				in = !in
			}
		}
		if in {
			idx = append(idx, p)
		}
	}
	return idx
}
