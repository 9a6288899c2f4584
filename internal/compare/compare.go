// Package compare matches predicted ecotope labels against ground truth.
package compare

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Veraticus/ecomap/internal/model"
)

var (
	// ErrNegativeLevel indicates a negative comparison level.
	ErrNegativeLevel = errors.New("comparison level must not be negative")
	// ErrComponentRange indicates a component index outside the label.
	ErrComponentRange = errors.New("component index out of range")
)

// Option configures a Comparison.
type Option func(*Comparison)

// WithWildcard sets the ground-truth wildcard symbol.
func WithWildcard(w string) Option {
	return func(c *Comparison) {
		c.wildcard = strings.ToLower(w)
	}
}

// Options select how labels are compared.
type Options struct {
	// DisableWildcard treats ground-truth wildcards as ordinary symbols.
	DisableWildcard bool
	// SpecificComponent compares only the component at index level instead of
	// the first level components.
	SpecificComponent bool
}

// Comparison holds decomposed ground-truth and predicted labels of the points
// both maps share.
type Comparison struct {
	truth     map[model.Point][]string
	predicted map[model.Point][]string
	wildcard  string
	points    []model.Point
}

// New prepares the comparison of two label maps. Points missing from either
// map are logged and left out.
func New(groundTruth, predicted model.LabelMap, opts ...Option) *Comparison {
	c := &Comparison{
		truth:     make(map[model.Point][]string),
		predicted: make(map[model.Point][]string),
		wildcard:  model.Wildcard,
	}
	for _, opt := range opts {
		opt(c)
	}

	var onlyTruth, onlyPredicted int
	for p, label := range groundTruth {
		pred, ok := predicted[p]
		if !ok {
			onlyTruth++
			continue
		}
		c.truth[p] = decompose(label)
		c.predicted[p] = decompose(pred)
		c.points = append(c.points, p)
	}
	for p := range predicted {
		if _, ok := groundTruth[p]; !ok {
			onlyPredicted++
		}
	}

	if onlyPredicted > 0 {
		slog.Warn("Not all predicted points are present in the ground truth", "points", onlyPredicted)
	}
	if onlyTruth > 0 {
		slog.Warn("Not all ground-truth points are present in the prediction", "points", onlyTruth)
	}

	sort.Slice(c.points, func(i, j int) bool {
		if c.points[i].X != c.points[j].X {
			return c.points[i].X < c.points[j].X
		}
		return c.points[i].Y < c.points[j].Y
	})

	return c
}

// Points returns the compared points, ordered by x then y.
func (c *Comparison) Points() []model.Point {
	return c.points
}

// Compare matches every shared point. A nil level compares all positions.
// Ground-truth wildcards match any predicted value unless disabled.
func (c *Comparison) Compare(level *int, opts Options) (map[model.Point]bool, error) {
	n := model.Positions
	if level != nil {
		n = *level
	}

	if opts.SpecificComponent && (n < 0 || n >= model.Positions) {
		return nil, fmt.Errorf("%w: labels have %d components, index %d given", ErrComponentRange, model.Positions, n)
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeLevel, n)
	}

	first, last := 0, min(n, model.Positions)
	if opts.SpecificComponent {
		first, last = n, n+1
	}

	result := make(map[model.Point]bool, len(c.points))
	for _, p := range c.points {
		truth, pred := c.truth[p], c.predicted[p]
		match := true
		for i := first; i < last; i++ {
			if truth[i] == pred[i] {
				continue
			}
			if !opts.DisableWildcard && truth[i] == c.wildcard {
				continue
			}
			match = false
			break
		}
		result[p] = match
	}
	return result, nil
}

// decompose splits a label into exactly model.Positions lower-case
// components. A five-component hard-substratum label gets an empty depth-2
// component; other short labels are padded at the end.
func decompose(label string) []string {
	parts := model.Components(label)
	if len(parts) == model.Positions-1 {
		parts = append(parts[:model.PosDepth2], append([]string{""}, parts[model.PosDepth2:]...)...)
	}
	for len(parts) < model.Positions {
		parts = append(parts, "")
	}
	return parts
}
