package compare

import "github.com/Veraticus/ecomap/internal/model"

// Summary counts the outcome of a comparison.
type Summary struct {
	Matches    int     `json:"matches"`
	Mismatches int     `json:"mismatches"`
	Accuracy   float64 `json:"accuracy"`
}

// Summarize counts matches and mismatches.
func Summarize(result map[model.Point]bool) Summary {
	var s Summary
	for _, ok := range result {
		if ok {
			s.Matches++
		} else {
			s.Mismatches++
		}
	}
	if total := s.Matches + s.Mismatches; total > 0 {
		s.Accuracy = float64(s.Matches) / float64(total)
	}
	return s
}

// LevelReport is the summary at one comparison level.
type LevelReport struct {
	Summary
	Level int `json:"level"`
}

// Report compares at every level given, or at prefix levels 1 through
// model.Positions when levels is empty.
func (c *Comparison) Report(levels []int, opts Options) ([]LevelReport, error) {
	if len(levels) == 0 {
		levels = make([]int, model.Positions)
		for i := range levels {
			levels[i] = i + 1
			if opts.SpecificComponent {
				levels[i] = i
			}
		}
	}

	reports := make([]LevelReport, 0, len(levels))
	for _, level := range levels {
		result, err := c.Compare(&level, opts)
		if err != nil {
			return nil, err
		}
		reports = append(reports, LevelReport{Level: level, Summary: Summarize(result)})
	}
	return reports, nil
}
