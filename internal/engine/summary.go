package engine

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// RunSummary contains statistics about a mapping run.
type RunSummary struct {
	CodeCounts              map[string]int
	ExportPath              string
	Partitions              int
	Points                  int
	UniqueCodes             int
	WildcardPoints          int
	NegativeDepthPartitions int
	ProcessingTime          time.Duration
}

// CodeCount is the number of points labelled with a code.
type CodeCount struct {
	Code   string `json:"code"`
	Points int    `json:"points"`
}

// TopCodes returns the n most frequent codes, most frequent first. Ties are
// ordered by code.
func (s *RunSummary) TopCodes(n int) []CodeCount {
	counts := make([]CodeCount, 0, len(s.CodeCounts))
	for code, points := range s.CodeCounts {
		counts = append(counts, CodeCount{Code: code, Points: points})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Points != counts[j].Points {
			return counts[i].Points > counts[j].Points
		}
		return counts[i].Code < counts[j].Code
	})
	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

// GetDisplay returns a JSON representation of the summary.
func (s *RunSummary) GetDisplay() string {
	if s.Points == 0 {
		return `{"message":"No grid points mapped"}`
	}

	wildcardPercent := float64(s.WildcardPoints) / float64(s.Points) * 100

	type summaryJSON struct {
		ProcessingTime          string      `json:"processing_time"`
		ExportPath              string      `json:"export_path,omitempty"`
		TopCodes                []CodeCount `json:"top_codes"`
		Partitions              int         `json:"partitions"`
		Points                  int         `json:"points"`
		UniqueCodes             int         `json:"unique_codes"`
		WildcardPoints          int         `json:"wildcard_points"`
		WildcardPercent         float64     `json:"wildcard_percent"`
		NegativeDepthPartitions int         `json:"negative_depth_partitions"`
	}

	data := summaryJSON{
		Partitions:              s.Partitions,
		Points:                  s.Points,
		UniqueCodes:             s.UniqueCodes,
		WildcardPoints:          s.WildcardPoints,
		WildcardPercent:         wildcardPercent,
		NegativeDepthPartitions: s.NegativeDepthPartitions,
		TopCodes:                s.TopCodes(5),
		ExportPath:              s.ExportPath,
		ProcessingTime:          s.ProcessingTime.Round(time.Millisecond).String(),
	}

	bytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Sprintf(`{"error":"Failed to marshal summary: %v"}`, err)
	}

	return string(bytes)
}
