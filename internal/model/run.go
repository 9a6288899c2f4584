package model

import "time"

// Run describes a completed ecotope mapping run.
type Run struct {
	StartedAt      time.Time
	ID             string
	EcotopeConfig  string
	Substratum     string
	Partitions     []string
	Points         int
	UniqueCodes    int
	WildcardPoints int
	Duration       time.Duration
}
