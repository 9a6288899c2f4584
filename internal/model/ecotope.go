// Package model defines the core domain models used throughout the application.
package model

import (
	"fmt"
	"strings"
)

const (
	// Wildcard marks a code position that is unknown or was not evaluated.
	Wildcard = "x"
	// Separator sits between the substratum-1 and depth-1 positions of a label.
	Separator = "."
	// UnclassifiedLabel is the ground-truth label of areas without an ecotope.
	UnclassifiedLabel = "xx.xxx"
)

// Positions is the number of comparable code positions of a label once the
// separator is removed. A hard-substratum label carries an empty depth-2 code and
// therefore only five characters.
const Positions = 6

// Code position indices.
const (
	PosSalinity = iota
	PosSubstratum1
	PosDepth1
	PosHydrodynamics
	PosDepth2
	PosSubstratum2
)

// Salinity codes.
const (
	SalinityVariable = "v"
	SalinityFresh    = "f"
	SalinityMarine   = "z"
	SalinityBrackish = "b"
)

// Substratum-1 codes.
const (
	SubstratumHard = "1"
	SubstratumSoft = "2"
)

// Depth-1 codes.
const (
	SubLittoral   = "1"
	Littoral      = "2"
	SupraLittoral = "3"
)

// Hydrodynamics codes.
const (
	HighEnergy = "1"
	LowEnergy  = "2"
	Stagnant   = "3"
)

// Substratum-2 codes for soft substratum.
const (
	Silt       = "s"
	FineSand   = "f"
	CoarseSand = "z"
	Gravel     = "g"
)

// EcotopeCode is the six-stage classification of a single grid point.
type EcotopeCode struct {
	Salinity      string
	Substratum1   string
	Depth1        string
	Hydrodynamics string
	Depth2        string
	Substratum2   string
}

// String renders the code in its canonical notation, e.g. "Z2.222f".
func (c EcotopeCode) String() string {
	return strings.ToUpper(c.Salinity) + c.Substratum1 + Separator +
		c.Depth1 + c.Hydrodynamics + c.Depth2 + c.Substratum2
}

// IsWildcard reports whether any position of the code is unknown.
func (c EcotopeCode) IsWildcard() bool {
	for _, part := range []string{c.Salinity, c.Substratum1, c.Depth1, c.Hydrodynamics, c.Depth2, c.Substratum2} {
		if part == Wildcard {
			return true
		}
	}
	return false
}

// ParseCode decomposes a canonical label into its components.
// The depth-2 position is left empty for five-character hard-substratum labels.
func ParseCode(label string) (EcotopeCode, error) {
	parts := Components(label)
	switch len(parts) {
	case Positions:
	case Positions - 1:
		parts = append(parts[:PosDepth2], append([]string{""}, parts[PosDepth2:]...)...)
	default:
		return EcotopeCode{}, fmt.Errorf("invalid ecotope label %q: expected %d or %d components, got %d",
			label, Positions-1, Positions, len(parts))
	}

	return EcotopeCode{
		Salinity:      parts[PosSalinity],
		Substratum1:   parts[PosSubstratum1],
		Depth1:        parts[PosDepth1],
		Hydrodynamics: parts[PosHydrodynamics],
		Depth2:        parts[PosDepth2],
		Substratum2:   parts[PosSubstratum2],
	}, nil
}

// Components splits a label into lower-case single-character components,
// dropping the separator.
func Components(label string) []string {
	label = strings.ToLower(strings.TrimSpace(label))
	parts := make([]string, 0, len(label))
	for _, r := range label {
		if string(r) == Separator {
			continue
		}
		parts = append(parts, string(r))
	}
	return parts
}
