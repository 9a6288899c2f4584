// Package classify implements the six stages of the ecotope decision tree.
//
// Every stage is a pure function of its inputs and the thresholds passed in.
// A missing (NaN) input yields the wildcard code without evaluating any
// threshold.
package classify

import (
	"errors"
	"fmt"
	"math"

	"github.com/Veraticus/ecomap/internal/config"
	"github.com/Veraticus/ecomap/internal/model"
)

// Substratum-1 hints.
const (
	HintNone = ""
	HintSoft = "soft"
	HintHard = "hard"
)

var (
	// ErrInvalidSubstratum indicates a substratum-1 hint other than soft, hard or none.
	ErrInvalidSubstratum = errors.New("invalid substratum-1 hint")
	// ErrTidePairing indicates a tide range with only one of its levels given.
	ErrTidePairing = errors.New("tide references must be given as a pair")
	// ErrUnknownCode indicates a code from an earlier stage the stage cannot handle.
	ErrUnknownCode = errors.New("unknown ecotope code")
)

// TideRange holds paired tide levels [m] relative to the datum. A nil range
// selects the static depth-1 thresholds.
type TideRange struct {
	Low  float64
	High float64
}

// NewTideRange pairs optional low and high tide levels. Both absent yields a
// nil range; only one present is an error.
func NewTideRange(low, high *float64) (*TideRange, error) {
	switch {
	case low == nil && high == nil:
		return nil, nil
	case low == nil || high == nil:
		return nil, fmt.Errorf("%w: low=%s high=%s", ErrTidePairing, formatLevel(low), formatLevel(high))
	case *low >= *high:
		return nil, fmt.Errorf("%w: low water (%g) must be below high water (%g)", ErrTidePairing, *low, *high)
	}
	return &TideRange{Low: *low, High: *high}, nil
}

func formatLevel(v *float64) string {
	if v == nil {
		return "none"
	}
	return fmt.Sprintf("%g", *v)
}

// SalinityCode classifies salinity by its mean and standard deviation.
func SalinityCode(cfg *config.EcotopeConfig, mean, std float64) string {
	if math.IsNaN(mean) || math.IsNaN(std) {
		return model.Wildcard
	}

	s := cfg.Salinity
	switch {
	case s.Variable*std > mean:
		return model.SalinityVariable
	case mean < s.Fresh:
		return model.SalinityFresh
	case mean > s.Marine:
		return model.SalinityMarine
	default:
		return model.SalinityBrackish
	}
}

// Substratum1Code converts the substratum hint of the area.
func Substratum1Code(hint string) (string, error) {
	switch hint {
	case HintNone:
		return model.Wildcard, nil
	case HintSoft:
		return model.SubstratumSoft, nil
	case HintHard:
		return model.SubstratumHard, nil
	default:
		return "", fmt.Errorf("%w: %q (want %q, %q or none)", ErrInvalidSubstratum, hint, HintSoft, HintHard)
	}
}

// Depth1Code classifies the tidal zone of a mean water depth. The water level
// -depth is compared with the tide range when given, else with the static
// depth-1 thresholds.
func Depth1Code(cfg *config.EcotopeConfig, depth float64, tide *TideRange) string {
	if math.IsNaN(depth) {
		return model.Wildcard
	}

	low, high := cfg.Depth1.LowWater, cfg.Depth1.HighWater
	if tide != nil {
		low, high = tide.Low, tide.High
	}

	level := -depth
	switch {
	case level < low:
		return model.SubLittoral
	case level > high:
		return model.SupraLittoral
	default:
		return model.Littoral
	}
}

// HydrodynamicsCode classifies the flow energy from the maximum velocity.
func HydrodynamicsCode(cfg *config.EcotopeConfig, vmax float64, depth1 string) string {
	if math.IsNaN(vmax) {
		return model.Wildcard
	}

	h := cfg.Hydrodynamics
	if vmax <= h.Stagnant {
		return model.Stagnant
	}

	var threshold float64
	switch depth1 {
	case model.Wildcard, "":
		return model.Wildcard
	case model.SubLittoral:
		threshold = h.SubLittoral
	default:
		threshold = h.Littoral
	}

	if vmax > threshold {
		return model.HighEnergy
	}
	return model.LowEnergy
}

// Depth2Code refines the tidal zone. Sub-littoral depths are taken relative to
// lowWater, falling back to depth-2.sub-littoral.low-water when nil. Hard
// substratum has no depth-2 code.
func Depth2Code(cfg *config.EcotopeConfig, sub1, depth1 string, depth, duration, frequency float64, lowWater *float64) (string, error) {
	if sub1 == model.SubstratumHard {
		return "", nil
	}

	d := cfg.Depth2
	switch depth1 {
	case model.Wildcard, "":
		return model.Wildcard, nil

	case model.SubLittoral:
		if math.IsNaN(depth) {
			return model.Wildcard, nil
		}
		reference := d.SubLittoral.LowWater
		if lowWater != nil {
			reference = *lowWater
		}
		relative := depth + reference
		switch {
		case relative > d.SubLittoral.DepthDeep:
			return "1", nil
		case relative < d.SubLittoral.DepthShallow:
			return "3", nil
		default:
			return "2", nil
		}

	case model.Littoral:
		if math.IsNaN(duration) {
			return model.Wildcard, nil
		}
		switch {
		case duration > d.Littoral.InundationUpper:
			return "1", nil
		case duration < d.Littoral.InundationLower:
			return "3", nil
		default:
			return "2", nil
		}

	case model.SupraLittoral:
		if math.IsNaN(frequency) {
			return model.Wildcard, nil
		}
		f := d.SupraLittoral
		switch {
		case frequency > f.Frequency1:
			return "1", nil
		case frequency > f.Frequency2:
			return "2", nil
		case frequency > f.Frequency3:
			return "3", nil
		default:
			return "4", nil
		}
	}

	return "", fmt.Errorf("%w: depth-1 %q", ErrUnknownCode, depth1)
}

// Substratum2Code refines the substratum: by flow energy on hard substratum,
// by grain size [µm] on soft substratum.
func Substratum2Code(cfg *config.EcotopeConfig, sub1, hydro string, grainSize float64) (string, error) {
	switch sub1 {
	case model.Wildcard, "":
		return model.Wildcard, nil

	case model.SubstratumHard:
		switch hydro {
		case model.Wildcard, "":
			return model.Wildcard, nil
		case model.HighEnergy:
			return "2", nil
		default:
			return "1", nil
		}

	case model.SubstratumSoft:
		if math.IsNaN(grainSize) {
			return model.Wildcard, nil
		}
		s := cfg.Substratum2.Soft
		switch {
		case grainSize <= s.Silt:
			return model.Silt, nil
		case grainSize <= s.Fines:
			return model.FineSand, nil
		case grainSize <= s.Sand:
			return model.CoarseSand, nil
		default:
			return model.Gravel, nil
		}
	}

	return "", fmt.Errorf("%w: substratum-1 %q", ErrUnknownCode, sub1)
}
