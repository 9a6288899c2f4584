package reduce

import "math"

// CalibratedFriction is the friction coefficient calibrated for the default
// ecotope thresholds on soft substratum.
const CalibratedFriction = 1300.0

// GrainParams parameterise the grain-size estimate.
type GrainParams struct {
	Shields         float64
	Chezy           float64 // m^0.5/s
	RelativeDensity float64
	// Friction bypasses the physical formula when set.
	Friction *float64
}

// DefaultGrainParams returns the physical defaults without a friction override.
func DefaultGrainParams() GrainParams {
	return GrainParams{
		Shields:         0.07,
		Chezy:           50,
		RelativeDensity: 1.58,
	}
}

// FrictionCoefficient returns the override, or 1e6/(shields*Δ*C²).
func (g GrainParams) FrictionCoefficient() float64 {
	if g.Friction != nil {
		return *g.Friction
	}
	return 1e6 / (g.Shields * g.RelativeDensity * g.Chezy * g.Chezy)
}

// GrainSize estimates the critical grain size [µm] for incipient motion at the
// given median flow velocities.
func GrainSize(median []float64, g GrainParams) []float64 {
	friction := g.FrictionCoefficient()
	out := make([]float64, len(median))
	for i, u := range median {
		if math.IsNaN(u) {
			out[i] = math.NaN()
			continue
		}
		out[i] = friction * u * u
	}
	return out
}
