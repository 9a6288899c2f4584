package classify

import (
	"fmt"

	"github.com/Veraticus/ecomap/internal/config"
	"github.com/Veraticus/ecomap/internal/model"
)

// Params are the run-wide inputs of the decision tree that do not come from
// the grid statistics.
type Params struct {
	Substratum1 string     // hint: "", "soft" or "hard"
	Tide        *TideRange // dynamic depth-1 thresholds
	LowWater    *float64   // sub-littoral depth-2 reference level
}

// Classifier runs the decision tree with a fixed configuration. It holds no
// mutable state and is safe for concurrent use.
type Classifier struct {
	cfg         *config.EcotopeConfig
	params      Params
	substratum1 string
}

// New validates the run parameters and returns a classifier.
func New(cfg *config.EcotopeConfig, params Params) (*Classifier, error) {
	if cfg == nil {
		return nil, fmt.Errorf("classifier requires an ecotope configuration")
	}
	sub1, err := Substratum1Code(params.Substratum1)
	if err != nil {
		return nil, err
	}
	return &Classifier{cfg: cfg, params: params, substratum1: sub1}, nil
}

// Classify runs the stages in dependency order on one point.
func (c *Classifier) Classify(s model.Statistics) (model.EcotopeCode, error) {
	code := model.EcotopeCode{
		Salinity:    SalinityCode(c.cfg, s.SalinityMean, s.SalinityStd),
		Substratum1: c.substratum1,
		Depth1:      Depth1Code(c.cfg, s.DepthMean, c.params.Tide),
	}
	code.Hydrodynamics = HydrodynamicsCode(c.cfg, s.VelocityMax, code.Depth1)

	var err error
	code.Depth2, err = Depth2Code(c.cfg, code.Substratum1, code.Depth1,
		s.DepthMean, s.InundationDuration, s.FloodFrequency, c.params.LowWater)
	if err != nil {
		return model.EcotopeCode{}, err
	}

	code.Substratum2, err = Substratum2Code(c.cfg, code.Substratum1, code.Hydrodynamics, s.GrainSize)
	if err != nil {
		return model.EcotopeCode{}, err
	}

	return code, nil
}

// ClassifyAll classifies every point and returns the canonical labels in the
// same order.
func (c *Classifier) ClassifyAll(stats []model.Statistics) ([]string, error) {
	labels := make([]string, len(stats))
	for i, s := range stats {
		code, err := c.Classify(s)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		labels[i] = code.String()
	}
	return labels, nil
}
