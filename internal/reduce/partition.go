package reduce

import (
	"fmt"

	"github.com/Veraticus/ecomap/internal/common"
	"github.com/Veraticus/ecomap/internal/model"
)

// Reduction is the result of reducing one partition.
type Reduction struct {
	Statistics   []model.Statistics
	NegativeMean bool
}

// Reduce assembles the per-point statistics of a partition. The partition's
// own grain sizes take precedence over the estimate from flow velocity.
func Reduce(p *model.Partition, grain GrainParams) (*Reduction, error) {
	if err := checkShape(p); err != nil {
		return nil, err
	}

	salMean, salStd := Salinity(p.Salinity)
	depth := WaterDepth(p.WaterDepth)
	velMedian, velMax := Velocity(p.Velocity)

	grainSize := p.GrainSize
	if grainSize == nil {
		grainSize = GrainSize(velMedian, grain)
	}

	stats := make([]model.Statistics, p.Len())
	for i := range stats {
		stats[i] = model.Statistics{
			SalinityMean:       salMean[i],
			SalinityStd:        salStd[i],
			DepthMean:          depth.Mean[i],
			InundationDuration: depth.Duration[i],
			FloodFrequency:     depth.Frequency[i],
			VelocityMedian:     velMedian[i],
			VelocityMax:        velMax[i],
			GrainSize:          grainSize[i],
		}
	}

	return &Reduction{Statistics: stats, NegativeMean: depth.NegativeMean}, nil
}

func checkShape(p *model.Partition) error {
	n := p.Len()
	if len(p.Y) != n {
		return fmt.Errorf("%w: partition %s has %d x and %d y coordinates", common.ErrShape, p.ID, n, len(p.Y))
	}
	if p.GrainSize != nil && len(p.GrainSize) != n {
		return fmt.Errorf("%w: partition %s has %d grain sizes for %d points", common.ErrShape, p.ID, len(p.GrainSize), n)
	}

	series := []struct {
		name string
		ts   model.TimeSeries
	}{
		{"water depth", p.WaterDepth},
		{"velocity", p.Velocity},
		{"salinity", p.Salinity},
	}
	for _, s := range series {
		if s.ts.TimeAxis != 0 && s.ts.TimeAxis != 1 {
			return fmt.Errorf("%w: %s has time axis %d", common.ErrShape, s.name, s.ts.TimeAxis)
		}
		if s.ts.Points() != n {
			return fmt.Errorf("%w: partition %s has %d %s points for %d coordinates",
				common.ErrShape, p.ID, s.ts.Points(), s.name, n)
		}
		steps := s.ts.Steps()
		for i, row := range s.ts.Data {
			want := n
			if s.ts.TimeAxis != 0 {
				want = steps
			}
			if len(row) != want {
				return fmt.Errorf("%w: %s row %d has %d values, want %d", common.ErrShape, s.name, i, len(row), want)
			}
		}
	}
	return nil
}
