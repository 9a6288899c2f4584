package config

import (
	"fmt"

	"github.com/Veraticus/ecomap/internal/common"
)

// Built-in configuration names.
const (
	DefaultEcotopeConfig = "emma"
	ZES1EcotopeConfig    = "zes1"
	DefaultMapConfig     = "dfm2d"
	LegacyMapConfig      = "dfm1"
)

// Tide references usable by the depth-1 classification.
const (
	ReferenceLAT  = "lat"
	ReferenceMLWS = "mlws"
)

// EcotopeConfig holds the thresholds of the ecotope decision tree.
type EcotopeConfig struct {
	Name          string                  `mapstructure:"-" toml:"-"`
	Depth1        Depth1Thresholds        `mapstructure:"depth-1" toml:"depth-1"`
	Substratum2   Substratum2Thresholds   `mapstructure:"substratum-2" toml:"substratum-2"`
	Salinity      SalinityThresholds      `mapstructure:"salinity" toml:"salinity"`
	Hydrodynamics HydrodynamicsThresholds `mapstructure:"hydrodynamics" toml:"hydrodynamics"`
	Depth2        Depth2Thresholds        `mapstructure:"depth-2" toml:"depth-2"`
}

// SalinityThresholds classify the mean salinity [psu].
type SalinityThresholds struct {
	Variable float64 `mapstructure:"variable" toml:"variable"`
	Fresh    float64 `mapstructure:"fresh" toml:"fresh"`
	Marine   float64 `mapstructure:"marine" toml:"marine"`
}

// Depth1Thresholds are water levels [m] relative to the datum.
type Depth1Thresholds struct {
	Reference string  `mapstructure:"reference" toml:"reference"`
	LowWater  float64 `mapstructure:"low-water" toml:"low-water"`
	HighWater float64 `mapstructure:"high-water" toml:"high-water"`
}

// HydrodynamicsThresholds classify the maximum flow velocity [m/s].
type HydrodynamicsThresholds struct {
	Stagnant    float64 `mapstructure:"stagnant" toml:"stagnant"`
	SubLittoral float64 `mapstructure:"sub-littoral" toml:"sub-littoral"`
	Littoral    float64 `mapstructure:"littoral" toml:"littoral"`
}

// Depth2Thresholds refine the depth-1 zones.
type Depth2Thresholds struct {
	SubLittoral   SubLittoralThresholds   `mapstructure:"sub-littoral" toml:"sub-littoral"`
	Littoral      LittoralThresholds      `mapstructure:"littoral" toml:"littoral"`
	SupraLittoral SupraLittoralThresholds `mapstructure:"supra-littoral" toml:"supra-littoral"`
}

// SubLittoralThresholds are water depths [m]. LowWater shifts the depth to a
// low-water reference level when no MLWS is supplied.
type SubLittoralThresholds struct {
	DepthDeep    float64 `mapstructure:"depth-deep" toml:"depth-deep"`
	DepthShallow float64 `mapstructure:"depth-shallow" toml:"depth-shallow"`
	LowWater     float64 `mapstructure:"low-water" toml:"low-water"`
}

// LittoralThresholds are inundation durations as a fraction of time.
type LittoralThresholds struct {
	InundationUpper float64 `mapstructure:"inundation-upper" toml:"inundation-upper"`
	InundationLower float64 `mapstructure:"inundation-lower" toml:"inundation-lower"`
}

// SupraLittoralThresholds are flood frequencies in descending order.
type SupraLittoralThresholds struct {
	Frequency1 float64 `mapstructure:"frequency-1" toml:"frequency-1"`
	Frequency2 float64 `mapstructure:"frequency-2" toml:"frequency-2"`
	Frequency3 float64 `mapstructure:"frequency-3" toml:"frequency-3"`
}

// Substratum2Thresholds classify grain sizes.
type Substratum2Thresholds struct {
	Soft SoftThresholds `mapstructure:"soft" toml:"soft"`
}

// SoftThresholds are grain sizes [µm] in ascending order.
type SoftThresholds struct {
	Silt  float64 `mapstructure:"silt" toml:"silt"`
	Fines float64 `mapstructure:"fines" toml:"fines"`
	Sand  float64 `mapstructure:"sand" toml:"sand"`
}

// IsDefault reports whether the thresholds are the unmodified built-in defaults,
// the only configuration the calibrated friction coefficient is valid for.
func (c *EcotopeConfig) IsDefault() bool {
	return c.Name == DefaultEcotopeConfig
}

// Validate checks that the thresholds are internally consistent.
func (c *EcotopeConfig) Validate() error {
	switch {
	case c.Salinity.Fresh >= c.Salinity.Marine:
		return fmt.Errorf("%w: salinity.fresh (%g) must be below salinity.marine (%g)",
			common.ErrInvalidConfig, c.Salinity.Fresh, c.Salinity.Marine)
	case c.Depth1.LowWater >= c.Depth1.HighWater:
		return fmt.Errorf("%w: depth-1.low-water (%g) must be below depth-1.high-water (%g)",
			common.ErrInvalidConfig, c.Depth1.LowWater, c.Depth1.HighWater)
	case c.Depth1.Reference != ReferenceLAT && c.Depth1.Reference != ReferenceMLWS:
		return fmt.Errorf("%w: depth-1.reference must be %q or %q, got %q",
			common.ErrInvalidConfig, ReferenceLAT, ReferenceMLWS, c.Depth1.Reference)
	case c.Depth2.SubLittoral.DepthDeep <= c.Depth2.SubLittoral.DepthShallow:
		return fmt.Errorf("%w: depth-2.sub-littoral.depth-deep must exceed depth-shallow", common.ErrInvalidConfig)
	case c.Depth2.Littoral.InundationUpper <= c.Depth2.Littoral.InundationLower:
		return fmt.Errorf("%w: depth-2.littoral.inundation-upper must exceed inundation-lower", common.ErrInvalidConfig)
	}

	f := c.Depth2.SupraLittoral
	if f.Frequency1 <= f.Frequency2 || f.Frequency2 <= f.Frequency3 {
		return fmt.Errorf("%w: depth-2.supra-littoral frequencies must be strictly descending (%g, %g, %g)",
			common.ErrInvalidConfig, f.Frequency1, f.Frequency2, f.Frequency3)
	}

	s := c.Substratum2.Soft
	if s.Silt >= s.Fines || s.Fines >= s.Sand {
		return fmt.Errorf("%w: substratum-2.soft grain sizes must be strictly ascending (%g, %g, %g)",
			common.ErrInvalidConfig, s.Silt, s.Fines, s.Sand)
	}

	return nil
}

// MapConfig names the variables of a hydrodynamic map file and its conventions.
type MapConfig struct {
	Name         string `mapstructure:"-" toml:"-"`
	XCoordinates string `mapstructure:"x-coordinates" toml:"x-coordinates"`
	YCoordinates string `mapstructure:"y-coordinates" toml:"y-coordinates"`
	WaterDepth   string `mapstructure:"water-depth" toml:"water-depth"`
	XVelocity    string `mapstructure:"x-velocity" toml:"x-velocity"`
	YVelocity    string `mapstructure:"y-velocity" toml:"y-velocity"`
	Velocity     string `mapstructure:"velocity" toml:"velocity"`
	Salinity     string `mapstructure:"salinity" toml:"salinity"`
	GrainSize    string `mapstructure:"grain-size" toml:"grain-size"`
	DepthSign    string `mapstructure:"depth-sign" toml:"depth-sign"`
	TimeAxis     int    `mapstructure:"time-axis" toml:"time-axis"`
}

// Validate checks the map configuration.
func (c *MapConfig) Validate() error {
	if c.DepthSign != "+" && c.DepthSign != "-" {
		return fmt.Errorf("%w: depth-sign must be \"+\" or \"-\", got %q", common.ErrInvalidConfig, c.DepthSign)
	}
	if c.TimeAxis != 0 && c.TimeAxis != 1 {
		return fmt.Errorf("%w: time-axis must be 0 or 1, got %d", common.ErrInvalidConfig, c.TimeAxis)
	}
	if c.XCoordinates == "" || c.YCoordinates == "" || c.WaterDepth == "" || c.Salinity == "" {
		return fmt.Errorf("%w: coordinate, water-depth and salinity variable names are required", common.ErrMissingConfig)
	}
	if c.Velocity == "" && (c.XVelocity == "" || c.YVelocity == "") {
		return fmt.Errorf("%w: either velocity or both x-velocity and y-velocity are required", common.ErrMissingConfig)
	}
	return nil
}

// DepthSignFactor converts water depths as written by the model to the
// positive-submerged convention.
func (c *MapConfig) DepthSignFactor() float64 {
	if c.DepthSign == "-" {
		return -1
	}
	return 1
}
