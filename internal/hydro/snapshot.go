// Package hydro provides access to hydrodynamic-model output per partition.
package hydro

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
	"gonum.org/v1/gonum/stat"

	"github.com/Veraticus/ecomap/internal/common"
	"github.com/Veraticus/ecomap/internal/config"
	"github.com/Veraticus/ecomap/internal/model"
	"github.com/Veraticus/ecomap/internal/reduce"
)

// SnapshotExt is the file extension of partition snapshots.
const SnapshotExt = ".mp"

// Current schema version - increment when the Snapshot format changes.
const snapshotSchemaVersion uint16 = 1

// Source loads the data of a single partition.
type Source interface {
	Load(ctx context.Context, partition string) (*model.Partition, error)
}

// Snapshot is the serialized map output of one partition.
type Snapshot struct {
	Schema    uint16
	Partition string
	Variables map[string]Variable
	// Ghost flags points owned by a neighbouring partition.
	Ghost []bool
}

// Variable is an n-dimensional array stored in row-major order.
type Variable struct {
	Dims  []string
	Shape []int
	Data  []float64
}

// Len returns the number of elements the shape describes.
func (v Variable) Len() int {
	if len(v.Shape) == 0 {
		return 0
	}
	n := 1
	for _, s := range v.Shape {
		n *= s
	}
	return n
}

// SnapshotSource reads partitions from snapshot files in a directory.
type SnapshotSource struct {
	dir string
	cfg *config.MapConfig
}

// NewSnapshotSource returns a source resolving partition identifiers in dir.
func NewSnapshotSource(dir string, cfg *config.MapConfig) *SnapshotSource {
	return &SnapshotSource{dir: config.ExpandPath(dir), cfg: cfg}
}

// Path resolves a partition identifier to its snapshot file.
func (s *SnapshotSource) Path(partition string) string {
	p := config.ExpandPath(partition)
	if filepath.Ext(p) == "" {
		p += SnapshotExt
	}
	if !filepath.IsAbs(p) && s.dir != "" {
		p = filepath.Join(s.dir, p)
	}
	return p
}

// Load reads and converts the snapshot of a partition.
func (s *SnapshotSource) Load(ctx context.Context, partition string) (*model.Partition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap, err := ReadSnapshot(s.Path(partition))
	if err != nil {
		return nil, err
	}

	p, err := Convert(snap, s.cfg)
	if err != nil {
		return nil, fmt.Errorf("partition %s: %w", partition, err)
	}
	if p.ID == "" {
		p.ID = partition
	}
	return p, nil
}

// ReadSnapshot decodes a snapshot file.
func ReadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path) //nolint:gosec // partition paths come from the user
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDataAccess, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("Failed to close snapshot", "path", path, "error", closeErr)
		}
	}()

	var snap Snapshot
	if err := msgpack.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", common.ErrDataAccess, path, err)
	}
	if snap.Schema != snapshotSchemaVersion {
		return nil, fmt.Errorf("%w: %s has schema %d, want %d",
			common.ErrDataAccess, path, snap.Schema, snapshotSchemaVersion)
	}
	return &snap, nil
}

// WriteSnapshot encodes a snapshot to path, replacing any existing file atomically.
func WriteSnapshot(path string, snap *Snapshot) (err error) {
	if snap.Schema == 0 {
		snap.Schema = snapshotSchemaVersion
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}

	f, err := os.CreateTemp(filepath.Dir(path), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if removeErr := os.Remove(f.Name()); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) && err == nil {
			err = removeErr
		}
	}()

	if err := msgpack.NewEncoder(f).Encode(snap); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// Convert extracts the configured variables of a snapshot into a partition.
// Water depths are converted to the positive-submerged convention here and
// nowhere else.
func Convert(snap *Snapshot, cfg *config.MapConfig) (*model.Partition, error) {
	x, err := coordinates(snap, cfg.XCoordinates)
	if err != nil {
		return nil, err
	}
	y, err := coordinates(snap, cfg.YCoordinates)
	if err != nil {
		return nil, err
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d x and %d y coordinates", common.ErrShape, len(x), len(y))
	}

	depth, err := series(snap, cfg.WaterDepth, cfg.TimeAxis)
	if err != nil {
		return nil, err
	}
	if factor := cfg.DepthSignFactor(); factor != 1 {
		for _, row := range depth.Data {
			for i := range row {
				row[i] *= factor
			}
		}
	}

	velocity, err := velocitySeries(snap, cfg)
	if err != nil {
		return nil, err
	}

	salinity, err := series(snap, cfg.Salinity, cfg.TimeAxis)
	if err != nil {
		return nil, err
	}

	var grain []float64
	if cfg.GrainSize != "" {
		if _, ok := snap.Variables[cfg.GrainSize]; ok {
			if grain, err = coordinates(snap, cfg.GrainSize); err != nil {
				return nil, err
			}
		}
	}

	p := &model.Partition{
		ID:         snap.Partition,
		X:          x,
		Y:          y,
		WaterDepth: depth,
		Velocity:   velocity,
		Salinity:   salinity,
		GrainSize:  grain,
	}
	if err := checkPoints(p); err != nil {
		return nil, err
	}

	if len(snap.Ghost) > 0 {
		if len(snap.Ghost) != len(x) {
			return nil, fmt.Errorf("%w: ghost mask has %d entries for %d points", common.ErrShape, len(snap.Ghost), len(x))
		}
		dropGhosts(p, snap.Ghost)
	}

	return p, nil
}

func velocitySeries(snap *Snapshot, cfg *config.MapConfig) (model.TimeSeries, error) {
	if cfg.Velocity != "" {
		if _, ok := snap.Variables[cfg.Velocity]; ok {
			return series(snap, cfg.Velocity, cfg.TimeAxis)
		}
	}

	ux, err := series(snap, cfg.XVelocity, cfg.TimeAxis)
	if err != nil {
		return model.TimeSeries{}, err
	}
	uy, err := series(snap, cfg.YVelocity, cfg.TimeAxis)
	if err != nil {
		return model.TimeSeries{}, err
	}
	return reduce.Magnitude(ux, uy)
}

func lookup(snap *Snapshot, name string) (Variable, error) {
	v, ok := snap.Variables[name]
	if !ok {
		return Variable{}, fmt.Errorf("%w: variable %q not found in partition %s", common.ErrDataAccess, name, snap.Partition)
	}
	if v.Len() != len(v.Data) {
		return Variable{}, fmt.Errorf("%w: variable %q holds %d values for shape %v", common.ErrShape, name, len(v.Data), v.Shape)
	}
	return v, nil
}

func coordinates(snap *Snapshot, name string) ([]float64, error) {
	v, err := lookup(snap, name)
	if err != nil {
		return nil, err
	}
	if len(v.Shape) != 1 {
		return nil, fmt.Errorf("%w: variable %q must be one-dimensional, has shape %v", common.ErrShape, name, v.Shape)
	}
	out := make([]float64, len(v.Data))
	copy(out, v.Data)
	return out, nil
}

// series returns a two-dimensional variable, depth-averaging a trailing layer
// dimension when present.
func series(snap *Snapshot, name string, timeAxis int) (model.TimeSeries, error) {
	v, err := lookup(snap, name)
	if err != nil {
		return model.TimeSeries{}, err
	}

	layers := 1
	switch len(v.Shape) {
	case 2:
	case 3:
		layers = v.Shape[2]
	default:
		return model.TimeSeries{}, fmt.Errorf("%w: variable %q must have two or three dimensions, has shape %v",
			common.ErrShape, name, v.Shape)
	}

	rows, cols := v.Shape[0], v.Shape[1]
	data := make([][]float64, rows)
	for r := 0; r < rows; r++ {
		row := make([]float64, cols)
		for c := 0; c < cols; c++ {
			start := (r*cols + c) * layers
			row[c] = layerMean(v.Data[start : start+layers])
		}
		data[r] = row
	}

	return model.TimeSeries{Data: data, TimeAxis: timeAxis}, nil
}

// layerMean averages the non-missing values of a vertical column.
func layerMean(values []float64) float64 {
	if len(values) == 1 {
		return values[0]
	}
	valid := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return math.NaN()
	}
	return stat.Mean(valid, nil)
}

// checkPoints rejects variables whose point dimension differs from the
// coordinates, before ghost removal re-indexes them.
func checkPoints(p *model.Partition) error {
	n := len(p.X)
	if p.GrainSize != nil && len(p.GrainSize) != n {
		return fmt.Errorf("%w: partition %s has %d grain sizes for %d points", common.ErrShape, p.ID, len(p.GrainSize), n)
	}
	for name, ts := range map[string]model.TimeSeries{
		"water depth": p.WaterDepth,
		"velocity":    p.Velocity,
		"salinity":    p.Salinity,
	} {
		if ts.Points() != n {
			return fmt.Errorf("%w: partition %s has %d %s points for %d coordinates",
				common.ErrShape, p.ID, ts.Points(), name, n)
		}
	}
	return nil
}

func dropGhosts(p *model.Partition, ghost []bool) {
	keep := make([]int, 0, len(ghost))
	for i, g := range ghost {
		if !g {
			keep = append(keep, i)
		}
	}
	if len(keep) == len(ghost) {
		return
	}

	p.X = pick(p.X, keep)
	p.Y = pick(p.Y, keep)
	if p.GrainSize != nil {
		p.GrainSize = pick(p.GrainSize, keep)
	}
	p.WaterDepth = pickPoints(p.WaterDepth, keep)
	p.Velocity = pickPoints(p.Velocity, keep)
	p.Salinity = pickPoints(p.Salinity, keep)
}

func pick(values []float64, keep []int) []float64 {
	out := make([]float64, len(keep))
	for i, k := range keep {
		out[i] = values[k]
	}
	return out
}

func pickPoints(ts model.TimeSeries, keep []int) model.TimeSeries {
	out := model.TimeSeries{TimeAxis: ts.TimeAxis}
	if ts.TimeAxis != 0 {
		out.Data = make([][]float64, len(keep))
		for i, k := range keep {
			out.Data[i] = ts.Data[k]
		}
		return out
	}
	out.Data = make([][]float64, len(ts.Data))
	for t, row := range ts.Data {
		out.Data[t] = pick(row, keep)
	}
	return out
}
