// Package engine runs the reduction and classification over model partitions.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/ecomap/internal/classify"
	"github.com/Veraticus/ecomap/internal/common"
	"github.com/Veraticus/ecomap/internal/config"
	"github.com/Veraticus/ecomap/internal/export"
	"github.com/Veraticus/ecomap/internal/hydro"
	"github.com/Veraticus/ecomap/internal/model"
	"github.com/Veraticus/ecomap/internal/reduce"
)

// Options configures a mapping run.
type Options struct {
	MLWS        *float64 // mean low water spring [m]
	MHWN        *float64 // mean high water neap [m]
	LAT         *float64 // lowest astronomical tide [m]
	Grain       reduce.GrainParams
	Substratum1 string
	ExportPath  string // CSV export, empty for none
	LogDir      string // per-partition run logs, empty for none
	LogLevel    slog.Level
	Workers     int
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Grain:    reduce.DefaultGrainParams(),
		LogLevel: slog.LevelInfo,
		Workers:  1,
	}
}

// Mapper maps partitions to ecotope labels.
type Mapper struct {
	source     hydro.Source
	cfg        *config.EcotopeConfig
	classifier *classify.Classifier
	recorder   Recorder
	progress   Progress
	opts       Options
}

// NewMapper validates the run options against the configuration. An invalid
// substratum hint or tide pairing is returned as an error.
func NewMapper(source hydro.Source, cfg *config.EcotopeConfig, opts Options) (*Mapper, error) {
	if source == nil {
		return nil, fmt.Errorf("mapper requires a data source")
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: ecotope configuration", common.ErrMissingConfig)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	params, err := classifyParams(cfg, opts)
	if err != nil {
		return nil, err
	}

	classifier, err := classify.New(cfg, params)
	if err != nil {
		return nil, err
	}

	if cfg.IsDefault() && opts.Substratum1 == classify.HintSoft && opts.Grain.Friction == nil {
		friction := reduce.CalibratedFriction
		opts.Grain.Friction = &friction
		slog.Info("Calibrated friction coefficient used for grain size", "friction", friction)
	}

	return &Mapper{source: source, cfg: cfg, classifier: classifier, opts: opts}, nil
}

// WithRecorder stores completed runs with r.
func (m *Mapper) WithRecorder(r Recorder) *Mapper {
	m.recorder = r
	return m
}

// WithProgress reports partition progress to p.
func (m *Mapper) WithProgress(p Progress) *Mapper {
	m.progress = p
	return m
}

// classifyParams derives the tide references of the run. Both MLWS and MHWN
// or neither must be given; LAT falls back to MLWS.
func classifyParams(cfg *config.EcotopeConfig, opts Options) (classify.Params, error) {
	params := classify.Params{Substratum1: opts.Substratum1, LowWater: opts.MLWS}

	if (opts.MLWS == nil) != (opts.MHWN == nil) {
		return params, fmt.Errorf("%w: mlws and mhwn must both be given or both omitted", classify.ErrTidePairing)
	}

	low := opts.MLWS
	if cfg.Depth1.Reference == config.ReferenceLAT {
		low = opts.LAT
		if low == nil && opts.MLWS != nil {
			slog.Warn("LAT not given, MLWS used as low-water reference", "mlws", *opts.MLWS)
			low = opts.MLWS
		}
	}

	tide, err := classify.NewTideRange(low, opts.MHWN)
	if err != nil {
		return params, fmt.Errorf("%s and mhwn: %w", cfg.Depth1.Reference, err)
	}
	params.Tide = tide
	return params, nil
}

// RunResult contains the labels and statistics of a run.
type RunResult struct {
	Run     *model.Run
	Labels  model.Labels
	Summary RunSummary
}

type partitionResult struct {
	labels       model.Labels
	wildcards    int
	negativeMean bool
}

// MapEcotopes maps the partitions and concatenates their labels in partition
// order. Several partitions run in parallel up to the configured worker count.
func (m *Mapper) MapEcotopes(ctx context.Context, partitions ...string) (*RunResult, error) {
	if len(partitions) == 0 {
		return nil, common.ErrNoPartitions
	}

	startTime := time.Now()
	runID := uuid.New().String()

	slog.Info("Starting ecotope mapping",
		"run", runID,
		"partitions", len(partitions),
		"config", m.cfg.Name,
		"substratum", m.opts.Substratum1)

	if m.progress != nil {
		m.progress.Start(len(partitions))
		defer m.progress.Finish()
	}

	results := make([]*partitionResult, len(partitions))
	workers := min(m.opts.Workers, len(partitions))

	if workers <= 1 {
		for i, id := range partitions {
			r, err := m.mapPartition(ctx, i, id)
			if err != nil {
				return nil, err
			}
			results[i] = r
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i, id := range partitions {
			i, id := i, id
			g.Go(func() error {
				r, err := m.mapPartition(gctx, i, id)
				if err != nil {
					return err
				}
				results[i] = r
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	result := &RunResult{}
	for _, r := range results {
		result.Labels = append(result.Labels, r.labels...)
		result.Summary.WildcardPoints += r.wildcards
		if r.negativeMean {
			result.Summary.NegativeDepthPartitions++
		}
	}
	result.Summary.Partitions = len(partitions)
	result.Summary.Points = len(result.Labels)
	result.Summary.CodeCounts = countCodes(result.Labels)
	result.Summary.UniqueCodes = len(result.Summary.CodeCounts)

	if m.opts.ExportPath != "" {
		if err := export.WriteFile(m.opts.ExportPath, result.Labels); err != nil {
			return nil, fmt.Errorf("failed to export labels: %w", err)
		}
		result.Summary.ExportPath = m.opts.ExportPath
		slog.Info("Ecotope labels exported", "file", m.opts.ExportPath, "points", len(result.Labels))
	}

	result.Summary.ProcessingTime = time.Since(startTime)
	result.Run = &model.Run{
		ID:             runID,
		StartedAt:      startTime,
		EcotopeConfig:  m.cfg.Name,
		Substratum:     m.opts.Substratum1,
		Partitions:     partitions,
		Points:         result.Summary.Points,
		UniqueCodes:    result.Summary.UniqueCodes,
		WildcardPoints: result.Summary.WildcardPoints,
		Duration:       result.Summary.ProcessingTime,
	}

	if m.recorder != nil {
		if err := m.recorder.SaveRun(ctx, result.Run, result.Labels); err != nil {
			return nil, fmt.Errorf("failed to save run: %w", err)
		}
	}

	slog.Info("Ecotope mapping completed",
		"run", runID,
		"points", result.Summary.Points,
		"unique_codes", result.Summary.UniqueCodes,
		"duration", result.Summary.ProcessingTime)

	return result, nil
}

// mapPartition loads, reduces and classifies a single partition. It only
// reads shared state.
func (m *Mapper) mapPartition(ctx context.Context, index int, id string) (*partitionResult, error) {
	logger, closer, err := m.partitionLogger(index)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		defer func() {
			if closeErr := closer.Close(); closeErr != nil {
				slog.Warn("Failed to close run log", "partition", id, "error", closeErr)
			}
		}()
	}
	logger = logger.With("partition", id)

	p, err := m.source.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load partition %s: %w", id, err)
	}
	logger.Debug("Partition loaded", "points", p.Len(), "timesteps", p.WaterDepth.Steps())

	reduction, err := reduce.Reduce(p, m.opts.Grain)
	if err != nil {
		return nil, fmt.Errorf("failed to reduce partition %s: %w", id, err)
	}
	if reduction.NegativeMean {
		logger.Warn("Mean water depth is negative, check the depth-sign of the map configuration")
	}

	codes, err := m.classifier.ClassifyAll(reduction.Statistics)
	if err != nil {
		return nil, fmt.Errorf("failed to classify partition %s: %w", id, err)
	}

	r := &partitionResult{
		labels:       make(model.Labels, len(codes)),
		negativeMean: reduction.NegativeMean,
	}
	for i, code := range codes {
		r.labels[i] = model.Label{Point: model.Point{X: p.X[i], Y: p.Y[i]}, Code: code}
		if hasWildcard(code) {
			r.wildcards++
		}
	}

	if r.wildcards > 0 {
		logger.Info("Points with undetermined code positions", "points", r.wildcards)
	}
	logger.Info("Partition mapped", "points", len(codes))

	if m.progress != nil {
		m.progress.Done(id, len(codes))
	}
	return r, nil
}

func (m *Mapper) partitionLogger(index int) (*slog.Logger, io.Closer, error) {
	if m.opts.LogDir == "" {
		return slog.Default(), nil, nil
	}
	logger, closer, err := common.OpenRunLog(export.LogPath(m.opts.LogDir, "", index+1), m.opts.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return logger, closer, nil
}

func hasWildcard(label string) bool {
	code, err := model.ParseCode(label)
	return err == nil && code.IsWildcard()
}

func countCodes(labels model.Labels) map[string]int {
	counts := make(map[string]int)
	for _, l := range labels {
		counts[l.Code]++
	}
	return counts
}
