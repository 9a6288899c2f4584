// Package export writes and reads ecotope label artifacts.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Veraticus/ecomap/internal/config"
	"github.com/Veraticus/ecomap/internal/model"
)

// Default artifact names.
const (
	DefaultFileName = "ecotopes.csv"
	DefaultLogName  = "ecomap"
	Extension       = ".csv"
	LogExtension    = ".log"
)

// ErrColumnCount indicates a record without exactly x, y and label.
var ErrColumnCount = errors.New("label records must have three columns")

// ResolvePath returns the export file for name in dir. An empty name selects
// the default file name and a missing or wrong extension is replaced.
func ResolvePath(dir, name string) string {
	if name == "" {
		name = DefaultFileName
	}
	name = config.ExpandPath(name)
	if ext := filepath.Ext(name); ext != Extension {
		name = strings.TrimSuffix(name, ext) + Extension
	}
	if !filepath.IsAbs(name) && dir != "" {
		name = filepath.Join(config.ExpandPath(dir), name)
	}
	return name
}

// LogPath returns the run log of the n-th partition, e.g. "ecomap_0001.log".
func LogPath(dir, base string, n int) string {
	if base == "" {
		base = DefaultLogName
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	name := fmt.Sprintf("%s_%04d%s", base, n, LogExtension)
	if dir == "" {
		return name
	}
	return filepath.Join(config.ExpandPath(dir), name)
}

// WriteLabels writes one "x,y,label" line per label in order.
func WriteLabels(w io.Writer, labels model.Labels) error {
	cw := csv.NewWriter(w)
	for _, l := range labels {
		record := []string{formatCoordinate(l.Point.X), formatCoordinate(l.Point.Y), l.Code}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write label at %s: %w", l.Point, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile creates path and writes the labels to it.
func WriteFile(path string, labels model.Labels) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	f, err := os.Create(path) //nolint:gosec // export path comes from the user
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return WriteLabels(f, labels)
}

// ReadLabels parses "x,y,label" records.
func ReadLabels(r io.Reader) (model.Labels, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var labels model.Labels
	for line := 1; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return labels, nil
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(record) != 3 {
			return nil, fmt.Errorf("%w: line %d has %d", ErrColumnCount, line, len(record))
		}

		x, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid x coordinate: %w", line, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid y coordinate: %w", line, err)
		}

		labels = append(labels, model.Label{Point: model.Point{X: x, Y: y}, Code: strings.TrimSpace(record[2])})
	}
}

// ReadFile parses a label artifact.
func ReadFile(path string) (model.Labels, error) {
	f, err := os.Open(config.ExpandPath(path)) //nolint:gosec // artifact paths come from the user
	if err != nil {
		return nil, fmt.Errorf("failed to open label file: %w", err)
	}
	defer func() { _ = f.Close() }()

	labels, err := ReadLabels(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return labels, nil
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
