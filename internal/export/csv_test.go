package export

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ecomap/internal/model"
)

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name string
		dir  string
		file string
		want string
	}{
		{"default name", "/out", "", "/out/ecotopes.csv"},
		{"extension added", "/out", "scheldt", "/out/scheldt.csv"},
		{"extension replaced", "/out", "scheldt.txt", "/out/scheldt.csv"},
		{"absolute path ignores dir", "/out", "/tmp/map.csv", "/tmp/map.csv"},
		{"no dir", "", "map", "map.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePath(tt.dir, tt.file))
		})
	}
}

func TestLogPath(t *testing.T) {
	assert.Equal(t, "/logs/ecomap_0001.log", LogPath("/logs", "", 1))
	assert.Equal(t, "run_0012.log", LogPath("", "run.log", 12))
}

func TestWriteLabels(t *testing.T) {
	labels := model.Labels{
		{Point: model.Point{X: 1.5, Y: 2}, Code: "Z2.222f"},
		{Point: model.Point{X: 0, Y: -3.25}, Code: "B1.212"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteLabels(&buf, labels))
	assert.Equal(t, "1.5,2,Z2.222f\n0,-3.25,B1.212\n", buf.String())
}

func TestWriteAndReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultFileName)
	labels := model.Labels{
		{Point: model.Point{X: 100.25, Y: 200.5}, Code: "Z2.111f"},
		{Point: model.Point{X: 101, Y: 200.5}, Code: "xx.xxx"},
	}

	require.NoError(t, WriteFile(path, labels))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, labels, got)
}

func TestReadLabels_Errors(t *testing.T) {
	_, err := ReadLabels(strings.NewReader("1,2\n"))
	assert.ErrorIs(t, err, ErrColumnCount)

	_, err = ReadLabels(strings.NewReader("1,2,Z2.111f,extra\n"))
	assert.ErrorIs(t, err, ErrColumnCount)

	_, err = ReadLabels(strings.NewReader("a,2,Z2.111f\n"))
	assert.Error(t, err)

	labels, err := ReadLabels(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, labels)
}
