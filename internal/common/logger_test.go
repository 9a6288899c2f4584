package common

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "INFO", want: slog.LevelInfo},
		{input: "warning", want: slog.LevelWarn},
		{input: "warn", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "critical", want: slog.LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewHandler(t *testing.T) {
	_, err := NewHandler(os.Stderr, slog.LevelInfo, "json")
	assert.NoError(t, err)
	_, err = NewHandler(os.Stderr, slog.LevelInfo, "console")
	assert.NoError(t, err)
	_, err = NewHandler(os.Stderr, slog.LevelInfo, "xml")
	assert.Error(t, err)
}

func TestOpenRunLog_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ecomap_0001.log")

	for i := 0; i < 2; i++ {
		logger, closer, err := OpenRunLog(path, slog.LevelInfo)
		require.NoError(t, err)
		logger.Info("partition processed", "partition", "part-0001", "run", i)
		require.NoError(t, closer.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "run=0")
	assert.Contains(t, string(data), "run=1")
}

func TestUserError(t *testing.T) {
	base := errors.New("boom")
	err := NewUserError("could not map ecotopes", base)
	assert.Equal(t, "could not map ecotopes: boom", err.Error())
	assert.ErrorIs(t, err, base)
	assert.True(t, IsConfigError(NewUserError("bad", ErrInvalidConfig)))
	assert.False(t, IsConfigError(base))
}
