package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{in: "", want: zerolog.InfoLevel},
		{in: "DEBUG", want: zerolog.DebugLevel},
		{in: "warn", want: zerolog.WarnLevel},
		{in: " error ", want: zerolog.ErrorLevel},
		{in: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewWithWriterFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(zerolog.WarnLevel, &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Str("food", "garlic").Msg("shown")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["message"])
	assert.Equal(t, "garlic", line["food"])
	assert.Equal(t, "warn", line["level"])
}

func TestNewToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fodmap.log")

	logger, closer, err := New("debug", path)
	require.NoError(t, err)
	logger.Debug().Msg("to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"to file"`)
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, closer, err := New("chatty", "")
	assert.Error(t, err)
	assert.NotNil(t, closer)
}
