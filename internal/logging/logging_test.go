package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/guidekeeper/internal/config"
)

func restoreLogger(t *testing.T) {
	original := log.Logger
	level := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = original
		zerolog.SetGlobalLevel(level)
	})
}

func TestSetupLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			restoreLogger(t)

			closer := Setup(config.Logging{Level: tt.input, Format: "json"})
			defer closer.Close()

			assert.Equal(t, tt.want, zerolog.GlobalLevel())
		})
	}
}

func TestSetupWritesRotatingFile(t *testing.T) {
	restoreLogger(t)
	path := filepath.Join(t.TempDir(), "guidekeeper.log")

	closer := Setup(config.Logging{Level: "info", Format: "json", File: path, MaxSizeMB: 1})
	log.Info().Str("guide", "Network Setup").Msg("exported")
	require.NoError(t, closer.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"guide":"Network Setup"`)
	assert.Contains(t, string(content), `"message":"exported"`)
}
