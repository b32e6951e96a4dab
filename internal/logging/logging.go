// Package logging configures the global zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mrlokans/guidekeeper/internal/config"
)

// Setup installs the global logger. Console output goes to stderr so that
// commands can print results on stdout. When cfg.File is set, JSON lines
// are also written to a size-rotated file. The returned closer flushes that
// file and is safe to call when no file is configured.
func Setup(cfg config.Logging) io.Closer {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var console io.Writer = os.Stderr
	if strings.ToLower(cfg.Format) != "json" {
		console = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	var closer io.Closer = nopCloser{}
	output := console
	if cfg.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		output = zerolog.MultiLevelWriter(console, rotating)
		closer = rotating
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	return closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
