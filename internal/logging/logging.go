// Package logging configures zerolog for a report run: console output for
// the operator plus a per-run log file next to the generated reports.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global logger. With verbose on, debug events from
// the extraction and synthesis pipeline become visible.
func Setup(verbose bool) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	log.Logger = zerolog.New(console).With().Timestamp().Logger()
}

// SetupWithRunLog additionally tees all events into a timestamped log file
// under dir, returning a closer for the file. Every event carries a run ID
// so interleaved or collected logs stay attributable to one report run.
func SetupWithRunLog(verbose bool, dir string) (io.Closer, error) {
	Setup(verbose)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("run_%s.log", time.Now().Format("20060102_150405")))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open run log: %w", err)
	}

	runID := uuid.NewString()[:8]
	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(console, file)).
		With().Timestamp().Str("run_id", runID).Logger()

	return file, nil
}
