// Package logging sets up the debug logger. Terminal output belongs to
// the TUI and display layers, so log lines go to a file instead.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/jj-tsao/reelix-ai-sub001/internal/config"
)

// New returns the process logger and a close func. With debug off the
// logger is disabled and the close func is a no-op.
func New(debug bool) (zerolog.Logger, func(), error) {
	if !debug {
		return zerolog.Nop(), func() {}, nil
	}

	path, err := config.LogPath()
	if err != nil {
		return zerolog.Nop(), func() {}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return zerolog.Nop(), func() {}, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return zerolog.Nop(), func() {}, fmt.Errorf("opening log file: %w", err)
	}

	log := zerolog.New(f).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	return log, func() { _ = f.Close() }, nil
}
