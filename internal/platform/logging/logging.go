// Package logging configures the process-wide standard logger.
package logging

import (
	"io"
	"log"
	"os"
	"strings"

	"gopkg.in/lumberjack.v2"
)

// Config controls where log lines are written.
type Config struct {
	// Prefix is prepended to every line, e.g. "[SPRINTATHON] ".
	Prefix string
	// File enables a rotating log file in addition to stderr.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Setup points the standard logger at stderr and the optional rotating file.
// The returned closer releases the file and is safe to call when no file is used.
func Setup(cfg Config) io.Closer {
	writer, closer := newWriter(os.Stderr, cfg)
	log.SetOutput(writer)
	log.SetFlags(log.LstdFlags | log.LUTC)
	if cfg.Prefix != "" {
		log.SetPrefix(cfg.Prefix)
	}
	return closer
}

func newWriter(console io.Writer, cfg Config) (io.Writer, io.Closer) {
	path := strings.TrimSpace(cfg.File)
	if path == "" {
		return console, nopCloser{}
	}
	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		LocalTime:  false,
	}
	return io.MultiWriter(console, file), file
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
