// Package logging configures the process logger from LoggingConfig: a
// level-gated wrapper over the standard library logger, writing to stdout,
// stderr, or a file.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/logisim-sim/logisim/internal/infrastructure/config"
)

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string onto a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Logger is a leveled logger; messages below the configured level are
// dropped.
type Logger struct {
	level Level
	out   *log.Logger
}

// Setup builds a Logger from the logging configuration.
func Setup(cfg config.LoggingConfig) (*Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var w io.Writer
	switch cfg.Output {
	case "", "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	case "file":
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("logging.file_path is required for file output")
		}
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
	default:
		return nil, fmt.Errorf("unknown logging output %q", cfg.Output)
	}

	flags := log.LstdFlags
	if cfg.IncludeCaller {
		flags |= log.Lshortfile
	}
	return &Logger{level: level, out: log.New(w, "", flags)}, nil
}

// New creates a Logger at the given level writing to stderr, for tests and
// early bootstrap before the config is loaded.
func New(level Level) *Logger {
	return &Logger{level: level, out: log.New(os.Stderr, "", log.LstdFlags)}
}

func (l *Logger) logf(level Level, prefix, format string, args ...any) {
	if level < l.level {
		return
	}
	l.out.Printf(prefix+" "+format, args...)
}

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, "DEBUG", format, args...) }

// Infof logs at info level.
func (l *Logger) Infof(format string, args ...any) { l.logf(LevelInfo, "INFO", format, args...) }

// Warnf logs at warn level.
func (l *Logger) Warnf(format string, args ...any) { l.logf(LevelWarn, "WARN", format, args...) }

// Errorf logs at error level.
func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, "ERROR", format, args...) }
