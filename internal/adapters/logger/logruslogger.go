package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger implements the ports.Logger interface using logrus. Output goes to
// stderr and, when a directory is configured, to a log file named by the
// current date so that each day's runs land in their own file.
type Logger struct {
	logger *logrus.Logger
	file   *os.File
}

// Config holds configuration for the logger adapter.
type Config struct {
	Level string // DEBUG, INFO, WARN, ERROR; defaults to INFO
	Dir   string // Log file directory; empty disables file output
}

// New creates a new logrus-backed logger.
func New(cfg Config) (*Logger, error) {
	l := logrus.New()
	l.SetLevel(parseLevel(cfg.Level))
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	out := io.Writer(os.Stderr)
	var file *os.File
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory %s: %w", cfg.Dir, err)
		}
		name := filepath.Join(cfg.Dir, fmt.Sprintf("accumulator_%s.log", time.Now().Format("20060102")))
		f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", name, err)
		}
		file = f
		out = io.MultiWriter(os.Stderr, f)
	}
	l.SetOutput(out)

	return &Logger{logger: l, file: file}, nil
}

// Close releases the log file, if one was opened.
func (g *Logger) Close() error {
	if g.file != nil {
		return g.file.Close()
	}
	return nil
}

func parseLevel(levelStr string) logrus.Level {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return logrus.DebugLevel
	case "WARN", "WARNING":
		return logrus.WarnLevel
	case "ERROR":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func (g *Logger) entry(fields ...map[string]interface{}) *logrus.Entry {
	if len(fields) > 0 && fields[0] != nil {
		return g.logger.WithFields(logrus.Fields(fields[0]))
	}
	return logrus.NewEntry(g.logger)
}

// Debug logs a message at Debug level.
func (g *Logger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	g.entry(fields...).Debug(msg)
}

// Info logs a message at Info level.
func (g *Logger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	g.entry(fields...).Info(msg)
}

// Warn logs a message at Warning level.
func (g *Logger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	g.entry(fields...).Warn(msg)
}

// Error logs an error message at Error level.
func (g *Logger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	entry := g.entry(fields...)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(msg)
}
