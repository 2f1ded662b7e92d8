package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger is the logging seam every server package takes. slog.Logger
// satisfies it directly.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

// LogLevel is the configured minimum level, as written in the config file.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// slogLevel maps the configured level onto slog, defaulting unknown values
// to info rather than failing startup.
func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// dateRotatingFile appends to <base>-<YYYY-MM-DD>.log and switches files
// when the local date changes between writes.
type dateRotatingFile struct {
	dir  string
	base string

	mu   sync.Mutex
	file *os.File
	day  string
}

func (w *dateRotatingFile) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	day := time.Now().Format("2006-01-02")
	if w.file == nil || w.day != day {
		if err := w.open(day); err != nil {
			return 0, err
		}
	}

	return w.file.Write(p)
}

func (w *dateRotatingFile) open(day string) error {
	if w.file != nil {
		w.file.Close()
	}

	path := filepath.Join(w.dir, fmt.Sprintf("%s-%s.log", w.base, day))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	w.file = file
	w.day = day
	return nil
}

func (w *dateRotatingFile) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	return w.file.Close()
}

// CreateLogger builds a JSON slog logger writing to daily log files under
// logDir. If the directory cannot be created the logger falls back to
// stdout so startup never fails on logging.
func CreateLogger(logLevel LogLevel, logDir string, fileName string) Logger {
	opts := &slog.HandlerOptions{Level: logLevel.slogLevel()}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}

	return slog.New(slog.NewJSONHandler(&dateRotatingFile{dir: logDir, base: fileName}, opts))
}

// NopLogger discards everything. Constructors substitute it for a nil
// logger so callers never have to nil-check.
var NopLogger Logger = nopLogger{}

type nopLogger struct{}

func (nopLogger) Info(msg string, args ...any)  {}
func (nopLogger) Warn(msg string, args ...any)  {}
func (nopLogger) Error(msg string, args ...any) {}
func (nopLogger) Debug(msg string, args ...any) {}
