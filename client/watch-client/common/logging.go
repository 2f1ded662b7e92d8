package common

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DailyRotatingWriter appends to <base>-<YYYY-MM-DD>.log in dir, switching
// files when the local date changes between writes. It backs the standard
// log package output for the CLI.
type DailyRotatingWriter struct {
	dir  string
	base string

	mu   sync.Mutex
	file *os.File
	day  string
}

func NewDailyRotatingWriter(dir, base string) *DailyRotatingWriter {
	return &DailyRotatingWriter{dir: dir, base: base}
}

func (w *DailyRotatingWriter) Write(p []byte) (int, error) {
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

func (w *DailyRotatingWriter) open(day string) error {
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

func (w *DailyRotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	return w.file.Close()
}
