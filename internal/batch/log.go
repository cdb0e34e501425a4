package batch

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// NewLogger returns a slog.Logger whose lines go to a per-day file under
// dir (e.g. 2025-12-16_batch.log), keeping batch output out of the
// request-scoped log stream. The file rolls over at local midnight, so a
// long-running server does not keep appending to the start day's file.
// The returned closer owns the current file handle.
func NewLogger(dir string) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating batch log directory: %w", err)
	}

	w := &dailyFile{dir: dir, now: time.Now}
	return slog.New(slog.NewTextHandler(w, nil)), w, nil
}

// dailyFile appends to <day>_batch.log, reopening the file when the
// calendar day changes between writes.
type dailyFile struct {
	dir string
	now func() time.Time

	mu   sync.Mutex
	day  string
	file *os.File
}

func (w *dailyFile) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	day := w.now().Format("2006-01-02")
	if w.file == nil || day != w.day {
		if w.file != nil {
			w.file.Close()
		}
		f, err := os.OpenFile(filepath.Join(w.dir, day+"_batch.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return 0, fmt.Errorf("opening batch log file: %w", err)
		}
		w.file = f
		w.day = day
	}
	return w.file.Write(p)
}

func (w *dailyFile) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
