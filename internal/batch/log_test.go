package batch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDailyFile_RollsOverAtMidnight(t *testing.T) {
	dir := t.TempDir()
	current := time.Date(2025, 12, 16, 23, 59, 0, 0, time.UTC)
	w := &dailyFile{dir: dir, now: func() time.Time { return current }}
	defer w.Close()

	if _, err := w.Write([]byte("before midnight\n")); err != nil {
		t.Fatalf("first write: %v", err)
	}

	current = time.Date(2025, 12, 17, 0, 1, 0, 0, time.UTC)
	if _, err := w.Write([]byte("after midnight\n")); err != nil {
		t.Fatalf("second write: %v", err)
	}

	first, err := os.ReadFile(filepath.Join(dir, "2025-12-16_batch.log"))
	if err != nil {
		t.Fatalf("reading first day's file: %v", err)
	}
	if !strings.Contains(string(first), "before midnight") {
		t.Errorf("first day's file = %q", first)
	}

	second, err := os.ReadFile(filepath.Join(dir, "2025-12-17_batch.log"))
	if err != nil {
		t.Fatalf("reading second day's file: %v", err)
	}
	if !strings.Contains(string(second), "after midnight") {
		t.Errorf("second day's file = %q", second)
	}
	if strings.Contains(string(first), "after midnight") {
		t.Error("second write landed in the first day's file")
	}
}

func TestDailyFile_SameDayAppends(t *testing.T) {
	dir := t.TempDir()
	fixed := time.Date(2025, 12, 16, 9, 0, 0, 0, time.UTC)
	w := &dailyFile{dir: dir, now: func() time.Time { return fixed }}
	defer w.Close()

	w.Write([]byte("one\n"))
	w.Write([]byte("two\n"))

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("created %d files, want 1", len(entries))
	}

	content, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if !strings.Contains(string(content), "one\n") || !strings.Contains(string(content), "two\n") {
		t.Errorf("log content = %q", content)
	}
}

func TestNewLogger_WritesToDayFile(t *testing.T) {
	dir := t.TempDir()
	logger, closer, err := NewLogger(dir)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer closer.Close()

	logger.Info("job started", "job", "daily_cleanup")

	name := time.Now().Format("2006-01-02") + "_batch.log"
	content, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(content), "daily_cleanup") {
		t.Errorf("log content = %q", content)
	}
}
