package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	cases := map[LogLevel]slog.Level{
		LogLevelDebug: slog.LevelDebug,
		"DEBUG":       slog.LevelDebug,
		LogLevelInfo:  slog.LevelInfo,
		LogLevelWarn:  slog.LevelWarn,
		LogLevelError: slog.LevelError,
		"verbose":     slog.LevelInfo,
	}

	for input, expected := range cases {
		if got := ParseLevel(input); got != expected {
			t.Errorf("ParseLevel(%q) = %v, expected %v", input, got, expected)
		}
	}
}

func TestCreateLogger_WritesToConsoleAndFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	logger, closer := createLogger(LogLevelInfo, dir, "snapwatch", 0, &console)
	logger.Info("motion detected", "event", "abc")
	logger.Debug("hidden")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if !strings.Contains(console.String(), "motion detected") {
		t.Errorf("Expected console output to contain message, got: %s", console.String())
	}
	if strings.Contains(console.String(), "hidden") {
		t.Error("Debug message should be filtered at info level")
	}

	fileName := filepath.Join(dir, "snapwatch-"+time.Now().Format("2006-01-02")+".log")
	data, err := os.ReadFile(fileName)
	if err != nil {
		t.Fatalf("Expected log file %s to exist: %v", fileName, err)
	}
	if !strings.Contains(string(data), "motion detected") {
		t.Errorf("Expected log file to contain message, got: %s", string(data))
	}
}

func TestCreateLogger_EmptyDirLogsToConsoleOnly(t *testing.T) {
	var console bytes.Buffer

	logger, closer := createLogger(LogLevelDebug, "", "snapwatch", 7, &console)
	logger.Debug("sampling")
	if err := closer.Close(); err != nil {
		t.Errorf("Console-only closer failed: %v", err)
	}

	if !strings.Contains(console.String(), "sampling") {
		t.Errorf("Expected console output, got: %s", console.String())
	}
}

func TestDailyLogFiles_RotatesOnDateChange(t *testing.T) {
	dir := t.TempDir()
	files := newDailyLogFiles(dir, "app", 0)
	defer files.Close()

	day := time.Date(2026, 3, 1, 23, 59, 0, 0, time.Local)
	files.now = func() time.Time { return day }
	if _, err := files.Write([]byte("first\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	day = day.Add(2 * time.Minute)
	if _, err := files.Write([]byte("second\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	for _, name := range []string{"app-2026-03-01.log", "app-2026-03-02.log"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Expected %s to exist: %v", name, err)
		}
	}
}

func TestDailyLogFiles_PrunesOldFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"app-2026-02-20.log", "app-2026-02-27.log", "other-2026-01-01.log", "app-notes.log"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	files := newDailyLogFiles(dir, "app", 3)
	defer files.Close()
	files.now = func() time.Time { return time.Date(2026, 3, 2, 8, 0, 0, 0, time.Local) }

	if _, err := files.Write([]byte("line\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "app-2026-02-20.log")); !os.IsNotExist(err) {
		t.Error("Expected file older than retention to be removed")
	}
	for _, name := range []string{"app-2026-02-27.log", "app-2026-03-02.log", "other-2026-01-01.log", "app-notes.log"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Expected %s to be kept: %v", name, err)
		}
	}
}

func TestDailyLogFiles_CloseAndReopen(t *testing.T) {
	dir := t.TempDir()
	files := newDailyLogFiles(dir, "app", 0)

	if _, err := files.Write([]byte("before\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := files.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := files.Close(); err != nil {
		t.Errorf("Second Close should be a no-op: %v", err)
	}
	if _, err := files.Write([]byte("after\n")); err != nil {
		t.Fatalf("Write after Close failed: %v", err)
	}
	files.Close()

	data, err := os.ReadFile(files.path(time.Now().Format(dateLayout)))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "before\nafter\n" {
		t.Errorf("Log content = %q", string(data))
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) != NopLogger {
		t.Error("OrNop(nil) should return NopLogger")
	}
}
