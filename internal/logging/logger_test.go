package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"takeoutsync/internal/config"
	"takeoutsync/internal/logging"
	"takeoutsync/internal/services"
)

func TestNewFromConfigConsole(t *testing.T) {
	cfg := config.Default()
	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger instance")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestConsoleLoggerRendersSubjectAndFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger = logging.NewComponentLogger(logger, "matcher")
	logging.WarnWithContext(logger.With(logging.String(logging.FieldAlbum, "Rome 2019")), "ambiguous destination match", "match_ambiguous",
		logging.String("filename", "IMG_0001.HEIC"),
	)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(content)
	for _, fragment := range []string{"WARN", "[matcher]", `"Rome 2019"`, "ambiguous destination match", "Event: match_ambiguous", "Filename: IMG_0001.HEIC", "Hint:"} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected %q in console output:\n%s", fragment, out)
		}
	}
	if strings.Contains(out, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", out)
	}
}

func TestSessionWritesRunScopedJSON(t *testing.T) {
	var console bytes.Buffer
	base := slog.New(slog.NewTextHandler(&console, nil))
	path := filepath.Join(t.TempDir(), "run", "run.log")

	session, err := logging.OpenSession(base, "run-1", path, "debug")
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	if session.Path() != path {
		t.Fatalf("unexpected session path %q", session.Path())
	}
	session.Logger.Debug("pairing", logging.Int("items", 3))
	if err := session.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := session.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	session.Logger.Info("after close")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read session log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one record in session log, got %d: %s", len(lines), data)
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("session log is not JSON: %v", err)
	}
	if record["run_id"] != "run-1" || record["msg"] != "pairing" {
		t.Fatalf("unexpected record %v", record)
	}
	if !strings.Contains(console.String(), "after close") {
		t.Fatalf("expected base logger to keep receiving records, got %q", console.String())
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := services.WithRunID(context.Background(), "run-9")
	ctx = services.WithAlbum(ctx, "Beach")
	logging.WithContext(ctx, base).Info("ctx")
	out := buf.String()
	if !strings.Contains(out, `"run_id":"run-9"`) || !strings.Contains(out, `"album":"Beach"`) {
		t.Fatalf("expected context fields, got %s", out)
	}
}

func TestRetentionSweepsFlatAndRunLogs(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -10)
	recent := now.AddDate(0, 0, -1)

	files := map[string]time.Time{
		"takeoutsync.log":                       past,
		"notes.txt":                             past,
		"20240101-000000-aaaaaaaa/run.log":      past,
		"20240101-000000-aaaaaaaa/output.json":  past,
		"20240530-000000-bbbbbbbb/run.log":      recent,
		"20240101-000000-cccccccc/nested/x.log": past,
		"keep.log":                              past,
	}
	for rel, mtime := range files {
		p := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.Chtimes(p, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}

	removed := logging.Retention{
		Root:    root,
		Pattern: "*.log",
		Days:    5,
		Keep:    []string{filepath.Join(root, "keep.log")},
	}.Sweep(logging.NewNop(), now)

	want := []string{
		filepath.Join(root, "20240101-000000-aaaaaaaa", "run.log"),
		filepath.Join(root, "takeoutsync.log"),
	}
	if len(removed) != len(want) {
		t.Fatalf("removed %v, want %v", removed, want)
	}
	for i := range want {
		if removed[i] != want[i] {
			t.Fatalf("removed %v, want %v", removed, want)
		}
	}
	for rel := range files {
		p := filepath.Join(root, rel)
		_, err := os.Stat(p)
		gone := os.IsNotExist(err)
		expectGone := p == want[0] || p == want[1]
		if gone != expectGone {
			t.Fatalf("%s: removed=%v, expected removed=%v", rel, gone, expectGone)
		}
	}
}

func TestRetentionDisabled(t *testing.T) {
	root := t.TempDir()
	p := filepath.Join(root, "old.log")
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	past := time.Now().AddDate(-1, 0, 0)
	if err := os.Chtimes(p, past, past); err != nil {
		t.Fatal(err)
	}
	if removed := (logging.Retention{Root: root, Days: 0}).Sweep(nil, time.Now()); len(removed) != 0 {
		t.Fatalf("expected no pruning, got %v", removed)
	}
	if _, err := os.Stat(p); err != nil {
		t.Fatalf("expected log kept: %v", err)
	}
}
