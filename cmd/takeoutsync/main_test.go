package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"takeoutsync/internal/config"
	"takeoutsync/internal/runstate"
	"takeoutsync/internal/testsupport"
)

func writeConfigFile(t *testing.T, cfg *config.Config) string {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	path := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func requireContains(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, out)
	}
}

func writeTakeout(t *testing.T, root string) {
	t.Helper()
	album := filepath.Join(root, "Takeout", "Google Photos", "Rome")
	testsupport.WriteFile(t, filepath.Join(album, "IMG_1.JPG"), 10)
	testsupport.WriteFile(t, filepath.Join(album, "IMG_2.MOV"), 20)
	testsupport.WriteFile(t, filepath.Join(album, "notes.txt"), 5)
}

func TestConfigInitAndValidate(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	out, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}

	t.Setenv("HOME", t.TempDir())
	out, err = runCLI(t, "--config", target, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, target)
}

func TestConfigShowJSON(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := writeConfigFile(t, cfg)
	out, err := runCLI(t, "--config", path, "config", "show", "--json")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, `"Client": "none"`)
}

func TestSamplePrintsMediaOnly(t *testing.T) {
	root := t.TempDir()
	writeTakeout(t, root)

	out, err := runCLI(t, "sample", root, "-n", "5")
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 media paths, got %q", lines)
	}
	if strings.Contains(out, "notes.txt") {
		t.Fatalf("sample printed a non-media file:\n%s", out)
	}
}

func TestRunsListsRecordedState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := writeConfigFile(t, cfg)

	out, err := runCLI(t, "--config", path, "runs")
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	requireContains(t, out, "No runs under")

	dir, err := runstate.Create(cfg.Paths.RunsDir, "20240102-030405-abcd")
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	rec := runstate.NewRecorder(dir)
	if err := rec.RecordAlbum(runstate.CreatedAlbum{Title: "Rome", ID: "ALB-1"}); err != nil {
		t.Fatalf("record album: %v", err)
	}

	out, err = runCLI(t, "--config", path, "runs")
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	requireContains(t, out, "20240102-030405-abcd")
	requireContains(t, out, "2024-01-02 03:04:05")
}

func TestDoctorReportsChecks(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	path := writeConfigFile(t, cfg)
	root := t.TempDir()
	writeTakeout(t, root)

	out, err := runCLI(t, "--config", path, "doctor", root)
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "[OK]")
	requireContains(t, out, "Preflight")

	out, err = runCLI(t, "--config", path, "doctor", filepath.Join(root, "missing"))
	if err == nil {
		t.Fatalf("expected doctor to fail on a missing source:\n%s", out)
	}
	requireContains(t, out, "[ERROR]")
}

func TestSearchRequiresPhotos(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := writeConfigFile(t, cfg)
	if _, err := runCLI(t, "--config", path, "search", "IMG_1.JPG"); err == nil {
		t.Fatal("expected search to fail without a Photos destination")
	}
}
