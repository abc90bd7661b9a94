package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"takeoutsync/internal/config"
	"takeoutsync/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckSource(t *testing.T) {
	root := filepath.Join(t.TempDir(), "Takeout")
	testsupport.WriteFile(t, filepath.Join(root, "Google Photos", "Rome", "IMG_1.JPG"), 10)
	if res := CheckSource(root); !res.Passed {
		t.Fatalf("expected takeout to pass: %s", res.Detail)
	}

	empty := t.TempDir()
	if res := CheckSource(empty); res.Passed {
		t.Fatal("expected directory without Google Photos to fail")
	}

	dump := filepath.Join(t.TempDir(), "output.json")
	if err := os.WriteFile(dump, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}
	if res := CheckSource(dump); !res.Passed {
		t.Fatalf("expected dump to pass: %s", res.Detail)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(nil, ""); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_StubbedBinaries(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	cfg.Destination.Client = config.ClientPhotos

	results := RunAll(cfg, "")
	// runs dir + exiftool + ffprobe + osascript
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d: %+v", len(results), results)
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}

func TestRunAll_MissingBinaryFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	cfg.Metadata.ExiftoolBinary = "clearly-not-present-exiftool"

	failed := Failed(RunAll(cfg, ""))
	if len(failed) == 0 || failed[0].Name != "exiftool" {
		t.Fatalf("expected exiftool failure, got %+v", failed)
	}
}
