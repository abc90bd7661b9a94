package runstate

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"testing"
	"time"
)

func TestNewRunIDSortsChronologically(t *testing.T) {
	early := NewRunID(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	late := NewRunID(time.Date(2024, 1, 2, 3, 4, 6, 0, time.UTC))
	if !regexp.MustCompile(`^20240102-030405-[0-9a-f]{8}$`).MatchString(early) {
		t.Fatalf("unexpected run id %q", early)
	}
	if early >= late {
		t.Fatalf("expected %s < %s", early, late)
	}
	if ts, ok := (Dir{ID: early}).Started(); !ok || ts.Hour() != 3 {
		t.Fatalf("Started = %v, %v", ts, ok)
	}
}

func TestDiscoverOrdersRunsAndIgnoresStrays(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"20240301-000000-bbbbbbbb", "20240101-000000-aaaaaaaa", "notes", ".lock", "import-2019", "20240102-030405-abcd"} {
		if err := os.MkdirAll(filepath.Join(root, name), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "import-2019", LegacyImportedFile), []byte("\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "20240102-030405-abcd", CreatedAlbumsFile), []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}
	dirs, err := Discover(root)
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, d := range dirs {
		ids = append(ids, d.ID)
	}
	want := []string{"20240101-000000-aaaaaaaa", "20240102-030405-abcd", "20240301-000000-bbbbbbbb", "import-2019"}
	if !slices.Equal(ids, want) {
		t.Fatalf("dirs = %v, want %v", ids, want)
	}
	if dirs, err := Discover(filepath.Join(root, "missing")); err != nil || dirs != nil {
		t.Fatalf("missing root: %v %v", dirs, err)
	}
}

func TestRecorderRoundTrip(t *testing.T) {
	dir, err := Create(t.TempDir(), "20240101-000000-aaaaaaaa")
	if err != nil {
		t.Fatal(err)
	}
	rec := NewRecorder(dir)
	if err := rec.RecordAlbum(CreatedAlbum{Title: "Rome", ID: "A1"}); err != nil {
		t.Fatal(err)
	}
	if err := rec.RecordAlbum(CreatedAlbum{Title: "Rome", ID: "A1"}); err != nil {
		t.Fatal(err)
	}
	if err := rec.RecordAlbum(CreatedAlbum{Title: "Paris", ID: "A2"}); err != nil {
		t.Fatal(err)
	}
	if err := rec.RecordImage(ImportedImage{PhotosID: "P1", MainPath: "/r/a.heic", VideoPath: "/r/a.mov", AlbumID: "A1"}); err != nil {
		t.Fatal(err)
	}
	if err := rec.RecordImage(ImportedImage{PhotosID: "P2", MainPath: "/r/b.jpg", AlbumID: "A1"}); err != nil {
		t.Fatal(err)
	}

	albums, err := ReadCreatedAlbums(dir)
	if err != nil || len(albums) != 2 || albums[1].ID != "A2" {
		t.Fatalf("albums = %+v, %v", albums, err)
	}
	images, err := ReadImportedImages(dir, nil)
	if err != nil || len(images) != 2 || images[0].VideoPath != "/r/a.mov" {
		t.Fatalf("images = %+v, %v", images, err)
	}
}

func TestReadImportedImagesTornLines(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		wantErr bool
	}{
		{"torn final line skipped", "{\"photosId\":\"P1\",\"mainPath\":\"a\",\"albumId\":\"A\"}\n{\"photosId\":\"P2\",\"ma", 1, false},
		{"blank lines ignored", "\n{\"photosId\":\"P1\",\"mainPath\":\"a\",\"albumId\":\"A\"}\n\n", 1, false},
		{"corrupt middle line fails", "{\"photosId\":\"P1\",\"mainPath\":\"a\",\"albumId\":\"A\"}\n{oops\n{\"photosId\":\"P2\",\"mainPath\":\"b\",\"albumId\":\"A\"}\n", 0, true},
		{"complete final line that is corrupt fails", "{\"photosId\":\"P1\",\"mainPath\":\"a\",\"albumId\":\"A\"}\n{oops}\n", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, _ := Create(t.TempDir(), "20240101-000000-aaaaaaaa")
			if err := os.WriteFile(dir.File(ImportedImagesFile), []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}
			images, err := ReadImportedImages(dir, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(images) != tt.want {
				t.Fatalf("got %d images, want %d", len(images), tt.want)
			}
		})
	}
}

func TestDecodeLegacy(t *testing.T) {
	body := []byte(`{"photosId":"P1","mainPath":"/a.jpg","albumId":"A"},
{"photosId":"P2","mainPath":"/b.heic","videoPath":"/b.mov","albumId":"A"},
`)
	images, err := DecodeLegacy(body)
	if err != nil {
		t.Fatalf("DecodeLegacy: %v", err)
	}
	if len(images) != 2 || images[1].VideoPath != "/b.mov" {
		t.Fatalf("unexpected images %+v", images)
	}
	if images, err := DecodeLegacy([]byte("  \n")); err != nil || images != nil {
		t.Fatalf("empty legacy file: %v %v", images, err)
	}

	dir, _ := Create(t.TempDir(), "20240101-000000-aaaaaaaa")
	if err := os.WriteFile(dir.File(LegacyImportedFile), body, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := NewRecorder(dir).RecordImage(ImportedImage{PhotosID: "P3", MainPath: "/c.jpg", AlbumID: "A"}); err != nil {
		t.Fatal(err)
	}
	all, err := ReadImportedImages(dir, nil)
	if err != nil || len(all) != 3 || all[2].PhotosID != "P3" {
		t.Fatalf("combined = %+v, %v", all, err)
	}
}

func TestAcquireIsExclusive(t *testing.T) {
	root := t.TempDir()
	first, err := Acquire(root)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := Acquire(root); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatal(err)
	}
	second, err := Acquire(root)
	if err != nil {
		t.Fatalf("re-acquire: %v", err)
	}
	_ = second.Release()
}
