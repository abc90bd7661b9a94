package runstate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"takeoutsync/internal/library"
	"takeoutsync/internal/takeout"
	"takeoutsync/internal/testsupport"
)

func testLibrary(t *testing.T) (*library.Library, *library.ContentItem, *library.ContentItem) {
	t.Helper()
	live, _ := library.NewItem(library.Part{Kind: library.KindImage, Path: "/r/a.heic"})
	_, _ = live.Add(library.Part{Kind: library.KindVideo, Path: "/r/a.mov"})
	still, _ := library.NewItem(library.Part{Kind: library.KindImage, Path: "/r/b.jpg"})
	lib := &library.Library{}
	_ = lib.Add(&library.Album{Title: "Rome", Items: []*library.ContentItem{live, still}})
	_ = lib.Add(&library.Album{Title: "Paris"})
	return lib, live, still
}

func writeRun(t *testing.T, root, id string, albums []CreatedAlbum, images []ImportedImage) Dir {
	t.Helper()
	dir, err := Create(root, id)
	if err != nil {
		t.Fatal(err)
	}
	rec := NewRecorder(dir)
	for _, a := range albums {
		if err := rec.RecordAlbum(a); err != nil {
			t.Fatal(err)
		}
	}
	for _, img := range images {
		if err := rec.RecordImage(img); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestMergeBindsAlbumsAndItems(t *testing.T) {
	root := t.TempDir()
	writeRun(t, root, "20240101-000000-aaaaaaaa",
		[]CreatedAlbum{{Title: "Rome", ID: "A1"}},
		[]ImportedImage{{PhotosID: "P1", MainPath: "/r/a.heic", VideoPath: "/r/a.mov", AlbumID: "A1"}},
	)
	writeRun(t, root, "20240102-000000-bbbbbbbb",
		[]CreatedAlbum{{Title: "Rome", ID: "A1"}},
		[]ImportedImage{
			{PhotosID: "P1", MainPath: "/r/a.heic", AlbumID: "A1"},
			{PhotosID: "P2", MainPath: "/r/b.jpg", AlbumID: "A1"},
		},
	)
	dirs, _ := Discover(root)

	fake := testsupport.NewFakeDestination()
	fake.AddAlbum("Rome", "A1", "P1", "P2", "P9")
	lib, live, still := testLibrary(t)

	stats, err := NewMerger(fake, takeout.Filter{}, nil).Merge(context.Background(), lib, dirs)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if stats.Runs != 2 || stats.Images != 3 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	rome := lib.Album("Rome")
	if rome.Binding == nil || rome.Binding.ID != "A1" || rome.Binding.OriginalItemCount != 3 {
		t.Fatalf("unexpected binding %+v", rome.Binding)
	}
	if id, _ := live.Destination().ID(); id != "P1" {
		t.Fatalf("live bound to %q", id)
	}
	if id, _ := still.Destination().ID(); id != "P2" {
		t.Fatalf("still bound to %q", id)
	}
}

func TestMergeInconsistencies(t *testing.T) {
	tests := []struct {
		name   string
		albums []CreatedAlbum
		images []ImportedImage
		kind   string
	}{
		{"unknown album title", []CreatedAlbum{{Title: "Tokyo", ID: "A9"}}, nil, "unknown_album"},
		{"unknown album id", []CreatedAlbum{{Title: "Rome", ID: "A1"}}, []ImportedImage{{PhotosID: "P1", MainPath: "/r/a.heic", AlbumID: "A7"}}, "unknown_album"},
		{"unknown item", []CreatedAlbum{{Title: "Rome", ID: "A1"}}, []ImportedImage{{PhotosID: "P1", MainPath: "/r/zzz.heic", AlbumID: "A1"}}, "unknown_item"},
		{"conflicting item id", []CreatedAlbum{{Title: "Rome", ID: "A1"}}, []ImportedImage{
			{PhotosID: "P1", MainPath: "/r/a.heic", AlbumID: "A1"},
			{PhotosID: "P5", MainPath: "/r/a.mov", AlbumID: "A1"},
		}, "item_conflict"},
		{"conflicting album id", []CreatedAlbum{{Title: "Rome", ID: "A1"}, {Title: "Rome", ID: "A2"}}, nil, "album_conflict"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeRun(t, root, "20240101-000000-aaaaaaaa", tt.albums, tt.images)
			dirs, _ := Discover(root)
			fake := testsupport.NewFakeDestination()
			fake.AddAlbum("Rome", "A1")
			fake.AddAlbum("Rome 2", "A2")
			lib, _, _ := testLibrary(t)

			_, err := NewMerger(fake, takeout.Filter{}, nil).Merge(context.Background(), lib, dirs)
			var merr *MergeError
			if !errors.As(err, &merr) || !errors.Is(err, ErrInconsistent) {
				t.Fatalf("expected merge error, got %v", err)
			}
			if merr.Kind != tt.kind {
				t.Fatalf("kind = %s, want %s", merr.Kind, tt.kind)
			}
		})
	}
}

func TestMergeSkipsFilteredAlbums(t *testing.T) {
	root := t.TempDir()
	writeRun(t, root, "20240101-000000-aaaaaaaa",
		[]CreatedAlbum{{Title: "Tokyo", ID: "T1"}, {Title: "Rome", ID: "A1"}},
		[]ImportedImage{
			{PhotosID: "X", MainPath: "/t/x.jpg", AlbumID: "T1"},
			{PhotosID: "P2", MainPath: "/r/b.jpg", AlbumID: "A1"},
		},
	)
	dirs, _ := Discover(root)
	lib, _, still := testLibrary(t)

	stats, err := NewMerger(nil, takeout.Filter{Exclude: []string{"Tokyo"}}, nil).Merge(context.Background(), lib, dirs)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if stats.Filtered != 2 || stats.Images != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if id, _ := still.Destination().ID(); id != "P2" {
		t.Fatalf("still bound to %q", id)
	}
}

func TestMergeReadsLegacyRunDirectory(t *testing.T) {
	root := t.TempDir()
	legacy := filepath.Join(root, "import-2019")
	if err := os.MkdirAll(legacy, 0o755); err != nil {
		t.Fatal(err)
	}
	albums := `[{"title":"Rome","id":"A1"}]`
	images := `{"photosId":"P1","mainPath":"/r/a.heic","videoPath":"/r/a.mov","albumId":"A1"},
{"photosId":"P2","mainPath":"/r/b.jpg","albumId":"A1"},
`
	if err := os.WriteFile(filepath.Join(legacy, CreatedAlbumsFile), []byte(albums), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(legacy, LegacyImportedFile), []byte(images), 0o644); err != nil {
		t.Fatal(err)
	}

	dirs, err := Discover(root)
	if err != nil || len(dirs) != 1 {
		t.Fatalf("Discover = %+v, %v", dirs, err)
	}
	fake := testsupport.NewFakeDestination()
	fake.AddAlbum("Rome", "A1", "P1", "P2")
	lib, live, still := testLibrary(t)

	stats, err := NewMerger(fake, takeout.Filter{}, nil).Merge(context.Background(), lib, dirs)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if stats.Runs != 1 || stats.Albums != 1 || stats.Images != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if id, _ := live.Destination().ID(); id != "P1" {
		t.Fatalf("live bound to %q", id)
	}
	if id, _ := still.Destination().ID(); id != "P2" {
		t.Fatalf("still bound to %q", id)
	}
}
