package metadata

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"takeoutsync/internal/library"
	"takeoutsync/internal/metacache"
	"takeoutsync/internal/takeout"
)

type fakeExtractor struct {
	mu         sync.Mutex
	images     map[string]ImageRecord
	videos     map[string]VideoRecord
	imageCalls int
	videoCalls int
	videoErr   error
}

func (f *fakeExtractor) Images(_ context.Context, paths []string) (map[string]ImageRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imageCalls++
	out := make(map[string]ImageRecord)
	for _, p := range paths {
		if rec, ok := f.images[p]; ok {
			out[p] = rec
		}
	}
	return out, nil
}

func (f *fakeExtractor) Video(_ context.Context, path string) (VideoRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videoCalls++
	if f.videoErr != nil {
		return VideoRecord{}, f.videoErr
	}
	return f.videos[path], nil
}

var (
	captured = time.Date(2020, 2, 1, 23, 58, 42, 0, time.UTC)
	modified = time.Date(2021, 5, 5, 10, 0, 0, 0, time.UTC)
)

func fixture() (*fakeExtractor, AlbumFiles) {
	ex := &fakeExtractor{
		images: map[string]ImageRecord{
			"/r/IMG_1.HEIC": {
				ContentID:   "CID-1",
				CaptureTime: captured,
				Location:    &library.GeoPoint{Latitude: 41.90283749, Longitude: 12.49636111},
			},
		},
		videos: map[string]VideoRecord{
			"/r/IMG_1.MOV": {ContentID: "CID-1", CreationTime: captured.Add(time.Second), Size: 0},
		},
	}
	album := AlbumFiles{Album: "Rome", Files: []takeout.MediaFile{
		{Path: "/r/IMG_1.HEIC", Kind: library.KindImage, Size: 1000, ModTime: modified},
		{Path: "/r/IMG_1.MOV", Kind: library.KindVideo, Size: 5000, ModTime: modified},
	}}
	return ex, album
}

func TestReadAlbumNormalizes(t *testing.T) {
	ex, album := fixture()
	md, err := NewReader(ex, nil).ReadAlbum(context.Background(), album)
	if err != nil {
		t.Fatalf("ReadAlbum: %v", err)
	}
	img := md["/r/IMG_1.HEIC"]
	if img.ContentID != "CID-1" || !img.CaptureTime.Equal(captured) || img.Size != 1000 {
		t.Fatalf("unexpected image metadata %+v", img)
	}
	if !img.ModifyTime.Equal(modified) {
		t.Fatalf("expected filesystem mtime fallback, got %v", img.ModifyTime)
	}
	if img.Location == nil || img.Location.Latitude != 41.902837 || img.Location.Longitude != 12.496361 {
		t.Fatalf("expected rounded coordinates, got %+v", img.Location)
	}
	vid := md["/r/IMG_1.MOV"]
	if vid.Size != 5000 {
		t.Fatalf("expected filesystem size when container omits it, got %d", vid.Size)
	}
	if !vid.CaptureTime.Equal(captured.Add(time.Second)) {
		t.Fatalf("unexpected video capture time %v", vid.CaptureTime)
	}
}

func TestReadAlbumClassificationFailures(t *testing.T) {
	ex, album := fixture()
	delete(ex.images, "/r/IMG_1.HEIC")
	_, err := NewReader(ex, nil).ReadAlbum(context.Background(), album)
	if !IsClassification(err) {
		t.Fatalf("expected classification error for missing image record, got %v", err)
	}

	ex, album = fixture()
	ex.videoErr = errors.New("ffprobe exploded")
	_, err = NewReader(ex, nil).ReadAlbum(context.Background(), album)
	var cerr *ClassificationError
	if !errors.As(err, &cerr) || cerr.Kind != library.KindVideo {
		t.Fatalf("expected video classification error, got %v", err)
	}
}

func TestReadAlbumUsesCache(t *testing.T) {
	store, err := metacache.Open(filepath.Join(t.TempDir(), "metadata.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ex, album := fixture()
	reader := NewReader(ex, nil, WithCache(store))
	first, err := reader.ReadAlbum(context.Background(), album)
	if err != nil {
		t.Fatal(err)
	}
	second, err := reader.ReadAlbum(context.Background(), album)
	if err != nil {
		t.Fatal(err)
	}
	if ex.imageCalls != 1 || ex.videoCalls != 1 {
		t.Fatalf("expected cached second read, got image=%d video=%d calls", ex.imageCalls, ex.videoCalls)
	}
	if second["/r/IMG_1.HEIC"].ContentID != first["/r/IMG_1.HEIC"].ContentID {
		t.Fatal("cached metadata differs")
	}
}

func TestReadAlbumsKeepsOrder(t *testing.T) {
	ex, rome := fixture()
	ex.images["/p/a.jpg"] = ImageRecord{CaptureTime: captured}
	paris := AlbumFiles{Album: "Paris", Files: []takeout.MediaFile{{Path: "/p/a.jpg", Kind: library.KindImage, Size: 7}}}

	out, err := NewReader(ex, nil, WithConcurrency(4)).ReadAlbums(context.Background(), []AlbumFiles{rome, paris})
	if err != nil {
		t.Fatalf("ReadAlbums: %v", err)
	}
	if len(out) != 2 || len(out[0]) != 2 || out[1]["/p/a.jpg"].Size != 7 {
		t.Fatalf("unexpected results %+v", out)
	}
}
