package organize

import (
	"context"
	"path/filepath"
	"testing"

	"takeoutsync/internal/destination"
	"takeoutsync/internal/library"
	"takeoutsync/internal/runstate"
	"takeoutsync/internal/testsupport"
)

func absentItem(t *testing.T, paths ...string) *library.ContentItem {
	t.Helper()
	item, err := library.NewItem(library.Part{Kind: library.KindImage, Path: paths[0]})
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) > 1 {
		_, _ = item.Add(library.Part{Kind: library.KindVideo, Path: paths[1]})
	}
	item.MarkAbsent()
	return item
}

func boundItem(t *testing.T, path, id string) *library.ContentItem {
	t.Helper()
	item, _ := library.NewItem(library.Part{Kind: library.KindImage, Path: path})
	if err := item.Bind(id); err != nil {
		t.Fatal(err)
	}
	return item
}

func newRecorder(t *testing.T) *runstate.Recorder {
	t.Helper()
	dir, err := runstate.Create(t.TempDir(), "20240101-000000-aaaaaaaa")
	if err != nil {
		t.Fatal(err)
	}
	return runstate.NewRecorder(dir)
}

func TestApplyAddsAndImports(t *testing.T) {
	fake := testsupport.NewFakeDestination(destination.PhotoInfo{ID: "EXISTING", Filename: "old.jpg"})
	live := absentItem(t, "/r/IMG_1.HEIC", "/r/IMG_1.MOV")
	still := absentItem(t, "/r/IMG_2.JPG")
	album := &library.Album{Title: "Rome", Items: []*library.ContentItem{boundItem(t, "/r/old.jpg", "EXISTING"), live, still}}
	lib := &library.Library{Albums: []*library.Album{album}}
	rec := newRecorder(t)

	res, err := New(fake, rec, Options{ChunkSize: 200, Import: true}, nil).Apply(context.Background(), lib)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.Added != 1 || res.Imported != 2 || res.Unmapped != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if album.Binding == nil || album.Binding.ID == "" {
		t.Fatal("album was not bound")
	}
	if live.Destination().State() != library.Bound || still.Destination().State() != library.Bound {
		t.Fatal("imported items must be bound")
	}

	albums, _ := runstate.ReadCreatedAlbums(rec.Dir())
	if len(albums) != 1 || albums[0].Title != "Rome" {
		t.Fatalf("unexpected album records %+v", albums)
	}
	images, _ := runstate.ReadImportedImages(rec.Dir(), nil)
	if len(images) != 2 || images[0].MainPath != "/r/IMG_1.HEIC" || images[0].VideoPath != "/r/IMG_1.MOV" {
		t.Fatalf("unexpected image records %+v", images)
	}
	if len(fake.Members("Rome")) != 3 {
		t.Fatalf("expected three album members, got %v", fake.Members("Rome"))
	}
}

func TestApplySkipsAbsentOutsideImportMode(t *testing.T) {
	fake := testsupport.NewFakeDestination()
	album := &library.Album{Title: "Rome", Items: []*library.ContentItem{absentItem(t, "/r/a.jpg")}}
	res, err := New(fake, nil, Options{}, nil).Apply(context.Background(), &library.Library{Albums: []*library.Album{album}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Skipped != 1 || len(fake.Imports) != 0 {
		t.Fatalf("unexpected result %+v imports=%v", res, fake.Imports)
	}
}

func TestApplyWhatIfMutatesNothing(t *testing.T) {
	fake := testsupport.NewFakeDestination()
	item := absentItem(t, "/r/a.jpg")
	album := &library.Album{Title: "Rome", Items: []*library.ContentItem{item}}
	rec := newRecorder(t)

	if _, err := New(fake, rec, Options{Import: true, WhatIf: true}, nil).Apply(context.Background(), &library.Library{Albums: []*library.Album{album}}); err != nil {
		t.Fatal(err)
	}
	if len(fake.Imports) != 0 || album.Binding != nil || item.Destination().State() != library.Absent {
		t.Fatal("what-if mode changed state")
	}
	if albums, _ := runstate.ReadCreatedAlbums(rec.Dir()); len(albums) != 0 {
		t.Fatalf("what-if recorded albums %+v", albums)
	}
}

func TestImportFailureKeepsCompletedRecords(t *testing.T) {
	fake := testsupport.NewFakeDestination()
	fake.FailImport = 1
	first := absentItem(t, "/r/a.jpg")
	second := absentItem(t, "/r/b.jpg")
	album := &library.Album{Title: "Rome", Items: []*library.ContentItem{first, second}}
	rec := newRecorder(t)

	_, err := New(fake, rec, Options{Import: true}, nil).Apply(context.Background(), &library.Library{Albums: []*library.Album{album}})
	if err == nil {
		t.Fatal("expected import failure")
	}
	if first.Destination().State() != library.Bound || second.Destination().State() != library.Absent {
		t.Fatalf("unexpected states %v %v", first.Destination(), second.Destination())
	}
	images, _ := runstate.ReadImportedImages(rec.Dir(), nil)
	if len(images) != 1 || images[0].MainPath != "/r/a.jpg" {
		t.Fatalf("unexpected records %+v", images)
	}
}

func TestImportRestartsDestination(t *testing.T) {
	fake := testsupport.NewFakeDestination()
	var items []*library.ContentItem
	for _, p := range []string{"/r/a.jpg", "/r/b.jpg", "/r/c.jpg", "/r/d.jpg", "/r/e.jpg"} {
		items = append(items, absentItem(t, p))
	}
	album := &library.Album{Title: "Rome", Items: items}

	res, err := New(fake, nil, Options{ChunkSize: 2, RestartEvery: 2, Import: true}, nil).Apply(context.Background(), &library.Library{Albums: []*library.Album{album}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Imported != 5 || len(fake.Imports) != 3 || fake.Restarts != 2 {
		t.Fatalf("imported=%d chunks=%d restarts=%d", res.Imported, len(fake.Imports), fake.Restarts)
	}
}

// splitClient imports the image and video of a live photo as separate media
// items and rejects every other file.
type splitClient struct {
	*testsupport.FakeDestination
	infos map[string]destination.PhotoInfo
}

func (c *splitClient) ImportFiles(_ context.Context, _ string, paths []string) ([]destination.ImportedPhoto, error) {
	var out []destination.ImportedPhoto
	for _, p := range paths {
		name := filepath.Base(p)
		if name == "b.jpg" {
			continue
		}
		id := "ID-" + name
		c.infos[id] = destination.PhotoInfo{ID: id, Filename: name}
		out = append(out, destination.ImportedPhoto{PhotoID: id, AlbumID: "ALB"})
	}
	return out, nil
}

func (c *splitClient) GetInfo(_ context.Context, ids []string) ([]destination.PhotoInfo, error) {
	out := make([]destination.PhotoInfo, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.infos[id])
	}
	return out, nil
}

func TestImportMapsResultsByFilename(t *testing.T) {
	client := &splitClient{FakeDestination: testsupport.NewFakeDestination(), infos: make(map[string]destination.PhotoInfo)}
	live := absentItem(t, "/r/a.heic", "/r/a.mov")
	still := absentItem(t, "/r/b.jpg")
	album := &library.Album{Title: "Rome", Items: []*library.ContentItem{live, still}}
	rec := newRecorder(t)

	res, err := New(client, rec, Options{ChunkSize: 200, Import: true}, nil).Apply(context.Background(), &library.Library{Albums: []*library.Album{album}})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if id, ok := live.Destination().ID(); !ok || id != "ID-a.heic" {
		t.Fatalf("live photo bound to %v, want ID-a.heic", live.Destination())
	}
	if still.Destination().State() != library.Absent {
		t.Fatalf("rejected file must stay absent, got %v", still.Destination())
	}
	if res.Imported != 1 || res.Unmapped != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	images, _ := runstate.ReadImportedImages(rec.Dir(), nil)
	if len(images) != 1 || images[0].PhotosID != "ID-a.heic" || images[0].MainPath != "/r/a.heic" {
		t.Fatalf("unexpected records %+v", images)
	}
}
