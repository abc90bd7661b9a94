package testsupport

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"takeoutsync/internal/destination"
	"takeoutsync/internal/services"
	"takeoutsync/internal/textutil"
)

// FakeDestination is an in-memory destination library.
type FakeDestination struct {
	mu       sync.Mutex
	photos   []destination.PhotoInfo
	albums   map[string]string
	members  map[string][]string
	nextID   int
	Searches int
	Imports  [][]string
	Restarts int
	// FailImport makes ImportFiles fail once the given number of media
	// items has been imported. Negative disables the failure.
	FailImport int
}

// NewFakeDestination seeds the fake with existing photos.
func NewFakeDestination(photos ...destination.PhotoInfo) *FakeDestination {
	return &FakeDestination{
		photos:     append([]destination.PhotoInfo(nil), photos...),
		albums:     make(map[string]string),
		members:    make(map[string][]string),
		FailImport: -1,
	}
}

// AddAlbum creates an album with the given id and members.
func (f *FakeDestination) AddAlbum(title, id string, members ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.albums[title] = id
	f.members[id] = append(f.members[id], members...)
}

// Members returns the media ids in the album titled title.
func (f *FakeDestination) Members(title string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.members[f.albums[title]]...)
}

// Photos returns every media item in the fake library.
func (f *FakeDestination) Photos() []destination.PhotoInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]destination.PhotoInfo(nil), f.photos...)
}

// Search implements destination.Searcher. Name queries match on the stem
// with any dedup suffix removed; time queries match the inclusive window.
func (f *FakeDestination) Search(_ context.Context, queries []destination.Query) ([][]destination.PhotoInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Searches++
	out := make([][]destination.PhotoInfo, len(queries))
	for i, q := range queries {
		for _, p := range f.photos {
			switch q.Kind {
			case destination.ByName:
				want := textutil.Fold(textutil.Stem(textutil.StripDedupSuffix(q.Name)))
				got := textutil.Fold(textutil.Stem(textutil.StripDedupSuffix(p.Filename)))
				if want != "" && strings.Contains(got, want) {
					out[i] = append(out[i], p)
				}
			case destination.ByTime:
				if !p.Timestamp.Before(q.From) && !p.Timestamp.After(q.To) {
					out[i] = append(out[i], p)
				}
			}
		}
	}
	return out, nil
}

// GetInfo implements destination.InfoReader.
func (f *FakeDestination) GetInfo(_ context.Context, ids []string) ([]destination.PhotoInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]destination.PhotoInfo, 0, len(ids))
	for _, id := range ids {
		idx := slices.IndexFunc(f.photos, func(p destination.PhotoInfo) bool { return p.ID == id })
		if idx < 0 {
			return nil, services.Wrap(services.ErrNotFound, "fake", "get info", id, nil)
		}
		out = append(out, f.photos[idx])
	}
	return out, nil
}

// AlbumItemCount implements destination.AlbumReader.
func (f *FakeDestination) AlbumItemCount(_ context.Context, albumID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.albums {
		if id == albumID {
			return len(f.members[id]), nil
		}
	}
	return 0, services.Wrap(services.ErrNotFound, "fake", "album count", albumID, nil)
}

// CreateOrGetAlbum implements destination.Client.
func (f *FakeDestination) CreateOrGetAlbum(_ context.Context, title string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.albumLocked(title), nil
}

func (f *FakeDestination) albumLocked(title string) string {
	if id, ok := f.albums[title]; ok {
		return id
	}
	f.nextID++
	id := fmt.Sprintf("ALBUM-%d", f.nextID)
	f.albums[title] = id
	return id
}

// AddToAlbum implements destination.Client.
func (f *FakeDestination) AddToAlbum(_ context.Context, title string, ids []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	albumID := f.albumLocked(title)
	added := 0
	for _, id := range ids {
		if !slices.Contains(f.members[albumID], id) {
			f.members[albumID] = append(f.members[albumID], id)
			added++
		}
	}
	return added, nil
}

// ImportFiles implements destination.Client. Files sharing a directory and
// stem become one media item, the way a live photo imports.
func (f *FakeDestination) ImportFiles(_ context.Context, title string, paths []string) ([]destination.ImportedPhoto, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	albumID := f.albumLocked(title)
	f.Imports = append(f.Imports, append([]string(nil), paths...))
	var out []destination.ImportedPhoto
	seen := make(map[string]bool)
	for _, path := range paths {
		group := filepath.Join(filepath.Dir(path), textutil.Stem(path))
		if seen[group] {
			continue
		}
		seen[group] = true
		if f.FailImport == 0 {
			return out, services.Wrap(services.ErrExternalTool, "fake", "import", path, nil)
		}
		if f.FailImport > 0 {
			f.FailImport--
		}
		f.nextID++
		id := fmt.Sprintf("PHOTO-%d", f.nextID)
		f.photos = append(f.photos, destination.PhotoInfo{ID: id, Filename: filepath.Base(path)})
		f.members[albumID] = append(f.members[albumID], id)
		out = append(out, destination.ImportedPhoto{PhotoID: id, AlbumID: albumID})
	}
	return out, nil
}

// Restart implements destination.Restarter.
func (f *FakeDestination) Restart(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Restarts++
	return nil
}
