package dupegroups

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"howett.net/plist"

	"takeoutsync/internal/logging"
	"takeoutsync/internal/manifest"
	"takeoutsync/internal/services"
	"takeoutsync/internal/takeout"
)

// libraryMarker identifies files inside a Photos library bundle when the
// export carries no media item id.
const libraryMarker = ".photoslibrary"

// File is one member of a duplicate group.
type File struct {
	Path        string `plist:"path"`
	Marked      bool   `plist:"isMarked"`
	LibraryPath string `plist:"libraryPath"`
	MediaItemID string `plist:"mediaItemId"`
}

// InLibrary reports whether the file lives in the destination library.
func (f File) InLibrary() bool {
	return f.MediaItemID != "" || strings.Contains(f.Path, libraryMarker)
}

// Group is one set of files PhotoSweeper considers duplicates.
type Group struct {
	Name  string `plist:"GroupName"`
	Files []File `plist:"Files"`
}

// Split separates library members from takeout members.
func (g Group) Split() (library, takeoutFiles []File) {
	for _, f := range g.Files {
		if f.InLibrary() {
			library = append(library, f)
		} else {
			takeoutFiles = append(takeoutFiles, f)
		}
	}
	return library, takeoutFiles
}

type export struct {
	Results []Group `plist:"Results"`
}

// Decode reads a PhotoSweeper XML or binary plist export. Exports spanning
// more than one Photos library are rejected.
func Decode(r io.ReadSeeker) ([]Group, error) {
	var out export
	if err := plist.NewDecoder(r).Decode(&out); err != nil {
		return nil, services.Wrap(services.ErrValidation, "dupegroups", "decode", "", err)
	}
	var libraries []string
	for _, g := range out.Results {
		for _, f := range g.Files {
			if f.LibraryPath != "" && !slices.Contains(libraries, f.LibraryPath) {
				libraries = append(libraries, f.LibraryPath)
			}
		}
	}
	if len(libraries) > 1 {
		return nil, services.Wrap(services.ErrValidation, "dupegroups", "decode",
			fmt.Sprintf("multiple photo libraries in export: %s", strings.Join(libraries, ", ")), nil)
	}
	return out.Results, nil
}

// Load decodes the export at path.
func Load(path string) ([]Group, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "dupegroups", "open", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Album is a takeout album title and its directories.
type Album struct {
	Title string
	Dirs  []string
}

// AlbumsFromTakeout lists the albums under root, titled by their
// metadata.json when present.
func AlbumsFromTakeout(root string, logger *slog.Logger) ([]Album, error) {
	dirs, err := takeout.PhotosDirs(root, logger)
	if err != nil {
		return nil, err
	}
	folders, err := takeout.AlbumFolders(dirs)
	if err != nil {
		return nil, err
	}
	albums := make([]Album, 0, len(folders))
	for _, folder := range folders {
		title := folder.Name
		for _, dir := range folder.Dirs {
			meta, err := manifest.ParseAlbum(filepath.Join(dir, manifest.AlbumFileName))
			if err == nil && meta.Title != "" {
				title = meta.Title
				break
			}
		}
		albums = append(albums, Album{Title: title, Dirs: folder.Dirs})
	}
	return albums, nil
}

// Assignment is a group filed under an album. Title is empty when no takeout
// member could be placed.
type Assignment struct {
	Title  string
	Groups []Group
}

// Matcher files duplicate groups under takeout albums.
type Matcher struct {
	albums []Album
	prefix string
	logger *slog.Logger
}

// NewMatcher constructs a Matcher. Titles starting with defaultPrefix (the
// automatic "Photos from <year>" albums) lose ties to curated titles.
func NewMatcher(albums []Album, defaultPrefix string, logger *slog.Logger) *Matcher {
	return &Matcher{albums: albums, prefix: defaultPrefix, logger: logging.NewComponentLogger(logger, "dupegroups")}
}

// AlbumFor returns the title of the album holding path.
func (m *Matcher) AlbumFor(path string) (string, bool) {
	dir := filepath.Clean(filepath.Dir(path))
	for _, album := range m.albums {
		for _, d := range album.Dirs {
			if filepath.Clean(d) == dir {
				return album.Title, true
			}
		}
	}
	return "", false
}

// Title picks the album for a group from its takeout members.
func (m *Matcher) Title(g Group) string {
	_, files := g.Split()
	var titles []string
	for _, f := range files {
		title, ok := m.AlbumFor(f.Path)
		if !ok {
			logging.WarnWithContext(m.logger, "no album for takeout file", "dupes_unplaced",
				logging.String("path", f.Path),
				logging.String("group", g.Name),
			)
			continue
		}
		titles = append(titles, title)
	}
	switch len(titles) {
	case 0:
		return ""
	case 1:
		return titles[0]
	}
	for _, t := range titles {
		if m.prefix == "" || !strings.HasPrefix(t, m.prefix) {
			return t
		}
	}
	logging.WarnWithContext(m.logger, "only default albums hold group; choosing the first", "dupes_tie",
		logging.String("group", g.Name),
		logging.Strings("titles", titles),
	)
	return titles[0]
}

// Assign groups by album title in first-seen order.
func (m *Matcher) Assign(groups []Group) []Assignment {
	var out []Assignment
	index := make(map[string]int)
	for _, g := range groups {
		title := m.Title(g)
		if i, ok := index[title]; ok {
			out[i].Groups = append(out[i].Groups, g)
			continue
		}
		index[title] = len(out)
		out = append(out, Assignment{Title: title, Groups: []Group{g}})
	}
	return out
}
