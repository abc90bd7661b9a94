package takeout

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"takeoutsync/internal/library"
	"takeoutsync/internal/logging"
	"takeoutsync/internal/manifest"
	"takeoutsync/internal/services"
)

// PhotosDirName is the per-part directory Google places albums under.
const PhotosDirName = "Google Photos"

// AlbumFolder is one album title and the directories holding its files.
type AlbumFolder struct {
	Name string
	Dirs []string
}

// MediaFile is a known media file found in an album directory.
type MediaFile struct {
	Path    string
	Kind    library.MediaKind
	Size    int64
	ModTime time.Time
}

// Listing is the classified content of an album folder.
type Listing struct {
	Media          []MediaFile
	Manifests      []string
	AlbumManifests []string
	Remaining      []string
}

// PhotosDirs returns the "Google Photos" directory of every part under root.
// Root may also be a single part or a "Google Photos" directory itself. Parts
// without the directory are logged and skipped.
func PhotosDirs(root string, logger *slog.Logger) ([]string, error) {
	logger = logging.NewComponentLogger(logger, "takeout")
	info, err := os.Stat(root)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "takeout", "stat", root, err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "takeout", "stat", root+" is not a directory", nil)
	}
	if filepath.Base(filepath.Clean(root)) == PhotosDirName {
		return []string{root}, nil
	}
	if isDir(filepath.Join(root, PhotosDirName)) {
		return []string{filepath.Join(root, PhotosDirName)}, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "takeout", "read dir", root, err)
	}
	var dirs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		candidate := filepath.Join(root, entry.Name(), PhotosDirName)
		if !isDir(candidate) {
			logging.WarnWithContext(logger, "ignoring takeout part without Google Photos directory", "takeout_part_skipped",
				logging.String("path", candidate),
				logging.String(logging.FieldImpact, "part contributes no albums"),
				logging.String(logging.FieldErrorHint, "confirm the archive was fully extracted"),
			)
			continue
		}
		dirs = append(dirs, candidate)
	}
	if len(dirs) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "takeout", "discover", "no Google Photos directories under "+root, nil)
	}
	return dirs, nil
}

// AlbumFolders lists album directories of every photos dir, merging those
// with the same leaf name. Order follows first appearance.
func AlbumFolders(photosDirs []string) ([]AlbumFolder, error) {
	var folders []AlbumFolder
	index := make(map[string]int)
	for _, dir := range photosDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "takeout", "read dir", dir, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			name := entry.Name()
			full := filepath.Join(dir, name)
			if i, ok := index[name]; ok {
				folders[i].Dirs = append(folders[i].Dirs, full)
				continue
			}
			index[name] = len(folders)
			folders = append(folders, AlbumFolder{Name: name, Dirs: []string{full}})
		}
	}
	return folders, nil
}

// Scan classifies the files of every directory of folder. Files are listed in
// directory order, then by name, so enumeration is stable across runs.
func Scan(folder AlbumFolder) (Listing, error) {
	var listing Listing
	for _, dir := range folder.Dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return Listing{}, services.Wrap(services.ErrValidation, "takeout", "read album", dir, err)
		}
		for _, entry := range entries {
			name := entry.Name()
			path := filepath.Join(dir, name)
			if entry.IsDir() {
				continue
			}
			switch {
			case strings.HasPrefix(name, "."):
				listing.Remaining = append(listing.Remaining, path)
			case strings.EqualFold(name, manifest.AlbumFileName):
				listing.AlbumManifests = append(listing.AlbumManifests, path)
			case manifest.IsItemManifest(name):
				listing.Manifests = append(listing.Manifests, path)
			case IsKnown(name):
				kind, _ := Classify(name)
				info, err := entry.Info()
				if err != nil {
					if errors.Is(err, fs.ErrNotExist) {
						continue
					}
					return Listing{}, services.Wrap(services.ErrValidation, "takeout", "stat", path, err)
				}
				listing.Media = append(listing.Media, MediaFile{Path: path, Kind: kind, Size: info.Size(), ModTime: info.ModTime()})
			default:
				listing.Remaining = append(listing.Remaining, path)
			}
		}
	}
	return listing, nil
}

// MediaPaths returns the paths of known media under dir, recursively.
func MediaPaths(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsKnown(d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return paths, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
