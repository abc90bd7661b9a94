package runstate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// Artifact file names inside a run directory.
const (
	CreatedAlbumsFile  = "created_albums.json"
	ImportedImagesFile = "imported_images.jsonl"
	LegacyImportedFile = "imported_images.json"
	OutputFile         = "output.json"
	FinalFile          = "final.json"
	LogFile            = "run.log"
	lockFile           = ".lock"
)

var runIDPattern = regexp.MustCompile(`^\d{8}-\d{6}-[0-9a-f]{8}$`)

// NewRunID returns a sortable run identifier: UTC timestamp plus a short
// random suffix.
func NewRunID(now time.Time) string {
	return now.UTC().Format("20060102-150405") + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Dir is one run directory.
type Dir struct {
	ID   string
	Path string
}

// File returns the path of an artifact inside the run directory.
func (d Dir) File(name string) string {
	return filepath.Join(d.Path, name)
}

// Started parses the run's start time from its id.
func (d Dir) Started() (time.Time, bool) {
	if len(d.ID) < 15 {
		return time.Time{}, false
	}
	ts, err := time.Parse("20060102-150405", d.ID[:15])
	return ts, err == nil
}

// Create makes a new run directory under root.
func Create(root, id string) (Dir, error) {
	dir := Dir{ID: id, Path: filepath.Join(root, id)}
	if err := os.MkdirAll(dir.Path, 0o755); err != nil {
		return Dir{}, fmt.Errorf("create run dir: %w", err)
	}
	return dir, nil
}

// Discover lists run directories under root, ordered by name. A directory
// is a run when its name is a run id or when it holds any run artifact, so
// runs created under another naming scheme are still merged. A missing root
// has no runs.
func Discover(root string) ([]Dir, error) {
	entries, err := os.ReadDir(root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read runs dir: %w", err)
	}
	var dirs []Dir
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := Dir{ID: entry.Name(), Path: filepath.Join(root, entry.Name())}
		if !runIDPattern.MatchString(dir.ID) && !dir.hasArtifacts() {
			continue
		}
		dirs = append(dirs, dir)
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].ID < dirs[j].ID })
	return dirs, nil
}

var runArtifacts = []string{CreatedAlbumsFile, ImportedImagesFile, LegacyImportedFile, OutputFile, FinalFile}

func (d Dir) hasArtifacts() bool {
	for _, name := range runArtifacts {
		if _, err := os.Stat(d.File(name)); err == nil {
			return true
		}
	}
	return false
}

// ErrLocked is returned when another process holds the runs root.
var ErrLocked = errors.New("another reconciliation run holds the runs directory")

// Lock is an exclusive lock on a runs root.
type Lock struct {
	lock *flock.Flock
}

// Acquire takes the runs-root lock without blocking.
func Acquire(root string) (*Lock, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create runs dir: %w", err)
	}
	l := flock.New(filepath.Join(root, lockFile))
	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &Lock{lock: l}, nil
}

// Release drops the lock.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
