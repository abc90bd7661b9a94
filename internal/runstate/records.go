package runstate

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"takeoutsync/internal/fileutil"
	"takeoutsync/internal/logging"
)

// CreatedAlbum records a destination album created or adopted by a run.
type CreatedAlbum struct {
	Title string `json:"title"`
	ID    string `json:"id"`
}

// ImportedImage records one media item imported by a run.
type ImportedImage struct {
	PhotosID  string `json:"photosId"`
	MainPath  string `json:"mainPath"`
	VideoPath string `json:"videoPath,omitempty"`
	AlbumID   string `json:"albumId"`
}

// Recorder appends records to a run directory. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	dir    Dir
	albums []CreatedAlbum
}

// NewRecorder starts recording into dir.
func NewRecorder(dir Dir) *Recorder {
	return &Recorder{dir: dir}
}

// Dir returns the run directory.
func (r *Recorder) Dir() Dir { return r.dir }

// RecordAlbum appends a created album. The file is rewritten atomically so a
// crash leaves either the old or the new array.
func (r *Recorder) RecordAlbum(album CreatedAlbum) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.albums {
		if existing == album {
			return nil
		}
	}
	next := append(append([]CreatedAlbum(nil), r.albums...), album)
	if err := fileutil.WriteJSONAtomic(r.dir.File(CreatedAlbumsFile), next); err != nil {
		return fmt.Errorf("record album %q: %w", album.Title, err)
	}
	r.albums = next
	return nil
}

// RecordImage appends an imported media record as one JSON line.
func (r *Recorder) RecordImage(image ImportedImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := fileutil.AppendJSONLine(r.dir.File(ImportedImagesFile), image); err != nil {
		return fmt.Errorf("record image %s: %w", image.MainPath, err)
	}
	return nil
}

// ReadCreatedAlbums loads created_albums.json. A missing file has no records.
func ReadCreatedAlbums(dir Dir) ([]CreatedAlbum, error) {
	data, err := os.ReadFile(dir.File(CreatedAlbumsFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", CreatedAlbumsFile, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var albums []CreatedAlbum
	if err := json.Unmarshal(data, &albums); err != nil {
		return nil, fmt.Errorf("decode %s in %s: %w", CreatedAlbumsFile, dir.ID, err)
	}
	return albums, nil
}

// ReadImportedImages loads imported media records from the NDJSON file and,
// when present, the legacy comma-terminated file. A torn final NDJSON line is
// skipped with a warning; a malformed line elsewhere is an error.
func ReadImportedImages(dir Dir, logger *slog.Logger) ([]ImportedImage, error) {
	legacy, err := readLegacyImages(dir)
	if err != nil {
		return nil, err
	}
	current, err := readNDJSONImages(dir, logger)
	if err != nil {
		return nil, err
	}
	return append(legacy, current...), nil
}

func readNDJSONImages(dir Dir, logger *slog.Logger) ([]ImportedImage, error) {
	path := dir.File(ImportedImagesFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ImportedImagesFile, err)
	}

	var (
		images []ImportedImage
		lines  [][]byte
	)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		lines = append(lines, append([]byte(nil), line...))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", ImportedImagesFile, err)
	}
	for i, line := range lines {
		var image ImportedImage
		if err := json.Unmarshal(line, &image); err != nil {
			if i == len(lines)-1 && !bytes.HasSuffix(data, []byte("\n")) {
				logging.WarnWithContext(logging.NewComponentLogger(logger, "runstate"), "skipping torn record", "runstate_torn_line",
					logging.String(logging.FieldRunID, dir.ID),
					logging.Int("line", i+1),
					logging.String(logging.FieldImpact, "the interrupted import is matched again"),
					logging.String(logging.FieldErrorHint, "no action needed"),
				)
				break
			}
			return nil, fmt.Errorf("decode %s line %d in %s: %w", ImportedImagesFile, i+1, dir.ID, err)
		}
		images = append(images, image)
	}
	return images, nil
}

func readLegacyImages(dir Dir) ([]ImportedImage, error) {
	data, err := os.ReadFile(dir.File(LegacyImportedFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", LegacyImportedFile, err)
	}
	images, err := DecodeLegacy(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s in %s: %w", LegacyImportedFile, dir.ID, err)
	}
	return images, nil
}

// DecodeLegacy decodes a stream of comma-terminated JSON objects by wrapping
// it in an array after dropping the final comma.
func DecodeLegacy(data []byte) ([]ImportedImage, error) {
	body := bytes.TrimSpace(data)
	if len(body) == 0 {
		return nil, nil
	}
	body = bytes.TrimSuffix(body, []byte(","))
	wrapped := make([]byte, 0, len(body)+2)
	wrapped = append(wrapped, '[')
	wrapped = append(wrapped, body...)
	wrapped = append(wrapped, ']')
	var images []ImportedImage
	if err := json.Unmarshal(wrapped, &images); err != nil {
		return nil, err
	}
	return images, nil
}
