package metadata

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"takeoutsync/internal/library"
	"takeoutsync/internal/media/ffprobe"
	"takeoutsync/internal/services"
	"takeoutsync/internal/services/exiftool"
)

// ImageRecord is the raw image metadata the normalizer needs.
type ImageRecord struct {
	ContentID   string
	CaptureTime time.Time
	ModifyTime  time.Time
	Location    *library.GeoPoint
}

// VideoRecord is the raw container metadata of a video.
type VideoRecord struct {
	ContentID    string
	CreationTime time.Time
	Size         int64
}

// Extractor reads raw metadata from media files.
type Extractor interface {
	// Images returns records keyed by path. Files the tool could not read
	// are absent from the map.
	Images(ctx context.Context, paths []string) (map[string]ImageRecord, error)
	Video(ctx context.Context, path string) (VideoRecord, error)
}

// ToolExtractor reads images with exiftool and videos with ffprobe.
type ToolExtractor struct {
	exif         *exiftool.Client
	ffprobe      string
	exifFallback bool
}

// NewToolExtractor builds an extractor around the given binaries. With
// fallback enabled, images exiftool cannot date are decoded in process.
func NewToolExtractor(exiftoolBinary, ffprobeBinary string, fallback bool) *ToolExtractor {
	return &ToolExtractor{
		exif:         exiftool.New(exiftoolBinary),
		ffprobe:      ffprobeBinary,
		exifFallback: fallback,
	}
}

// Images implements Extractor.
func (t *ToolExtractor) Images(ctx context.Context, paths []string) (map[string]ImageRecord, error) {
	out := make(map[string]ImageRecord, len(paths))
	if len(paths) == 0 {
		return out, nil
	}
	records, err := t.exif.Read(ctx, paths...)
	if err != nil && !t.exifFallback {
		return nil, err
	}
	for _, rec := range records {
		out[rec.SourceFile] = imageRecordFrom(rec)
	}
	if !t.exifFallback {
		return out, nil
	}
	for _, path := range paths {
		rec, ok := out[path]
		if ok && !rec.CaptureTime.IsZero() {
			continue
		}
		decoded, decErr := decodeEXIF(path)
		if decErr != nil {
			continue
		}
		if ok {
			rec.CaptureTime = decoded.CaptureTime
			if rec.Location == nil {
				rec.Location = decoded.Location
			}
			out[path] = rec
			continue
		}
		out[path] = decoded
	}
	if err != nil && len(out) == 0 {
		return nil, err
	}
	return out, nil
}

// Video implements Extractor.
func (t *ToolExtractor) Video(ctx context.Context, path string) (VideoRecord, error) {
	result, err := ffprobe.Inspect(ctx, t.ffprobe, path)
	if err != nil {
		return VideoRecord{}, err
	}
	rec := VideoRecord{
		ContentID: result.ContentIdentifier(),
		Size:      result.SizeBytes(),
	}
	if ts, ok := result.CreationTime(); ok {
		rec.CreationTime = ts
	}
	return rec, nil
}

func imageRecordFrom(rec exiftool.Record) ImageRecord {
	out := ImageRecord{ContentID: rec.MakerNotes.ContentIdentifier}
	if ts, ok := rec.CaptureTime(); ok {
		out.CaptureTime = ts
	}
	if ts, ok := rec.ModifyTime(); ok {
		out.ModifyTime = ts
	}
	if lat, lon, ok := rec.Location(); ok {
		out.Location = &library.GeoPoint{Latitude: lat, Longitude: lon}
	}
	return out
}

func decodeEXIF(path string) (ImageRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImageRecord{}, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return ImageRecord{}, services.Wrap(services.ErrValidation, "exif", "decode", path, err)
	}
	var rec ImageRecord
	ts, err := x.DateTime()
	if err != nil {
		return ImageRecord{}, fmt.Errorf("exif date %s: %w", path, err)
	}
	rec.CaptureTime = ts
	if lat, lon, err := x.LatLong(); err == nil {
		rec.Location = &library.GeoPoint{Latitude: lat, Longitude: lon}
	}
	if info, err := f.Stat(); err == nil {
		rec.ModifyTime = info.ModTime()
	}
	return rec, nil
}

// ClassificationError reports a known media file for which no metadata record
// could be produced. It aborts the run.
type ClassificationError struct {
	Path string
	Kind library.MediaKind
	Err  error
}

func (e *ClassificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no %s metadata for %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("no %s metadata for %s", e.Kind, e.Path)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// IsClassification reports whether err is a ClassificationError.
func IsClassification(err error) bool {
	var target *ClassificationError
	return errors.As(err, &target)
}
