package matching

import (
	"path/filepath"
	"time"

	"takeoutsync/internal/library"
)

// Key is the search key of a content item.
type Key struct {
	Filename  string
	Timestamp time.Time
	Size      int64
}

// KeyFor derives the search key of item. The filename prefers the image
// manifest title, then the image basename, then the video equivalents. The
// timestamp prefers the image capture time, then the video creation time,
// then a modification time. The size prefers the image.
func KeyFor(item *library.ContentItem) Key {
	img, vid := item.Image(), item.Video()
	var key Key
	for _, p := range []*library.Part{img, vid} {
		if p == nil {
			continue
		}
		if key.Filename == "" && p.Manifest != nil && p.Manifest.Title != "" {
			key.Filename = p.Manifest.Title
		}
		if key.Filename == "" {
			key.Filename = filepath.Base(p.Path)
		}
	}
	for _, p := range []*library.Part{img, vid} {
		if p != nil && key.Timestamp.IsZero() && !p.Metadata.CaptureTime.IsZero() {
			key.Timestamp = p.Metadata.CaptureTime
		}
	}
	for _, p := range []*library.Part{img, vid} {
		if p != nil && key.Timestamp.IsZero() && !p.Metadata.ModifyTime.IsZero() {
			key.Timestamp = p.Metadata.ModifyTime
		}
	}
	for _, p := range []*library.Part{img, vid} {
		if p != nil && key.Size == 0 {
			key.Size = p.Size()
		}
	}
	return key
}
