package takeout

import (
	"path/filepath"
	"strings"

	"takeoutsync/internal/library"
)

var (
	videoTypes = map[string]struct{}{".MOV": {}, ".MP4": {}, ".M4V": {}}
	imageTypes = map[string]struct{}{".GIF": {}, ".HEIC": {}, ".JPG": {}, ".JPEG": {}, ".PNG": {}, ".NEF": {}}
)

// Classify returns the media kind for name by extension, case-insensitively.
// The second value is false for files that are not known media.
func Classify(name string) (library.MediaKind, bool) {
	ext := strings.ToUpper(filepath.Ext(name))
	if _, ok := videoTypes[ext]; ok {
		return library.KindVideo, true
	}
	if _, ok := imageTypes[ext]; ok {
		return library.KindImage, true
	}
	return "", false
}

// IsKnown reports whether name is an image or video this tool handles.
func IsKnown(name string) bool {
	_, ok := Classify(name)
	return ok
}
