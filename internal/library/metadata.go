package library

import (
	"math"
	"time"
)

// MediaKind distinguishes still images from video clips.
type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
)

// GeoPoint is a WGS84 position.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude,omitempty"`
}

// IsZero reports whether the point carries no position. Google writes 0,0 for
// items without location.
func (g *GeoPoint) IsZero() bool {
	return g == nil || (g.Latitude == 0 && g.Longitude == 0)
}

// Distance returns the planar distance between two points in degrees.
func (g GeoPoint) Distance(other GeoPoint) float64 {
	return math.Hypot(g.Latitude-other.Latitude, g.Longitude-other.Longitude)
}

// Round returns v rounded half away from zero to digits decimals.
func Round(v float64, digits int) float64 {
	scale := math.Pow(10, float64(digits))
	return math.Round(v*scale) / scale
}

// Metadata is the normalized, source-independent metadata of one media file.
type Metadata struct {
	ContentID   string    `json:"contentId,omitempty"`
	CaptureTime time.Time `json:"captureTime,omitzero"`
	ModifyTime  time.Time `json:"modifyTime,omitzero"`
	Location    *GeoPoint `json:"location,omitempty"`
	Size        int64     `json:"size"`
}

// Manifest is a parsed per-item sidecar manifest.
type Manifest struct {
	Path           string    `json:"path"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	CreationTime   time.Time `json:"creationTime,omitzero"`
	PhotoTakenTime time.Time `json:"photoTakenTime,omitzero"`
	GeoData        *GeoPoint `json:"geoData,omitempty"`
	GeoDataExif    *GeoPoint `json:"geoDataExif,omitempty"`
}

// AlbumManifest is the album-level metadata.json.
type AlbumManifest struct {
	Path        string    `json:"path"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date,omitzero"`
	Location    string    `json:"location,omitempty"`
	GeoData     *GeoPoint `json:"geoData,omitempty"`
}

// Part is one media file occupying a slot of a content item.
type Part struct {
	Kind     MediaKind `json:"kind"`
	Path     string    `json:"path"`
	Metadata Metadata  `json:"metadata"`
	Manifest *Manifest `json:"manifest,omitempty"`
}

// Size returns the file size. Image sizes come from the filesystem, video
// sizes from container metadata; both are normalized into Metadata.Size.
func (p *Part) Size() int64 {
	if p == nil {
		return 0
	}
	return p.Metadata.Size
}
