package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"takeoutsync/internal/library"
	"takeoutsync/internal/services"
)

// AlbumFileName is the album-level manifest inside each album directory.
const AlbumFileName = "metadata.json"

const supplementalSuffix = ".supplemental-metadata"

type timestampJSON struct {
	Timestamp string `json:"timestamp"`
	Formatted string `json:"formatted"`
}

func (t *timestampJSON) time() (time.Time, error) {
	if t == nil || strings.TrimSpace(t.Timestamp) == "" {
		return time.Time{}, nil
	}
	secs, err := strconv.ParseInt(strings.TrimSpace(t.Timestamp), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q: %w", t.Timestamp, err)
	}
	return time.Unix(secs, 0).UTC(), nil
}

type geoJSON struct {
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Altitude      float64 `json:"altitude"`
	LatitudeSpan  float64 `json:"latitudeSpan"`
	LongitudeSpan float64 `json:"longitudeSpan"`
}

func (g *geoJSON) point() *library.GeoPoint {
	if g == nil {
		return nil
	}
	p := &library.GeoPoint{Latitude: g.Latitude, Longitude: g.Longitude, Altitude: g.Altitude}
	if p.IsZero() {
		return nil
	}
	return p
}

type itemJSON struct {
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	CreationTime   *timestampJSON `json:"creationTime"`
	PhotoTakenTime *timestampJSON `json:"photoTakenTime"`
	GeoData        *geoJSON       `json:"geoData"`
	GeoDataExif    *geoJSON       `json:"geoDataExif"`
}

type albumJSON struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Date        *timestampJSON `json:"date"`
	Location    string         `json:"location"`
	GeoData     *geoJSON       `json:"geoData"`
}

// IsItemManifest reports whether name looks like a per-item sidecar manifest.
func IsItemManifest(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".json") && !strings.EqualFold(filepath.Base(name), AlbumFileName)
}

// ParseItem reads a per-item manifest.
func ParseItem(path string) (*library.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "manifest", "read", path, err)
	}
	m, err := DecodeItem(data)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "manifest", "decode", path, err)
	}
	m.Path = path
	return m, nil
}

// DecodeItem decodes per-item manifest JSON.
func DecodeItem(data []byte) (*library.Manifest, error) {
	var in itemJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}
	created, err := in.CreationTime.time()
	if err != nil {
		return nil, fmt.Errorf("creationTime: %w", err)
	}
	taken, err := in.PhotoTakenTime.time()
	if err != nil {
		return nil, fmt.Errorf("photoTakenTime: %w", err)
	}
	return &library.Manifest{
		Title:          in.Title,
		Description:    in.Description,
		CreationTime:   created,
		PhotoTakenTime: taken,
		GeoData:        in.GeoData.point(),
		GeoDataExif:    in.GeoDataExif.point(),
	}, nil
}

// ParseAlbum reads an album-level metadata.json.
func ParseAlbum(path string) (*library.AlbumManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "manifest", "read album", path, err)
	}
	var in albumJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, services.Wrap(services.ErrValidation, "manifest", "decode album", path, err)
	}
	date, err := in.Date.time()
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "manifest", "decode album", path, err)
	}
	return &library.AlbumManifest{
		Path:        path,
		Title:       in.Title,
		Description: in.Description,
		Date:        date,
		Location:    in.Location,
		GeoData:     in.GeoData.point(),
	}, nil
}

// MediaName returns the media basename a manifest file is named after:
// "IMG_1.JPG.json" and "IMG_1.JPG.supplemental-metadata.json" both give
// "IMG_1.JPG".
func MediaName(manifestPath string) string {
	base := filepath.Base(manifestPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if idx := strings.LastIndex(base, supplementalSuffix); idx > 0 && idx+len(supplementalSuffix) == len(base) {
		base = base[:idx]
	}
	return base
}
