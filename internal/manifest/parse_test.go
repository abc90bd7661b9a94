package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"takeoutsync/internal/services"
)

func TestParseItem(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "IMG_0001.HEIC.json")
	body := `{
  "title": "IMG_0001.HEIC",
  "description": "beach",
  "creationTime": {"timestamp": "1580601525", "formatted": "Feb 2, 2020"},
  "photoTakenTime": {"timestamp": "1580601522", "formatted": "Feb 2, 2020"},
  "geoData": {"latitude": 0.0, "longitude": 0.0, "altitude": 0.0},
  "geoDataExif": {"latitude": 41.9028, "longitude": 12.4964, "altitude": 21.0}
}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := ParseItem(path)
	if err != nil {
		t.Fatalf("ParseItem: %v", err)
	}
	if m.Title != "IMG_0001.HEIC" || m.Description != "beach" || m.Path != path {
		t.Fatalf("unexpected manifest %+v", m)
	}
	if !m.PhotoTakenTime.Equal(time.Unix(1580601522, 0)) {
		t.Fatalf("unexpected photo taken time %v", m.PhotoTakenTime)
	}
	if m.GeoData != nil {
		t.Fatalf("expected zero geodata to be dropped, got %+v", m.GeoData)
	}
	if m.GeoDataExif == nil || m.GeoDataExif.Latitude != 41.9028 {
		t.Fatalf("unexpected exif geodata %+v", m.GeoDataExif)
	}
}

func TestParseItemErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"title": "x", "photoTakenTime": {"timestamp": "soon"}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(dir, "missing.json")},
		{"bad timestamp", bad},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseItem(tt.path)
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestParseAlbum(t *testing.T) {
	path := filepath.Join(t.TempDir(), AlbumFileName)
	body := `{"title": "Rome 2019", "description": "trip", "access": "protected",
  "date": {"timestamp": "1556668800", "formatted": "May 1, 2019"},
  "location": "Rome", "geoData": {"latitude": 41.9, "longitude": 12.5}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	album, err := ParseAlbum(path)
	if err != nil {
		t.Fatalf("ParseAlbum: %v", err)
	}
	if album.Title != "Rome 2019" || album.Location != "Rome" || album.GeoData == nil {
		t.Fatalf("unexpected album manifest %+v", album)
	}
	if album.Date.Unix() != 1556668800 {
		t.Fatalf("unexpected date %v", album.Date)
	}
}

func TestMediaNameAndIsItemManifest(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"a/IMG_1.JPG.json", "IMG_1.JPG"},
		{"a/IMG_1.JPG(1).json", "IMG_1.JPG(1)"},
		{"a/IMG_1.JPG.supplemental-metadata.json", "IMG_1.JPG"},
		{"a/.supplemental-metadata.json", ".supplemental-metadata"},
	}
	for _, tt := range tests {
		if got := MediaName(tt.path); got != tt.want {
			t.Errorf("MediaName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
	if IsItemManifest("metadata.json") || IsItemManifest("IMG.JPG") || !IsItemManifest("IMG.JPG.JSON") {
		t.Fatal("IsItemManifest classification wrong")
	}
}
