package metadata

import (
	"time"

	"takeoutsync/internal/library"
	"takeoutsync/internal/takeout"
)

// CoordinateDigits is the precision GPS coordinates are rounded to.
const CoordinateDigits = 6

// NormalizeImage builds metadata for an image. Size comes from the filesystem.
func NormalizeImage(file takeout.MediaFile, rec ImageRecord) library.Metadata {
	md := library.Metadata{
		ContentID:   rec.ContentID,
		CaptureTime: utc(rec.CaptureTime),
		ModifyTime:  utc(rec.ModifyTime),
		Location:    roundPoint(rec.Location),
		Size:        file.Size,
	}
	if md.ModifyTime.IsZero() {
		md.ModifyTime = utc(file.ModTime)
	}
	return md
}

// NormalizeVideo builds metadata for a video. Size comes from the container,
// falling back to the filesystem when the container omits it.
func NormalizeVideo(file takeout.MediaFile, rec VideoRecord) library.Metadata {
	md := library.Metadata{
		ContentID:   rec.ContentID,
		CaptureTime: utc(rec.CreationTime),
		ModifyTime:  utc(file.ModTime),
		Size:        rec.Size,
	}
	if md.Size <= 0 {
		md.Size = file.Size
	}
	return md
}

func roundPoint(p *library.GeoPoint) *library.GeoPoint {
	if p.IsZero() {
		return nil
	}
	return &library.GeoPoint{
		Latitude:  library.Round(p.Latitude, CoordinateDigits),
		Longitude: library.Round(p.Longitude, CoordinateDigits),
		Altitude:  p.Altitude,
	}
}

func utc(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
