// Package exiftool wraps the exiftool binary for batch image metadata reads.
package exiftool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"takeoutsync/internal/services"
)

// CoordinatePrecision is the number of decimals requested for GPS coordinates.
const CoordinatePrecision = 6

// Record is one file's grouped exiftool output (-g) with dates rendered as
// unix seconds (-d %s) and coordinates as signed decimals.
type Record struct {
	SourceFile string `json:"SourceFile"`
	File       struct {
		FileModifyDate Number `json:"FileModifyDate"`
		FileSize       Number `json:"FileSize"`
	} `json:"File"`
	EXIF struct {
		DateTimeOriginal Number `json:"DateTimeOriginal"`
		CreateDate       Number `json:"CreateDate"`
	} `json:"EXIF"`
	MakerNotes struct {
		ContentIdentifier string `json:"ContentIdentifier"`
	} `json:"MakerNotes"`
	Composite struct {
		GPSLatitude            Number `json:"GPSLatitude"`
		GPSLongitude           Number `json:"GPSLongitude"`
		SubSecCreateDate       Number `json:"SubSecCreateDate"`
		SubSecDateTimeOriginal Number `json:"SubSecDateTimeOriginal"`
	} `json:"Composite"`
}

// CaptureTime returns the best available capture time: sub-second original,
// EXIF original, then sub-second create date.
func (r Record) CaptureTime() (time.Time, bool) {
	for _, n := range []Number{r.Composite.SubSecDateTimeOriginal, r.EXIF.DateTimeOriginal, r.Composite.SubSecCreateDate, r.EXIF.CreateDate} {
		if ts, ok := n.Unix(); ok {
			return ts, true
		}
	}
	return time.Time{}, false
}

// ModifyTime returns the filesystem modification time exiftool reported.
func (r Record) ModifyTime() (time.Time, bool) {
	return r.File.FileModifyDate.Unix()
}

// Location returns the composite GPS coordinates when both are present.
func (r Record) Location() (lat, lon float64, ok bool) {
	lat, latOK := r.Composite.GPSLatitude.Float()
	lon, lonOK := r.Composite.GPSLongitude.Float()
	return lat, lon, latOK && lonOK
}

// Number decodes exiftool values that may arrive as JSON numbers or strings.
type Number struct {
	raw string
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		n.raw = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		n.raw = strings.TrimSpace(s)
		return nil
	}
	n.raw = string(trimmed)
	return nil
}

// String returns the raw textual value.
func (n Number) String() string { return n.raw }

// Float parses the value as a float.
func (n Number) Float() (float64, bool) {
	if n.raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimPrefix(n.raw, "+"), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Unix interprets the value as unix seconds with an optional fraction.
func (n Number) Unix() (time.Time, bool) {
	v, ok := n.Float()
	if !ok || v <= 0 {
		return time.Time{}, false
	}
	sec := int64(v)
	nsec := int64((v - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC(), true
}

// Client runs exiftool.
type Client struct {
	binary string
}

// New returns a client for the given exiftool binary.
func New(binary string) *Client {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "exiftool"
	}
	return &Client{binary: binary}
}

// Binary returns the configured executable.
func (c *Client) Binary() string { return c.binary }

// Read extracts records for the given files or directories in one exiftool
// invocation. Paths are passed through an argument file on stdin.
func (c *Client) Read(ctx context.Context, paths ...string) ([]Record, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	args := []string{"-g", "-json", "-d", "%s", "-c", "%+." + strconv.Itoa(CoordinatePrecision) + "f", "-charset", "filename=utf8", "-@", "-"}
	cmd := exec.CommandContext(ctx, c.binary, args...)
	cmd.Stdin = strings.NewReader(strings.Join(paths, "\n") + "\n")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctx.Err() != nil {
		return nil, services.Wrap(services.ErrTimeout, "exiftool", "read", "cancelled", ctx.Err())
	}
	output := bytes.TrimSpace(stdout.Bytes())
	if len(output) == 0 {
		if runErr != nil {
			var exitErr *exec.ExitError
			if errors.As(runErr, &exitErr) && strings.Contains(stderr.String(), "No matching files") {
				return nil, nil
			}
			return nil, services.Wrap(services.ErrExternalTool, "exiftool", "read", strings.TrimSpace(stderr.String()), runErr)
		}
		return nil, nil
	}
	records, err := Parse(output)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "exiftool", "parse", "", err)
	}
	return records, nil
}

// Parse decodes exiftool -json output.
func Parse(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode exiftool json: %w", err)
	}
	return records, nil
}
