package photos

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"takeoutsync/internal/destination"
	"takeoutsync/internal/services"
)

// epochSplit is the divisor the scripts use to return epoch seconds in two
// halves.
const epochSplit = 100000

func splitRecords(out string) []string {
	var recs []string
	for _, rec := range strings.Split(out, recordSep) {
		if rec != "" {
			recs = append(recs, rec)
		}
	}
	return recs
}

func parseSearch(out string, queries int) ([][]destination.PhotoInfo, error) {
	groups := strings.Split(out, groupSep)
	// Every query group is terminated, so the split yields one trailing empty
	// element.
	if len(groups) != queries+1 {
		return nil, services.Wrap(services.ErrExternalTool, "photos", "search", fmt.Sprintf("expected %d result groups, got %d", queries, len(groups)-1), nil)
	}
	results := make([][]destination.PhotoInfo, queries)
	for i := range queries {
		photos, err := parsePhotos(groups[i])
		if err != nil {
			return nil, err
		}
		results[i] = photos
	}
	return results, nil
}

func parsePhotos(out string) ([]destination.PhotoInfo, error) {
	var photos []destination.PhotoInfo
	for _, rec := range splitRecords(out) {
		p, err := parsePhoto(rec)
		if err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "photos", "parse", "", err)
		}
		photos = append(photos, p)
	}
	return photos, nil
}

// parsePhoto decodes "id US filename US size US epochHigh US epochLow".
func parsePhoto(rec string) (destination.PhotoInfo, error) {
	fields := strings.Split(rec, unitSep)
	if len(fields) != 5 {
		return destination.PhotoInfo{}, fmt.Errorf("malformed media record %q", rec)
	}
	size, err := strconv.ParseInt(strings.TrimSpace(fields[2]), 10, 64)
	if err != nil {
		return destination.PhotoInfo{}, fmt.Errorf("size of %s: %w", fields[0], err)
	}
	hi, err := strconv.ParseInt(strings.TrimSpace(fields[3]), 10, 64)
	if err != nil {
		return destination.PhotoInfo{}, fmt.Errorf("date of %s: %w", fields[0], err)
	}
	lo, err := strconv.ParseInt(strings.TrimSpace(fields[4]), 10, 64)
	if err != nil {
		return destination.PhotoInfo{}, fmt.Errorf("date of %s: %w", fields[0], err)
	}
	return destination.PhotoInfo{
		ID:        fields[0],
		Filename:  fields[1],
		Size:      size,
		Timestamp: time.Unix(hi*epochSplit+lo, 0).UTC(),
	}, nil
}

// parseImported decodes "albumID GS photoID RS photoID RS ...".
func parseImported(out string) ([]destination.ImportedPhoto, error) {
	albumID, rest, ok := strings.Cut(out, groupSep)
	albumID = strings.TrimSpace(albumID)
	if !ok || albumID == "" {
		return nil, services.Wrap(services.ErrExternalTool, "photos", "import", fmt.Sprintf("malformed reply %q", out), nil)
	}
	var imported []destination.ImportedPhoto
	for _, id := range splitRecords(rest) {
		imported = append(imported, destination.ImportedPhoto{PhotoID: strings.TrimSpace(id), AlbumID: albumID})
	}
	return imported, nil
}
