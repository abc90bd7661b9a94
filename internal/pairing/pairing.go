// Package pairing groups the media files of an album into content items,
// joining the image and video halves of live photos by their content
// identifier, and removes lone halves that duplicate a pair held elsewhere.
package pairing

import (
	"log/slog"

	"takeoutsync/internal/library"
	"takeoutsync/internal/logging"
)

// Stats summarizes one Pair call.
type Stats struct {
	Items   int
	Paired  int
	Demoted int
}

// Pair builds content items from parts in enumeration order. Parts without a
// content identifier always start a new item. A part whose identifier is
// already held fills the empty slot or, when the slot is taken, is kept as an
// extra.
func Pair(album string, parts []library.Part, logger *slog.Logger) ([]*library.ContentItem, Stats, error) {
	logger = logging.NewComponentLogger(logger, "pairing").With(logging.String(logging.FieldAlbum, album))
	var (
		items []*library.ContentItem
		byID  = make(map[string]*library.ContentItem)
		stats Stats
	)
	for _, part := range parts {
		id := part.Metadata.ContentID
		if id != "" {
			if existing, ok := byID[id]; ok {
				wasPaired := existing.IsPaired()
				demoted, err := existing.Add(part)
				if err != nil {
					return nil, Stats{}, err
				}
				if demoted {
					stats.Demoted++
					logging.WarnWithContext(logger, "duplicate part kept as extra", "pairing_duplicate",
						logging.String("path", part.Path),
						logging.String("kept", existing.Slot(part.Kind).Path),
						logging.String("content_id", id),
						logging.String(logging.FieldImpact, "duplicate is not imported"),
						logging.String(logging.FieldErrorHint, "review the export for duplicate files"),
					)
				} else if !wasPaired && existing.IsPaired() {
					stats.Paired++
				}
				continue
			}
		}
		item, err := library.NewItem(part)
		if err != nil {
			return nil, Stats{}, err
		}
		items = append(items, item)
		if id != "" {
			byID[id] = item
		}
	}
	stats.Items = len(items)
	logger.Debug("album paired",
		logging.Int("parts", len(parts)),
		logging.Int("items", stats.Items),
		logging.Int("paired", stats.Paired),
		logging.Int("demoted", stats.Demoted),
	)
	return items, stats, nil
}

// Dropped is an item removed by Dedup.
type Dropped struct {
	Album string
	Item  *library.ContentItem
}

// Dedup removes image-only and video-only items whose content identifier
// belongs to a fully paired item in any album. It returns the removed items.
func Dedup(lib *library.Library, logger *slog.Logger) []Dropped {
	logger = logging.NewComponentLogger(logger, "pairing")
	paired := make(map[string]struct{})
	for _, album := range lib.Albums {
		for _, item := range album.Items {
			if item.IsPaired() && item.ContentID() != "" {
				paired[item.ContentID()] = struct{}{}
			}
		}
	}

	var dropped []Dropped
	for _, album := range lib.Albums {
		drop := make(map[*library.ContentItem]struct{})
		for _, item := range album.Items {
			if item.IsPaired() {
				continue
			}
			id := item.ContentID()
			if id == "" {
				continue
			}
			if _, ok := paired[id]; !ok {
				continue
			}
			drop[item] = struct{}{}
			dropped = append(dropped, Dropped{Album: album.Title, Item: item})
			attrs := append([]logging.Attr{
				logging.String(logging.FieldAlbum, album.Title),
				logging.String("path", item.Primary().Path),
				logging.String("content_id", id),
			}, logging.DecisionAttrs("live_photo_dedup", "dropped", "paired copy exists")...)
			logger.Info("lone live-photo half dropped", logging.Args(attrs...)...)
		}
		album.RemoveItems(drop)
	}
	return dropped
}
