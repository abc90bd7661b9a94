package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"takeoutsync/internal/fileutil"
)

type itemJSON struct {
	Kind          ItemKind        `json:"kind"`
	Image         *Part           `json:"image,omitempty"`
	Video         *Part           `json:"video,omitempty"`
	Extras        []Part          `json:"extras,omitempty"`
	DestinationID json.RawMessage `json:"destinationId,omitempty"`
	Match         *MatchOutcome   `json:"match,omitempty"`
}

// MarshalJSON encodes the item with its destination id as a string when bound,
// null when absent, and omitted when unresolved.
func (c *ContentItem) MarshalJSON() ([]byte, error) {
	out := itemJSON{
		Kind:   c.Kind(),
		Image:  c.image,
		Video:  c.video,
		Extras: c.extras,
	}
	switch c.dest.state {
	case Bound:
		raw, err := json.Marshal(c.dest.id)
		if err != nil {
			return nil, err
		}
		out.DestinationID = raw
	case Absent:
		out.DestinationID = json.RawMessage("null")
	}
	if c.outcome.Status != MatchNone {
		o := c.outcome
		out.Match = &o
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes an item, rejecting one with no occupied slot.
func (c *ContentItem) UnmarshalJSON(data []byte) error {
	var in itemJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Image == nil && in.Video == nil {
		return errors.New("content item: neither image nor video present")
	}
	*c = ContentItem{image: in.Image, video: in.Video, extras: in.Extras}
	if in.Image != nil {
		c.image.Kind = KindImage
	}
	if in.Video != nil {
		c.video.Kind = KindVideo
	}
	if in.Match != nil {
		c.outcome = *in.Match
	}
	if len(in.DestinationID) > 0 {
		if string(in.DestinationID) == "null" {
			c.dest = AbsentID()
		} else {
			var id string
			if err := json.Unmarshal(in.DestinationID, &id); err != nil {
				return fmt.Errorf("content item: destinationId: %w", err)
			}
			if id != "" {
				c.dest = BoundTo(id)
			}
		}
	}
	return nil
}

type albumJSON struct {
	Title     string         `json:"title"`
	Dirs      []string       `json:"dirs"`
	Meta      *AlbumManifest `json:"metadata,omitempty"`
	Items     []*ContentItem `json:"items"`
	Manifests []*Manifest    `json:"manifests,omitempty"`
	Remaining []string       `json:"remaining,omitempty"`
	Binding   *AlbumBinding  `json:"destination,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (a *Album) MarshalJSON() ([]byte, error) {
	return json.Marshal(albumJSON{
		Title:     a.Title,
		Dirs:      a.Dirs,
		Meta:      a.Meta,
		Items:     a.Items,
		Manifests: a.Manifests,
		Remaining: a.Remaining,
		Binding:   a.Binding,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Album) UnmarshalJSON(data []byte) error {
	var in albumJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*a = Album{
		Title:     in.Title,
		Dirs:      in.Dirs,
		Meta:      in.Meta,
		Items:     in.Items,
		Manifests: in.Manifests,
		Remaining: in.Remaining,
		Binding:   in.Binding,
	}
	return nil
}

// Save writes the library as a JSON array of albums.
func Save(path string, lib *Library) error {
	albums := lib.Albums
	if albums == nil {
		albums = []*Album{}
	}
	return fileutil.WriteJSONAtomic(path, albums)
}

// Load reads a library previously written by Save.
func Load(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read library dump: %w", err)
	}
	var albums []*Album
	if err := json.Unmarshal(data, &albums); err != nil {
		return nil, fmt.Errorf("decode library dump %s: %w", path, err)
	}
	lib := &Library{}
	for _, album := range albums {
		if err := lib.Add(album); err != nil {
			return nil, err
		}
	}
	return lib, nil
}
