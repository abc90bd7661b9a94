package library

import (
	"errors"
	"fmt"
)

// ItemKind tags the variant of a content item.
type ItemKind string

const (
	ImageOnly        ItemKind = "image_only"
	VideoOnly        ItemKind = "video_only"
	Paired           ItemKind = "paired"
	PairedWithExtras ItemKind = "paired_with_extras"
)

// ErrFrozen is returned when mutating the parts of a bound item.
var ErrFrozen = errors.New("content item is bound to a destination id")

// ContentItem is one logical photo: an image, a video, or a live-photo pair,
// plus suspected duplicates that arrived for an occupied slot.
type ContentItem struct {
	image   *Part
	video   *Part
	extras  []Part
	dest    DestinationID
	outcome MatchOutcome
}

// NewItem creates an item whose slot for part.Kind is occupied by part.
func NewItem(part Part) (*ContentItem, error) {
	item := &ContentItem{}
	if err := item.occupy(part); err != nil {
		return nil, err
	}
	return item, nil
}

func (c *ContentItem) occupy(part Part) error {
	p := part
	switch part.Kind {
	case KindImage:
		c.image = &p
	case KindVideo:
		c.video = &p
	default:
		return fmt.Errorf("content item: unknown media kind %q for %s", part.Kind, part.Path)
	}
	return nil
}

// Kind returns the variant tag.
func (c *ContentItem) Kind() ItemKind {
	switch {
	case c.image != nil && c.video != nil && len(c.extras) > 0:
		return PairedWithExtras
	case c.image != nil && c.video != nil:
		return Paired
	case c.image != nil:
		return ImageOnly
	default:
		return VideoOnly
	}
}

// IsPaired reports whether both slots are occupied.
func (c *ContentItem) IsPaired() bool {
	return c.image != nil && c.video != nil
}

// Image returns the image slot, or nil.
func (c *ContentItem) Image() *Part { return c.image }

// Video returns the video slot, or nil.
func (c *ContentItem) Video() *Part { return c.video }

// Slot returns the part occupying the slot for kind, or nil.
func (c *ContentItem) Slot(kind MediaKind) *Part {
	if kind == KindVideo {
		return c.video
	}
	return c.image
}

// Extras returns the suspected duplicates in arrival order.
func (c *ContentItem) Extras() []Part {
	return append([]Part(nil), c.extras...)
}

// Primary returns the image part when present, otherwise the video part.
func (c *ContentItem) Primary() *Part {
	if c.image != nil {
		return c.image
	}
	return c.video
}

// Parts returns the occupied slots, image first.
func (c *ContentItem) Parts() []*Part {
	parts := make([]*Part, 0, 2)
	if c.image != nil {
		parts = append(parts, c.image)
	}
	if c.video != nil {
		parts = append(parts, c.video)
	}
	return parts
}

// Paths returns the file paths of the occupied slots, image first.
func (c *ContentItem) Paths() []string {
	parts := c.Parts()
	paths := make([]string, len(parts))
	for i, p := range parts {
		paths[i] = p.Path
	}
	return paths
}

// ContentID returns the pairing identifier carried by the item.
func (c *ContentItem) ContentID() string {
	for _, p := range c.Parts() {
		if p.Metadata.ContentID != "" {
			return p.Metadata.ContentID
		}
	}
	return ""
}

// HasManifest reports whether any slot carries a sidecar manifest.
func (c *ContentItem) HasManifest() bool {
	for _, p := range c.Parts() {
		if p.Manifest != nil {
			return true
		}
	}
	return false
}

// Add places part into its empty slot or, when the slot is occupied, appends
// it to the extras. It reports whether the part was demoted to an extra.
func (c *ContentItem) Add(part Part) (bool, error) {
	if c.dest.state == Bound {
		return false, ErrFrozen
	}
	if c.Slot(part.Kind) == nil {
		return false, c.occupy(part)
	}
	c.extras = append(c.extras, part)
	return true, nil
}

// AttachManifest sets the manifest of the slot for kind. It fails when the
// slot is empty or already has a manifest.
func (c *ContentItem) AttachManifest(kind MediaKind, m *Manifest) error {
	if c.dest.state == Bound {
		return ErrFrozen
	}
	slot := c.Slot(kind)
	if slot == nil {
		return fmt.Errorf("content item: no %s slot for manifest %s", kind, m.Path)
	}
	if slot.Manifest != nil {
		return fmt.Errorf("content item: %s slot of %s already has manifest %s", kind, slot.Path, slot.Manifest.Path)
	}
	slot.Manifest = m
	return nil
}

// Destination returns the destination id.
func (c *ContentItem) Destination() DestinationID { return c.dest }

// Bind binds the item to a destination id. Binding to the same id again is a
// no-op; binding to a different id is a conflict.
func (c *ContentItem) Bind(id string) error {
	if id == "" {
		return errors.New("content item: empty destination id")
	}
	if existing, ok := c.dest.ID(); ok {
		if existing == id {
			return nil
		}
		return &ConflictError{Subject: "item " + c.Primary().Path, Existing: existing, Incoming: id}
	}
	c.dest = BoundTo(id)
	return nil
}

// MarkAbsent records that the destination does not hold the item.
func (c *ContentItem) MarkAbsent() {
	if c.dest.state != Bound {
		c.dest = AbsentID()
	}
}

// Outcome returns the last match outcome.
func (c *ContentItem) Outcome() MatchOutcome { return c.outcome }

// SetOutcome records a match outcome.
func (c *ContentItem) SetOutcome(o MatchOutcome) { c.outcome = o }

// String identifies the item in logs.
func (c *ContentItem) String() string {
	return fmt.Sprintf("%s(%s)", c.Kind(), c.Primary().Path)
}
