package matching

import "takeoutsync/internal/library"

// Chunks splits items into batches of at most size files. An item's parts
// always land in the same batch.
func Chunks(items []*library.ContentItem, size int) [][]*library.ContentItem {
	if size < 2 {
		size = 2
	}
	var (
		out    [][]*library.ContentItem
		cur    []*library.ContentItem
		weight int
	)
	for _, item := range items {
		w := len(item.Parts())
		if weight+w > size && len(cur) > 0 {
			out = append(out, cur)
			cur, weight = nil, 0
		}
		cur = append(cur, item)
		weight += w
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}
