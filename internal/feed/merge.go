package feed

import (
	"sort"

	"github.com/vidsink/vidsink/internal/domain"
)

// Merge reconciles the RSS view (primary) with the channel listing
// (secondary). The listing provides the base set since it reaches further
// back; the feed overlays the fields it is authoritative for: publish time
// and thumbnail. A short classification from the listing wins, because the
// feed cannot see the shorts tab. Result is ordered newest first; RFC 3339
// strings sort correctly as text.
func Merge(primary, secondary []Item) []Item {
	byID := make(map[string]int, len(secondary))
	merged := make([]Item, 0, len(primary)+len(secondary))

	for _, it := range secondary {
		if _, seen := byID[it.VideoID]; seen {
			continue
		}
		byID[it.VideoID] = len(merged)
		merged = append(merged, it)
	}

	for _, p := range primary {
		idx, exists := byID[p.VideoID]
		if !exists {
			byID[p.VideoID] = len(merged)
			merged = append(merged, p)
			continue
		}

		base := &merged[idx]
		if p.PublishedAt != "" {
			base.PublishedAt = p.PublishedAt
		}
		if p.Thumbnail != "" {
			base.Thumbnail = p.Thumbnail
		}
		if base.Title == "" {
			base.Title = p.Title
		}
		if base.URL == "" {
			base.URL = p.URL
		}
		if base.Kind != domain.ItemKindShort && p.Kind == domain.ItemKindShort {
			base.Kind = domain.ItemKindShort
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PublishedAt > merged[j].PublishedAt
	})
	return merged
}
