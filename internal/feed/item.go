// Package feed implements channel subscription: input normalization, RSS
// fetching, channel listing, reconciliation, and the periodic check service.
package feed

import "github.com/vidsink/vidsink/internal/domain"

// Item is one discovered video, before persistence. VideoID is its identity
// within a channel.
type Item struct {
	VideoID     string
	Title       string
	Thumbnail   string
	URL         string
	PublishedAt string
	Kind        domain.ItemKind
}

// Snapshot is the result of one source fetch: channel metadata plus items.
type Snapshot struct {
	Title       string
	ChannelName string
	Items       []Item
}
