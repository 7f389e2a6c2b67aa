package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/vidsink/vidsink/internal/httpclient"
	"github.com/vidsink/vidsink/internal/logger"
)

// Fetcher pulls a channel's RSS document and maps it to Items.
type Fetcher struct {
	client *httpclient.Client
	parser *gofeed.Parser
	logger *logger.Logger
}

func NewFetcher(client *httpclient.Client, log *logger.Logger) *Fetcher {
	if log == nil {
		log = logger.Default()
	}
	return &Fetcher{
		client: client,
		parser: gofeed.NewParser(),
		logger: log.WithComponent("fetcher"),
	}
}

// Fetch downloads and parses the feed. A response that is not a feed at all
// (a consent or error page served with status 200) degrades to an empty
// snapshot instead of failing the whole check.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) (*Snapshot, error) {
	body, err := f.client.Get(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	parsed, err := f.parser.ParseString(string(body))
	if err != nil {
		if errors.Is(err, gofeed.ErrFeedTypeNotDetected) {
			f.logger.Warn("Feed URL returned a non-feed document", "url", feedURL)
			return &Snapshot{}, nil
		}
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	snap := &Snapshot{Title: parsed.Title, ChannelName: parsed.Title}
	if len(parsed.Authors) > 0 && parsed.Authors[0].Name != "" {
		snap.ChannelName = parsed.Authors[0].Name
	}

	for _, entry := range parsed.Items {
		item := Item{
			Title: entry.Title,
			URL:   entry.Link,
			Kind:  inferKind(entry.Link, entry.Title),
		}
		if entry.PublishedParsed != nil {
			item.PublishedAt = entry.PublishedParsed.UTC().Format(time.RFC3339)
		}
		item.VideoID = videoIDFromEntry(entry)
		item.Thumbnail = thumbnailFromEntry(entry)
		if item.VideoID == "" {
			continue
		}
		snap.Items = append(snap.Items, item)
	}
	return snap, nil
}

func videoIDFromEntry(entry *gofeed.Item) string {
	if yt, ok := entry.Extensions["yt"]; ok {
		if vids, ok := yt["videoId"]; ok && len(vids) > 0 {
			return vids[0].Value
		}
	}
	// Fallback: watch?v= in the link
	if i := strings.Index(entry.Link, "watch?v="); i >= 0 {
		id := entry.Link[i+len("watch?v="):]
		if j := strings.IndexAny(id, "&#"); j >= 0 {
			id = id[:j]
		}
		return id
	}
	return ""
}

func thumbnailFromEntry(entry *gofeed.Item) string {
	media, ok := entry.Extensions["media"]
	if !ok {
		return ""
	}
	groups, ok := media["group"]
	if !ok || len(groups) == 0 {
		return ""
	}
	thumbs, ok := groups[0].Children["thumbnail"]
	if !ok || len(thumbs) == 0 {
		return ""
	}
	return thumbs[0].Attrs["url"]
}
