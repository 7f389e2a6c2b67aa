package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vidsink/vidsink/internal/constants"
	"github.com/vidsink/vidsink/internal/domain"
	"github.com/vidsink/vidsink/internal/logger"
	"github.com/vidsink/vidsink/internal/ytdlp"
)

// Lister walks a channel's video and shorts tabs through yt-dlp's flat
// playlist mode, which reaches further back than the 15-entry RSS document.
type Lister struct {
	runner *ytdlp.Runner
	logger *logger.Logger
}

func NewLister(runner *ytdlp.Runner, log *logger.Logger) *Lister {
	if log == nil {
		log = logger.Default()
	}
	return &Lister{runner: runner, logger: log.WithComponent("lister")}
}

type playlistDump struct {
	Entries []playlistEntry `json:"entries"`
}

type playlistEntry struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	URL        string      `json:"url"`
	Thumbnails []thumbnail `json:"thumbnails"`
	Timestamp  int64       `json:"timestamp"`
}

type thumbnail struct {
	URL string `json:"url"`
}

// List fetches both tabs concurrently. One tab failing does not discard the
// other; only both failing is an error. Channels without a videos tab fall
// back to the UU uploads playlist.
func (l *Lister) List(ctx context.Context, channelID string) ([]Item, error) {
	var videos, shorts []Item
	var videosErr, shortsErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		videos, videosErr = l.listTab(gctx, "https://www.youtube.com/channel/"+channelID+"/videos", domain.ItemKindVideo)
		if videosErr != nil {
			// Some channels only expose uploads through the derived playlist
			uploads := "https://www.youtube.com/playlist?list=UU" + strings.TrimPrefix(channelID, "UC")
			videos, videosErr = l.listTab(gctx, uploads, domain.ItemKindVideo)
		}
		return nil
	})
	g.Go(func() error {
		shorts, shortsErr = l.listTab(gctx, "https://www.youtube.com/channel/"+channelID+"/shorts", domain.ItemKindShort)
		return nil
	})
	_ = g.Wait()

	if videosErr != nil && shortsErr != nil {
		return nil, fmt.Errorf("channel listing failed: %w", videosErr)
	}
	if videosErr != nil {
		l.logger.Warn("Videos tab listing failed", "channel_id", channelID, "error", videosErr)
	}
	if shortsErr != nil {
		l.logger.Debug("Shorts tab listing failed", "channel_id", channelID, "error", shortsErr)
	}

	return append(videos, shorts...), nil
}

func (l *Lister) listTab(ctx context.Context, url string, kind domain.ItemKind) ([]Item, error) {
	out, err := l.runner.Output(ctx,
		"-J",
		"--flat-playlist",
		"--no-warnings",
		"--playlist-end", constants.ListingDepth,
		url,
	)
	if err != nil {
		return nil, err
	}

	var dump playlistDump
	if err := json.Unmarshal(out, &dump); err != nil {
		return nil, fmt.Errorf("failed to parse listing: %w", err)
	}

	items := make([]Item, 0, len(dump.Entries))
	for _, e := range dump.Entries {
		if e.ID == "" {
			continue
		}
		item := Item{
			VideoID: e.ID,
			Title:   e.Title,
			URL:     e.URL,
			Kind:    kind,
		}
		if item.URL == "" {
			item.URL = "https://www.youtube.com/watch?v=" + e.ID
		}
		if len(e.Thumbnails) > 0 {
			item.Thumbnail = e.Thumbnails[len(e.Thumbnails)-1].URL
		}
		if e.Timestamp > 0 {
			item.PublishedAt = time.Unix(e.Timestamp, 0).UTC().Format(time.RFC3339)
		}
		if kind == domain.ItemKindVideo {
			item.Kind = inferKind(item.URL, item.Title)
		}
		items = append(items, item)
	}
	return items, nil
}

// inferKind spots shorts that show up outside the shorts tab.
func inferKind(url, title string) domain.ItemKind {
	if strings.Contains(url, "/shorts/") {
		return domain.ItemKindShort
	}
	lower := strings.ToLower(title)
	if strings.Contains(lower, "#short") {
		return domain.ItemKindShort
	}
	return domain.ItemKindVideo
}
