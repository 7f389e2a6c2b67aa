package feed

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/vidsink/vidsink/internal/httpclient"
	"github.com/vidsink/vidsink/internal/logger"
	"github.com/vidsink/vidsink/internal/validate"
	"github.com/vidsink/vidsink/internal/ytdlp"
)

const feedURLPrefix = "https://www.youtube.com/feeds/videos.xml?channel_id="

var (
	channelIDRe     = regexp.MustCompile(`^UC[A-Za-z0-9_-]{20,}$`)
	channelPathRe   = regexp.MustCompile(`/channel/(UC[A-Za-z0-9_-]{20,})`)
	scrapedIDRe     = regexp.MustCompile(`"channelId"\s*:\s*"(UC[A-Za-z0-9_-]{20,})"`)
	scrapedMetaIDRe = regexp.MustCompile(`channel_id=(UC[A-Za-z0-9_-]{20,})`)
)

// Resolver turns whatever the user pasted (channel URL, handle URL, raw
// channel id, or an RSS URL) into the canonical feed URL.
type Resolver struct {
	client *httpclient.Client
	runner *ytdlp.Runner
	logger *logger.Logger

	// swapped out in tests
	validateURL func(string) error
}

func NewResolver(client *httpclient.Client, runner *ytdlp.Runner, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.Default()
	}
	return &Resolver{
		client:      client,
		runner:      runner,
		logger:      log.WithComponent("resolver"),
		validateURL: validate.URL,
	}
}

// FeedURL resolves input to a feeds/videos.xml URL. When the channel id
// cannot be determined, the input comes back unchanged so the caller can
// still try it as a direct feed.
func (r *Resolver) FeedURL(ctx context.Context, input string) string {
	trimmed := strings.TrimSpace(input)

	if strings.Contains(trimmed, "feeds/videos.xml") {
		return trimmed
	}
	if channelIDRe.MatchString(trimmed) {
		return feedURLPrefix + trimmed
	}
	if m := channelPathRe.FindStringSubmatch(trimmed); m != nil {
		return feedURLPrefix + m[1]
	}

	switch {
	case strings.HasPrefix(trimmed, "@"):
		trimmed = "https://www.youtube.com/" + trimmed
	case trimmed != "" && !strings.Contains(trimmed, "://"):
		trimmed = "https://" + trimmed
	}

	// No scrape or tool lookup for an input that fails the outbound URL check
	if err := r.validateURL(trimmed); err != nil {
		r.logger.Debug("Refusing remote channel resolution", "input", trimmed, "error", err)
		return trimmed
	}

	// Handle, /c/ and /user/ URLs need the page to give up the channel id
	if id, err := r.scrapeChannelID(ctx, trimmed); err == nil {
		return feedURLPrefix + id
	} else {
		r.logger.Debug("Channel id scrape failed", "input", trimmed, "error", err)
	}

	if id := r.channelIDFromYtdlp(ctx, trimmed); id != "" {
		return feedURLPrefix + id
	}

	return trimmed
}

// ChannelID pulls the channel id back out of a canonical feed URL.
func ChannelID(feedURL string) string {
	if m := scrapedMetaIDRe.FindStringSubmatch(feedURL); m != nil {
		return m[1]
	}
	if m := channelPathRe.FindStringSubmatch(feedURL); m != nil {
		return m[1]
	}
	return ""
}

func (r *Resolver) scrapeChannelID(ctx context.Context, pageURL string) (string, error) {
	body, err := r.client.Get(ctx, pageURL)
	if err != nil {
		return "", err
	}
	if m := scrapedIDRe.FindSubmatch(body); m != nil {
		return string(m[1]), nil
	}
	if m := scrapedMetaIDRe.FindSubmatch(body); m != nil {
		return string(m[1]), nil
	}
	return "", fmt.Errorf("no channel id in page %s", pageURL)
}

func (r *Resolver) channelIDFromYtdlp(ctx context.Context, url string) string {
	if r.runner == nil {
		return ""
	}
	info, err := r.runner.FetchInfo(ctx, url)
	if err != nil {
		r.logger.Debug("yt-dlp channel lookup failed", "url", url, "error", err)
		return ""
	}
	if channelIDRe.MatchString(info.ChannelID) {
		return info.ChannelID
	}
	return ""
}
