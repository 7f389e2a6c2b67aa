package feed

import (
	"context"
	"regexp"

	"github.com/vidsink/vidsink/internal/constants"
	"github.com/vidsink/vidsink/internal/httpclient"
	"github.com/vidsink/vidsink/internal/logger"
	"github.com/vidsink/vidsink/internal/ytdlp"
)

var avatarRes = []*regexp.Regexp{
	regexp.MustCompile(`"avatar"\s*:\s*\{"thumbnails"\s*:\s*\[\{"url"\s*:\s*"([^"]+)"`),
	regexp.MustCompile(`<link rel="image_src" href="([^"]+)"`),
	regexp.MustCompile(`property="og:image" content="([^"]+)"`),
}

// AvatarResolver finds a channel's avatar image. Everything here is best
// effort; an empty string means nothing was found.
type AvatarResolver struct {
	client *httpclient.Client
	runner *ytdlp.Runner
	logger *logger.Logger
}

func NewAvatarResolver(client *httpclient.Client, runner *ytdlp.Runner, log *logger.Logger) *AvatarResolver {
	if log == nil {
		log = logger.Default()
	}
	return &AvatarResolver{client: client, runner: runner, logger: log.WithComponent("avatar")}
}

func (a *AvatarResolver) Resolve(ctx context.Context, channelID string) string {
	pageURL := "https://www.youtube.com/channel/" + channelID

	scrapeCtx, cancel := context.WithTimeout(ctx, constants.AvatarHTTPTimeout)
	defer cancel()

	if body, err := a.client.Get(scrapeCtx, pageURL); err == nil {
		for _, re := range avatarRes {
			if m := re.FindSubmatch(body); m != nil {
				return string(m[1])
			}
		}
	} else {
		a.logger.Debug("Avatar page fetch failed", "channel_id", channelID, "error", err)
	}

	if a.runner != nil {
		if info, err := a.runner.FetchInfo(ctx, pageURL); err == nil && info.Thumbnail != "" {
			return info.Thumbnail
		}
	}
	return ""
}
