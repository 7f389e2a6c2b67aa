package ytdlp

import (
	"context"
	"encoding/json"
	"fmt"
)

// VideoInfo is the subset of yt-dlp's --dump-json output the application
// cares about.
type VideoInfo struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Thumbnail  string       `json:"thumbnail"`
	Uploader   string       `json:"uploader"`
	ChannelID  string       `json:"channel_id"`
	ChannelURL string       `json:"channel_url"`
	WebpageURL string       `json:"webpage_url"`
	Formats    []FormatInfo `json:"formats"`
	Duration   float64      `json:"duration"`
}

type FormatInfo struct {
	FormatID   string  `json:"format_id"`
	Ext        string  `json:"ext"`
	Resolution string  `json:"resolution"`
	FormatNote string  `json:"format_note"`
	VCodec     string  `json:"vcodec"`
	ACodec     string  `json:"acodec"`
	Filesize   int64   `json:"filesize"`
	FPS        float64 `json:"fps"`
}

// FetchInfo queries metadata for a single video without downloading it.
func (r *Runner) FetchInfo(ctx context.Context, url string) (*VideoInfo, error) {
	out, err := r.Output(ctx, "--dump-json", "--no-playlist", "--no-warnings", url)
	if err != nil {
		return nil, err
	}

	info := &VideoInfo{}
	if err := json.Unmarshal(out, info); err != nil {
		return nil, fmt.Errorf("failed to parse video info: %w", err)
	}
	return info, nil
}
