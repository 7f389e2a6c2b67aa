package ytdlp

import (
	"path/filepath"
	"strings"

	"github.com/vidsink/vidsink/internal/constants"
)

// Flags that hand yt-dlp arbitrary command execution or filesystem reach.
// Matched against the flag token before any "=value" part.
var blockedFlags = []string{
	"--exec",
	"--exec-before-download",
	"--batch-file",
	"--config-locations",
	"--config-location",
	"--output-na-placeholder",
	"-a",
	"--download-archive",
}

// SanitizeFlags drops denylisted tokens from user-supplied extra flags.
// When a blocked flag is removed, its following value token (if any) is
// removed with it.
func SanitizeFlags(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	skipNext := false
	for _, tok := range tokens {
		if skipNext {
			skipNext = false
			if !strings.HasPrefix(tok, "-") {
				continue
			}
		}
		flag := strings.ToLower(strings.SplitN(tok, "=", 2)[0])
		if isBlocked(flag) {
			// Consume a separate value argument too
			skipNext = !strings.Contains(tok, "=")
			continue
		}
		out = append(out, tok)
	}
	return out
}

func isBlocked(flag string) bool {
	for _, b := range blockedFlags {
		if flag == b {
			return true
		}
	}
	return false
}

// SplitFlags tokenizes a settings string of extra flags. Quoted segments
// (single or double) stay together; quotes are stripped.
func SplitFlags(s string) []string {
	var tokens []string
	var cur strings.Builder
	var quote rune
	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
		case r == ' ' || r == '\t':
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

// DownloadRequest carries everything needed to build one yt-dlp invocation.
type DownloadRequest struct {
	URL            string
	OutputDir      string
	Format         string
	FfmpegPath     string
	BrowserCookies string
	ExtraFlags     []string
	EmbedThumbnail bool
	EmbedMetadata  bool
}

// DownloadArgs builds the argument vector for a download run. Extra flags are
// sanitized here so every call site gets the same policy.
func DownloadArgs(req DownloadRequest) []string {
	format := req.Format
	if format == "" {
		format = constants.DefaultFormat
	}

	args := []string{
		"--newline",
		"--progress",
		"--no-warnings",
		"--ffmpeg-location", req.FfmpegPath,
		"-o", filepath.Join(req.OutputDir, "%(title)s.%(ext)s"),
		"--print", "after_move:filepath",
		"-f", format,
		"--merge-output-format", constants.DefaultMergeContainer,
	}
	if req.EmbedThumbnail {
		args = append(args, "--embed-thumbnail")
	}
	if req.EmbedMetadata {
		args = append(args, "--embed-metadata")
	}
	if req.BrowserCookies != "" {
		args = append(args, "--cookies-from-browser", req.BrowserCookies)
	}
	args = append(args, SanitizeFlags(req.ExtraFlags)...)
	args = append(args, req.URL)
	return args
}
