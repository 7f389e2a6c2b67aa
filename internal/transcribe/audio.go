package transcribe

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
)

// extractAudio pulls a compressed mono audio track out of a media file with
// ffmpeg. Whisper-style models want small inputs, not the original video.
func extractAudio(ctx context.Context, ffmpegPath, src, dst string) error {
	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-y",
		"-i", src,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-acodec", "libmp3lame",
		"-q:a", "4",
		dst,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		detail := lastNonEmptyLine(string(out))
		if detail != "" {
			return fmt.Errorf("ffmpeg failed: %w: %s", err, detail)
		}
		return fmt.Errorf("ffmpeg failed: %w", err)
	}
	return nil
}

// fetchRemoteAudio extracts the audio track of a remote source with yt-dlp
// and reports where it landed.
func fetchRemoteAudio(ctx context.Context, ytdlpPath, url, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, ytdlpPath,
		"-x",
		"--audio-format", "mp3",
		"--no-playlist",
		"--no-warnings",
		"-o", filepath.Join(dir, "audio.%(ext)s"),
		"--print", "after_move:filepath",
		url,
	)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if detail := lastNonEmptyLine(string(exitErr.Stderr)); detail != "" {
				return "", fmt.Errorf("audio fetch failed: %w: %s", err, detail)
			}
		}
		return "", fmt.Errorf("audio fetch failed: %w", err)
	}

	path := lastNonEmptyLine(string(out))
	if path == "" {
		return "", errors.New("audio fetch produced no output path")
	}
	return path, nil
}

// titleFor picks a display title for a source file. MP3 tags win when
// present; everything else falls back to the file name.
func titleFor(source string) string {
	if strings.EqualFold(filepath.Ext(source), ".mp3") {
		if tag, err := id3v2.Open(source, id3v2.Options{Parse: true, ParseFrames: []string{"Title"}}); err == nil {
			title := strings.TrimSpace(tag.Title())
			_ = tag.Close()
			if title != "" {
				return title
			}
		}
	}

	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func lastNonEmptyLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
