package ytdlp

import (
	"strings"
	"testing"
)

func TestSanitizeFlags(t *testing.T) {
	in := []string{
		"--embed-subs",
		"--exec", "rm -rf /",
		"--sponsorblock-remove", "all",
		"--EXEC=touch /tmp/pwned",
		"--download-archive", "archive.txt",
		"-a", "batch.txt",
		"--write-thumbnail",
	}
	out := SanitizeFlags(in)

	want := []string{"--embed-subs", "--sponsorblock-remove", "all", "--write-thumbnail"}
	if len(out) != len(want) {
		t.Fatalf("SanitizeFlags = %v, want %v", out, want)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %q, want %q", i, out[i], want[i])
		}
	}
}

func TestSanitizeFlagsBlockedFollowedByFlag(t *testing.T) {
	// The token after a blocked flag survives when it is itself a flag
	out := SanitizeFlags([]string{"--batch-file", "--no-playlist"})
	if len(out) != 1 || out[0] != "--no-playlist" {
		t.Errorf("Expected [--no-playlist], got %v", out)
	}
}

func TestSplitFlags(t *testing.T) {
	tokens := SplitFlags(`--embed-subs --postprocessor-args "-threads 4" --proxy 'http://proxy:8080'`)
	want := []string{"--embed-subs", "--postprocessor-args", "-threads 4", "--proxy", "http://proxy:8080"}
	if len(tokens) != len(want) {
		t.Fatalf("SplitFlags = %v, want %v", tokens, want)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("tokens[%d] = %q, want %q", i, tokens[i], want[i])
		}
	}

	if got := SplitFlags(""); len(got) != 0 {
		t.Errorf("Expected no tokens for empty string, got %v", got)
	}
}

func TestDownloadArgs(t *testing.T) {
	req := DownloadRequest{
		URL:        "https://example.com/watch?v=abc",
		OutputDir:  "/downloads",
		Format:     "bestvideo+bestaudio/best",
		FfmpegPath: "/usr/bin/ffmpeg",
		ExtraFlags: []string{"--embed-subs", "--exec", "evil"},
	}
	args := DownloadArgs(req)

	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "--newline") {
		t.Error("Expected --newline in args")
	}
	if !strings.Contains(joined, "--print after_move:filepath") {
		t.Error("Expected after_move:filepath print in args")
	}
	if !strings.Contains(joined, "--merge-output-format mp4") {
		t.Error("Expected merge output format in args")
	}
	if strings.Contains(joined, "--exec") || strings.Contains(joined, "evil") {
		t.Error("Expected blocked flag stripped from args")
	}
	if args[len(args)-1] != req.URL {
		t.Errorf("Expected URL last, got %s", args[len(args)-1])
	}
}

func TestDownloadArgsDefaults(t *testing.T) {
	args := DownloadArgs(DownloadRequest{
		URL:        "https://example.com/watch?v=abc",
		OutputDir:  "/downloads",
		FfmpegPath: "ffmpeg",
	})
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-f bestvideo+bestaudio/best") {
		t.Errorf("Expected default format, got %s", joined)
	}
}

func TestDownloadArgsOptional(t *testing.T) {
	args := DownloadArgs(DownloadRequest{
		URL:            "https://example.com/watch?v=abc",
		OutputDir:      "/downloads",
		FfmpegPath:     "ffmpeg",
		EmbedThumbnail: true,
		EmbedMetadata:  true,
		BrowserCookies: "firefox",
	})
	joined := strings.Join(args, " ")
	for _, want := range []string{"--embed-thumbnail", "--embed-metadata", "--cookies-from-browser firefox"} {
		if !strings.Contains(joined, want) {
			t.Errorf("Expected %q in args, got %s", want, joined)
		}
	}
}
