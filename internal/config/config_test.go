package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("PORT")
	os.Unsetenv("DB_PATH")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.DBPath != "vidsink.db" {
		t.Errorf("Expected default db path vidsink.db, got %s", cfg.DBPath)
	}
	if cfg.YtdlpPath != "yt-dlp" {
		t.Errorf("Expected default yt-dlp path, got %s", cfg.YtdlpPath)
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("PORT", "9090")
	os.Setenv("YTDLP_PATH", "/opt/bin/yt-dlp")
	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("YTDLP_PATH")
	}()

	cfg := Load()
	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Port)
	}
	if cfg.YtdlpPath != "/opt/bin/yt-dlp" {
		t.Errorf("Expected overridden yt-dlp path, got %s", cfg.YtdlpPath)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Port:         "8080",
		DBPath:       "test.db",
		DownloadsDir: "/tmp/downloads",
		YtdlpPath:    "yt-dlp",
		FfmpegPath:   "ffmpeg",
		LogLevel:     "info",
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid config, got error: %v", err)
	}

	bad := &Config{
		Port:         "not-a-port",
		DBPath:       "",
		DownloadsDir: "/tmp/downloads",
		YtdlpPath:    "yt-dlp",
		FfmpegPath:   "ffmpeg",
		LogLevel:     "loud",
	}
	if err := bad.Validate(); err == nil {
		t.Error("Expected validation errors for bad config")
	}

	outOfRange := &Config{
		Port:         "70000",
		DBPath:       "test.db",
		DownloadsDir: "/tmp/downloads",
		YtdlpPath:    "yt-dlp",
		FfmpegPath:   "ffmpeg",
		LogLevel:     "info",
	}
	if err := outOfRange.Validate(); err == nil {
		t.Error("Expected validation error for out-of-range port")
	}
}
