package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vidsink/vidsink/internal/constants"
)

// Config holds all application configuration
type Config struct {
	Port          string
	DBPath        string
	DownloadsDir  string
	YtdlpPath     string
	FfmpegPath    string
	TranscribeURL string
	LogLevel      string
	LogFormat     string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	home, _ := os.UserHomeDir()
	defaultDownload := filepath.Join(home, "Downloads/vidsink")

	return &Config{
		Port:          getEnv("PORT", constants.DefaultPort),
		DBPath:        getEnv("DB_PATH", constants.DefaultDBPath),
		DownloadsDir:  getEnv("DOWNLOADS_DIR", defaultDownload),
		YtdlpPath:     getEnv("YTDLP_PATH", constants.DefaultYtdlpPath),
		FfmpegPath:    getEnv("FFMPEG_PATH", constants.DefaultFfmpegPath),
		TranscribeURL: getEnv("TRANSCRIBE_API_URL", "https://api.openai.com/v1/audio/transcriptions"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
	}
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	var errors []string

	if c.Port == "" {
		errors = append(errors, "PORT cannot be empty")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("PORT must be a valid number, got: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("PORT must be between 1 and 65535, got: %d", port))
		}
	}

	if c.DBPath == "" {
		errors = append(errors, "DB_PATH cannot be empty")
	}

	if c.DownloadsDir == "" {
		errors = append(errors, "DOWNLOADS_DIR cannot be empty")
	}

	if c.YtdlpPath == "" {
		errors = append(errors, "YTDLP_PATH cannot be empty")
	}

	if c.FfmpegPath == "" {
		errors = append(errors, "FFMPEG_PATH cannot be empty")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
