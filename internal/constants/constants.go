// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultPort           = "8080"
	DefaultDBPath         = "vidsink.db"
	DefaultYtdlpPath      = "yt-dlp"
	DefaultFfmpegPath     = "ffmpeg"
	DefaultFormat         = "bestvideo+bestaudio/best"
	DefaultMergeContainer = "mp4"
	DefaultHTTPTimeout    = 30 * time.Second
	ResolveHTTPTimeout    = 20 * time.Second
	AvatarHTTPTimeout     = 10 * time.Second
	TitlePrefetchTimeout  = 6 * time.Second
	DefaultCheckInterval  = 60 // minutes
	DisabledPollInterval  = time.Minute
	ProgressBuffer        = 64
	EventBuffer           = 128
	FeedImportBatchSize   = 200
	ListingDepth          = "5000"
	DefaultRetryCount     = 3
	DefaultRetryBase      = 500 * time.Millisecond
	MaxScrapeBody         = 2 << 20
)

// Minimum accepted length for an externally supplied URL.
const MinURLLength = 10

// Settings keys
const (
	SettingDownloadPath       = "download_path"
	SettingYtdlpFlags         = "ytdlp_flags"
	SettingEmbedThumbnail     = "embed_thumbnail"
	SettingEmbedMetadata      = "embed_metadata"
	SettingBrowserCookies     = "browser_cookies"
	SettingRSSCheckInterval   = "rss_check_interval"
	SettingTranscribeProvider = "transcribe_provider"
	SettingTranscribeAPIKey   = "transcribe_api_key"
	SettingTranscribeAPIModel = "transcribe_api_model"
	SettingWhisperBinPath     = "whisper_bin_path"
	SettingWhisperModelPath   = "whisper_model_path"
)

// Event names published on the bus
const (
	EventJobProgress      = "job-progress"
	EventJobComplete      = "job-complete"
	EventJobError         = "job-error"
	EventFeedSyncProgress = "feed-sync-progress"
	EventFeedUpdated      = "feed-updated"
	EventTranscript       = "transcription-progress"
)

// File Permissions
const (
	DirPermissions  = 0755
	FilePermissions = 0644
)

// UI/UX
const (
	MaxListResults = 500
)
