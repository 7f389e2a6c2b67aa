package domain

import (
	"time"
)

type DownloadStatus string

const (
	DownloadStatusQueued      DownloadStatus = "queued"
	DownloadStatusDownloading DownloadStatus = "downloading"
	DownloadStatusPaused      DownloadStatus = "paused"
	DownloadStatusCompleted   DownloadStatus = "completed"
	DownloadStatusError       DownloadStatus = "error"
	DownloadStatusCancelled   DownloadStatus = "cancelled"
)

// Active reports whether the status counts against the duplicate-key check:
// a second download for the same (url, format) is rejected while one of these
// exists.
func (s DownloadStatus) Active() bool {
	switch s {
	case DownloadStatusQueued, DownloadStatusDownloading, DownloadStatusCompleted:
		return true
	}
	return false
}

// Download represents one tracked media acquisition
type Download struct {
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
	ID          string         `json:"id" db:"id"`
	URL         string         `json:"url" db:"url"`
	Title       string         `json:"title" db:"title"`
	Thumbnail   string         `json:"thumbnail" db:"thumbnail"`
	Status      DownloadStatus `json:"status" db:"status"`
	Speed       string         `json:"speed" db:"speed"`
	ETA         string         `json:"eta" db:"eta"`
	FilePath    string         `json:"file_path" db:"file_path"`
	FormatID    string         `json:"format_id" db:"format_id"`
	FormatLabel string         `json:"format_label" db:"format_label"`
	Error       string         `json:"error,omitempty" db:"error"`
	Progress    float64        `json:"progress" db:"progress"`
	FileSize    int64          `json:"file_size" db:"file_size"`
	Priority    int            `json:"priority" db:"priority"`
}

// Feed is a subscribed content source
type Feed struct {
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	ID           string      `json:"id" db:"id"`
	URL          string      `json:"url" db:"url"`
	Title        string      `json:"title" db:"title"`
	ChannelName  string      `json:"channel_name" db:"channel_name"`
	Thumbnail    string      `json:"thumbnail" db:"thumbnail"`
	Keywords     StringSlice `json:"keywords" db:"keywords"`
	LastChecked  string      `json:"last_checked" db:"last_checked"`
	AutoDownload bool        `json:"auto_download" db:"auto_download"`
}

type ItemKind string

const (
	ItemKindVideo ItemKind = "video"
	ItemKindShort ItemKind = "short"
)

// FeedItem is one discovered entry within a feed. Identity is stable across
// re-fetches; Downloaded is user-owned and survives metadata refreshes.
type FeedItem struct {
	ID          string   `json:"id" db:"id"`
	FeedID      string   `json:"feed_id" db:"feed_id"`
	VideoID     string   `json:"video_id" db:"video_id"`
	Title       string   `json:"title" db:"title"`
	Thumbnail   string   `json:"thumbnail" db:"thumbnail"`
	URL         string   `json:"url" db:"url"`
	PublishedAt string   `json:"published_at" db:"published_at"`
	Kind        ItemKind `json:"kind" db:"kind"`
	Downloaded  bool     `json:"downloaded" db:"downloaded"`
}

type TranscriptStatus string

const (
	TranscriptStatusPending    TranscriptStatus = "pending"
	TranscriptStatusProcessing TranscriptStatus = "processing"
	TranscriptStatusCompleted  TranscriptStatus = "completed"
	TranscriptStatusError      TranscriptStatus = "error"
	TranscriptStatusCancelled  TranscriptStatus = "cancelled"
)

// Transcript mirrors Download's lifecycle but has no pause/resume, only cancel.
type Transcript struct {
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
	ID        string           `json:"id" db:"id"`
	Source    string           `json:"source" db:"source"`
	Title     string           `json:"title" db:"title"`
	Language  string           `json:"language" db:"language"`
	Text      string           `json:"text" db:"text"`
	Status    TranscriptStatus `json:"status" db:"status"`
	Error     string           `json:"error,omitempty" db:"error"`
	Progress  float64          `json:"progress" db:"progress"`
}
