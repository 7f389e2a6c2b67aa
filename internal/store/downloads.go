package store

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vidsink/vidsink/internal/domain"
)

func (db *DB) CreateDownload(d *domain.Download) error {
	query := `INSERT INTO downloads (id, url, title, thumbnail, status, progress, speed, eta, file_path, file_size, format_id, format_label, priority, error, created_at, updated_at)
		VALUES (:id, :url, :title, :thumbnail, :status, :progress, :speed, :eta, :file_path, :file_size, :format_id, :format_label, :priority, :error, :created_at, :updated_at)`

	_, err := db.NamedExec(query, d)
	return err
}

func (db *DB) GetDownload(id string) (*domain.Download, error) {
	query := `SELECT id, url, title, thumbnail, status, progress, speed, eta, file_path, file_size, format_id, format_label, priority, error, created_at, updated_at
		FROM downloads WHERE id = ?`

	d := &domain.Download{}
	err := db.Get(d, query, id)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (db *DB) ListDownloads(limit int) ([]*domain.Download, error) {
	query := `SELECT id, url, title, thumbnail, status, progress, speed, eta, file_path, file_size, format_id, format_label, priority, error, created_at, updated_at
		FROM downloads ORDER BY priority DESC, created_at DESC LIMIT ?`

	var downloads []*domain.Download
	err := db.Select(&downloads, query, limit)
	return downloads, err
}

func (db *DB) ListDownloadsByStatus(statuses ...domain.DownloadStatus) ([]*domain.Download, error) {
	query := `SELECT id, url, title, thumbnail, status, progress, speed, eta, file_path, file_size, format_id, format_label, priority, error, created_at, updated_at
		FROM downloads WHERE status IN (?) ORDER BY priority DESC, created_at DESC`

	q, args, err := sqlx.In(query, statuses)
	if err != nil {
		return nil, err
	}

	var downloads []*domain.Download
	err = db.Select(&downloads, db.Rebind(q), args...)
	return downloads, err
}

// GetActiveDownloadByKey returns an existing download for the same (url, format)
// pair that still holds the duplicate slot, or nil if none does.
func (db *DB) GetActiveDownloadByKey(url, formatID string) (*domain.Download, error) {
	query := `SELECT id, url, title, thumbnail, status, progress, speed, eta, file_path, file_size, format_id, format_label, priority, error, created_at, updated_at
		FROM downloads
		WHERE url = ? AND format_id = ? AND status IN ('queued', 'downloading', 'completed')
		LIMIT 1`

	d := &domain.Download{}
	err := db.Get(d, query, url, formatID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (db *DB) UpdateDownloadStatus(id string, status domain.DownloadStatus) error {
	query := `UPDATE downloads SET status = ?, updated_at = ? WHERE id = ?`
	_, err := db.Exec(query, status, time.Now().UTC(), id)
	return err
}

func (db *DB) UpdateDownloadProgress(id string, progress float64, speed, eta string) error {
	query := `UPDATE downloads SET progress = ?, speed = ?, eta = ?, updated_at = ? WHERE id = ?`
	_, err := db.Exec(query, progress, speed, eta, time.Now().UTC(), id)
	return err
}

func (db *DB) UpdateDownloadMeta(id, title, thumbnail string) error {
	query := `UPDATE downloads SET title = ?, thumbnail = ?, updated_at = ? WHERE id = ?`
	_, err := db.Exec(query, title, thumbnail, time.Now().UTC(), id)
	return err
}

// A cancelled row keeps its status even when the run's terminal write lands
// afterwards, same as transcripts.
func (db *DB) UpdateDownloadComplete(id, filePath string, fileSize int64) error {
	query := `UPDATE downloads SET status = ?, progress = 100, speed = '', eta = '', file_path = ?, file_size = ?, updated_at = ?
		WHERE id = ? AND status != 'cancelled'`
	_, err := db.Exec(query, domain.DownloadStatusCompleted, filePath, fileSize, time.Now().UTC(), id)
	return err
}

func (db *DB) UpdateDownloadError(id string, errorMsg string) error {
	query := `UPDATE downloads SET status = ?, error = ?, updated_at = ?
		WHERE id = ? AND status != 'cancelled'`
	_, err := db.Exec(query, domain.DownloadStatusError, errorMsg, time.Now().UTC(), id)
	return err
}

func (db *DB) UpdateDownloadPriority(id string, priority int) error {
	query := `UPDATE downloads SET priority = ?, updated_at = ? WHERE id = ?`
	_, err := db.Exec(query, priority, time.Now().UTC(), id)
	return err
}

func (db *DB) ResetDownloadForRetry(id string) error {
	query := `UPDATE downloads SET status = ?, progress = 0, speed = '', eta = '', error = '', updated_at = ? WHERE id = ?`
	_, err := db.Exec(query, domain.DownloadStatusQueued, time.Now().UTC(), id)
	return err
}

func (db *DB) DeleteDownload(id string) error {
	query := `DELETE FROM downloads WHERE id = ?`
	_, err := db.Exec(query, id)
	return err
}

// ResetStuckDownloads marks rows left in 'downloading' by a previous process
// as queued again. Called once at startup.
func (db *DB) ResetStuckDownloads() error {
	query := `UPDATE downloads SET status = ?, speed = '', eta = '', updated_at = ? WHERE status = 'downloading'`
	_, err := db.Exec(query, domain.DownloadStatusQueued, time.Now().UTC())
	return err
}

type DownloadStats struct {
	Total     int `db:"total"`
	Completed int `db:"completed"`
	Failed    int `db:"failed"`
	Cancelled int `db:"cancelled"`
}

func (db *DB) GetDownloadStats() (*DownloadStats, error) {
	query := `SELECT
		COUNT(*) as total,
		SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END) as completed,
		SUM(CASE WHEN status = 'error' THEN 1 ELSE 0 END) as failed,
		SUM(CASE WHEN status = 'cancelled' THEN 1 ELSE 0 END) as cancelled
	FROM downloads`

	stats := &DownloadStats{}
	err := db.Get(stats, query)
	return stats, err
}
