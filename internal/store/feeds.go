package store

import (
	"database/sql"

	"github.com/vidsink/vidsink/internal/domain"
)

func (db *DB) CreateFeed(f *domain.Feed) error {
	query := `INSERT INTO feeds (id, url, title, channel_name, thumbnail, keywords, auto_download, last_checked, created_at)
		VALUES (:id, :url, :title, :channel_name, :thumbnail, :keywords, :auto_download, :last_checked, :created_at)`

	_, err := db.NamedExec(query, f)
	return err
}

func (db *DB) GetFeed(id string) (*domain.Feed, error) {
	query := `SELECT id, url, title, channel_name, thumbnail, keywords, auto_download, last_checked, created_at FROM feeds WHERE id = ?`

	f := &domain.Feed{}
	err := db.Get(f, query, id)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (db *DB) GetFeedByURL(url string) (*domain.Feed, error) {
	query := `SELECT id, url, title, channel_name, thumbnail, keywords, auto_download, last_checked, created_at FROM feeds WHERE url = ? LIMIT 1`

	f := &domain.Feed{}
	err := db.Get(f, query, url)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (db *DB) ListFeeds() ([]*domain.Feed, error) {
	query := `SELECT id, url, title, channel_name, thumbnail, keywords, auto_download, last_checked, created_at FROM feeds ORDER BY created_at ASC`

	var feeds []*domain.Feed
	err := db.Select(&feeds, query)
	return feeds, err
}

func (db *DB) UpdateFeedSettings(id string, keywords domain.StringSlice, autoDownload bool) error {
	query := `UPDATE feeds SET keywords = ?, auto_download = ? WHERE id = ?`
	_, err := db.Exec(query, keywords, autoDownload, id)
	return err
}

func (db *DB) UpdateFeedLastChecked(id, checkedAt string) error {
	query := `UPDATE feeds SET last_checked = ? WHERE id = ?`
	_, err := db.Exec(query, checkedAt, id)
	return err
}

// UpdateFeedChannelInfo fills in channel metadata discovered during a check.
// Empty incoming values never clobber what is already stored.
func (db *DB) UpdateFeedChannelInfo(id, title, channelName, thumbnail string) error {
	query := `UPDATE feeds SET
		title = CASE WHEN ? != '' THEN ? ELSE title END,
		channel_name = CASE WHEN ? != '' THEN ? ELSE channel_name END,
		thumbnail = CASE WHEN ? != '' THEN ? ELSE thumbnail END
	WHERE id = ?`
	_, err := db.Exec(query, title, title, channelName, channelName, thumbnail, thumbnail, id)
	return err
}

func (db *DB) DeleteFeed(id string) error {
	query := `DELETE FROM feeds WHERE id = ?`
	_, err := db.Exec(query, id)
	return err
}

// UpsertFeedItem inserts the item if its (feed_id, video_id) identity is new,
// otherwise refreshes its metadata. The downloaded column is user-owned and is
// never written on the update path. Returns true when the item was new.
func (db *DB) UpsertFeedItem(item *domain.FeedItem) (bool, error) {
	insert := `INSERT OR IGNORE INTO feed_items (id, feed_id, video_id, title, thumbnail, url, published_at, kind, downloaded)
		VALUES (:id, :feed_id, :video_id, :title, :thumbnail, :url, :published_at, :kind, :downloaded)`

	res, err := db.NamedExec(insert, item)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}

	update := `UPDATE feed_items SET title = ?, thumbnail = ?, url = ?, published_at = ?, kind = ?
		WHERE feed_id = ? AND video_id = ?`
	_, err = db.Exec(update, item.Title, item.Thumbnail, item.URL, item.PublishedAt, item.Kind, item.FeedID, item.VideoID)
	return false, err
}

func (db *DB) ListFeedItems(feedID string, limit int) ([]*domain.FeedItem, error) {
	query := `SELECT id, feed_id, video_id, title, thumbnail, url, published_at, kind, downloaded
		FROM feed_items WHERE feed_id = ? ORDER BY published_at DESC LIMIT ?`

	var items []*domain.FeedItem
	err := db.Select(&items, query, feedID, limit)
	return items, err
}

func (db *DB) SetFeedItemDownloaded(feedID, videoID string, downloaded bool) error {
	query := `UPDATE feed_items SET downloaded = ? WHERE feed_id = ? AND video_id = ?`
	_, err := db.Exec(query, downloaded, feedID, videoID)
	return err
}

func (db *DB) CountUndownloadedItems(feedID string) (int, error) {
	query := `SELECT COUNT(*) FROM feed_items WHERE feed_id = ? AND downloaded = 0`
	var count int
	err := db.Get(&count, query, feedID)
	return count, err
}
