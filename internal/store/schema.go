package store

const Schema = `
CREATE TABLE IF NOT EXISTS downloads (
	id TEXT PRIMARY KEY,
	url TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	thumbnail TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	progress REAL DEFAULT 0,
	speed TEXT NOT NULL DEFAULT '',
	eta TEXT NOT NULL DEFAULT '',
	file_path TEXT NOT NULL DEFAULT '',
	file_size INTEGER DEFAULT 0,
	format_id TEXT NOT NULL DEFAULT '',
	format_label TEXT NOT NULL DEFAULT '',
	priority INTEGER DEFAULT 0,
	error TEXT NOT NULL DEFAULT '',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_downloads_status ON downloads(status);
CREATE INDEX IF NOT EXISTS idx_downloads_url ON downloads(url);

CREATE TABLE IF NOT EXISTS feeds (
	id TEXT PRIMARY KEY,
	url TEXT UNIQUE NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	channel_name TEXT NOT NULL DEFAULT '',
	thumbnail TEXT NOT NULL DEFAULT '',
	keywords TEXT NOT NULL DEFAULT '[]',  -- JSON array
	auto_download BOOLEAN DEFAULT 0,
	last_checked TEXT NOT NULL DEFAULT '',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS feed_items (
	id TEXT PRIMARY KEY,
	feed_id TEXT NOT NULL,
	video_id TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	thumbnail TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL DEFAULT '',
	published_at TEXT NOT NULL DEFAULT '',
	kind TEXT NOT NULL DEFAULT 'video',
	downloaded BOOLEAN DEFAULT 0,

	FOREIGN KEY (feed_id) REFERENCES feeds(id) ON DELETE CASCADE
);

-- One row per video per feed; re-fetches update metadata in place
CREATE UNIQUE INDEX IF NOT EXISTS idx_feed_items_identity ON feed_items(feed_id, video_id);
CREATE INDEX IF NOT EXISTS idx_feed_items_feed_id ON feed_items(feed_id);

CREATE TABLE IF NOT EXISTS transcripts (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	language TEXT NOT NULL DEFAULT '',
	text TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	progress REAL DEFAULT 0,
	error TEXT NOT NULL DEFAULT '',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`
