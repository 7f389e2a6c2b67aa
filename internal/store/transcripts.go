package store

import (
	"github.com/vidsink/vidsink/internal/domain"
)

func (db *DB) CreateTranscript(t *domain.Transcript) error {
	query := `INSERT INTO transcripts (id, source, title, language, text, status, progress, error, created_at)
		VALUES (:id, :source, :title, :language, :text, :status, :progress, :error, :created_at)`

	_, err := db.NamedExec(query, t)
	return err
}

func (db *DB) GetTranscript(id string) (*domain.Transcript, error) {
	query := `SELECT id, source, title, language, text, status, progress, error, created_at FROM transcripts WHERE id = ?`

	t := &domain.Transcript{}
	err := db.Get(t, query, id)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (db *DB) ListTranscripts(limit int) ([]*domain.Transcript, error) {
	query := `SELECT id, source, title, language, text, status, progress, error, created_at FROM transcripts ORDER BY created_at DESC LIMIT ?`

	var transcripts []*domain.Transcript
	err := db.Select(&transcripts, query, limit)
	return transcripts, err
}

func (db *DB) UpdateTranscriptStatus(id string, status domain.TranscriptStatus, progress float64) error {
	query := `UPDATE transcripts SET status = ?, progress = ? WHERE id = ?`
	_, err := db.Exec(query, status, progress, id)
	return err
}

// AdvanceTranscript moves a live transcript forward. Terminal rows are left
// alone so a racing cancel keeps its status.
func (db *DB) AdvanceTranscript(id string, status domain.TranscriptStatus, progress float64) error {
	query := `UPDATE transcripts SET status = ?, progress = ?
		WHERE id = ? AND status NOT IN ('completed', 'error', 'cancelled')`
	_, err := db.Exec(query, status, progress, id)
	return err
}

func (db *DB) UpdateTranscriptComplete(id, text, language string) error {
	query := `UPDATE transcripts SET status = ?, progress = 100, text = ?, language = ?
		WHERE id = ? AND status != 'cancelled'`
	_, err := db.Exec(query, domain.TranscriptStatusCompleted, text, language, id)
	return err
}

func (db *DB) UpdateTranscriptError(id, errorMsg string) error {
	query := `UPDATE transcripts SET status = ?, error = ? WHERE id = ? AND status != 'cancelled'`
	_, err := db.Exec(query, domain.TranscriptStatusError, errorMsg, id)
	return err
}

func (db *DB) DeleteTranscript(id string) error {
	query := `DELETE FROM transcripts WHERE id = ?`
	_, err := db.Exec(query, id)
	return err
}
