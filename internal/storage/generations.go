package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewGeneration describes the validated inputs for a generation record.
type NewGeneration struct {
	Title      string
	Theme      string
	VoiceStyle string
	MusicStyle string
}

// CreateGeneration inserts a new record in the pending state and
// returns it. The theme must be non-empty; validation failures here are
// a programming error in the handler layer, which validates first.
func (s *Store) CreateGeneration(n NewGeneration) (Generation, error) {
	if strings.TrimSpace(n.Theme) == "" {
		return Generation{}, fmt.Errorf("theme must not be empty")
	}

	g := Generation{
		ID:         uuid.New().String(),
		Title:      n.Title,
		Theme:      n.Theme,
		VoiceStyle: n.VoiceStyle,
		MusicStyle: n.MusicStyle,
		Status:     StatusPending,
		CreatedAt:  time.Now().UTC(),
	}

	_, err := s.db.Exec(`
		INSERT INTO generations (id, title, theme, voice_style, music_style, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Title, g.Theme, g.VoiceStyle, g.MusicStyle, g.Status,
		g.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		return Generation{}, err
	}
	return g, nil
}

const generationCols = `id, title, theme, voice_style, music_style, lyrics_json,
	audio_file, video_file, status, error, created_at, completed_at`

func scanGeneration(row interface{ Scan(...any) error }) (Generation, error) {
	var g Generation
	var createdAt string
	var completedAt sql.NullString
	err := row.Scan(&g.ID, &g.Title, &g.Theme, &g.VoiceStyle, &g.MusicStyle, &g.LyricsJSON,
		&g.AudioFile, &g.VideoFile, &g.Status, &g.Error, &createdAt, &completedAt)
	if err != nil {
		return Generation{}, err
	}
	t, err := time.Parse(timeFormat, createdAt)
	if err != nil {
		return Generation{}, fmt.Errorf("parsing created_at: %w", err)
	}
	g.CreatedAt = t
	if completedAt.Valid {
		ct, err := time.Parse(timeFormat, completedAt.String)
		if err != nil {
			return Generation{}, fmt.Errorf("parsing completed_at: %w", err)
		}
		g.CompletedAt = &ct
	}
	return g, nil
}

// GetGeneration returns the record with the given id or ErrNotFound.
func (s *Store) GetGeneration(id string) (Generation, error) {
	row := s.db.QueryRow(`SELECT `+generationCols+` FROM generations WHERE id = ?`, id)
	g, err := scanGeneration(row)
	if err == sql.ErrNoRows {
		return Generation{}, ErrNotFound
	}
	return g, err
}

// ListGenerations returns one page of records, most recent first, ties
// broken by id descending so paging never repeats a row. status filters
// when non-empty; page is 1-based.
func (s *Store) ListGenerations(status string, page, perPage int) ([]Generation, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 12
	}
	offset := (page - 1) * perPage

	query := `SELECT ` + generationCols + ` FROM generations`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, perPage, offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Generation
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, g)
	}
	return results, rows.Err()
}

// CountGenerations returns the number of records, optionally filtered by status.
func (s *Store) CountGenerations(status string) (int, error) {
	var n int
	var err error
	if status == "" {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM generations`).Scan(&n)
	} else {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM generations WHERE status = ?`, status).Scan(&n)
	}
	return n, err
}

// MarkRunning moves a pending generation into the running state.
// Records already past pending are left untouched and reported via
// ErrTerminal (or ErrNotFound).
func (s *Store) MarkRunning(id string) error {
	res, err := s.db.Exec(`
		UPDATE generations SET status = ?
		WHERE id = ? AND status = ?`,
		StatusRunning, id, StatusPending,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := s.GetGeneration(id); err != nil {
			return err
		}
		return ErrTerminal
	}
	return nil
}

// CompleteGeneration records a successful run. audioFile must be
// non-empty; videoFile may be empty when video synthesis failed (the
// generation still counts as completed). Calling it again with the same
// outcome is a no-op; a conflicting terminal state returns ErrTerminal.
func (s *Store) CompleteGeneration(id, lyricsJSON, audioFile, videoFile string) error {
	if audioFile == "" {
		return fmt.Errorf("completed generation requires an audio artifact")
	}
	return s.finish(id, StatusCompleted, func(tx *sql.Tx, now string) error {
		_, err := tx.Exec(`
			UPDATE generations
			SET status = ?, lyrics_json = ?, audio_file = ?, video_file = ?, error = '', completed_at = ?
			WHERE id = ?`,
			StatusCompleted, lyricsJSON, audioFile, videoFile, now, id,
		)
		return err
	})
}

// FailGeneration records an unrecoverable pipeline failure. The lyric
// sheet chosen for the run is kept for diagnostics; artifact references
// are cleared, a failed generation never exposes partial output.
func (s *Store) FailGeneration(id, lyricsJSON, message string) error {
	return s.finish(id, StatusFailed, func(tx *sql.Tx, now string) error {
		_, err := tx.Exec(`
			UPDATE generations
			SET status = ?, lyrics_json = ?, audio_file = '', video_file = '', error = ?, completed_at = ?
			WHERE id = ?`,
			StatusFailed, lyricsJSON, message, now, id,
		)
		return err
	})
}

// finish applies a terminal transition under the idempotency rules of
// the lifecycle: same terminal status twice is a no-op, a different
// terminal status is ErrTerminal.
func (s *Store) finish(id, target string, update func(tx *sql.Tx, now string) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRow(`SELECT status FROM generations WHERE id = ?`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	switch current {
	case target:
		return nil
	case StatusCompleted, StatusFailed:
		return ErrTerminal
	}

	now := time.Now().UTC().Format(timeFormat)
	if err := update(tx, now); err != nil {
		return err
	}
	return tx.Commit()
}
