package storage

import (
	"time"

	"github.com/google/uuid"
)

// AppendLearningEntry records one finished generation's inputs and
// chosen styles. Entries are never updated; PruneLearningEntries is the
// only deletion path.
func (s *Store) AppendLearningEntry(e LearningEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO learning_entries (id, generation_id, theme, voice_style, music_style, rating, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.GenerationID, e.Theme, e.VoiceStyle, e.MusicStyle, e.Rating,
		e.CreatedAt.Format(timeFormat),
	)
	return err
}

// ListLearningEntries returns the most recent entries, newest first.
func (s *Store) ListLearningEntries(limit int) ([]LearningEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`
		SELECT id, generation_id, theme, voice_style, music_style, rating, created_at
		FROM learning_entries ORDER BY created_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []LearningEntry
	for rows.Next() {
		var e LearningEntry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.GenerationID, &e.Theme, &e.VoiceStyle, &e.MusicStyle, &e.Rating, &createdAt); err != nil {
			return nil, err
		}
		t, err := time.Parse(timeFormat, createdAt)
		if err != nil {
			return nil, err
		}
		e.CreatedAt = t
		results = append(results, e)
	}
	return results, rows.Err()
}

// PruneLearningEntries deletes all but the newest keep entries and
// returns how many were removed. Bulk retention cleanup only.
func (s *Store) PruneLearningEntries(keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.Exec(`
		DELETE FROM learning_entries WHERE id NOT IN (
			SELECT id FROM learning_entries ORDER BY created_at DESC, id DESC LIMIT ?
		)`, keep,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// StyleCounts returns how many learning entries exist per music style.
func (s *Store) StyleCounts() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT music_style, COUNT(*) FROM learning_entries GROUP BY music_style`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var style string
		var n int
		if err := rows.Scan(&style, &n); err != nil {
			return nil, err
		}
		counts[style] = n
	}
	return counts, rows.Err()
}

// AverageCompletionSeconds returns the mean wall-clock duration of
// completed generations, or 0 when none exist.
func (s *Store) AverageCompletionSeconds() (float64, error) {
	rows, err := s.db.Query(`
		SELECT created_at, completed_at FROM generations
		WHERE status = ? AND completed_at IS NOT NULL`, StatusCompleted,
	)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var total float64
	var n int
	for rows.Next() {
		var created, completed string
		if err := rows.Scan(&created, &completed); err != nil {
			return 0, err
		}
		ct, err1 := time.Parse(timeFormat, created)
		ft, err2 := time.Parse(timeFormat, completed)
		if err1 != nil || err2 != nil {
			continue
		}
		total += ft.Sub(ct).Seconds()
		n++
	}
	if n == 0 {
		return 0, rows.Err()
	}
	return total / float64(n), rows.Err()
}
