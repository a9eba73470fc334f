package storage

import (
	"time"
)

// AppendAuditEvent records one access-log row. Write-only from the
// system's perspective; read back only for display.
func (s *Store) AppendAuditEvent(e AuditEvent) error {
	if e.Severity == "" {
		e.Severity = "INFO"
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO audit_events (event_type, detail, severity, remote_addr, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.EventType, e.Detail, e.Severity, e.RemoteAddr, e.UserAgent,
		e.CreatedAt.Format(timeFormat),
	)
	return err
}

// ListAuditEvents returns the most recent events, newest first.
func (s *Store) ListAuditEvents(limit int) ([]AuditEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`
		SELECT id, event_type, detail, severity, remote_addr, user_agent, created_at
		FROM audit_events ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []AuditEvent
	for rows.Next() {
		var e AuditEvent
		var createdAt string
		if err := rows.Scan(&e.ID, &e.EventType, &e.Detail, &e.Severity, &e.RemoteAddr, &e.UserAgent, &createdAt); err != nil {
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
