package storage

import (
	"errors"
	"time"
)

// timeFormat is a fixed-width UTC timestamp layout. Unlike
// time.RFC3339Nano it never trims trailing zeros, so the stored TEXT
// values sort lexicographically in chronological order.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrTerminal is returned when a status update would move a generation
// out of a terminal state it has already reached.
var ErrTerminal = errors.New("generation already in a different terminal state")

// Generation statuses. A generation moves pending -> running -> one of
// the two terminal states and never leaves it; a regenerate request
// creates a fresh record instead.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Generation is one song request and its outcome.
type Generation struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Theme       string     `json:"theme"`
	VoiceStyle  string     `json:"voice_style"`
	MusicStyle  string     `json:"music_style"`
	LyricsJSON  string     `json:"-"`
	AudioFile   string     `json:"audio_file,omitempty"`
	VideoFile   string     `json:"video_file,omitempty"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Terminal reports whether the generation reached a final state.
func (g Generation) Terminal() bool {
	return g.Status == StatusCompleted || g.Status == StatusFailed
}

// StaleAfter is how long a running generation may run before readers
// treat it as dead. No reaper mutates the row; Displayed converts it
// at read time.
const StaleAfter = 15 * time.Minute

// Stale reports whether a running generation has been running longer
// than the given threshold; readers display such rows as failed.
func (g Generation) Stale(threshold time.Duration, now time.Time) bool {
	return g.Status == StatusRunning && now.Sub(g.CreatedAt) > threshold
}

// Displayed returns the record as readers should present it: a running
// row older than StaleAfter is shown as failed. The stored row is not
// changed.
func (g Generation) Displayed(now time.Time) Generation {
	if g.Stale(StaleAfter, now) {
		g.Status = StatusFailed
		g.Error = "generation timed out"
	}
	return g
}

// LearningEntry is an append-only observation of one finished
// generation, used only for descriptive statistics.
type LearningEntry struct {
	ID           string    `json:"id"`
	GenerationID string    `json:"generation_id"`
	Theme        string    `json:"theme"`
	VoiceStyle   string    `json:"voice_style"`
	MusicStyle   string    `json:"music_style"`
	Rating       int       `json:"rating"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuditEvent is one append-only access-log row.
type AuditEvent struct {
	ID         int64     `json:"id"`
	EventType  string    `json:"event_type"`
	Detail     string    `json:"detail"`
	Severity   string    `json:"severity"`
	RemoteAddr string    `json:"remote_addr,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Job is a queued background task.
type Job struct {
	ID          string
	Type        string
	PayloadJSON string
	Status      string // "pending", "running", "completed", "failed"
	Attempts    int
	MaxAttempts int
	RunAfter    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastError   string
}
