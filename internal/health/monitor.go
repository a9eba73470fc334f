// Package health samples service liveness for the /health endpoint.
package health

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/aranel/songsmith/internal/storage"
	"github.com/aranel/songsmith/internal/video"
)

// SampleInterval is how often the monitor refreshes its snapshot.
const SampleInterval = 30 * time.Second

// Snapshot is one health sample.
type Snapshot struct {
	Status        string    `json:"status"` // "healthy" or "degraded"
	UptimeSec     int64     `json:"uptime_sec"`
	Goroutines    int       `json:"goroutines"`
	DatabaseOK    bool      `json:"database_ok"`
	FFmpeg        bool      `json:"ffmpeg_available"`
	LyricsKeySet  bool      `json:"lyrics_key_set"`
	AudioFiles    int       `json:"audio_files"`
	VideoFiles    int       `json:"video_files"`
	MediaBytes    int64     `json:"media_bytes"`
	CheckedAt     time.Time `json:"checked_at"`
}

// Monitor keeps a periodically refreshed health snapshot.
type Monitor struct {
	store     *storage.Store
	mediaDir  string
	lyricsKey bool
	start     time.Time
	log       *slog.Logger

	mu   sync.RWMutex
	last Snapshot
}

// NewMonitor creates a Monitor and takes an initial sample.
func NewMonitor(store *storage.Store, mediaDir string, lyricsKeySet bool, log *slog.Logger) *Monitor {
	if log == nil {
		log = slog.Default()
	}
	m := &Monitor{
		store:     store,
		mediaDir:  mediaDir,
		lyricsKey: lyricsKeySet,
		start:     time.Now(),
		log:       log,
	}
	m.last = m.sample()
	return m
}

// Run refreshes the snapshot until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(SampleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := m.sample()
			m.mu.Lock()
			m.last = snap
			m.mu.Unlock()
			if snap.Status != "healthy" {
				m.log.Warn("health degraded", "database_ok", snap.DatabaseOK, "lyrics_key_set", snap.LyricsKeySet)
			}
		}
	}
}

// Current returns the latest snapshot.
func (m *Monitor) Current() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

func (m *Monitor) sample() Snapshot {
	s := Snapshot{
		UptimeSec:    int64(time.Since(m.start).Seconds()),
		Goroutines:   runtime.NumGoroutine(),
		FFmpeg:       video.FFmpegAvailable(),
		LyricsKeySet: m.lyricsKey,
		CheckedAt:    time.Now().UTC(),
	}
	s.DatabaseOK = m.store.Ping() == nil
	s.AudioFiles, s.VideoFiles, s.MediaBytes = m.countMedia()

	// The database and credentials are required; ffmpeg is optional,
	// generations just complete without video.
	if s.DatabaseOK && s.LyricsKeySet {
		s.Status = "healthy"
	} else {
		s.Status = "degraded"
	}
	return s
}

func (m *Monitor) countMedia() (audioN, videoN int, bytes int64) {
	filepath.WalkDir(m.mediaDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		bytes += info.Size()
		switch filepath.Ext(path) {
		case ".wav":
			audioN++
		case ".mp4":
			videoN++
		}
		return nil
	})
	if _, err := os.Stat(m.mediaDir); err != nil {
		return 0, 0, 0
	}
	return audioN, videoN, bytes
}
