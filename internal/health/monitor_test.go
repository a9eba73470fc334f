package health

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aranel/songsmith/internal/storage"
)

func openTestStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:): %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInitialSnapshot(t *testing.T) {
	s := openTestStore(t)
	m := NewMonitor(s, t.TempDir(), true, nil)

	snap := m.Current()
	if snap.Status != "healthy" {
		t.Errorf("status = %q, want healthy", snap.Status)
	}
	if !snap.DatabaseOK {
		t.Error("database not reported ok")
	}
	if snap.Goroutines < 1 {
		t.Errorf("goroutines = %d", snap.Goroutines)
	}
	if snap.CheckedAt.IsZero() {
		t.Error("missing checked_at")
	}
}

func TestDegradedWithoutCredentials(t *testing.T) {
	s := openTestStore(t)
	m := NewMonitor(s, t.TempDir(), false, nil)

	if got := m.Current().Status; got != "degraded" {
		t.Errorf("status = %q, want degraded", got)
	}
}

func TestMediaCounts(t *testing.T) {
	s := openTestStore(t)
	dir := t.TempDir()

	if err := os.MkdirAll(filepath.Join(dir, "audio"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "video"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "audio", "a.wav"), []byte("0123456789"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "audio", "b.wav"), []byte("0123456789"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "video", "a.mp4"), []byte("01234"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := NewMonitor(s, dir, true, nil)
	snap := m.Current()
	if snap.AudioFiles != 2 || snap.VideoFiles != 1 {
		t.Errorf("files = %d audio, %d video", snap.AudioFiles, snap.VideoFiles)
	}
	if snap.MediaBytes != 25 {
		t.Errorf("media bytes = %d, want 25", snap.MediaBytes)
	}
}
