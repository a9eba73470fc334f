package pipeline

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aranel/songsmith/internal/audio"
	"github.com/aranel/songsmith/internal/lyrics"
	"github.com/aranel/songsmith/internal/storage"
)

type fakeSynth struct {
	err   error
	calls int
}

func (f *fakeSynth) Speak(ctx context.Context, text, voiceStyle string) (audio.Clip, error) {
	f.calls++
	if f.err != nil {
		return audio.Clip{}, f.err
	}
	c := audio.Silence(time.Second, audio.DefaultSampleRate)
	for i := range c.Samples {
		t := float64(i) / float64(c.SampleRate)
		c.Samples[i] = 0.5 * math.Sin(2*math.Pi*220*t)
	}
	return c, nil
}

type fakeLyricist struct {
	sheet lyrics.Sheet
	err   error
}

func (f *fakeLyricist) Generate(ctx context.Context, theme, title string) (lyrics.Sheet, error) {
	if f.err != nil {
		return lyrics.Sheet{}, f.err
	}
	return f.sheet, nil
}

func newTestPipeline(t *testing.T, lyricist LyricsSource, synth *fakeSynth) (*Pipeline, *storage.Store) {
	t.Helper()
	s, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:): %v", err)
	}
	t.Cleanup(func() { s.Close() })

	p := New(Options{
		Store:    s,
		Lyricist: lyricist,
		Synth:    synth,
		MediaDir: t.TempDir(),
	})
	return p, s
}

func createPending(t *testing.T, s *storage.Store, theme string) storage.Generation {
	t.Helper()
	g, err := s.CreateGeneration(storage.NewGeneration{
		Theme:      theme,
		Title:      "Anthem of " + theme,
		VoiceStyle: "heroic_male",
		MusicStyle: "epic",
	})
	if err != nil {
		t.Fatalf("CreateGeneration: %v", err)
	}
	return g
}

func TestRunSuccess(t *testing.T) {
	lyr := &fakeLyricist{sheet: lyrics.Fallback("Epic Battle", "")}
	synth := &fakeSynth{}
	p, s := newTestPipeline(t, lyr, synth)
	g := createPending(t, s, "Epic Battle")

	if err := p.Run(context.Background(), g.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := s.GetGeneration(g.ID)
	if err != nil {
		t.Fatalf("GetGeneration: %v", err)
	}
	if got.Status != storage.StatusCompleted {
		t.Fatalf("status = %q, error = %q", got.Status, got.Error)
	}
	if got.AudioFile == "" {
		t.Error("completed generation missing audio artifact")
	}
	if got.VideoFile != "" {
		t.Errorf("video disabled but artifact recorded: %q", got.VideoFile)
	}
	if got.CompletedAt == nil {
		t.Error("missing completed_at")
	}

	// The audio artifact is a readable WAV on disk.
	f, err := os.Open(filepath.Join(p.mediaDir, got.AudioFile))
	if err != nil {
		t.Fatalf("opening artifact: %v", err)
	}
	defer f.Close()
	clip, err := audio.DecodeWAV(f)
	if err != nil {
		t.Fatalf("artifact not a WAV: %v", err)
	}
	if clip.Empty() {
		t.Error("artifact is silent and empty")
	}

	// Lyrics were persisted with the record.
	if got.LyricsJSON == "" {
		t.Error("lyrics not stored")
	}
	sheet, err := lyrics.Decode(got.LyricsJSON)
	if err != nil {
		t.Fatalf("stored lyrics unreadable: %v", err)
	}
	if len(sheet.Sections) == 0 {
		t.Error("stored lyric sheet has no sections")
	}

	// A learning entry was appended.
	entries, err := s.ListLearningEntries(10)
	if err != nil {
		t.Fatalf("ListLearningEntries: %v", err)
	}
	if len(entries) != 1 || entries[0].GenerationID != g.ID {
		t.Errorf("learning entries = %+v", entries)
	}
}

// TestRunVoiceFailure covers the hard failure path: the speech API is
// down, the generation ends failed with no artifacts.
func TestRunVoiceFailure(t *testing.T) {
	synth := &fakeSynth{err: errors.New("speech API status 503")}
	p, s := newTestPipeline(t, &fakeLyricist{sheet: lyrics.Fallback("Sacred Journey", "")}, synth)
	g := createPending(t, s, "Sacred Journey")

	err := p.Run(context.Background(), g.ID)
	if err == nil {
		t.Fatal("expected error from voice step")
	}
	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Step != "voice" {
		t.Errorf("err = %v, want voice StepError", err)
	}

	got, _ := s.GetGeneration(g.ID)
	if got.Status != storage.StatusFailed {
		t.Errorf("status = %q, want failed", got.Status)
	}
	if got.AudioFile != "" || got.VideoFile != "" {
		t.Errorf("failed generation has artifacts: %q %q", got.AudioFile, got.VideoFile)
	}
	if !strings.Contains(got.Error, "voice") {
		t.Errorf("error = %q, should name the failing step", got.Error)
	}
	if got.LyricsJSON == "" {
		t.Error("failed generation lost its lyric sheet")
	}

	// No learning entry for failures.
	entries, _ := s.ListLearningEntries(10)
	if len(entries) != 0 {
		t.Errorf("failure recorded a learning entry: %+v", entries)
	}
}

// TestRunLyricsFallback verifies a lyrics API failure is recoverable:
// templates take over and the run still completes.
func TestRunLyricsFallback(t *testing.T) {
	lyr := &fakeLyricist{err: errors.New("rate limited after 3 retries")}
	p, s := newTestPipeline(t, lyr, &fakeSynth{})
	g := createPending(t, s, "Epic Battle")

	if err := p.Run(context.Background(), g.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, _ := s.GetGeneration(g.ID)
	if got.Status != storage.StatusCompleted {
		t.Fatalf("status = %q, error = %q", got.Status, got.Error)
	}
	sheet, err := lyrics.Decode(got.LyricsJSON)
	if err != nil {
		t.Fatalf("decoding stored lyrics: %v", err)
	}
	if !strings.Contains(sheet.FullText, "Warriors gather in the dawn") {
		t.Errorf("expected battle template lyrics, got %q", sheet.FullText)
	}
}

func TestRunNilLyricistUsesTemplates(t *testing.T) {
	p, s := newTestPipeline(t, nil, &fakeSynth{})
	g := createPending(t, s, "Sacred Journey")

	if err := p.Run(context.Background(), g.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, _ := s.GetGeneration(g.ID)
	sheet, _ := lyrics.Decode(got.LyricsJSON)
	if !strings.Contains(sheet.FullText, "Divine light guides our way") {
		t.Errorf("expected sacred template lyrics, got %q", sheet.FullText)
	}
}

func TestRunSkipsNonPending(t *testing.T) {
	synth := &fakeSynth{}
	p, s := newTestPipeline(t, nil, synth)
	g := createPending(t, s, "Twice")

	if err := p.Run(context.Background(), g.ID); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	callsAfterFirst := synth.calls

	// A second run of the same record is a no-op, not a failure.
	if err := p.Run(context.Background(), g.ID); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if synth.calls != callsAfterFirst {
		t.Error("second run re-synthesized audio")
	}

	got, _ := s.GetGeneration(g.ID)
	if got.Status != storage.StatusCompleted {
		t.Errorf("status = %q", got.Status)
	}
}

func TestRunUnknownGeneration(t *testing.T) {
	p, _ := newTestPipeline(t, nil, &fakeSynth{})
	if err := p.Run(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// statusLyricist records the stored status of the generation at the
// moment the lyrics step runs.
type statusLyricist struct {
	store *storage.Store
	id    string
	seen  string
}

func (l *statusLyricist) Generate(ctx context.Context, theme, title string) (lyrics.Sheet, error) {
	g, err := l.store.GetGeneration(l.id)
	if err != nil {
		return lyrics.Sheet{}, err
	}
	l.seen = g.Status
	return lyrics.Fallback(theme, title), nil
}

// TestRunMarksRunningBeforeLyrics pins the transition order: the record
// is running before the first step executes, so readers watching the
// record never see a pending row with work underway.
func TestRunMarksRunningBeforeLyrics(t *testing.T) {
	s, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:): %v", err)
	}
	t.Cleanup(func() { s.Close() })

	g, err := s.CreateGeneration(storage.NewGeneration{
		Theme:      "Epic Battle",
		VoiceStyle: "heroic_male",
		MusicStyle: "epic",
	})
	if err != nil {
		t.Fatalf("CreateGeneration: %v", err)
	}

	lyr := &statusLyricist{store: s, id: g.ID}
	p := New(Options{
		Store:    s,
		Lyricist: lyr,
		Synth:    &fakeSynth{},
		MediaDir: t.TempDir(),
	})

	if err := p.Run(context.Background(), g.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if lyr.seen != storage.StatusRunning {
		t.Errorf("status during lyrics step = %q, want %q", lyr.seen, storage.StatusRunning)
	}
}

type fakeProducer struct {
	err   error
	calls int
}

func (f *fakeProducer) Produce(ctx context.Context, sheet lyrics.Sheet, musicStyle string, durationSec int, audioPath, outPath string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(outPath, []byte("mp4"), 0o644)
}

func TestRunVideoSuccess(t *testing.T) {
	prod := &fakeProducer{}
	s, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:): %v", err)
	}
	t.Cleanup(func() { s.Close() })
	p := New(Options{
		Store:    s,
		Synth:    &fakeSynth{},
		Video:    prod,
		MediaDir: t.TempDir(),
	})
	g := createPending(t, s, "Epic Battle")

	if err := p.Run(context.Background(), g.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, _ := s.GetGeneration(g.ID)
	if got.Status != storage.StatusCompleted {
		t.Fatalf("status = %q, error = %q", got.Status, got.Error)
	}
	if got.VideoFile != filepath.Join("video", g.ID+".mp4") {
		t.Errorf("video artifact = %q", got.VideoFile)
	}
	if prod.calls != 1 {
		t.Errorf("producer called %d times", prod.calls)
	}
	if _, err := os.Stat(filepath.Join(p.mediaDir, got.VideoFile)); err != nil {
		t.Errorf("video artifact missing on disk: %v", err)
	}
}

// TestRunVideoFailure covers the soft failure path: video synthesis
// breaks after a successful mix and the generation still completes,
// audio present, video absent.
func TestRunVideoFailure(t *testing.T) {
	prod := &fakeProducer{err: errors.New("ffmpeg exited with status 1")}
	s, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:): %v", err)
	}
	t.Cleanup(func() { s.Close() })
	p := New(Options{
		Store:    s,
		Synth:    &fakeSynth{},
		Video:    prod,
		MediaDir: t.TempDir(),
	})
	g := createPending(t, s, "Epic Battle")

	if err := p.Run(context.Background(), g.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, _ := s.GetGeneration(g.ID)
	if got.Status != storage.StatusCompleted {
		t.Fatalf("status = %q, error = %q", got.Status, got.Error)
	}
	if got.AudioFile == "" {
		t.Error("completed generation missing audio artifact")
	}
	if got.VideoFile != "" {
		t.Errorf("failed video step recorded an artifact: %q", got.VideoFile)
	}
	if prod.calls != 1 {
		t.Errorf("producer called %d times", prod.calls)
	}
}
