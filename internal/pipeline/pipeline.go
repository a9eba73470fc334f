// Package pipeline orchestrates the four content steps of a
// generation: lyrics, voice, mix, and video.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aranel/songsmith/internal/audio"
	"github.com/aranel/songsmith/internal/audit"
	"github.com/aranel/songsmith/internal/lyrics"
	"github.com/aranel/songsmith/internal/metrics"
	"github.com/aranel/songsmith/internal/publish"
	"github.com/aranel/songsmith/internal/storage"
	"github.com/aranel/songsmith/internal/voice"
)

// LyricsSource produces a lyric sheet for a theme.
type LyricsSource interface {
	Generate(ctx context.Context, theme, title string) (lyrics.Sheet, error)
}

// VideoProducer renders the video artifact for a finished track. A nil
// producer disables the video step.
type VideoProducer interface {
	Produce(ctx context.Context, sheet lyrics.Sheet, musicStyle string, durationSec int, audioPath, outputPath string) error
}

// StepError wraps a failure with the pipeline step that caused it.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Pipeline runs generations end to end and records their outcome.
type Pipeline struct {
	store    *storage.Store
	lyricist LyricsSource
	synth    voice.Synthesizer
	video    VideoProducer
	mediaDir string
	log      *slog.Logger
	metrics  *metrics.Metrics
	auditor  *audit.Auditor
	notifier *publish.Notifier
}

// Options carries the dependencies of a Pipeline. Lyricist may be nil,
// in which case templates are used directly; Video may be nil, which
// disables the video step.
type Options struct {
	Store    *storage.Store
	Lyricist LyricsSource
	Synth    voice.Synthesizer
	Video    VideoProducer
	MediaDir string
	Log      *slog.Logger
	Metrics  *metrics.Metrics
	Auditor  *audit.Auditor
	Notifier *publish.Notifier
}

// New creates a Pipeline.
func New(opts Options) *Pipeline {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	return &Pipeline{
		store:    opts.Store,
		lyricist: opts.Lyricist,
		synth:    opts.Synth,
		video:    opts.Video,
		mediaDir: opts.MediaDir,
		log:      opts.Log,
		metrics:  opts.Metrics,
		auditor:  opts.Auditor,
		notifier: opts.Notifier,
	}
}

// Run executes the content pipeline for one generation. The record
// moves pending -> running -> completed or failed. A lyrics failure
// falls back to templates, a video failure completes without video;
// voice and mix failures fail the generation.
func (p *Pipeline) Run(ctx context.Context, generationID string) error {
	g, err := p.store.GetGeneration(generationID)
	if err != nil {
		return fmt.Errorf("loading generation: %w", err)
	}

	if err := p.store.MarkRunning(g.ID); err != nil {
		if errors.Is(err, storage.ErrTerminal) {
			// Another worker already picked this record up.
			p.log.Warn("generation not pending, skipping", "id", g.ID)
			return nil
		}
		return fmt.Errorf("marking running: %w", err)
	}
	p.metrics.GenerationStarted()
	p.auditor.Log("GENERATION_START", "theme: "+g.Theme, "INFO")

	// Step 1: lyrics. Recoverable; never fails the generation.
	sheet := p.writeLyrics(ctx, g)
	sheetJSON, err := sheet.Encode()
	if err != nil {
		return p.fail(g.ID, "", &StepError{Step: "lyrics", Err: err})
	}

	// Step 2: voice. Fatal on failure.
	start := time.Now()
	vocal, err := p.synthesizeVoice(ctx, sheet, g.VoiceStyle)
	p.metrics.ObserveStep("voice", time.Since(start))
	if err != nil {
		return p.fail(g.ID, sheetJSON, &StepError{Step: "voice", Err: err})
	}

	// Step 3: mix. Fatal on failure.
	start = time.Now()
	audioRel, err := p.mixTrack(g.ID, vocal, g.MusicStyle)
	p.metrics.ObserveStep("mix", time.Since(start))
	if err != nil {
		return p.fail(g.ID, sheetJSON, &StepError{Step: "mix", Err: err})
	}

	// Step 4: video. Best effort; completion does not depend on it.
	start = time.Now()
	videoRel := p.renderVideo(ctx, g.ID, sheet, g.MusicStyle, vocal.Duration())
	p.metrics.ObserveStep("video", time.Since(start))

	if err := p.store.CompleteGeneration(g.ID, sheetJSON, audioRel, videoRel); err != nil {
		return fmt.Errorf("completing generation: %w", err)
	}
	p.metrics.GenerationCompleted()
	p.auditor.Log("GENERATION_COMPLETE", "id: "+g.ID, "INFO")

	// Successful runs feed the style statistics.
	if err := p.store.AppendLearningEntry(storage.LearningEntry{
		GenerationID: g.ID,
		Theme:        g.Theme,
		VoiceStyle:   g.VoiceStyle,
		MusicStyle:   g.MusicStyle,
		Rating:       5,
	}); err != nil {
		p.log.Error("recording learning entry", "id", g.ID, "error", err)
	}

	if p.notifier != nil {
		done, err := p.store.GetGeneration(g.ID)
		if err == nil {
			if err := p.notifier.NotifyCompleted(ctx, done); err != nil {
				p.log.Warn("publish webhook failed", "id", g.ID, "error", err)
			}
		}
	}

	p.log.Info("generation completed",
		"id", g.ID,
		"audio", audioRel,
		"video", videoRel,
	)
	return nil
}

// fail moves the generation to the failed state, keeping whatever
// lyrics were written, and returns the step error.
func (p *Pipeline) fail(id, lyricsJSON string, stepErr *StepError) error {
	p.log.Error("generation failed", "id", id, "step", stepErr.Step, "error", stepErr.Err)
	p.auditor.Log("GENERATION_ERROR", stepErr.Error(), "ERROR")
	p.metrics.GenerationFailed()
	if err := p.store.FailGeneration(id, lyricsJSON, stepErr.Error()); err != nil {
		p.log.Error("marking generation failed", "id", id, "error", err)
	}
	return stepErr
}

// writeLyrics asks the lyrics source for a sheet and falls back to
// templates when it is missing or errors.
func (p *Pipeline) writeLyrics(ctx context.Context, g storage.Generation) lyrics.Sheet {
	title := g.Title
	if title == "" {
		title = lyrics.DefaultTitle(g.Theme)
	}
	if p.lyricist == nil {
		return lyrics.Fallback(g.Theme, title)
	}
	sheet, err := p.lyricist.Generate(ctx, g.Theme, title)
	if err != nil {
		p.log.Warn("lyrics API failed, using templates", "id", g.ID, "error", err)
		p.auditor.Log("AI_LYRICS_ERROR", err.Error(), "WARNING")
		return lyrics.Fallback(g.Theme, title)
	}
	return sheet
}

func (p *Pipeline) synthesizeVoice(ctx context.Context, sheet lyrics.Sheet, style string) (audio.Clip, error) {
	raw, err := p.synth.Speak(ctx, sheet.FullText, style)
	if err != nil {
		return audio.Clip{}, err
	}
	return voice.ApplyStyle(raw, style), nil
}

// mixTrack lays the style bed under the vocal and writes the WAV
// artifact. The returned path is relative to the media directory.
func (p *Pipeline) mixTrack(id string, vocal audio.Clip, musicStyle string) (string, error) {
	if vocal.Empty() {
		return "", fmt.Errorf("vocal track is empty")
	}

	bed := audio.Bed(musicStyle, vocal.Duration())
	mixed := audio.Mix(vocal, bed)

	rel := filepath.Join("audio", id+".wav")
	abs := filepath.Join(p.mediaDir, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("creating audio directory: %w", err)
	}
	f, err := os.Create(abs)
	if err != nil {
		return "", fmt.Errorf("creating audio file: %w", err)
	}
	defer f.Close()
	if err := audio.EncodeWAV(f, mixed); err != nil {
		os.Remove(abs)
		return "", err
	}
	return rel, nil
}

// renderVideo produces the MP4 artifact, or "" when video is disabled
// or any part of the rendering fails.
func (p *Pipeline) renderVideo(ctx context.Context, id string, sheet lyrics.Sheet, musicStyle string, d time.Duration) string {
	if p.video == nil {
		return ""
	}

	durationSec := int(d.Seconds())
	if durationSec < 1 {
		durationSec = 1
	}

	rel := filepath.Join("video", id+".mp4")
	abs := filepath.Join(p.mediaDir, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		p.log.Warn("video skipped", "id", id, "error", err)
		return ""
	}
	audioAbs := filepath.Join(p.mediaDir, "audio", id+".wav")
	if err := p.video.Produce(ctx, sheet, musicStyle, durationSec, audioAbs, abs); err != nil {
		p.log.Warn("video step failed, completing without video", "id", id, "error", err)
		os.Remove(abs)
		return ""
	}
	return rel
}
