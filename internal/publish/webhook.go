// Package publish notifies an external webhook when a generation
// completes, so downstream automations can pick up the artifacts.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aranel/songsmith/internal/audit"
	"github.com/aranel/songsmith/internal/storage"
)

// Notifier posts completion events to a configured webhook URL. A nil
// Notifier drops events, so callers never need to guard.
type Notifier struct {
	url        string
	httpClient *http.Client
}

// NewNotifier creates a Notifier, or nil when no URL is configured.
func NewNotifier(url string) *Notifier {
	if url == "" {
		return nil
	}
	return &Notifier{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Event is the webhook payload for one completed generation.
type Event struct {
	GenerationID string `json:"generation_id"`
	Title        string `json:"title"`
	Theme        string `json:"theme"`
	VoiceStyle   string `json:"voice_style"`
	MusicStyle   string `json:"music_style"`
	AudioFile    string `json:"audio_file"`
	VideoFile    string `json:"video_file,omitempty"`
	Watermark    string `json:"watermark"`
	CompletedAt  string `json:"completed_at"`
}

// NotifyCompleted posts a completion event for the generation.
func (n *Notifier) NotifyCompleted(ctx context.Context, g storage.Generation) error {
	if n == nil {
		return nil
	}

	ev := Event{
		GenerationID: g.ID,
		Title:        g.Title,
		Theme:        g.Theme,
		VoiceStyle:   g.VoiceStyle,
		MusicStyle:   g.MusicStyle,
		AudioFile:    g.AudioFile,
		VideoFile:    g.VideoFile,
		Watermark:    audit.Watermark("AUDIO", g.ID),
	}
	if g.CompletedAt != nil {
		ev.CompletedAt = g.CompletedAt.UTC().Format(time.RFC3339)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}
