// Package voice turns lyric text into a vocal clip via a speech API
// and applies the per-style effect chain.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aranel/songsmith/internal/audio"
)

// Synthesizer produces a raw spoken clip for a piece of text.
type Synthesizer interface {
	Speak(ctx context.Context, text, voiceStyle string) (audio.Clip, error)
}

const speechTimeout = 120 * time.Second

// Client is a Synthesizer backed by an OpenAI-compatible
// /audio/speech endpoint returning WAV data.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a speech client. baseURL should point at an
// OpenAI-compatible /v1 root.
func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: speechTimeout,
		},
	}
}

// apiVoice maps a voice style to the closest voice the speech API offers.
func apiVoice(style string) string {
	switch style {
	case "soprano":
		return "nova"
	case "choir":
		return "alloy"
	case "whisper":
		return "shimmer"
	default: // heroic_male
		return "onyx"
	}
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// Speak requests spoken audio for the text. The returned clip is the
// raw voice; callers apply style effects afterwards.
func (c *Client) Speak(ctx context.Context, text, voiceStyle string) (audio.Clip, error) {
	if strings.TrimSpace(text) == "" {
		return audio.Clip{}, fmt.Errorf("no text to speak")
	}

	body, err := json.Marshal(speechRequest{
		Model:          "tts-1",
		Input:          text,
		Voice:          apiVoice(voiceStyle),
		ResponseFormat: "wav",
	})
	if err != nil {
		return audio.Clip{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/speech", bytes.NewReader(body))
	if err != nil {
		return audio.Clip{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return audio.Clip{}, fmt.Errorf("speech API status %d: %s", resp.StatusCode, string(respBody))
	}

	clip, err := audio.DecodeWAV(resp.Body)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("decoding speech audio: %w", err)
	}
	if clip.Empty() {
		return audio.Clip{}, fmt.Errorf("speech API returned empty audio")
	}
	return clip, nil
}
