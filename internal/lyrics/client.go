package lyrics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTimeout = 60 * time.Second
	maxRetries     = 3
	initialBackoff = 500 * time.Millisecond
)

// Client calls an OpenAI-compatible chat-completions API to write lyrics.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewClient creates a lyrics client. baseURL should point at an
// OpenAI-compatible /v1 root.
func NewClient(apiKey, baseURL, model string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// wireSheet is the JSON shape the model is asked to produce. Timing
// comes back as "start:end" in seconds.
type wireSheet struct {
	Title    string `json:"title"`
	Theme    string `json:"theme"`
	FullText string `json:"full_text"`
	Verses   []struct {
		Type   string `json:"type"`
		Lyrics string `json:"lyrics"`
		Timing string `json:"timing"`
	} `json:"verses"`
}

const systemPrompt = "You are a professional lyricist specializing in epic, cinematic music."

func userPrompt(theme, title string) string {
	return fmt.Sprintf(`Create epic cinematic lyrics for a song titled %q with the theme %q.

The lyrics should be:
- Powerful and inspiring
- Suitable for orchestral/cinematic music
- Include verses, chorus, and bridge sections
- Have timing information for video synchronization

Return as JSON:
{
  "title": %q,
  "theme": %q,
  "full_text": "complete lyrics text",
  "verses": [
    {"type": "verse", "lyrics": "verse lyrics here", "timing": "0:30"}
  ]
}`, title, theme, title, theme)
}

// Generate asks the model for a lyric sheet. Rate-limit responses are
// retried with exponential backoff; any other failure is returned to
// the caller, which falls back to templates.
func (c *Client) Generate(ctx context.Context, theme, title string) (Sheet, error) {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle(theme)
	}

	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(theme, title)},
		},
	}
	req.ResponseFormat.Type = "json_object"

	body, err := json.Marshal(req)
	if err != nil {
		return Sheet{}, fmt.Errorf("marshaling request: %w", err)
	}

	var lastErr error
	for attempt := range maxRetries {
		content, err := c.doChat(ctx, body)
		if err == nil {
			return parseWireSheet(content, theme, title)
		}

		if !isRateLimit(err) {
			return Sheet{}, err
		}

		lastErr = err
		if attempt < maxRetries-1 {
			backoff := time.Duration(float64(initialBackoff) * math.Pow(2, float64(attempt)))
			select {
			case <-ctx.Done():
				return Sheet{}, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return Sheet{}, fmt.Errorf("rate limited after %d retries: %w", maxRetries, lastErr)
}

// rateLimitError is returned on HTTP 429.
type rateLimitError struct {
	status int
}

func (e *rateLimitError) Error() string {
	return fmt.Sprintf("rate limited (HTTP %d)", e.status)
}

func isRateLimit(err error) bool {
	_, ok := err.(*rateLimitError)
	return ok
}

func (c *Client) doChat(ctx context.Context, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &rateLimitError{status: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("response contains no choices")
	}
	return cr.Choices[0].Message.Content, nil
}

func parseWireSheet(content, theme, title string) (Sheet, error) {
	var ws wireSheet
	if err := json.Unmarshal([]byte(content), &ws); err != nil {
		return Sheet{}, fmt.Errorf("parsing model output: %w", err)
	}
	if strings.TrimSpace(ws.FullText) == "" || len(ws.Verses) == 0 {
		return Sheet{}, fmt.Errorf("model output missing lyrics")
	}

	s := Sheet{
		Title:    ws.Title,
		Theme:    ws.Theme,
		FullText: ws.FullText,
	}
	if s.Title == "" {
		s.Title = title
	}
	if s.Theme == "" {
		s.Theme = theme
	}

	for i, v := range ws.Verses {
		start, end, ok := parseTiming(v.Timing)
		if !ok {
			// Fall back to the fixed section grid.
			start, end = i*sectionSeconds, (i+1)*sectionSeconds
		}
		kind := v.Type
		if kind == "" {
			kind = "verse"
		}
		s.Sections = append(s.Sections, Section{
			Type:   kind,
			Lyrics: v.Lyrics,
			Start:  start,
			End:    end,
		})
	}
	return s, nil
}

// parseTiming reads "start:end" offsets in seconds.
func parseTiming(t string) (int, int, bool) {
	parts := strings.SplitN(t, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	start, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	end, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil || end < start || start < 0 {
		return 0, 0, false
	}
	return start, end, true
}
