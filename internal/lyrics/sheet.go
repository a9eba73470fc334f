// Package lyrics produces the lyric sheet for a generation, either by
// calling a chat-completions API or from built-in templates.
package lyrics

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Section is one timed block of a lyric sheet. Start and End are
// offsets in seconds used for subtitle frames and vocal placement.
type Section struct {
	Type   string `json:"type"` // "verse", "chorus" or "bridge"
	Lyrics string `json:"lyrics"`
	Start  int    `json:"start_sec"`
	End    int    `json:"end_sec"`
}

// Sheet is the complete lyric sheet for one song.
type Sheet struct {
	Title    string    `json:"title"`
	Theme    string    `json:"theme"`
	FullText string    `json:"full_text"`
	Sections []Section `json:"sections"`
}

// DurationSec returns the end offset of the last section, or 0 for an
// empty sheet.
func (s Sheet) DurationSec() int {
	if len(s.Sections) == 0 {
		return 0
	}
	return s.Sections[len(s.Sections)-1].End
}

// Encode serializes the sheet for storage.
func (s Sheet) Encode() (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encoding lyric sheet: %w", err)
	}
	return string(b), nil
}

// Decode parses a stored lyric sheet.
func Decode(data string) (Sheet, error) {
	var s Sheet
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return Sheet{}, fmt.Errorf("decoding lyric sheet: %w", err)
	}
	return s, nil
}

// DefaultTitle derives a song title from the theme when the caller
// does not provide one.
func DefaultTitle(theme string) string {
	return "Anthem of " + strings.TrimSpace(theme)
}
