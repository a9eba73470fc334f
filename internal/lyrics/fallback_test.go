package lyrics

import (
	"strings"
	"testing"
)

func TestFallbackThemeSelection(t *testing.T) {
	tests := []struct {
		theme    string
		wantLine string
	}{
		{"Epic Battle", "Warriors gather in the dawn"},
		{"the great war", "Warriors gather in the dawn"},
		{"Sacred Journey", "Divine light guides our way"},
		{"divine intervention", "Divine light guides our way"},
		{"anything else", "Rise above the shadow's call"},
	}
	for _, tt := range tests {
		s := Fallback(tt.theme, "")
		if !strings.Contains(s.FullText, tt.wantLine) {
			t.Errorf("Fallback(%q) full text %q missing %q", tt.theme, s.FullText, tt.wantLine)
		}
	}
}

func TestFallbackStructure(t *testing.T) {
	s := Fallback("Epic Battle", "")

	if s.Title != "Anthem of Epic Battle" {
		t.Errorf("title = %q", s.Title)
	}
	if s.Theme != "Epic Battle" {
		t.Errorf("theme = %q", s.Theme)
	}
	if len(s.Sections) != 4 {
		t.Fatalf("got %d sections, want 4", len(s.Sections))
	}
	for i, sec := range s.Sections {
		wantType := "verse"
		if i%2 == 1 {
			wantType = "chorus"
		}
		if sec.Type != wantType {
			t.Errorf("section %d type = %q, want %q", i, sec.Type, wantType)
		}
		if sec.Start != i*30 || sec.End != (i+1)*30 {
			t.Errorf("section %d timing = %d..%d", i, sec.Start, sec.End)
		}
	}
	if s.DurationSec() != 120 {
		t.Errorf("duration = %d, want 120", s.DurationSec())
	}
}

func TestFallbackKeepsExplicitTitle(t *testing.T) {
	s := Fallback("Epic Battle", "My Song")
	if s.Title != "My Song" {
		t.Errorf("title = %q, want My Song", s.Title)
	}
}

func TestSheetEncodeDecode(t *testing.T) {
	s := Fallback("Sacred Journey", "")
	data, err := s.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Title != s.Title || len(got.Sections) != len(s.Sections) {
		t.Errorf("round-trip mismatch: %+v", got)
	}
}
