package storage

import (
	"fmt"
	"testing"
	"time"
)

func TestLearningAppendAndList(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 3; i++ {
		err := s.AppendLearningEntry(LearningEntry{
			GenerationID: fmt.Sprintf("g%d", i),
			Theme:        "Epic Battle",
			VoiceStyle:   "heroic_male",
			MusicStyle:   "epic",
			CreatedAt:    time.Date(2026, 1, 1, 0, 0, i, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("AppendLearningEntry: %v", err)
		}
	}

	entries, err := s.ListLearningEntries(10)
	if err != nil {
		t.Fatalf("ListLearningEntries: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].GenerationID != "g2" {
		t.Errorf("newest entry first: got %s", entries[0].GenerationID)
	}
}

func TestLearningPrune(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 5; i++ {
		err := s.AppendLearningEntry(LearningEntry{
			GenerationID: fmt.Sprintf("g%d", i),
			Theme:        "t",
			VoiceStyle:   "heroic_male",
			MusicStyle:   "epic",
			CreatedAt:    time.Date(2026, 1, 1, 0, 0, i, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("AppendLearningEntry: %v", err)
		}
	}

	removed, err := s.PruneLearningEntries(2)
	if err != nil {
		t.Fatalf("PruneLearningEntries: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}

	entries, err := s.ListLearningEntries(10)
	if err != nil {
		t.Fatalf("ListLearningEntries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries after prune, want 2", len(entries))
	}
	// The newest entries survive.
	if entries[0].GenerationID != "g4" || entries[1].GenerationID != "g3" {
		t.Errorf("prune kept wrong entries: %s, %s", entries[0].GenerationID, entries[1].GenerationID)
	}
}

func TestStyleCounts(t *testing.T) {
	s := openTestStore(t)

	styles := []string{"epic", "epic", "dark"}
	for i, ms := range styles {
		err := s.AppendLearningEntry(LearningEntry{
			GenerationID: fmt.Sprintf("g%d", i),
			Theme:        "t",
			VoiceStyle:   "heroic_male",
			MusicStyle:   ms,
		})
		if err != nil {
			t.Fatalf("AppendLearningEntry: %v", err)
		}
	}

	counts, err := s.StyleCounts()
	if err != nil {
		t.Fatalf("StyleCounts: %v", err)
	}
	if counts["epic"] != 2 || counts["dark"] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestAverageCompletionSeconds(t *testing.T) {
	s := openTestStore(t)

	avg, err := s.AverageCompletionSeconds()
	if err != nil {
		t.Fatalf("AverageCompletionSeconds: %v", err)
	}
	if avg != 0 {
		t.Errorf("empty store avg = %v, want 0", avg)
	}

	g := mustCreate(t, s, "Timed")
	if err := s.MarkRunning(g.ID); err != nil {
		t.Fatalf("MarkRunning: %v", err)
	}
	if err := s.CompleteGeneration(g.ID, "{}", "audio/x.wav", ""); err != nil {
		t.Fatalf("CompleteGeneration: %v", err)
	}

	avg, err = s.AverageCompletionSeconds()
	if err != nil {
		t.Fatalf("AverageCompletionSeconds: %v", err)
	}
	if avg < 0 {
		t.Errorf("avg = %v, want >= 0", avg)
	}
}
