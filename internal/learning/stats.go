// Package learning summarizes past generations into the studio
// statistics surfaced by the API, the MCP server, and the CLI.
package learning

import (
	"sort"
	"strings"

	"github.com/aranel/songsmith/internal/storage"
)

// Stats is a descriptive snapshot of what the studio has produced.
type Stats struct {
	Total           int            `json:"total"`
	Completed       int            `json:"completed"`
	Failed          int            `json:"failed"`
	Pending         int            `json:"pending"`
	Running         int            `json:"running"`
	SuccessRate     float64        `json:"success_rate"` // percent of finished runs
	AvgDurationSec  float64        `json:"avg_duration_sec"`
	StyleCounts     map[string]int `json:"style_counts"`
	PopularKeywords []string       `json:"popular_keywords"`
	LearningEntries int            `json:"learning_entries"`
}

// topKeywords is how many theme keywords the snapshot reports.
const topKeywords = 5

// stopwords are skipped during theme keyword extraction.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "and": true,
	"in": true, "on": true, "to": true, "for": true, "my": true,
	"is": true, "at": true, "with": true,
}

// Compute builds a stats snapshot from the store.
func Compute(s *storage.Store) (Stats, error) {
	var st Stats
	var err error

	if st.Total, err = s.CountGenerations(""); err != nil {
		return Stats{}, err
	}
	if st.Completed, err = s.CountGenerations(storage.StatusCompleted); err != nil {
		return Stats{}, err
	}
	if st.Failed, err = s.CountGenerations(storage.StatusFailed); err != nil {
		return Stats{}, err
	}
	if st.Pending, err = s.CountGenerations(storage.StatusPending); err != nil {
		return Stats{}, err
	}
	if st.Running, err = s.CountGenerations(storage.StatusRunning); err != nil {
		return Stats{}, err
	}

	if finished := st.Completed + st.Failed; finished > 0 {
		st.SuccessRate = float64(st.Completed) / float64(finished) * 100
	}

	if st.AvgDurationSec, err = s.AverageCompletionSeconds(); err != nil {
		return Stats{}, err
	}
	if st.StyleCounts, err = s.StyleCounts(); err != nil {
		return Stats{}, err
	}

	entries, err := s.ListLearningEntries(500)
	if err != nil {
		return Stats{}, err
	}
	st.LearningEntries = len(entries)
	st.PopularKeywords = extractKeywords(entries)

	return st, nil
}

// extractKeywords counts theme words across learning entries and
// returns the most frequent ones, ties broken alphabetically.
func extractKeywords(entries []storage.LearningEntry) []string {
	counts := make(map[string]int)
	for _, e := range entries {
		for _, w := range strings.Fields(strings.ToLower(e.Theme)) {
			w = strings.Trim(w, ".,!?\"'")
			if len(w) < 2 || stopwords[w] {
				continue
			}
			counts[w]++
		}
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > topKeywords {
		words = words[:topKeywords]
	}
	return words
}
