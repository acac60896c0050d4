package search

import (
	"testing"

	"cuetrack/internal/cue"
)

func transcript() []cue.Cue {
	return []cue.Cue{
		{Start: 0, End: 2, Text: "Welcome back to the kitchen"},
		{Start: 2, End: 4, Text: "Today we bake bread"},
		{Start: 4, End: 6, Text: "bread"},
		{Start: 6, End: 8, Text: "Knead the dough gently"},
		{Start: 8, End: 9, Text: "Shortbread comes later"},
	}
}

func indexes(matches []Match) []int {
	out := make([]int, len(matches))
	for i, m := range matches {
		out[i] = m.Index
	}
	return out
}

func TestFindRanksLiteralMatches(t *testing.T) {
	got := indexes(Find(transcript(), "Bread", Options{}))
	want := []int{2, 1, 4}
	if len(got) != len(want) {
		t.Fatalf("indexes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("indexes = %v, want %v", got, want)
		}
	}
}

func TestFindFuzzy(t *testing.T) {
	if got := Find(transcript(), "kndgh", Options{}); len(got) != 0 {
		t.Fatalf("literal search should not match, got %v", indexes(got))
	}
	got := Find(transcript(), "kndgh", Options{Fuzzy: true})
	if len(got) != 1 || got[0].Index != 3 {
		t.Fatalf("fuzzy matches = %v, want [3]", indexes(got))
	}
	if got[0].Score < scoreFuzzy {
		t.Fatalf("fuzzy match scored %d, want >= %d", got[0].Score, scoreFuzzy)
	}
}

func TestFindLimitAndEmpty(t *testing.T) {
	if got := Find(transcript(), "e", Options{Limit: 2}); len(got) != 2 {
		t.Fatalf("limit ignored: %d matches", len(got))
	}
	if got := Find(transcript(), "   ", Options{}); got != nil {
		t.Fatalf("blank query matched %v", indexes(got))
	}
	if got := Find(nil, "bread", Options{}); got != nil {
		t.Fatalf("empty cues matched %v", indexes(got))
	}
}
