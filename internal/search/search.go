// Package search finds cues by their text.
package search

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"cuetrack/internal/cue"
)

// Match is one search hit.
type Match struct {
	Index int     `json:"index" yaml:"index"`
	Cue   cue.Cue `json:"cue" yaml:"cue"`
	// Score orders matches; lower is better.
	Score int `json:"score" yaml:"score"`
}

// Options tunes Find.
type Options struct {
	// Limit caps the number of matches. Zero means no limit.
	Limit int
	// Fuzzy also accepts cues containing the query's characters in order.
	Fuzzy bool
}

const (
	scoreExact    = 0
	scorePrefix   = 10
	scoreWord     = 20
	scoreContains = 50
	scoreFuzzy    = 100
)

// Find returns the cues matching query, best first. Case is ignored. Ties
// keep store order, so earlier cues come first.
func Find(cues []cue.Cue, query string, opts Options) []Match {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || len(cues) == 0 {
		return nil
	}

	texts := make([]string, len(cues))
	for i, c := range cues {
		texts[i] = strings.ToLower(c.Text)
	}

	matches := make([]Match, 0)
	fuzzyCandidates := make(map[int]bool)
	if opts.Fuzzy {
		for _, rank := range fuzzy.RankFindFold(query, texts) {
			fuzzyCandidates[rank.OriginalIndex] = true
		}
	}
	for i, text := range texts {
		score, ok := literalScore(text, query)
		if !ok {
			if !fuzzyCandidates[i] {
				continue
			}
			score = scoreFuzzy + fuzzy.LevenshteinDistance(query, text)
		}
		matches = append(matches, Match{Index: i, Cue: cues[i], Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score < matches[j].Score
	})
	if opts.Limit > 0 && len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
	}
	return matches
}

func literalScore(text, query string) (int, bool) {
	switch {
	case text == query:
		return scoreExact, true
	case strings.HasPrefix(text, query):
		return scorePrefix, true
	case strings.Contains(" "+text, " "+query):
		return scoreWord, true
	case strings.Contains(text, query):
		return scoreContains, true
	default:
		return 0, false
	}
}
