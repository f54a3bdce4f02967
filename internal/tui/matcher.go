package tui

import (
	"sort"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"

	"github.com/NeverVane/histskim/internal/candidate"
)

// match is one candidate surviving the current query
type match struct {
	index     int   // position in the recency-ordered candidate slice
	positions []int // matched rune indexes into MatchText
}

type candidateSource []candidate.Candidate

func (s candidateSource) String(i int) string { return s[i].MatchText }
func (s candidateSource) Len() int            { return len(s) }

// rank filters candidates by query. An empty query keeps every candidate in
// recency order; otherwise candidates are ordered by fuzzy score and equal
// scores keep recency order.
func rank(query string, candidates []candidate.Candidate) []match {
	if query == "" {
		matches := make([]match, len(candidates))
		for i := range candidates {
			matches[i] = match{index: i}
		}
		return matches
	}

	found := fuzzy.FindFrom(query, candidateSource(candidates))
	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Score != found[j].Score {
			return found[i].Score > found[j].Score
		}
		return found[i].Index < found[j].Index
	})

	matches := make([]match, len(found))
	for i, f := range found {
		matches[i] = match{
			index:     f.Index,
			positions: runePositions(f.Str, f.MatchedIndexes),
		}
	}
	return matches
}

// runePositions converts matched byte offsets into rune indexes. Offsets that
// do not all fall on rune boundaries are taken to be rune indexes already.
func runePositions(s string, offsets []int) []int {
	if len(offsets) == 0 {
		return nil
	}

	byteToRune := make(map[int]int, len(s))
	r := 0
	for i := range s {
		byteToRune[i] = r
		r++
	}

	out := make([]int, 0, len(offsets))
	for _, off := range offsets {
		idx, ok := byteToRune[off]
		if !ok {
			return clampPositions(offsets, utf8.RuneCountInString(s))
		}
		out = append(out, idx)
	}
	return out
}

func clampPositions(positions []int, n int) []int {
	out := make([]int, 0, len(positions))
	for _, p := range positions {
		if p >= 0 && p < n {
			out = append(out, p)
		}
	}
	return out
}
