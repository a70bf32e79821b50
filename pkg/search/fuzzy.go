// Package search implements the typo-tolerant multi-field matcher behind
// the dashboard search box. Scoring is a fixed ladder: exact match,
// whole-string substring, then per-word substring/prefix/edit-distance
// rules, with the first applicable rule winning.
package search

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Score values produced by the ladder. A zero score means no match.
const (
	scoreExact     = 1.0
	scoreSubstring = 0.9
	scorePrefix    = 0.7
	scoreTypo      = 0.5
)

// minTypoWordLen guards the edit-distance rule: very short query words
// produce too many accidental matches to be worth typo tolerance.
const minTypoWordLen = 4

// Score rates how well target matches query, returning 0 when it does not
// match at all. Both sides are case-insensitive and separator-normalized
// ('_' and '-' count as spaces). Empty queries never match.
func Score(target, query string) float64 {
	t := normalize(target)
	q := normalize(query)
	if t == "" || q == "" {
		return 0
	}

	if t == q {
		return scoreExact
	}
	if strings.Contains(t, q) {
		return scoreSubstring
	}

	queryWords := significantWords(q)
	if len(queryWords) == 0 {
		return 0
	}
	targetWords := strings.Fields(t)

	// Every query word must land on some target word, else no match.
	total := 0.0
	for _, qw := range queryWords {
		best := 0.0
		for _, tw := range targetWords {
			if s := wordScore(tw, qw); s > best {
				best = s
			}
			if best == scoreSubstring {
				break
			}
		}
		if best == 0 {
			return 0
		}
		total += best
	}
	return total / float64(len(queryWords))
}

// Matches reports whether query matches target at all.
func Matches(target, query string) bool { return Score(target, query) > 0 }

// BestFieldScore scores query against several searchable fields of one
// entity and keeps the maximum.
func BestFieldScore(query string, fields ...string) float64 {
	best := 0.0
	for _, f := range fields {
		if s := Score(f, query); s > best {
			best = s
		}
		if best == scoreExact {
			break
		}
	}
	return best
}

// Candidate is one searchable entity with its field texts.
type Candidate struct {
	ID     string
	Fields []string
}

// Match is one ranked search hit.
type Match struct {
	ID    string
	Score float64
}

// Rank scores every candidate against query and returns the hits sorted by
// descending score, id ascending on ties. Non-matching candidates are
// omitted.
func Rank(query string, candidates []Candidate) []Match {
	var matches []Match
	for _, c := range candidates {
		if s := BestFieldScore(query, c.Fields...); s > 0 {
			matches = append(matches, Match{ID: c.ID, Score: s})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	return matches
}

// wordScore applies the per-word ladder: substring-in-word, mutual prefix,
// then bounded positional difference for typo tolerance.
func wordScore(targetWord, queryWord string) float64 {
	if strings.Contains(targetWord, queryWord) {
		return scoreSubstring
	}
	if strings.HasPrefix(targetWord, queryWord) || strings.HasPrefix(queryWord, targetWord) {
		return scorePrefix
	}
	qr := []rune(queryWord)
	if len(qr) < minTypoWordLen {
		return 0
	}
	tr := []rune(targetWord)
	lenDiff := len(tr) - len(qr)
	if lenDiff < 0 {
		lenDiff = -lenDiff
	}
	if lenDiff > 2 {
		return 0
	}
	if positionalDiff(tr, qr)+lenDiff <= 2 {
		return scoreTypo
	}
	return 0
}

// positionalDiff counts differing runes at shared positions. It is a crude
// stand-in for edit distance that is cheap enough to run per keystroke.
func positionalDiff(a, b []rune) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	diff := 0
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			diff++
		}
	}
	return diff
}

// significantWords drops single-character words, which carry no signal.
func significantWords(s string) []string {
	var words []string
	for _, w := range strings.Fields(s) {
		if utf8.RuneCountInString(w) > 1 {
			words = append(words, w)
		}
	}
	return words
}

var separatorNormalizer = strings.NewReplacer("_", " ", "-", " ")

func normalize(s string) string {
	return strings.Join(strings.Fields(separatorNormalizer.Replace(strings.ToLower(s))), " ")
}
