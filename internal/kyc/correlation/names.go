// Package correlation cross-validates identity attributes reported by
// different verification steps: names, dates of birth and PAN categories.
package correlation

import (
	"sort"
	"strings"
	"unicode"
)

// DefaultNameThreshold is the similarity at or above which two names are
// treated as the same person.
const DefaultNameThreshold = 0.8

// honorifics are dropped before comparison. "m/s" is matched before
// punctuation is stripped, the rest after.
var honorifics = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "miss": {}, "dr": {},
	"shri": {}, "smt": {}, "kumari": {}, "sri": {},
}

// NameMatch is the result of comparing two names.
type NameMatch struct {
	Similarity float64
	Valid      bool
}

// NameMatcher compares person names with a configurable threshold.
type NameMatcher struct {
	threshold float64
}

// NewNameMatcher returns a matcher. A non-positive threshold selects the default.
func NewNameMatcher(threshold float64) *NameMatcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultNameThreshold
	}
	return &NameMatcher{threshold: threshold}
}

// Threshold reports the configured cut-off.
func (m *NameMatcher) Threshold() float64 {
	return m.threshold
}

// MatchNames compares two names with the default threshold.
func MatchNames(a, b string) NameMatch {
	return NewNameMatcher(DefaultNameThreshold).Match(a, b)
}

// Match scores two names. The score is the better of an initial-aware token
// overlap and the edit-distance ratio of the sorted tokens. Match(a, b) and
// Match(b, a) always agree.
func (m *NameMatcher) Match(a, b string) NameMatch {
	ta, tb := tokenize(a), tokenize(b)
	if len(ta) == 0 || len(tb) == 0 {
		return NameMatch{}
	}

	overlap := max(tokenOverlap(ta, tb), tokenOverlap(tb, ta))
	ratio := levenshteinRatio(sortedJoin(ta), sortedJoin(tb))
	sim := max(overlap, ratio)

	return NameMatch{Similarity: sim, Valid: sim >= m.threshold}
}

// NormalizeName is the canonical form used for comparison, exposed for logging.
func NormalizeName(s string) string {
	return strings.Join(tokenize(s), " ")
}

func tokenize(s string) []string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "m/s", " ")

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, s)

	fields := strings.Fields(cleaned)
	out := fields[:0]
	for _, f := range fields {
		if _, ok := honorifics[f]; ok {
			continue
		}
		out = append(out, f)
	}
	return out
}

// tokenOverlap is the share of the shorter name's tokens found in the longer
// one. A single letter matches a token that starts with it. A single-token name
// compared with a multi-token one is scored against the longer side so that a
// bare first name does not count as a full match.
func tokenOverlap(a, b []string) float64 {
	short, long := a, b
	if len(b) < len(a) {
		short, long = b, a
	}

	used := make([]bool, len(long))
	matched := 0

	// Exact tokens first so initials cannot steal a full-word partner.
	pending := make([]string, 0, len(short))
	for _, tok := range short {
		if i := indexOf(long, used, func(c string) bool { return c == tok }); i >= 0 {
			used[i] = true
			matched++
			continue
		}
		pending = append(pending, tok)
	}
	for _, tok := range pending {
		i := indexOf(long, used, func(c string) bool { return isInitialOf(tok, c) || isInitialOf(c, tok) })
		if i >= 0 {
			used[i] = true
			matched++
		}
	}

	denom := len(short)
	if len(short) == 1 && len(long) > 1 {
		denom = len(long)
	}
	return float64(matched) / float64(denom)
}

func indexOf(tokens []string, used []bool, pred func(string) bool) int {
	for i, t := range tokens {
		if !used[i] && pred(t) {
			return i
		}
	}
	return -1
}

func isInitialOf(initial, word string) bool {
	return len([]rune(initial)) == 1 && strings.HasPrefix(word, initial)
}

func sortedJoin(tokens []string) string {
	cp := append([]string(nil), tokens...)
	sort.Strings(cp)
	return strings.Join(cp, " ")
}

func levenshteinRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
