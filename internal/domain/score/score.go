// Package score computes composite name similarity in [0, 1].
package score

import (
	"math"
	"strings"

	name "github.com/rollcall/rollcall/internal/domain/name"
)

// Component weights. Character-level similarity of the normal forms
// dominates; token overlap catches reorderings; the raw letter run and
// initials components break near-ties.
const (
	weightSequence = 0.45
	weightTokens   = 0.35
	weightFlat     = 0.10
	weightInitials = 0.10
)

// Scorer computes the composite similarity of two free-text names over a
// shared normalizer.
type Scorer struct {
	norm *name.Normalizer
}

// New creates a Scorer over the given normalizer.
func New(n *name.Normalizer) *Scorer {
	return &Scorer{norm: n}
}

// Score returns the weighted composite similarity of a and b, clamped to
// [0, 1]. Symmetric; identical non-empty names score 1; two names that
// both normalize to nothing score 0.
func (s *Scorer) Score(a, b string) float64 {
	na := s.norm.Normalize(a)
	nb := s.norm.Normalize(b)
	if na == "" && nb == "" {
		return 0
	}

	base := sequenceSimilarity(na, nb)
	tokens := tokenJaccard(strings.Fields(na), strings.Fields(nb))
	// The run component sees the raw strings: nickname folds keep a small
	// residual distance instead of collapsing to full identity.
	flat := sequenceSimilarity(name.Letters(a), name.Letters(b))

	initials := 0.0
	if ia, ib := initialRun(na), initialRun(nb); ia != "" && ia == ib {
		initials = 1.0
	}

	v := weightSequence*base + weightTokens*tokens + weightFlat*flat + weightInitials*initials
	return math.Max(0, math.Min(1, v))
}

// sequenceSimilarity is normalized Levenshtein similarity: 1 minus the
// edit distance over the longer length.
func sequenceSimilarity(a, b string) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshtein(a, b))/float64(maxLen)
}

// levenshtein computes edit distance with the two-row dynamic program.
// Inputs are lowercase ASCII, so byte indexing is safe.
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost

			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// tokenJaccard is set intersection over union; duplicates collapse.
func tokenJaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}

	inter := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// initialRun returns the first letter of each token of an already
// normalized string.
func initialRun(normalized string) string {
	toks := strings.Fields(normalized)
	var b strings.Builder
	b.Grow(len(toks))
	for _, t := range toks {
		b.WriteByte(t[0])
	}
	return b.String()
}
