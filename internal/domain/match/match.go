// Package match decides when two names denote the same person beyond doubt.
package match

import (
	"strings"

	name "github.com/rollcall/rollcall/internal/domain/name"
)

// Permutation-concatenation bounds: only name sides with this many tokens
// are tried against an unspaced run. Above four tokens the rule is more
// likely to glue unrelated people together than to help.
const (
	minPermuteTokens = 2
	maxPermuteTokens = 4
)

// Detector reports absolute matches between free-text names. An absolute
// match short-circuits fuzzy scoring and is always ranked first.
type Detector struct {
	norm *name.Normalizer
}

// New creates a Detector over the given normalizer.
func New(n *name.Normalizer) *Detector {
	return &Detector{norm: n}
}

// Absolute reports whether a and b are the same name beyond doubt:
// equal normal forms, equal raw letter runs, equal token sets, or one
// side being an unspaced concatenation of a permutation of the other's
// tokens. Symmetric; always false when either side normalizes to nothing.
func (d *Detector) Absolute(a, b string) bool {
	na := d.norm.Normalize(a)
	nb := d.norm.Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}

	// Letter runs come from the raw strings; nickname mapping applies to
	// tokens, never to runs.
	fa := name.Letters(a)
	fb := name.Letters(b)
	if fa == fb {
		return true
	}

	ta := strings.Fields(na)
	tb := strings.Fields(nb)
	if tokenSetsEqual(ta, tb) {
		return true
	}

	if len(ta) == 1 && concatsToRun(tb, fa) {
		return true
	}
	if len(tb) == 1 && concatsToRun(ta, fb) {
		return true
	}

	return false
}

// PunctuationEqual reports whether a and b differ only in punctuation,
// casing, or spacing: their raw letter runs are equal, with no nickname
// mapping and no reordering. Stricter than Absolute; gates certainty.
func (d *Detector) PunctuationEqual(a, b string) bool {
	fa := name.Letters(a)
	return fa != "" && fa == name.Letters(b)
}

// tokenSetsEqual compares tokens with set semantics: order-insensitive,
// duplicates collapse.
func tokenSetsEqual(a, b []string) bool {
	seen := make(map[string]struct{}, len(a))
	for _, t := range a {
		seen[t] = struct{}{}
	}
	other := make(map[string]struct{}, len(b))
	for _, t := range b {
		if _, ok := seen[t]; !ok {
			return false
		}
		other[t] = struct{}{}
	}
	return len(seen) == len(other)
}

// concatsToRun reports whether some permutation of tokens concatenates to
// the unspaced run. Token count is bounded to keep the search trivial.
func concatsToRun(tokens []string, run string) bool {
	if len(tokens) < minPermuteTokens || len(tokens) > maxPermuteTokens {
		return false
	}

	total := 0
	for _, t := range tokens {
		total += len(t)
	}
	if total != len(run) {
		return false
	}

	used := make([]bool, len(tokens))
	return permuteMatch(tokens, used, run)
}

// permuteMatch tries every unused token as the next prefix of the
// remaining run.
func permuteMatch(tokens []string, used []bool, rest string) bool {
	if rest == "" {
		return true
	}
	for i, t := range tokens {
		if used[i] || !strings.HasPrefix(rest, t) {
			continue
		}
		used[i] = true
		if permuteMatch(tokens, used, rest[len(t):]) {
			return true
		}
		used[i] = false
	}
	return false
}
