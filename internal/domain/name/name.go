// Package name normalizes free-text person names for matching.
package name

import (
	"strings"
	"unicode"
)

// defaultNicknames maps common short forms to the full given name used
// on rosters. Keys and values are already in normal form.
var defaultNicknames = map[string]string{
	"jon":       "john",
	"johnathan": "jonathan",
	"pat":       "patricia",
	"mike":      "michael",
	"liz":       "elizabeth",
	"beth":      "elizabeth",
	"alex":      "alexander",
	"sasha":     "alexander",
}

// Normalizer folds free-text names into a canonical comparable form:
// lowercase, letters and single spaces only, nickname tokens expanded.
// Expansion is a single pass, so an expansion target should itself be a
// normal-form fixed point or normalization stops being idempotent.
type Normalizer struct {
	nicknames map[string]string
}

// New creates a Normalizer with the default nickname table, adjusted by
// the given options.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		nicknames: make(map[string]string, len(defaultNicknames)),
	}
	for k, v := range defaultNicknames {
		n.nicknames[k] = v
	}

	// Apply all options
	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Normalize returns the canonical form of s: lowercased, every rune
// outside [a-z] and whitespace removed, whitespace runs collapsed to a
// single space, and each token replaced by its nickname expansion.
// Symbol-only input normalizes to the empty string.
func (n *Normalizer) Normalize(s string) string {
	lower := strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}

	toks := strings.Fields(b.String())
	for i, t := range toks {
		if full, ok := n.nicknames[t]; ok {
			toks[i] = full
		}
	}
	return strings.Join(toks, " ")
}

// Tokens returns the normalized form of s split into tokens.
func (n *Normalizer) Tokens(s string) []string {
	return strings.Fields(n.Normalize(s))
}

// Letters returns s lowercased with every rune outside [a-z] dropped: the
// raw letter run, untouched by nickname mapping. "Smith, John" and
// "smithjohn" reduce to the same run through this.
func Letters(s string) string {
	lower := strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Initials returns the first letter of each normalized token.
func (n *Normalizer) Initials(s string) string {
	toks := n.Tokens(s)
	var b strings.Builder
	b.Grow(len(toks))
	for _, t := range toks {
		b.WriteByte(t[0])
	}
	return b.String()
}
