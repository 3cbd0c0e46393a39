package name

import "strings"

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithNicknames merges extra nickname expansions over the current table.
// Keys and values are normalized to lowercase trimmed form; entries with
// an empty key or value are ignored.
func WithNicknames(nicknames map[string]string) Option {
	return func(n *Normalizer) {
		for k, v := range nicknames {
			k = strings.ToLower(strings.TrimSpace(k))
			v = strings.ToLower(strings.TrimSpace(v))
			if k == "" || v == "" {
				continue
			}
			n.nicknames[k] = v
		}
	}
}

// WithoutDefaultNicknames clears the built-in table. Combine with
// WithNicknames (after this option) to run a fully custom table.
func WithoutDefaultNicknames() Option {
	return func(n *Normalizer) {
		n.nicknames = make(map[string]string)
	}
}
