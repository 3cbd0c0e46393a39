// Package config defines pipeline configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - Loading functions accept context.Context as the first parameter.
// - External errors must be wrapped via this package's sentinel errors.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// MinMatch is the low-confidence threshold for fuzzy assignments,
	// in [0, 1]. Assigned events scoring below it are flagged for review.
	MinMatch float64 `koanf:"min_match"`

	// TopK sets how many candidates each source name keeps.
	TopK int `koanf:"top_k"`

	// WorkerCount sets the number of concurrent ranking workers.
	WorkerCount int `koanf:"worker_count"`

	// Category optionally restricts final totals to one roster category,
	// compared case-insensitively. Empty means no filter.
	Category string `koanf:"category"`

	// OutDir is the directory CSV result tables are written to.
	OutDir string `koanf:"out_dir"`

	// SQLitePath optionally mirrors every result table into one SQLite
	// database. Empty disables the mirror.
	SQLitePath string `koanf:"sqlite_path"`

	// Nicknames adds nickname expansions on top of the built-in table,
	// e.g. peg: margaret.
	Nicknames map[string]string `koanf:"nicknames"`
}

// New creates a Config with defaults.
func New() *Config {
	c := &Config{
		LogLevel:    "info",
		MinMatch:    0.85,
		TopK:        3,
		WorkerCount: runtime.NumCPU(),
		Category:    "",
		OutDir:      "out",
		SQLitePath:  "",
		Nicknames:   map[string]string{},
	}
	return c
}
