// Package fixtures generates synthetic input pairs, an activity log and a
// matching roster, for trying the reconciliation pipeline against data
// with known ground truth.
package fixtures

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rollcall/rollcall/pkg/logger"
)

// Config holds settings for fixture generation.
type Config struct {
	Dir        string // directory the two CSV files are written to
	RosterSize int    // number of roster identities
	EventCount int    // number of activity-log rows
	Seed       int64  // RNG seed; equal seeds produce equal files
}

// Stats reports what one generation run produced.
type Stats struct {
	RosterRows    int
	EventRows     int
	MutatedRows   int
	DuplicateRows int
	Duration      time.Duration
}

// File names Run writes into Config.Dir.
const (
	EventsFile = "events.csv"
	RosterFile = "roster.csv"
)

// Run generates one fixture set and writes it to cfg.Dir. The log rows
// reference roster identities through misspelled, reordered, and
// nicknamed spellings, so the expected resolutions are known up front.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if cfg.RosterSize < 1 || cfg.EventCount < 1 {
		return nil, fmt.Errorf("%w: roster size and event count must be at least 1", ErrInvalidConfig)
	}

	log := logger.Get().Named("fixtures")
	start := time.Now()
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // deterministic fixtures, not crypto

	stats := &Stats{}
	roster := makeRoster(rng, cfg.RosterSize)
	events := makeEvents(rng, roster, cfg.EventCount, stats)
	stats.RosterRows = len(roster)
	stats.EventRows = len(events)

	if err := writeRoster(cfg.Dir, roster); err != nil {
		return nil, err
	}
	if err := writeEvents(cfg.Dir, events); err != nil {
		return nil, err
	}

	stats.Duration = time.Since(start)
	log.Info(ctx, "fixture set written",
		logger.String("dir", cfg.Dir),
		logger.Int("roster_rows", stats.RosterRows),
		logger.Int("event_rows", stats.EventRows),
		logger.Int("mutated_rows", stats.MutatedRows),
		logger.Int("duplicate_rows", stats.DuplicateRows),
	)
	return stats, nil
}
