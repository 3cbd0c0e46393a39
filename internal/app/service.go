// Package app wires the reconciliation pipeline end to end: ingest the
// activity log, canonicalize the roster, rank candidates, join, merge the
// human review round-trip, dedupe, aggregate, and emit the result tables.
package app

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rollcall/rollcall/internal/adapters/tabular"
	"github.com/rollcall/rollcall/internal/domain/match"
	"github.com/rollcall/rollcall/internal/domain/model"
	"github.com/rollcall/rollcall/internal/domain/name"
	"github.com/rollcall/rollcall/internal/domain/rank"
	"github.com/rollcall/rollcall/internal/domain/roster"
	"github.com/rollcall/rollcall/internal/domain/score"
	"github.com/rollcall/rollcall/pkg/logger"
	"github.com/rollcall/rollcall/pkg/metrics"
)

// Default pipeline configuration constants.
const (
	defaultMinMatch = 0.85
	defaultTopK     = 3
)

// Service runs the reconciliation pipeline as one synchronous batch.
type Service struct {
	mu sync.Mutex

	// Collaborators
	source    tabular.Source
	sinks     []tabular.Sink
	overrides []model.OverrideRule
	decisions []model.Decision

	// Configuration
	runID     string
	minMatch  float64
	topK      int
	workers   int
	category  string
	nicknames map[string]string

	// Logging
	logger logger.Logger
}

// Summary reports what a run did, for the caller's final log line.
type Summary struct {
	RunID            string
	Events           int
	DuplicateEvents  int
	Identities       int
	Collisions       int
	Proposals        int
	CertainProposals int
	LowConfidence    int
	MergedEvents     int
	Unmatched        int
	Totals           int
	ExcludedTotals   int
	Elapsed          time.Duration
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets the event/roster input source.
func WithSource(src tabular.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithSink adds an output sink. Every sink receives every table.
func WithSink(sink tabular.Sink) Option {
	return func(s *Service) {
		if sink != nil {
			s.sinks = append(s.sinks, sink)
		}
	}
}

// WithRunID fixes the run identifier instead of generating one, so the
// caller can correlate sink bookkeeping with the run log.
func WithRunID(id string) Option {
	return func(s *Service) {
		if id != "" {
			s.runID = id
		}
	}
}

// WithOverrides sets the manual override rules applied at the end of the
// merge chain.
func WithOverrides(rules []model.OverrideRule) Option {
	return func(s *Service) {
		s.overrides = rules
	}
}

// WithDecisions sets the human verdicts from a filled-in review table.
func WithDecisions(decisions []model.Decision) Option {
	return func(s *Service) {
		s.decisions = decisions
	}
}

// WithMinMatch sets the score threshold below which an automatic
// assignment is flagged for review.
func WithMinMatch(threshold float64) Option {
	return func(s *Service) {
		if threshold >= 0 && threshold <= 1 {
			s.minMatch = threshold
		}
	}
}

// WithTopK sets how many candidates each review row carries.
func WithTopK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithWorkers sets the ranking concurrency.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithCategory restricts the final totals to one roster category.
func WithCategory(category string) Option {
	return func(s *Service) {
		s.category = category
	}
}

// WithNicknames merges extra nickname expansions into the normalizer's
// built-in table.
func WithNicknames(nicknames map[string]string) Option {
	return func(s *Service) {
		s.nicknames = nicknames
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		minMatch: defaultMinMatch,
		topK:     defaultTopK,
		workers:  runtime.NumCPU(),
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run executes one reconciliation batch and emits every result table to
// every sink. It is safe to call again after it returns.
func (s *Service) Run(ctx context.Context) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	runID := s.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	sum := Summary{RunID: runID}

	log := s.logger
	if log == nil {
		log = logger.Get().Named("reconcile")
	}

	if s.source == nil {
		return sum, ErrNoSource
	}

	log.Info(ctx, "reconciliation run starting",
		logger.String("run_id", sum.RunID),
		logger.Float64("min_match", s.minMatch),
		logger.Int("top_k", s.topK),
		logger.Int("workers", s.workers),
	)

	events, err := s.source.Events(ctx)
	if err != nil {
		return sum, fmt.Errorf("%w: %w", ErrLoadEvents, err)
	}
	rosterRows, err := s.source.Roster(ctx)
	if err != nil {
		return sum, fmt.Errorf("%w: %w", ErrLoadRoster, err)
	}
	metrics.UpdateRosterSize(len(rosterRows))

	// Drop exact duplicate activity rows before anything else sees them.
	deduped, dupCount := dedupeEvents(events)
	sum.Events = len(deduped)
	sum.DuplicateEvents = dupCount
	log.Info(ctx, "activity log ingested",
		logger.Int("events", len(deduped)),
		logger.Int("duplicates_dropped", dupCount),
	)

	// Collapse the roster to one canonical row per email.
	identities, collisions := roster.Collapse(rosterRows)
	dir := roster.NewDirectory(identities)
	for range collisions {
		metrics.RecordRosterCollision()
	}
	metrics.UpdateIdentitiesTotal(len(identities))
	sum.Identities = len(identities)
	sum.Collisions = len(collisions)
	if len(collisions) > 0 {
		log.Warn(ctx, "roster emails collided",
			logger.Int("collisions", len(collisions)),
		)
	}

	// The matching stack is rebuilt per run so nickname configuration
	// always takes effect.
	normalizer := name.New(name.WithNicknames(s.nicknames))
	detector := match.New(normalizer)
	ranker := rank.New(detector, score.New(normalizer),
		rank.WithTopK(s.topK),
		rank.WithWorkers(s.workers),
	)

	// Rank every unique source name once; the join reuses the same lists.
	names := uniqueSortedNames(deduped)
	rankedLists, err := ranker.RankAll(ctx, names, identities)
	if err != nil {
		return sum, fmt.Errorf("%w: %w", ErrRank, err)
	}
	ranked := make(map[string][]model.Candidate, len(names))
	for i, nm := range names {
		ranked[nm] = rankedLists[i]
	}

	proposals := buildProposals(names, ranked, detector)
	sum.Proposals = len(proposals)
	for _, p := range proposals {
		if p.Certain {
			sum.CertainProposals++
		}
	}

	// Join each event to its rank-1 candidate, then flag weak automatic
	// assignments before any human input is merged.
	joined := joinEvents(deduped, ranked, dir)
	joined, lowCount := markLowConfidence(joined, s.minMatch)
	metrics.UpdateLowConfidenceEvents(lowCount)
	sum.LowConfidence = lowCount

	preOverrides := joined

	joined = applyDecisions(ctx, log, joined, s.decisions)
	joined = applyOverrides(ctx, log, joined, s.overrides, dir)

	// Collapse rows that resolved to the same identity and event.
	matched, removed, unmatched := dedupeJoined(joined)
	for range removed {
		metrics.RecordEventMerged()
	}
	sum.MergedEvents = len(removed)
	sum.Unmatched = len(unmatched)

	totals := aggregate(matched, dir)
	totals, excluded := filterCategory(totals, s.category)
	sum.Totals = len(totals)
	sum.ExcludedTotals = len(excluded)

	final := make([]model.JoinedEvent, 0, len(matched)+len(unmatched))
	final = append(final, matched...)
	final = append(final, unmatched...)

	tables := []tabular.Table{
		proposalsTable(proposals),
		collisionsTable(collisions),
		joinedTable(tableJoinedPreOverrides, preOverrides),
		joinedTable(tableJoinedEvents, final),
		joinedTable(tableDuplicatesRemoved, removed),
		joinedTable(tableUnmatched, unmatched),
		totalsTable(tableMasterList, totals),
		totalsTable(tableExcluded, excluded),
		auditTable(matched),
	}
	for _, t := range tables {
		for _, sink := range s.sinks {
			if err := sink.Write(ctx, t); err != nil {
				return sum, fmt.Errorf("%w: %s: %w", ErrEmit, t.Name, err)
			}
		}
	}

	sum.Elapsed = time.Since(start)
	log.Info(ctx, "reconciliation run finished",
		logger.String("run_id", sum.RunID),
		logger.Int("events", sum.Events),
		logger.Int("identities", sum.Identities),
		logger.Int("proposals", sum.Proposals),
		logger.Int("low_confidence", sum.LowConfidence),
		logger.Int("unmatched", sum.Unmatched),
		logger.Int("totals", sum.Totals),
		logger.Any("elapsed", sum.Elapsed),
	)
	return sum, nil
}
