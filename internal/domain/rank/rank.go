// Package rank produces ordered roster candidates for source names.
package rank

import (
	"context"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	match "github.com/rollcall/rollcall/internal/domain/match"
	model "github.com/rollcall/rollcall/internal/domain/model"
	score "github.com/rollcall/rollcall/internal/domain/score"
	"github.com/rollcall/rollcall/pkg/metrics"
)

// Default ranking configuration constants.
const (
	DefaultTopK = 3

	// absoluteScore is the score assigned to a forced absolute match.
	// Certainty checks compare against this exact value, so it must never
	// come out of floating-point arithmetic.
	absoluteScore = 1.0
)

// Ranker scores a query name against every canonical identity and keeps
// the best K. An absolute match always takes rank one with a full score,
// whatever the composite scorer thinks of it.
type Ranker struct {
	detector *match.Detector
	scorer   *score.Scorer
	topK     int
	workers  int
}

// New creates a Ranker over the given detector and scorer.
func New(d *match.Detector, s *score.Scorer, opts ...Option) *Ranker {
	r := &Ranker{
		detector: d,
		scorer:   s,
		topK:     DefaultTopK,
		workers:  runtime.NumCPU(),
	}

	// Apply all options
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// TopK returns up to K candidates for query, best first. Candidates are
// ordered by composite score descending, ties broken by roster order.
// When any identity matches absolutely, rank one is such a match with a
// score of exactly 1.0, identities with an email preferred. An empty
// identity list yields an empty result.
func (r *Ranker) TopK(ctx context.Context, query string, identities []model.Identity) []model.Candidate {
	if len(identities) == 0 || ctx.Err() != nil {
		return nil
	}

	type scored struct {
		idx   int
		value float64
	}

	scores := make([]scored, len(identities))
	for i, id := range identities {
		scores[i] = scored{idx: i, value: r.scorer.Score(query, id.FullName)}
	}

	sort.SliceStable(scores, func(a, b int) bool {
		if scores[a].value != scores[b].value {
			return scores[a].value > scores[b].value
		}
		return scores[a].idx < scores[b].idx
	})

	forced := r.absoluteWinner(query, identities)

	k := r.topK
	if k > len(identities) {
		k = len(identities)
	}
	out := make([]model.Candidate, 0, k)

	if forced >= 0 {
		out = append(out, model.Candidate{
			Name:  identities[forced].FullName,
			Email: identities[forced].Email,
			Score: absoluteScore,
			Rank:  1,
		})
	}

	for _, sc := range scores {
		if len(out) == k {
			break
		}
		if sc.idx == forced {
			continue
		}
		out = append(out, model.Candidate{
			Name:  identities[sc.idx].FullName,
			Email: identities[sc.idx].Email,
			Score: sc.value,
			Rank:  len(out) + 1,
		})
	}

	return out
}

// absoluteWinner returns the index of the identity that should take rank
// one by absolute match, or -1. The first absolute match with an email
// wins; without any emailed match, the first match in roster order.
func (r *Ranker) absoluteWinner(query string, identities []model.Identity) int {
	winner := -1
	for i, id := range identities {
		if !r.detector.Absolute(query, id.FullName) {
			continue
		}
		if id.Email != "" {
			return i
		}
		if winner < 0 {
			winner = i
		}
	}
	return winner
}

// RankAll ranks a batch of queries concurrently and returns one candidate
// list per query, in query order. The scan is bounded by the configured
// worker count and stops early when ctx is cancelled.
func (r *Ranker) RankAll(ctx context.Context, queries []string, identities []model.Identity) ([][]model.Candidate, error) {
	start := time.Now()
	results := make([][]model.Candidate, len(queries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = r.TopK(ctx, q, identities)
			// A cancel mid-scan leaves a truncated list; report it so the
			// batch fails instead of emitting partial results.
			return ctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	metrics.ObserveRankDuration(time.Since(start).Seconds())
	return results, nil
}
