package rank_test

import (
	"context"
	"testing"

	match "github.com/rollcall/rollcall/internal/domain/match"
	model "github.com/rollcall/rollcall/internal/domain/model"
	name "github.com/rollcall/rollcall/internal/domain/name"
	rank "github.com/rollcall/rollcall/internal/domain/rank"
	score "github.com/rollcall/rollcall/internal/domain/score"
	. "github.com/smartystreets/goconvey/convey"
)

func newRanker(opts ...rank.Option) *rank.Ranker {
	n := name.New()
	return rank.New(match.New(n), score.New(n), opts...)
}

func TestTopK(t *testing.T) {
	Convey("Given a ranker over a small roster", t, func() {
		identities := []model.Identity{
			{FullName: "Jane Doe", Email: "jane.doe@example.org"},
			{FullName: "John Smith", Email: "john.smith@example.org"},
			{FullName: "Jon Smith", Email: ""},
			{FullName: "Alice Brown", Email: "alice.brown@example.org"},
		}
		r := newRanker()

		Convey("When the query matches absolutely", func() {
			got := r.TopK(context.Background(), "Jon Smith", identities)

			Convey("Then rank one should be forced to a full score", func() {
				So(got, ShouldNotBeEmpty)
				So(got[0].Score, ShouldEqual, 1.0)
				So(got[0].Rank, ShouldEqual, 1)
			})

			Convey("And the emailed absolute match should be preferred", func() {
				So(got[0].Name, ShouldEqual, "John Smith")
				So(got[0].Email, ShouldEqual, "john.smith@example.org")
			})

			Convey("And the forced winner should not repeat further down", func() {
				for _, c := range got[1:] {
					So(c.Name, ShouldNotEqual, "John Smith")
				}
			})
		})

		Convey("When only email-less identities match absolutely", func() {
			bare := []model.Identity{
				{FullName: "Jon Smith", Email: ""},
				{FullName: "John Smith", Email: ""},
			}
			got := r.TopK(context.Background(), "jon smith", bare)

			Convey("Then the first match in roster order should win", func() {
				So(got[0].Name, ShouldEqual, "Jon Smith")
				So(got[0].Score, ShouldEqual, 1.0)
			})
		})

		Convey("When no identity matches absolutely", func() {
			got := r.TopK(context.Background(), "Johnny Smithers", identities)

			Convey("Then candidates should be ordered by score descending", func() {
				So(got, ShouldHaveLength, 3)
				for i := 1; i < len(got); i++ {
					So(got[i-1].Score, ShouldBeGreaterThanOrEqualTo, got[i].Score)
				}
			})

			Convey("And ranks should be sequential from one", func() {
				for i, c := range got {
					So(c.Rank, ShouldEqual, i+1)
				}
			})

			Convey("And scores should stay within [0, 1]", func() {
				for _, c := range got {
					So(c.Score, ShouldBeGreaterThanOrEqualTo, 0.0)
					So(c.Score, ShouldBeLessThanOrEqualTo, 1.0)
				}
			})
		})

		Convey("When the configured K is smaller than the roster", func() {
			small := newRanker(rank.WithTopK(2))
			got := small.TopK(context.Background(), "John Smith", identities)

			Convey("Then only K candidates should come back", func() {
				So(got, ShouldHaveLength, 2)
			})
		})

		Convey("When the roster is smaller than K", func() {
			got := r.TopK(context.Background(), "John Smith", identities[:2])

			Convey("Then every identity should be a candidate", func() {
				So(got, ShouldHaveLength, 2)
			})
		})

		Convey("When the roster is empty", func() {
			got := r.TopK(context.Background(), "John Smith", nil)

			Convey("Then the result should be empty, not an error", func() {
				So(got, ShouldBeEmpty)
			})
		})
	})
}

func TestRankAll(t *testing.T) {
	Convey("Given a ranker and a batch of queries", t, func() {
		identities := []model.Identity{
			{FullName: "Jane Doe", Email: "jane.doe@example.org"},
			{FullName: "John Smith", Email: "john.smith@example.org"},
			{FullName: "Alice Brown", Email: "alice.brown@example.org"},
		}
		queries := []string{"jon smith", "alice browne", "Doe Jane", "Nobody Known"}
		r := newRanker(rank.WithWorkers(2))

		Convey("When ranking the batch", func() {
			got, err := r.RankAll(context.Background(), queries, identities)

			Convey("Then one result per query should come back in order", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, len(queries))
				for i, q := range queries {
					So(got[i], ShouldResemble, r.TopK(context.Background(), q, identities))
				}
			})
		})

		Convey("When ranking the same batch twice", func() {
			first, err1 := r.RankAll(context.Background(), queries, identities)
			second, err2 := r.RankAll(context.Background(), queries, identities)

			Convey("Then scheduling should never change the output", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(second, ShouldResemble, first)
			})
		})

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			got, err := r.RankAll(ctx, queries, identities)

			Convey("Then the scan should stop with the context error", func() {
				So(err, ShouldNotBeNil)
				So(got, ShouldBeNil)
			})
		})

		Convey("When the batch is empty", func() {
			got, err := r.RankAll(context.Background(), nil, identities)

			Convey("Then an empty result should come back", func() {
				So(err, ShouldBeNil)
				So(got, ShouldBeEmpty)
			})
		})
	})
}
