package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	tabular "github.com/rollcall/rollcall/internal/adapters/tabular"
	app "github.com/rollcall/rollcall/internal/app"
	model "github.com/rollcall/rollcall/internal/domain/model"
	"github.com/rollcall/rollcall/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// stubSource feeds fixed slices into the pipeline.
type stubSource struct {
	events []model.EventRecord
	roster []model.RosterRecord
}

func (s *stubSource) Events(_ context.Context) ([]model.EventRecord, error) {
	return s.events, nil
}

func (s *stubSource) Roster(_ context.Context) ([]model.RosterRecord, error) {
	return s.roster, nil
}

// captureSink keeps every emitted table in memory, keyed by name.
type captureSink struct {
	mu     sync.Mutex
	tables map[string]tabular.Table
}

func (c *captureSink) Write(_ context.Context, t tabular.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tables == nil {
		c.tables = make(map[string]tabular.Table)
	}
	c.tables[t.Name] = t
	return nil
}

// row returns the first row of a table whose first cell equals key.
func row(t tabular.Table, key string) []string {
	for _, r := range t.Rows {
		if len(r) > 0 && r[0] == key {
			return r
		}
	}
	return nil
}

// col returns the index of a named column, or -1.
func col(t tabular.Table, name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

func testRoster() []model.RosterRecord {
	return []model.RosterRecord{
		{Category: "Member", Subcategory: "Core", FullName: "John Smith", Country: "US", Email: "john@example.com", CCEmail: "lead@example.com", FirstConference: "2019"},
		{Category: "Member", FullName: "Mary Jane Doe", Country: "UK", Email: "mary@example.com", FirstConference: "2021"},
		{Category: "Guest", FullName: "Anne Leigh", Country: "CA", Email: "anne@example.com", FirstConference: "2022"},
		{Category: "Member", FullName: "Pat Riley"},
	}
}

func TestServiceNew(t *testing.T) {
	Convey("Given a service without a source", t, func() {
		svc := app.New()

		Convey("Then running it fails with the no-source kind", func() {
			_, err := svc.Run(context.Background())
			So(err, ShouldNotBeNil)
			So(errors.Is(err, app.ErrNoSource), ShouldBeTrue)
		})
	})
}

func TestServiceRunEndToEnd(t *testing.T) {
	Convey("Given an activity log exercising every matching rule", t, func() {
		src := &stubSource{
			events: []model.EventRecord{
				{SourceName: "Jon Smith", EventName: "Kickoff", CreditHours: 1.5},
				{SourceName: "JON SMITH", EventName: "kickoff", CreditHours: 1.5},
				{SourceName: "smith, john", EventName: "Summit", CreditHours: 2},
				{SourceName: "johnsmith", EventName: "Gala", CreditHours: 0.25},
				{SourceName: "Anne Lei", EventName: "Workshop", CreditHours: 3},
				{SourceName: "Mary Jane Doe", EventName: "Summit", CreditHours: 1},
				{SourceName: "John  Smith", EventName: "Summit", CreditHours: 2},
			},
			roster: testRoster(),
		}
		sink := &captureSink{}
		svc := app.New(
			app.WithSource(src),
			app.WithSink(sink),
			app.WithWorkers(4),
		)

		sum, err := svc.Run(context.Background())
		So(err, ShouldBeNil)

		Convey("Then the summary accounts for every stage", func() {
			So(sum.RunID, ShouldNotBeEmpty)
			So(sum.Events, ShouldEqual, 6)
			So(sum.DuplicateEvents, ShouldEqual, 1)
			So(sum.Identities, ShouldEqual, 4)
			So(sum.Collisions, ShouldEqual, 0)
			So(sum.Proposals, ShouldEqual, 6)
			So(sum.CertainProposals, ShouldEqual, 3)
			So(sum.LowConfidence, ShouldEqual, 1)
			So(sum.MergedEvents, ShouldEqual, 1)
			So(sum.Unmatched, ShouldEqual, 0)
			So(sum.Totals, ShouldEqual, 3)
		})

		Convey("Then nickname, token-order, and concatenation variants all resolve", func() {
			joined := sink.tables["joined_events"]
			So(joined.Rows, ShouldHaveLength, 5)

			emailCol := col(joined, "Email")
			scoreCol := col(joined, "Match_Score")
			sourceCol := col(joined, "Match_Source")
			for _, name := range []string{"Jon Smith", "smith, john", "johnsmith"} {
				r := row(joined, name)
				So(r, ShouldNotBeNil)
				So(r[emailCol], ShouldEqual, "john@example.com")
				So(r[scoreCol], ShouldEqual, "1.000")
				So(r[sourceCol], ShouldEqual, "FUZZY_NAME")
			}

			ccCol := col(joined, "CC_Email")
			So(row(joined, "Jon Smith")[ccCol], ShouldEqual, "lead@example.com")
		})

		Convey("Then the weak fuzzy match is flagged but still assigned", func() {
			joined := sink.tables["joined_events"]
			r := row(joined, "Anne Lei")
			So(r, ShouldNotBeNil)
			So(r[col(joined, "Email")], ShouldEqual, "anne@example.com")
			So(r[col(joined, "Review_Flag")], ShouldEqual, "LOW_CONFIDENCE_AUTOASSIGN")
		})

		Convey("Then the review table fronts the uncertain rows", func() {
			props := sink.tables["proposed_matches"]
			So(props.Rows, ShouldHaveLength, 6)
			So(props.Rows[0][0], ShouldEqual, "Anne Lei")

			certainCol := col(props, "Certain")
			top2Col := col(props, "Top2_Name")
			decisionCol := col(props, "Decision")

			concat := row(props, "johnsmith")
			So(concat[certainCol], ShouldEqual, "true")
			So(concat[top2Col], ShouldEqual, "")
			So(concat[decisionCol], ShouldEqual, "")

			// Nickname folds and token reorders rank 1.0 but still go to
			// review: only punctuation-level equality is auto-certain.
			for _, nm := range []string{"Jon Smith", "smith, john"} {
				r := row(props, nm)
				So(r[certainCol], ShouldEqual, "false")
				So(r[col(props, "Top1_Score")], ShouldEqual, "1.000")
				So(r[top2Col], ShouldNotEqual, "")
			}
		})

		Convey("Then same-identity same-event rows merge before aggregation", func() {
			removed := sink.tables["duplicates_removed_same_email_event"]
			So(removed.Rows, ShouldHaveLength, 1)
			So(removed.Rows[0][0], ShouldEqual, "John  Smith")

			master := sink.tables["master_list"]
			So(master.Rows, ShouldHaveLength, 3)
			So(master.Rows[0][0], ShouldEqual, "anne@example.com")
			So(master.Rows[1][0], ShouldEqual, "john@example.com")
			So(master.Rows[2][0], ShouldEqual, "mary@example.com")

			hoursCol := col(master, "Total_Hours")
			nameCol := col(master, "Display_Name")
			john := row(master, "john@example.com")
			So(john[hoursCol], ShouldEqual, "3.75")
			So(john[nameCol], ShouldEqual, "John Smith")
		})

		Convey("Then the audit trail covers exactly the surviving assignments", func() {
			audit := sink.tables["event_level_audit"]
			So(audit.Rows, ShouldHaveLength, 5)
			So(col(audit, "Match_Source"), ShouldNotEqual, -1)
		})
	})
}

func TestServiceRunDecisions(t *testing.T) {
	Convey("Given verdicts from a filled-in review table", t, func() {
		src := &stubSource{
			events: []model.EventRecord{
				{SourceName: "Jon Smith", EventName: "Kickoff", CreditHours: 1},
				{SourceName: "Anne Lei", EventName: "Workshop", CreditHours: 2},
				{SourceName: "Mystery Person", EventName: "Gala", CreditHours: 1.5},
			},
			roster: testRoster(),
		}
		sink := &captureSink{}
		svc := app.New(
			app.WithSource(src),
			app.WithSink(sink),
			app.WithDecisions([]model.Decision{
				{SourceName: "Jon Smith", SuggestedEmail: "ignored@example.com", Verdict: model.VerdictAccept, ChosenEmail: "chosen@example.com"},
				{SourceName: "Anne Lei", SuggestedEmail: "anne@example.com", Verdict: model.VerdictAccept},
				{SourceName: "Mystery Person", Verdict: model.VerdictReject},
				{SourceName: "Nobody Here", SuggestedEmail: "x@example.com", Verdict: model.VerdictAccept},
			}),
		)

		sum, err := svc.Run(context.Background())
		So(err, ShouldBeNil)

		joined := sink.tables["joined_events"]
		emailCol := col(joined, "Email")
		sourceCol := col(joined, "Match_Source")
		flagCol := col(joined, "Review_Flag")

		Convey("Then an accepted chosen email wins over the suggestion", func() {
			r := row(joined, "Jon Smith")
			So(r[emailCol], ShouldEqual, "chosen@example.com")
			So(r[sourceCol], ShouldEqual, "USER_ACCEPTED")
			So(r[flagCol], ShouldEqual, "")
		})

		Convey("Then an accepted suggestion clears the low-confidence flag", func() {
			r := row(joined, "Anne Lei")
			So(r[emailCol], ShouldEqual, "anne@example.com")
			So(r[sourceCol], ShouldEqual, "USER_ACCEPTED")
			So(r[flagCol], ShouldEqual, "")
		})

		Convey("Then a rejected row loses its email and waits for one", func() {
			unmatched := sink.tables["unmatched_needs_email"]
			So(unmatched.Rows, ShouldHaveLength, 1)
			r := unmatched.Rows[0]
			So(r[0], ShouldEqual, "Mystery Person")
			So(r[col(unmatched, "Match_Source")], ShouldEqual, "USER_REJECTED")
			So(r[col(unmatched, "Review_Flag")], ShouldEqual, "REJECTED_NEEDS_EMAIL")
			So(sum.Unmatched, ShouldEqual, 1)
		})

		Convey("Then totals follow the final emails, not the fuzzy join", func() {
			master := sink.tables["master_list"]
			So(master.Rows, ShouldHaveLength, 2)
			chosen := row(master, "chosen@example.com")
			So(chosen, ShouldNotBeNil)
			So(chosen[col(master, "Display_Name")], ShouldEqual, "John Smith")
		})
	})
}

func TestServiceRunOverrides(t *testing.T) {
	Convey("Given manual overrides alongside a conflicting verdict", t, func() {
		src := &stubSource{
			events: []model.EventRecord{
				{SourceName: "Jon Smith", EventName: "Kickoff", CreditHours: 1},
				{SourceName: "Unknown Guy", EventName: "Summit", CreditHours: 2},
				{SourceName: "Other Person", EventName: "Gala", CreditHours: 3},
			},
			roster: testRoster(),
		}
		sink := &captureSink{}
		svc := app.New(
			app.WithSource(src),
			app.WithSink(sink),
			app.WithDecisions([]model.Decision{
				{SourceName: "Unknown Guy", Verdict: model.VerdictReject},
			}),
			app.WithOverrides([]model.OverrideRule{
				{SourceName: "Unknown Guy", OverrideEmail: "forced@example.com"},
				{SourceName: "Other Person", OverrideIdentityName: "Mary Jane Doe"},
				{SourceName: "Jon Smith", OverrideIdentityName: "Ghost Name"},
			}),
		)

		_, err := svc.Run(context.Background())
		So(err, ShouldBeNil)

		joined := sink.tables["joined_events"]
		emailCol := col(joined, "Email")
		sourceCol := col(joined, "Match_Source")
		scoreCol := col(joined, "Match_Score")

		Convey("Then an email override wins over the rejection", func() {
			r := row(joined, "Unknown Guy")
			So(r[emailCol], ShouldEqual, "forced@example.com")
			So(r[sourceCol], ShouldEqual, "OVERRIDDEN_EMAIL")
			So(r[scoreCol], ShouldEqual, "1.000")
			So(r[col(joined, "Review_Flag")], ShouldEqual, "")
		})

		Convey("Then a name override copies the identity wholesale", func() {
			r := row(joined, "Other Person")
			So(r[emailCol], ShouldEqual, "mary@example.com")
			So(r[sourceCol], ShouldEqual, "OVERRIDDEN_NAME")
			So(r[col(joined, "Matched_Name")], ShouldEqual, "Mary Jane Doe")
			So(r[col(joined, "Category")], ShouldEqual, "Member")
			So(r[col(joined, "Country")], ShouldEqual, "UK")
		})

		Convey("Then an override naming an unknown identity changes nothing", func() {
			r := row(joined, "Jon Smith")
			So(r[emailCol], ShouldEqual, "john@example.com")
			So(r[sourceCol], ShouldEqual, "FUZZY_NAME")
		})
	})
}

func TestServiceRunCategoryFilter(t *testing.T) {
	Convey("Given a category filter in a different letter case", t, func() {
		src := &stubSource{
			events: []model.EventRecord{
				{SourceName: "John Smith", EventName: "Kickoff", CreditHours: 1},
				{SourceName: "Anne Leigh", EventName: "Workshop", CreditHours: 2},
			},
			roster: testRoster(),
		}
		sink := &captureSink{}
		svc := app.New(
			app.WithSource(src),
			app.WithSink(sink),
			app.WithCategory("MEMBER"),
		)

		sum, err := svc.Run(context.Background())
		So(err, ShouldBeNil)

		Convey("Then only matching categories stay in the master list", func() {
			master := sink.tables["master_list"]
			So(master.Rows, ShouldHaveLength, 1)
			So(master.Rows[0][0], ShouldEqual, "john@example.com")
			So(sum.Totals, ShouldEqual, 1)
			So(sum.ExcludedTotals, ShouldEqual, 1)
		})

		Convey("Then the excluded totals are preserved for inspection", func() {
			excluded := sink.tables["excluded_by_category"]
			So(excluded.Rows, ShouldHaveLength, 1)
			So(excluded.Rows[0][0], ShouldEqual, "anne@example.com")
			So(excluded.Rows[0][col(excluded, "Category")], ShouldEqual, "Guest")
		})
	})
}

func TestServiceRunCollisions(t *testing.T) {
	Convey("Given a roster where one email appears three times", t, func() {
		src := &stubSource{
			events: []model.EventRecord{
				{SourceName: "Aaron Beta", EventName: "Meet", CreditHours: 1},
			},
			roster: []model.RosterRecord{
				{Category: "Member", FullName: "Zed Alpha", Email: "dup@example.com"},
				{Category: "Member", FullName: "Aaron Beta", Email: "dup@example.com"},
				{Category: "Member", FullName: "Mid Gamma", Email: "dup@example.com"},
			},
		}
		sink := &captureSink{}
		svc := app.New(app.WithSource(src), app.WithSink(sink))

		sum, err := svc.Run(context.Background())
		So(err, ShouldBeNil)

		Convey("Then the collision is reported with its count", func() {
			collisions := sink.tables["roster_email_collisions"]
			So(collisions.Rows, ShouldHaveLength, 1)
			So(collisions.Rows[0], ShouldResemble, []string{"dup@example.com", "3"})
			So(sum.Collisions, ShouldEqual, 1)
			So(sum.Identities, ShouldEqual, 1)
		})

		Convey("Then the lexicographic-first name survives as canonical", func() {
			master := sink.tables["master_list"]
			So(master.Rows, ShouldHaveLength, 1)
			So(master.Rows[0][col(master, "Display_Name")], ShouldEqual, "Aaron Beta")
		})
	})
}

func TestServiceRunEmptyRoster(t *testing.T) {
	Convey("Given no roster identities at all", t, func() {
		src := &stubSource{
			events: []model.EventRecord{
				{SourceName: "Jon Smith", EventName: "Kickoff", CreditHours: 1},
				{SourceName: "Anne Lei", EventName: "Workshop", CreditHours: 2},
			},
			roster: nil,
		}
		sink := &captureSink{}
		svc := app.New(app.WithSource(src), app.WithSink(sink))

		sum, err := svc.Run(context.Background())

		Convey("Then every event becomes an explicit no-match, not an error", func() {
			So(err, ShouldBeNil)
			So(sum.Unmatched, ShouldEqual, 2)
			So(sum.Totals, ShouldEqual, 0)

			joined := sink.tables["joined_events"]
			So(joined.Rows, ShouldHaveLength, 2)
			for _, r := range joined.Rows {
				So(r[col(joined, "Match_Source")], ShouldEqual, "FUZZY_NO_MATCH")
				So(r[col(joined, "Review_Flag")], ShouldEqual, "NO_MATCH_OR_LOW_SCORE")
				So(r[col(joined, "Email")], ShouldEqual, "")
			}

			props := sink.tables["proposed_matches"]
			So(props.Rows, ShouldHaveLength, 2)
			So(props.Rows[0][col(props, "Top1_Name")], ShouldEqual, "")
			So(props.Rows[0][col(props, "Certain")], ShouldEqual, "false")
		})
	})
}

func TestServiceRunDeterminism(t *testing.T) {
	Convey("Given two identical runs with concurrency enabled", t, func() {
		build := func() (*app.Service, *captureSink) {
			src := &stubSource{
				events: []model.EventRecord{
					{SourceName: "Jon Smith", EventName: "Kickoff", CreditHours: 1.5},
					{SourceName: "smith, john", EventName: "Summit", CreditHours: 2},
					{SourceName: "Anne Lei", EventName: "Workshop", CreditHours: 3},
					{SourceName: "Mary Jane Doe", EventName: "Summit", CreditHours: 1},
					{SourceName: "Pat Riley", EventName: "Gala", CreditHours: 0.5},
				},
				roster: testRoster(),
			}
			sink := &captureSink{}
			svc := app.New(
				app.WithSource(src),
				app.WithSink(sink),
				app.WithWorkers(8),
				app.WithCategory("Member"),
				app.WithOverrides([]model.OverrideRule{
					{SourceName: "Pat Riley", OverrideEmail: "pat@example.com"},
				}),
			)
			return svc, sink
		}

		first, firstSink := build()
		second, secondSink := build()

		_, err := first.Run(context.Background())
		So(err, ShouldBeNil)
		_, err = second.Run(context.Background())
		So(err, ShouldBeNil)

		Convey("Then every emitted table is byte-identical across runs", func() {
			So(secondSink.tables, ShouldHaveLength, 9)
			So(secondSink.tables, ShouldResemble, firstSink.tables)
		})
	})
}
