package app

import (
	"strconv"

	"github.com/rollcall/rollcall/internal/adapters/tabular"
	"github.com/rollcall/rollcall/internal/domain/model"
)

// Result table names, fixed across runs so review files round-trip.
const (
	tableProposals          = "proposed_matches"
	tableCollisions         = "roster_email_collisions"
	tableJoinedPreOverrides = "joined_events_pre_overrides"
	tableJoinedEvents       = "joined_events"
	tableDuplicatesRemoved  = "duplicates_removed_same_email_event"
	tableUnmatched          = "unmatched_needs_email"
	tableMasterList         = "master_list"
	tableExcluded           = "excluded_by_category"
	tableAudit              = "event_level_audit"
)

// ReviewFileName is the CSV file a run leaves behind for human review.
// A later run against the same output directory picks it up as the
// default decisions input.
const ReviewFileName = tableProposals + ".csv"

// Hours render to 2 decimals and scores to 3, only here at the table
// boundary. In-memory values stay exact.
func fmtHours(h float64) string { return strconv.FormatFloat(h, 'f', 2, 64) }
func fmtScore(s float64) string { return strconv.FormatFloat(s, 'f', 3, 64) }

func proposalsTable(ps []model.Proposal) tabular.Table {
	cols := []string{
		"Source_Name", "Certain",
		"Top1_Name", "Top1_Score", "Top1_Email",
		"Top2_Name", "Top2_Score", "Top2_Email",
		"Top3_Name", "Top3_Score", "Top3_Email",
		"Suggested_Email", "Decision", "Chosen_Email",
	}
	rows := make([][]string, 0, len(ps))
	for _, p := range ps {
		row := make([]string, 0, len(cols))
		row = append(row, p.SourceName, strconv.FormatBool(p.Certain))
		for i := 0; i < 3; i++ {
			if i < len(p.Top) {
				row = append(row, p.Top[i].Name, fmtScore(p.Top[i].Score), p.Top[i].Email)
			} else {
				row = append(row, "", "", "")
			}
		}
		// Decision and Chosen_Email stay blank for the reviewer.
		row = append(row, p.SuggestedEmail, "", "")
		rows = append(rows, row)
	}
	return tabular.Table{Name: tableProposals, Columns: cols, Rows: rows}
}

func collisionsTable(cs []model.Collision) tabular.Table {
	rows := make([][]string, 0, len(cs))
	for _, c := range cs {
		rows = append(rows, []string{c.Email, strconv.Itoa(c.Count)})
	}
	return tabular.Table{
		Name:    tableCollisions,
		Columns: []string{"Email", "Count"},
		Rows:    rows,
	}
}

func joinedTable(name string, rows []model.JoinedEvent) tabular.Table {
	cols := []string{
		"Source_Name", "Event_Name", "Credit_Hours",
		"Matched_Name", "Email", "Category", "Subcategory", "Country",
		"CC_Email", "First_Conference",
		"Match_Score", "Match_Source", "Review_Flag",
	}
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.SourceName, r.EventName, fmtHours(r.CreditHours),
			r.MatchedName, r.Email, r.Category, r.Subcategory, r.Country,
			r.CCEmail, r.FirstConference,
			fmtScore(r.Score), string(r.Source), string(r.ReviewFlag),
		})
	}
	return tabular.Table{Name: name, Columns: cols, Rows: out}
}

func totalsTable(name string, ts []model.IdentityTotal) tabular.Table {
	cols := []string{
		"Email", "Display_Name", "Category", "Subcategory", "Country",
		"First_Conference", "Total_Hours",
	}
	rows := make([][]string, 0, len(ts))
	for _, t := range ts {
		rows = append(rows, []string{
			t.Email, t.DisplayName, t.Category, t.Subcategory, t.Country,
			t.FirstConference, fmtHours(t.TotalHours),
		})
	}
	return tabular.Table{Name: name, Columns: cols, Rows: rows}
}

func auditTable(rows []model.JoinedEvent) tabular.Table {
	cols := []string{
		"Source_Name", "Matched_Name", "Email", "Event_Name",
		"Credit_Hours", "Match_Score", "Match_Source",
	}
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.SourceName, r.MatchedName, r.Email, r.EventName,
			fmtHours(r.CreditHours), fmtScore(r.Score), string(r.Source),
		})
	}
	return tabular.Table{Name: tableAudit, Columns: cols, Rows: out}
}
