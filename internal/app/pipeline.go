package app

import (
	"context"
	"sort"
	"strings"

	"github.com/rollcall/rollcall/internal/domain/dedupe"
	"github.com/rollcall/rollcall/internal/domain/match"
	"github.com/rollcall/rollcall/internal/domain/model"
	"github.com/rollcall/rollcall/internal/domain/roster"
	"github.com/rollcall/rollcall/pkg/logger"
	"github.com/rollcall/rollcall/pkg/metrics"
)

// dedupeEvents drops exact repeats of (name, hours, event), comparing name
// and event case-insensitively. The first occurrence wins.
func dedupeEvents(events []model.EventRecord) ([]model.EventRecord, int) {
	seen := dedupe.NewSet()
	out := make([]model.EventRecord, 0, len(events))
	dropped := 0
	for _, e := range events {
		if seen.SeenAndRecord(dedupe.EventKey(e.SourceName, e.CreditHours, e.EventName)) {
			metrics.RecordEventDuplicate()
			dropped++
			continue
		}
		out = append(out, e)
	}
	return out, dropped
}

// uniqueSortedNames returns the distinct source names in ascending order.
func uniqueSortedNames(events []model.EventRecord) []string {
	set := make(map[string]struct{}, len(events))
	for _, e := range events {
		set[e.SourceName] = struct{}{}
	}
	names := make([]string, 0, len(set))
	for nm := range set {
		names = append(names, nm)
	}
	sort.Strings(names)
	return names
}

// buildProposals turns ranked candidates into review rows. A certain row
// suppresses its lower-ranked candidates; the table is ordered so the rows
// most in need of eyes come first.
func buildProposals(names []string, ranked map[string][]model.Candidate, det *match.Detector) []model.Proposal {
	out := make([]model.Proposal, 0, len(names))
	for _, nm := range names {
		cands := ranked[nm]
		p := model.Proposal{SourceName: nm}
		if len(cands) > 0 {
			top1 := cands[0]
			p.Certain = top1.Score == 1.0 && det.PunctuationEqual(nm, top1.Name) && top1.Email != ""
			p.SuggestedEmail = top1.Email
			if p.Certain {
				p.Top = cands[:1]
			} else {
				p.Top = cands
			}
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Certain != out[j].Certain {
			return !out[i].Certain
		}
		si, sj := topScore(out[i]), topScore(out[j])
		if si != sj {
			return si < sj
		}
		return out[i].SourceName < out[j].SourceName
	})
	return out
}

func topScore(p model.Proposal) float64 {
	if len(p.Top) == 0 {
		return 0
	}
	return p.Top[0].Score
}

// joinEvents assigns each event its rank-1 candidate. Only an empty
// candidate list produces a no-match row; low scores still join and get
// flagged afterwards.
func joinEvents(events []model.EventRecord, ranked map[string][]model.Candidate, dir *roster.Directory) []model.JoinedEvent {
	out := make([]model.JoinedEvent, 0, len(events))
	for _, e := range events {
		row := model.JoinedEvent{
			SourceName:  e.SourceName,
			EventName:   e.EventName,
			CreditHours: e.CreditHours,
		}
		cands := ranked[e.SourceName]
		if len(cands) == 0 {
			row.Source = model.SourceFuzzyNoMatch
			row.ReviewFlag = model.FlagNoMatchOrLowScore
			metrics.RecordNoMatch()
			out = append(out, row)
			continue
		}

		top1 := cands[0]
		row.MatchedName = top1.Name
		row.Email = top1.Email
		row.Score = top1.Score
		row.Source = model.SourceFuzzyName
		if ident, ok := lookupIdentity(dir, top1); ok {
			row.Category = ident.Category
			row.Subcategory = ident.Subcategory
			row.Country = ident.Country
			row.CCEmail = ident.CCEmail
			row.FirstConference = ident.FirstConference
		}
		if top1.Score == 1.0 {
			metrics.RecordAbsoluteMatch()
		} else {
			metrics.RecordFuzzyMatch()
		}
		out = append(out, row)
	}
	return out
}

// lookupIdentity resolves a candidate back to its canonical identity,
// preferring the email key.
func lookupIdentity(dir *roster.Directory, c model.Candidate) (model.Identity, bool) {
	if c.Email != "" {
		if ident, ok := dir.ByEmail(c.Email); ok {
			return ident, true
		}
	}
	return dir.ByName(c.Name)
}

// markLowConfidence flags assigned rows whose score sits below the
// threshold, leaving rows that already carry a flag alone.
func markLowConfidence(rows []model.JoinedEvent, minMatch float64) ([]model.JoinedEvent, int) {
	out := make([]model.JoinedEvent, len(rows))
	copy(out, rows)
	count := 0
	for i := range out {
		if out[i].Email != "" && out[i].Score < minMatch && out[i].ReviewFlag == model.FlagNone {
			out[i].ReviewFlag = model.FlagLowConfidence
			count++
		}
	}
	return out, count
}

// applyDecisions merges human verdicts into the joined rows by source
// name. The first decision per name wins; verdicts that never touch a row
// are reported.
func applyDecisions(ctx context.Context, log logger.Logger, rows []model.JoinedEvent, decisions []model.Decision) []model.JoinedEvent {
	if len(decisions) == 0 {
		return rows
	}
	byName := make(map[string]model.Decision, len(decisions))
	for _, d := range decisions {
		if _, ok := byName[d.SourceName]; !ok {
			byName[d.SourceName] = d
		}
	}

	out := make([]model.JoinedEvent, len(rows))
	copy(out, rows)
	applied := make(map[string]struct{}, len(byName))
	for i := range out {
		d, ok := byName[out[i].SourceName]
		if !ok {
			continue
		}
		applied[d.SourceName] = struct{}{}
		switch d.Verdict {
		case model.VerdictAccept:
			email := d.ChosenEmail
			if email == "" {
				email = d.SuggestedEmail
			}
			if email == "" {
				continue // nothing to accept into the row
			}
			out[i].Email = email
			if out[i].MatchedName == "" {
				out[i].MatchedName = out[i].SourceName
			}
			out[i].Source = model.SourceUserAccepted
			out[i].ReviewFlag = model.FlagNone
			metrics.RecordDecisionAccepted()
		case model.VerdictReject:
			out[i].Email = ""
			out[i].Source = model.SourceUserRejected
			out[i].ReviewFlag = model.FlagRejectedNeedsEmail
			metrics.RecordDecisionRejected()
		}
	}

	for _, d := range decisions {
		if _, ok := applied[d.SourceName]; !ok && d.Verdict != model.VerdictNone {
			log.Warn(ctx, "decision names no joined event",
				logger.String("name", d.SourceName),
			)
		}
	}
	return out
}

// applyOverrides merges manual overrides last so they always win. An email
// override sticks even when the email is unknown to the roster; a name
// override must match a canonical identity exactly.
func applyOverrides(ctx context.Context, log logger.Logger, rows []model.JoinedEvent, overrides []model.OverrideRule, dir *roster.Directory) []model.JoinedEvent {
	if len(overrides) == 0 {
		return rows
	}
	byName := make(map[string]model.OverrideRule, len(overrides))
	for _, r := range overrides {
		if _, ok := byName[r.SourceName]; !ok {
			byName[r.SourceName] = r
		}
		if r.OverrideEmail == "" && r.OverrideIdentityName != "" {
			if _, found := dir.ByName(r.OverrideIdentityName); !found {
				log.Warn(ctx, "override names unknown identity",
					logger.String("name", r.SourceName),
					logger.String("identity", r.OverrideIdentityName),
				)
			}
		}
	}

	out := make([]model.JoinedEvent, len(rows))
	copy(out, rows)
	for i := range out {
		rule, ok := byName[out[i].SourceName]
		if !ok {
			continue
		}
		switch {
		case rule.OverrideEmail != "":
			out[i].Email = rule.OverrideEmail
			if out[i].MatchedName == "" {
				out[i].MatchedName = out[i].SourceName
			}
			out[i].Source = model.SourceOverrideEmail
			out[i].Score = 1.0
			out[i].ReviewFlag = model.FlagNone
			metrics.RecordOverrideApplied()
		case rule.OverrideIdentityName != "":
			ident, found := dir.ByName(rule.OverrideIdentityName)
			if !found {
				continue // reported above, row stays as joined
			}
			out[i].MatchedName = ident.FullName
			out[i].Email = ident.Email
			out[i].Category = ident.Category
			out[i].Subcategory = ident.Subcategory
			out[i].Country = ident.Country
			out[i].CCEmail = ident.CCEmail
			out[i].FirstConference = ident.FirstConference
			out[i].Source = model.SourceOverrideName
			out[i].Score = 1.0
			out[i].ReviewFlag = model.FlagNone
			metrics.RecordOverrideApplied()
		}
	}
	return out
}

// dedupeJoined partitions rows by email presence, then keeps the best row
// per (email, event) pair. The sort is stable with a full tie-break chain
// so identical inputs always discard the same rows.
func dedupeJoined(rows []model.JoinedEvent) (kept, removed, unmatched []model.JoinedEvent) {
	withEmail := make([]model.JoinedEvent, 0, len(rows))
	for _, r := range rows {
		if r.Email == "" {
			unmatched = append(unmatched, r)
			continue
		}
		withEmail = append(withEmail, r)
	}

	sort.SliceStable(withEmail, func(i, j int) bool {
		if withEmail[i].Email != withEmail[j].Email {
			return withEmail[i].Email < withEmail[j].Email
		}
		if withEmail[i].EventName != withEmail[j].EventName {
			return withEmail[i].EventName < withEmail[j].EventName
		}
		return withEmail[i].Score > withEmail[j].Score
	})

	seen := dedupe.NewSet()
	for _, r := range withEmail {
		if seen.SeenAndRecord(dedupe.AssignmentKey(r.Email, r.EventName)) {
			removed = append(removed, r)
			continue
		}
		kept = append(kept, r)
	}
	return kept, removed, unmatched
}

// aggregate sums hours per email with exact accumulation; rounding only
// happens when tables are rendered. Display name and attributes come from
// the canonical roster when the email resolves, else from the first
// surviving row.
func aggregate(rows []model.JoinedEvent, dir *roster.Directory) []model.IdentityTotal {
	order := make([]string, 0)
	byEmail := make(map[string]*model.IdentityTotal)
	for _, r := range rows {
		t, ok := byEmail[r.Email]
		if !ok {
			t = &model.IdentityTotal{
				Email:           r.Email,
				DisplayName:     displayName(dir, r),
				Category:        r.Category,
				Subcategory:     r.Subcategory,
				Country:         r.Country,
				FirstConference: r.FirstConference,
			}
			byEmail[r.Email] = t
			order = append(order, r.Email)
		}
		t.TotalHours += r.CreditHours
	}

	out := make([]model.IdentityTotal, 0, len(order))
	for _, email := range order {
		out = append(out, *byEmail[email])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

func displayName(dir *roster.Directory, r model.JoinedEvent) string {
	if ident, ok := dir.ByEmail(r.Email); ok && ident.FullName != "" {
		return ident.FullName
	}
	if r.MatchedName != "" {
		return r.MatchedName
	}
	return r.SourceName
}

// filterCategory keeps totals whose category equals the filter, compared
// case-insensitively after trimming. An empty filter keeps everything.
func filterCategory(totals []model.IdentityTotal, category string) (kept, excluded []model.IdentityTotal) {
	want := strings.ToLower(strings.TrimSpace(category))
	if want == "" {
		return totals, nil
	}
	for _, t := range totals {
		if strings.ToLower(strings.TrimSpace(t.Category)) == want {
			kept = append(kept, t)
			continue
		}
		excluded = append(excluded, t)
	}
	return kept, excluded
}
