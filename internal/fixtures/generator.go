package fixtures

import (
	"math/rand"
	"strconv"
	"strings"

	"github.com/rollcall/rollcall/internal/domain/model"
)

// Name pools fixtures draw from. First names with a known short form can
// mutate into it, exercising nickname expansion downstream.
var (
	firstNames = []string{
		"Margaret", "Robert", "William", "Elizabeth", "Katherine",
		"Jonathan", "Michael", "Jennifer", "Thomas", "Patricia",
		"Alexander", "Samantha", "Daniel", "Rebecca", "Christopher",
	}
	shortForms = map[string]string{
		"Margaret":    "Peg",
		"Robert":      "Bob",
		"William":     "Bill",
		"Elizabeth":   "Liz",
		"Katherine":   "Kate",
		"Jonathan":    "Jon",
		"Michael":     "Mike",
		"Jennifer":    "Jen",
		"Patricia":    "Pat",
		"Thomas":      "Tom",
		"Alexander":   "Alex",
		"Samantha":    "Sam",
		"Daniel":      "Dan",
		"Rebecca":     "Becky",
		"Christopher": "Chris",
	}
	lastNames = []string{
		"Smith", "Johnson", "O'Brien", "Garcia", "Miller",
		"Davis", "Martinez", "Wilson", "Anderson", "Taylor-Reed",
		"Thompson", "Moore", "St. Clair", "Lee", "Walker",
	}
	countries     = []string{"US", "UK", "CA", "DE", "BR", "JP", "IN"}
	categories    = []string{"Member", "Member", "Member", "Guest", "Speaker"}
	subcategories = []string{"Core", "Chapter", "Alumni", ""}
	eventNames    = []string{
		"Kickoff", "Summit", "Workshop", "Gala", "Sprint Review",
		"Town Hall", "Mentor Session", "Hackathon", "Retrospective",
	}
)

// Mutation cases applied to roster names when deriving log rows.
const (
	caseExact = iota
	caseUpperCased
	caseReordered
	caseNickname
	caseTypo
	caseJoined
	caseInitial
	caseExtraSpace
	mutationCases
)

// Fraction knobs for event generation.
const (
	duplicateOneIn = 10 // one row in ten repeats an earlier one exactly
	ccEmailOneIn   = 4  // one identity in four carries a CC address
)

// makeRoster builds size distinct identities. Emails derive from the
// full name, so they cannot collide within one fixture set.
func makeRoster(rng *rand.Rand, size int) []model.RosterRecord {
	out := make([]model.RosterRecord, 0, size)
	seen := make(map[string]struct{}, size)
	for attempt := 0; len(out) < size; attempt++ {
		full := firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))]
		if attempt >= len(firstNames)*len(lastNames) {
			// Pool exhausted; number the surplus identities.
			full += " " + strconv.Itoa(len(out))
		}
		if _, ok := seen[full]; ok {
			continue
		}
		seen[full] = struct{}{}

		r := model.RosterRecord{
			FullName:        full,
			Email:           emailFor(full),
			Category:        categories[rng.Intn(len(categories))],
			Subcategory:     subcategories[rng.Intn(len(subcategories))],
			Country:         countries[rng.Intn(len(countries))],
			FirstConference: strconv.Itoa(2015 + rng.Intn(10)),
		}
		if rng.Intn(ccEmailOneIn) == 0 {
			r.CCEmail = "leads@example.org"
		}
		out = append(out, r)
	}
	return out
}

// makeEvents derives count log rows from the roster, mutating spellings
// and re-emitting a slice of exact duplicates.
func makeEvents(rng *rand.Rand, roster []model.RosterRecord, count int, stats *Stats) []model.EventRecord {
	out := make([]model.EventRecord, 0, count)
	for len(out) < count {
		if len(out) > 0 && rng.Intn(duplicateOneIn) == 0 {
			out = append(out, out[rng.Intn(len(out))])
			stats.DuplicateRows++
			continue
		}

		ident := roster[rng.Intn(len(roster))]
		name := mutateName(rng, ident.FullName, rng.Intn(mutationCases))
		if name != ident.FullName {
			stats.MutatedRows++
		}
		out = append(out, model.EventRecord{
			SourceName:  name,
			EventName:   eventNames[rng.Intn(len(eventNames))],
			CreditHours: float64(rng.Intn(32)+1) * 0.25,
		})
	}
	return out
}

// mutateName returns a log spelling of full, chosen by kind. Kinds that
// cannot apply fall back to the exact spelling.
func mutateName(rng *rand.Rand, full string, kind int) string {
	first, rest, split := strings.Cut(full, " ")
	switch kind {
	case caseUpperCased:
		return strings.ToUpper(full)
	case caseReordered:
		if split {
			return rest + ", " + first
		}
	case caseNickname:
		if nick, ok := shortForms[first]; ok && split {
			return nick + " " + rest
		}
	case caseTypo:
		if len(full) > 3 {
			i := 1 + rng.Intn(len(full)-2)
			return full[:i] + full[i+1:]
		}
	case caseJoined:
		return strings.ToLower(strings.ReplaceAll(full, " ", ""))
	case caseInitial:
		if split {
			return first[:1] + ". " + rest
		}
	case caseExtraSpace:
		return strings.Replace(full, " ", "  ", 1)
	}
	return full
}

// emailFor derives a stable lowercase address from a full name.
func emailFor(full string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ':
			return '.'
		default:
			return -1
		}
	}, full)
	return mapped + "@example.org"
}
