// Package roster canonicalizes the identity roster keyed by email.
package roster

import (
	"sort"

	model "github.com/rollcall/rollcall/internal/domain/model"
)

// Collapse merges roster rows sharing a non-blank email into exactly one
// canonical identity per email and reports every email that appeared on
// more than one row. The survivor of a merge is chosen deterministically:
// lexicographically first full name, ties broken by original row order.
// Rows without an email pass through unmerged.
//
// Identity order is merged identities by email ascending, then the
// email-less rows in original order. Collisions come back sorted by email.
func Collapse(rows []model.RosterRecord) ([]model.Identity, []model.Collision) {
	groups := make(map[string][]int)
	var blanks []int

	for i, r := range rows {
		if r.Email == "" {
			blanks = append(blanks, i)
			continue
		}
		groups[r.Email] = append(groups[r.Email], i)
	}

	emails := make([]string, 0, len(groups))
	for email := range groups {
		emails = append(emails, email)
	}
	sort.Strings(emails)

	identities := make([]model.Identity, 0, len(emails)+len(blanks))
	var collisions []model.Collision

	for _, email := range emails {
		idxs := groups[email]
		if len(idxs) > 1 {
			collisions = append(collisions, model.Collision{Email: email, Count: len(idxs)})
		}

		best := idxs[0]
		for _, idx := range idxs[1:] {
			if rows[idx].FullName < rows[best].FullName {
				best = idx
			}
		}
		identities = append(identities, toIdentity(rows[best]))
	}

	for _, idx := range blanks {
		identities = append(identities, toIdentity(rows[idx]))
	}

	return identities, collisions
}

func toIdentity(r model.RosterRecord) model.Identity {
	return model.Identity{
		FullName:        r.FullName,
		Email:           r.Email,
		Category:        r.Category,
		Subcategory:     r.Subcategory,
		Country:         r.Country,
		CCEmail:         r.CCEmail,
		FirstConference: r.FirstConference,
	}
}

// Directory provides constant-time lookups over canonical identities.
type Directory struct {
	byEmail map[string]model.Identity
	byName  map[string]model.Identity
}

// NewDirectory indexes identities by email and by exact full name. When
// two identities share a full name, the first in identity order wins.
func NewDirectory(identities []model.Identity) *Directory {
	d := &Directory{
		byEmail: make(map[string]model.Identity, len(identities)),
		byName:  make(map[string]model.Identity, len(identities)),
	}
	for _, id := range identities {
		if id.Email != "" {
			if _, ok := d.byEmail[id.Email]; !ok {
				d.byEmail[id.Email] = id
			}
		}
		if id.FullName != "" {
			if _, ok := d.byName[id.FullName]; !ok {
				d.byName[id.FullName] = id
			}
		}
	}
	return d
}

// ByEmail returns the canonical identity for an email.
func (d *Directory) ByEmail(email string) (model.Identity, bool) {
	id, ok := d.byEmail[email]
	return id, ok
}

// ByName returns the canonical identity whose full name matches exactly.
func (d *Directory) ByName(fullName string) (model.Identity, bool) {
	id, ok := d.byName[fullName]
	return id, ok
}
