// Package model contains domain models passed between layers.
package model

// EventRecord is one row of the activity log: a free-text person name,
// the event they attended, and the credit hours earned.
type EventRecord struct {
	SourceName  string
	EventName   string
	CreditHours float64
}

// RosterRecord is one raw roster row. Email is the identity key and may
// be blank for provisional entries.
type RosterRecord struct {
	FullName        string
	Email           string
	Category        string
	Subcategory     string
	Country         string
	CCEmail         string
	FirstConference string
}

// Identity is a canonical roster entry after email collapse: exactly one
// per unique non-blank email, plus pass-through rows without an email.
type Identity struct {
	FullName        string
	Email           string
	Category        string
	Subcategory     string
	Country         string
	CCEmail         string
	FirstConference string
}

// Collision reports a roster email that appeared on more than one row.
type Collision struct {
	Email string
	Count int
}

// Candidate is a scored roster identity proposed for a source name.
type Candidate struct {
	Name  string
	Email string
	Score float64
	Rank  int
}

// JoinedEvent is an event row joined to its assigned identity. A fresh
// snapshot is produced by every pipeline stage that changes assignments.
type JoinedEvent struct {
	SourceName  string
	EventName   string
	CreditHours float64

	MatchedName     string
	Email           string
	Category        string
	Subcategory     string
	Country         string
	CCEmail         string
	FirstConference string

	Score      float64
	Source     MatchSource
	ReviewFlag ReviewFlag
}

// OverrideRule forces an assignment for a source name. OverrideEmail wins
// over OverrideIdentityName when both are present.
type OverrideRule struct {
	SourceName           string
	OverrideEmail        string
	OverrideIdentityName string
}

// Decision is one human-authored row of the review round-trip.
type Decision struct {
	SourceName     string
	SuggestedEmail string
	Verdict        Verdict
	ChosenEmail    string
}

// Proposal is one review-table row: the ranked candidates for a unique
// source name, with Certain set when the top candidate is beyond doubt.
type Proposal struct {
	SourceName     string
	Certain        bool
	Top            []Candidate // rank order, up to the configured K
	SuggestedEmail string
}

// IdentityTotal is the final per-identity credit-hour aggregate.
type IdentityTotal struct {
	Email           string
	DisplayName     string
	Category        string
	Subcategory     string
	Country         string
	FirstConference string
	TotalHours      float64
}
