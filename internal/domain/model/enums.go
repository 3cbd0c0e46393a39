package model

import "strings"

// MatchSource records how an event row acquired its identity assignment.
type MatchSource string

// Match sources, in order of pipeline precedence (later stages win).
const (
	SourceFuzzyName     MatchSource = "FUZZY_NAME"
	SourceFuzzyNoMatch  MatchSource = "FUZZY_NO_MATCH"
	SourceUserAccepted  MatchSource = "USER_ACCEPTED"
	SourceUserRejected  MatchSource = "USER_REJECTED"
	SourceOverrideEmail MatchSource = "OVERRIDDEN_EMAIL"
	SourceOverrideName  MatchSource = "OVERRIDDEN_NAME"
)

// ReviewFlag marks event rows that need human attention.
type ReviewFlag string

const (
	FlagNone               ReviewFlag = ""
	FlagNoMatchOrLowScore  ReviewFlag = "NO_MATCH_OR_LOW_SCORE"
	FlagLowConfidence      ReviewFlag = "LOW_CONFIDENCE_AUTOASSIGN"
	FlagRejectedNeedsEmail ReviewFlag = "REJECTED_NEEDS_EMAIL"
)

// Verdict is the human decision on a proposed match.
type Verdict string

const (
	VerdictNone   Verdict = ""
	VerdictAccept Verdict = "ACCEPT"
	VerdictReject Verdict = "REJECT"
)

// ParseVerdict normalizes a hand-typed verdict cell. The empty string is a
// valid "no decision yet" verdict; anything else unrecognized returns false.
func ParseVerdict(s string) (Verdict, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return VerdictNone, true
	case "ACCEPT":
		return VerdictAccept, true
	case "REJECT":
		return VerdictReject, true
	default:
		return VerdictNone, false
	}
}
