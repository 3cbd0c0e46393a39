// Package dedupe collapses repeated reconciliation rows to their first
// occurrence by tracking seen keys.
package dedupe

import (
	"strconv"
	"strings"
)

// Set records keys as they stream past and reports repeats. The first
// occurrence of a key wins; callers decide what winning means.
type Set struct {
	seen map[string]struct{}
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{seen: make(map[string]struct{})}
}

// SeenAndRecord checks whether key was already recorded, recording it if
// not. Returns true if key was already seen, false if newly recorded.
func (s *Set) SeenAndRecord(key string) bool {
	if _, ok := s.seen[key]; ok {
		return true
	}
	s.seen[key] = struct{}{}
	return false
}

// Size returns the number of distinct keys recorded.
func (s *Set) Size() int {
	return len(s.seen)
}

// EventKey identifies an activity-log row up to letter case and
// surrounding space. Two rows with equal keys are the same submission.
func EventKey(name string, hours float64, event string) string {
	return strings.ToLower(strings.TrimSpace(name)) + "\x00" +
		strconv.FormatFloat(hours, 'g', -1, 64) + "\x00" +
		strings.ToLower(strings.TrimSpace(event))
}

// AssignmentKey identifies a resolved row by identity and event, the pair
// the aggregation stage must count once. Event names compare exactly here:
// differently cased events stay distinct.
func AssignmentKey(email, event string) string {
	return email + "\x00" + event
}
