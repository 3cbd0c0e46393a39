package app

import "errors"

// Sentinel kinds for pipeline errors.
var (
	ErrNoSource   = errors.New("no input source configured")
	ErrLoadEvents = errors.New("loading activity log failed")
	ErrLoadRoster = errors.New("loading roster failed")
	ErrRank       = errors.New("candidate ranking failed")
	ErrEmit       = errors.New("emitting result table failed")
)
