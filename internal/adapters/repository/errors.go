package repository

import "errors"

// Sentinel kinds for analysis store errors.
var (
	ErrNotFound     = errors.New("analysis not found")
	ErrNotReady     = errors.New("analysis not finished")
	ErrDuplicateID  = errors.New("duplicate analysis id")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
)
