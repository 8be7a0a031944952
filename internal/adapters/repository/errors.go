package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidLimit    = errors.New("invalid standings limit")
	ErrDuplicateResult = errors.New("result already recorded")
	ErrInvalidClub     = errors.New("invalid club")
	ErrInvalidResult   = errors.New("invalid result")
)
