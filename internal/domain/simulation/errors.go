package simulation

import "errors"

// Sentinel kinds for simulation errors.
var (
	ErrEmptyRoster = errors.New("club has an empty roster")
	ErrMissingClub = errors.New("club id is required")
)
