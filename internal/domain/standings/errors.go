package standings

import "errors"

// Sentinel kinds for standings errors.
var (
	ErrUnknownClub  = errors.New("result has no club id")
	ErrSameClub     = errors.New("club cannot play itself")
	ErrInvalidScore = errors.New("goals must be non-negative")
)
