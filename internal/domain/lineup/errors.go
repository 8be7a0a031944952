package lineup

import "errors"

// Sentinel kinds for lineup validation.
var (
	ErrUnknownFormation = errors.New("unknown formation")
	ErrSlotMismatch     = errors.New("starters do not fill the formation")
	ErrTooManySubs      = errors.New("too many substitutes")
	ErrUnknownPlayer    = errors.New("unknown player")
	ErrDoubleRole       = errors.New("player listed as starter and substitute")
)
