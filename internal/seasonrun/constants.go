package seasonrun

import "time"

// Defaults applied by normalize.
const (
	DefaultClubs        = 20
	DefaultWorkers      = 4
	DefaultTimeout      = 10 * time.Second
	DefaultWaitTimeout  = 2 * time.Minute
	DefaultPollInterval = 250 * time.Millisecond

	minClubs = 2
)

// Roster shape for generated clubs.
const (
	generatedFormation   = "4-4-2"
	generatedSubstitutes = 5
	ratingFloor          = 40
	ratingSpread         = 55
	maxRating            = 100
)

const (
	filePermission      = 0o600
	directoryPermission = 0o750
)
