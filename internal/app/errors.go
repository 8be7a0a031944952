package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted         = errors.New("service not started")
	ErrInvalidRequest     = errors.New("invalid match request")
	ErrUnknownClub        = errors.New("unknown club")
	ErrDuplicateRequest   = errors.New("duplicate match request")
	ErrQueueFull          = errors.New("match queue full")
	ErrInvalidClub        = errors.New("invalid club")
	ErrInvalidLineup      = errors.New("invalid lineup")
	ErrInvalidSettings    = errors.New("invalid club settings")
	ErrInvalidCompetition = errors.New("invalid competition")
)
