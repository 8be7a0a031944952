// Package schedule generates round-robin fixture lists.
package schedule

import (
	"errors"

	"github.com/okian/matchday/internal/domain/model"
)

// Sentinel kinds for scheduling errors.
var (
	ErrTooFewClubs   = errors.New("at least two clubs are required")
	ErrDuplicateClub = errors.New("duplicate club id")
	ErrBlankClub     = errors.New("blank club id")
)

// Fixture is one scheduled pairing.
type Fixture struct {
	Round      int
	HomeClubID string
	AwayClubID string
}

// Request converts the fixture into a match request for competitionID.
func (f Fixture) Request(id, competitionID string) model.MatchRequest {
	return model.MatchRequest{
		ID:            id,
		CompetitionID: competitionID,
		Round:         f.Round,
		HomeClubID:    f.HomeClubID,
		AwayClubID:    f.AwayClubID,
	}
}

// RoundRobin returns a single round robin using the circle method. Rounds are
// numbered from 1. With an odd club count one club sits out each round.
func RoundRobin(clubIDs []string) ([][]Fixture, error) {
	if err := check(clubIDs); err != nil {
		return nil, err
	}

	// Work on a copy; "" marks the bye slot.
	slots := append([]string(nil), clubIDs...)
	if len(slots)%2 != 0 {
		slots = append(slots, "")
	}
	n := len(slots)

	rounds := make([][]Fixture, 0, n-1)
	for r := 0; r < n-1; r++ {
		round := make([]Fixture, 0, n/2)
		for i := 0; i < n/2; i++ {
			home, away := slots[i], slots[n-1-i]
			if home == "" || away == "" {
				continue
			}
			// Alternate the fixed club's venue so it is not always at home.
			if i == 0 && r%2 == 1 {
				home, away = away, home
			}
			round = append(round, Fixture{Round: r + 1, HomeClubID: home, AwayClubID: away})
		}
		rounds = append(rounds, round)

		// Rotate every slot except the first.
		last := slots[n-1]
		copy(slots[2:], slots[1:n-1])
		slots[1] = last
	}
	return rounds, nil
}

// DoubleRoundRobin returns a home-and-away season: the single round robin
// followed by the same rounds with venues swapped.
func DoubleRoundRobin(clubIDs []string) ([][]Fixture, error) {
	first, err := RoundRobin(clubIDs)
	if err != nil {
		return nil, err
	}
	offset := len(first)
	season := make([][]Fixture, 0, 2*offset)
	season = append(season, first...)
	for i, round := range first {
		swapped := make([]Fixture, len(round))
		for j, f := range round {
			swapped[j] = Fixture{Round: offset + i + 1, HomeClubID: f.AwayClubID, AwayClubID: f.HomeClubID}
		}
		season = append(season, swapped)
	}
	return season, nil
}

func check(clubIDs []string) error {
	if len(clubIDs) < 2 {
		return ErrTooFewClubs
	}
	seen := make(map[string]struct{}, len(clubIDs))
	for _, id := range clubIDs {
		if id == "" {
			return ErrBlankClub
		}
		if _, ok := seen[id]; ok {
			return ErrDuplicateClub
		}
		seen[id] = struct{}{}
	}
	return nil
}
