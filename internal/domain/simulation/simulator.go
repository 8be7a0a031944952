// Package simulation turns two club strengths into a final score and a
// minute-ordered list of match events.
package simulation

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/matchday/internal/domain/model"
)

// Legacy tuning constants. They are reproduced as-is and are not configurable.
const (
	HomeAdvantage    = 1.1
	IntensityDivisor = 40.0
	MinIntensity     = 0.5
	MaxIntensity     = 4.0

	nudgeGap       = 10.0
	nudgeThreshold = 0.3 // increment when a uniform draw exceeds this (p = 0.7)
	cardThreshold  = 0.3 // one card when a uniform draw exceeds this (p = 0.7)
	sideThreshold  = 0.5
	matchMinutes   = 90
)

// Input carries everything needed to simulate one fixture.
type Input struct {
	MatchID       string // generated when empty
	CompetitionID string
	Round         int
	Home          model.Club
	Away          model.Club
	HomeStrength  float64
	AwayStrength  float64
}

// Simulator produces match results. It is safe for concurrent use; random
// draws are serialized so a seeded simulator replays the same sequence.
type Simulator struct {
	mu    sync.Mutex
	rng   *rand.Rand
	newID func() string
	now   func() time.Time
}

// New creates a simulator. Without WithSeed or WithRand it seeds from the clock.
func New(opts ...Option) *Simulator {
	s := &Simulator{
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // simulation, not security
	}
	return s
}

// Intensity returns the shared goal intensity for a fixture, clamped to
// [MinIntensity, MaxIntensity].
func Intensity(adjustedHome, away float64) float64 {
	return math.Max(MinIntensity, math.Min(MaxIntensity, (adjustedHome+away)/IntensityDivisor))
}

// Simulate plays one match. Both rosters must be non-empty.
func (s *Simulator) Simulate(in Input) (model.MatchResult, error) {
	if in.Home.ID == "" || in.Away.ID == "" {
		return model.MatchResult{}, ErrMissingClub
	}
	if len(in.Home.Players) == 0 {
		return model.MatchResult{}, fmt.Errorf("home club %s: %w", in.Home.ID, ErrEmptyRoster)
	}
	if len(in.Away.Players) == 0 {
		return model.MatchResult{}, fmt.Errorf("away club %s: %w", in.Away.ID, ErrEmptyRoster)
	}

	s.mu.Lock()
	homeGoals, awayGoals := s.score(in.HomeStrength, in.AwayStrength)
	events := s.events(homeGoals, awayGoals, in.Home.Players, in.Away.Players)
	s.mu.Unlock()

	id := in.MatchID
	if id == "" {
		id = s.newID()
	}
	return model.MatchResult{
		ID:            id,
		CompetitionID: in.CompetitionID,
		Round:         in.Round,
		HomeClubID:    in.Home.ID,
		AwayClubID:    in.Away.ID,
		HomeGoals:     homeGoals,
		AwayGoals:     awayGoals,
		Events:        events,
		PlayedAt:      s.now().UTC(),
	}, nil
}

// score draws both goal counts and applies the strength-gap nudge.
// Must be called with s.mu held.
func (s *Simulator) score(homeStrength, awayStrength float64) (int, int) {
	adjustedHome := homeStrength * HomeAdvantage
	intensity := Intensity(adjustedHome, awayStrength)

	home := int(math.Floor(s.rng.Float64() * intensity))
	away := int(math.Floor(s.rng.Float64() * intensity))

	gap := adjustedHome - awayStrength
	switch {
	case gap > nudgeGap:
		if s.rng.Float64() > nudgeThreshold {
			home++
		}
	case gap < -nudgeGap:
		if s.rng.Float64() > nudgeThreshold {
			away++
		}
	}
	return home, away
}

// events builds goal events for the score plus an optional card, ordered by
// minute. Must be called with s.mu held.
func (s *Simulator) events(homeGoals, awayGoals int, home, away []model.Player) []model.MatchEvent {
	total := homeGoals + awayGoals
	out := make([]model.MatchEvent, 0, total+1)

	for i := 0; i < total; i++ {
		side, roster := model.Home, home
		if i >= homeGoals {
			side, roster = model.Away, away
		}
		minute := s.minute()
		scorer := s.pickScorer(roster)
		out = append(out, model.MatchEvent{
			Minute:      minute,
			Kind:        model.Goal,
			Side:        side,
			Player:      scorer.Name,
			Description: fmt.Sprintf("Goal by %s!", scorer.Name),
		})
	}

	if s.rng.Float64() > cardThreshold {
		minute := s.minute()
		side, roster := model.Away, away
		if s.rng.Float64() > sideThreshold {
			side, roster = model.Home, home
		}
		booked := roster[s.rng.Intn(len(roster))]
		out = append(out, model.MatchEvent{
			Minute:      minute,
			Kind:        model.Card,
			Side:        side,
			Player:      booked.Name,
			Description: fmt.Sprintf("Yellow card for %s", booked.Name),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Minute < out[j].Minute })
	return out
}

func (s *Simulator) minute() int {
	return s.rng.Intn(matchMinutes) + 1
}

// pickScorer chooses uniformly among attackers and midfielders, falling back
// to the whole roster. roster must be non-empty.
func (s *Simulator) pickScorer(roster []model.Player) model.Player {
	eligible := make([]model.Player, 0, len(roster))
	for _, p := range roster {
		if p.Position == model.Attacker || p.Position == model.Midfielder {
			eligible = append(eligible, p)
		}
	}
	if len(eligible) == 0 {
		eligible = roster
	}
	return eligible[s.rng.Intn(len(eligible))]
}
