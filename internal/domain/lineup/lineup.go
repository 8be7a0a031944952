// Package lineup validates and applies starting elevens against a formation.
package lineup

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/matchday/internal/domain/model"
)

// MaxSubstitutes is the bench size limit.
const MaxSubstitutes = 7

// DefaultFormation is used when a club has none set.
const DefaultFormation = "4-4-2"

var formations = map[string]struct{}{
	"4-4-2":   {},
	"4-3-3":   {},
	"3-5-2":   {},
	"5-3-2":   {},
	"4-2-3-1": {},
}

// Slots is the number of starters required per position.
type Slots map[model.Position]int

// Formations lists the supported formations.
func Formations() []string {
	return []string{"4-4-2", "4-3-3", "3-5-2", "5-3-2", "4-2-3-1"}
}

// SlotsFor parses formation into position slots. The first line is
// defenders, the last is attackers and every line between counts as midfield.
func SlotsFor(formation string) (Slots, error) {
	if formation == "" {
		formation = DefaultFormation
	}
	if _, ok := formations[formation]; !ok {
		return nil, fmt.Errorf("%q: %w", formation, ErrUnknownFormation)
	}
	parts := strings.Split(formation, "-")
	lines := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", formation, ErrUnknownFormation)
		}
		lines[i] = n
	}
	s := Slots{model.Goalkeeper: 1, model.Defender: lines[0], model.Attacker: lines[len(lines)-1]}
	for _, n := range lines[1 : len(lines)-1] {
		s[model.Midfielder] += n
	}
	return s, nil
}

// Validate checks that the club's starters fill its formation exactly and
// that the bench does not exceed MaxSubstitutes.
func Validate(club model.Club) error {
	slots, err := SlotsFor(club.Formation)
	if err != nil {
		return err
	}

	got := Slots{}
	subs := 0
	for _, p := range club.Players {
		if p.Starter && p.Substitute {
			return fmt.Errorf("player %s: %w", p.ID, ErrDoubleRole)
		}
		if p.Starter {
			got[p.Position]++
		}
		if p.Substitute {
			subs++
		}
	}

	for _, pos := range []model.Position{model.Goalkeeper, model.Defender, model.Midfielder, model.Attacker} {
		if got[pos] != slots[pos] {
			return fmt.Errorf("formation %s needs %d %s, have %d: %w",
				formationOrDefault(club.Formation), slots[pos], pos, got[pos], ErrSlotMismatch)
		}
	}
	if subs > MaxSubstitutes {
		return fmt.Errorf("%d on the bench, max %d: %w", subs, MaxSubstitutes, ErrTooManySubs)
	}
	return nil
}

// Apply returns a copy of club with every flag cleared and then set from the
// given ids. The result is validated before it is returned.
func Apply(club model.Club, starterIDs, substituteIDs []string) (model.Club, error) {
	index := make(map[string]int, len(club.Players))
	for i, p := range club.Players {
		index[p.ID] = i
	}

	next := club.Clone()
	for i := range next.Players {
		next.Players[i].Starter = false
		next.Players[i].Substitute = false
	}

	for _, id := range starterIDs {
		i, ok := index[id]
		if !ok {
			return club, fmt.Errorf("starter %s: %w", id, ErrUnknownPlayer)
		}
		next.Players[i].Starter = true
	}
	for _, id := range substituteIDs {
		i, ok := index[id]
		if !ok {
			return club, fmt.Errorf("substitute %s: %w", id, ErrUnknownPlayer)
		}
		next.Players[i].Substitute = true
	}

	if err := Validate(next); err != nil {
		return club, err
	}
	return next, nil
}

func formationOrDefault(f string) string {
	if f == "" {
		return DefaultFormation
	}
	return f
}
