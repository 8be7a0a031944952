// Package model contains domain models passed between layers.
package model

// Position is a player's field role.
type Position string

// Player positions.
const (
	Goalkeeper Position = "GK"
	Defender   Position = "DEF"
	Midfielder Position = "MID"
	Attacker   Position = "ATK"
)

// Valid reports whether p is one of the known positions.
func (p Position) Valid() bool {
	switch p {
	case Goalkeeper, Defender, Midfielder, Attacker:
		return true
	}
	return false
}

// Player is one roster entry. Overall, Morale and Stamina range 0-100.
type Player struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Position   Position `json:"position"`
	Overall    int      `json:"overall"`
	Morale     int      `json:"morale"`
	Stamina    int      `json:"stamina"`
	Starter    bool     `json:"is_starter"`
	Substitute bool     `json:"is_substitute"`
}

// Tactic is the club's match approach.
type Tactic string

// Tactics.
const (
	Balanced   Tactic = "balanced"
	Attacking  Tactic = "attacking"
	Defensive  Tactic = "defensive"
	Counter    Tactic = "counter"
	Possession Tactic = "possession"
)

// Valid reports whether t is a known tactic.
func (t Tactic) Valid() bool {
	switch t {
	case Balanced, Attacking, Defensive, Counter, Possession:
		return true
	}
	return false
}

// TrainingType is the focus of the club's training week.
type TrainingType string

// Training focuses.
const (
	PhysicalTraining  TrainingType = "physical"
	TacticalTraining  TrainingType = "tactical"
	TechnicalTraining TrainingType = "technical"
	RestTraining      TrainingType = "rest"
)

// Valid reports whether t is a known training focus.
func (t TrainingType) Valid() bool {
	switch t {
	case PhysicalTraining, TacticalTraining, TechnicalTraining, RestTraining:
		return true
	}
	return false
}

// PreTalkType is the team talk given before kick-off.
type PreTalkType string

// Team talks.
const (
	MotivationalTalk PreTalkType = "motivational"
	AggressiveTalk   PreTalkType = "aggressive"
	CalmTalk         PreTalkType = "calm"
	TacticalTalk     PreTalkType = "tactical"
)

// Valid reports whether t is a known team talk.
func (t PreTalkType) Valid() bool {
	switch t {
	case MotivationalTalk, AggressiveTalk, CalmTalk, TacticalTalk:
		return true
	}
	return false
}

// ClubSettings is the manager's configuration of a club. Empty fields mean
// "leave unchanged" when applied to a club.
type ClubSettings struct {
	Tactic   Tactic       `json:"tactic,omitempty"`
	Training TrainingType `json:"training,omitempty"`
	PreTalk  PreTalkType  `json:"pre_talk,omitempty"`
}

// Club is a read-only snapshot of a club and its roster.
type Club struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Reputation int          `json:"reputation"` // 0-100
	Formation  string       `json:"formation,omitempty"`
	Tactic     Tactic       `json:"tactic,omitempty"`
	Training   TrainingType `json:"training,omitempty"`
	PreTalk    PreTalkType  `json:"pre_talk,omitempty"`
	Players    []Player     `json:"players"`
}

// Settings returns the club's current configuration.
func (c Club) Settings() ClubSettings {
	return ClubSettings{Tactic: c.Tactic, Training: c.Training, PreTalk: c.PreTalk}
}

// WithSettings returns a copy of c with the non-empty fields of s applied.
func (c Club) WithSettings(s ClubSettings) Club {
	cp := c.Clone()
	if s.Tactic != "" {
		cp.Tactic = s.Tactic
	}
	if s.Training != "" {
		cp.Training = s.Training
	}
	if s.PreTalk != "" {
		cp.PreTalk = s.PreTalk
	}
	return cp
}

// DefaultSettings is applied to clubs saved without a configuration.
var DefaultSettings = ClubSettings{Tactic: Balanced, Training: PhysicalTraining, PreTalk: MotivationalTalk}

// Starters returns the players flagged for the starting eleven.
func (c Club) Starters() []Player {
	out := make([]Player, 0, len(c.Players))
	for _, p := range c.Players {
		if p.Starter {
			out = append(out, p)
		}
	}
	return out
}

// Clone returns a deep copy so callers can mutate the roster safely.
func (c Club) Clone() Club {
	cp := c
	cp.Players = append([]Player(nil), c.Players...)
	return cp
}
