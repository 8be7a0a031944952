// Package strength derives a scalar matchday strength for a club.
package strength

import "github.com/okian/matchday/internal/domain/model"

// Weighting divisors. These are fixed legacy constants.
const (
	moraleDivisor     = 10.0
	staminaDivisor    = 20.0
	reputationDivisor = 5.0
)

// Evaluator computes a club's strength.
type Evaluator interface {
	Evaluate(club model.Club) float64
}

// Func adapts a plain function to Evaluator.
type Func func(club model.Club) float64

// Evaluate calls f(club).
func (f Func) Evaluate(club model.Club) float64 { return f(club) }

// Default is the standard weighted evaluator.
var Default Evaluator = Func(Evaluate) //nolint:gochecknoglobals // stateless default

// Evaluate returns the strength of club's starting eleven.
//
// With no starters the club's reputation stands in for strength. Otherwise:
//
//	mean(overall) + mean(morale)/10 + mean(stamina)/20 + reputation/5
func Evaluate(club model.Club) float64 {
	var n, overall, morale, stamina int
	for _, p := range club.Players {
		if !p.Starter {
			continue
		}
		n++
		overall += p.Overall
		morale += p.Morale
		stamina += p.Stamina
	}
	if n == 0 {
		return float64(club.Reputation)
	}

	count := float64(n)
	avgOverall := float64(overall) / count
	avgMorale := float64(morale) / count
	avgStamina := float64(stamina) / count

	return avgOverall + avgMorale/moraleDivisor + avgStamina/staminaDivisor + float64(club.Reputation)/reputationDivisor
}
