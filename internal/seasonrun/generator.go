package seasonrun

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"github.com/okian/matchday/internal/domain/model"
)

var (
	starterPositions = []model.Position{
		model.Goalkeeper,
		model.Defender, model.Defender, model.Defender, model.Defender,
		model.Midfielder, model.Midfielder, model.Midfielder, model.Midfielder,
		model.Attacker, model.Attacker,
	}
	substitutePositions = []model.Position{model.Goalkeeper, model.Defender, model.Midfielder, model.Midfielder, model.Attacker}
)

// randomInt returns a value in [0, n) using crypto/rand.
func randomInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// rating draws a player attribute around the club's base quality.
func rating(base int) int {
	r := base + randomInt(21) - 10
	switch {
	case r < 0:
		return 0
	case r > maxRating:
		return maxRating
	}
	return r
}

// generateClubs creates n clubs with uuid ids, a full starting eleven and
// a bench. Quality varies per club so the table has a spread.
func generateClubs(n int) []model.Club {
	clubs := make([]model.Club, n)
	for i := range clubs {
		clubs[i] = generateClub(i)
	}
	return clubs
}

func generateClub(index int) model.Club {
	base := ratingFloor + randomInt(ratingSpread)
	club := model.Club{
		ID:         uuid.NewString(),
		Name:       fmt.Sprintf("Club %02d", index+1),
		Reputation: rating(base),
		Formation:  generatedFormation,
		Players:    make([]model.Player, 0, len(starterPositions)+generatedSubstitutes),
	}

	add := func(pos model.Position, starter bool) {
		n := len(club.Players) + 1
		club.Players = append(club.Players, model.Player{
			ID:         uuid.NewString(),
			Name:       fmt.Sprintf("%s #%d", club.Name, n),
			Position:   pos,
			Overall:    rating(base),
			Morale:     rating(base),
			Stamina:    rating(base),
			Starter:    starter,
			Substitute: !starter,
		})
	}
	for _, pos := range starterPositions {
		add(pos, true)
	}
	for _, pos := range substitutePositions[:generatedSubstitutes] {
		add(pos, false)
	}
	return club
}
