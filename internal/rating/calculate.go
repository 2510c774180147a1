package rating

import (
	"fmt"
	"math"
	"sort"

	"github.com/goserg/rankings/internal/domain"

	openskill "github.com/intinig/go-openskill/rating"
	"github.com/intinig/go-openskill/types"
)

// Rate calculates post-match ratings.
// outcome - one relative score per team, higher is better, equal scores are a draw.
// teams - pre-match ratings grouped by team, same order as outcome.
// initial - the ranking's initial rating, it sets the scale of the model.
// bestOf - series length; longer series use a smaller beta.
//
// The result has the same shape as teams. Rate panics when outcome and teams
// don't line up: callers validate outcomes before getting here.
func Rate(outcome []float64, teams [][]domain.Rating, initial domain.Rating, bestOf int) [][]domain.Rating {
	if len(outcome) != len(teams) {
		panic(fmt.Sprintf("rating: %d scores for %d teams", len(outcome), len(teams)))
	}
	ranks := Ranks(outcome)

	// openskill expects teams in finishing order
	order := make([]int, len(teams))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return ranks[order[a]] < ranks[order[b]]
	})

	game := make([]types.Team, len(teams))
	gameRanks := make([]int, len(teams))
	for pos, idx := range order {
		if len(teams[idx]) == 0 {
			panic(fmt.Sprintf("rating: team %d has no players", idx))
		}
		team := make(types.Team, len(teams[idx]))
		for j, r := range teams[idx] {
			team[j] = types.Rating{Mu: r.Mu, Sigma: r.Sigma}
		}
		game[pos] = team
		gameRanks[pos] = ranks[idx]
	}

	mu := initial.Mu
	sigma := initial.Sigma
	beta := Beta(initial, bestOf)
	rated := openskill.Rate(game, &types.OpenSkillOptions{
		Mu:    &mu,
		Sigma: &sigma,
		Beta:  &beta,
		Rank:  gameRanks,
	})

	result := make([][]domain.Rating, len(teams))
	for pos, idx := range order {
		team := make([]domain.Rating, len(rated[pos]))
		for j, r := range rated[pos] {
			team[j] = domain.Rating{Mu: r.Mu, Sigma: r.Sigma}
		}
		result[idx] = team
	}
	return result
}

// Beta is the performance spread for a series: base beta * 5 / sqrt(best of).
// The base beta follows the openskill default of half the initial sigma.
func Beta(initial domain.Rating, bestOf int) float64 {
	if bestOf <= 0 {
		bestOf = 1
	}
	return initial.Sigma / 2 * 5 / math.Sqrt(float64(bestOf))
}

// Ranks converts scores to finishing places starting at 1. Ties share a place.
func Ranks(outcome []float64) []int {
	ranks := make([]int, len(outcome))
	for i, score := range outcome {
		rank := 1
		for _, other := range outcome {
			if other > score {
				rank++
			}
		}
		ranks[i] = rank
	}
	return ranks
}

// Conservative is the displayed score: the skill we are fairly sure the player has.
func Conservative(r domain.Rating) float64 {
	return r.Mu - 3*r.Sigma
}
