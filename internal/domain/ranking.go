package domain

import (
	"time"

	"github.com/google/uuid"
)

type MatchmakingSettings struct {
	QueueEnabled           bool
	DirectChallengeEnabled bool
	// DefaultBestOf is used when a match is started without an explicit series length.
	DefaultBestOf int
	// RematchWindow is how long after a match finishes a rematch can be requested.
	RematchWindow time.Duration
}

type Ranking struct {
	ID             uuid.UUID
	Name           string
	TeamsPerMatch  int
	PlayersPerTeam int
	InitialRating  Rating
	Matchmaking    MatchmakingSettings
	CreatedAt      time.Time
}

func (r Ranking) Validate() error {
	if r.TeamsPerMatch < 2 {
		return NewValidationError("a match needs at least 2 teams, got %d", r.TeamsPerMatch)
	}
	if r.PlayersPerTeam < 1 {
		return NewValidationError("a team needs at least 1 player, got %d", r.PlayersPerTeam)
	}
	if r.InitialRating.Sigma <= 0 {
		return NewValidationError("initial rating sigma must be positive")
	}
	if r.Matchmaking.DefaultBestOf != 0 {
		if err := ValidateBestOf(r.Matchmaking.DefaultBestOf); err != nil {
			return err
		}
	}
	if r.Matchmaking.RematchWindow < 0 {
		return NewValidationError("rematch window can't be negative")
	}
	return nil
}

// BestOf resolves a requested series length against the ranking default.
func (r Ranking) BestOf(requested int) int {
	if requested != 0 {
		return requested
	}
	if r.Matchmaking.DefaultBestOf != 0 {
		return r.Matchmaking.DefaultBestOf
	}
	return 1
}

func ValidateBestOf(bestOf int) error {
	if bestOf <= 0 || bestOf%2 == 0 {
		return NewValidationError("best of must be an odd positive number, got %d", bestOf)
	}
	return nil
}
