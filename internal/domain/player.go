package domain

import (
	"time"

	"github.com/google/uuid"
)

type Player struct {
	ID        uuid.UUID
	RankingID uuid.UUID
	// UserID identifies the person on the surrounding platform.
	UserID    string
	Name      string
	Rating    Rating
	Disabled  bool
	CreatedAt time.Time
}

// Team is a persistent group of players that can wait in a ranking's queue.
type Team struct {
	ID        uuid.UUID
	RankingID uuid.UUID
	PlayerIDs []uuid.UUID
	CreatedAt time.Time
}

type LeaderboardEntry struct {
	Player
	Rank  int
	Score float64
}
