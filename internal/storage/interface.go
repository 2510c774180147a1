package storage

import (
	"context"
	"errors"
	"time"

	"github.com/goserg/rankings/internal/domain"

	"github.com/google/uuid"
	opt "github.com/repeale/fp-go/option"
)

var ErrNotFound = errors.New("not found")

type RankingStorage interface {
	CreateRanking(ctx context.Context, ranking domain.Ranking) (domain.Ranking, error)
	GetRanking(ctx context.Context, id uuid.UUID) (domain.Ranking, error)
	ListRankings(ctx context.Context) ([]domain.Ranking, error)
}

type PlayerStorage interface {
	CreatePlayer(ctx context.Context, player domain.Player) (domain.Player, error)
	GetPlayer(ctx context.Context, id uuid.UUID) (domain.Player, error)
	GetPlayerByUser(ctx context.Context, rankingID uuid.UUID, userID string) (domain.Player, error)
	ListPlayers(ctx context.Context, rankingID uuid.UUID) ([]domain.Player, error)
	UpdatePlayerRating(ctx context.Context, id uuid.UUID, rating domain.Rating) error
	SetPlayerDisabled(ctx context.Context, id uuid.UUID, disabled bool) error
}

type MatchOrder int

const (
	OrderTimeStartedDesc MatchOrder = iota
	OrderTimeFinishedAsc
)

// MatchFilter narrows ListMatches. Empty slices and None options don't filter.
type MatchFilter struct {
	RankingIDs        []uuid.UUID
	PlayerIDs         []uuid.UUID
	Status            opt.Option[domain.MatchStatus]
	FinishedOnOrAfter opt.Option[time.Time]
	Limit             int
	Offset            int
	Order             MatchOrder
}

type MatchStorage interface {
	CreateMatch(ctx context.Context, match domain.Match) (domain.Match, error)
	GetMatch(ctx context.Context, id uuid.UUID) (domain.Match, error)
	ListMatches(ctx context.Context, filter MatchFilter) ([]domain.Match, error)
	// UpdateMatch writes status, outcome, metadata, times and per-team votes.
	UpdateMatch(ctx context.Context, match domain.Match) error
	DeleteMatch(ctx context.Context, id uuid.UUID) error
	UpdateMatchPlayerSnapshots(ctx context.Context, matchID uuid.UUID, snapshots []domain.PlayerSnapshot) error
	// ReplaceMatchTeams swaps the player set of a match, votes are reset.
	ReplaceMatchTeams(ctx context.Context, matchID uuid.UUID, teams []domain.MatchTeam) error
}

type TeamStorage interface {
	CreateTeam(ctx context.Context, team domain.Team) (domain.Team, error)
	GetTeam(ctx context.Context, id uuid.UUID) (domain.Team, error)
	ListTeamsForPlayer(ctx context.Context, rankingID uuid.UUID, playerID uuid.UUID) ([]domain.Team, error)
}

type QueueStorage interface {
	// EnqueueTeam appends the team to the back of the queue. It reports false
	// when the team was already waiting.
	EnqueueTeam(ctx context.Context, rankingID uuid.UUID, teamID uuid.UUID) (bool, error)
	// PopQueueTeams atomically removes exactly count teams from the front of
	// the queue, or nothing when fewer are waiting.
	PopQueueTeams(ctx context.Context, rankingID uuid.UUID, count int) ([]uuid.UUID, error)
	// PushQueueTeams puts teams back at the front of the queue, in order.
	PushQueueTeams(ctx context.Context, rankingID uuid.UUID, teamIDs []uuid.UUID) error
	DequeueTeams(ctx context.Context, rankingID uuid.UUID, teamIDs []uuid.UUID) (int, error)
	ListQueuedTeams(ctx context.Context, rankingID uuid.UUID) ([]uuid.UUID, error)
}

type Storage interface {
	RankingStorage
	PlayerStorage
	MatchStorage
	TeamStorage
	QueueStorage
}
