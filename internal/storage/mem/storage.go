package mem

import (
	"context"
	"sort"
	"sync"

	"github.com/goserg/rankings/internal/domain"
	"github.com/goserg/rankings/internal/storage"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	opt "github.com/repeale/fp-go/option"
)

// Storage keeps everything in process memory. Every call takes the same
// mutex, which also makes queue pops atomic.
type Storage struct {
	mu       sync.Mutex
	rankings map[uuid.UUID]domain.Ranking
	players  map[uuid.UUID]domain.Player
	matches  map[uuid.UUID]domain.Match
	teams    map[uuid.UUID]domain.Team
	queues   map[uuid.UUID][]uuid.UUID
}

var _ storage.Storage = (*Storage)(nil)

func New() *Storage {
	return &Storage{
		rankings: make(map[uuid.UUID]domain.Ranking),
		players:  make(map[uuid.UUID]domain.Player),
		matches:  make(map[uuid.UUID]domain.Match),
		teams:    make(map[uuid.UUID]domain.Team),
		queues:   make(map[uuid.UUID][]uuid.UUID),
	}
}

func (s *Storage) CreateRanking(_ context.Context, ranking domain.Ranking) (domain.Ranking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ranking.ID == uuid.Nil {
		ranking.ID = uuid.New()
	}
	s.rankings[ranking.ID] = ranking
	return ranking, nil
}

func (s *Storage) GetRanking(_ context.Context, id uuid.UUID) (domain.Ranking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ranking, ok := s.rankings[id]
	if !ok {
		return domain.Ranking{}, storage.ErrNotFound
	}
	return ranking, nil
}

func (s *Storage) ListRankings(_ context.Context) ([]domain.Ranking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rankings := make([]domain.Ranking, 0, len(s.rankings))
	for _, r := range s.rankings {
		rankings = append(rankings, r)
	}
	sort.Slice(rankings, func(i, j int) bool {
		return rankings[i].CreatedAt.Before(rankings[j].CreatedAt)
	})
	return rankings, nil
}

func (s *Storage) CreatePlayer(_ context.Context, player domain.Player) (domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if player.ID == uuid.Nil {
		player.ID = uuid.New()
	}
	s.players[player.ID] = player
	return player, nil
}

func (s *Storage) GetPlayer(_ context.Context, id uuid.UUID) (domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, ok := s.players[id]
	if !ok {
		return domain.Player{}, storage.ErrNotFound
	}
	return player, nil
}

func (s *Storage) GetPlayerByUser(_ context.Context, rankingID uuid.UUID, userID string) (domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, player := range s.players {
		if player.RankingID == rankingID && player.UserID == userID {
			return player, nil
		}
	}
	return domain.Player{}, storage.ErrNotFound
}

func (s *Storage) ListPlayers(_ context.Context, rankingID uuid.UUID) ([]domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var players []domain.Player
	for _, player := range s.players {
		if player.RankingID == rankingID {
			players = append(players, player)
		}
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].CreatedAt.Before(players[j].CreatedAt)
	})
	return players, nil
}

func (s *Storage) UpdatePlayerRating(_ context.Context, id uuid.UUID, rating domain.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, ok := s.players[id]
	if !ok {
		return storage.ErrNotFound
	}
	player.Rating = rating
	s.players[id] = player
	return nil
}

func (s *Storage) SetPlayerDisabled(_ context.Context, id uuid.UUID, disabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, ok := s.players[id]
	if !ok {
		return storage.ErrNotFound
	}
	player.Disabled = disabled
	s.players[id] = player
	return nil
}

func (s *Storage) CreateMatch(_ context.Context, match domain.Match) (domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if match.ID == uuid.Nil {
		match.ID = uuid.New()
	}
	s.matches[match.ID] = match.Clone()
	return match.Clone(), nil
}

func (s *Storage) GetMatch(_ context.Context, id uuid.UUID) (domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	match, ok := s.matches[id]
	if !ok {
		return domain.Match{}, storage.ErrNotFound
	}
	return match.Clone(), nil
}

func (s *Storage) ListMatches(_ context.Context, filter storage.MatchFilter) ([]domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rankings := mapset.NewThreadUnsafeSet(filter.RankingIDs...)
	players := mapset.NewThreadUnsafeSet(filter.PlayerIDs...)

	var matches []domain.Match
	for _, match := range s.matches {
		if rankings.Cardinality() > 0 && !rankings.Contains(match.RankingID) {
			continue
		}
		if players.Cardinality() > 0 && !containsAny(players, match.PlayerIDs()) {
			continue
		}
		if opt.IsSome(filter.Status) && match.Status != filter.Status.Value {
			continue
		}
		if opt.IsSome(filter.FinishedOnOrAfter) {
			if match.TimeFinished.IsZero() || match.TimeFinished.Before(filter.FinishedOnOrAfter.Value) {
				continue
			}
		}
		matches = append(matches, match.Clone())
	}

	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		switch filter.Order {
		case storage.OrderTimeFinishedAsc:
			if !a.TimeFinished.Equal(b.TimeFinished) {
				return a.TimeFinished.Before(b.TimeFinished)
			}
		case storage.OrderTimeStartedDesc:
			if !a.TimeStarted.Equal(b.TimeStarted) {
				return a.TimeStarted.After(b.TimeStarted)
			}
		}
		return a.ID.String() < b.ID.String()
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matches) {
			return nil, nil
		}
		matches = matches[filter.Offset:]
	}
	if filter.Limit > 0 && len(matches) > filter.Limit {
		matches = matches[:filter.Limit]
	}
	return matches, nil
}

func (s *Storage) UpdateMatch(_ context.Context, match domain.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.matches[match.ID]
	if !ok {
		return storage.ErrNotFound
	}
	stored.Status = match.Status
	stored.Metadata = match.Metadata
	stored.TimeStarted = match.TimeStarted
	stored.TimeFinished = match.TimeFinished
	stored.Outcome = append([]float64(nil), match.Outcome...)
	if match.Outcome == nil {
		stored.Outcome = nil
	}
	for i := range stored.Teams {
		if i < len(match.Teams) {
			stored.Teams[i].Vote = match.Teams[i].Vote
			stored.Teams[i].Rematch = match.Teams[i].Rematch
		}
	}
	s.matches[match.ID] = stored
	return nil
}

func (s *Storage) DeleteMatch(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.matches, id)
	return nil
}

func (s *Storage) UpdateMatchPlayerSnapshots(_ context.Context, matchID uuid.UUID, snapshots []domain.PlayerSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	match, ok := s.matches[matchID]
	if !ok {
		return storage.ErrNotFound
	}
	for _, snapshot := range snapshots {
		for i := range match.Teams {
			for j := range match.Teams[i].Players {
				if match.Teams[i].Players[j].PlayerID == snapshot.PlayerID {
					match.Teams[i].Players[j].RatingBefore = snapshot.RatingBefore
				}
			}
		}
	}
	s.matches[matchID] = match
	return nil
}

func (s *Storage) ReplaceMatchTeams(_ context.Context, matchID uuid.UUID, teams []domain.MatchTeam) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	match, ok := s.matches[matchID]
	if !ok {
		return storage.ErrNotFound
	}
	match.Teams = domain.Match{Teams: teams}.Clone().Teams
	for i := range match.Teams {
		match.Teams[i].Vote = domain.VoteUndecided
		match.Teams[i].Rematch = false
	}
	s.matches[matchID] = match
	return nil
}

func (s *Storage) CreateTeam(_ context.Context, team domain.Team) (domain.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if team.ID == uuid.Nil {
		team.ID = uuid.New()
	}
	team.PlayerIDs = append([]uuid.UUID(nil), team.PlayerIDs...)
	s.teams[team.ID] = team
	return team, nil
}

func (s *Storage) GetTeam(_ context.Context, id uuid.UUID) (domain.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	team, ok := s.teams[id]
	if !ok {
		return domain.Team{}, storage.ErrNotFound
	}
	team.PlayerIDs = append([]uuid.UUID(nil), team.PlayerIDs...)
	return team, nil
}

func (s *Storage) ListTeamsForPlayer(_ context.Context, rankingID uuid.UUID, playerID uuid.UUID) ([]domain.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var teams []domain.Team
	for _, team := range s.teams {
		if team.RankingID != rankingID {
			continue
		}
		for _, id := range team.PlayerIDs {
			if id == playerID {
				team.PlayerIDs = append([]uuid.UUID(nil), team.PlayerIDs...)
				teams = append(teams, team)
				break
			}
		}
	}
	sort.Slice(teams, func(i, j int) bool {
		return teams[i].CreatedAt.Before(teams[j].CreatedAt)
	})
	return teams, nil
}

func (s *Storage) EnqueueTeam(_ context.Context, rankingID uuid.UUID, teamID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.queues[rankingID] {
		if id == teamID {
			return false, nil
		}
	}
	s.queues[rankingID] = append(s.queues[rankingID], teamID)
	return true, nil
}

func (s *Storage) PopQueueTeams(_ context.Context, rankingID uuid.UUID, count int) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := s.queues[rankingID]
	if count <= 0 || len(queue) < count {
		return nil, nil
	}
	popped := append([]uuid.UUID(nil), queue[:count]...)
	s.queues[rankingID] = append([]uuid.UUID(nil), queue[count:]...)
	return popped, nil
}

func (s *Storage) PushQueueTeams(_ context.Context, rankingID uuid.UUID, teamIDs []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pushed := mapset.NewThreadUnsafeSet(teamIDs...)
	queue := append([]uuid.UUID(nil), teamIDs...)
	for _, id := range s.queues[rankingID] {
		if !pushed.Contains(id) {
			queue = append(queue, id)
		}
	}
	s.queues[rankingID] = queue
	return nil
}

func (s *Storage) DequeueTeams(_ context.Context, rankingID uuid.UUID, teamIDs []uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	remove := mapset.NewThreadUnsafeSet(teamIDs...)
	var queue []uuid.UUID
	removed := 0
	for _, id := range s.queues[rankingID] {
		if remove.Contains(id) {
			removed++
			continue
		}
		queue = append(queue, id)
	}
	s.queues[rankingID] = queue
	return removed, nil
}

func (s *Storage) ListQueuedTeams(_ context.Context, rankingID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]uuid.UUID(nil), s.queues[rankingID]...), nil
}

func containsAny(set mapset.Set[uuid.UUID], ids []uuid.UUID) bool {
	for _, id := range ids {
		if set.Contains(id) {
			return true
		}
	}
	return false
}
