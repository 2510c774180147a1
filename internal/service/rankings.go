package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/goserg/rankings/internal/domain"
	"github.com/goserg/rankings/internal/storage"

	"github.com/google/uuid"
)

func (s *Service) CreateRanking(ctx context.Context, ranking domain.Ranking) (domain.Ranking, error) {
	if err := ranking.Validate(); err != nil {
		return domain.Ranking{}, err
	}
	if ranking.ID == uuid.Nil {
		ranking.ID = uuid.New()
	}
	if ranking.CreatedAt.IsZero() {
		ranking.CreatedAt = s.now()
	}
	created, err := s.store.CreateRanking(ctx, ranking)
	if err != nil {
		return domain.Ranking{}, fmt.Errorf("create ranking: %w", err)
	}
	s.log.WithFields(map[string]interface{}{
		"ranking": created.ID,
		"name":    created.Name,
	}).Info("ranking created")
	return created, nil
}

func (s *Service) GetRanking(ctx context.Context, id uuid.UUID) (domain.Ranking, error) {
	return s.store.GetRanking(ctx, id)
}

func (s *Service) ListRankings(ctx context.Context) ([]domain.Ranking, error) {
	return s.store.ListRankings(ctx)
}

// GetOrCreatePlayer returns the user's player in the ranking, registering it
// with the ranking's initial rating on first contact.
func (s *Service) GetOrCreatePlayer(ctx context.Context, rankingID uuid.UUID, userID, name string) (domain.Player, error) {
	ranking, err := s.store.GetRanking(ctx, rankingID)
	if err != nil {
		return domain.Player{}, err
	}
	unlock := s.locks.lock(rankingID)
	defer unlock()

	return s.getOrCreatePlayer(ctx, ranking, userID, name)
}

func (s *Service) getOrCreatePlayer(ctx context.Context, ranking domain.Ranking, userID, name string) (domain.Player, error) {
	player, err := s.store.GetPlayerByUser(ctx, ranking.ID, userID)
	if err == nil {
		return player, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return domain.Player{}, err
	}
	if userID == "" {
		return domain.Player{}, domain.NewValidationError("user id is empty")
	}
	if name == "" {
		name = userID
	}
	player, err = s.store.CreatePlayer(ctx, domain.Player{
		ID:        uuid.New(),
		RankingID: ranking.ID,
		UserID:    userID,
		Name:      name,
		Rating:    ranking.InitialRating,
		CreatedAt: s.now(),
	})
	if err != nil {
		return domain.Player{}, fmt.Errorf("create player: %w", err)
	}
	s.log.WithFields(map[string]interface{}{
		"ranking": ranking.ID,
		"player":  player.ID,
	}).Debug("player registered")
	return player, nil
}

// SetPlayerRating overrides a player's live rating. Match history is left
// as is, a later full rescore recomputes it.
func (s *Service) SetPlayerRating(ctx context.Context, playerID uuid.UUID, r domain.Rating) (domain.Player, error) {
	if math.IsNaN(r.Mu) || math.IsInf(r.Mu, 0) || math.IsNaN(r.Sigma) || math.IsInf(r.Sigma, 0) || r.Sigma <= 0 {
		return domain.Player{}, domain.NewValidationError("rating must be finite with a positive sigma")
	}
	player, err := s.store.GetPlayer(ctx, playerID)
	if err != nil {
		return domain.Player{}, err
	}
	unlock := s.locks.lock(player.RankingID)
	defer unlock()

	if err := s.store.UpdatePlayerRating(ctx, playerID, r); err != nil {
		return domain.Player{}, fmt.Errorf("update rating: %w", err)
	}
	player.Rating = r
	s.log.WithFields(map[string]interface{}{
		"player": playerID,
		"mu":     r.Mu,
		"sigma":  r.Sigma,
	}).Info("rating set by admin")
	return player, s.refreshLeaderboard(ctx, player.RankingID)
}

func (s *Service) SetPlayerDisabled(ctx context.Context, playerID uuid.UUID, disabled bool) (domain.Player, error) {
	player, err := s.store.GetPlayer(ctx, playerID)
	if err != nil {
		return domain.Player{}, err
	}
	unlock := s.locks.lock(player.RankingID)
	defer unlock()

	if err := s.store.SetPlayerDisabled(ctx, playerID, disabled); err != nil {
		return domain.Player{}, fmt.Errorf("set disabled: %w", err)
	}
	player.Disabled = disabled
	return player, s.refreshLeaderboard(ctx, player.RankingID)
}

func (s *Service) Leaderboard(ctx context.Context, rankingID uuid.UUID) ([]domain.LeaderboardEntry, error) {
	if entries, ok := s.leaderboard.Leaderboard(rankingID); ok {
		return entries, nil
	}
	if err := s.refreshLeaderboard(ctx, rankingID); err != nil {
		return nil, err
	}
	entries, _ := s.leaderboard.Leaderboard(rankingID)
	return entries, nil
}

// LeaderboardPlayer looks a player up by display name, ignoring case.
func (s *Service) LeaderboardPlayer(ctx context.Context, rankingID uuid.UUID, name string) (domain.LeaderboardEntry, error) {
	if _, err := s.Leaderboard(ctx, rankingID); err != nil {
		return domain.LeaderboardEntry{}, err
	}
	entry, ok := s.leaderboard.GetPlayerByName(rankingID, name)
	if !ok {
		return domain.LeaderboardEntry{}, storage.ErrNotFound
	}
	return entry, nil
}

func (s *Service) refreshLeaderboard(ctx context.Context, rankingID uuid.UUID) error {
	players, err := s.store.ListPlayers(ctx, rankingID)
	if err != nil {
		s.leaderboard.Invalidate(rankingID)
		return fmt.Errorf("refresh leaderboard: %w", err)
	}
	s.leaderboard.Update(rankingID, players)
	return nil
}
