package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/goserg/rankings/internal/domain"
	"github.com/goserg/rankings/internal/storage"

	"github.com/google/uuid"
	opt "github.com/repeale/fp-go/option"
)

// CastVote records the user's vote for their team. Casting the same vote
// again clears it. The match finishes or cancels as soon as the votes agree.
// Votes on terminal matches change nothing.
func (s *Service) CastVote(ctx context.Context, matchID uuid.UUID, userID string, vote domain.Vote) (domain.Match, error) {
	if !vote.Valid() {
		return domain.Match{}, domain.NewValidationError("unknown vote %d", vote)
	}
	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return domain.Match{}, err
	}
	ranking, err := s.store.GetRanking(ctx, match.RankingID)
	if err != nil {
		return domain.Match{}, err
	}
	unlock := s.locks.lock(ranking.ID)
	defer unlock()

	match, err = s.store.GetMatch(ctx, matchID)
	if err != nil {
		return domain.Match{}, err
	}
	if match.Status.Terminal() {
		return match, nil
	}
	team, err := s.teamOf(ctx, match, userID)
	if err != nil {
		return domain.Match{}, err
	}

	if match.Teams[team].Vote == vote {
		match.Teams[team].Vote = domain.VoteUndecided
	} else {
		match.Teams[team].Vote = vote
	}
	s.log.WithFields(map[string]interface{}{
		"match": match.ID,
		"team":  team,
		"vote":  match.Teams[team].Vote,
	}).Debug("vote cast")

	votes := make([]domain.Vote, len(match.Teams))
	for i, t := range match.Teams {
		votes[i] = t.Vote
	}
	status, outcome := domain.ConsensusStatus(votes)
	switch status {
	case domain.MatchFinished:
		return s.finishMatch(ctx, ranking, match, outcome, match.TimeFinished)
	case domain.MatchCanceled:
		return s.cancelMatch(ctx, match)
	case domain.MatchOngoing:
	}
	if err := s.store.UpdateMatch(ctx, match); err != nil {
		return domain.Match{}, fmt.Errorf("update match: %w", err)
	}
	return match, nil
}

// teamOf returns the index of the user's team in the match.
func (s *Service) teamOf(ctx context.Context, match domain.Match, userID string) (int, error) {
	player, err := s.store.GetPlayerByUser(ctx, match.RankingID, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, domain.NewCoordinationError("you are not playing in this match")
	}
	if err != nil {
		return 0, err
	}
	team := match.TeamIndex(player.ID)
	if team < 0 {
		return 0, domain.NewCoordinationError("you are not playing in this match")
	}
	return team, nil
}

// Rematch records that the user's team wants to play again. Once every team
// agreed within the ranking's rematch window a new match with the same teams
// starts and is returned.
func (s *Service) Rematch(ctx context.Context, matchID uuid.UUID, userID string) (opt.Option[domain.Match], error) {
	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return opt.None[domain.Match](), err
	}
	ranking, err := s.store.GetRanking(ctx, match.RankingID)
	if err != nil {
		return opt.None[domain.Match](), err
	}
	unlock := s.locks.lock(ranking.ID)
	defer unlock()

	match, err = s.store.GetMatch(ctx, matchID)
	if err != nil {
		return opt.None[domain.Match](), err
	}
	if match.Status != domain.MatchFinished || allRematch(match) {
		return opt.None[domain.Match](), nil
	}
	team, err := s.teamOf(ctx, match, userID)
	if err != nil {
		return opt.None[domain.Match](), err
	}
	window := ranking.Matchmaking.RematchWindow
	if window <= 0 || s.now().Sub(match.TimeFinished) > window {
		return opt.None[domain.Match](), domain.NewCoordinationError("the rematch window has closed")
	}

	match.Teams[team].Rematch = true
	if !allRematch(match) {
		if err := s.store.UpdateMatch(ctx, match); err != nil {
			return opt.None[domain.Match](), fmt.Errorf("update match: %w", err)
		}
		return opt.None[domain.Match](), nil
	}
	// the last flag is stored only after the rematch started
	rematch, err := s.startMatch(ctx, ranking, match.TeamPlayerIDs(), match.Metadata.BestOf)
	if err != nil {
		return opt.None[domain.Match](), err
	}
	if err := s.store.UpdateMatch(ctx, match); err != nil {
		return opt.None[domain.Match](), fmt.Errorf("update match: %w", err)
	}
	return opt.Some(rematch), nil
}

func allRematch(match domain.Match) bool {
	for _, team := range match.Teams {
		if !team.Rematch {
			return false
		}
	}
	return len(match.Teams) > 0
}
