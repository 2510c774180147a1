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

// QueueMatch is a match formed from the queue together with the handle of
// the place its players were sent to.
type QueueMatch struct {
	Match  domain.Match
	Thread string
}

// JoinQueue puts the user's team in the ranking's queue. A user without a
// team gets a single player team. It reports false when the team was
// already waiting.
func (s *Service) JoinQueue(ctx context.Context, rankingID uuid.UUID, user Participant) (domain.Team, bool, error) {
	ranking, err := s.store.GetRanking(ctx, rankingID)
	if err != nil {
		return domain.Team{}, false, err
	}
	if !ranking.Matchmaking.QueueEnabled {
		return domain.Team{}, false, domain.NewValidationError("the queue is disabled in %s", ranking.Name)
	}
	unlock := s.locks.lock(rankingID)
	defer unlock()

	player, err := s.getOrCreatePlayer(ctx, ranking, user.UserID, user.Name)
	if err != nil {
		return domain.Team{}, false, err
	}
	if player.Disabled {
		return domain.Team{}, false, domain.NewValidationError("%s is disabled", player.Name)
	}
	err = s.checkNotPlaying(ctx, rankingID, map[uuid.UUID]domain.Player{player.ID: player}, uuid.Nil)
	if err != nil {
		return domain.Team{}, false, err
	}

	teams, err := s.store.ListTeamsForPlayer(ctx, rankingID, player.ID)
	if err != nil {
		return domain.Team{}, false, fmt.Errorf("list teams: %w", err)
	}
	var team domain.Team
	switch len(teams) {
	case 0:
		team, err = s.store.CreateTeam(ctx, domain.Team{
			ID:        uuid.New(),
			RankingID: rankingID,
			PlayerIDs: []uuid.UUID{player.ID},
			CreatedAt: s.now(),
		})
		if err != nil {
			return domain.Team{}, false, fmt.Errorf("create team: %w", err)
		}
	case 1:
		team = teams[0]
	default:
		return domain.Team{}, false, domain.NewCoordinationError("%s is on %d teams, can't tell which one should queue", player.Name, len(teams))
	}

	added, err := s.queue.EnqueueTeam(ctx, rankingID, team.ID)
	if err != nil {
		return domain.Team{}, false, fmt.Errorf("enqueue: %w", err)
	}
	s.log.WithFields(map[string]interface{}{
		"ranking": rankingID,
		"team":    team.ID,
		"added":   added,
	}).Debug("team joined queue")
	return team, added, nil
}

// LeaveQueue removes every queued team of the user and returns how many were removed.
func (s *Service) LeaveQueue(ctx context.Context, rankingID uuid.UUID, userID string) (int, error) {
	player, err := s.store.GetPlayerByUser(ctx, rankingID, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	teams, err := s.store.ListTeamsForPlayer(ctx, rankingID, player.ID)
	if err != nil {
		return 0, fmt.Errorf("list teams: %w", err)
	}
	if len(teams) == 0 {
		return 0, nil
	}
	ids := make([]uuid.UUID, 0, len(teams))
	for _, team := range teams {
		ids = append(ids, team.ID)
	}
	removed, err := s.queue.DequeueTeams(ctx, rankingID, ids)
	if err != nil {
		return 0, fmt.Errorf("dequeue: %w", err)
	}
	return removed, nil
}

// QueuedTeams lists the ranking's queue front to back.
func (s *Service) QueuedTeams(ctx context.Context, rankingID uuid.UUID) ([]domain.Team, error) {
	ids, err := s.queue.ListQueuedTeams(ctx, rankingID)
	if err != nil {
		return nil, err
	}
	teams := make([]domain.Team, 0, len(ids))
	for _, id := range ids {
		team, err := s.store.GetTeam(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get team %s: %w", id, err)
		}
		teams = append(teams, team)
	}
	return teams, nil
}

// FindMatchFromQueue pops as many teams as a match needs and starts a match
// for them. It returns None when not enough teams are waiting. If the match
// can't be started the teams go back to the front of the queue.
func (s *Service) FindMatchFromQueue(ctx context.Context, rankingID uuid.UUID, location string) (opt.Option[QueueMatch], error) {
	ranking, err := s.store.GetRanking(ctx, rankingID)
	if err != nil {
		return opt.None[QueueMatch](), err
	}
	popped, err := s.queue.PopQueueTeams(ctx, rankingID, ranking.TeamsPerMatch)
	if err != nil {
		return opt.None[QueueMatch](), fmt.Errorf("pop queue: %w", err)
	}
	if len(popped) == 0 {
		return opt.None[QueueMatch](), nil
	}

	found, err := s.matchFromTeams(ctx, ranking, popped, location)
	if err != nil {
		log := s.log.WithError(err).WithField("ranking", rankingID)
		if pushErr := s.queue.PushQueueTeams(ctx, rankingID, popped); pushErr != nil {
			log.WithField("teams", popped).WithError(pushErr).Error("can't return teams to the queue")
			return opt.None[QueueMatch](), errors.Join(err, pushErr)
		}
		log.Warn("queue match failed, teams returned")
		return opt.None[QueueMatch](), err
	}
	return opt.Some(found), nil
}

func (s *Service) matchFromTeams(ctx context.Context, ranking domain.Ranking, teamIDs []uuid.UUID, location string) (QueueMatch, error) {
	teams := make([][]uuid.UUID, 0, len(teamIDs))
	for _, id := range teamIDs {
		team, err := s.store.GetTeam(ctx, id)
		if err != nil {
			return QueueMatch{}, fmt.Errorf("get team %s: %w", id, err)
		}
		teams = append(teams, team.PlayerIDs)
	}
	s.shuffle(len(teams), func(i, j int) {
		teams[i], teams[j] = teams[j], teams[i]
	})

	unlock := s.locks.lock(ranking.ID)
	defer unlock()

	match, err := s.startMatch(ctx, ranking, teams, 0)
	if err != nil {
		return QueueMatch{}, err
	}
	thread, err := s.coordinator.OpenThread(ctx, match, location)
	if err != nil {
		if delErr := s.store.DeleteMatch(ctx, match.ID); delErr != nil {
			return QueueMatch{}, errors.Join(err, delErr)
		}
		return QueueMatch{}, fmt.Errorf("open thread: %w", err)
	}
	return QueueMatch{Match: match, Thread: thread}, nil
}
