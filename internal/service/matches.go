package service

import (
	"context"
	"fmt"
	"time"

	"github.com/goserg/rankings/internal/domain"
	"github.com/goserg/rankings/internal/rating"
	"github.com/goserg/rankings/internal/storage"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	opt "github.com/repeale/fp-go/option"
)

// Participant is a platform user taking part in a match.
type Participant struct {
	UserID string
	Name   string
}

func (s *Service) GetMatch(ctx context.Context, id uuid.UUID) (domain.Match, error) {
	return s.store.GetMatch(ctx, id)
}

// MatchHistory lists the player's matches, newest first.
func (s *Service) MatchHistory(ctx context.Context, playerID uuid.UUID, limit, offset int) ([]domain.Match, error) {
	return s.store.ListMatches(ctx, storage.MatchFilter{
		PlayerIDs: []uuid.UUID{playerID},
		Order:     storage.OrderTimeStartedDesc,
		Limit:     limit,
		Offset:    offset,
	})
}

// StartMatch creates an ongoing match. teams holds player ids grouped by team,
// bestOf 0 means the ranking default.
func (s *Service) StartMatch(ctx context.Context, rankingID uuid.UUID, teams [][]uuid.UUID, bestOf int) (domain.Match, error) {
	ranking, err := s.store.GetRanking(ctx, rankingID)
	if err != nil {
		return domain.Match{}, err
	}
	unlock := s.locks.lock(rankingID)
	defer unlock()

	return s.startMatch(ctx, ranking, teams, bestOf)
}

// Challenge starts a one on one match between two users.
func (s *Service) Challenge(ctx context.Context, rankingID uuid.UUID, challenger, opponent Participant, bestOf int) (domain.Match, error) {
	ranking, err := s.store.GetRanking(ctx, rankingID)
	if err != nil {
		return domain.Match{}, err
	}
	if !ranking.Matchmaking.DirectChallengeEnabled {
		return domain.Match{}, domain.NewValidationError("direct challenges are disabled in %s", ranking.Name)
	}
	if ranking.TeamsPerMatch != 2 {
		return domain.Match{}, domain.NewValidationError("direct challenges need a ranking with 2 teams per match")
	}
	if challenger.UserID == opponent.UserID {
		return domain.Match{}, domain.NewValidationError("you can't challenge yourself")
	}
	unlock := s.locks.lock(rankingID)
	defer unlock()

	a, err := s.getOrCreatePlayer(ctx, ranking, challenger.UserID, challenger.Name)
	if err != nil {
		return domain.Match{}, err
	}
	b, err := s.getOrCreatePlayer(ctx, ranking, opponent.UserID, opponent.Name)
	if err != nil {
		return domain.Match{}, err
	}
	return s.startMatch(ctx, ranking, [][]uuid.UUID{{a.ID}, {b.ID}}, bestOf)
}

func (s *Service) startMatch(ctx context.Context, ranking domain.Ranking, teams [][]uuid.UUID, bestOf int) (domain.Match, error) {
	bestOf = ranking.BestOf(bestOf)
	if err := domain.ValidateBestOf(bestOf); err != nil {
		return domain.Match{}, err
	}
	players, err := s.matchPlayers(ctx, ranking, teams)
	if err != nil {
		return domain.Match{}, err
	}
	if err := s.checkNotPlaying(ctx, ranking.ID, players, uuid.Nil); err != nil {
		return domain.Match{}, err
	}

	match := domain.Match{
		ID:          uuid.New(),
		RankingID:   ranking.ID,
		Status:      domain.MatchOngoing,
		Metadata:    domain.MatchMetadata{BestOf: bestOf},
		TimeStarted: s.now(),
	}
	for _, team := range teams {
		mt := domain.MatchTeam{}
		for _, id := range team {
			mt.Players = append(mt.Players, domain.MatchPlayer{
				PlayerID:     id,
				RatingBefore: players[id].Rating,
			})
		}
		match.Teams = append(match.Teams, mt)
	}
	match, err = s.store.CreateMatch(ctx, match)
	if err != nil {
		return domain.Match{}, fmt.Errorf("create match: %w", err)
	}
	s.log.WithFields(map[string]interface{}{
		"ranking": ranking.ID,
		"match":   match.ID,
		"best_of": bestOf,
	}).Info("match started")
	return match, nil
}

// matchPlayers checks the team shape and loads every player.
func (s *Service) matchPlayers(ctx context.Context, ranking domain.Ranking, teams [][]uuid.UUID) (map[uuid.UUID]domain.Player, error) {
	if len(teams) != ranking.TeamsPerMatch {
		return nil, domain.NewValidationError("%s needs %d teams, got %d", ranking.Name, ranking.TeamsPerMatch, len(teams))
	}
	seen := mapset.NewThreadUnsafeSet[uuid.UUID]()
	for i, team := range teams {
		if len(team) == 0 || len(team) > ranking.PlayersPerTeam {
			return nil, domain.NewValidationError("team %d must have 1 to %d players, got %d", i+1, ranking.PlayersPerTeam, len(team))
		}
		for _, id := range team {
			if !seen.Add(id) {
				return nil, domain.NewValidationError("player %s is listed more than once", id)
			}
		}
	}

	players := make(map[uuid.UUID]domain.Player, seen.Cardinality())
	for _, team := range teams {
		for _, id := range team {
			player, err := s.store.GetPlayer(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("get player %s: %w", id, err)
			}
			if player.RankingID != ranking.ID {
				return nil, domain.NewValidationError("%s is not in ranking %s", player.Name, ranking.Name)
			}
			if player.Disabled {
				return nil, domain.NewValidationError("%s is disabled", player.Name)
			}
			players[id] = player
		}
	}
	return players, nil
}

// checkNotPlaying rejects players that are already in an ongoing match other than except.
func (s *Service) checkNotPlaying(ctx context.Context, rankingID uuid.UUID, players map[uuid.UUID]domain.Player, except uuid.UUID) error {
	ids := make([]uuid.UUID, 0, len(players))
	for id := range players {
		ids = append(ids, id)
	}
	ongoing, err := s.store.ListMatches(ctx, storage.MatchFilter{
		RankingIDs: []uuid.UUID{rankingID},
		PlayerIDs:  ids,
		Status:     opt.Some(domain.MatchOngoing),
	})
	if err != nil {
		return fmt.Errorf("list ongoing matches: %w", err)
	}
	for _, m := range ongoing {
		if m.ID == except {
			continue
		}
		for _, id := range m.PlayerIDs() {
			if p, ok := players[id]; ok {
				return domain.NewCoordinationError("%s is already in a match", p.Name)
			}
		}
	}
	return nil
}

// ScoreMatch sets the outcome of a match. An ongoing match finishes at
// finishedAt (now when zero). A finished match gets its outcome replaced and
// every later match of the ranking is rescored. Canceled matches are left alone.
func (s *Service) ScoreMatch(ctx context.Context, matchID uuid.UUID, outcome []float64, finishedAt time.Time) (domain.Match, error) {
	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return domain.Match{}, err
	}
	if err := domain.ValidateOutcome(outcome, len(match.Teams)); err != nil {
		return domain.Match{}, err
	}
	ranking, err := s.store.GetRanking(ctx, match.RankingID)
	if err != nil {
		return domain.Match{}, err
	}
	unlock := s.locks.lock(ranking.ID)
	defer unlock()

	// reload under the lock
	match, err = s.store.GetMatch(ctx, matchID)
	if err != nil {
		return domain.Match{}, err
	}
	switch match.Status {
	case domain.MatchOngoing:
		return s.finishMatch(ctx, ranking, match, outcome, finishedAt)
	case domain.MatchFinished:
		match.Outcome = append([]float64(nil), outcome...)
		if err := s.store.UpdateMatch(ctx, match); err != nil {
			return domain.Match{}, fmt.Errorf("update match: %w", err)
		}
		_, err := s.rescore(ctx, ranking, opt.Some(pointOf(match)), snapshotRatings(match))
		if err != nil {
			return domain.Match{}, err
		}
		s.log.WithField("match", match.ID).Info("match outcome edited")
		return s.store.GetMatch(ctx, matchID)
	case domain.MatchCanceled:
		return match, nil
	}
	return match, nil
}

// finishMatch moves an ongoing match to Finished and applies its ratings.
// The caller holds the ranking lock.
func (s *Service) finishMatch(ctx context.Context, ranking domain.Ranking, match domain.Match, outcome []float64, finishedAt time.Time) (domain.Match, error) {
	if err := domain.ValidateOutcome(outcome, len(match.Teams)); err != nil {
		return domain.Match{}, err
	}
	if finishedAt.IsZero() {
		finishedAt = s.now()
	}
	finishedAt = finishedAt.UTC().Truncate(time.Millisecond)

	point := replayPoint{at: finishedAt, id: match.ID}
	later, err := s.finishedAfter(ctx, ranking.ID, point, nil)
	if err != nil {
		return domain.Match{}, err
	}

	var before Ratings
	if len(later) == 0 {
		before, err = s.liveRatings(ctx, match.PlayerIDs())
	} else {
		before, err = s.ratingsAt(ctx, ranking.ID, point, match.PlayerIDs())
	}
	if err != nil {
		return domain.Match{}, err
	}

	snapshots := make([]domain.PlayerSnapshot, 0, len(before))
	for i := range match.Teams {
		for j := range match.Teams[i].Players {
			p := &match.Teams[i].Players[j]
			p.RatingBefore = before[p.PlayerID]
			snapshots = append(snapshots, domain.PlayerSnapshot{PlayerID: p.PlayerID, RatingBefore: p.RatingBefore})
		}
	}
	match.Status = domain.MatchFinished
	match.Outcome = append([]float64(nil), outcome...)
	match.TimeFinished = finishedAt

	if err := s.store.UpdateMatchPlayerSnapshots(ctx, match.ID, snapshots); err != nil {
		return domain.Match{}, fmt.Errorf("update snapshots: %w", err)
	}
	if err := s.store.UpdateMatch(ctx, match); err != nil {
		return domain.Match{}, fmt.Errorf("update match: %w", err)
	}

	log := s.log.WithFields(map[string]interface{}{
		"ranking": ranking.ID,
		"match":   match.ID,
		"outcome": outcome,
	})
	if len(later) > 0 {
		log.Info("match finished before later matches, rescoring")
		if _, err := s.rescore(ctx, ranking, opt.Some(point), before); err != nil {
			return domain.Match{}, err
		}
	} else {
		after := rating.Rate(match.Outcome, match.RatingsBefore(), ranking.InitialRating, match.Metadata.BestOf)
		for i, team := range match.Teams {
			for j, p := range team.Players {
				if err := s.store.UpdatePlayerRating(ctx, p.PlayerID, after[i][j]); err != nil {
					return domain.Match{}, fmt.Errorf("update rating: %w", err)
				}
			}
		}
		if err := s.refreshLeaderboard(ctx, ranking.ID); err != nil {
			return domain.Match{}, err
		}
		log.Info("match finished")
	}
	s.archive(ctx, match)
	return match, nil
}

// CancelMatch cancels an ongoing match. Terminal matches are returned unchanged.
func (s *Service) CancelMatch(ctx context.Context, matchID uuid.UUID) (domain.Match, error) {
	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return domain.Match{}, err
	}
	unlock := s.locks.lock(match.RankingID)
	defer unlock()

	match, err = s.store.GetMatch(ctx, matchID)
	if err != nil {
		return domain.Match{}, err
	}
	if match.Status.Terminal() {
		return match, nil
	}
	return s.cancelMatch(ctx, match)
}

func (s *Service) cancelMatch(ctx context.Context, match domain.Match) (domain.Match, error) {
	match.Status = domain.MatchCanceled
	match.Outcome = nil
	match.TimeFinished = s.now()
	if err := s.store.UpdateMatch(ctx, match); err != nil {
		return domain.Match{}, fmt.Errorf("update match: %w", err)
	}
	s.log.WithField("match", match.ID).Info("match canceled")
	s.archive(ctx, match)
	return match, nil
}

func (s *Service) archive(ctx context.Context, match domain.Match) {
	if err := s.coordinator.ArchiveThread(ctx, match); err != nil {
		s.log.WithError(err).WithField("match", match.ID).Warn("can't archive match thread")
	}
}

// RevertMatch deletes a match. When it had finished, the ranking history is
// rescored as if it never happened.
func (s *Service) RevertMatch(ctx context.Context, matchID uuid.UUID) error {
	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}
	ranking, err := s.store.GetRanking(ctx, match.RankingID)
	if err != nil {
		return err
	}
	unlock := s.locks.lock(ranking.ID)
	defer unlock()

	match, err = s.store.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteMatch(ctx, matchID); err != nil {
		return fmt.Errorf("delete match: %w", err)
	}
	s.log.WithFields(map[string]interface{}{
		"match":  match.ID,
		"status": match.Status,
	}).Info("match reverted")
	if match.Status != domain.MatchFinished {
		return nil
	}
	_, err = s.rescore(ctx, ranking, opt.Some(pointOf(match)), snapshotRatings(match))
	return err
}

// SetMatchTeams replaces the players of a match. Votes are reset. For a
// finished match the new players are snapshotted at the match time and the
// ranking is rescored from there.
func (s *Service) SetMatchTeams(ctx context.Context, matchID uuid.UUID, teams [][]uuid.UUID) (domain.Match, error) {
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
	players, err := s.matchPlayers(ctx, ranking, teams)
	if err != nil {
		return domain.Match{}, err
	}
	if match.Status == domain.MatchFinished {
		if err := domain.ValidateOutcome(match.Outcome, len(teams)); err != nil {
			return domain.Match{}, err
		}
	}

	var before Ratings
	switch match.Status {
	case domain.MatchOngoing:
		if err := s.checkNotPlaying(ctx, ranking.ID, players, match.ID); err != nil {
			return domain.Match{}, err
		}
		before = make(Ratings, len(players))
		for id, p := range players {
			before[id] = p.Rating
		}
	case domain.MatchFinished:
		before = snapshotRatings(match)
		var missing []uuid.UUID
		for id := range players {
			if _, ok := before[id]; !ok {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			at, err := s.ratingsAt(ctx, ranking.ID, pointOf(match), missing)
			if err != nil {
				return domain.Match{}, err
			}
			for id, r := range at {
				before[id] = r
			}
		}
	case domain.MatchCanceled:
		before = make(Ratings, len(players))
		for id, p := range players {
			before[id] = p.Rating
		}
	}

	replaced := make([]domain.MatchTeam, 0, len(teams))
	for _, team := range teams {
		mt := domain.MatchTeam{}
		for _, id := range team {
			mt.Players = append(mt.Players, domain.MatchPlayer{PlayerID: id, RatingBefore: before[id]})
		}
		replaced = append(replaced, mt)
	}
	if err := s.store.ReplaceMatchTeams(ctx, match.ID, replaced); err != nil {
		return domain.Match{}, fmt.Errorf("replace teams: %w", err)
	}
	s.log.WithField("match", match.ID).Info("match teams replaced")

	if match.Status == domain.MatchFinished {
		// removed players keep their pre-match rating as the seed
		if _, err := s.rescore(ctx, ranking, opt.Some(pointOf(match)), before); err != nil {
			return domain.Match{}, err
		}
	}
	return s.store.GetMatch(ctx, match.ID)
}

func snapshotRatings(match domain.Match) Ratings {
	ratings := make(Ratings)
	for _, team := range match.Teams {
		for _, p := range team.Players {
			ratings[p.PlayerID] = p.RatingBefore
		}
	}
	return ratings
}

func (s *Service) liveRatings(ctx context.Context, playerIDs []uuid.UUID) (Ratings, error) {
	ratings := make(Ratings, len(playerIDs))
	for _, id := range playerIDs {
		player, err := s.store.GetPlayer(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get player %s: %w", id, err)
		}
		ratings[id] = player.Rating
	}
	return ratings, nil
}

// ratingsAt reconstructs the players' ratings at p in the replay order. A
// player's first finished match after p still holds that value as its
// snapshot. Players without such a match haven't changed since.
func (s *Service) ratingsAt(ctx context.Context, rankingID uuid.UUID, p replayPoint, playerIDs []uuid.UUID) (Ratings, error) {
	later, err := s.finishedAfter(ctx, rankingID, p, playerIDs)
	if err != nil {
		return nil, err
	}
	wanted := mapset.NewThreadUnsafeSet(playerIDs...)
	ratings := make(Ratings, len(playerIDs))
	for _, m := range later {
		for _, team := range m.Teams {
			for _, p := range team.Players {
				if _, ok := ratings[p.PlayerID]; !ok && wanted.Contains(p.PlayerID) {
					ratings[p.PlayerID] = p.RatingBefore
				}
			}
		}
	}
	var missing []uuid.UUID
	for _, id := range playerIDs {
		if _, ok := ratings[id]; !ok {
			missing = append(missing, id)
		}
	}
	live, err := s.liveRatings(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, r := range live {
		ratings[id] = r
	}
	return ratings, nil
}
