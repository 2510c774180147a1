package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/goserg/rankings/internal/domain"
	"github.com/goserg/rankings/internal/rating"
	"github.com/goserg/rankings/internal/storage"

	"github.com/google/uuid"
	opt "github.com/repeale/fp-go/option"
	"golang.org/x/sync/errgroup"
)

// Ratings maps player ids to ratings.
type Ratings map[uuid.UUID]domain.Rating

func (r Ratings) Clone() Ratings {
	c := make(Ratings, len(r))
	for id, rating := range r {
		c[id] = rating
	}
	return c
}

// Rescore replays every finished match of the ranking from since onwards
// (everything when None) in finish order. seed overrides the rating a player
// enters their first replayed match with. Returns the ratings the players
// ended up with, which are also written as their live ratings.
func (s *Service) Rescore(ctx context.Context, rankingID uuid.UUID, since opt.Option[time.Time], seed Ratings) (Ratings, error) {
	ranking, err := s.store.GetRanking(ctx, rankingID)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.lock(rankingID)
	defer unlock()

	from := opt.None[replayPoint]()
	if opt.IsSome(since) {
		from = opt.Some(replayPoint{at: since.Value})
	}
	return s.rescore(ctx, ranking, from, seed)
}

// replayPoint is a place in the replay order: finish time, then match id.
type replayPoint struct {
	at time.Time
	id uuid.UUID
}

func pointOf(match domain.Match) replayPoint {
	return replayPoint{at: match.TimeFinished, id: match.ID}
}

// compare is negative when match replays before p, zero when it is p.
func (p replayPoint) compare(match domain.Match) int {
	if c := match.TimeFinished.Compare(p.at); c != 0 {
		return c
	}
	return strings.Compare(match.ID.String(), p.id.String())
}

// rescore is the cascade itself. It replays from from onwards, matches
// finished in the same millisecond but ordered before it are left alone.
// The caller holds the ranking lock.
func (s *Service) rescore(ctx context.Context, ranking domain.Ranking, from opt.Option[replayPoint], seed Ratings) (Ratings, error) {
	log := s.log.WithField("ranking", ranking.ID)
	current := seed.Clone()

	filter := finishedFilter(ranking.ID)
	if opt.IsSome(from) {
		filter.FinishedOnOrAfter = opt.Some(from.Value.at)
	}
	matches, err := s.store.ListMatches(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	if opt.IsSome(from) {
		matches = slices.DeleteFunc(matches, func(m domain.Match) bool {
			return from.Value.compare(m) < 0
		})
	}

	corrected := 0
	for _, match := range matches {
		if match.Outcome == nil || !rateable(match) {
			log.WithField("match", match.ID).Warn("skipping finished match without a usable outcome")
			continue
		}

		var snapshots []domain.PlayerSnapshot
		for i := range match.Teams {
			for j := range match.Teams[i].Players {
				p := &match.Teams[i].Players[j]
				r, ok := current[p.PlayerID]
				if !ok || r == p.RatingBefore {
					continue
				}
				p.RatingBefore = r
				snapshots = append(snapshots, domain.PlayerSnapshot{PlayerID: p.PlayerID, RatingBefore: r})
			}
		}
		// written before scoring so an interrupted run still leaves correct bases
		if len(snapshots) > 0 {
			if err := s.store.UpdateMatchPlayerSnapshots(ctx, match.ID, snapshots); err != nil {
				return nil, fmt.Errorf("update snapshots of %s: %w", match.ID, err)
			}
			corrected++
		}

		after := rating.Rate(match.Outcome, match.RatingsBefore(), ranking.InitialRating, match.Metadata.BestOf)
		for i, team := range match.Teams {
			for j, p := range team.Players {
				current[p.PlayerID] = after[i][j]
			}
		}
	}

	if err := s.flushRatings(ctx, current); err != nil {
		return nil, err
	}
	if err := s.refreshLeaderboard(ctx, ranking.ID); err != nil {
		return nil, err
	}
	log.WithFields(map[string]interface{}{
		"matches":   len(matches),
		"corrected": corrected,
		"players":   len(current),
	}).Info("rescore done")
	return current, nil
}

// finishedAfter lists the finished matches replayed strictly after p,
// only those of playerIDs when given.
func (s *Service) finishedAfter(ctx context.Context, rankingID uuid.UUID, p replayPoint, playerIDs []uuid.UUID) ([]domain.Match, error) {
	filter := finishedFilter(rankingID)
	filter.PlayerIDs = playerIDs
	filter.FinishedOnOrAfter = opt.Some(p.at)
	matches, err := s.store.ListMatches(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list later matches: %w", err)
	}
	return slices.DeleteFunc(matches, func(m domain.Match) bool {
		return p.compare(m) <= 0
	}), nil
}

// finishedFilter selects a ranking's finished matches in replay order.
func finishedFilter(rankingID uuid.UUID) storage.MatchFilter {
	return storage.MatchFilter{
		RankingIDs: []uuid.UUID{rankingID},
		Status:     opt.Some(domain.MatchFinished),
		Order:      storage.OrderTimeFinishedAsc,
	}
}

func rateable(match domain.Match) bool {
	if domain.ValidateOutcome(match.Outcome, len(match.Teams)) != nil {
		return false
	}
	for _, team := range match.Teams {
		if len(team.Players) == 0 {
			return false
		}
	}
	return true
}

func (s *Service) flushRatings(ctx context.Context, ratings Ratings) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.flushLimit)
	for id, r := range ratings {
		id, r := id, r
		g.Go(func() error {
			if err := s.store.UpdatePlayerRating(gctx, id, r); err != nil {
				return fmt.Errorf("update rating of %s: %w", id, err)
			}
			return nil
		})
	}
	return g.Wait()
}
