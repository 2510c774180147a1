// Package storagetest holds behaviour checks shared by every storage backend.
package storagetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goserg/rankings/internal/domain"
	"github.com/goserg/rankings/internal/storage"

	"github.com/google/uuid"
	opt "github.com/repeale/fp-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func Run(t *testing.T, newStorage func(t *testing.T) storage.Storage) {
	t.Run("rankings", func(t *testing.T) { testRankings(t, newStorage(t)) })
	t.Run("players", func(t *testing.T) { testPlayers(t, newStorage(t)) })
	t.Run("matches", func(t *testing.T) { testMatches(t, newStorage(t)) })
	t.Run("list matches", func(t *testing.T) { testListMatches(t, newStorage(t)) })
	t.Run("long history", func(t *testing.T) { testLongHistory(t, newStorage(t)) })
	t.Run("teams", func(t *testing.T) { testTeams(t, newStorage(t)) })
	t.Run("queue", func(t *testing.T) { RunQueue(t, newStorage(t)) })
}

// RunQueue checks a queue backend on its own.
func RunQueue(t *testing.T, q storage.QueueStorage) {
	t.Run("order and idempotent enqueue", func(t *testing.T) { testQueueOrder(t, q) })
	t.Run("concurrent pops", func(t *testing.T) { testQueueConcurrentPops(t, q) })
}

func newRanking(t *testing.T, s storage.Storage) domain.Ranking {
	t.Helper()
	r, err := s.CreateRanking(context.Background(), domain.Ranking{
		ID:             uuid.New(),
		Name:           "ranked 1v1",
		TeamsPerMatch:  2,
		PlayersPerTeam: 1,
		InitialRating:  domain.Rating{Mu: 50, Sigma: 50.0 / 3},
		Matchmaking: domain.MatchmakingSettings{
			QueueEnabled:  true,
			DefaultBestOf: 3,
			RematchWindow: 10 * time.Minute,
		},
		CreatedAt: base,
	})
	require.NoError(t, err)
	return r
}

func newPlayer(t *testing.T, s storage.Storage, rankingID uuid.UUID, user string) domain.Player {
	t.Helper()
	p, err := s.CreatePlayer(context.Background(), domain.Player{
		ID:        uuid.New(),
		RankingID: rankingID,
		UserID:    user,
		Name:      user,
		Rating:    domain.Rating{Mu: 50, Sigma: 50.0 / 3},
		CreatedAt: base,
	})
	require.NoError(t, err)
	return p
}

func newMatch(t *testing.T, s storage.Storage, rankingID uuid.UUID, finished time.Time, players ...domain.Player) domain.Match {
	t.Helper()
	m := domain.Match{
		ID:          uuid.New(),
		RankingID:   rankingID,
		Status:      domain.MatchOngoing,
		Metadata:    domain.MatchMetadata{BestOf: 1},
		TimeStarted: base,
	}
	for _, p := range players {
		m.Teams = append(m.Teams, domain.MatchTeam{
			Players: []domain.MatchPlayer{{PlayerID: p.ID, RatingBefore: p.Rating}},
		})
	}
	if !finished.IsZero() {
		m.TimeStarted = finished.Add(-time.Minute)
		m.Status = domain.MatchFinished
		m.TimeFinished = finished
		m.Outcome = make([]float64, len(players))
		m.Outcome[0] = 1
	}
	created, err := s.CreateMatch(context.Background(), m)
	require.NoError(t, err)
	return created
}

func testRankings(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	r := newRanking(t, s)

	got, err := s.GetRanking(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Name, got.Name)
	assert.Equal(t, r.TeamsPerMatch, got.TeamsPerMatch)
	assert.Equal(t, r.PlayersPerTeam, got.PlayersPerTeam)
	assert.InDelta(t, r.InitialRating.Sigma, got.InitialRating.Sigma, 1e-9)
	assert.Equal(t, r.Matchmaking, got.Matchmaking)

	list, err := s.ListRankings(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = s.GetRanking(ctx, uuid.New())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testPlayers(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	r := newRanking(t, s)
	p := newPlayer(t, s, r.ID, "user-1")
	newPlayer(t, s, r.ID, "user-2")

	got, err := s.GetPlayerByUser(ctx, r.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = s.GetPlayerByUser(ctx, uuid.New(), "user-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.UpdatePlayerRating(ctx, p.ID, domain.Rating{Mu: 61, Sigma: 7}))
	require.NoError(t, s.SetPlayerDisabled(ctx, p.ID, true))
	got, err = s.GetPlayer(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Rating{Mu: 61, Sigma: 7}, got.Rating)
	assert.True(t, got.Disabled)

	players, err := s.ListPlayers(ctx, r.ID)
	require.NoError(t, err)
	assert.Len(t, players, 2)

	assert.ErrorIs(t, s.UpdatePlayerRating(ctx, uuid.New(), domain.Rating{}), storage.ErrNotFound)
}

func testMatches(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	r := newRanking(t, s)
	a := newPlayer(t, s, r.ID, "a")
	b := newPlayer(t, s, r.ID, "b")
	c := newPlayer(t, s, r.ID, "c")

	m := newMatch(t, s, r.ID, time.Time{}, a, b)
	got, err := s.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchOngoing, got.Status)
	assert.Nil(t, got.Outcome)
	assert.True(t, got.TimeFinished.IsZero())
	assert.Equal(t, [][]uuid.UUID{{a.ID}, {b.ID}}, got.TeamPlayerIDs())

	got.Teams[0].Vote = domain.VoteWin
	got.Teams[1].Vote = domain.VoteLoss
	got.Teams[1].Rematch = true
	got.Status = domain.MatchFinished
	got.Outcome = []float64{1, 0}
	got.TimeFinished = base
	require.NoError(t, s.UpdateMatch(ctx, got))

	got, err = s.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchFinished, got.Status)
	assert.Equal(t, []float64{1, 0}, got.Outcome)
	assert.True(t, base.Equal(got.TimeFinished))
	assert.Equal(t, domain.VoteWin, got.Teams[0].Vote)
	assert.Equal(t, domain.VoteLoss, got.Teams[1].Vote)
	assert.True(t, got.Teams[1].Rematch)

	snapshot := domain.Rating{Mu: 42, Sigma: 3}
	require.NoError(t, s.UpdateMatchPlayerSnapshots(ctx, m.ID, []domain.PlayerSnapshot{
		{PlayerID: b.ID, RatingBefore: snapshot},
	}))
	got, err = s.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, snapshot, got.Teams[1].Players[0].RatingBefore)
	assert.Equal(t, a.Rating, got.Teams[0].Players[0].RatingBefore)

	require.NoError(t, s.ReplaceMatchTeams(ctx, m.ID, []domain.MatchTeam{
		{Players: []domain.MatchPlayer{{PlayerID: a.ID, RatingBefore: a.Rating}}},
		{Players: []domain.MatchPlayer{{PlayerID: c.ID, RatingBefore: c.Rating}}},
	}))
	got, err = s.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, [][]uuid.UUID{{a.ID}, {c.ID}}, got.TeamPlayerIDs())
	assert.Equal(t, domain.VoteUndecided, got.Teams[0].Vote)

	require.NoError(t, s.DeleteMatch(ctx, m.ID))
	_, err = s.GetMatch(ctx, m.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testListMatches(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	r := newRanking(t, s)
	other := newRanking(t, s)
	a := newPlayer(t, s, r.ID, "a")
	b := newPlayer(t, s, r.ID, "b")
	c := newPlayer(t, s, r.ID, "c")
	x := newPlayer(t, s, other.ID, "x")
	y := newPlayer(t, s, other.ID, "y")

	m3 := newMatch(t, s, r.ID, base.Add(3*time.Hour), a, c)
	m1 := newMatch(t, s, r.ID, base.Add(1*time.Hour), a, b)
	m2 := newMatch(t, s, r.ID, base.Add(2*time.Hour), b, c)
	ongoing := newMatch(t, s, r.ID, time.Time{}, b, c)
	newMatch(t, s, other.ID, base.Add(time.Hour), x, y)

	finished, err := s.ListMatches(ctx, storage.MatchFilter{
		RankingIDs: []uuid.UUID{r.ID},
		Status:     opt.Some(domain.MatchFinished),
		Order:      storage.OrderTimeFinishedAsc,
	})
	require.NoError(t, err)
	require.Len(t, finished, 3)
	assert.Equal(t, []uuid.UUID{m1.ID, m2.ID, m3.ID}, matchIDs(finished))

	since, err := s.ListMatches(ctx, storage.MatchFilter{
		RankingIDs:        []uuid.UUID{r.ID},
		Status:            opt.Some(domain.MatchFinished),
		FinishedOnOrAfter: opt.Some(base.Add(2 * time.Hour)),
		Order:             storage.OrderTimeFinishedAsc,
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{m2.ID, m3.ID}, matchIDs(since))

	withA, err := s.ListMatches(ctx, storage.MatchFilter{
		RankingIDs: []uuid.UUID{r.ID},
		PlayerIDs:  []uuid.UUID{a.ID},
		Order:      storage.OrderTimeFinishedAsc,
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{m1.ID, m3.ID}, matchIDs(withA))

	ongoingOnly, err := s.ListMatches(ctx, storage.MatchFilter{
		PlayerIDs: []uuid.UUID{c.ID},
		Status:    opt.Some(domain.MatchOngoing),
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ongoing.ID}, matchIDs(ongoingOnly))

	page, err := s.ListMatches(ctx, storage.MatchFilter{
		RankingIDs: []uuid.UUID{r.ID},
		Status:     opt.Some(domain.MatchFinished),
		Order:      storage.OrderTimeFinishedAsc,
		Limit:      1,
		Offset:     1,
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{m2.ID}, matchIDs(page))

	latest, err := s.ListMatches(ctx, storage.MatchFilter{
		RankingIDs: []uuid.UUID{r.ID},
		Order:      storage.OrderTimeStartedDesc,
		Limit:      1,
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{m3.ID}, matchIDs(latest))

	// a match shared by both players is listed once
	withAB, err := s.ListMatches(ctx, storage.MatchFilter{
		PlayerIDs: []uuid.UUID{a.ID, b.ID},
		Status:    opt.Some(domain.MatchFinished),
		Order:     storage.OrderTimeFinishedAsc,
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{m1.ID, m2.ID, m3.ID}, matchIDs(withAB))

	nobody, err := s.ListMatches(ctx, storage.MatchFilter{PlayerIDs: []uuid.UUID{uuid.New()}})
	require.NoError(t, err)
	assert.Empty(t, nobody)
}

func testLongHistory(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	r := newRanking(t, s)
	a := newPlayer(t, s, r.ID, "a")
	b := newPlayer(t, s, r.ID, "b")

	const played = 1201
	for i := 0; i < played; i++ {
		newMatch(t, s, r.ID, base.Add(time.Duration(i+1)*time.Minute), a, b)
	}
	ongoing := newMatch(t, s, r.ID, time.Time{}, b, a)

	all, err := s.ListMatches(ctx, storage.MatchFilter{
		PlayerIDs: []uuid.UUID{a.ID},
		Status:    opt.Some(domain.MatchFinished),
		Order:     storage.OrderTimeFinishedAsc,
	})
	require.NoError(t, err)
	require.Len(t, all, played)
	for _, m := range all {
		require.Equal(t, [][]uuid.UUID{{a.ID}, {b.ID}}, m.TeamPlayerIDs())
	}

	current, err := s.ListMatches(ctx, storage.MatchFilter{
		RankingIDs: []uuid.UUID{r.ID},
		PlayerIDs:  []uuid.UUID{a.ID},
		Status:     opt.Some(domain.MatchOngoing),
		Limit:      1,
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ongoing.ID}, matchIDs(current))
}

func testTeams(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	r := newRanking(t, s)
	a := newPlayer(t, s, r.ID, "a")
	b := newPlayer(t, s, r.ID, "b")

	solo, err := s.CreateTeam(ctx, domain.Team{ID: uuid.New(), RankingID: r.ID, PlayerIDs: []uuid.UUID{a.ID}, CreatedAt: base})
	require.NoError(t, err)
	duo, err := s.CreateTeam(ctx, domain.Team{ID: uuid.New(), RankingID: r.ID, PlayerIDs: []uuid.UUID{a.ID, b.ID}, CreatedAt: base.Add(time.Second)})
	require.NoError(t, err)

	got, err := s.GetTeam(ctx, duo.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID}, got.PlayerIDs)

	teamsA, err := s.ListTeamsForPlayer(ctx, r.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{solo.ID, duo.ID}, teamIDs(teamsA))

	teamsB, err := s.ListTeamsForPlayer(ctx, r.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{duo.ID}, teamIDs(teamsB))

	_, err = s.GetTeam(ctx, uuid.New())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testQueueOrder(t *testing.T, q storage.QueueStorage) {
	ctx := context.Background()
	ranking := uuid.New()
	t1, t2, t3 := uuid.New(), uuid.New(), uuid.New()

	for _, id := range []uuid.UUID{t1, t2, t3} {
		added, err := q.EnqueueTeam(ctx, ranking, id)
		require.NoError(t, err)
		assert.True(t, added)
	}
	added, err := q.EnqueueTeam(ctx, ranking, t2)
	require.NoError(t, err)
	assert.False(t, added)

	queued, err := q.ListQueuedTeams(ctx, ranking)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{t1, t2, t3}, queued)

	popped, err := q.PopQueueTeams(ctx, ranking, 4)
	require.NoError(t, err)
	assert.Empty(t, popped)

	popped, err = q.PopQueueTeams(ctx, ranking, 2)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{t1, t2}, popped)

	require.NoError(t, q.PushQueueTeams(ctx, ranking, popped))
	queued, err = q.ListQueuedTeams(ctx, ranking)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{t1, t2, t3}, queued)

	removed, err := q.DequeueTeams(ctx, ranking, []uuid.UUID{t2, uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	queued, err = q.ListQueuedTeams(ctx, ranking)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{t1, t3}, queued)

	added, err = q.EnqueueTeam(ctx, ranking, t2)
	require.NoError(t, err)
	assert.True(t, added)
}

func testQueueConcurrentPops(t *testing.T, q storage.QueueStorage) {
	ctx := context.Background()
	ranking := uuid.New()
	for i := 0; i < 2; i++ {
		_, err := q.EnqueueTeam(ctx, ranking, uuid.New())
		require.NoError(t, err)
	}

	const attempts = 8
	results := make([][]uuid.UUID, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			popped, err := q.PopQueueTeams(ctx, ranking, 2)
			assert.NoError(t, err)
			results[i] = popped
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, popped := range results {
		switch len(popped) {
		case 2:
			succeeded++
		case 0:
		default:
			t.Errorf("partial pop of %d teams", len(popped))
		}
	}
	assert.Equal(t, 1, succeeded)

	queued, err := q.ListQueuedTeams(ctx, ranking)
	require.NoError(t, err)
	assert.Empty(t, queued)
}

func matchIDs(matches []domain.Match) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
	}
	return ids
}

func teamIDs(teams []domain.Team) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(teams))
	for _, team := range teams {
		ids = append(ids, team.ID)
	}
	return ids
}
