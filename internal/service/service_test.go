package service

import (
	"context"
	"io"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/goserg/rankings/internal/domain"
	"github.com/goserg/rankings/internal/storage/mem"

	"github.com/google/uuid"
	opt "github.com/repeale/fp-go/option"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingCoordinator struct {
	mu       sync.Mutex
	opened   []uuid.UUID
	archived []uuid.UUID
	openErr  error
}

func (c *recordingCoordinator) OpenThread(_ context.Context, match domain.Match, location string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openErr != nil {
		return "", c.openErr
	}
	c.opened = append(c.opened, match.ID)
	return location + "/" + match.ID.String(), nil
}

func (c *recordingCoordinator) ArchiveThread(_ context.Context, match domain.Match) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.archived = append(c.archived, match.ID)
	return nil
}

type fixture struct {
	svc         *Service
	store       *mem.Storage
	clock       *fakeClock
	coordinator *recordingCoordinator
	ranking     domain.Ranking
}

func newFixture(t *testing.T, opts ...func(*domain.Ranking)) *fixture {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)
	f := &fixture{
		store:       mem.New(),
		clock:       &fakeClock{t: base},
		coordinator: &recordingCoordinator{},
	}
	f.svc = New(l, f.store,
		WithClock(f.clock.Now),
		WithCoordinator(f.coordinator),
		WithShuffle(func(int, func(i, j int)) {}),
		WithFlushConcurrency(2),
	)
	ranking := domain.Ranking{
		Name:           "duel",
		TeamsPerMatch:  2,
		PlayersPerTeam: 1,
		InitialRating:  domain.Rating{Mu: 50, Sigma: 50.0 / 3},
		Matchmaking: domain.MatchmakingSettings{
			QueueEnabled:           true,
			DirectChallengeEnabled: true,
			DefaultBestOf:          1,
			RematchWindow:          10 * time.Minute,
		},
	}
	for _, opt := range opts {
		opt(&ranking)
	}
	var err error
	f.ranking, err = f.svc.CreateRanking(context.Background(), ranking)
	require.NoError(t, err)
	return f
}

func (f *fixture) player(t *testing.T, user string) domain.Player {
	t.Helper()
	p, err := f.svc.GetOrCreatePlayer(context.Background(), f.ranking.ID, user, user)
	require.NoError(t, err)
	return p
}

func (f *fixture) reload(t *testing.T, p domain.Player) domain.Player {
	t.Helper()
	got, err := f.store.GetPlayer(context.Background(), p.ID)
	require.NoError(t, err)
	return got
}

// play records a finished 1v1 where winner beat loser at the given time.
func (f *fixture) play(t *testing.T, winner, loser domain.Player, at time.Time) domain.Match {
	t.Helper()
	ctx := context.Background()
	m, err := f.svc.StartMatch(ctx, f.ranking.ID, [][]uuid.UUID{{winner.ID}, {loser.ID}}, 0)
	require.NoError(t, err)
	m, err = f.svc.ScoreMatch(ctx, m.ID, []float64{1, 0}, at)
	require.NoError(t, err)
	require.Equal(t, domain.MatchFinished, m.Status)
	return m
}

// ratingsByUser keys live ratings by user id so separate fixtures can be compared.
func (f *fixture) ratingsByUser(t *testing.T) map[string]domain.Rating {
	t.Helper()
	players, err := f.store.ListPlayers(context.Background(), f.ranking.ID)
	require.NoError(t, err)
	ratings := make(map[string]domain.Rating, len(players))
	for _, p := range players {
		ratings[p.UserID] = p.Rating
	}
	return ratings
}

func assertSameRatings(t *testing.T, want, got map[string]domain.Rating) {
	t.Helper()
	require.Equal(t, len(want), len(got))
	for user, w := range want {
		g, ok := got[user]
		require.True(t, ok, user)
		assert.InDelta(t, w.Mu, g.Mu, 1e-9, "%s mu", user)
		assert.InDelta(t, w.Sigma, g.Sigma, 1e-9, "%s sigma", user)
	}
}

func TestExampleScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.svc.Challenge(ctx, f.ranking.ID, Participant{UserID: "a", Name: "Alice"}, Participant{UserID: "b", Name: "Bob"}, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchOngoing, m.Status)
	assert.Equal(t, 1, m.Metadata.BestOf)

	m, err = f.svc.CastVote(ctx, m.ID, "a", domain.VoteWin)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchOngoing, m.Status)

	m, err = f.svc.CastVote(ctx, m.ID, "b", domain.VoteLoss)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchFinished, m.Status)
	assert.Equal(t, []float64{1, 0}, m.Outcome)
	assert.Equal(t, base, m.TimeFinished)

	a, err := f.store.GetPlayerByUser(ctx, f.ranking.ID, "a")
	require.NoError(t, err)
	b, err := f.store.GetPlayerByUser(ctx, f.ranking.ID, "b")
	require.NoError(t, err)

	assert.Greater(t, a.Rating.Mu, 50.0)
	assert.Less(t, b.Rating.Mu, 50.0)
	assert.InDelta(t, a.Rating.Mu-50, 50-b.Rating.Mu, 1e-9)
	assert.Less(t, a.Rating.Sigma, 50.0/3)
	assert.Less(t, b.Rating.Sigma, 50.0/3)

	stored, err := f.store.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	for _, team := range stored.Teams {
		assert.Equal(t, f.ranking.InitialRating, team.Players[0].RatingBefore)
	}
	assert.Equal(t, []uuid.UUID{m.ID}, f.coordinator.archived)

	board, err := f.svc.Leaderboard(ctx, f.ranking.ID)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "Alice", board[0].Name)
	assert.Equal(t, 1, board[0].Rank)

	entry, err := f.svc.LeaderboardPlayer(ctx, f.ranking.ID, "BOB")
	require.NoError(t, err)
	assert.Equal(t, 2, entry.Rank)
}

func TestCastVote(t *testing.T) {
	type vote struct {
		user string
		vote domain.Vote
	}
	tests := []struct {
		name        string
		votes       []vote
		wantStatus  domain.MatchStatus
		wantOutcome []float64
		wantVotes   []domain.Vote
	}{
		{
			name:        "win and loss finish",
			votes:       []vote{{"a", domain.VoteLoss}, {"b", domain.VoteWin}},
			wantStatus:  domain.MatchFinished,
			wantOutcome: []float64{0, 1},
			wantVotes:   []domain.Vote{domain.VoteLoss, domain.VoteWin},
		},
		{
			name:       "two wins stay ongoing",
			votes:      []vote{{"a", domain.VoteWin}, {"b", domain.VoteWin}},
			wantStatus: domain.MatchOngoing,
			wantVotes:  []domain.Vote{domain.VoteWin, domain.VoteWin},
		},
		{
			name:       "both cancel",
			votes:      []vote{{"a", domain.VoteCancel}, {"b", domain.VoteCancel}},
			wantStatus: domain.MatchCanceled,
			wantVotes:  []domain.Vote{domain.VoteCancel, domain.VoteCancel},
		},
		{
			name:        "both draw",
			votes:       []vote{{"a", domain.VoteDraw}, {"b", domain.VoteDraw}},
			wantStatus:  domain.MatchFinished,
			wantOutcome: []float64{0.5, 0.5},
			wantVotes:   []domain.Vote{domain.VoteDraw, domain.VoteDraw},
		},
		{
			name:       "same vote twice clears it",
			votes:      []vote{{"a", domain.VoteWin}, {"a", domain.VoteWin}, {"b", domain.VoteLoss}},
			wantStatus: domain.MatchOngoing,
			wantVotes:  []domain.Vote{domain.VoteUndecided, domain.VoteLoss},
		},
		{
			name:        "changed vote replaces",
			votes:       []vote{{"a", domain.VoteLoss}, {"a", domain.VoteWin}, {"b", domain.VoteLoss}},
			wantStatus:  domain.MatchFinished,
			wantOutcome: []float64{1, 0},
			wantVotes:   []domain.Vote{domain.VoteWin, domain.VoteLoss},
		},
		{
			name:        "votes after finish are ignored",
			votes:       []vote{{"a", domain.VoteWin}, {"b", domain.VoteLoss}, {"b", domain.VoteCancel}},
			wantStatus:  domain.MatchFinished,
			wantOutcome: []float64{1, 0},
			wantVotes:   []domain.Vote{domain.VoteWin, domain.VoteLoss},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			a, b := f.player(t, "a"), f.player(t, "b")
			m, err := f.svc.StartMatch(ctx, f.ranking.ID, [][]uuid.UUID{{a.ID}, {b.ID}}, 0)
			require.NoError(t, err)

			for _, v := range tt.votes {
				_, err := f.svc.CastVote(ctx, m.ID, v.user, v.vote)
				require.NoError(t, err)
			}
			got, err := f.store.GetMatch(ctx, m.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantOutcome, got.Outcome)
			assert.Equal(t, tt.wantVotes, []domain.Vote{got.Teams[0].Vote, got.Teams[1].Vote})

			rated := f.reload(t, a).Rating != f.ranking.InitialRating
			assert.Equal(t, tt.wantStatus == domain.MatchFinished, rated)
		})
	}
}

func TestCastVoteRejectsOutsiders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.player(t, "a"), f.player(t, "b")
	f.player(t, "c")
	m, err := f.svc.StartMatch(ctx, f.ranking.ID, [][]uuid.UUID{{a.ID}, {b.ID}}, 0)
	require.NoError(t, err)

	_, err = f.svc.CastVote(ctx, m.ID, "c", domain.VoteWin)
	assert.ErrorIs(t, err, domain.ErrCoordination)
	_, err = f.svc.CastVote(ctx, m.ID, "stranger", domain.VoteWin)
	assert.ErrorIs(t, err, domain.ErrCoordination)
	_, err = f.svc.CastVote(ctx, m.ID, "a", domain.Vote(42))
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, err := f.store.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VoteUndecided, got.Teams[0].Vote)
	assert.Equal(t, domain.VoteUndecided, got.Teams[1].Vote)
}

func TestStartMatchValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, c := f.player(t, "a"), f.player(t, "b"), f.player(t, "c")
	disabled := f.player(t, "disabled")
	_, err := f.svc.SetPlayerDisabled(ctx, disabled.ID, true)
	require.NoError(t, err)

	other, err := f.svc.CreateRanking(ctx, domain.Ranking{
		Name:           "other",
		TeamsPerMatch:  2,
		PlayersPerTeam: 1,
		InitialRating:  domain.Rating{Mu: 25, Sigma: 25.0 / 3},
	})
	require.NoError(t, err)
	foreign, err := f.svc.GetOrCreatePlayer(ctx, other.ID, "x", "x")
	require.NoError(t, err)

	tests := []struct {
		name    string
		teams   [][]uuid.UUID
		bestOf  int
		wantErr error
	}{
		{name: "one team", teams: [][]uuid.UUID{{a.ID}}, wantErr: domain.ErrValidation},
		{name: "empty team", teams: [][]uuid.UUID{{a.ID}, {}}, wantErr: domain.ErrValidation},
		{name: "team too big", teams: [][]uuid.UUID{{a.ID, c.ID}, {b.ID}}, wantErr: domain.ErrValidation},
		{name: "duplicate player", teams: [][]uuid.UUID{{a.ID}, {a.ID}}, wantErr: domain.ErrValidation},
		{name: "foreign player", teams: [][]uuid.UUID{{a.ID}, {foreign.ID}}, wantErr: domain.ErrValidation},
		{name: "disabled player", teams: [][]uuid.UUID{{a.ID}, {disabled.ID}}, wantErr: domain.ErrValidation},
		{name: "even best of", teams: [][]uuid.UUID{{a.ID}, {b.ID}}, bestOf: 2, wantErr: domain.ErrValidation},
		{name: "negative best of", teams: [][]uuid.UUID{{a.ID}, {b.ID}}, bestOf: -3, wantErr: domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.StartMatch(ctx, f.ranking.ID, tt.teams, tt.bestOf)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	m, err := f.svc.StartMatch(ctx, f.ranking.ID, [][]uuid.UUID{{a.ID}, {b.ID}}, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Metadata.BestOf)

	_, err = f.svc.StartMatch(ctx, f.ranking.ID, [][]uuid.UUID{{c.ID}, {b.ID}}, 0)
	assert.ErrorIs(t, err, domain.ErrCoordination)
}

func TestScoreMatchRejectsBadOutcome(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.player(t, "a"), f.player(t, "b")
	m, err := f.svc.StartMatch(ctx, f.ranking.ID, [][]uuid.UUID{{a.ID}, {b.ID}}, 0)
	require.NoError(t, err)

	tests := []struct {
		name    string
		outcome []float64
	}{
		{name: "too short", outcome: []float64{1}},
		{name: "too long", outcome: []float64{1, 0, 0}},
		{name: "nan", outcome: []float64{math.NaN(), 0}},
		{name: "inf", outcome: []float64{math.Inf(1), 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.ScoreMatch(ctx, m.ID, tt.outcome, time.Time{})
			assert.ErrorIs(t, err, domain.ErrValidation)

			got, err := f.store.GetMatch(ctx, m.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.MatchOngoing, got.Status)
			assert.Equal(t, f.ranking.InitialRating, f.reload(t, a).Rating)
		})
	}
}

func TestCancelMatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.player(t, "a"), f.player(t, "b")
	m, err := f.svc.StartMatch(ctx, f.ranking.ID, [][]uuid.UUID{{a.ID}, {b.ID}}, 0)
	require.NoError(t, err)

	m, err = f.svc.CancelMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchCanceled, m.Status)
	assert.Nil(t, m.Outcome)
	assert.Equal(t, []uuid.UUID{m.ID}, f.coordinator.archived)
	assert.Equal(t, f.ranking.InitialRating, f.reload(t, a).Rating)

	// terminal matches are left alone
	m, err = f.svc.ScoreMatch(ctx, m.ID, []float64{1, 0}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, domain.MatchCanceled, m.Status)
	m, err = f.svc.CancelMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, f.coordinator.archived, 1)

	// players are free to play again
	_, err = f.svc.StartMatch(ctx, f.ranking.ID, [][]uuid.UUID{{a.ID}, {b.ID}}, 0)
	assert.NoError(t, err)
}

func TestRematch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.player(t, "a"), f.player(t, "b")
	f.player(t, "c")
	m, err := f.svc.StartMatch(ctx, f.ranking.ID, [][]uuid.UUID{{a.ID}, {b.ID}}, 3)
	require.NoError(t, err)

	got, err := f.svc.Rematch(ctx, m.ID, "a")
	require.NoError(t, err)
	assert.True(t, opt.IsNone(got), "ongoing matches can't be rematched")

	_, err = f.svc.ScoreMatch(ctx, m.ID, []float64{1, 0}, time.Time{})
	require.NoError(t, err)
	f.clock.Advance(5 * time.Minute)

	_, err = f.svc.Rematch(ctx, m.ID, "c")
	assert.ErrorIs(t, err, domain.ErrCoordination)

	got, err = f.svc.Rematch(ctx, m.ID, "a")
	require.NoError(t, err)
	assert.True(t, opt.IsNone(got))
	got, err = f.svc.Rematch(ctx, m.ID, "a")
	require.NoError(t, err)
	assert.True(t, opt.IsNone(got))

	got, err = f.svc.Rematch(ctx, m.ID, "b")
	require.NoError(t, err)
	require.True(t, opt.IsSome(got))
	rematch := got.Value
	assert.NotEqual(t, m.ID, rematch.ID)
	assert.Equal(t, domain.MatchOngoing, rematch.Status)
	assert.Equal(t, 3, rematch.Metadata.BestOf)
	assert.Equal(t, m.TeamPlayerIDs(), rematch.TeamPlayerIDs())
	assert.Equal(t, f.reload(t, a).Rating, rematch.Teams[0].Players[0].RatingBefore)

	// every team already agreed
	got, err = f.svc.Rematch(ctx, m.ID, "b")
	require.NoError(t, err)
	assert.True(t, opt.IsNone(got))
}

func TestRematchRetriesAfterFailedStart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, c := f.player(t, "a"), f.player(t, "b"), f.player(t, "c")
	m, err := f.svc.StartMatch(ctx, f.ranking.ID, [][]uuid.UUID{{a.ID}, {b.ID}}, 0)
	require.NoError(t, err)
	_, err = f.svc.ScoreMatch(ctx, m.ID, []float64{1, 0}, time.Time{})
	require.NoError(t, err)

	_, err = f.svc.Rematch(ctx, m.ID, "a")
	require.NoError(t, err)
	busy, err := f.svc.StartMatch(ctx, f.ranking.ID, [][]uuid.UUID{{b.ID}, {c.ID}}, 0)
	require.NoError(t, err)

	_, err = f.svc.Rematch(ctx, m.ID, "b")
	assert.ErrorIs(t, err, domain.ErrCoordination)
	stored, err := f.svc.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, stored.Teams[0].Rematch)
	assert.False(t, stored.Teams[1].Rematch)

	_, err = f.svc.CancelMatch(ctx, busy.ID)
	require.NoError(t, err)
	got, err := f.svc.Rematch(ctx, m.ID, "b")
	require.NoError(t, err)
	assert.True(t, opt.IsSome(got))
}

func TestRematchWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.player(t, "a"), f.player(t, "b")
	m, err := f.svc.StartMatch(ctx, f.ranking.ID, [][]uuid.UUID{{a.ID}, {b.ID}}, 0)
	require.NoError(t, err)
	_, err = f.svc.ScoreMatch(ctx, m.ID, []float64{1, 0}, time.Time{})
	require.NoError(t, err)

	f.clock.Advance(11 * time.Minute)
	_, err = f.svc.Rematch(ctx, m.ID, "a")
	assert.ErrorIs(t, err, domain.ErrCoordination)
}

func TestChallenge(t *testing.T) {
	tests := []struct {
		name     string
		ranking  func(*domain.Ranking)
		opponent string
		wantErr  error
	}{
		{name: "ok", opponent: "b"},
		{name: "yourself", opponent: "a", wantErr: domain.ErrValidation},
		{
			name:     "disabled",
			ranking:  func(r *domain.Ranking) { r.Matchmaking.DirectChallengeEnabled = false },
			opponent: "b",
			wantErr:  domain.ErrValidation,
		},
		{
			name:     "three teams",
			ranking:  func(r *domain.Ranking) { r.TeamsPerMatch = 3 },
			opponent: "b",
			wantErr:  domain.ErrValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []func(*domain.Ranking)
			if tt.ranking != nil {
				opts = append(opts, tt.ranking)
			}
			f := newFixture(t, opts...)
			m, err := f.svc.Challenge(context.Background(), f.ranking.ID,
				Participant{UserID: "a"}, Participant{UserID: tt.opponent}, 0)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, m.Teams, 2)
		})
	}
}

func TestSetPlayerRating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.player(t, "a")

	_, err := f.svc.SetPlayerRating(ctx, a.ID, domain.Rating{Mu: 10, Sigma: 0})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.svc.SetPlayerRating(ctx, a.ID, domain.Rating{Mu: math.NaN(), Sigma: 1})
	assert.ErrorIs(t, err, domain.ErrValidation)

	p, err := f.svc.SetPlayerRating(ctx, a.ID, domain.Rating{Mu: 70, Sigma: 4})
	require.NoError(t, err)
	assert.Equal(t, domain.Rating{Mu: 70, Sigma: 4}, f.reload(t, p).Rating)

	entry, err := f.svc.LeaderboardPlayer(ctx, f.ranking.ID, "a")
	require.NoError(t, err)
	assert.InDelta(t, 58, entry.Score, 1e-9)
}

func TestMatchHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, c := f.player(t, "a"), f.player(t, "b"), f.player(t, "c")
	m1 := f.play(t, a, b, base.Add(time.Hour))
	f.clock.Advance(time.Hour)
	m2 := f.play(t, c, a, base.Add(2*time.Hour))
	f.play(t, b, c, base.Add(3*time.Hour))

	history, err := f.svc.MatchHistory(ctx, a.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, m2.ID, history[0].ID)
	assert.Equal(t, m1.ID, history[1].ID)
}
