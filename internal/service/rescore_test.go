package service

import (
	"context"
	"testing"
	"time"

	"github.com/goserg/rankings/internal/domain"

	"github.com/google/uuid"
	opt "github.com/repeale/fp-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	winner, loser string
	hour          int
}

// history plays the results in the given call order.
func history(t *testing.T, results ...result) (*fixture, map[string]domain.Player, []domain.Match) {
	t.Helper()
	f := newFixture(t)
	players := make(map[string]domain.Player)
	for _, user := range []string{"a", "b", "c", "d"} {
		players[user] = f.player(t, user)
	}
	var matches []domain.Match
	for _, r := range results {
		matches = append(matches, f.play(t, players[r.winner], players[r.loser], base.Add(time.Duration(r.hour)*time.Hour)))
	}
	return f, players, matches
}

func snapshots(t *testing.T, f *fixture) map[uuid.UUID][][]domain.Rating {
	t.Helper()
	matches, err := f.store.ListMatches(context.Background(), finishedFilter(f.ranking.ID))
	require.NoError(t, err)
	out := make(map[uuid.UUID][][]domain.Rating, len(matches))
	for _, m := range matches {
		out[m.ID] = m.RatingsBefore()
	}
	return out
}

func TestRescoreIsIdempotent(t *testing.T) {
	f, _, _ := history(t,
		result{"a", "b", 1},
		result{"a", "c", 2},
		result{"c", "b", 3},
		result{"d", "a", 4},
	)
	ctx := context.Background()
	wantRatings := f.ratingsByUser(t)
	wantSnapshots := snapshots(t, f)

	for i := 0; i < 2; i++ {
		_, err := f.svc.Rescore(ctx, f.ranking.ID, opt.None[time.Time](), nil)
		require.NoError(t, err)
		assertSameRatings(t, wantRatings, f.ratingsByUser(t))
		assert.Equal(t, wantSnapshots, snapshots(t, f))
	}

	_, err := f.svc.Rescore(ctx, f.ranking.ID, opt.Some(base.Add(3*time.Hour)), nil)
	require.NoError(t, err)
	assertSameRatings(t, wantRatings, f.ratingsByUser(t))
}

func TestRescoreOrderMatters(t *testing.T) {
	forward, _, _ := history(t,
		result{"a", "b", 1},
		result{"b", "c", 2},
	)
	swapped, _, _ := history(t,
		result{"a", "b", 2},
		result{"b", "c", 1},
	)
	a := forward.ratingsByUser(t)["b"]
	b := swapped.ratingsByUser(t)["b"]
	assert.NotEqual(t, a, b)
}

func TestRescoreFollowsFinishTime(t *testing.T) {
	want, _, _ := history(t,
		result{"a", "b", 1},
		result{"b", "c", 2},
		result{"c", "a", 3},
	)
	// the same results entered out of order, the backdated one cascades
	got, _, _ := history(t,
		result{"b", "c", 2},
		result{"c", "a", 3},
		result{"a", "b", 1},
	)
	assertSameRatings(t, want.ratingsByUser(t), got.ratingsByUser(t))
}

func TestRescoreSeed(t *testing.T) {
	f, players, _ := history(t,
		result{"a", "b", 1},
		result{"b", "c", 2},
	)
	ctx := context.Background()
	boosted := domain.Rating{Mu: 80, Sigma: 3}
	seed := Ratings{players["b"].ID: boosted}

	final, err := f.svc.Rescore(ctx, f.ranking.ID, opt.Some(base.Add(2*time.Hour)), seed)
	require.NoError(t, err)
	assert.Equal(t, Ratings{players["b"].ID: boosted}, seed, "seed must not be modified")

	matches, err := f.store.ListMatches(ctx, finishedFilter(f.ranking.ID))
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, boosted, matches[1].Teams[0].Players[0].RatingBefore)
	assert.NotEqual(t, boosted, matches[0].Teams[1].Players[0].RatingBefore, "earlier matches are not touched")

	assert.Equal(t, final[players["b"].ID], f.reload(t, players["b"]).Rating)
	assert.Greater(t, final[players["b"].ID].Mu, 80.0)
	assert.NotContains(t, final, players["a"].ID)
}

func TestRevertMatch(t *testing.T) {
	f, _, matches := history(t,
		result{"a", "b", 1},
		result{"a", "c", 2},
		result{"c", "b", 3},
		result{"b", "d", 4},
	)
	ctx := context.Background()
	require.NoError(t, f.svc.RevertMatch(ctx, matches[1].ID))

	_, err := f.store.GetMatch(ctx, matches[1].ID)
	assert.Error(t, err)

	want, _, _ := history(t,
		result{"a", "b", 1},
		result{"c", "b", 3},
		result{"b", "d", 4},
	)
	assertSameRatings(t, want.ratingsByUser(t), f.ratingsByUser(t))
}

func TestRevertLastMatchRestoresRatings(t *testing.T) {
	f, _, _ := history(t, result{"a", "b", 1})
	before := f.ratingsByUser(t)
	a, b := f.player(t, "a"), f.player(t, "b")
	m := f.play(t, b, a, base.Add(2*time.Hour))

	require.NoError(t, f.svc.RevertMatch(context.Background(), m.ID))
	assertSameRatings(t, before, f.ratingsByUser(t))
}

func TestRevertOngoingMatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.player(t, "a"), f.player(t, "b")
	m, err := f.svc.StartMatch(ctx, f.ranking.ID, [][]uuid.UUID{{a.ID}, {b.ID}}, 0)
	require.NoError(t, err)

	require.NoError(t, f.svc.RevertMatch(ctx, m.ID))
	assert.Equal(t, f.ranking.InitialRating, f.reload(t, a).Rating)
	_, err = f.svc.StartMatch(ctx, f.ranking.ID, [][]uuid.UUID{{a.ID}, {b.ID}}, 0)
	assert.NoError(t, err)
}

func TestEditOutcome(t *testing.T) {
	f, _, matches := history(t,
		result{"a", "b", 1},
		result{"b", "c", 2},
		result{"c", "a", 3},
	)
	edited, err := f.svc.ScoreMatch(context.Background(), matches[0].ID, []float64{0, 1}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, edited.Outcome)
	assert.Equal(t, matches[0].TimeFinished, edited.TimeFinished)

	want, _, _ := history(t,
		result{"b", "a", 1},
		result{"b", "c", 2},
		result{"c", "a", 3},
	)
	assertSameRatings(t, want.ratingsByUser(t), f.ratingsByUser(t))
}

func TestSetMatchTeams(t *testing.T) {
	f, players, matches := history(t,
		result{"a", "b", 1},
		result{"c", "d", 2},
		result{"a", "b", 3},
		result{"b", "c", 4},
	)
	// the second a-b match was actually a-d
	m, err := f.svc.SetMatchTeams(context.Background(), matches[2].ID,
		[][]uuid.UUID{{players["a"].ID}, {players["d"].ID}})
	require.NoError(t, err)
	assert.Equal(t, [][]uuid.UUID{{players["a"].ID}, {players["d"].ID}}, m.TeamPlayerIDs())
	assert.Equal(t, domain.MatchFinished, m.Status)

	want, _, _ := history(t,
		result{"a", "b", 1},
		result{"c", "d", 2},
		result{"a", "d", 3},
		result{"b", "c", 4},
	)
	assertSameRatings(t, want.ratingsByUser(t), f.ratingsByUser(t))
}

func TestSetMatchTeamsOngoing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, c := f.player(t, "a"), f.player(t, "b"), f.player(t, "c")
	m, err := f.svc.StartMatch(ctx, f.ranking.ID, [][]uuid.UUID{{a.ID}, {b.ID}}, 0)
	require.NoError(t, err)
	_, err = f.svc.CastVote(ctx, m.ID, "a", domain.VoteWin)
	require.NoError(t, err)

	m, err = f.svc.SetMatchTeams(ctx, m.ID, [][]uuid.UUID{{a.ID}, {c.ID}})
	require.NoError(t, err)
	assert.Equal(t, domain.VoteUndecided, m.Teams[0].Vote)
	assert.Equal(t, c.Rating, m.Teams[1].Players[0].RatingBefore)

	// b is free again
	_, err = f.svc.Challenge(ctx, f.ranking.ID, Participant{UserID: "b"}, Participant{UserID: "d"}, 0)
	assert.NoError(t, err)
}

// firstReplayed is the finished match the cascade starts with.
func firstReplayed(t *testing.T, f *fixture) domain.Match {
	t.Helper()
	matches, err := f.store.ListMatches(context.Background(), finishedFilter(f.ranking.ID))
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	return matches[0]
}

func assertInitialSnapshots(t *testing.T, f *fixture, m domain.Match) {
	t.Helper()
	for _, team := range m.RatingsBefore() {
		for _, r := range team {
			assert.Equal(t, f.ranking.InitialRating, r)
		}
	}
}

func TestSameFinishTime(t *testing.T) {
	tests := []struct {
		name    string
		history []result
	}{
		{
			name:    "two matches",
			history: []result{{"a", "c", 1}, {"a", "b", 1}},
		},
		{
			name:    "three matches",
			history: []result{{"a", "c", 1}, {"a", "b", 1}, {"d", "a", 1}},
		},
		{
			name:    "earlier match in between",
			history: []result{{"b", "d", 1}, {"a", "c", 2}, {"a", "b", 2}, {"c", "b", 3}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _, _ := history(t, tt.history...)
			want := f.ratingsByUser(t)
			wantSnapshots := snapshots(t, f)

			_, err := f.svc.Rescore(context.Background(), f.ranking.ID, opt.None[time.Time](), nil)
			require.NoError(t, err)
			assertSameRatings(t, want, f.ratingsByUser(t))
			assert.Equal(t, wantSnapshots, snapshots(t, f))
			assertInitialSnapshots(t, f, firstReplayed(t, f))
		})
	}
}

func TestRevertSameFinishTime(t *testing.T) {
	tests := []struct {
		name   string
		revert int
		want   []result
	}{
		{name: "revert second", revert: 1, want: []result{{"a", "c", 1}}},
		{name: "revert first", revert: 0, want: []result{{"a", "b", 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _, matches := history(t, result{"a", "c", 1}, result{"a", "b", 1})
			require.NoError(t, f.svc.RevertMatch(context.Background(), matches[tt.revert].ID))

			want, _, _ := history(t, tt.want...)
			assertSameRatings(t, want.ratingsByUser(t), f.ratingsByUser(t))
		})
	}
}

func TestEditOutcomeSameFinishTime(t *testing.T) {
	for _, edit := range []int{0, 1} {
		f, _, matches := history(t, result{"a", "c", 1}, result{"a", "b", 1})
		ctx := context.Background()
		_, err := f.svc.ScoreMatch(ctx, matches[edit].ID, []float64{0, 1}, time.Time{})
		require.NoError(t, err)

		assertInitialSnapshots(t, f, firstReplayed(t, f))
		want := f.ratingsByUser(t)
		_, err = f.svc.Rescore(ctx, f.ranking.ID, opt.None[time.Time](), nil)
		require.NoError(t, err)
		assertSameRatings(t, want, f.ratingsByUser(t))
	}
}
