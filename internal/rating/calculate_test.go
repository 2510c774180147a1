package rating

import (
	"math"
	"reflect"
	"testing"

	"github.com/goserg/rankings/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var initial = domain.Rating{Mu: 50, Sigma: 16.67}

func TestRanks(t *testing.T) {
	tests := []struct {
		name    string
		outcome []float64
		want    []int
	}{
		{
			name:    "first wins",
			outcome: []float64{1, 0},
			want:    []int{1, 2},
		},
		{
			name:    "second wins",
			outcome: []float64{0, 1},
			want:    []int{2, 1},
		},
		{
			name:    "draw",
			outcome: []float64{0.5, 0.5},
			want:    []int{1, 1},
		},
		{
			name:    "three teams with a tie for second",
			outcome: []float64{3, 1, 1},
			want:    []int{1, 2, 2},
		},
		{
			name:    "scores are relative",
			outcome: []float64{-2, 10, 4},
			want:    []int{3, 1, 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Ranks(tt.outcome); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Ranks() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRate_OneVersusOne(t *testing.T) {
	got := Rate([]float64{1, 0}, [][]domain.Rating{{initial}, {initial}}, initial, 1)
	require.Len(t, got, 2)
	require.Len(t, got[0], 1)
	require.Len(t, got[1], 1)

	winner, loser := got[0][0], got[1][0]
	assert.Greater(t, winner.Mu, initial.Mu)
	assert.Less(t, loser.Mu, initial.Mu)
	assert.Less(t, winner.Sigma, initial.Sigma)
	assert.Less(t, loser.Sigma, initial.Sigma)
	// equal players move by the same amount in opposite directions
	assert.InDelta(t, winner.Mu-initial.Mu, initial.Mu-loser.Mu, 1e-9)
}

func TestRate_Deterministic(t *testing.T) {
	teams := [][]domain.Rating{
		{{Mu: 55, Sigma: 10}, {Mu: 40, Sigma: 14}},
		{{Mu: 48, Sigma: 12}, {Mu: 51, Sigma: 9}},
	}
	first := Rate([]float64{0, 1}, teams, initial, 3)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Rate([]float64{0, 1}, teams, initial, 3))
	}
}

func TestRate_Mirrored(t *testing.T) {
	a := []domain.Rating{{Mu: 60, Sigma: 8}}
	b := []domain.Rating{{Mu: 45, Sigma: 15}}

	forward := Rate([]float64{1, 0}, [][]domain.Rating{a, b}, initial, 1)
	mirrored := Rate([]float64{0, 1}, [][]domain.Rating{b, a}, initial, 1)

	assert.Equal(t, forward[0], mirrored[1])
	assert.Equal(t, forward[1], mirrored[0])
}

func TestRate_DoesNotModifyInput(t *testing.T) {
	teams := [][]domain.Rating{{initial}, {initial}}
	Rate([]float64{0, 1}, teams, initial, 1)
	assert.Equal(t, [][]domain.Rating{{initial}, {initial}}, teams)
}

func TestRate_TeamMembersMoveTogether(t *testing.T) {
	certain := domain.Rating{Mu: 50, Sigma: 4}
	unsure := domain.Rating{Mu: 50, Sigma: 16}
	got := Rate(
		[]float64{1, 0},
		[][]domain.Rating{{certain, unsure}, {initial, initial}},
		initial,
		1,
	)
	certainDelta := got[0][0].Mu - certain.Mu
	unsureDelta := got[0][1].Mu - unsure.Mu
	assert.Greater(t, certainDelta, 0.0)
	assert.Greater(t, unsureDelta, 0.0)
	// the less certain player absorbs more of the update
	assert.Greater(t, unsureDelta, certainDelta)
}

func TestRate_Draw(t *testing.T) {
	strong := domain.Rating{Mu: 70, Sigma: 8}
	weak := domain.Rating{Mu: 30, Sigma: 8}
	got := Rate([]float64{0.5, 0.5}, [][]domain.Rating{{strong}, {weak}}, initial, 1)
	assert.Less(t, got[0][0].Mu, strong.Mu)
	assert.Greater(t, got[1][0].Mu, weak.Mu)
}

func TestRate_PanicsOnShapeMismatch(t *testing.T) {
	assert.Panics(t, func() {
		Rate([]float64{1}, [][]domain.Rating{{initial}, {initial}}, initial, 1)
	})
	assert.Panics(t, func() {
		Rate([]float64{1, 0}, [][]domain.Rating{{initial}, {}}, initial, 1)
	})
}

func TestBeta(t *testing.T) {
	assert.InDelta(t, initial.Sigma/2*5, Beta(initial, 1), 1e-12)
	assert.InDelta(t, initial.Sigma/2*5/math.Sqrt(3), Beta(initial, 3), 1e-12)
	assert.Equal(t, Beta(initial, 1), Beta(initial, 0))

	prev := Beta(initial, 1)
	for _, bestOf := range []int{3, 5, 7, 9} {
		beta := Beta(initial, bestOf)
		assert.Less(t, beta, prev)
		prev = beta
	}
}

func TestRate_BestOfChangesUpdateSize(t *testing.T) {
	delta := func(bestOf int) float64 {
		got := Rate([]float64{1, 0}, [][]domain.Rating{{initial}, {initial}}, initial, bestOf)
		return got[0][0].Mu - initial.Mu
	}
	// a smaller beta makes every submitted result more informative, so the
	// change grows with best-of even though a longer series is expected to
	// move ratings less. Beta is kept as is; flip this only together with Beta.
	prev := delta(1)
	for _, bestOf := range []int{3, 5, 7} {
		d := delta(bestOf)
		assert.Greater(t, d, prev, "best of %d", bestOf)
		prev = d
	}
}

func TestConservative(t *testing.T) {
	assert.Equal(t, 20.0, Conservative(domain.Rating{Mu: 50, Sigma: 10}))
}
