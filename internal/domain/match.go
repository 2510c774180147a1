package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type MatchStatus int

const (
	MatchOngoing MatchStatus = iota
	MatchFinished
	MatchCanceled
)

func (s MatchStatus) String() string {
	switch s {
	case MatchOngoing:
		return "ongoing"
	case MatchFinished:
		return "finished"
	case MatchCanceled:
		return "canceled"
	}
	return "unknown"
}

func (s MatchStatus) Terminal() bool {
	switch s {
	case MatchFinished, MatchCanceled:
		return true
	case MatchOngoing:
		return false
	}
	return false
}

type Vote int

const (
	VoteUndecided Vote = iota
	VoteWin
	VoteLoss
	VoteDraw
	VoteCancel
)

func (v Vote) String() string {
	switch v {
	case VoteUndecided:
		return "undecided"
	case VoteWin:
		return "win"
	case VoteLoss:
		return "loss"
	case VoteDraw:
		return "draw"
	case VoteCancel:
		return "cancel"
	}
	return "unknown"
}

func (v Vote) Valid() bool {
	switch v {
	case VoteUndecided, VoteWin, VoteLoss, VoteDraw, VoteCancel:
		return true
	}
	return false
}

type MatchPlayer struct {
	PlayerID uuid.UUID
	// RatingBefore is the player's rating when the match was created or last rescored.
	RatingBefore Rating
}

type MatchTeam struct {
	Players []MatchPlayer
	Vote    Vote
	Rematch bool
}

type MatchMetadata struct {
	BestOf int
}

type Match struct {
	ID           uuid.UUID
	RankingID    uuid.UUID
	Teams        []MatchTeam
	Status       MatchStatus
	Outcome      []float64
	Metadata     MatchMetadata
	TimeStarted  time.Time
	TimeFinished time.Time
}

// PlayerSnapshot is a corrected RatingBefore for one player of a match.
type PlayerSnapshot struct {
	PlayerID     uuid.UUID
	RatingBefore Rating
}

func (m Match) PlayerIDs() []uuid.UUID {
	var ids []uuid.UUID
	for _, team := range m.Teams {
		for _, p := range team.Players {
			ids = append(ids, p.PlayerID)
		}
	}
	return ids
}

// TeamIndex returns the index of the team the player is on, or -1.
func (m Match) TeamIndex(playerID uuid.UUID) int {
	for i, team := range m.Teams {
		for _, p := range team.Players {
			if p.PlayerID == playerID {
				return i
			}
		}
	}
	return -1
}

func (m Match) RatingsBefore() [][]Rating {
	ratings := make([][]Rating, len(m.Teams))
	for i, team := range m.Teams {
		ratings[i] = make([]Rating, len(team.Players))
		for j, p := range team.Players {
			ratings[i][j] = p.RatingBefore
		}
	}
	return ratings
}

func (m Match) TeamPlayerIDs() [][]uuid.UUID {
	ids := make([][]uuid.UUID, len(m.Teams))
	for i, team := range m.Teams {
		ids[i] = make([]uuid.UUID, len(team.Players))
		for j, p := range team.Players {
			ids[i][j] = p.PlayerID
		}
	}
	return ids
}

// Clone returns a deep copy, so stores and callers never share slices.
func (m Match) Clone() Match {
	c := m
	c.Teams = make([]MatchTeam, len(m.Teams))
	for i, team := range m.Teams {
		c.Teams[i] = team
		c.Teams[i].Players = append([]MatchPlayer(nil), team.Players...)
	}
	if m.Outcome != nil {
		c.Outcome = append([]float64(nil), m.Outcome...)
	}
	return c
}

func ValidateOutcome(outcome []float64, teams int) error {
	if len(outcome) != teams {
		return NewValidationError("outcome has %d scores but the match has %d teams", len(outcome), teams)
	}
	for _, score := range outcome {
		if math.IsNaN(score) || math.IsInf(score, 0) {
			return NewValidationError("outcome scores must be finite numbers")
		}
	}
	return nil
}

// ConsensusStatus derives the match result from the current team votes.
// It returns MatchOngoing while the votes don't agree on anything.
func ConsensusStatus(votes []Vote) (MatchStatus, []float64) {
	if len(votes) == 0 {
		return MatchOngoing, nil
	}
	var wins, losses, draws, cancels int
	for _, v := range votes {
		switch v {
		case VoteWin:
			wins++
		case VoteLoss:
			losses++
		case VoteDraw:
			draws++
		case VoteCancel:
			cancels++
		case VoteUndecided:
		}
	}
	switch {
	case cancels == len(votes):
		return MatchCanceled, nil
	case draws == len(votes):
		outcome := make([]float64, len(votes))
		for i := range outcome {
			outcome[i] = 0.5
		}
		return MatchFinished, outcome
	case wins == 1 && wins+losses == len(votes):
		outcome := make([]float64, len(votes))
		for i, v := range votes {
			if v == VoteWin {
				outcome[i] = 1
			}
		}
		return MatchFinished, outcome
	}
	return MatchOngoing, nil
}
