package sqlite

import (
	"encoding/json"
	"time"

	"github.com/goserg/rankings/gen/model"
	"github.com/goserg/rankings/internal/domain"

	"github.com/google/uuid"
)

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func toNullMillis(t time.Time) *int64 {
	if t.IsZero() {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func fromNullMillis(ms *int64) time.Time {
	if ms == nil {
		return time.Time{}
	}
	return fromMillis(*ms)
}

func convertRankingFromDomain(r domain.Ranking) model.Rankings {
	return model.Rankings{
		ID:                     r.ID.String(),
		Name:                   r.Name,
		TeamsPerMatch:          int32(r.TeamsPerMatch),
		PlayersPerTeam:         int32(r.PlayersPerTeam),
		InitialMu:              r.InitialRating.Mu,
		InitialSigma:           r.InitialRating.Sigma,
		QueueEnabled:           r.Matchmaking.QueueEnabled,
		DirectChallengeEnabled: r.Matchmaking.DirectChallengeEnabled,
		DefaultBestOf:          int32(r.Matchmaking.DefaultBestOf),
		RematchWindowSeconds:   int32(r.Matchmaking.RematchWindow / time.Second),
		CreatedAt:              toMillis(r.CreatedAt),
	}
}

func convertRankingToDomain(r model.Rankings) (domain.Ranking, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return domain.Ranking{}, err
	}
	return domain.Ranking{
		ID:             id,
		Name:           r.Name,
		TeamsPerMatch:  int(r.TeamsPerMatch),
		PlayersPerTeam: int(r.PlayersPerTeam),
		InitialRating:  domain.Rating{Mu: r.InitialMu, Sigma: r.InitialSigma},
		Matchmaking: domain.MatchmakingSettings{
			QueueEnabled:           r.QueueEnabled,
			DirectChallengeEnabled: r.DirectChallengeEnabled,
			DefaultBestOf:          int(r.DefaultBestOf),
			RematchWindow:          time.Duration(r.RematchWindowSeconds) * time.Second,
		},
		CreatedAt: fromMillis(r.CreatedAt),
	}, nil
}

func convertPlayerFromDomain(p domain.Player) model.Players {
	return model.Players{
		ID:        p.ID.String(),
		RankingID: p.RankingID.String(),
		UserID:    p.UserID,
		Name:      p.Name,
		Mu:        p.Rating.Mu,
		Sigma:     p.Rating.Sigma,
		Disabled:  p.Disabled,
		CreatedAt: toMillis(p.CreatedAt),
	}
}

func convertPlayerToDomain(p model.Players) (domain.Player, error) {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return domain.Player{}, err
	}
	rankingID, err := uuid.Parse(p.RankingID)
	if err != nil {
		return domain.Player{}, err
	}
	return domain.Player{
		ID:        id,
		RankingID: rankingID,
		UserID:    p.UserID,
		Name:      p.Name,
		Rating:    domain.Rating{Mu: p.Mu, Sigma: p.Sigma},
		Disabled:  p.Disabled,
		CreatedAt: fromMillis(p.CreatedAt),
	}, nil
}

func convertPlayersToDomain(players []model.Players) ([]domain.Player, error) {
	converted := make([]domain.Player, 0, len(players))
	for _, p := range players {
		player, err := convertPlayerToDomain(p)
		if err != nil {
			return nil, err
		}
		converted = append(converted, player)
	}
	return converted, nil
}

func convertMatchFromDomain(m domain.Match) (model.Matches, error) {
	row := model.Matches{
		ID:           m.ID.String(),
		RankingID:    m.RankingID.String(),
		Status:       int32(m.Status),
		BestOf:       int32(m.Metadata.BestOf),
		TimeStarted:  toMillis(m.TimeStarted),
		TimeFinished: toNullMillis(m.TimeFinished),
	}
	if m.Outcome != nil {
		raw, err := json.Marshal(m.Outcome)
		if err != nil {
			return model.Matches{}, err
		}
		outcome := string(raw)
		row.Outcome = &outcome
	}
	return row, nil
}

func convertMatchTeamsFromDomain(m domain.Match) ([]model.MatchTeams, []model.MatchPlayers) {
	var teams []model.MatchTeams
	var players []model.MatchPlayers
	for i, team := range m.Teams {
		teams = append(teams, model.MatchTeams{
			MatchID:   m.ID.String(),
			TeamIndex: int32(i),
			Vote:      int32(team.Vote),
			Rematch:   team.Rematch,
		})
		for j, p := range team.Players {
			players = append(players, model.MatchPlayers{
				MatchID:     m.ID.String(),
				PlayerID:    p.PlayerID.String(),
				TeamIndex:   int32(i),
				Position:    int32(j),
				MuBefore:    p.RatingBefore.Mu,
				SigmaBefore: p.RatingBefore.Sigma,
			})
		}
	}
	return teams, players
}

// convertMatchesToDomain assembles matches from their rows. Team and player
// rows must be ordered by team index and position.
func convertMatchesToDomain(rows []model.Matches, teams []model.MatchTeams, players []model.MatchPlayers) ([]domain.Match, error) {
	matches := make([]domain.Match, 0, len(rows))
	index := make(map[string]int, len(rows))
	for _, row := range rows {
		id, err := uuid.Parse(row.ID)
		if err != nil {
			return nil, err
		}
		rankingID, err := uuid.Parse(row.RankingID)
		if err != nil {
			return nil, err
		}
		m := domain.Match{
			ID:           id,
			RankingID:    rankingID,
			Status:       domain.MatchStatus(row.Status),
			Metadata:     domain.MatchMetadata{BestOf: int(row.BestOf)},
			TimeStarted:  fromMillis(row.TimeStarted),
			TimeFinished: fromNullMillis(row.TimeFinished),
		}
		if row.Outcome != nil {
			if err := json.Unmarshal([]byte(*row.Outcome), &m.Outcome); err != nil {
				return nil, err
			}
		}
		index[row.ID] = len(matches)
		matches = append(matches, m)
	}

	for _, team := range teams {
		i, ok := index[team.MatchID]
		if !ok {
			continue
		}
		m := &matches[i]
		for len(m.Teams) <= int(team.TeamIndex) {
			m.Teams = append(m.Teams, domain.MatchTeam{})
		}
		m.Teams[team.TeamIndex].Vote = domain.Vote(team.Vote)
		m.Teams[team.TeamIndex].Rematch = team.Rematch
	}
	for _, p := range players {
		i, ok := index[p.MatchID]
		if !ok {
			continue
		}
		playerID, err := uuid.Parse(p.PlayerID)
		if err != nil {
			return nil, err
		}
		m := &matches[i]
		for len(m.Teams) <= int(p.TeamIndex) {
			m.Teams = append(m.Teams, domain.MatchTeam{})
		}
		m.Teams[p.TeamIndex].Players = append(m.Teams[p.TeamIndex].Players, domain.MatchPlayer{
			PlayerID:     playerID,
			RatingBefore: domain.Rating{Mu: p.MuBefore, Sigma: p.SigmaBefore},
		})
	}
	return matches, nil
}

func convertTeamToDomain(team model.Teams, members []model.TeamPlayers) (domain.Team, error) {
	id, err := uuid.Parse(team.ID)
	if err != nil {
		return domain.Team{}, err
	}
	rankingID, err := uuid.Parse(team.RankingID)
	if err != nil {
		return domain.Team{}, err
	}
	converted := domain.Team{
		ID:        id,
		RankingID: rankingID,
		CreatedAt: fromMillis(team.CreatedAt),
	}
	for _, member := range members {
		if member.TeamID != team.ID {
			continue
		}
		playerID, err := uuid.Parse(member.PlayerID)
		if err != nil {
			return domain.Team{}, err
		}
		converted.PlayerIDs = append(converted.PlayerIDs, playerID)
	}
	return converted, nil
}
