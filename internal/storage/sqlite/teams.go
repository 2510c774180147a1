package sqlite

import (
	"context"
	"database/sql"

	"github.com/goserg/rankings/gen/model"
	"github.com/goserg/rankings/gen/table"
	"github.com/goserg/rankings/internal/domain"

	"github.com/google/uuid"
)

func (s *Storage) CreateTeam(ctx context.Context, team domain.Team) (domain.Team, error) {
	if team.ID == uuid.Nil {
		team.ID = uuid.New()
	}
	members := make([]model.TeamPlayers, 0, len(team.PlayerIDs))
	for i, playerID := range team.PlayerIDs {
		members = append(members, model.TeamPlayers{
			TeamID:   team.ID.String(),
			PlayerID: playerID.String(),
			Position: int32(i),
		})
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := table.Teams.
			INSERT(table.Teams.AllColumns).
			MODEL(model.Teams{
				ID:        team.ID.String(),
				RankingID: team.RankingID.String(),
				CreatedAt: toMillis(team.CreatedAt),
			}).
			ExecContext(ctx, tx)
		if err != nil {
			return err
		}
		if len(members) == 0 {
			return nil
		}
		_, err = table.TeamPlayers.
			INSERT(table.TeamPlayers.AllColumns).
			MODELS(members).
			ExecContext(ctx, tx)
		return err
	})
	if err != nil {
		return domain.Team{}, err
	}
	return team, nil
}

func (s *Storage) GetTeam(ctx context.Context, id uuid.UUID) (domain.Team, error) {
	var dest model.Teams
	err := table.Teams.
		SELECT(table.Teams.AllColumns).
		WHERE(idEq(table.Teams.ID, id)).
		QueryContext(ctx, s.db, &dest)
	if err != nil {
		return domain.Team{}, notFound(err)
	}
	teams, err := s.withMembers(ctx, []model.Teams{dest})
	if err != nil {
		return domain.Team{}, err
	}
	return teams[0], nil
}

func (s *Storage) ListTeamsForPlayer(ctx context.Context, rankingID uuid.UUID, playerID uuid.UUID) ([]domain.Team, error) {
	var memberships []model.TeamPlayers
	err := table.TeamPlayers.
		SELECT(table.TeamPlayers.AllColumns).
		WHERE(idEq(table.TeamPlayers.PlayerID, playerID)).
		QueryContext(ctx, s.db, &memberships)
	if err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return nil, nil
	}
	teamIDs := make([]string, 0, len(memberships))
	for _, m := range memberships {
		teamIDs = append(teamIDs, m.TeamID)
	}

	var dest []model.Teams
	err = table.Teams.
		SELECT(table.Teams.AllColumns).
		WHERE(table.Teams.ID.IN(stringExpressions(teamIDs)...).
			AND(idEq(table.Teams.RankingID, rankingID))).
		ORDER_BY(table.Teams.CreatedAt.ASC(), table.Teams.ID.ASC()).
		QueryContext(ctx, s.db, &dest)
	if err != nil {
		return nil, err
	}
	return s.withMembers(ctx, dest)
}

func (s *Storage) withMembers(ctx context.Context, teams []model.Teams) ([]domain.Team, error) {
	if len(teams) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(teams))
	for _, team := range teams {
		ids = append(ids, team.ID)
	}
	var members []model.TeamPlayers
	err := table.TeamPlayers.
		SELECT(table.TeamPlayers.AllColumns).
		WHERE(table.TeamPlayers.TeamID.IN(stringExpressions(ids)...)).
		ORDER_BY(table.TeamPlayers.TeamID.ASC(), table.TeamPlayers.Position.ASC()).
		QueryContext(ctx, s.db, &members)
	if err != nil {
		return nil, err
	}
	converted := make([]domain.Team, 0, len(teams))
	for _, team := range teams {
		t, err := convertTeamToDomain(team, members)
		if err != nil {
			return nil, err
		}
		converted = append(converted, t)
	}
	return converted, nil
}
