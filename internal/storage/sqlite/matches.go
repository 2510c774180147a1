package sqlite

import (
	"context"
	"database/sql"
	"slices"

	"github.com/goserg/rankings/gen/model"
	"github.com/goserg/rankings/gen/table"
	"github.com/goserg/rankings/internal/domain"
	"github.com/goserg/rankings/internal/storage"

	"github.com/go-jet/jet/v2/qrm"
	"github.com/go-jet/jet/v2/sqlite"
	"github.com/google/uuid"
	opt "github.com/repeale/fp-go/option"
)

// loadBatchSize bounds the ids bound into one IN list.
const loadBatchSize = 500

func (s *Storage) CreateMatch(ctx context.Context, match domain.Match) (domain.Match, error) {
	if match.ID == uuid.Nil {
		match.ID = uuid.New()
	}
	row, err := convertMatchFromDomain(match)
	if err != nil {
		return domain.Match{}, err
	}
	teams, players := convertMatchTeamsFromDomain(match)
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := table.Matches.
			INSERT(table.Matches.AllColumns).
			MODEL(row).
			ExecContext(ctx, tx)
		if err != nil {
			return err
		}
		return insertMatchTeams(ctx, tx, teams, players)
	})
	if err != nil {
		return domain.Match{}, err
	}
	return match.Clone(), nil
}

func insertMatchTeams(ctx context.Context, db qrm.DB, teams []model.MatchTeams, players []model.MatchPlayers) error {
	if len(teams) > 0 {
		_, err := table.MatchTeams.
			INSERT(table.MatchTeams.AllColumns).
			MODELS(teams).
			ExecContext(ctx, db)
		if err != nil {
			return err
		}
	}
	if len(players) > 0 {
		_, err := table.MatchPlayers.
			INSERT(table.MatchPlayers.AllColumns).
			MODELS(players).
			ExecContext(ctx, db)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Storage) GetMatch(ctx context.Context, id uuid.UUID) (domain.Match, error) {
	var dest model.Matches
	err := table.Matches.
		SELECT(table.Matches.AllColumns).
		WHERE(idEq(table.Matches.ID, id)).
		QueryContext(ctx, s.db, &dest)
	if err != nil {
		return domain.Match{}, notFound(err)
	}
	matches, err := s.loadMatches(ctx, []model.Matches{dest})
	if err != nil {
		return domain.Match{}, err
	}
	return matches[0], nil
}

func (s *Storage) ListMatches(ctx context.Context, filter storage.MatchFilter) ([]domain.Match, error) {
	var cond sqlite.BoolExpression = sqlite.Bool(true)
	if len(filter.RankingIDs) > 0 {
		cond = cond.AND(table.Matches.RankingID.IN(idExpressions(filter.RankingIDs)...))
	}
	if len(filter.PlayerIDs) > 0 {
		cond = cond.AND(table.Matches.ID.IN(
			table.MatchPlayers.
				SELECT(table.MatchPlayers.MatchID).
				WHERE(table.MatchPlayers.PlayerID.IN(idExpressions(filter.PlayerIDs)...)),
		))
	}
	if opt.IsSome(filter.Status) {
		cond = cond.AND(table.Matches.Status.EQ(sqlite.Int(int64(filter.Status.Value))))
	}
	if opt.IsSome(filter.FinishedOnOrAfter) {
		cond = cond.AND(table.Matches.TimeFinished.IS_NOT_NULL()).
			AND(table.Matches.TimeFinished.GT_EQ(sqlite.Int(toMillis(filter.FinishedOnOrAfter.Value))))
	}

	stmt := table.Matches.
		SELECT(table.Matches.AllColumns).
		WHERE(cond)
	switch filter.Order {
	case storage.OrderTimeFinishedAsc:
		stmt = stmt.ORDER_BY(table.Matches.TimeFinished.ASC(), table.Matches.ID.ASC())
	case storage.OrderTimeStartedDesc:
		stmt = stmt.ORDER_BY(table.Matches.TimeStarted.DESC(), table.Matches.ID.ASC())
	}
	stmt = limitOffset(stmt, filter.Limit, filter.Offset)

	var dest []model.Matches
	if err := stmt.QueryContext(ctx, s.db, &dest); err != nil {
		return nil, err
	}
	return s.loadMatches(ctx, dest)
}

func (s *Storage) loadMatches(ctx context.Context, rows []model.Matches) ([]domain.Match, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	var (
		teams   []model.MatchTeams
		players []model.MatchPlayers
	)
	// a full history can hold more ids than sqlite binds in one statement
	for chunk := range slices.Chunk(ids, loadBatchSize) {
		var chunkTeams []model.MatchTeams
		err := table.MatchTeams.
			SELECT(table.MatchTeams.AllColumns).
			WHERE(table.MatchTeams.MatchID.IN(stringExpressions(chunk)...)).
			ORDER_BY(table.MatchTeams.MatchID.ASC(), table.MatchTeams.TeamIndex.ASC()).
			QueryContext(ctx, s.db, &chunkTeams)
		if err != nil {
			return nil, err
		}
		teams = append(teams, chunkTeams...)

		var chunkPlayers []model.MatchPlayers
		err = table.MatchPlayers.
			SELECT(table.MatchPlayers.AllColumns).
			WHERE(table.MatchPlayers.MatchID.IN(stringExpressions(chunk)...)).
			ORDER_BY(
				table.MatchPlayers.MatchID.ASC(),
				table.MatchPlayers.TeamIndex.ASC(),
				table.MatchPlayers.Position.ASC(),
			).
			QueryContext(ctx, s.db, &chunkPlayers)
		if err != nil {
			return nil, err
		}
		players = append(players, chunkPlayers...)
	}
	return convertMatchesToDomain(rows, teams, players)
}

func (s *Storage) UpdateMatch(ctx context.Context, match domain.Match) error {
	row, err := convertMatchFromDomain(match)
	if err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := table.Matches.
			UPDATE(table.Matches.Status, table.Matches.Outcome, table.Matches.BestOf,
				table.Matches.TimeStarted, table.Matches.TimeFinished).
			MODEL(row).
			WHERE(idEq(table.Matches.ID, match.ID)).
			ExecContext(ctx, tx)
		if err != nil {
			return err
		}
		if err := checkAffected(res); err != nil {
			return err
		}
		for i, team := range match.Teams {
			_, err := table.MatchTeams.
				UPDATE(table.MatchTeams.Vote, table.MatchTeams.Rematch).
				SET(sqlite.Int(int64(team.Vote)), sqlite.Bool(team.Rematch)).
				WHERE(idEq(table.MatchTeams.MatchID, match.ID).
					AND(table.MatchTeams.TeamIndex.EQ(sqlite.Int(int64(i))))).
				ExecContext(ctx, tx)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Storage) DeleteMatch(ctx context.Context, id uuid.UUID) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := deleteMatchTeams(ctx, tx, id); err != nil {
			return err
		}
		res, err := table.Matches.
			DELETE().
			WHERE(idEq(table.Matches.ID, id)).
			ExecContext(ctx, tx)
		if err != nil {
			return err
		}
		return checkAffected(res)
	})
}

func deleteMatchTeams(ctx context.Context, db qrm.DB, matchID uuid.UUID) error {
	_, err := table.MatchPlayers.
		DELETE().
		WHERE(idEq(table.MatchPlayers.MatchID, matchID)).
		ExecContext(ctx, db)
	if err != nil {
		return err
	}
	_, err = table.MatchTeams.
		DELETE().
		WHERE(idEq(table.MatchTeams.MatchID, matchID)).
		ExecContext(ctx, db)
	return err
}

func (s *Storage) UpdateMatchPlayerSnapshots(ctx context.Context, matchID uuid.UUID, snapshots []domain.PlayerSnapshot) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := matchExists(ctx, tx, matchID); err != nil {
			return err
		}
		for _, snapshot := range snapshots {
			_, err := table.MatchPlayers.
				UPDATE(table.MatchPlayers.MuBefore, table.MatchPlayers.SigmaBefore).
				SET(sqlite.Float(snapshot.RatingBefore.Mu), sqlite.Float(snapshot.RatingBefore.Sigma)).
				WHERE(idEq(table.MatchPlayers.MatchID, matchID).
					AND(idEq(table.MatchPlayers.PlayerID, snapshot.PlayerID))).
				ExecContext(ctx, tx)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Storage) ReplaceMatchTeams(ctx context.Context, matchID uuid.UUID, teams []domain.MatchTeam) error {
	replaced := domain.Match{ID: matchID, Teams: teams}.Clone()
	for i := range replaced.Teams {
		replaced.Teams[i].Vote = domain.VoteUndecided
		replaced.Teams[i].Rematch = false
	}
	teamRows, playerRows := convertMatchTeamsFromDomain(replaced)
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := matchExists(ctx, tx, matchID); err != nil {
			return err
		}
		if err := deleteMatchTeams(ctx, tx, matchID); err != nil {
			return err
		}
		return insertMatchTeams(ctx, tx, teamRows, playerRows)
	})
}

func matchExists(ctx context.Context, db qrm.DB, id uuid.UUID) error {
	var dest model.Matches
	err := table.Matches.
		SELECT(table.Matches.ID).
		WHERE(idEq(table.Matches.ID, id)).
		QueryContext(ctx, db, &dest)
	return notFound(err)
}
