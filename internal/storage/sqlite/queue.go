package sqlite

import (
	"context"
	"database/sql"

	"github.com/goserg/rankings/gen/model"
	"github.com/goserg/rankings/gen/table"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/go-jet/jet/v2/qrm"
	"github.com/google/uuid"
)

func (s *Storage) EnqueueTeam(ctx context.Context, rankingID uuid.UUID, teamID uuid.UUID) (bool, error) {
	added := false
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var existing []model.QueueTeams
		err := table.QueueTeams.
			SELECT(table.QueueTeams.AllColumns).
			WHERE(idEq(table.QueueTeams.TeamID, teamID)).
			QueryContext(ctx, tx, &existing)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return nil
		}

		last, err := queueEdge(ctx, tx, rankingID, true)
		if err != nil {
			return err
		}
		position := int32(0)
		if last != nil {
			position = last.Position + 1
		}
		_, err = table.QueueTeams.
			INSERT(table.QueueTeams.AllColumns).
			MODEL(model.QueueTeams{
				TeamID:    teamID.String(),
				RankingID: rankingID.String(),
				Position:  position,
			}).
			ExecContext(ctx, tx)
		if err != nil {
			return err
		}
		added = true
		return nil
	})
	return added, err
}

// queueEdge returns the front (or back) row of the queue, nil when it is empty.
func queueEdge(ctx context.Context, db qrm.DB, rankingID uuid.UUID, back bool) (*model.QueueTeams, error) {
	order := table.QueueTeams.Position.ASC()
	if back {
		order = table.QueueTeams.Position.DESC()
	}
	var rows []model.QueueTeams
	err := table.QueueTeams.
		SELECT(table.QueueTeams.AllColumns).
		WHERE(idEq(table.QueueTeams.RankingID, rankingID)).
		ORDER_BY(order).
		LIMIT(1).
		QueryContext(ctx, db, &rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (s *Storage) PopQueueTeams(ctx context.Context, rankingID uuid.UUID, count int) ([]uuid.UUID, error) {
	if count <= 0 {
		return nil, nil
	}
	var popped []uuid.UUID
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var rows []model.QueueTeams
		err := table.QueueTeams.
			SELECT(table.QueueTeams.AllColumns).
			WHERE(idEq(table.QueueTeams.RankingID, rankingID)).
			ORDER_BY(table.QueueTeams.Position.ASC()).
			LIMIT(int64(count)).
			QueryContext(ctx, tx, &rows)
		if err != nil {
			return err
		}
		if len(rows) < count {
			return nil
		}

		ids := make([]string, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.TeamID)
		}
		_, err = table.QueueTeams.
			DELETE().
			WHERE(table.QueueTeams.TeamID.IN(stringExpressions(ids)...)).
			ExecContext(ctx, tx)
		if err != nil {
			return err
		}
		popped, err = parseIDs(ids)
		return err
	})
	if err != nil {
		return nil, err
	}
	return popped, nil
}

func (s *Storage) PushQueueTeams(ctx context.Context, rankingID uuid.UUID, teamIDs []uuid.UUID) error {
	if len(teamIDs) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := table.QueueTeams.
			DELETE().
			WHERE(table.QueueTeams.TeamID.IN(idExpressions(teamIDs)...)).
			ExecContext(ctx, tx)
		if err != nil {
			return err
		}

		first, err := queueEdge(ctx, tx, rankingID, false)
		if err != nil {
			return err
		}
		start := int32(0)
		if first != nil {
			start = first.Position - int32(len(teamIDs))
		}
		rows := make([]model.QueueTeams, 0, len(teamIDs))
		for i, id := range teamIDs {
			rows = append(rows, model.QueueTeams{
				TeamID:    id.String(),
				RankingID: rankingID.String(),
				Position:  start + int32(i),
			})
		}
		_, err = table.QueueTeams.
			INSERT(table.QueueTeams.AllColumns).
			MODELS(rows).
			ExecContext(ctx, tx)
		return err
	})
}

func (s *Storage) DequeueTeams(ctx context.Context, rankingID uuid.UUID, teamIDs []uuid.UUID) (int, error) {
	if len(teamIDs) == 0 {
		return 0, nil
	}
	res, err := table.QueueTeams.
		DELETE().
		WHERE(idEq(table.QueueTeams.RankingID, rankingID).
			AND(table.QueueTeams.TeamID.IN(idExpressions(teamIDs)...))).
		ExecContext(ctx, s.db)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *Storage) ListQueuedTeams(ctx context.Context, rankingID uuid.UUID) ([]uuid.UUID, error) {
	var rows []model.QueueTeams
	err := table.QueueTeams.
		SELECT(table.QueueTeams.AllColumns).
		WHERE(idEq(table.QueueTeams.RankingID, rankingID)).
		ORDER_BY(table.QueueTeams.Position.ASC()).
		QueryContext(ctx, s.db, &rows)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.TeamID)
	}
	return parseIDs(ids)
}

func parseIDs(ids []string) ([]uuid.UUID, error) {
	seen := mapset.NewThreadUnsafeSet[uuid.UUID]()
	parsed := make([]uuid.UUID, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		if seen.Add(id) {
			parsed = append(parsed, id)
		}
	}
	return parsed, nil
}
