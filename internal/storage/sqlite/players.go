package sqlite

import (
	"context"

	"github.com/goserg/rankings/gen/model"
	"github.com/goserg/rankings/gen/table"
	"github.com/goserg/rankings/internal/domain"

	"github.com/go-jet/jet/v2/sqlite"
	"github.com/google/uuid"
)

func (s *Storage) CreateRanking(ctx context.Context, ranking domain.Ranking) (domain.Ranking, error) {
	if ranking.ID == uuid.Nil {
		ranking.ID = uuid.New()
	}
	_, err := table.Rankings.
		INSERT(table.Rankings.AllColumns).
		MODEL(convertRankingFromDomain(ranking)).
		ExecContext(ctx, s.db)
	if err != nil {
		return domain.Ranking{}, err
	}
	return ranking, nil
}

func (s *Storage) GetRanking(ctx context.Context, id uuid.UUID) (domain.Ranking, error) {
	var dest model.Rankings
	err := table.Rankings.
		SELECT(table.Rankings.AllColumns).
		WHERE(idEq(table.Rankings.ID, id)).
		QueryContext(ctx, s.db, &dest)
	if err != nil {
		return domain.Ranking{}, notFound(err)
	}
	return convertRankingToDomain(dest)
}

func (s *Storage) ListRankings(ctx context.Context) ([]domain.Ranking, error) {
	var dest []model.Rankings
	err := table.Rankings.
		SELECT(table.Rankings.AllColumns).
		ORDER_BY(table.Rankings.CreatedAt.ASC(), table.Rankings.ID.ASC()).
		QueryContext(ctx, s.db, &dest)
	if err != nil {
		return nil, err
	}
	rankings := make([]domain.Ranking, 0, len(dest))
	for _, row := range dest {
		r, err := convertRankingToDomain(row)
		if err != nil {
			return nil, err
		}
		rankings = append(rankings, r)
	}
	return rankings, nil
}

func (s *Storage) CreatePlayer(ctx context.Context, player domain.Player) (domain.Player, error) {
	if player.ID == uuid.Nil {
		player.ID = uuid.New()
	}
	_, err := table.Players.
		INSERT(table.Players.AllColumns).
		MODEL(convertPlayerFromDomain(player)).
		ExecContext(ctx, s.db)
	if err != nil {
		return domain.Player{}, err
	}
	return player, nil
}

func (s *Storage) GetPlayer(ctx context.Context, id uuid.UUID) (domain.Player, error) {
	var dest model.Players
	err := table.Players.
		SELECT(table.Players.AllColumns).
		WHERE(idEq(table.Players.ID, id)).
		QueryContext(ctx, s.db, &dest)
	if err != nil {
		return domain.Player{}, notFound(err)
	}
	return convertPlayerToDomain(dest)
}

func (s *Storage) GetPlayerByUser(ctx context.Context, rankingID uuid.UUID, userID string) (domain.Player, error) {
	var dest model.Players
	err := table.Players.
		SELECT(table.Players.AllColumns).
		WHERE(idEq(table.Players.RankingID, rankingID).
			AND(table.Players.UserID.EQ(sqlite.String(userID)))).
		QueryContext(ctx, s.db, &dest)
	if err != nil {
		return domain.Player{}, notFound(err)
	}
	return convertPlayerToDomain(dest)
}

func (s *Storage) ListPlayers(ctx context.Context, rankingID uuid.UUID) ([]domain.Player, error) {
	var dest []model.Players
	err := table.Players.
		SELECT(table.Players.AllColumns).
		WHERE(idEq(table.Players.RankingID, rankingID)).
		ORDER_BY(table.Players.CreatedAt.ASC(), table.Players.ID.ASC()).
		QueryContext(ctx, s.db, &dest)
	if err != nil {
		return nil, err
	}
	return convertPlayersToDomain(dest)
}

func (s *Storage) UpdatePlayerRating(ctx context.Context, id uuid.UUID, rating domain.Rating) error {
	res, err := table.Players.
		UPDATE(table.Players.Mu, table.Players.Sigma).
		SET(sqlite.Float(rating.Mu), sqlite.Float(rating.Sigma)).
		WHERE(idEq(table.Players.ID, id)).
		ExecContext(ctx, s.db)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *Storage) SetPlayerDisabled(ctx context.Context, id uuid.UUID, disabled bool) error {
	res, err := table.Players.
		UPDATE(table.Players.Disabled).
		SET(sqlite.Bool(disabled)).
		WHERE(idEq(table.Players.ID, id)).
		ExecContext(ctx, s.db)
	if err != nil {
		return err
	}
	return checkAffected(res)
}
