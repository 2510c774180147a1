package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/goserg/rankings/internal/config"
	sqlite3 "github.com/goserg/rankings/internal/migrate"
	"github.com/goserg/rankings/internal/storage"

	"github.com/go-jet/jet/v2/qrm"
	"github.com/go-jet/jet/v2/sqlite"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

type Storage struct {
	db  *sql.DB
	log *logrus.Entry
}

var _ storage.Storage = (*Storage)(nil)

func New(l *logrus.Logger, cfg config.Storage) (*Storage, error) {
	return Open(l, buildSource(cfg.SqliteFile))
}

// Open connects to the given sqlite data source and applies migrations.
func Open(l *logrus.Logger, source string) (*Storage, error) {
	log := l.WithFields(map[string]interface{}{
		"from": "sqlite-storage",
	})
	db, err := sql.Open("sqlite3", source)
	if err != nil {
		return nil, err
	}
	// A single connection serialises transactions, queue pops rely on it.
	db.SetMaxOpenConns(1)

	err = sqlite3.Up(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, err
	}
	log.Info("storage connected")
	return &Storage{
		db:  db,
		log: log,
	}, nil
}

func buildSource(fileName string) string {
	return "file:" + fileName + "?cache=shared"
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for maintenance commands.
func (s *Storage) DB() *sql.DB {
	return s.db
}

func (s *Storage) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func notFound(err error) error {
	if errors.Is(err, qrm.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	return err
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func idExpressions(ids []uuid.UUID) []sqlite.Expression {
	exprs := make([]sqlite.Expression, 0, len(ids))
	for _, id := range ids {
		exprs = append(exprs, sqlite.String(id.String()))
	}
	return exprs
}

func stringExpressions(ids []string) []sqlite.Expression {
	exprs := make([]sqlite.Expression, 0, len(ids))
	for _, id := range ids {
		exprs = append(exprs, sqlite.String(id))
	}
	return exprs
}

func idEq(column sqlite.ColumnString, id uuid.UUID) sqlite.BoolExpression {
	return column.EQ(sqlite.String(id.String()))
}

// limitOffset applies paging. sqlite rejects OFFSET without LIMIT.
func limitOffset(stmt sqlite.SelectStatement, limit, offset int) sqlite.SelectStatement {
	if limit > 0 {
		stmt = stmt.LIMIT(int64(limit))
	} else if offset > 0 {
		stmt = stmt.LIMIT(math.MaxInt32)
	}
	if offset > 0 {
		stmt = stmt.OFFSET(int64(offset))
	}
	return stmt
}

