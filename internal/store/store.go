package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ayush/inventory-api/backend/internal/models"
)

// Repository is the persistence contract for users and the inventory.
// Values returned are owned snapshots; nothing is lazily loaded.
type Repository interface {
	// WithTx runs fn against a transaction-bound repository. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(Repository) error) error
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, username, hashedPassword string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)

	CreateStore(ctx context.Context, name string) (*models.StoreSummary, error)
	GetStoreByID(ctx context.Context, id int64) (*models.StoreSummary, error)
	GetStoreByName(ctx context.Context, name string) (*models.StoreSummary, error)
	ListStores(ctx context.Context) ([]models.StoreSummary, error)

	CreateItem(ctx context.Context, name string, price float64, storeID int64) (int64, error)
	GetItemByID(ctx context.Context, id int64) (*models.Item, error)
	GetItemByName(ctx context.Context, name string) (*models.Item, error)
	ListItems(ctx context.Context) ([]models.Item, error)
	ListItemsByStore(ctx context.Context, storeID int64) ([]models.ItemSummary, error)
	UpdateItem(ctx context.Context, id int64, name string, price float64) error
	DeleteItem(ctx context.Context, id int64) error

	CreateTag(ctx context.Context, name string, storeID int64) (int64, error)
	GetTagByID(ctx context.Context, id int64) (*models.Tag, error)
	GetTagByName(ctx context.Context, name string) (*models.Tag, error)
	ListTagsByStore(ctx context.Context, storeID int64) ([]models.TagSummary, error)
	DeleteTag(ctx context.Context, id int64) error

	ListTagsByItem(ctx context.Context, itemID int64) ([]models.TagSummary, error)
	CountItemsForTag(ctx context.Context, tagID int64) (int, error)
	LinkTag(ctx context.Context, itemID, tagID int64) (bool, error)
	UnlinkTag(ctx context.Context, itemID, tagID int64) (bool, error)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore implements Repository on database/sql.
type SQLStore struct {
	db      *sql.DB
	q       querier
	dialect Dialect
	inTx    bool
}

var _ Repository = (*SQLStore)(nil)

func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, q: db, dialect: dialect}
}

func (s *SQLStore) WithTx(ctx context.Context, fn func(Repository) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&SQLStore{db: s.db, q: tx, dialect: s.dialect, inTx: true}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.q.ExecContext(ctx, rebind(s.dialect, query), args...)
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.q.QueryContext(ctx, rebind(s.dialect, query), args...)
}

func (s *SQLStore) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.q.QueryRowContext(ctx, rebind(s.dialect, query), args...)
}

// Postgres SQLSTATE codes.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

type scanner interface {
	Scan(dest ...any) error
}
