package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domainerrors "github.com/ayush/inventory-api/backend/internal/errors"
	"github.com/ayush/inventory-api/backend/internal/models"
)

// CreateUser inserts a user. Returns an ALREADY_EXISTS error on a duplicate
// username, including when a concurrent insert won the race.
func (s *SQLStore) CreateUser(ctx context.Context, username, hashedPassword string) (*models.User, error) {
	u := models.User{Username: username, CreatedAt: time.Now().UTC().Truncate(time.Second)}
	err := s.queryRow(ctx,
		`INSERT INTO users (username, password, created_at) VALUES (?, ?, ?) RETURNING id`,
		username, hashedPassword, u.CreatedAt.Unix(),
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domainerrors.AlreadyExists("User already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

// GetUserByUsername includes the password hash for credential checks.
func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, `SELECT id, username, password, created_at FROM users WHERE username = ?`, username)
}

func (s *SQLStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.getUser(ctx, `SELECT id, username, password, created_at FROM users WHERE id = ?`, id)
}

func (s *SQLStore) getUser(ctx context.Context, query string, arg any) (*models.User, error) {
	var (
		u         models.User
		createdAt int64
	)
	err := s.queryRow(ctx, query, arg).Scan(&u.ID, &u.Username, &u.Password, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.NotFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &u, nil
}
