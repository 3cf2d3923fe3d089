package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domainerrors "github.com/ayush/inventory-api/backend/internal/errors"
	"github.com/ayush/inventory-api/backend/internal/models"
)

func (s *SQLStore) CreateStore(ctx context.Context, name string) (*models.StoreSummary, error) {
	st := models.StoreSummary{Name: name}
	err := s.queryRow(ctx, `INSERT INTO stores (name) VALUES (?) RETURNING id`, name).Scan(&st.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domainerrors.AlreadyExistsf("A store named %q already exists", name)
		}
		return nil, fmt.Errorf("create store: %w", err)
	}
	return &st, nil
}

func (s *SQLStore) GetStoreByID(ctx context.Context, id int64) (*models.StoreSummary, error) {
	return s.getStore(ctx, `SELECT id, name FROM stores WHERE id = ?`, id)
}

func (s *SQLStore) GetStoreByName(ctx context.Context, name string) (*models.StoreSummary, error) {
	return s.getStore(ctx, `SELECT id, name FROM stores WHERE name = ?`, name)
}

func (s *SQLStore) getStore(ctx context.Context, query string, arg any) (*models.StoreSummary, error) {
	var st models.StoreSummary
	err := s.queryRow(ctx, query, arg).Scan(&st.ID, &st.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.NotFound("Store not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get store: %w", err)
	}
	return &st, nil
}

func (s *SQLStore) ListStores(ctx context.Context) ([]models.StoreSummary, error) {
	rows, err := s.query(ctx, `SELECT id, name FROM stores ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	defer rows.Close()

	stores := []models.StoreSummary{}
	for rows.Next() {
		var st models.StoreSummary
		if err := rows.Scan(&st.ID, &st.Name); err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		stores = append(stores, st)
	}
	return stores, rows.Err()
}
