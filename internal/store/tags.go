package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domainerrors "github.com/ayush/inventory-api/backend/internal/errors"
	"github.com/ayush/inventory-api/backend/internal/models"
)

const tagSelect = `SELECT t.id, t.name, t.store_id, s.name FROM tags t JOIN stores s ON s.id = t.store_id`

// CreateTag returns the new tag id. Tag names are not unique.
func (s *SQLStore) CreateTag(ctx context.Context, name string, storeID int64) (int64, error) {
	var id int64
	err := s.queryRow(ctx,
		`INSERT INTO tags (name, store_id) VALUES (?, ?) RETURNING id`, name, storeID,
	).Scan(&id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, domainerrors.Validationf("store_id %d does not reference an existing store", storeID)
		}
		return 0, fmt.Errorf("create tag: %w", err)
	}
	return id, nil
}

func (s *SQLStore) GetTagByID(ctx context.Context, id int64) (*models.Tag, error) {
	return s.getTag(ctx, tagSelect+` WHERE t.id = ?`, id)
}

// GetTagByName returns the oldest tag with the given name.
func (s *SQLStore) GetTagByName(ctx context.Context, name string) (*models.Tag, error) {
	return s.getTag(ctx, tagSelect+` WHERE t.name = ? ORDER BY t.id LIMIT 1`, name)
}

func (s *SQLStore) getTag(ctx context.Context, query string, arg any) (*models.Tag, error) {
	var t models.Tag
	err := s.queryRow(ctx, query, arg).Scan(&t.ID, &t.Name, &t.StoreID, &t.Store.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.NotFound("Tag not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get tag: %w", err)
	}
	t.Store.ID = t.StoreID
	return &t, nil
}

func (s *SQLStore) ListTagsByStore(ctx context.Context, storeID int64) ([]models.TagSummary, error) {
	return s.listTags(ctx, `SELECT id, name FROM tags WHERE store_id = ? ORDER BY id`, storeID)
}

func (s *SQLStore) ListTagsByItem(ctx context.Context, itemID int64) ([]models.TagSummary, error) {
	return s.listTags(ctx, `
		SELECT t.id, t.name
		FROM tags t JOIN items_tags it ON it.tag_id = t.id
		WHERE it.item_id = ?
		ORDER BY t.id`, itemID)
}

func (s *SQLStore) listTags(ctx context.Context, query string, arg any) ([]models.TagSummary, error) {
	rows, err := s.query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	tags := []models.TagSummary{}
	for rows.Next() {
		var t models.TagSummary
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (s *SQLStore) DeleteTag(ctx context.Context, id int64) error {
	res, err := s.exec(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return requireAffected(res, "Tag not found")
}
