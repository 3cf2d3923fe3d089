package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domainerrors "github.com/ayush/inventory-api/backend/internal/errors"
	"github.com/ayush/inventory-api/backend/internal/models"
)

// itemColumns must match the scan order in scanItem.
const itemColumns = `i.id, i.name, i.price, i.store_id, s.name`

const itemFrom = ` FROM items i JOIN stores s ON s.id = i.store_id`

func scanItem(sc scanner) (*models.Item, error) {
	var it models.Item
	if err := sc.Scan(&it.ID, &it.Name, &it.Price, &it.StoreID, &it.Store.Name); err != nil {
		return nil, err
	}
	it.Store.ID = it.StoreID
	it.Tags = []models.TagSummary{}
	return &it, nil
}

// CreateItem returns the new item id. A store_id that references no store
// is a validation error.
func (s *SQLStore) CreateItem(ctx context.Context, name string, price float64, storeID int64) (int64, error) {
	var id int64
	err := s.queryRow(ctx,
		`INSERT INTO items (name, price, store_id) VALUES (?, ?, ?) RETURNING id`,
		name, price, storeID,
	).Scan(&id)
	if err != nil {
		return 0, itemWriteError(err, name, storeID)
	}
	return id, nil
}

func itemWriteError(err error, name string, storeID int64) error {
	switch {
	case isUniqueViolation(err):
		return domainerrors.AlreadyExistsf("An item named %q already exists", name)
	case isForeignKeyViolation(err):
		return domainerrors.Validationf("store_id %d does not reference an existing store", storeID)
	default:
		return fmt.Errorf("write item: %w", err)
	}
}

// GetItemByID returns the item with its store and tags.
func (s *SQLStore) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	return s.getItem(ctx, `SELECT `+itemColumns+itemFrom+` WHERE i.id = ?`, id)
}

// GetItemByName returns the item with its store and tags.
func (s *SQLStore) GetItemByName(ctx context.Context, name string) (*models.Item, error) {
	return s.getItem(ctx, `SELECT `+itemColumns+itemFrom+` WHERE i.name = ?`, name)
}

func (s *SQLStore) getItem(ctx context.Context, query string, arg any) (*models.Item, error) {
	it, err := scanItem(s.queryRow(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.NotFound("Item not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	tags, err := s.ListTagsByItem(ctx, it.ID)
	if err != nil {
		return nil, err
	}
	it.Tags = tags
	return it, nil
}

// ListItems returns every item with its store and tags, ordered by id.
func (s *SQLStore) ListItems(ctx context.Context) ([]models.Item, error) {
	rows, err := s.query(ctx, `SELECT `+itemColumns+itemFrom+` ORDER BY i.id`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	items := []models.Item{}
	index := make(map[int64]int)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan item: %w", err)
		}
		index[it.ID] = len(items)
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	links, err := s.query(ctx, `
		SELECT it.item_id, t.id, t.name
		FROM items_tags it JOIN tags t ON t.id = it.tag_id
		ORDER BY it.item_id, t.id`)
	if err != nil {
		return nil, fmt.Errorf("list item tags: %w", err)
	}
	defer links.Close()
	for links.Next() {
		var (
			itemID int64
			tag    models.TagSummary
		)
		if err := links.Scan(&itemID, &tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("scan item tag: %w", err)
		}
		if i, ok := index[itemID]; ok {
			items[i].Tags = append(items[i].Tags, tag)
		}
	}
	return items, links.Err()
}

func (s *SQLStore) ListItemsByStore(ctx context.Context, storeID int64) ([]models.ItemSummary, error) {
	rows, err := s.query(ctx, `SELECT id, name, price FROM items WHERE store_id = ? ORDER BY id`, storeID)
	if err != nil {
		return nil, fmt.Errorf("list store items: %w", err)
	}
	defer rows.Close()

	items := []models.ItemSummary{}
	for rows.Next() {
		var it models.ItemSummary
		if err := rows.Scan(&it.ID, &it.Name, &it.Price); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *SQLStore) UpdateItem(ctx context.Context, id int64, name string, price float64) error {
	res, err := s.exec(ctx, `UPDATE items SET name = ?, price = ? WHERE id = ?`, name, price, id)
	if err != nil {
		return itemWriteError(err, name, 0)
	}
	return requireAffected(res, "Item not found")
}

// DeleteItem removes the item and its tag links.
func (s *SQLStore) DeleteItem(ctx context.Context, id int64) error {
	if _, err := s.exec(ctx, `DELETE FROM items_tags WHERE item_id = ?`, id); err != nil {
		return fmt.Errorf("delete item links: %w", err)
	}
	res, err := s.exec(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return requireAffected(res, "Item not found")
}

func requireAffected(res sql.Result, notFound string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domainerrors.NotFound(notFound)
	}
	return nil
}
