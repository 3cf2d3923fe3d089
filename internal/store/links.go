package store

import (
	"context"
	"fmt"
)

func (s *SQLStore) CountItemsForTag(ctx context.Context, tagID int64) (int, error) {
	var n int
	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM items_tags WHERE tag_id = ?`, tagID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tag links: %w", err)
	}
	return n, nil
}

// LinkTag attaches a tag to an item. It reports false, with no error, when
// the pair is already linked.
func (s *SQLStore) LinkTag(ctx context.Context, itemID, tagID int64) (bool, error) {
	res, err := s.exec(ctx, `
		INSERT INTO items_tags (item_id, tag_id) VALUES (?, ?)
		ON CONFLICT (item_id, tag_id) DO NOTHING`, itemID, tagID)
	if err != nil {
		return false, fmt.Errorf("link tag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// UnlinkTag detaches a tag from an item. It reports false when the pair
// was not linked.
func (s *SQLStore) UnlinkTag(ctx context.Context, itemID, tagID int64) (bool, error) {
	res, err := s.exec(ctx, `DELETE FROM items_tags WHERE item_id = ? AND tag_id = ?`, itemID, tagID)
	if err != nil {
		return false, fmt.Errorf("unlink tag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
