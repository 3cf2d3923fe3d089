// Package inventory implements the item, store, tag and link operations
// on top of the repository.
package inventory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ayush/inventory-api/backend/internal/audit"
	domainerrors "github.com/ayush/inventory-api/backend/internal/errors"
	"github.com/ayush/inventory-api/backend/internal/models"
	"github.com/ayush/inventory-api/backend/internal/store"
)

const (
	entityItem  = "item"
	entityStore = "store"
	entityTag   = "tag"
)

// Service holds the inventory rules. Multi-step operations run inside a
// repository transaction.
type Service struct {
	repo   store.Repository
	images ImageStore
	audit  *audit.Recorder
	logger *zap.Logger
}

// NewService wires the service. images may be nil when object storage is
// not configured.
func NewService(repo store.Repository, images ImageStore, rec *audit.Recorder, logger *zap.Logger) *Service {
	return &Service{repo: repo, images: images, audit: rec, logger: logger}
}

// requireStore maps a missing store to a validation error, since callers
// name it in the request body rather than the path.
func requireStore(ctx context.Context, repo store.Repository, storeID int64) error {
	_, err := repo.GetStoreByID(ctx, storeID)
	if domainerrors.Is(err, domainerrors.ErrNotFound) {
		return domainerrors.Validationf("store_id %d does not reference an existing store", storeID)
	}
	return err
}

func (s *Service) GetItem(ctx context.Context, name string) (*models.Item, error) {
	return s.repo.GetItemByName(ctx, name)
}

func (s *Service) ListItems(ctx context.Context) ([]models.Item, error) {
	return s.repo.ListItems(ctx)
}

func (s *Service) CreateItem(ctx context.Context, req models.CreateItemRequest) (*models.Item, error) {
	var item *models.Item
	err := s.repo.WithTx(ctx, func(tx store.Repository) error {
		if err := requireStore(ctx, tx, req.StoreID); err != nil {
			return err
		}
		id, err := tx.CreateItem(ctx, req.Name, *req.Price, req.StoreID)
		if err != nil {
			return err
		}
		item, err = tx.GetItemByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.ActionCreate, entityItem, item.ID, item.Name)
	return item, nil
}

// UpdateItem applies the fields present in req to the named item.
func (s *Service) UpdateItem(ctx context.Context, name string, req models.UpdateItemRequest) (*models.Item, error) {
	var item *models.Item
	err := s.repo.WithTx(ctx, func(tx store.Repository) error {
		current, err := tx.GetItemByName(ctx, name)
		if err != nil {
			return err
		}
		newName, price := current.Name, current.Price
		if req.Name != nil {
			newName = *req.Name
		}
		if req.Price != nil {
			price = *req.Price
		}
		if err := tx.UpdateItem(ctx, current.ID, newName, price); err != nil {
			return err
		}
		item, err = tx.GetItemByID(ctx, current.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.ActionUpdate, entityItem, item.ID, item.Name)
	return item, nil
}

// DeleteItem removes the item, its links and its image.
func (s *Service) DeleteItem(ctx context.Context, name string) error {
	var id int64
	err := s.repo.WithTx(ctx, func(tx store.Repository) error {
		item, err := tx.GetItemByName(ctx, name)
		if err != nil {
			return err
		}
		id = item.ID
		return tx.DeleteItem(ctx, id)
	})
	if err != nil {
		return err
	}

	if s.images != nil {
		if err := s.images.Remove(ctx, imageKey(id)); err != nil {
			s.logger.Warn("remove item image failed", zap.Int64("item_id", id), zap.Error(err))
		}
	}
	s.audit.Record(ctx, models.ActionDelete, entityItem, id, name)
	return nil
}

func (s *Service) CreateStore(ctx context.Context, req models.CreateStoreRequest) (*models.Store, error) {
	st, err := s.repo.CreateStore(ctx, req.Name)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.ActionCreate, entityStore, st.ID, st.Name)
	return &models.Store{ID: st.ID, Name: st.Name, Items: []models.ItemSummary{}, Tags: []models.TagSummary{}}, nil
}

// GetStore returns the named store with its items and tags.
func (s *Service) GetStore(ctx context.Context, name string) (*models.Store, error) {
	var out *models.Store
	err := s.repo.WithTx(ctx, func(tx store.Repository) error {
		st, err := tx.GetStoreByName(ctx, name)
		if err != nil {
			return err
		}
		items, err := tx.ListItemsByStore(ctx, st.ID)
		if err != nil {
			return err
		}
		tags, err := tx.ListTagsByStore(ctx, st.ID)
		if err != nil {
			return err
		}
		out = &models.Store{ID: st.ID, Name: st.Name, Items: items, Tags: tags}
		return nil
	})
	return out, err
}

func (s *Service) ListStores(ctx context.Context) ([]models.StoreSummary, error) {
	return s.repo.ListStores(ctx)
}

func (s *Service) CreateTag(ctx context.Context, req models.CreateTagRequest) (*models.Tag, error) {
	var tag *models.Tag
	err := s.repo.WithTx(ctx, func(tx store.Repository) error {
		if err := requireStore(ctx, tx, req.StoreID); err != nil {
			return err
		}
		id, err := tx.CreateTag(ctx, req.Name, req.StoreID)
		if err != nil {
			return err
		}
		tag, err = tx.GetTagByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.ActionCreate, entityTag, tag.ID, tag.Name)
	return tag, nil
}

func (s *Service) GetTag(ctx context.Context, name string) (*models.Tag, error) {
	return s.repo.GetTagByName(ctx, name)
}

// DeleteTag removes a tag that no item uses. A tag still linked to items
// is left untouched and a CONFLICT error is returned.
func (s *Service) DeleteTag(ctx context.Context, id int64) error {
	var name string
	err := s.repo.WithTx(ctx, func(tx store.Repository) error {
		tag, err := tx.GetTagByID(ctx, id)
		if err != nil {
			return err
		}
		name = tag.Name

		n, err := tx.CountItemsForTag(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return domainerrors.Conflict(fmt.Sprintf("Tag is linked to %d item(s).", n))
		}
		return tx.DeleteTag(ctx, id)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, models.ActionDelete, entityTag, id, name)
	return nil
}

// LinkTag attaches a tag to an item of the same store. Linking twice is a
// no-op reported in the message.
func (s *Service) LinkTag(ctx context.Context, itemID, tagID int64) (*models.TagAndItem, error) {
	var (
		out     *models.TagAndItem
		created bool
	)
	err := s.repo.WithTx(ctx, func(tx store.Repository) error {
		item, err := tx.GetItemByID(ctx, itemID)
		if err != nil {
			return err
		}
		tag, err := tx.GetTagByID(ctx, tagID)
		if err != nil {
			return err
		}
		if tag.StoreID != item.StoreID {
			return domainerrors.Validation("Tag and item belong to different stores.")
		}

		created, err = tx.LinkTag(ctx, itemID, tagID)
		if err != nil {
			return err
		}
		if item, err = tx.GetItemByID(ctx, itemID); err != nil {
			return err
		}

		msg := "Tag attached to item."
		if !created {
			msg = "Tag already attached to item."
		}
		out = &models.TagAndItem{Message: msg, Item: item, Tag: tag}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		s.audit.Record(ctx, models.ActionLink, entityItem, itemID, out.Tag.Name)
	}
	return out, nil
}

// UnlinkTag detaches a tag from an item.
func (s *Service) UnlinkTag(ctx context.Context, itemID, tagID int64) error {
	var tagName string
	err := s.repo.WithTx(ctx, func(tx store.Repository) error {
		if _, err := tx.GetItemByID(ctx, itemID); err != nil {
			return err
		}
		tag, err := tx.GetTagByID(ctx, tagID)
		if err != nil {
			return err
		}
		tagName = tag.Name

		removed, err := tx.UnlinkTag(ctx, itemID, tagID)
		if err != nil {
			return err
		}
		if !removed {
			return domainerrors.Validation("Tag not attached to item.")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, models.ActionUnlink, entityItem, itemID, tagName)
	return nil
}
