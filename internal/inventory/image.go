package inventory

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	domainerrors "github.com/ayush/inventory-api/backend/internal/errors"
	"github.com/ayush/inventory-api/backend/internal/models"
)

// MaxImageSize bounds uploaded item images.
const MaxImageSize = 5 << 20

// ImageStore defines the interface for item image storage.
type ImageStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, string, error)
	Remove(ctx context.Context, key string) error
}

var errImagesDisabled = domainerrors.Unavailable("Image storage is not configured")

func imageKey(itemID int64) string {
	return "items/" + strconv.FormatInt(itemID, 10)
}

// detectImageType sniffs data and rejects anything that is not an image.
func detectImageType(data []byte) (string, error) {
	if len(data) == 0 {
		return "", domainerrors.Validation("image body is empty")
	}
	if len(data) > MaxImageSize {
		return "", domainerrors.Validationf("image exceeds %d bytes", MaxImageSize)
	}
	ct := http.DetectContentType(data)
	if !strings.HasPrefix(ct, "image/") {
		return "", domainerrors.Validationf("unsupported content type %q", ct)
	}
	return ct, nil
}

// SetItemImage stores data as the image of the named item, replacing any
// previous one.
func (s *Service) SetItemImage(ctx context.Context, name string, data []byte) (*models.Item, error) {
	if s.images == nil {
		return nil, errImagesDisabled
	}
	ct, err := detectImageType(data)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.GetItemByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.images.Upload(ctx, imageKey(item.ID), data, ct); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.ActionUpdate, entityItem, item.ID, item.Name)
	return item, nil
}

// ItemImage returns the stored image and its content type.
func (s *Service) ItemImage(ctx context.Context, name string) ([]byte, string, error) {
	if s.images == nil {
		return nil, "", errImagesDisabled
	}
	item, err := s.repo.GetItemByName(ctx, name)
	if err != nil {
		return nil, "", err
	}
	return s.images.Download(ctx, imageKey(item.ID))
}
