package inventory

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ayush/inventory-api/backend/internal/audit"
	domainerrors "github.com/ayush/inventory-api/backend/internal/errors"
	"github.com/ayush/inventory-api/backend/internal/models"
	"github.com/ayush/inventory-api/backend/internal/store"
)

// pngHeader is enough for http.DetectContentType to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type memImages struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemImages() *memImages {
	return &memImages{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memImages) Upload(_ context.Context, key string, data []byte, ct string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = ct
	return nil
}

func (m *memImages) Download(_ context.Context, key string) ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, "", domainerrors.NotFound("Image not found")
	}
	return data, m.types[key], nil
}

func (m *memImages) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

type memLog struct {
	mu     sync.Mutex
	events []models.AuditEvent
}

func (l *memLog) Record(_ context.Context, ev models.AuditEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	return nil
}

func (l *memLog) Recent(_ context.Context, limit int) ([]models.AuditEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []models.AuditEvent{}
	for i := len(l.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, l.events[i])
	}
	return out, nil
}

func (l *memLog) actions() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.events))
	for _, ev := range l.events {
		out = append(out, ev.Action+":"+ev.Entity)
	}
	return out
}

type fixture struct {
	svc    *Service
	repo   *store.SQLStore
	images *memImages
	log    *memLog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := store.Open(context.Background(), store.DialectSQLite, filepath.Join(t.TempDir(), "inv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := store.NewSQLStore(db, store.DialectSQLite)
	images := newMemImages()
	log := &memLog{}
	svc := NewService(repo, images, audit.NewRecorder(log, zap.NewNop()), zap.NewNop())
	return &fixture{svc: svc, repo: repo, images: images, log: log}
}

func price(v float64) *float64 { return &v }

func (f *fixture) seed(t *testing.T) (*models.Store, *models.Item, *models.Tag) {
	t.Helper()
	ctx := context.Background()
	st, err := f.svc.CreateStore(ctx, models.CreateStoreRequest{Name: "A"})
	require.NoError(t, err)
	item, err := f.svc.CreateItem(ctx, models.CreateItemRequest{Name: "x", Price: price(1.5), StoreID: st.ID})
	require.NoError(t, err)
	tag, err := f.svc.CreateTag(ctx, models.CreateTagRequest{Name: "sale", StoreID: st.ID})
	require.NoError(t, err)
	return st, item, tag
}

func TestCreateItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st, item, _ := f.seed(t)

	assert.Equal(t, "x", item.Name)
	assert.Equal(t, 1.5, item.Price)
	assert.Equal(t, models.StoreSummary{ID: st.ID, Name: "A"}, item.Store)
	assert.Empty(t, item.Tags)

	_, err := f.svc.CreateItem(ctx, models.CreateItemRequest{Name: "x", Price: price(2), StoreID: st.ID})
	assert.True(t, errors.Is(err, domainerrors.ErrAlreadyExists))

	_, err = f.svc.CreateItem(ctx, models.CreateItemRequest{Name: "y", Price: price(2), StoreID: 99})
	assert.True(t, errors.Is(err, domainerrors.ErrValidation))

	assert.Equal(t, []string{"create:store", "create:item", "create:tag"}, f.log.actions())
}

func TestGetStore_NestsItemsAndTags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st, item, tag := f.seed(t)

	got, err := f.svc.GetStore(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, st.ID, got.ID)
	assert.Equal(t, []models.ItemSummary{{ID: item.ID, Name: "x", Price: 1.5}}, got.Items)
	assert.Equal(t, []models.TagSummary{{ID: tag.ID, Name: "sale"}}, got.Tags)

	_, err = f.svc.GetStore(ctx, "B")
	assert.True(t, errors.Is(err, domainerrors.ErrNotFound))
}

func TestUpdateItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st, _, _ := f.seed(t)

	newName := "x2"
	item, err := f.svc.UpdateItem(ctx, "x", models.UpdateItemRequest{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "x2", item.Name)
	assert.Equal(t, 1.5, item.Price, "price untouched")

	item, err = f.svc.UpdateItem(ctx, "x2", models.UpdateItemRequest{Price: price(9)})
	require.NoError(t, err)
	assert.Equal(t, 9.0, item.Price)

	_, err = f.svc.CreateItem(ctx, models.CreateItemRequest{Name: "y", Price: price(1), StoreID: st.ID})
	require.NoError(t, err)
	_, err = f.svc.UpdateItem(ctx, "y", models.UpdateItemRequest{Name: &newName})
	assert.True(t, errors.Is(err, domainerrors.ErrAlreadyExists))

	_, err = f.svc.UpdateItem(ctx, "missing", models.UpdateItemRequest{Price: price(1)})
	assert.True(t, errors.Is(err, domainerrors.ErrNotFound))
}

func TestDeleteItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, item, tag := f.seed(t)

	_, err := f.svc.LinkTag(ctx, item.ID, tag.ID)
	require.NoError(t, err)
	_, err = f.svc.SetItemImage(ctx, "x", pngHeader)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteItem(ctx, "x"))

	_, err = f.svc.GetItem(ctx, "x")
	assert.True(t, errors.Is(err, domainerrors.ErrNotFound))
	assert.Empty(t, f.images.objects, "image removed with the item")

	n, err := f.repo.CountItemsForTag(ctx, tag.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.True(t, errors.Is(f.svc.DeleteItem(ctx, "x"), domainerrors.ErrNotFound))
}

func TestDeleteTag_GuardedByLinks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, item, tag := f.seed(t)

	_, err := f.svc.LinkTag(ctx, item.ID, tag.ID)
	require.NoError(t, err)

	err = f.svc.DeleteTag(ctx, tag.ID)
	assert.True(t, errors.Is(err, domainerrors.ErrConflict))

	got, err := f.svc.GetTag(ctx, "sale")
	require.NoError(t, err, "tag survives a refused delete")
	assert.Equal(t, tag.ID, got.ID)
	linked, err := f.svc.GetItem(ctx, "x")
	require.NoError(t, err)
	assert.Len(t, linked.Tags, 1, "links survive a refused delete")

	require.NoError(t, f.svc.UnlinkTag(ctx, item.ID, tag.ID))
	require.NoError(t, f.svc.DeleteTag(ctx, tag.ID))
	assert.True(t, errors.Is(f.svc.DeleteTag(ctx, tag.ID), domainerrors.ErrNotFound))
}

func TestLinkTag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, item, tag := f.seed(t)

	out, err := f.svc.LinkTag(ctx, item.ID, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tag attached to item.", out.Message)
	assert.Equal(t, []models.TagSummary{{ID: tag.ID, Name: "sale"}}, out.Item.Tags)
	assert.Equal(t, tag.ID, out.Tag.ID)

	out, err = f.svc.LinkTag(ctx, item.ID, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tag already attached to item.", out.Message)
	assert.Len(t, out.Item.Tags, 1, "no duplicate link")

	_, err = f.svc.LinkTag(ctx, 999, tag.ID)
	assert.True(t, errors.Is(err, domainerrors.ErrNotFound))
	_, err = f.svc.LinkTag(ctx, item.ID, 999)
	assert.True(t, errors.Is(err, domainerrors.ErrNotFound))

	other, err := f.svc.CreateStore(ctx, models.CreateStoreRequest{Name: "B"})
	require.NoError(t, err)
	foreign, err := f.svc.CreateTag(ctx, models.CreateTagRequest{Name: "foreign", StoreID: other.ID})
	require.NoError(t, err)
	_, err = f.svc.LinkTag(ctx, item.ID, foreign.ID)
	assert.True(t, errors.Is(err, domainerrors.ErrValidation))

	links := 0
	for _, a := range f.log.actions() {
		if a == "link:item" {
			links++
		}
	}
	assert.Equal(t, 1, links, "idempotent relink is not audited")
}

func TestUnlinkTag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, item, tag := f.seed(t)

	err := f.svc.UnlinkTag(ctx, item.ID, tag.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrValidation))
	var domainErr *domainerrors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "Tag not attached to item.", domainErr.Message)

	assert.True(t, errors.Is(f.svc.UnlinkTag(ctx, 999, tag.ID), domainerrors.ErrNotFound))
	assert.True(t, errors.Is(f.svc.UnlinkTag(ctx, item.ID, 999), domainerrors.ErrNotFound))
}

func TestCreateTag_MissingStore(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateTag(context.Background(), models.CreateTagRequest{Name: "t", StoreID: 5})
	assert.True(t, errors.Is(err, domainerrors.ErrValidation))
}

func TestItemImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t)

	_, _, err := f.svc.ItemImage(ctx, "x")
	assert.True(t, errors.Is(err, domainerrors.ErrNotFound))

	_, err = f.svc.SetItemImage(ctx, "x", []byte("plain text, not an image"))
	assert.True(t, errors.Is(err, domainerrors.ErrValidation))

	_, err = f.svc.SetItemImage(ctx, "missing", pngHeader)
	assert.True(t, errors.Is(err, domainerrors.ErrNotFound))

	_, err = f.svc.SetItemImage(ctx, "x", pngHeader)
	require.NoError(t, err)

	data, ct, err := f.svc.ItemImage(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
	assert.Equal(t, "image/png", ct)
}

func TestItemImage_Disabled(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.repo, nil, nil, zap.NewNop())

	_, err := svc.SetItemImage(context.Background(), "x", pngHeader)
	assert.True(t, errors.Is(err, domainerrors.ErrUnavailable))
	_, _, err = svc.ItemImage(context.Background(), "x")
	assert.True(t, errors.Is(err, domainerrors.ErrUnavailable))
}
