package inventory

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	domainerrors "github.com/ayush/inventory-api/backend/internal/errors"
	"github.com/ayush/inventory-api/backend/internal/models"
	"github.com/ayush/inventory-api/backend/internal/response"
	"github.com/ayush/inventory-api/backend/internal/validation"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler holds the item, store and tag HTTP handlers.
type Handler struct {
	svc       *Service
	validator *validation.Validator
	logger    *zap.Logger
}

func NewHandler(svc *Service, v *validation.Validator, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, validator: v, logger: logger}
}

func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domainerrors.Validation("invalid request body")
	}
	return h.validator.Validate(dst)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	response.HandleError(w, r, err, h.logger)
}

// nameParam returns the decoded {name} parameter. chi routes on RawPath
// when the path holds escapes such as %2F, leaving the parameter encoded.
func nameParam(r *http.Request) (string, error) {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath == "" {
		return name, nil
	}
	decoded, err := url.PathUnescape(name)
	if err != nil {
		return "", domainerrors.Validation("name is not a valid path segment")
	}
	return decoded, nil
}

func idParam(r *http.Request, key string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		return 0, domainerrors.Validationf("%s must be a positive integer", key)
	}
	return id, nil
}

// ── Items ────────────────────────────────────────────────

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListItems(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, items)
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	name, err := nameParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	item, err := h.svc.GetItem(r.Context(), name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, item)
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req models.CreateItemRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	item, err := h.svc.CreateItem(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, item)
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateItemRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	name, err := nameParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	item, err := h.svc.UpdateItem(r.Context(), name, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, item)
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	name, err := nameParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.DeleteItem(r.Context(), name); err != nil {
		h.fail(w, r, err)
		return
	}
	response.Message(w, http.StatusOK, "Item deleted")
}

func (h *Handler) PutItemImage(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxImageSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, r, domainerrors.Validationf("image exceeds %d bytes", MaxImageSize))
			return
		}
		h.fail(w, r, domainerrors.Validation("could not read image body"))
		return
	}

	name, err := nameParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	item, err := h.svc.SetItemImage(r.Context(), name, data)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, item)
}

func (h *Handler) GetItemImage(w http.ResponseWriter, r *http.Request) {
	name, err := nameParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	data, contentType, err := h.svc.ItemImage(r.Context(), name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

// ── Links ────────────────────────────────────────────────

func (h *Handler) LinkTag(w http.ResponseWriter, r *http.Request) {
	itemID, err := idParam(r, "item_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	tagID, err := idParam(r, "tag_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out, err := h.svc.LinkTag(r.Context(), itemID, tagID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, out)
}

func (h *Handler) UnlinkTag(w http.ResponseWriter, r *http.Request) {
	itemID, err := idParam(r, "item_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	tagID, err := idParam(r, "tag_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.svc.UnlinkTag(r.Context(), itemID, tagID); err != nil {
		h.fail(w, r, err)
		return
	}
	response.Message(w, http.StatusOK, "Tag removed from item.")
}

// ── Stores ───────────────────────────────────────────────

func (h *Handler) ListStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.svc.ListStores(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, stores)
}

func (h *Handler) GetStore(w http.ResponseWriter, r *http.Request) {
	name, err := nameParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	st, err := h.svc.GetStore(r.Context(), name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, st)
}

func (h *Handler) CreateStore(w http.ResponseWriter, r *http.Request) {
	var req models.CreateStoreRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	st, err := h.svc.CreateStore(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, st)
}

// ExportStore streams the store's workbook as an attachment.
func (h *Handler) ExportStore(w http.ResponseWriter, r *http.Request) {
	name, err := nameParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	data, err := h.svc.ExportStore(r.Context(), name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": "store-" + name + ".xlsx",
	}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

// ── Tags ─────────────────────────────────────────────────

func (h *Handler) GetTag(w http.ResponseWriter, r *http.Request) {
	name, err := nameParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	tag, err := h.svc.GetTag(r.Context(), name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, tag)
}

func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTagRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	tag, err := h.svc.CreateTag(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, tag)
}

func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.DeleteTag(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	response.Message(w, http.StatusOK, "Tag deleted.")
}
