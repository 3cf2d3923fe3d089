// Package audit records successful inventory mutations and serves the
// recent history.
package audit

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ayush/inventory-api/backend/internal/authctx"
	domainerrors "github.com/ayush/inventory-api/backend/internal/errors"
	"github.com/ayush/inventory-api/backend/internal/models"
	"github.com/ayush/inventory-api/backend/internal/response"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500

	recordTimeout = 2 * time.Second
)

// Log is the persistence behind the recorder.
type Log interface {
	Record(ctx context.Context, ev models.AuditEvent) error
	Recent(ctx context.Context, limit int) ([]models.AuditEvent, error)
}

// Recorder stamps and stores audit events. A nil Log disables recording.
type Recorder struct {
	log    Log
	logger *zap.Logger
}

func NewRecorder(log Log, logger *zap.Logger) *Recorder {
	return &Recorder{log: log, logger: logger}
}

// Record stores an event for the current user. Failures are logged only;
// the mutation has already committed.
func (r *Recorder) Record(ctx context.Context, action, entity string, entityID int64, name string) {
	if r == nil || r.log == nil {
		return
	}

	ev := models.AuditEvent{
		ID:       uuid.New().String(),
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Name:     name,
		UserID:   authctx.UserID(ctx),
		At:       time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := r.log.Record(ctx, ev); err != nil {
		r.logger.Warn("audit record failed",
			zap.String("action", action),
			zap.String("entity", entity),
			zap.Int64("entity_id", entityID),
			zap.Error(err),
		)
	}
}

// Recent returns up to limit events, newest first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]models.AuditEvent, error) {
	if r == nil || r.log == nil {
		return []models.AuditEvent{}, nil
	}
	return r.log.Recent(ctx, limit)
}

// Handler serves GET /audit.
type Handler struct {
	recorder *Recorder
	logger   *zap.Logger
}

func NewHandler(recorder *Recorder, logger *zap.Logger) *Handler {
	return &Handler{recorder: recorder, logger: logger}
}

// List returns recent events; ?limit= defaults to 50 and is capped at 500.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.HandleError(w, r, domainerrors.Validation("limit must be a positive integer"), h.logger)
			return
		}
		limit = min(n, MaxLimit)
	}

	events, err := h.recorder.Recent(r.Context(), limit)
	if err != nil {
		response.HandleError(w, r, err, h.logger)
		return
	}
	response.JSON(w, http.StatusOK, events)
}
