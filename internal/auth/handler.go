package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/inventory-api/backend/internal/audit"
	"github.com/ayush/inventory-api/backend/internal/authctx"
	domainerrors "github.com/ayush/inventory-api/backend/internal/errors"
	"github.com/ayush/inventory-api/backend/internal/models"
	"github.com/ayush/inventory-api/backend/internal/response"
	"github.com/ayush/inventory-api/backend/internal/validation"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, username, hashedPassword string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	users     UserStore
	tokens    *TokenService
	revoked   RevocationList
	validator *validation.Validator
	audit     *audit.Recorder
	logger    *zap.Logger
	cost      int
}

func NewHandler(users UserStore, tokens *TokenService, revoked RevocationList, v *validation.Validator, rec *audit.Recorder, logger *zap.Logger) *Handler {
	return &Handler{
		users:     users,
		tokens:    tokens,
		revoked:   revoked,
		validator: v,
		audit:     rec,
		logger:    logger,
		cost:      bcrypt.DefaultCost,
	}
}

// SetHashCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func (h *Handler) SetHashCost(cost int) { h.cost = cost }

func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domainerrors.Validation("invalid request body")
	}
	return h.validator.Validate(dst)
}

// Register creates a new user.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := h.decode(r, &req); err != nil {
		response.HandleError(w, r, err, h.logger)
		return
	}

	hashed, err := hashPassword(req.Password, h.cost)
	if err != nil {
		response.HandleError(w, r, err, h.logger)
		return
	}

	user, err := h.users.CreateUser(r.Context(), req.Username, hashed)
	if err != nil {
		response.HandleError(w, r, err, h.logger)
		return
	}

	h.audit.Record(r.Context(), models.ActionCreate, "user", user.ID, user.Username)
	h.logger.Info("user registered", zap.Int64("user_id", user.ID))
	response.Message(w, http.StatusCreated, "User created successfully")
}

// Login checks credentials and issues an access token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := h.decode(r, &req); err != nil {
		response.HandleError(w, r, err, h.logger)
		return
	}

	user, err := h.users.GetUserByUsername(r.Context(), req.Username)
	if err != nil && !domainerrors.Is(err, domainerrors.ErrNotFound) {
		response.HandleError(w, r, err, h.logger)
		return
	}

	hash := string(dummyHash)
	if user != nil {
		hash = user.Password
	}
	if !checkPassword(hash, req.Password) || user == nil {
		response.HandleError(w, r, domainerrors.ErrInvalidCredentials, h.logger)
		return
	}

	response.JSON(w, http.StatusOK, models.TokenResponse{AccessToken: h.tokens.Issue(user.ID)})
}

// Logout revokes the token that authenticated the request.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	id, ok := authctx.FromContext(r.Context())
	if !ok {
		response.HandleError(w, r, domainerrors.Unauthorized("not authenticated"), h.logger)
		return
	}

	if err := h.revoked.Revoke(r.Context(), id.TokenID, id.ExpiresAt); err != nil {
		response.HandleError(w, r, err, h.logger)
		return
	}
	response.Message(w, http.StatusOK, "Logged out")
}

// Me returns the currently authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := authctx.FromContext(r.Context())
	if !ok {
		response.HandleError(w, r, domainerrors.Unauthorized("not authenticated"), h.logger)
		return
	}

	user, err := h.users.GetUserByID(r.Context(), id.UserID)
	if err != nil {
		response.HandleError(w, r, err, h.logger)
		return
	}
	response.JSON(w, http.StatusOK, user)
}
