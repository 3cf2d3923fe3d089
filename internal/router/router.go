// Package router assembles the HTTP API.
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ayush/inventory-api/backend/internal/audit"
	"github.com/ayush/inventory-api/backend/internal/auth"
	"github.com/ayush/inventory-api/backend/internal/inventory"
	"github.com/ayush/inventory-api/backend/internal/middleware"
	"github.com/ayush/inventory-api/backend/internal/response"
	"github.com/ayush/inventory-api/backend/internal/store"
	"github.com/ayush/inventory-api/backend/internal/validation"
)

const healthTimeout = 2 * time.Second

// Deps are the collaborators the router wires into handlers. Tokens,
// Revoked and LoginLimiter are only used when AuthEnabled is set. Images
// and AuditLog may be nil.
type Deps struct {
	Logger       *zap.Logger
	Repo         store.Repository
	AuthEnabled  bool
	Tokens       *auth.TokenService
	Revoked      auth.RevocationList
	LoginLimiter middleware.Limiter
	Images       inventory.ImageStore
	AuditLog     audit.Log
	CORSOrigins  []string
}

// New returns the fully wired API handler.
func New(d Deps) http.Handler {
	v := validation.New()
	recorder := audit.NewRecorder(d.AuditLog, d.Logger)

	inv := inventory.NewHandler(inventory.NewService(d.Repo, d.Images, recorder, d.Logger), v, d.Logger)
	auditHandler := audit.NewHandler(recorder, d.Logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", health(d.Repo, d.Logger))

	// Auth routes (public, rate limited)
	if d.AuthEnabled {
		authHandler := auth.NewHandler(d.Repo, d.Tokens, d.Revoked, v, recorder, d.Logger)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(d.LoginLimiter, d.Logger))
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(d.Tokens, d.Revoked, d.Logger))
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
		})
	}

	// Inventory routes (protected when auth is enabled)
	r.Group(func(r chi.Router) {
		if d.AuthEnabled {
			r.Use(middleware.RequireAuth(d.Tokens, d.Revoked, d.Logger))
		}

		r.Route("/item", func(r chi.Router) {
			r.Get("/", inv.ListItems)
			r.Post("/", inv.CreateItem)
			r.Get("/{name}", inv.GetItem)
			r.Put("/{name}", inv.UpdateItem)
			r.Delete("/{name}", inv.DeleteItem)
			r.Put("/{name}/image", inv.PutItemImage)
			r.Get("/{name}/image", inv.GetItemImage)
			r.Post("/{item_id}/tag/{tag_id}", inv.LinkTag)
			r.Delete("/{item_id}/tag/{tag_id}", inv.UnlinkTag)
		})

		r.Route("/store", func(r chi.Router) {
			r.Get("/", inv.ListStores)
			r.Post("/", inv.CreateStore)
			r.Get("/{name}", inv.GetStore)
			r.Get("/{name}/export", inv.ExportStore)
		})

		r.Route("/tag", func(r chi.Router) {
			r.Post("/", inv.CreateTag)
			r.Get("/{name}", inv.GetTag)
			r.Delete("/{id}", inv.DeleteTag)
		})

		r.Get("/audit", auditHandler.List)
	})

	return r
}

func health(repo store.Repository, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := repo.Ping(ctx); err != nil {
			logger.Warn("health check failed", zap.Error(err))
			response.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
