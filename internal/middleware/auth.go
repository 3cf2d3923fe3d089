package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ayush/inventory-api/backend/internal/auth"
	"github.com/ayush/inventory-api/backend/internal/authctx"
	domainerrors "github.com/ayush/inventory-api/backend/internal/errors"
	"github.com/ayush/inventory-api/backend/internal/response"
)

// TokenVerifier turns a bearer token into the caller's identity.
type TokenVerifier interface {
	Verify(raw string) (authctx.Identity, error)
}

// RequireAuth is middleware that validates the bearer token and injects
// the caller's identity into the request context.
func RequireAuth(tokens TokenVerifier, revoked auth.RevocationList, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				response.HandleError(w, r, domainerrors.Unauthorized("missing authorization header"), logger)
				return
			}

			scheme, raw, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
				response.HandleError(w, r, domainerrors.Unauthorized("invalid authorization header format"), logger)
				return
			}

			id, err := tokens.Verify(raw)
			if err != nil {
				logger.Debug("token rejected", zap.Error(err))
				response.HandleError(w, r, domainerrors.Unauthorized("invalid or expired token"), logger)
				return
			}

			isRevoked, err := revoked.IsRevoked(r.Context(), id.TokenID)
			if err != nil {
				response.HandleError(w, r, domainerrors.Wrap(err, domainerrors.CodeUnavailable, "token check unavailable"), logger)
				return
			}
			if isRevoked {
				response.HandleError(w, r, domainerrors.Unauthorized("token has been revoked"), logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(authctx.WithIdentity(r.Context(), id)))
		})
	}
}
