package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strconv"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"

	"github.com/ayush/inventory-api/backend/internal/authctx"
)

const (
	tokenIssuer   = "inventory-api"
	tokenAudience = "inventory-client"
)

// TokenService issues and verifies PASETO v4.local bearer tokens. The
// subject claim carries the user id.
type TokenService struct {
	key paseto.V4SymmetricKey
	ttl time.Duration
}

// NewTokenService derives the 256-bit symmetric key from secret.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token secret is empty")
	}
	sum := sha256.Sum256([]byte(secret))
	key, err := paseto.V4SymmetricKeyFromBytes(sum[:])
	if err != nil {
		return nil, fmt.Errorf("token key: %w", err)
	}
	return &TokenService{key: key, ttl: ttl}, nil
}

// Issue returns a new access token for userID.
func (s *TokenService) Issue(userID int64) string {
	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetAudience(tokenAudience)
	token.SetSubject(strconv.FormatInt(userID, 10))
	token.SetJti(uuid.New().String())
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(s.ttl))

	return token.V4Encrypt(s.key, nil)
}

// Verify decrypts the token and checks issuer, audience and validity window.
func (s *TokenService) Verify(raw string) (authctx.Identity, error) {
	parser := paseto.NewParser()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.NotExpired())
	parser.AddRule(paseto.ValidAt(time.Now()))

	token, err := parser.ParseV4Local(s.key, raw, nil)
	if err != nil {
		return authctx.Identity{}, fmt.Errorf("invalid token: %w", err)
	}

	sub, err := token.GetSubject()
	if err != nil {
		return authctx.Identity{}, fmt.Errorf("token subject: %w", err)
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return authctx.Identity{}, fmt.Errorf("token subject %q: %w", sub, err)
	}
	jti, err := token.GetJti()
	if err != nil {
		return authctx.Identity{}, fmt.Errorf("token id: %w", err)
	}
	exp, err := token.GetExpiration()
	if err != nil {
		return authctx.Identity{}, fmt.Errorf("token expiration: %w", err)
	}

	return authctx.Identity{UserID: userID, TokenID: jti, ExpiresAt: exp}, nil
}
