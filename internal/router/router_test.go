package router

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ayush/inventory-api/backend/internal/auth"
	"github.com/ayush/inventory-api/backend/internal/models"
	"github.com/ayush/inventory-api/backend/internal/ratelimit"
	"github.com/ayush/inventory-api/backend/internal/store"
)

type testServer struct {
	t   *testing.T
	srv *httptest.Server
	db  *sql.DB
}

func newTestServer(t *testing.T, authEnabled bool, burst int) *testServer {
	t.Helper()
	db, err := store.Open(context.Background(), store.DialectSQLite, filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("router-test-secret", time.Minute)
	require.NoError(t, err)
	limiter := ratelimit.New(0.001, burst)
	t.Cleanup(limiter.Stop)

	h := New(Deps{
		Logger:       zap.NewNop(),
		Repo:         store.NewSQLStore(db, store.DialectSQLite),
		AuthEnabled:  authEnabled,
		Tokens:       tokens,
		Revoked:      auth.NewMemoryRevocationList(),
		LoginLimiter: limiter,
		CORSOrigins:  []string{"http://localhost:5173"},
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &testServer{t: t, srv: srv, db: db}
}

func (s *testServer) do(method, path, token, body string) (int, string) {
	s.t.Helper()
	req, err := http.NewRequest(method, s.srv.URL+path, strings.NewReader(body))
	require.NoError(s.t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	var sb strings.Builder
	_, err = io.Copy(&sb, resp.Body)
	require.NoError(s.t, err)
	return resp.StatusCode, sb.String()
}

func (s *testServer) login(username, password string) string {
	s.t.Helper()
	code, body := s.do(http.MethodPost, "/login", "", `{"username":"`+username+`","password":"`+password+`"}`)
	require.Equal(s.t, http.StatusOK, code, body)
	var tok models.TokenResponse
	require.NoError(s.t, json.Unmarshal([]byte(body), &tok))
	require.NotEmpty(s.t, tok.AccessToken)
	return tok.AccessToken
}

func TestAPI_EndToEnd(t *testing.T) {
	s := newTestServer(t, true, 100)

	code, body := s.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	code, _ = s.do(http.MethodGet, "/item/x", "", "")
	assert.Equal(t, http.StatusUnauthorized, code, "inventory requires a token")

	code, body = s.do(http.MethodPost, "/register", "", `{"username":"alice","password":"pw"}`)
	require.Equal(t, http.StatusCreated, code, body)
	code, _ = s.do(http.MethodPost, "/register", "", `{"username":"alice","password":"pw"}`)
	assert.Equal(t, http.StatusConflict, code)

	code, body = s.do(http.MethodPost, "/login", "", `{"username":"alice","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Contains(t, body, "Invalid credentials")

	token := s.login("alice", "pw")

	code, body = s.do(http.MethodPost, "/store", token, `{"name":"A"}`)
	require.Equal(t, http.StatusOK, code, body)

	code, body = s.do(http.MethodPost, "/item", token, `{"name":"x","price":1.5,"store_id":1}`)
	require.Equal(t, http.StatusOK, code, body)

	code, body = s.do(http.MethodGet, "/item/x", token, "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"id":1,"name":"x","price":1.5,"store":{"id":1,"name":"A"},"tags":[]}`, body)

	code, _ = s.do(http.MethodDelete, "/item/x", token, "")
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodGet, "/item/x", token, "")
	assert.Equal(t, http.StatusNotFound, code)

	code, body = s.do(http.MethodGet, "/me", token, "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"username":"alice"`)

	code, body = s.do(http.MethodGet, "/audit", token, "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, body, "no audit log configured")

	code, _ = s.do(http.MethodPut, "/item/x/image", token, "data")
	assert.Equal(t, http.StatusServiceUnavailable, code, "no object storage configured")

	code, _ = s.do(http.MethodPost, "/logout", token, "")
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodGet, "/me", token, "")
	assert.Equal(t, http.StatusUnauthorized, code, "revoked token")

	code, _ = s.do(http.MethodGet, "/no/such/route", "", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAPI_TagRules(t *testing.T) {
	s := newTestServer(t, false, 100)

	for _, step := range []struct{ method, path, body string }{
		{http.MethodPost, "/store", `{"name":"A"}`},
		{http.MethodPost, "/item", `{"name":"x","price":2,"store_id":1}`},
		{http.MethodPost, "/tag", `{"name":"sale","store_id":1}`},
		{http.MethodPost, "/item/1/tag/1", ""},
		{http.MethodPost, "/item/1/tag/1", ""},
	} {
		code, body := s.do(step.method, step.path, "", step.body)
		require.Equal(t, http.StatusOK, code, "%s %s: %s", step.method, step.path, body)
	}

	code, body := s.do(http.MethodGet, "/item/x", "", "")
	require.Equal(t, http.StatusOK, code)
	var item models.Item
	require.NoError(t, json.Unmarshal([]byte(body), &item))
	assert.Len(t, item.Tags, 1, "relinking does not duplicate")

	code, _ = s.do(http.MethodDelete, "/tag/1", "", "")
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(http.MethodDelete, "/item/1/tag/1", "", "")
	require.Equal(t, http.StatusOK, code)
	code, body = s.do(http.MethodDelete, "/tag/1", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"message":"Tag deleted."}`, body)
}

func TestAPI_AuthDisabled(t *testing.T) {
	s := newTestServer(t, false, 100)

	code, _ := s.do(http.MethodPost, "/store", "", `{"name":"A"}`)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodPost, "/login", "", `{"username":"a","password":"b"}`)
	assert.Equal(t, http.StatusNotFound, code, "auth routes not mounted")
}

func TestAPI_LoginRateLimited(t *testing.T) {
	s := newTestServer(t, true, 2)

	for i := 0; i < 2; i++ {
		code, _ := s.do(http.MethodPost, "/login", "", `{"username":"a","password":"b"}`)
		assert.Equal(t, http.StatusUnauthorized, code)
	}
	code, body := s.do(http.MethodPost, "/login", "", `{"username":"a","password":"b"}`)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Contains(t, body, "RATE_LIMITED")
}

func TestAPI_HealthUnavailable(t *testing.T) {
	s := newTestServer(t, false, 100)
	require.NoError(t, s.db.Close())

	code, body := s.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.JSONEq(t, `{"status":"unavailable"}`, body)
}
