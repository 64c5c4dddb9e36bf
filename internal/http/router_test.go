package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fleetwatch/internal/repository"
	"fleetwatch/internal/service"
)

type testServer struct {
	router  *gin.Engine
	vessels *repository.MemVesselRepository
}

type fakeLoginLimiter struct {
	allow  bool
	resets int
}

func (f *fakeLoginLimiter) Allow(context.Context, string, string) bool { return f.allow }

func (f *fakeLoginLimiter) Reset(context.Context, string, string) { f.resets++ }

func setupRouter(t *testing.T, pageSize int) testServer {
	t.Helper()
	return setupRouterWithLimiter(t, pageSize, nil)
}

func setupRouterWithLimiter(t *testing.T, pageSize int, limiter service.LoginLimiter) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	users := repository.NewMemUserRepository()
	vessels := repository.NewMemVesselRepository()
	jwtSvc := service.NewJWTService("secret", 15*time.Minute, 30*time.Minute)
	userSvc := service.NewUserService(logger, users)
	provider := service.NewMockAISProvider(vessels, logger, 7)
	vesselSvc := service.NewVesselService(vessels, provider, pageSize)

	r := NewRouter(logger, jwtSvc, NewAuthHandler(logger, userSvc, jwtSvc, limiter), NewVesselHandler(logger, vesselSvc))
	return testServer{router: r, vessels: vessels}
}

func doJSON(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func registerAndLogin(t *testing.T, r *gin.Engine) string {
	t.Helper()
	rec := doJSON(r, http.MethodPost, "/api/auth/register/", "", map[string]string{
		"username": "ana",
		"password": "pw",
		"email":    "ana@example.com",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(r, http.MethodPost, "/api/auth/login/", "", map[string]string{
		"username": "ana",
		"password": "pw",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &tokens); err != nil {
		t.Fatalf("decode tokens: %v", err)
	}
	if tokens.Access == "" || tokens.Refresh == "" {
		t.Fatalf("expected both tokens, got %+v", tokens)
	}
	return tokens.Access
}

func TestAuth_RegisterDuplicateIs400(t *testing.T) {
	srv := setupRouter(t, 0)
	_ = registerAndLogin(t, srv.router)

	rec := doJSON(srv.router, http.MethodPost, "/api/auth/register/", "", map[string]string{
		"username": "ana",
		"password": "other",
		"email":    "ana2@example.com",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuth_RegisterInvalidEmailIs400(t *testing.T) {
	srv := setupRouter(t, 0)
	rec := doJSON(srv.router, http.MethodPost, "/api/auth/register/", "", map[string]string{
		"username": "bob",
		"password": "pw",
		"email":    "not-an-email",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuth_LoginWrongPasswordIs401(t *testing.T) {
	srv := setupRouter(t, 0)
	_ = registerAndLogin(t, srv.router)

	rec := doJSON(srv.router, http.MethodPost, "/api/auth/login/", "", map[string]string{
		"username": "ana",
		"password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestVessels_RequireToken(t *testing.T) {
	srv := setupRouter(t, 0)
	rec := doJSON(srv.router, http.MethodGet, "/api/vessels/", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestVessels_SyncThenListBareArray(t *testing.T) {
	srv := setupRouter(t, 0)
	token := registerAndLogin(t, srv.router)

	rec := doJSON(srv.router, http.MethodGet, "/api/vessels/", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty list before sync, got %s", rec.Body.String())
	}

	rec = doJSON(srv.router, http.MethodPost, "/api/vessels/sync_mock_data/", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("sync: expected 200, got %d", rec.Code)
	}
	var msg struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &msg); err != nil {
		t.Fatalf("decode sync: %v", err)
	}
	if msg.Message != "Updated 5 vessels" {
		t.Fatalf("unexpected sync message %q", msg.Message)
	}

	rec = doJSON(srv.router, http.MethodGet, "/api/vessels/", token, nil)
	var vessels []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &vessels); err != nil {
		t.Fatalf("decode list: %v (%s)", err, rec.Body.String())
	}
	if len(vessels) != 5 {
		t.Fatalf("expected 5 vessels, got %d", len(vessels))
	}
	if vessels[0]["status"] != "in_transit" {
		t.Fatalf("expected in_transit after sync, got %v", vessels[0]["status"])
	}
	if vessels[0]["last_position_lat"] == nil {
		t.Fatalf("expected a position after sync")
	}
}

func TestVessels_PaginatedEnvelope(t *testing.T) {
	srv := setupRouter(t, 2)
	token := registerAndLogin(t, srv.router)
	doJSON(srv.router, http.MethodPost, "/api/vessels/sync_mock_data/", token, nil)

	rec := doJSON(srv.router, http.MethodGet, "/api/vessels/", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var page struct {
		Count    int              `json:"count"`
		Next     *string          `json:"next"`
		Previous *string          `json:"previous"`
		Results  []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Count != 5 || len(page.Results) != 2 {
		t.Fatalf("unexpected page: count=%d results=%d", page.Count, len(page.Results))
	}
	if page.Next == nil || !strings.Contains(*page.Next, "page=2") {
		t.Fatalf("expected next link to page 2, got %v", page.Next)
	}
	if page.Previous != nil {
		t.Fatalf("expected no previous link on first page")
	}

	rec = doJSON(srv.router, http.MethodGet, "/api/vessels/?page=3", token, nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode last page: %v", err)
	}
	if len(page.Results) != 1 || page.Next != nil {
		t.Fatalf("unexpected last page: results=%d next=%v", len(page.Results), page.Next)
	}
}

func TestVessels_History(t *testing.T) {
	srv := setupRouter(t, 0)
	token := registerAndLogin(t, srv.router)
	doJSON(srv.router, http.MethodPost, "/api/vessels/sync_mock_data/", token, nil)
	doJSON(srv.router, http.MethodPost, "/api/vessels/sync_mock_data/", token, nil)

	rec := doJSON(srv.router, http.MethodGet, "/api/vessels/1/history/", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var positions []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &positions); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(positions))
	}

	rec = doJSON(srv.router, http.MethodGet, "/api/vessels/999/history/", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown vessel, got %d", rec.Code)
	}
}

func TestAuth_LoginThrottled(t *testing.T) {
	limiter := &fakeLoginLimiter{allow: true}
	srv := setupRouterWithLimiter(t, 0, limiter)
	_ = registerAndLogin(t, srv.router)
	if limiter.resets != 1 {
		t.Fatalf("successful login should reset the counter, got %d resets", limiter.resets)
	}

	limiter.allow = false
	rec := doJSON(srv.router, http.MethodPost, "/api/auth/login/", "", map[string]string{
		"username": "ana",
		"password": "pw",
	})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}
