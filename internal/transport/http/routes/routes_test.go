package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"github.com/agrisense/gatekeeper/internal/core/domain"
	"github.com/agrisense/gatekeeper/internal/infra/config"
	"github.com/agrisense/gatekeeper/internal/infra/kafka"
	"github.com/agrisense/gatekeeper/internal/infra/security"
	"github.com/agrisense/gatekeeper/internal/repository/memory"
	"github.com/agrisense/gatekeeper/internal/repository/state"
	httproutes "github.com/agrisense/gatekeeper/internal/transport/http/routes"
	"github.com/agrisense/gatekeeper/internal/usecase"
)

type testRig struct {
	router *gin.Engine
	store  *memory.StateStore
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)

	store := memory.NewStateStore()
	directoryRepo := state.NewDirectoryRepository(store, logger)
	legacyRepo := state.NewLegacyRepository(store)
	policyRepo := state.NewPolicyRepository(store, logger)
	sessionRepo := state.NewSessionRepository(store, logger)

	events := kafka.NewStubPublisher(logger)

	tokens, err := security.NewTokenManager("routes-test-secret-0123456789abcd", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}

	auth, err := usecase.NewAuthService(directoryRepo, legacyRepo, policyRepo, sessionRepo, tokens, logger)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	auth.WithAdminIdentity("admin", "sekret").WithEventPublisher(events)

	directory := usecase.NewDirectoryService(directoryRepo, legacyRepo, events, logger)
	policy := usecase.NewPolicyService(policyRepo, logger)

	cfg := &config.AppConfig{App: config.AppSettings{Env: "test"}}
	router := httproutes.Register(httproutes.Dependencies{
		Config: cfg,
		Logger: logger,
		Services: httproutes.ServiceSet{
			Auth:      auth,
			Directory: directory,
			Policy:    policy,
		},
	})

	if err := directoryRepo.Save(context.Background(), []domain.UserRecord{
		{Username: "alice", Password: "pw", Farm: "North Field"},
	}); err != nil {
		t.Fatalf("seed directory: %v", err)
	}

	return &testRig{router: router, store: store}
}

func (rig *testRig) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	rig.router.ServeHTTP(w, req)
	return w
}

func (rig *testRig) login(t *testing.T, username, password string) string {
	t.Helper()
	w := rig.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status %d, body %s", username, w.Code, w.Body.String())
	}

	var response struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return response.Token
}

func TestHealthEndpoint(t *testing.T) {
	rig := newTestRig(t)

	w := rig.do(t, http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}

func TestLoginAndSessionLifecycle(t *testing.T) {
	rig := newTestRig(t)
	token := rig.login(t, "alice", "pw")

	w := rig.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: status %d, body %s", w.Code, w.Body.String())
	}

	w = rig.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: status %d", w.Code)
	}

	// The token is still signed and unexpired but the session is gone.
	w = rig.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout: expected 401, got %d", w.Code)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	rig := newTestRig(t)

	w := rig.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "alice",
		"password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	rig := newTestRig(t)
	customerToken := rig.login(t, "alice", "pw")

	w := rig.do(t, http.MethodGet, "/api/v1/admin/accounts", customerToken, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("customer on admin route: expected 403, got %d", w.Code)
	}

	adminToken := rig.login(t, "admin", "sekret")
	w = rig.do(t, http.MethodGet, "/api/v1/admin/accounts", adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin listing: status %d, body %s", w.Code, w.Body.String())
	}
}

func TestPolicyAdministration(t *testing.T) {
	rig := newTestRig(t)
	adminToken := rig.login(t, "admin", "sekret")

	w := rig.do(t, http.MethodPut, "/api/v1/admin/policy", adminToken, map[string]string{
		"start":   "09:00",
		"end":     "09:00",
		"message": "degenerate",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("degenerate window: expected 400, got %d", w.Code)
	}

	w = rig.do(t, http.MethodPut, "/api/v1/admin/policy", adminToken, map[string]string{
		"start":   "22:00",
		"end":     "06:00",
		"message": "Night maintenance.",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("set policy: status %d, body %s", w.Code, w.Body.String())
	}

	w = rig.do(t, http.MethodGet, "/api/v1/admin/policy", adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get policy: status %d", w.Code)
	}
	var response struct {
		Policy *struct {
			Start string `json:"start"`
		} `json:"policy"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode policy response: %v", err)
	}
	if response.Policy == nil || response.Policy.Start != "22:00" {
		t.Fatalf("unexpected policy payload: %s", w.Body.String())
	}

	w = rig.do(t, http.MethodDelete, "/api/v1/admin/policy", adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("clear policy: status %d", w.Code)
	}
}

func TestAccountSelfService(t *testing.T) {
	rig := newTestRig(t)
	token := rig.login(t, "alice", "pw")

	w := rig.do(t, http.MethodGet, "/api/v1/account", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get own account: status %d, body %s", w.Code, w.Body.String())
	}
	var account struct {
		Username string `json:"username"`
		Farm     string `json:"farm"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &account); err != nil {
		t.Fatalf("decode account: %v", err)
	}
	if account.Username != "alice" || account.Farm != "North Field" {
		t.Fatalf("unexpected account payload: %s", w.Body.String())
	}

	w = rig.do(t, http.MethodPatch, "/api/v1/account", token, map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty update: expected 400, got %d", w.Code)
	}
}
