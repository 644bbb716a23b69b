package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/agrisense/gatekeeper/internal/core/domain"
	"github.com/agrisense/gatekeeper/internal/infra/security"
)

func newAuthFixture(t *testing.T, directory *fakeDirectoryStore, legacy *fakeLegacyStore, policy *fakePolicyStore, sessions *fakeSessionStore) *AuthService {
	t.Helper()
	tokens, err := security.NewTokenManager("auth-test-secret-0123456789abcdef", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	service, err := NewAuthService(directory, legacy, policy, sessions, tokens, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	return service
}

func TestLoginDirectoryUserCreatesSession(t *testing.T) {
	hashed, err := security.HashPassword("harvest-moon-42")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	directory := newFakeDirectoryStore(domain.UserRecord{Username: "Alice", Password: hashed})
	sessions := newFakeSessionStore()
	service := newAuthFixture(t, directory, &fakeLegacyStore{}, &fakePolicyStore{}, sessions)

	result, err := service.Login(context.Background(), "alice", "harvest-moon-42")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.Session.Username != "Alice" {
		t.Errorf("session carries lookup casing, got %q", result.Session.Username)
	}
	if result.Session.Role != domain.RoleCustomer {
		t.Errorf("expected customer role, got %q", result.Session.Role)
	}
	if !sessions.has(result.Session.ID) {
		t.Error("session key not stored")
	}

	validated, err := service.Validate(context.Background(), result.Token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if validated.ID != result.Session.ID {
		t.Errorf("token bound to wrong session: %q != %q", validated.ID, result.Session.ID)
	}
}

func TestLoginLegacyPlaintextFallback(t *testing.T) {
	legacy := &fakeLegacyStore{user: domain.LegacyUser{Username: "root", Password: "toor"}}
	sessions := newFakeSessionStore()
	service := newAuthFixture(t, newFakeDirectoryStore(), legacy, &fakePolicyStore{}, sessions)

	result, err := service.Login(context.Background(), "ROOT", "toor")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.Session.Username != "root" {
		t.Errorf("expected legacy username, got %q", result.Session.Username)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	hashed, err := security.HashPassword("harvest-moon-42")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	directory := newFakeDirectoryStore(domain.UserRecord{Username: "alice", Password: hashed})
	service := newAuthFixture(t, directory, &fakeLegacyStore{}, &fakePolicyStore{}, newFakeSessionStore())

	if _, err := service.Login(context.Background(), "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := service.Login(context.Background(), "nobody", "toor"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestLoginAdminMatchesConfiguredIdentity(t *testing.T) {
	sessions := newFakeSessionStore()
	service := newAuthFixture(t, newFakeDirectoryStore(), &fakeLegacyStore{}, &fakePolicyStore{}, sessions)
	service.WithAdminIdentity("admin", "sekret")

	result, err := service.Login(context.Background(), "Admin", "sekret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.Session.Role != domain.RoleAdmin {
		t.Errorf("expected admin role, got %q", result.Session.Role)
	}

	if _, err := service.Login(context.Background(), "admin", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginBlockedOutsideAccessWindow(t *testing.T) {
	directory := newFakeDirectoryStore(domain.UserRecord{Username: "alice", Password: "pw"})
	policy := &fakePolicyStore{policy: &domain.AccessPolicy{Start: "09:00", End: "18:00", Message: "Closed for the night."}}
	service := newAuthFixture(t, directory, &fakeLegacyStore{}, policy, newFakeSessionStore())
	service.WithClock(fixedClock(20, 0))

	_, err := service.Login(context.Background(), "alice", "pw")
	if !errors.Is(err, ErrAccessSuspended) {
		t.Fatalf("expected ErrAccessSuspended, got %v", err)
	}
	if !strings.Contains(err.Error(), "Closed for the night.") {
		t.Errorf("suspension error should carry the policy message, got %q", err)
	}
}

func TestLoginBypassIdentityIgnoresWindow(t *testing.T) {
	directory := newFakeDirectoryStore(domain.UserRecord{Username: "nerula", Password: "pw"})
	policy := &fakePolicyStore{policy: &domain.AccessPolicy{Start: "09:00", End: "18:00"}}
	service := newAuthFixture(t, directory, &fakeLegacyStore{}, policy, newFakeSessionStore())
	service.WithBypassIdentities([]string{"nerula", "admin"})
	service.WithClock(fixedClock(20, 0))

	if _, err := service.Login(context.Background(), "nerula", "pw"); err != nil {
		t.Fatalf("bypass identity should log in outside the window: %v", err)
	}
}

func TestLoginAdminIgnoresWindow(t *testing.T) {
	policy := &fakePolicyStore{policy: &domain.AccessPolicy{Start: "09:00", End: "18:00"}}
	service := newAuthFixture(t, newFakeDirectoryStore(), &fakeLegacyStore{}, policy, newFakeSessionStore())
	service.WithAdminIdentity("admin", "sekret")
	service.WithClock(fixedClock(3, 0))

	if _, err := service.Login(context.Background(), "admin", "sekret"); err != nil {
		t.Fatalf("admin should log in outside the window: %v", err)
	}
}

func TestValidateAfterSessionCleared(t *testing.T) {
	directory := newFakeDirectoryStore(domain.UserRecord{Username: "alice", Password: "pw"})
	sessions := newFakeSessionStore()
	service := newAuthFixture(t, directory, &fakeLegacyStore{}, &fakePolicyStore{}, sessions)

	result, err := service.Login(context.Background(), "alice", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	// Simulates the watchdog clearing the key while the bearer still
	// holds a syntactically valid token.
	if err := sessions.Delete(context.Background(), result.Session.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := service.Validate(context.Background(), result.Token); !errors.Is(err, ErrSessionGone) {
		t.Fatalf("expected ErrSessionGone, got %v", err)
	}
}

func TestValidateRejectsGarbageToken(t *testing.T) {
	service := newAuthFixture(t, newFakeDirectoryStore(), &fakeLegacyStore{}, &fakePolicyStore{}, newFakeSessionStore())

	if _, err := service.Validate(context.Background(), "not-a-token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestRevokeSessionNotifiesBeforeClearing(t *testing.T) {
	session := domain.SessionState{ID: "sess-1", Username: "alice", Role: domain.RoleCustomer}
	sessions := newFakeSessionStore(session)
	events := &fakeEventPublisher{sessions: sessions}
	service := newAuthFixture(t, newFakeDirectoryStore(), &fakeLegacyStore{}, &fakePolicyStore{}, sessions)
	service.WithEventPublisher(events)

	if err := service.RevokeSession(context.Background(), "sess-1", "admin"); err != nil {
		t.Fatalf("RevokeSession: %v", err)
	}

	if sessions.has("sess-1") {
		t.Error("session key should be cleared")
	}
	if len(events.terminations) != 1 {
		t.Fatalf("expected one termination event, got %d", len(events.terminations))
	}
	published := events.terminations[0]
	if published.event.Kind != domain.ViolationRevoked {
		t.Errorf("expected revoked kind, got %q", published.event.Kind)
	}
	if !published.sessionAlive {
		t.Error("event must be published before the session key is cleared")
	}
}
