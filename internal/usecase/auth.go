package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrisense/gatekeeper/internal/core/domain"
	"github.com/agrisense/gatekeeper/internal/core/port"
	"github.com/agrisense/gatekeeper/internal/infra/security"
	"github.com/agrisense/gatekeeper/internal/repository"
)

var (
	// ErrInvalidCredentials indicates the username/password pair is wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrAccessSuspended indicates login is blocked by the access window.
	ErrAccessSuspended = errors.New("access suspended")
	// ErrSessionGone indicates the session was cleared (logout, revocation,
	// or watchdog termination) even though the token is still valid.
	ErrSessionGone = errors.New("session no longer active")
)

// LoginResult bundles the issued token and the created session.
type LoginResult struct {
	Token   string
	Session domain.SessionState
}

// AuthService handles login, logout, and per-request session validation.
type AuthService struct {
	directory port.DirectoryStore
	legacy    port.LegacyStore
	policy    port.PolicyStore
	sessions  port.SessionStore
	events    port.EventPublisher
	tokens    *security.TokenManager
	logger    *zap.Logger

	adminUsername string
	adminPassword string
	bypass        map[string]struct{}
	now           func() time.Time
}

// NewAuthService constructs an AuthService.
func NewAuthService(
	directory port.DirectoryStore,
	legacy port.LegacyStore,
	policy port.PolicyStore,
	sessions port.SessionStore,
	tokens *security.TokenManager,
	logger *zap.Logger,
) (*AuthService, error) {
	if tokens == nil {
		return nil, fmt.Errorf("token manager is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		directory: directory,
		legacy:    legacy,
		policy:    policy,
		sessions:  sessions,
		tokens:    tokens,
		logger:    logger,
		bypass:    map[string]struct{}{},
		now:       func() time.Time { return time.Now() },
	}, nil
}

// WithAdminIdentity configures the built-in administrative credentials.
func (s *AuthService) WithAdminIdentity(username, password string) *AuthService {
	s.adminUsername = username
	s.adminPassword = password
	return s
}

// WithBypassIdentities sets the usernames exempt from the access window.
func (s *AuthService) WithBypassIdentities(usernames []string) *AuthService {
	s.bypass = make(map[string]struct{}, len(usernames))
	for _, name := range usernames {
		s.bypass[name] = struct{}{}
	}
	return s
}

// WithEventPublisher injects the lifecycle event publisher.
func (s *AuthService) WithEventPublisher(events port.EventPublisher) *AuthService {
	s.events = events
	return s
}

// WithClock overrides the internal clock for deterministic tests.
func (s *AuthService) WithClock(clock func() time.Time) *AuthService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Login authenticates the supplied credentials and creates a session. The
// access window is enforced up front for non-privileged identities so a
// suspended user is rejected at the door rather than two seconds later by
// the watchdog.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	role := domain.RoleCustomer
	matched := ""

	if s.adminUsername != "" && strings.EqualFold(username, s.adminUsername) {
		if password != s.adminPassword {
			return nil, ErrInvalidCredentials
		}
		role = domain.RoleAdmin
		matched = s.adminUsername
	} else {
		record, err := s.lookup(ctx, username)
		if err != nil {
			return nil, err
		}
		if !security.VerifyPassword(password, record.Password) {
			return nil, ErrInvalidCredentials
		}
		matched = record.Username
	}

	if role != domain.RoleAdmin {
		if err := s.checkAccessWindow(ctx, matched); err != nil {
			return nil, err
		}
	}

	session := domain.SessionState{
		ID:        uuid.NewString(),
		Username:  matched,
		Role:      role,
		CreatedAt: s.now().UTC(),
	}
	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	token, err := s.tokens.Issue(session)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("login succeeded",
		zap.String("username", matched),
		zap.String("role", string(role)),
		zap.String("session_id", session.ID),
	)
	return &LoginResult{Token: token, Session: session}, nil
}

// lookup finds the account in the directory or as the legacy fallback,
// case-insensitively. Login does not promote; promotion happens on the
// first mutation.
func (s *AuthService) lookup(ctx context.Context, username string) (*domain.UserRecord, error) {
	users, err := s.directory.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load directory: %w", err)
	}
	for _, record := range users {
		if record.MatchesUsername(username) {
			found := record
			return &found, nil
		}
	}

	legacy, err := s.legacy.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load legacy user: %w", err)
	}
	if legacy.Matches(username) {
		record := domain.UserRecord{Username: legacy.Username, Password: legacy.Password}
		return &record, nil
	}

	return nil, ErrInvalidCredentials
}

func (s *AuthService) checkAccessWindow(ctx context.Context, username string) error {
	if _, exempt := s.bypass[username]; exempt {
		return nil
	}

	policy, err := s.policy.Load(ctx)
	if err != nil {
		return fmt.Errorf("load access policy: %w", err)
	}
	if policy == nil {
		return nil
	}

	start, end, err := policy.Window()
	if err != nil || start == end {
		return nil
	}

	now := s.now()
	nowMinutes := now.Hour()*60 + now.Minute()
	if !domain.IsWithinWindow(nowMinutes, start, end) {
		return fmt.Errorf("%w: %s", ErrAccessSuspended, policy.Message)
	}
	return nil
}

// Validate parses the token and confirms the bound session still exists.
// A valid token whose session key is gone means the watchdog or an
// administrator terminated the session; the caller must treat the bearer
// as logged out.
func (s *AuthService) Validate(ctx context.Context, token string) (*domain.SessionState, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionGone
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return session, nil
}

// Logout clears the caller's session key.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ListSessions returns a snapshot of all live sessions.
func (s *AuthService) ListSessions(ctx context.Context) ([]domain.SessionState, error) {
	return s.sessions.List(ctx)
}

// RevokeSession terminates one session on behalf of an administrator,
// following the same notify-then-clear order as the watchdog.
func (s *AuthService) RevokeSession(ctx context.Context, sessionID, actor string) error {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("load session: %w", err)
	}

	event := domain.SessionTerminatedEvent{
		SessionID:    session.ID,
		Username:     session.Username,
		Role:         session.Role,
		Kind:         domain.ViolationRevoked,
		Message:      fmt.Sprintf("Session revoked by %s.", actor),
		TerminatedAt: s.now().UTC(),
	}
	if s.events != nil {
		if err := s.events.PublishSessionTerminated(ctx, event); err != nil {
			s.logger.Warn("publish revocation event failed", zap.Error(err))
		}
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
