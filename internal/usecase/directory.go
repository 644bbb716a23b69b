package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/agrisense/gatekeeper/internal/core/domain"
	"github.com/agrisense/gatekeeper/internal/core/port"
	"github.com/agrisense/gatekeeper/internal/infra/security"
	"github.com/agrisense/gatekeeper/internal/repository"
)

var (
	// ErrAccountNotFound indicates no directory or legacy record matched.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountExists indicates a username collision on create.
	ErrAccountExists = errors.New("account already exists")
	// ErrAdminImmutable indicates the admin identity cannot be changed
	// through the self-service path.
	ErrAdminImmutable = errors.New("admin account cannot be changed here")
	// ErrNoChanges indicates an update carrying neither field.
	ErrNoChanges = errors.New("no changes requested")
)

// AccountUpdate carries an optional username and/or password change.
type AccountUpdate struct {
	NewUsername string
	NewPassword string
}

// DirectoryService presents a unified view of accounts across the directory
// and the legacy single-account fallback, promoting the latter on first
// resolution.
type DirectoryService struct {
	directory port.DirectoryStore
	legacy    port.LegacyStore
	events    port.EventPublisher
	audit     port.AuditLog
	validator *security.PasswordValidator
	logger    *zap.Logger
	now       func() time.Time
}

// NewDirectoryService constructs a DirectoryService.
func NewDirectoryService(directory port.DirectoryStore, legacy port.LegacyStore, events port.EventPublisher, logger *zap.Logger) *DirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{
		directory: directory,
		legacy:    legacy,
		events:    events,
		validator: security.DefaultPasswordValidator(),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithAuditLog injects the durable directory change log.
func (s *DirectoryService) WithAuditLog(audit port.AuditLog) *DirectoryService {
	s.audit = audit
	return s
}

// WithPasswordValidator overrides the password policy.
func (s *DirectoryService) WithPasswordValidator(validator *security.PasswordValidator) *DirectoryService {
	if validator != nil {
		s.validator = validator
	}
	return s
}

// WithClock overrides the internal clock for deterministic tests.
func (s *DirectoryService) WithClock(clock func() time.Time) *DirectoryService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Resolve finds the record backing username, promoting the legacy account
// into the directory when that is the only match. Promotion is a
// write-on-read: the directory is persisted before Resolve returns, and a
// second Resolve finds the promoted record instead of duplicating it.
func (s *DirectoryService) Resolve(ctx context.Context, username string) (*domain.UserRecord, error) {
	users, idx, promoted, err := s.resolve(ctx, username)
	if err != nil {
		return nil, err
	}
	if idx < 0 {
		return nil, ErrAccountNotFound
	}

	if promoted {
		if err := s.directory.Save(ctx, users); err != nil {
			return nil, fmt.Errorf("persist promotion: %w", err)
		}
		s.recordChange(ctx, domain.DirectoryChangePromoted, users[idx].Username, "")
	}

	record := users[idx]
	return &record, nil
}

// resolve loads a directory snapshot and locates username in it, falling
// back to legacy promotion. The returned slice includes the promoted record
// when promoted is true; the caller decides whether to persist it.
func (s *DirectoryService) resolve(ctx context.Context, username string) (users []domain.UserRecord, idx int, promoted bool, err error) {
	users, err = s.directory.Load(ctx)
	if err != nil {
		return nil, -1, false, fmt.Errorf("load directory: %w", err)
	}

	for i, record := range users {
		if record.MatchesUsername(username) {
			return users, i, false, nil
		}
	}

	legacy, err := s.legacy.Load(ctx)
	if err != nil {
		return nil, -1, false, fmt.Errorf("load legacy user: %w", err)
	}
	if legacy.Matches(username) {
		users = append(users, legacy.Promote())
		return users, len(users) - 1, true, nil
	}

	return users, -1, false, nil
}

// ApplyUpdate mutates the record backing username. The admin identity is
// immutable through this path regardless of the target. When the legacy
// identity equals the old username the update is mirrored into the legacy
// fields; the two writes are sequential and non-transactional, so a crash
// in between can leave them inconsistent until the next update.
func (s *DirectoryService) ApplyUpdate(ctx context.Context, username string, role domain.Role, update AccountUpdate) error {
	if role == domain.RoleAdmin {
		return ErrAdminImmutable
	}
	if update.NewUsername == "" && update.NewPassword == "" {
		return ErrNoChanges
	}

	users, idx, _, err := s.resolve(ctx, username)
	if err != nil {
		return err
	}
	if idx < 0 {
		return ErrAccountNotFound
	}

	oldUsername := users[idx].Username

	if update.NewUsername != "" {
		users[idx].Username = update.NewUsername
	}
	newPassword := ""
	if update.NewPassword != "" {
		if err := s.validator.Validate(update.NewPassword); err != nil {
			return err
		}
		hashed, err := security.HashPassword(update.NewPassword)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		users[idx].Password = hashed
		newPassword = hashed
	}

	if err := s.directory.Save(ctx, users); err != nil {
		return fmt.Errorf("save directory: %w", err)
	}

	// Best-effort legacy mirror, matched exactly against the pre-update
	// username.
	legacy, err := s.legacy.Load(ctx)
	if err == nil && legacy.Exists() && legacy.Username == oldUsername {
		if update.NewUsername != "" {
			legacy.Username = update.NewUsername
		}
		if newPassword != "" {
			legacy.Password = newPassword
		}
		if err := s.legacy.Save(ctx, legacy); err != nil {
			s.logger.Warn("legacy mirror update failed", zap.Error(err))
		}
	}

	s.recordChange(ctx, domain.DirectoryChangeUpdated, users[idx].Username, username)
	return nil
}

// List returns a directory snapshot.
func (s *DirectoryService) List(ctx context.Context) ([]domain.UserRecord, error) {
	users, err := s.directory.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load directory: %w", err)
	}
	return users, nil
}

// Create registers a new account with a hashed password.
func (s *DirectoryService) Create(ctx context.Context, record domain.UserRecord, actor string) error {
	record.Username = strings.TrimSpace(record.Username)
	if record.Username == "" {
		return fmt.Errorf("username is required")
	}
	if err := s.validator.Validate(record.Password); err != nil {
		return err
	}

	users, err := s.directory.Load(ctx)
	if err != nil {
		return fmt.Errorf("load directory: %w", err)
	}
	for _, existing := range users {
		if existing.MatchesUsername(record.Username) {
			return ErrAccountExists
		}
	}

	hashed, err := security.HashPassword(record.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	record.Password = hashed

	users = append(users, record)
	if err := s.directory.Save(ctx, users); err != nil {
		return fmt.Errorf("save directory: %w", err)
	}

	s.recordChange(ctx, domain.DirectoryChangeCreated, record.Username, actor)
	return nil
}

// Delete removes an account from the directory. This is the event the
// watchdog detects; the victim's session outlives the record by at most one
// polling interval.
func (s *DirectoryService) Delete(ctx context.Context, username, actor string) error {
	users, err := s.directory.Load(ctx)
	if err != nil {
		return fmt.Errorf("load directory: %w", err)
	}

	kept := users[:0]
	removed := false
	for _, record := range users {
		if record.MatchesUsername(username) {
			removed = true
			continue
		}
		kept = append(kept, record)
	}
	if !removed {
		return repository.ErrNotFound
	}

	if err := s.directory.Save(ctx, kept); err != nil {
		return fmt.Errorf("save directory: %w", err)
	}

	s.recordChange(ctx, domain.DirectoryChangeDeleted, username, actor)
	return nil
}

func (s *DirectoryService) recordChange(ctx context.Context, kind domain.DirectoryChangeKind, username, actor string) {
	event := domain.DirectoryChangedEvent{
		Kind:      kind,
		Username:  username,
		ChangedBy: actor,
		ChangedAt: s.now(),
	}

	if s.events != nil {
		if err := s.events.PublishDirectoryChanged(ctx, event); err != nil {
			s.logger.Warn("publish directory change failed", zap.Error(err))
		}
	}
	if s.audit != nil {
		if err := s.audit.RecordDirectoryChange(ctx, event); err != nil {
			s.logger.Warn("record directory change failed", zap.Error(err))
		}
	}
}
