package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/agrisense/gatekeeper/internal/core/domain"
	"github.com/agrisense/gatekeeper/internal/core/port"
	"github.com/agrisense/gatekeeper/internal/infra/telemetry"
	"github.com/agrisense/gatekeeper/internal/repository/state"
)

const defaultWatchdogInterval = 2 * time.Second

// accountRemovedMessage is delivered to the user before the session is
// cleared, so they see why they were logged out.
const accountRemovedMessage = "Session revoked: your account has been removed by the administrator."

// WatchdogService is the recurring reconciliation loop. Every tick it
// compares each live non-admin session against a fresh snapshot of the
// account directory, the legacy record, and the access policy, and
// terminates sessions that lost their backing account or fell outside the
// allowed window.
//
// The directory, legacy, and policy keys are shared multi-writer state with
// no lock held; each tick treats every read as possibly stale. Revocation is
// therefore eventually detected, bounded by the polling interval plus store
// write visibility.
type WatchdogService struct {
	sessions  port.SessionStore
	directory port.DirectoryStore
	legacy    port.LegacyStore
	policy    port.PolicyStore
	events    port.EventPublisher
	audit     port.AuditLog
	metrics   *telemetry.WatchdogMetrics
	logger    *zap.Logger

	interval time.Duration
	bypass   map[string]struct{}
	now      func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewWatchdogService constructs the watchdog with the default cadence and
// bypass list.
func NewWatchdogService(
	sessions port.SessionStore,
	directory port.DirectoryStore,
	legacy port.LegacyStore,
	policy port.PolicyStore,
	events port.EventPublisher,
	logger *zap.Logger,
) *WatchdogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WatchdogService{
		sessions:  sessions,
		directory: directory,
		legacy:    legacy,
		policy:    policy,
		events:    events,
		logger:    logger,
		interval:  defaultWatchdogInterval,
		bypass:    map[string]struct{}{},
		now:       func() time.Time { return time.Now() },
		stopCh:    make(chan struct{}),
	}
}

// WithInterval overrides the polling cadence. Values at or below zero keep
// the default.
func (w *WatchdogService) WithInterval(interval time.Duration) *WatchdogService {
	if interval > 0 {
		w.interval = interval
	}
	return w
}

// WithBypassIdentities sets the usernames exempt from access-window
// enforcement. They are still subject to the account-existence check.
func (w *WatchdogService) WithBypassIdentities(usernames []string) *WatchdogService {
	w.bypass = make(map[string]struct{}, len(usernames))
	for _, name := range usernames {
		w.bypass[name] = struct{}{}
	}
	return w
}

// WithAuditLog injects the durable termination log.
func (w *WatchdogService) WithAuditLog(audit port.AuditLog) *WatchdogService {
	w.audit = audit
	return w
}

// WithMetrics injects the Prometheus collectors.
func (w *WatchdogService) WithMetrics(metrics *telemetry.WatchdogMetrics) *WatchdogService {
	w.metrics = metrics
	return w
}

// WithClock overrides the internal clock for deterministic tests.
func (w *WatchdogService) WithClock(clock func() time.Time) *WatchdogService {
	if clock != nil {
		w.now = clock
	}
	return w
}

// Run executes the reconciliation loop until ctx is cancelled or Stop is
// called. The optional change feed triggers an immediate re-check when one
// of the watched keys is written between ticks; the ticker alone already
// satisfies the bounded-latency contract.
func (w *WatchdogService) Run(ctx context.Context, changes <-chan port.KeyChange) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("session watchdog started", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			w.logger.Info("session watchdog stopped")
			return nil
		case <-ticker.C:
			w.runTick(ctx)
		case change, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			if isWatchedKey(change.Key) {
				w.runTick(ctx)
			}
		}
	}
}

// Stop terminates the loop. Safe to call more than once.
func (w *WatchdogService) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

func isWatchedKey(key string) bool {
	switch key {
	case state.KeyDirectory, state.KeyLegacyUser, state.KeyAccessPolicy:
		return true
	}
	return false
}

func (w *WatchdogService) runTick(ctx context.Context) {
	started := w.now()
	if err := w.CheckOnce(ctx); err != nil {
		w.logger.Warn("watchdog tick failed", zap.Error(err))
	}
	if w.metrics != nil {
		w.metrics.Ticks.Inc()
		w.metrics.TickDuration.Observe(w.now().Sub(started).Seconds())
	}
}

// CheckOnce performs a single reconciliation tick. Anomalies resolve within
// the tick to either no-op or termination; the error return covers only
// store access failures, which leave all sessions untouched.
func (w *WatchdogService) CheckOnce(ctx context.Context) error {
	sessions, err := w.sessions.List(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	// Administrative sessions are exempt from both checks. When nothing
	// else is logged in the tick ends here without touching the shared keys.
	subjects := sessions[:0]
	for _, session := range sessions {
		if !session.IsAdmin() {
			subjects = append(subjects, session)
		}
	}
	if len(subjects) == 0 {
		return nil
	}

	directory, err := w.directory.Load(ctx)
	if err != nil {
		return fmt.Errorf("load directory: %w", err)
	}
	legacy, err := w.legacy.Load(ctx)
	if err != nil {
		return fmt.Errorf("load legacy user: %w", err)
	}
	policy, err := w.policy.Load(ctx)
	if err != nil {
		return fmt.Errorf("load access policy: %w", err)
	}

	for _, session := range subjects {
		if violation := w.evaluate(session, directory, legacy, policy); violation != nil {
			w.terminate(ctx, session, *violation)
		}
	}
	return nil
}

// evaluate applies the two checks to one session. The existence check is
// case-sensitive, matching the historical behavior of the revocation path;
// the update flows resolve case-insensitively. The asymmetry is deliberate.
func (w *WatchdogService) evaluate(
	session domain.SessionState,
	directory []domain.UserRecord,
	legacy domain.LegacyUser,
	policy *domain.AccessPolicy,
) *domain.Violation {
	existsInDirectory := false
	for _, record := range directory {
		if record.Username == session.Username {
			existsInDirectory = true
			break
		}
	}
	existsAsLegacy := legacy.Exists() && session.Username == legacy.Username

	if !existsInDirectory && !existsAsLegacy {
		return &domain.Violation{
			Kind:    domain.ViolationAccountRemoved,
			Message: accountRemovedMessage,
		}
	}

	if policy == nil {
		return nil
	}
	if _, exempt := w.bypass[session.Username]; exempt {
		return nil
	}

	start, end, err := policy.Window()
	if err != nil || start == end {
		// A policy we cannot interpret never locks anyone out.
		w.logger.Warn("unusable access policy, skipping window check",
			zap.String("start", policy.Start), zap.String("end", policy.End), zap.Error(err))
		return nil
	}

	now := w.now()
	nowMinutes := now.Hour()*60 + now.Minute()
	if !domain.IsWithinWindow(nowMinutes, start, end) {
		return &domain.Violation{
			Kind:    domain.ViolationSuspended,
			Message: policy.Message,
		}
	}
	return nil
}

// terminate notifies, then clears the session, then records the audit row.
// Notification goes first so the subject learns the reason before its next
// request is rejected; a failed publish is logged but does not keep a
// revoked session alive.
func (w *WatchdogService) terminate(ctx context.Context, session domain.SessionState, violation domain.Violation) {
	event := domain.SessionTerminatedEvent{
		SessionID:    session.ID,
		Username:     session.Username,
		Role:         session.Role,
		Kind:         violation.Kind,
		Message:      violation.Message,
		TerminatedAt: w.now().UTC(),
	}

	if w.events != nil {
		if err := w.events.PublishSessionTerminated(ctx, event); err != nil {
			w.logger.Warn("publish termination event failed",
				zap.String("session_id", session.ID), zap.Error(err))
		}
	}

	if err := w.sessions.Delete(ctx, session.ID); err != nil {
		w.logger.Error("clear session failed",
			zap.String("session_id", session.ID), zap.Error(err))
		return
	}

	if w.audit != nil {
		if err := w.audit.RecordTermination(ctx, event); err != nil {
			w.logger.Warn("record termination failed",
				zap.String("session_id", session.ID), zap.Error(err))
		}
	}
	if w.metrics != nil {
		w.metrics.Terminations.WithLabelValues(string(violation.Kind)).Inc()
	}

	w.logger.Info("session terminated",
		zap.String("session_id", session.ID),
		zap.String("username", session.Username),
		zap.String("kind", string(violation.Kind)),
	)
}
