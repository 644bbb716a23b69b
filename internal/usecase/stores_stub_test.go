package usecase

import (
	"context"
	"sync"

	"github.com/agrisense/gatekeeper/internal/core/domain"
	"github.com/agrisense/gatekeeper/internal/repository"
)

type fakeDirectoryStore struct {
	mu        sync.Mutex
	users     []domain.UserRecord
	loadCalls int
	saveCalls int
	loadErr   error
	saveErr   error
}

func newFakeDirectoryStore(users ...domain.UserRecord) *fakeDirectoryStore {
	return &fakeDirectoryStore{users: users}
}

func (f *fakeDirectoryStore) Load(context.Context) ([]domain.UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadCalls++
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	snapshot := make([]domain.UserRecord, len(f.users))
	copy(snapshot, f.users)
	return snapshot, nil
}

func (f *fakeDirectoryStore) Save(_ context.Context, users []domain.UserRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.users = make([]domain.UserRecord, len(users))
	copy(f.users, users)
	return nil
}

type fakeLegacyStore struct {
	mu        sync.Mutex
	user      domain.LegacyUser
	loadCalls int
	saveCalls int
}

func (f *fakeLegacyStore) Load(context.Context) (domain.LegacyUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadCalls++
	return f.user, nil
}

func (f *fakeLegacyStore) Save(_ context.Context, user domain.LegacyUser) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls++
	f.user = user
	return nil
}

type fakePolicyStore struct {
	mu        sync.Mutex
	policy    *domain.AccessPolicy
	loadCalls int
}

func (f *fakePolicyStore) Load(context.Context) (*domain.AccessPolicy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadCalls++
	if f.policy == nil {
		return nil, nil
	}
	copied := *f.policy
	return &copied, nil
}

func (f *fakePolicyStore) Save(_ context.Context, policy *domain.AccessPolicy) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if policy == nil {
		f.policy = nil
		return nil
	}
	copied := *policy
	f.policy = &copied
	return nil
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.SessionState
}

func newFakeSessionStore(sessions ...domain.SessionState) *fakeSessionStore {
	store := &fakeSessionStore{sessions: make(map[string]domain.SessionState)}
	for _, session := range sessions {
		store.sessions[session.ID] = session
	}
	return store
}

func (f *fakeSessionStore) Put(_ context.Context, session domain.SessionState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeSessionStore) Get(_ context.Context, sessionID string) (*domain.SessionState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &session, nil
}

func (f *fakeSessionStore) Delete(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, sessionID)
	return nil
}

func (f *fakeSessionStore) List(context.Context) ([]domain.SessionState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sessions := make([]domain.SessionState, 0, len(f.sessions))
	for _, session := range f.sessions {
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func (f *fakeSessionStore) has(sessionID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.sessions[sessionID]
	return ok
}

type publishedTermination struct {
	event domain.SessionTerminatedEvent
	// sessionAlive records whether the session key still existed at
	// publish time, to verify the notify-before-clear ordering.
	sessionAlive bool
}

type fakeEventPublisher struct {
	mu           sync.Mutex
	sessions     *fakeSessionStore
	terminations []publishedTermination
	changes      []domain.DirectoryChangedEvent
}

func (f *fakeEventPublisher) PublishSessionTerminated(_ context.Context, event domain.SessionTerminatedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	alive := false
	if f.sessions != nil {
		alive = f.sessions.has(event.SessionID)
	}
	f.terminations = append(f.terminations, publishedTermination{event: event, sessionAlive: alive})
	return nil
}

func (f *fakeEventPublisher) PublishDirectoryChanged(_ context.Context, event domain.DirectoryChangedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, event)
	return nil
}
