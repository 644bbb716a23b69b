package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/agrisense/gatekeeper/internal/core/domain"
	"github.com/agrisense/gatekeeper/internal/infra/security"
)

func newDirectoryFixture(t *testing.T, directory *fakeDirectoryStore, legacy *fakeLegacyStore) (*DirectoryService, *fakeEventPublisher) {
	t.Helper()
	events := &fakeEventPublisher{}
	service := NewDirectoryService(directory, legacy, events, zaptest.NewLogger(t))
	return service, events
}

func TestResolveFindsDirectoryRecordIgnoringCase(t *testing.T) {
	directory := newFakeDirectoryStore(domain.UserRecord{Username: "Alice", Farm: "North Field"})
	service, _ := newDirectoryFixture(t, directory, &fakeLegacyStore{})

	record, err := service.Resolve(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if record.Username != "Alice" {
		t.Errorf("expected stored casing to be preserved, got %q", record.Username)
	}
	if directory.saveCalls != 0 {
		t.Error("resolving an existing record must not write")
	}
}

func TestResolvePromotionIsIdempotent(t *testing.T) {
	directory := newFakeDirectoryStore()
	legacy := &fakeLegacyStore{user: domain.LegacyUser{Username: "root", Password: "toor"}}
	service, events := newDirectoryFixture(t, directory, legacy)

	first, err := service.Resolve(context.Background(), "root")
	if err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	if first.Mobile != "N/A" || first.Farm != "Legacy Farm" {
		t.Errorf("promoted record has wrong placeholders: %+v", first)
	}

	second, err := service.Resolve(context.Background(), "root")
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if second.Username != "root" {
		t.Errorf("expected promoted record, got %q", second.Username)
	}

	if len(directory.users) != 1 {
		t.Fatalf("expected exactly one promoted record, got %d", len(directory.users))
	}
	if directory.saveCalls != 1 {
		t.Errorf("expected exactly one promotion write, got %d", directory.saveCalls)
	}

	promotions := 0
	for _, change := range events.changes {
		if change.Kind == domain.DirectoryChangePromoted {
			promotions++
		}
	}
	if promotions != 1 {
		t.Errorf("expected one promotion event, got %d", promotions)
	}
}

func TestResolveNotFound(t *testing.T) {
	service, _ := newDirectoryFixture(t, newFakeDirectoryStore(), &fakeLegacyStore{})

	if _, err := service.Resolve(context.Background(), "ghost"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestApplyUpdateRenamesRecord(t *testing.T) {
	directory := newFakeDirectoryStore(domain.UserRecord{Username: "alice", Password: "pw"})
	service, _ := newDirectoryFixture(t, directory, &fakeLegacyStore{})

	err := service.ApplyUpdate(context.Background(), "alice", domain.RoleCustomer, AccountUpdate{NewUsername: "alice2"})
	if err != nil {
		t.Fatalf("ApplyUpdate: %v", err)
	}

	if _, err := service.Resolve(context.Background(), "alice"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("expected old username to be gone, got %v", err)
	}
	record, err := service.Resolve(context.Background(), "alice2")
	if err != nil {
		t.Fatalf("Resolve alice2: %v", err)
	}
	if record.Password != "pw" {
		t.Errorf("rename must not touch the password, got %q", record.Password)
	}
}

func TestApplyUpdateForbiddenForAdmin(t *testing.T) {
	directory := newFakeDirectoryStore(domain.UserRecord{Username: "alice"})
	service, _ := newDirectoryFixture(t, directory, &fakeLegacyStore{})

	err := service.ApplyUpdate(context.Background(), "alice", domain.RoleAdmin, AccountUpdate{NewUsername: "other"})
	if !errors.Is(err, ErrAdminImmutable) {
		t.Fatalf("expected ErrAdminImmutable, got %v", err)
	}
	if directory.saveCalls != 0 {
		t.Error("forbidden update must not write")
	}
}

func TestApplyUpdateHashesNewPassword(t *testing.T) {
	directory := newFakeDirectoryStore(domain.UserRecord{Username: "alice", Password: "old-plain"})
	service, _ := newDirectoryFixture(t, directory, &fakeLegacyStore{})

	err := service.ApplyUpdate(context.Background(), "alice", domain.RoleCustomer, AccountUpdate{NewPassword: "harvest-moon-42"})
	if err != nil {
		t.Fatalf("ApplyUpdate: %v", err)
	}

	stored := directory.users[0].Password
	if !security.IsHashed(stored) {
		t.Fatalf("expected hashed credential, got %q", stored)
	}
	if !security.VerifyPassword("harvest-moon-42", stored) {
		t.Error("new password does not verify against stored hash")
	}
	if security.VerifyPassword("old-plain", stored) {
		t.Error("old password still verifies")
	}
}

func TestApplyUpdateMirrorsLegacyPair(t *testing.T) {
	legacy := &fakeLegacyStore{user: domain.LegacyUser{Username: "root", Password: "toor"}}
	directory := newFakeDirectoryStore()
	service, _ := newDirectoryFixture(t, directory, legacy)

	err := service.ApplyUpdate(context.Background(), "root", domain.RoleCustomer, AccountUpdate{NewUsername: "root2"})
	if err != nil {
		t.Fatalf("ApplyUpdate: %v", err)
	}

	if legacy.user.Username != "root2" {
		t.Errorf("legacy mirror not updated, got %q", legacy.user.Username)
	}
	if len(directory.users) != 1 || directory.users[0].Username != "root2" {
		t.Errorf("directory not updated: %+v", directory.users)
	}
}

func TestApplyUpdateSkipsMirrorOnExactMismatch(t *testing.T) {
	// The mirror compares the pre-update username exactly; a differently
	// cased session does not rewrite the legacy pair even though the
	// resolve path matched it.
	legacy := &fakeLegacyStore{user: domain.LegacyUser{Username: "root", Password: "toor"}}
	directory := newFakeDirectoryStore()
	service, _ := newDirectoryFixture(t, directory, legacy)

	err := service.ApplyUpdate(context.Background(), "ROOT", domain.RoleCustomer, AccountUpdate{NewUsername: "root2"})
	if err != nil {
		t.Fatalf("ApplyUpdate: %v", err)
	}
	if legacy.user.Username != "root" {
		t.Errorf("legacy mirror should be untouched, got %q", legacy.user.Username)
	}
}

func TestCreateRejectsDuplicateIgnoringCase(t *testing.T) {
	directory := newFakeDirectoryStore(domain.UserRecord{Username: "Alice"})
	service, _ := newDirectoryFixture(t, directory, &fakeLegacyStore{})

	err := service.Create(context.Background(), domain.UserRecord{Username: "alice", Password: "harvest-moon-42"}, "admin")
	if !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestDeleteRemovesRecord(t *testing.T) {
	directory := newFakeDirectoryStore(
		domain.UserRecord{Username: "alice"},
		domain.UserRecord{Username: "bob"},
	)
	service, events := newDirectoryFixture(t, directory, &fakeLegacyStore{})

	if err := service.Delete(context.Background(), "alice", "admin"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(directory.users) != 1 || directory.users[0].Username != "bob" {
		t.Errorf("unexpected directory after delete: %+v", directory.users)
	}
	if len(events.changes) != 1 || events.changes[0].Kind != domain.DirectoryChangeDeleted {
		t.Errorf("expected one deleted event, got %+v", events.changes)
	}
}
