package domain

import "time"

// SessionTerminatedEvent is emitted when a session is cleared by the
// watchdog, an administrator, or a reset flow that forces re-login.
// Delivery happens before the session key is removed so the subject can
// learn why it was logged out.
type SessionTerminatedEvent struct {
	SessionID    string        `json:"session_id"`
	Username     string        `json:"username"`
	Role         Role          `json:"role"`
	Kind         ViolationKind `json:"kind"`
	Message      string        `json:"message,omitempty"`
	TerminatedAt time.Time     `json:"terminated_at"`
}

// DirectoryChangeKind enumerates mutations of the shared account directory.
type DirectoryChangeKind string

const (
	DirectoryChangeCreated  DirectoryChangeKind = "created"
	DirectoryChangeUpdated  DirectoryChangeKind = "updated"
	DirectoryChangeDeleted  DirectoryChangeKind = "deleted"
	DirectoryChangePromoted DirectoryChangeKind = "promoted"
)

// DirectoryChangedEvent is emitted on every directory mutation, including
// the write-on-read promotion of the legacy account.
type DirectoryChangedEvent struct {
	Kind      DirectoryChangeKind `json:"kind"`
	Username  string              `json:"username"`
	ChangedBy string              `json:"changed_by,omitempty"`
	ChangedAt time.Time           `json:"changed_at"`
}

// AdminMessage is a note a customer leaves for the administrator.
type AdminMessage struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"read"`
}
