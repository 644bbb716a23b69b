package domain

import "time"

// SessionState is the identity of one logged-in session. It lives in the
// shared state space under a per-session key, is created at login, read on
// every watchdog tick, and destroyed on logout or on a detected violation.
type SessionState struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// IsAdmin reports whether the session is administrative. Administrative
// sessions are exempt from watchdog evaluation entirely.
func (s SessionState) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// ViolationKind enumerates the reasons the watchdog terminates a session.
type ViolationKind string

const (
	// ViolationAccountRemoved means the backing account vanished from both
	// the directory and the legacy record.
	ViolationAccountRemoved ViolationKind = "account_removed"
	// ViolationSuspended means the session fell outside the access window.
	ViolationSuspended ViolationKind = "suspended"
	// ViolationRevoked means an administrator revoked the session directly.
	ViolationRevoked ViolationKind = "revoked"
)

// Violation describes why a session was terminated, including the
// user-facing message delivered before the session is cleared.
type Violation struct {
	Kind    ViolationKind
	Message string
}
