package domain

import "strings"

// Role distinguishes administrative sessions from regular customer sessions.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// UserRecord mirrors one entry in the shared account directory.
// Usernames are unique within the directory ignoring case; passwords are
// either legacy plaintext values or argon2id encoded hashes.
type UserRecord struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Mobile   string `json:"mobile"`
	Farm     string `json:"farm"`
}

// MatchesUsername reports whether the record belongs to the supplied
// username, ignoring case.
func (u UserRecord) MatchesUsername(username string) bool {
	return strings.EqualFold(u.Username, username)
}

// LegacyUser is the single pre-multi-account credential pair retained for
// backward compatibility. It counts as an implicit valid account until it is
// promoted into the directory and is kept in sync best-effort afterwards.
type LegacyUser struct {
	Username string
	Password string
}

// Exists reports whether a legacy account is configured at all.
func (l LegacyUser) Exists() bool {
	return l.Username != ""
}

// Matches reports whether the supplied username refers to the legacy
// account, ignoring case.
func (l LegacyUser) Matches(username string) bool {
	return l.Exists() && strings.EqualFold(l.Username, username)
}

// Promote synthesizes a first-class directory record from the legacy pair.
// Display metadata is filled with the placeholders historical deployments used.
func (l LegacyUser) Promote() UserRecord {
	return UserRecord{
		Username: l.Username,
		Password: l.Password,
		Mobile:   "N/A",
		Farm:     "Legacy Farm",
	}
}
