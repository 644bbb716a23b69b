// Package state maps the typed stores onto the shared key space. Payloads
// are JSON strings; corrupt payloads decode to safe defaults so a bad write
// by one tenant never crashes another tenant's watchdog.
package state

const (
	// KeyDirectory holds the JSON array of directory records.
	KeyDirectory = "gatekeeper:users"
	// KeyLegacyUser and KeyLegacyPass hold the flattened legacy pair.
	KeyLegacyUser = "gatekeeper:legacy_user"
	KeyLegacyPass = "gatekeeper:legacy_pass"
	// KeyAccessPolicy holds the JSON access policy, absent when unset.
	KeyAccessPolicy = "gatekeeper:access_policy"
	// SessionKeyPrefix prefixes per-session state keys.
	SessionKeyPrefix = "gatekeeper:session:"
)
