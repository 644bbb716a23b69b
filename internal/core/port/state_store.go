package port

import "context"

// KeyChange notifies subscribers that a shared key was written or deleted.
type KeyChange struct {
	Key string
}

// StateStore is the shared, multi-writer key space holding the account
// directory, the legacy credential pair, the access policy, and per-session
// state. Values are opaque strings (JSON payloads). Writers hold no lock;
// every read is a point-in-time snapshot and two reads of different keys are
// not guaranteed to be mutually consistent.
type StateStore interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// List returns all key/value pairs whose key starts with prefix.
	List(ctx context.Context, prefix string) (map[string]string, error)
	// Subscribe delivers change notifications until ctx is cancelled.
	// Slow consumers may miss intermediate changes; the channel signals
	// "something changed", not a replayable log.
	Subscribe(ctx context.Context) (<-chan KeyChange, error)
}
