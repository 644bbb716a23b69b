// Package redis backs the shared state space with Redis so that multiple
// service instances observe the same directory, policy, and session keys.
package redis

import (
	"context"
	"errors"
	"fmt"

	red "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/agrisense/gatekeeper/internal/core/port"
)

const defaultChangeChannel = "gatekeeper:changes"

// StateStore implements port.StateStore on a Redis client. Every write also
// publishes the changed key on a pub/sub channel so co-resident watchers can
// react between polling ticks.
type StateStore struct {
	client  *red.Client
	channel string
	logger  *zap.Logger
}

// NewStateStore constructs a Redis-backed state store.
func NewStateStore(client *red.Client, changeChannel string, logger *zap.Logger) *StateStore {
	if changeChannel == "" {
		changeChannel = defaultChangeChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StateStore{client: client, channel: changeChannel, logger: logger}
}

// Get returns the value for key, reporting absence via ok=false.
func (s *StateStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

// Set writes the value and announces the change. The write and the publish
// go through one transactional pipeline so observers are never notified
// about a write that did not land.
func (s *StateStore) Set(ctx context.Context, key, value string) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, value, 0)
	pipe.Publish(ctx, s.channel, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes the key and announces the change.
func (s *StateStore) Delete(ctx context.Context, key string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.Publish(ctx, s.channel, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// List scans for keys with the supplied prefix and fetches their values.
// Keys deleted between the scan and the fetch are skipped.
func (s *StateStore) List(ctx context.Context, prefix string) (map[string]string, error) {
	entries := make(map[string]string)

	iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %s: %w", prefix, err)
	}
	if len(keys) == 0 {
		return entries, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}
	for i, raw := range values {
		value, ok := raw.(string)
		if !ok {
			continue
		}
		entries[keys[i]] = value
	}
	return entries, nil
}

// Subscribe converts the pub/sub channel into a KeyChange feed. The feed
// closes when ctx is cancelled.
func (s *StateStore) Subscribe(ctx context.Context) (<-chan port.KeyChange, error) {
	pubsub := s.client.Subscribe(ctx, s.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", s.channel, err)
	}

	changes := make(chan port.KeyChange, 16)
	go func() {
		defer close(changes)
		defer func() {
			if err := pubsub.Close(); err != nil {
				s.logger.Warn("close pubsub", zap.Error(err))
			}
		}()

		msgs := pubsub.Channel()
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case changes <- port.KeyChange{Key: msg.Payload}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return changes, nil
}

var _ port.StateStore = (*StateStore)(nil)
