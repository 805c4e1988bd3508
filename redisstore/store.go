// Copyright (c) Microsoft. All rights reserved.

package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/microsoft/agentkit/agentkit"
)

const defaultKeyPrefix = "agentkit:messages:"

// Store is a Redis-backed [agentkit.MessageStore]. One Store maps to one
// conversation: a single Redis list keyed by the conversation ID under a
// configurable prefix. Safe for concurrent use; ordering is the Redis
// list's append order.
type Store struct {
	client         *redis.Client
	conversationID string
	prefix         string
	ttl            time.Duration
}

// Option configures a [Store].
type Option func(*Store)

// WithKeyPrefix overrides the key prefix (default "agentkit:messages:").
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithTTL sets an expiry on the conversation key, refreshed on every
// append. Zero (the default) means the conversation never expires.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// New creates a Store for the given conversation backed by client.
// The client is shared, not owned: closing it is the caller's concern.
func New(client *redis.Client, conversationID string, opts ...Option) *Store {
	s := &Store{
		client:         client,
		conversationID: conversationID,
		prefix:         defaultKeyPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Factory returns a message-store factory for
// [agentkit.WithMessageStoreFactory]. Every call of the returned function
// opens a fresh conversation under a new UUID key, so each session gets
// independent history.
func Factory(client *redis.Client, opts ...Option) func() agentkit.MessageStore {
	return func() agentkit.MessageStore {
		return New(client, uuid.NewString(), opts...)
	}
}

// ConversationID returns the conversation this store reads and writes.
func (s *Store) ConversationID() string { return s.conversationID }

func (s *Store) key() string { return s.prefix + s.conversationID }

// ListMessages returns all stored messages in append order. A conversation
// that was never written to (or has expired) yields an empty slice.
func (s *Store) ListMessages(ctx context.Context) ([]agentkit.Message, error) {
	vals, err := s.client.LRange(ctx, s.key(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	msgs := make([]agentkit.Message, 0, len(vals))
	for _, v := range vals {
		var m agentkit.Message
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			return nil, fmt.Errorf("decode stored message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// AddMessages appends messages to the conversation. All appends for one
// call go through a single pipeline, and the TTL, when set, is refreshed
// in the same round trip.
func (s *Store) AddMessages(ctx context.Context, msgs []agentkit.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	encoded := make([]any, 0, len(msgs))
	for i := range msgs {
		data, err := json.Marshal(&msgs[i])
		if err != nil {
			return fmt.Errorf("encode message: %w", err)
		}
		encoded = append(encoded, data)
	}

	pipe := s.client.Pipeline()
	pipe.RPush(ctx, s.key(), encoded...)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append messages: %w", err)
	}
	return nil
}

// Clear deletes the conversation's stored messages.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}
	return nil
}

// Serialize returns the store's identifying state. Message content lives
// in Redis and is not duplicated here.
func (s *Store) Serialize() (map[string]any, error) {
	return map[string]any{
		"conversationId": s.conversationID,
		"keyPrefix":      s.prefix,
	}, nil
}
