// Package redis implements checkpoint.Store over go-redis, grounded on the
// teacher pack's RedisGenerationCache (manifold/internal/workspaces).
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/nevindra/ragforge"
	"github.com/nevindra/ragforge/checkpoint"
)

// Store persists checkpoints as JSON under "run:{runId}:checkpoint".
type Store struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets an expiry on stored checkpoints; the zero value (default)
// keeps them indefinitely.
func WithTTL(d time.Duration) Option { return func(s *Store) { s.ttl = d } }

// New connects to a single Redis node at addr.
func New(addr, password string, db int, opts ...Option) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("checkpoint/redis: ping %s: %w", addr, err)
	}
	s := &Store{client: client}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

func key(runID string) string { return "run:" + runID + ":checkpoint" }

// Save overwrites the checkpoint for cp.RunID.
func (s *Store) Save(ctx context.Context, cp ragforge.Checkpoint) error {
	payload, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("checkpoint/redis: marshal: %w", err)
	}
	if err := s.client.Set(ctx, key(cp.RunID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("checkpoint/redis: set: %w", err)
	}
	return nil
}

// Load returns the checkpoint for runID, or ok=false if none exists.
func (s *Store) Load(ctx context.Context, runID string) (ragforge.Checkpoint, bool, error) {
	raw, err := s.client.Get(ctx, key(runID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return ragforge.Checkpoint{}, false, nil
	}
	if err != nil {
		return ragforge.Checkpoint{}, false, fmt.Errorf("checkpoint/redis: get: %w", err)
	}
	var cp ragforge.Checkpoint
	if err := json.Unmarshal(raw, &cp); err != nil {
		return ragforge.Checkpoint{}, false, fmt.Errorf("checkpoint/redis: unmarshal: %w", err)
	}
	return cp, true, nil
}

var _ checkpoint.Store = (*Store)(nil)
