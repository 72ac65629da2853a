package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/partfinderz-backend/pkg/redis"
)

type sessionClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(userID string) string
}

// SessionStore persists cart snapshots per user.
type SessionStore interface {
	Load(ctx context.Context, userID uuid.UUID) (Snapshot, error)
	Save(ctx context.Context, userID uuid.UUID, snapshot Snapshot) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

type redisStore struct {
	client sessionClient
	ttl    time.Duration
}

// NewRedisStore keeps snapshots as JSON under the user's cart key; each save
// refreshes the TTL.
func NewRedisStore(client sessionClient, ttl time.Duration) (SessionStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &redisStore{client: client, ttl: ttl}, nil
}

func (s *redisStore) Load(ctx context.Context, userID uuid.UUID) (Snapshot, error) {
	raw, err := s.client.Get(ctx, s.client.CartKey(userID.String()))
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return Snapshot{}, nil
		}
		return Snapshot{}, fmt.Errorf("load cart session: %w", err)
	}
	var snapshot Snapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("decode cart session: %w", err)
	}
	return snapshot, nil
}

func (s *redisStore) Save(ctx context.Context, userID uuid.UUID, snapshot Snapshot) error {
	if len(snapshot.Lines) == 0 {
		return s.Delete(ctx, userID)
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode cart session: %w", err)
	}
	if err := s.client.Set(ctx, s.client.CartKey(userID.String()), payload, s.ttl); err != nil {
		return fmt.Errorf("save cart session: %w", err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := s.client.Del(ctx, s.client.CartKey(userID.String())); err != nil {
		return fmt.Errorf("delete cart session: %w", err)
	}
	return nil
}
