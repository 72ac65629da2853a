package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultLockTTL  = 10 * time.Second
	defaultLockWait = 3 * time.Second
	lockRetryDelay  = 25 * time.Millisecond
	lockSuffix      = ":lock"
)

// errCartBusy means another request kept the user's cart locked past the wait.
var errCartBusy = errors.New("cart is locked by another request")

// SessionLocker serializes the load, change and save of one user's cart.
type SessionLocker interface {
	Lock(ctx context.Context, userID uuid.UUID) (unlock func(), err error)
}

type lockClient interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CartKey(userID string) string
}

type redisLocker struct {
	client lockClient
	ttl    time.Duration
	wait   time.Duration
}

// NewRedisLocker locks pf:cart:<user>:lock with SETNX so every api instance
// sees the same lock. ttl bounds how long a crashed holder blocks the cart;
// wait bounds how long a request queues before giving up.
func NewRedisLocker(client lockClient, ttl, wait time.Duration) (SessionLocker, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required for cart lock")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if wait <= 0 {
		wait = defaultLockWait
	}
	return &redisLocker{client: client, ttl: ttl, wait: wait}, nil
}

func (l *redisLocker) Lock(ctx context.Context, userID uuid.UUID) (func(), error) {
	key := l.client.CartKey(userID.String()) + lockSuffix
	owner := uuid.NewString()

	deadline := time.NewTimer(l.wait)
	defer deadline.Stop()
	for {
		ok, err := l.client.SetNX(ctx, key, owner, l.ttl)
		if err != nil {
			return nil, fmt.Errorf("acquire cart lock: %w", err)
		}
		if ok {
			return func() { l.release(key, owner) }, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, errCartBusy
		case <-time.After(lockRetryDelay):
		}
	}
}

// release deletes the lock only while this request still owns it. A failed
// release is left to the TTL.
func (l *redisLocker) release(key, owner string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	value, err := l.client.Get(ctx, key)
	if err != nil || value != owner {
		return
	}
	_ = l.client.Del(ctx, key)
}

type localLocker struct {
	mu   sync.Mutex
	held map[uuid.UUID]chan struct{}
}

// NewLocalLocker serializes carts within a single process.
func NewLocalLocker() SessionLocker {
	return &localLocker{held: map[uuid.UUID]chan struct{}{}}
}

func (l *localLocker) Lock(ctx context.Context, userID uuid.UUID) (func(), error) {
	for {
		l.mu.Lock()
		waitOn, busy := l.held[userID]
		if !busy {
			done := make(chan struct{})
			l.held[userID] = done
			l.mu.Unlock()
			return func() {
				l.mu.Lock()
				delete(l.held, userID)
				l.mu.Unlock()
				close(done)
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-waitOn:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
