package cart

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/partfinderz-backend/pkg/redis"
)

type fakeSessionClient struct {
	data    map[string]string
	ttls    map[string]time.Duration
	failGet error
}

func newFakeSessionClient() *fakeSessionClient {
	return &fakeSessionClient{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeSessionClient) Get(_ context.Context, key string) (string, error) {
	if f.failGet != nil {
		return "", f.failGet
	}
	v, ok := f.data[key]
	if !ok {
		return "", redis.ErrNotFound
	}
	return v, nil
}

func (f *fakeSessionClient) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	default:
		f.data[key] = fmt.Sprint(v)
	}
	f.ttls[key] = ttl
	return nil
}

func (f *fakeSessionClient) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	return true, f.Set(ctx, key, value, ttl)
}

func (f *fakeSessionClient) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeSessionClient) CartKey(userID string) string {
	return "pf:cart:" + userID
}

func TestRedisStoreRoundTrip(t *testing.T) {
	client := newFakeSessionClient()
	store, err := NewRedisStore(client, time.Hour)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	userID := uuid.New()
	ctx := context.Background()

	empty, err := store.Load(ctx, userID)
	if err != nil || len(empty.Lines) != 0 {
		t.Fatalf("missing session should load empty, got %+v %v", empty, err)
	}

	snap := Snapshot{Lines: []Line{{ProductID: "A", Name: "Filtro", UnitPrice: decimal.RequireFromString("49.90"), Quantity: 2, Stock: intPtr(4)}}}
	if err := store.Save(ctx, userID, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	if client.ttls["pf:cart:"+userID.String()] != time.Hour {
		t.Fatalf("expected ttl to be applied")
	}

	loaded, err := store.Load(ctx, userID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Lines) != 1 || !loaded.Lines[0].UnitPrice.Equal(snap.Lines[0].UnitPrice) || *loaded.Lines[0].Stock != 4 {
		t.Fatalf("unexpected loaded snapshot %+v", loaded)
	}

	if err := store.Save(ctx, userID, Snapshot{}); err != nil {
		t.Fatalf("save empty: %v", err)
	}
	if _, ok := client.data["pf:cart:"+userID.String()]; ok {
		t.Fatalf("saving an empty cart should delete the session")
	}
}

func TestRedisStoreErrors(t *testing.T) {
	if _, err := NewRedisStore(nil, time.Hour); err == nil {
		t.Fatal("expected error without client")
	}

	client := newFakeSessionClient()
	store, _ := NewRedisStore(client, time.Hour)
	userID := uuid.New()

	client.data["pf:cart:"+userID.String()] = "{not json"
	if _, err := store.Load(context.Background(), userID); err == nil {
		t.Fatal("expected decode error")
	}

	client.failGet = errors.New("connection refused")
	if _, err := store.Load(context.Background(), userID); err == nil {
		t.Fatal("expected load error")
	}
}
