package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStoreWithClient(client), mr
}

func TestSaveAndLookupRefreshSession(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	err := store.SaveRefreshSession(ctx, "hash1", "u_1", "Alice", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("SaveRefreshSession: %v", err)
	}

	user, err := store.LookupRefreshSession(ctx, "hash1")
	if err != nil {
		t.Fatalf("LookupRefreshSession: %v", err)
	}
	if user.ID != "u_1" || user.DisplayName != "Alice" {
		t.Fatalf("user = %+v", user)
	}
}

func TestLookupUnknownSession(t *testing.T) {
	store, _ := newTestStore(t)
	if _, err := store.LookupRefreshSession(context.Background(), "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestRevokeRefreshSession(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveRefreshSession(ctx, "hash1", "u_1", "Alice", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("SaveRefreshSession: %v", err)
	}
	if err := store.RevokeRefreshSession(ctx, "hash1"); err != nil {
		t.Fatalf("RevokeRefreshSession: %v", err)
	}
	if _, err := store.LookupRefreshSession(ctx, "hash1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("revoked session still readable: %v", err)
	}
	// Revoking twice is fine.
	if err := store.RevokeRefreshSession(ctx, "hash1"); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
}

func TestRefreshSessionExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveRefreshSession(ctx, "hash1", "u_1", "Alice", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("SaveRefreshSession: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := store.LookupRefreshSession(ctx, "hash1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expired session still readable: %v", err)
	}
}
