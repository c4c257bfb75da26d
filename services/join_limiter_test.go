package services

import (
	"context"
	"testing"
	"time"
)

func TestJoinLimiterCountsAndResets(t *testing.T) {
	mr, client := newTestRedis(t)
	limiter := NewJoinLimiter(client, 2, time.Minute)
	ctx := context.Background()

	limiter.Fail(ctx, 7, 3)
	if err := limiter.Allow(ctx, 7, 3); err != nil {
		t.Fatalf("expected allow after one failure: %v", err)
	}
	limiter.Fail(ctx, 7, 3)
	expectCode(t, limiter.Allow(ctx, 7, 3), ErrorTooManyRequests)

	if ttl := mr.TTL("quiz:join-attempts:3:7"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("expected counter to expire within the window, got %v", ttl)
	}
	if err := limiter.Allow(ctx, 8, 3); err != nil {
		t.Fatalf("other users are not throttled: %v", err)
	}

	limiter.Reset(ctx, 7, 3)
	if err := limiter.Allow(ctx, 7, 3); err != nil {
		t.Fatalf("expected allow after reset: %v", err)
	}
}

func TestRedisOutageFailsClosed(t *testing.T) {
	mr, client := newTestRedis(t)
	limiter := NewJoinLimiter(client, 1, time.Minute)
	store := NewRevocationStore(client)
	ctx := context.Background()
	mr.Close()

	expectCode(t, limiter.Allow(ctx, 1, 1), ErrorUnavailable)

	_, err := store.IsRevoked(ctx, "jti-1")
	expectCode(t, err, ErrorUnavailable)

	var disabled *JoinLimiter
	if err := disabled.Allow(ctx, 1, 1); err != nil {
		t.Fatalf("nil limiter should allow: %v", err)
	}
}

func TestRevocationStore(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRevocationStore(client)
	ctx := context.Background()

	if err := store.Revoke(ctx, "jti-1", time.Minute); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	revoked, err := store.IsRevoked(ctx, "jti-1")
	if err != nil || !revoked {
		t.Fatalf("expected jti-1 revoked, got %v %v", revoked, err)
	}
	revoked, _ = store.IsRevoked(ctx, "jti-2")
	if revoked {
		t.Fatalf("jti-2 was never revoked")
	}

	mr.FastForward(2 * time.Minute)
	revoked, _ = store.IsRevoked(ctx, "jti-1")
	if revoked {
		t.Fatalf("expected revocation to lapse with the token")
	}
}
