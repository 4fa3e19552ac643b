package idempotency

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

func TestMemoryStore_FirstCallIsNotDuplicate(t *testing.T) {
	s := newMemoryStore(time.Hour)
	dup, err := s.Claim(context.Background(), "req_001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dup {
		t.Fatal("first claim should not be duplicate")
	}
}

func TestMemoryStore_SecondCallIsDuplicate(t *testing.T) {
	s := newMemoryStore(time.Hour)
	ctx := context.Background()

	_, _ = s.Claim(ctx, "req_002")

	dup, err := s.Claim(ctx, "req_002")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dup {
		t.Fatal("second claim should be duplicate")
	}
}

func TestMemoryStore_ExpiredClaimIsReusable(t *testing.T) {
	s := newMemoryStore(time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	_, _ = s.Claim(ctx, "req_003")
	now = now.Add(2 * time.Minute)

	dup, _ := s.Claim(ctx, "req_003")
	if dup {
		t.Fatal("claim past the TTL should not be duplicate")
	}
}

func TestMemoryStore_ReleaseAllowsRetry(t *testing.T) {
	s := newMemoryStore(time.Hour)
	ctx := context.Background()

	_, _ = s.Claim(ctx, "req_004")
	if err := s.Release(ctx, "req_004"); err != nil {
		t.Fatalf("release: %v", err)
	}
	dup, _ := s.Claim(ctx, "req_004")
	if dup {
		t.Fatal("released key should be claimable again")
	}
}

func TestNewStore_FallsBackToMemory(t *testing.T) {
	s, err := NewStore("", nil, 0, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.(*memoryStore); !ok {
		t.Fatalf("expected memoryStore when no backend provided, got %T", s)
	}
}

func TestNewStore_PrefersRedis(t *testing.T) {
	s, err := NewStore("redis://127.0.0.1:6379/0", nil, time.Minute, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.(*redisStore); !ok {
		t.Fatalf("expected redisStore, got %T", s)
	}
}

func TestNewStore_RejectsMemoryInProd(t *testing.T) {
	s, err := NewStore("", nil, 0, true)
	if err == nil {
		t.Fatalf("expected error in production with no backend, got store %T", s)
	}
	if s != nil {
		t.Fatalf("expected nil store, got %T", s)
	}
}

func TestKey(t *testing.T) {
	k, err := Key("create_comment", 42, " abc-123 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if k != "create_comment:42:abc-123" {
		t.Fatalf("unexpected key %q", k)
	}
	for _, bad := range []string{"", "   ", "has space", strings.Repeat("x", MaxKeyLength+1)} {
		if _, err := Key("create_comment", 42, bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestRedisStore_Integration(t *testing.T) {
	dsn := os.Getenv("TEST_REDIS_DSN")
	if dsn == "" {
		t.Skip("TEST_REDIS_DSN not set")
	}
	s := newRedisStore(dsn, time.Minute)
	ctx := context.Background()
	key := "it:" + time.Now().Format(time.RFC3339Nano)
	defer s.Release(ctx, key)

	if dup, err := s.Claim(ctx, key); err != nil || dup {
		t.Fatalf("first claim: dup=%v err=%v", dup, err)
	}
	if dup, err := s.Claim(ctx, key); err != nil || !dup {
		t.Fatalf("second claim: dup=%v err=%v", dup, err)
	}
}
