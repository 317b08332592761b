package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisLease(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	l := RedisLease{Redis: redis.NewClient(&redis.Options{Addr: mr.Addr()}), TTL: time.Minute}
	ctx := context.Background()

	ok, err := l.Acquire(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("first Acquire = %v, %v", ok, err)
	}
	if ok, _ = l.Acquire(ctx, "run-2"); ok {
		t.Fatal("second Acquire succeeded while the lease was held")
	}

	// A non-owner release must not free the lease.
	if err = l.Release(ctx, "run-2"); err != nil {
		t.Fatalf("Release by non-owner: %v", err)
	}
	if got, _ := mr.Get(DefaultLeaseKey); got != "run-1" {
		t.Fatalf("lease owner = %q, want run-1", got)
	}

	if err = l.Release(ctx, "run-1"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if mr.Exists(DefaultLeaseKey) {
		t.Fatal("lease still present after owner released it")
	}
	if ok, _ = l.Acquire(ctx, "run-2"); !ok {
		t.Fatal("Acquire after release failed")
	}
}

func TestRedisLeaseExpires(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	l := RedisLease{Redis: redis.NewClient(&redis.Options{Addr: mr.Addr()}), Key: "lease:test", TTL: time.Minute}
	ctx := context.Background()

	if ok, _ := l.Acquire(ctx, "crashed-run"); !ok {
		t.Fatal("Acquire failed")
	}
	mr.FastForward(2 * time.Minute)
	if ok, _ := l.Acquire(ctx, "next-run"); !ok {
		t.Fatal("Acquire after TTL expiry failed")
	}
}
