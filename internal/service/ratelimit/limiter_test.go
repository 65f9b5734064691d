package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllowConsumesTokens(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		if !l.Allow("k", 3, 0) {
			t.Fatalf("call %d should be allowed", i)
		}
	}
	if l.Allow("k", 3, 0) {
		t.Fatal("bucket should be empty")
	}
}

func TestAllowRefills(t *testing.T) {
	l := New()
	if !l.Allow("k", 1, 1000) {
		t.Fatal("first call should be allowed")
	}
	time.Sleep(10 * time.Millisecond)
	if !l.Allow("k", 1, 1000) {
		t.Fatal("bucket should have refilled")
	}
}

func TestAllowKeysIndependent(t *testing.T) {
	l := New()
	if !l.Allow("a", 1, 0) {
		t.Fatal("key a should be allowed")
	}
	if !l.Allow("b", 1, 0) {
		t.Fatal("key b has its own bucket")
	}
}

func TestWaitHonorsContext(t *testing.T) {
	l := New()
	l.Allow("k", 1, 0) // drain, no refill

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, "k", 1, 0); err == nil {
		t.Fatal("expected context deadline error")
	}
}
