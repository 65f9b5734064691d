package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestTTLCacheRoundTrip(t *testing.T) {
	c := NewTTLCache(10)
	if err := c.SetBytes("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("SetBytes: %v", err)
	}
	b, ok, err := c.GetBytes("k")
	if err != nil || !ok {
		t.Fatalf("GetBytes: ok=%v err=%v", ok, err)
	}
	if string(b) != "v" {
		t.Fatalf("got %q", b)
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache(10)
	_ = c.SetBytes("k", []byte("v"), time.Nanosecond)
	time.Sleep(5 * time.Millisecond)
	if _, ok, _ := c.GetBytes("k"); ok {
		t.Fatal("expired entry served")
	}
}

func TestTTLCacheBounded(t *testing.T) {
	c := NewTTLCache(8)
	for i := 0; i < 100; i++ {
		_ = c.SetBytes(fmt.Sprintf("k%d", i), []byte("v"), time.Minute)
	}
	c.mu.RLock()
	n := len(c.m)
	c.mu.RUnlock()
	if n > 8 {
		t.Fatalf("cache holds %d entries, want <= 8", n)
	}
}

func TestTTLCacheMiss(t *testing.T) {
	c := NewTTLCache(0)
	if _, ok, err := c.GetBytes("absent"); ok || err != nil {
		t.Fatalf("ok=%v err=%v for missing key", ok, err)
	}
}
