package ratelimiter

import (
	"testing"
	"time"
)

func TestAllowWithinBurst(t *testing.T) {
	l := New(1, 3, time.Minute)
	now := time.Now()

	for i := 0; i < 3; i++ {
		if !l.Allow("ip:10.0.0.1", now) {
			t.Fatalf("request %d within burst was denied", i)
		}
	}
	if l.Allow("ip:10.0.0.1", now) {
		t.Fatal("request beyond burst was allowed")
	}
}

func TestKeysIsolated(t *testing.T) {
	l := New(1, 1, time.Minute)
	now := time.Now()

	if !l.Allow("ip:a", now) {
		t.Fatal("first key denied")
	}
	if !l.Allow("ip:b", now) {
		t.Fatal("second key should have its own bucket")
	}
	if l.Allow("ip:a", now) {
		t.Fatal("first key should be exhausted")
	}
}

func TestRefillOverTime(t *testing.T) {
	l := New(2, 1, time.Minute)
	now := time.Now()

	if !l.Allow("ip:a", now) {
		t.Fatal("first request denied")
	}
	if l.Allow("ip:a", now) {
		t.Fatal("bucket should be empty")
	}
	if !l.Allow("ip:a", now.Add(time.Second)) {
		t.Fatal("bucket should refill after one second at 2 rps")
	}
}

func TestIdleEviction(t *testing.T) {
	l := New(1, 1, time.Second)
	now := time.Now()

	l.Allow("ip:stale", now)
	if l.Len() != 1 {
		t.Fatalf("Len = %d, want 1", l.Len())
	}

	// The sweep fires once the TTL window has elapsed.
	l.Allow("ip:fresh", now.Add(3*time.Second))
	if l.Len() != 1 {
		t.Fatalf("Len after sweep = %d, want 1 (stale key evicted)", l.Len())
	}
}

func TestNilAndBlankKeyPass(t *testing.T) {
	var l *MapLimiter
	if !l.Allow("ip:a", time.Now()) {
		t.Fatal("nil limiter must allow")
	}
	if New(0, 0, 0) != nil {
		t.Fatal("invalid settings should disable limiting")
	}
	real := New(1, 1, time.Minute)
	if !real.Allow("  ", time.Now()) {
		t.Fatal("blank key must bypass limiting")
	}
}
