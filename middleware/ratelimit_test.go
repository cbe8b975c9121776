package middleware

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsWithinBudget(t *testing.T) {
	rl := NewRateLimiter(time.Minute, 3)
	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("fourth request in the window should be rejected")
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(time.Minute, 1)
	if !rl.Allow("1.1.1.1") {
		t.Fatal("first key should be allowed")
	}
	if !rl.Allow("2.2.2.2") {
		t.Fatal("second key has its own budget")
	}
	if rl.Allow("1.1.1.1") {
		t.Fatal("first key should now be over budget")
	}
}

func TestRateLimiterWindowResets(t *testing.T) {
	rl := NewRateLimiter(50*time.Millisecond, 1)
	if !rl.Allow("k") {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow("k") {
		t.Fatal("second request should be rejected inside the window")
	}
	time.Sleep(60 * time.Millisecond)
	if !rl.Allow("k") {
		t.Fatal("request after the window should be allowed again")
	}
}
