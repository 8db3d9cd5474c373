package web

import (
	"fmt"
	"testing"
	"time"
)

func TestRateLimiterWindow(t *testing.T) {
	l := newRateLimiter(RateLimitConfig{WindowMs: time.Minute, MaxRequests: 2})
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

	want := []bool{true, true, false}
	for i, w := range want {
		if got := l.allow("1.1.1.1", now); got != w {
			t.Errorf("request %d allowed = %v, want %v", i+1, got, w)
		}
	}
	if !l.allow("2.2.2.2", now) {
		t.Error("other clients have their own window")
	}
	if !l.allow("1.1.1.1", now.Add(time.Minute+time.Second)) {
		t.Error("a new window should allow the client again")
	}
}

func TestRateLimiterPrunesExpiredClients(t *testing.T) {
	l := newRateLimiter(RateLimitConfig{WindowMs: time.Minute, MaxRequests: 5})
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

	for i := 0; i < 50; i++ {
		l.allow(fmt.Sprintf("10.0.0.%d", i), now)
	}
	if l.size() != 50 {
		t.Fatalf("size() = %d, want 50", l.size())
	}

	l.allow("10.0.1.1", now.Add(2*time.Minute))
	if l.size() != 1 {
		t.Errorf("size() = %d, want 1 after pruning", l.size())
	}
}
