package ratelimit

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

func TestLimiter_WindowAndReset(t *testing.T) {
	l := New(2, time.Minute)
	defer l.Stop()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if !l.Allow("k") || !l.Allow("k") {
		t.Fatal("first two requests should pass")
	}
	if l.Allow("k") {
		t.Fatal("third request should be limited")
	}
	if got := l.RetryAfter("k"); got != time.Minute {
		t.Errorf("RetryAfter = %v, want 1m", got)
	}
	if !l.Allow("other") {
		t.Error("keys must be independent")
	}

	now = now.Add(61 * time.Second)
	if !l.Allow("k") {
		t.Error("window should have expired")
	}

	l.Allow("k")
	l.Reset("k")
	if !l.Allow("k") {
		t.Error("Reset should clear the window")
	}
}

func TestLimiter_Sweep(t *testing.T) {
	l := New(1, time.Minute)
	defer l.Stop()
	now := time.Now()
	l.now = func() time.Time { return now }

	l.Allow("a")
	now = now.Add(2 * time.Minute)
	l.sweep()
	if len(l.windows) != 0 {
		t.Errorf("expected expired windows swept, have %d", len(l.windows))
	}
	l.Stop() // second Stop is a no-op
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"forwarded header ignored", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.1:1234", "10.0.0.1"},
		{"real ip header ignored", map[string]string{"X-Real-IP": " 198.51.100.2 "}, "10.0.0.1:1234", "10.0.0.1"},
		{"remote addr", nil, "192.0.2.1:5555", "192.0.2.1"},
		{"remote without port", nil, "192.0.2.1", "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/auth/login", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.header {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginLimiter(t *testing.T) {
	ll := NewLoginLimiterWithConfig(100, time.Minute, 2, time.Minute)
	defer ll.Stop()
	r := httptest.NewRequest("POST", "/api/auth/login", nil)

	for i := 0; i < 2; i++ {
		if ok, _ := ll.Check(r, "Alice@Example.com"); !ok {
			t.Fatalf("attempt %d should pass", i+1)
		}
	}
	ok, wait := ll.Check(r, " alice@example.com ")
	if ok {
		t.Fatal("login ID limit should apply case-insensitively")
	}
	if wait <= 0 {
		t.Errorf("expected a positive retry delay, got %v", wait)
	}

	ll.Succeeded("ALICE@example.com")
	if ok, _ := ll.Check(r, "alice@example.com"); !ok {
		t.Error("success should reset the account window")
	}
}

func TestLoginLimiter_RotatingForwardedForDoesNotEscapeIPLimit(t *testing.T) {
	ll := NewLoginLimiterWithConfig(2, time.Minute, 100, time.Minute)
	defer ll.Stop()

	attempt := func(i int) bool {
		r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		r.RemoteAddr = "192.0.2.10:40000"
		r.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		ok, _ := ll.Check(r, fmt.Sprintf("user%d", i))
		return ok
	}
	if !attempt(1) || !attempt(2) {
		t.Fatal("first two attempts should pass")
	}
	if attempt(3) {
		t.Error("a fresh X-Forwarded-For value reset the per-IP limit")
	}
}

func TestClientIP_BehindRealIP(t *testing.T) {
	var got string
	h := middleware.RealIP(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = ClientIP(r)
	}))
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	h.ServeHTTP(httptest.NewRecorder(), r)

	if got != "203.0.113.7" {
		t.Errorf("ClientIP behind RealIP = %q, want the forwarded client", got)
	}
}
