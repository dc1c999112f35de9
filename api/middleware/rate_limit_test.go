package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeLimiter struct {
	counts map[string]int64
	err    error
}

func (f *fakeLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	if f.counts == nil {
		f.counts = make(map[string]int64)
	}
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func limitedRequest(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
	return req.WithContext(WithUserID(req.Context(), userID))
}

func TestUserRateLimitBlocksAfterLimit(t *testing.T) {
	limiter := &fakeLimiter{}
	policy := UserRateLimitPolicy{Scope: "checkout", Window: time.Minute, Limit: 2}
	handler := UserRateLimit(policy, limiter, nil)(okHandler())

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, limitedRequest("user-1"))
		switch {
		case i < 2 && rec.Code != http.StatusOK:
			t.Fatalf("request %d: expected 200 got %d", i, rec.Code)
		case i == 2:
			if rec.Code != http.StatusTooManyRequests {
				t.Fatalf("expected 429 got %d", rec.Code)
			}
			if rec.Header().Get("Retry-After") != "60" {
				t.Fatalf("expected Retry-After 60 got %q", rec.Header().Get("Retry-After"))
			}
		}
	}

	if limiter.counts["checkout:user-1"] != 3 {
		t.Fatalf("expected per-user scope, counts=%v", limiter.counts)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, limitedRequest("user-2"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected other user to pass, got %d", rec.Code)
	}
}

func TestUserRateLimitFailsOpen(t *testing.T) {
	limiter := &fakeLimiter{err: errors.New("redis down")}
	policy := UserRateLimitPolicy{Scope: "checkout", Window: time.Minute, Limit: 1}

	rec := httptest.NewRecorder()
	UserRateLimit(policy, limiter, nil)(okHandler()).ServeHTTP(rec, limitedRequest("user-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 when limiter errors, got %d", rec.Code)
	}
}
