package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, rps float64, burst int) (*RateLimiter, http.Handler) {
	t.Helper()
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: rps, Burst: burst})
	t.Cleanup(rl.Close)
	return rl, rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func doFrom(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	_, handler := newTestLimiter(t, 100, 10)

	for range 5 {
		rec := doFrom(handler, "10.0.0.1:1")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimiter_RejectsOverBurst(t *testing.T) {
	_, handler := newTestLimiter(t, 1, 2)

	for range 2 {
		require.Equal(t, http.StatusOK, doFrom(handler, "10.0.0.1:1").Code)
	}

	rec := doFrom(handler, "10.0.0.1:2")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.InDelta(t, float64(429), body["code"], 0.001)
	assert.Equal(t, "rate limit exceeded", body["message"])
}

func TestRateLimiter_PerClientIsolation(t *testing.T) {
	_, handler := newTestLimiter(t, 1, 1)

	require.Equal(t, http.StatusOK, doFrom(handler, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, doFrom(handler, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusOK, doFrom(handler, "10.0.0.2:1").Code, "other clients are unaffected")
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	rl, handler := newTestLimiter(t, 10, 10)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	doFrom(handler, "10.0.0.1:1")
	doFrom(handler, "10.0.0.2:1")
	require.Equal(t, 2, rl.clients())

	now = now.Add(5 * time.Minute)
	doFrom(handler, "10.0.0.2:1")
	now = now.Add(6 * time.Minute)
	rl.evictIdle()
	assert.Equal(t, 1, rl.clients(), "only the recently seen client survives")
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{name: "IPv4 with port", remoteAddr: "192.168.1.1:12345", want: "192.168.1.1"},
		{name: "IPv6 with port", remoteAddr: "[::1]:12345", want: "::1"},
		{name: "no port", remoteAddr: "192.168.1.1", want: "192.168.1.1"},
		{name: "forwarded header ignored", remoteAddr: "10.0.0.1:1234", xff: "203.0.113.50", want: "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
