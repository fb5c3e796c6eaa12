package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/octobees/places-agent/internal/config"
)

func TestLoggingMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(ContextKeyRequestID, "rid-123")

	err := Logging(logger)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	entries := logs.FilterField(zap.String("request_id", "rid-123")).All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry with request id, got %d", len(entries))
	}
	if entries[0].ContextMap()["status"] != int64(http.StatusOK) {
		t.Fatalf("expected status field, got %v", entries[0].ContextMap())
	}

	// ensure errors are propagated and logged
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.Set(ContextKeyRequestID, "rid-456")
	expected := errors.New("boom")
	err = Logging(logger)(func(c echo.Context) error {
		return expected
	})(c)
	if logs.FilterField(zap.String("request_id", "rid-456")).Len() != 1 {
		t.Fatalf("expected second log entry with new request id")
	}
	if !errors.Is(err, expected) {
		t.Fatalf("expected error to bubble up")
	}
}

func TestSearchRateLimiter(t *testing.T) {
	cfg := config.RateLimitConfig{Requests: 1, Interval: time.Second}
	mw := SearchRateLimiter(cfg)

	e := echo.New()
	nextCalls := 0
	next := func(c echo.Context) error {
		nextCalls++
		return c.NoContent(http.StatusOK)
	}

	req := httptest.NewRequest(http.MethodPost, "/copilotkit/search", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	_ = mw(next)(c)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}

	req2 := httptest.NewRequest(http.MethodPost, "/copilotkit/search", nil)
	rec2 := httptest.NewRecorder()
	c2 := e.NewContext(req2, rec2)
	_ = mw(next)(c2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request rejected, got %d", rec2.Code)
	}

	// zero config should behave as passthrough
	mw = SearchRateLimiter(config.RateLimitConfig{})
	req3 := httptest.NewRequest(http.MethodPost, "/copilotkit/search", nil)
	rec3 := httptest.NewRecorder()
	c3 := e.NewContext(req3, rec3)
	_ = mw(next)(c3)
	if rec3.Code != http.StatusOK {
		t.Fatalf("expected passthrough when limiter disabled")
	}
	if nextCalls != 2 {
		t.Fatalf("expected next handler to be invoked twice, got %d", nextCalls)
	}
}

func TestSearchRateLimiter_PerCaller(t *testing.T) {
	mw := SearchRateLimiter(config.RateLimitConfig{Requests: 1, Interval: time.Hour})
	e := echo.New()
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	call := func(subject, remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/copilotkit/search", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if subject != "" {
			c.Set(ContextKeySubject, subject)
		}
		_ = mw(next)(c)
		return rec.Code
	}

	tests := []struct {
		name    string
		subject string
		remote  string
		want    int
	}{
		{"first runtime", "runtime-a", "10.0.0.1:1000", http.StatusOK},
		{"same subject other address", "runtime-a", "10.0.0.2:1000", http.StatusTooManyRequests},
		{"other subject same address", "runtime-b", "10.0.0.1:1000", http.StatusOK},
		{"anonymous keyed by address", "", "10.0.0.1:1000", http.StatusOK},
		{"anonymous same address again", "", "10.0.0.1:2000", http.StatusTooManyRequests},
		{"anonymous other address", "", "10.0.0.3:1000", http.StatusOK},
	}
	for _, tt := range tests {
		if got := call(tt.subject, tt.remote); got != tt.want {
			t.Fatalf("%s: expected %d, got %d", tt.name, tt.want, got)
		}
	}
}

func TestCallerLimiter_SweepsIdleBuckets(t *testing.T) {
	now := time.Unix(0, 0)
	l := &callerLimiter{
		every:   rate.Every(time.Minute),
		burst:   1,
		idle:    time.Minute,
		buckets: make(map[string]*callerBucket),
		now:     func() time.Time { return now },
	}

	for i := 0; i < maxCallerBuckets; i++ {
		l.allow(fmt.Sprintf("ip:%d", i))
	}
	if len(l.buckets) != maxCallerBuckets {
		t.Fatalf("expected %d buckets, got %d", maxCallerBuckets, len(l.buckets))
	}

	now = now.Add(2 * time.Minute)
	if !l.allow("sub:runtime") {
		t.Fatalf("expected new caller to be allowed")
	}
	if len(l.buckets) != 1 {
		t.Fatalf("expected idle buckets swept, got %d", len(l.buckets))
	}
}

func TestRequireScope(t *testing.T) {
	e := echo.New()
	mw := RequireScope("places:search", true)

	t.Run("missing scope", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		_ = mw(func(c echo.Context) error { return nil })(c)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("incorrect scope", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(ContextKeyScope, "places:read")

		_ = mw(func(c echo.Context) error { return nil })(c)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(ContextKeyScope, "places:search")

		called := false
		if err := mw(func(c echo.Context) error {
			called = true
			return c.NoContent(http.StatusOK)
		})(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !called {
			t.Fatalf("expected handler to run")
		}
	})

	t.Run("disabled", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		called := false
		_ = RequireScope("places:search", false)(func(c echo.Context) error {
			called = true
			return nil
		})(c)
		if !called {
			t.Fatalf("expected passthrough when auth disabled")
		}
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	e := echo.New()
	handler := RequestID()

	t.Run("reuse incoming header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "incoming")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := handler(func(c echo.Context) error {
			if RequestIDFromContext(c) != "incoming" {
				t.Fatalf("expected request id to be stored")
			}
			return c.NoContent(http.StatusOK)
		})(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if rec.Header().Get("X-Request-ID") != "incoming" {
			t.Fatalf("expected response header to propagate request id")
		}
	})

	t.Run("replace unusable header", func(t *testing.T) {
		for _, incoming := range []string{"has space", strings.Repeat("x", maxRequestIDLength+1)} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Request-ID", incoming)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			var rid string
			if err := handler(func(c echo.Context) error {
				rid = RequestIDFromContext(c)
				return c.NoContent(http.StatusOK)
			})(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if _, err := uuid.Parse(rid); err != nil {
				t.Fatalf("expected generated uuid for %q, got %q", incoming, rid)
			}
			if rec.Header().Get("X-Request-ID") != rid {
				t.Fatalf("expected response header to carry the generated id")
			}
		}
	})

	t.Run("generate when missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := handler(func(c echo.Context) error {
			rid := RequestIDFromContext(c)
			if rid == "" {
				t.Fatalf("expected generated request id")
			}
			return c.NoContent(http.StatusOK)
		})(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if rec.Header().Get("X-Request-ID") == "" {
			t.Fatalf("expected response header set")
		}
	})
}
