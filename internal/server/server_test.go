package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "github.com/eventsar/admin-gateway/internal/errors"
	"github.com/eventsar/admin-gateway/internal/ratelimit"
	"github.com/eventsar/admin-gateway/internal/security"
	"github.com/eventsar/admin-gateway/internal/session"
	"github.com/eventsar/admin-gateway/internal/server/handlers"
	"github.com/eventsar/admin-gateway/internal/upstream"
)

const testOrigin = "http://localhost:3000"

// newTestServer wires a full server against a stub backend.
func newTestServer(t *testing.T, backend http.Handler) *Server {
	t.Helper()

	ts := httptest.NewServer(backend)
	t.Cleanup(ts.Close)

	gw := &handlers.Gateway{
		Upstream:   upstream.New(ts.URL, 5*time.Second),
		Sessions:   session.New("", false),
		Guard:      security.NewGuard(nil),
		Limiter:    ratelimit.NewMemoryStore(),
		LoginLimit: ratelimit.Limit{Window: 5 * time.Minute, Max: 10},
	}

	return New("127.0.0.1", 0, gw)
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body apperrors.HTTPErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return body.Error.Code
}

func TestServerUsesStandardErrorHandlers(t *testing.T) {
	srv := newTestServer(t, http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}

	if code := decodeErrorCode(t, rec); code != "NOT_FOUND" {
		t.Fatalf("expected error code NOT_FOUND, got %s", code)
	}
}

func TestProxyRequiresSession(t *testing.T) {
	srv := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("backend must not be reached without a session")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/events", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}

	if code := decodeErrorCode(t, rec); code != "UNAUTHORIZED" {
		t.Fatalf("expected error code UNAUTHORIZED, got %s", code)
	}
}

func TestProxyRelaysBackendResponseVerbatim(t *testing.T) {
	const backendBody = `{"items":[{"id":7}],"extra":  "spacing preserved"}`

	srv := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("expected bearer token, got %q", got)
		}
		if r.URL.Path != "/api/admin/events" {
			t.Errorf("unexpected backend path %q", r.URL.Path)
		}
		if r.URL.RawQuery != "page=2&sort=name" {
			t.Errorf("query not preserved, got %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(backendBody))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/events?page=2&sort=name", nil)
	req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: "tok-123"})
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected backend status to pass through, got %d", rec.Code)
	}
	if rec.Body.String() != backendBody {
		t.Fatalf("body not relayed verbatim: %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("content type not relayed, got %q", ct)
	}
}

func TestProxyRejectsCrossOriginMutation(t *testing.T) {
	srv := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("backend must not be reached for a cross-origin mutation")
	}))

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/events/1", nil)
	req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: "tok-123"})
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
}

func TestProxyRejectsNonJSONBody(t *testing.T) {
	srv := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("backend must not be reached for an unsupported media type")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/admin/events", strings.NewReader("<xml/>"))
	req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: "tok-123"})
	req.Header.Set("Origin", testOrigin)
	req.Header.Set("Content-Type", "application/xml")
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected status 415, got %d", rec.Code)
	}

	if code := decodeErrorCode(t, rec); code != "UNSUPPORTED_MEDIA_TYPE" {
		t.Fatalf("expected error code UNSUPPORTED_MEDIA_TYPE, got %s", code)
	}
}

func TestLoginSetsSessionCookie(t *testing.T) {
	srv := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/user/login" {
			t.Errorf("unexpected backend path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accessToken":"issued-token"}`))
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"username":"admin","password":"secret"}`))
	req.Header.Set("Origin", testOrigin)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (body %s)", rec.Code, rec.Body.String())
	}

	cookies := rec.Result().Cookies()
	var found *http.Cookie
	for _, c := range cookies {
		if c.Name == session.DefaultCookieName {
			found = c
		}
	}
	if found == nil {
		t.Fatal("expected session cookie to be set")
	}
	if found.Value != "issued-token" {
		t.Fatalf("expected cookie to carry the backend token, got %q", found.Value)
	}
	if !found.HttpOnly {
		t.Fatal("session cookie must be HttpOnly")
	}
}

func TestLoginRateLimitReturns429WithHeaders(t *testing.T) {
	backendCalls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backendCalls++
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad credentials"}`))
	}))
	t.Cleanup(ts.Close)

	gw := &handlers.Gateway{
		Upstream:   upstream.New(ts.URL, 5*time.Second),
		Sessions:   session.New("", false),
		Guard:      security.NewGuard(nil),
		Limiter:    ratelimit.NewMemoryStore(),
		LoginLimit: ratelimit.Limit{Window: 5 * time.Minute, Max: 2},
	}
	srv := New("127.0.0.1", 0, gw)

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"username":"admin","password":"wrong"}`))
		req.Header.Set("Origin", testOrigin)
		req.Header.Set("X-Forwarded-For", "203.0.113.9")
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := do(); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, rec.Code)
		}
	}

	rec := do()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
	if got := rec.Header().Get("X-RateLimit-Limit"); got != "2" {
		t.Fatalf("expected X-RateLimit-Limit 2, got %q", got)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("expected X-RateLimit-Remaining 0, got %q", got)
	}
	if backendCalls != 2 {
		t.Fatalf("rate-limited attempt must not reach the backend, saw %d calls", backendCalls)
	}
}

func TestLogoutClearsSessionCookie(t *testing.T) {
	srv := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("logout must not contact the backend")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("Origin", testOrigin)
	req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: "tok-123"})
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var cleared *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.DefaultCookieName {
			cleared = c
		}
	}
	if cleared == nil {
		t.Fatal("expected a Set-Cookie clearing the session")
	}
	if cleared.Value != "" || cleared.MaxAge >= 0 {
		t.Fatalf("expected empty expired cookie, got value %q maxage %d", cleared.Value, cleared.MaxAge)
	}
}

func TestMetaIsPublic(t *testing.T) {
	srv := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/meta" {
			t.Errorf("unexpected backend path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"eventsar","environment":"test"}`))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/meta", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "eventsar") {
		t.Fatalf("expected backend meta body, got %q", rec.Body.String())
	}
}
