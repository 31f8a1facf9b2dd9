package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "github.com/eventsar/admin-gateway/internal/errors"
	"github.com/eventsar/admin-gateway/internal/ratelimit"
	"github.com/eventsar/admin-gateway/internal/security"
	"github.com/eventsar/admin-gateway/internal/session"
	"github.com/eventsar/admin-gateway/internal/upstream"
)

// failingStore simulates an unreachable shared rate-limit store.
type failingStore struct{}

func (failingStore) Check(ctx context.Context, key string, limit ratelimit.Limit) (ratelimit.Result, error) {
	return ratelimit.Result{}, errors.New("store unreachable")
}

func decodeJSONBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name string
		xff  string
		rip  string
		want string
	}{
		{"forwarded-for first entry", "203.0.113.7, 10.0.0.1", "", "203.0.113.7"},
		{"forwarded-for single", "203.0.113.8", "192.0.2.1", "203.0.113.8"},
		{"real-ip fallback", "", "192.0.2.1", "192.0.2.1"},
		{"nothing identifiable", "", "", "unknown"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.rip != "" {
				req.Header.Set("X-Real-IP", tc.rip)
			}

			if got := clientIP(req); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func newLoginGateway(t *testing.T, backend http.Handler) *Gateway {
	t.Helper()

	ts := httptest.NewServer(backend)
	t.Cleanup(ts.Close)

	return &Gateway{
		Upstream:   upstream.New(ts.URL, 5*time.Second),
		Sessions:   session.New("", false),
		Guard:      security.NewGuard(nil),
		Limiter:    ratelimit.NewMemoryStore(),
		LoginLimit: ratelimit.Limit{Window: 5 * time.Minute, Max: 10},
	}
}

func loginRequestWithOrigin(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestLoginRejectsMalformedBody(t *testing.T) {
	gw := newLoginGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("backend must not see malformed login payloads")
	}))

	rec := httptest.NewRecorder()
	gw.Login(rec, loginRequestWithOrigin(`{"username": 42}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLoginRejectsMissingCredentials(t *testing.T) {
	gw := newLoginGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("backend must not see empty credentials")
	}))

	rec := httptest.NewRecorder()
	gw.Login(rec, loginRequestWithOrigin(`{"username":"admin"}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLoginMapsBackendRejectionToUnauthorized(t *testing.T) {
	gw := newLoginGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"account locked, contact support"}`))
	}))

	rec := httptest.NewRecorder()
	gw.Login(rec, loginRequestWithOrigin(`{"username":"admin","password":"pw"}`))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	// Backend detail must not leak to the caller.
	if strings.Contains(rec.Body.String(), "account locked") {
		t.Fatalf("backend error detail leaked: %s", rec.Body.String())
	}
}

func TestLoginMapsBackendOutageToBadGateway(t *testing.T) {
	gw := newLoginGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	rec := httptest.NewRecorder()
	gw.Login(rec, loginRequestWithOrigin(`{"username":"admin","password":"pw"}`))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestLoginFlagsMissingTokenAsContractViolation(t *testing.T) {
	gw := newLoginGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user":{"id":1}}`))
	}))

	rec := httptest.NewRecorder()
	gw.Login(rec, loginRequestWithOrigin(`{"username":"admin","password":"pw"}`))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	var resp apperrors.HTTPErrorResponse
	decodeJSONBody(t, rec, &resp)
	if resp.Error.Code != "UPSTREAM_CONTRACT" {
		t.Fatalf("expected UPSTREAM_CONTRACT, got %s", resp.Error.Code)
	}
}

func TestLoginFailsOpenWhenLimiterErrors(t *testing.T) {
	gw := newLoginGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accessToken":"tok"}`))
	}))
	gw.Limiter = failingStore{}

	rec := httptest.NewRecorder()
	gw.Login(rec, loginRequestWithOrigin(`{"username":"admin","password":"pw"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected login to fail open with 200, got %d", rec.Code)
	}
}
