package handlers

import (
	"io"
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

func newUploadGateway(t *testing.T, backend http.Handler, maxBytes int64) *Gateway {
	t.Helper()

	ts := httptest.NewServer(backend)
	t.Cleanup(ts.Close)

	return &Gateway{
		Upstream:       upstream.New(ts.URL, 5*time.Second),
		Sessions:       session.New("", false),
		Guard:          security.NewGuard(nil),
		Limiter:        ratelimit.NewMemoryStore(),
		LoginLimit:     ratelimit.Limit{Window: 5 * time.Minute, Max: 10},
		MaxUploadBytes: maxBytes,
	}
}

func uploadRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/admin/upload/image", strings.NewReader(body))
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Content-Type", "multipart/form-data; boundary=frame")
	req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: "tok-upload"})
	return req
}

func TestUploadRequiresSession(t *testing.T) {
	gw := newUploadGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("backend must not see unauthenticated uploads")
	}), 0)

	req := uploadRequest("--frame\r\npayload\r\n--frame--")
	req.Header.Del("Cookie")

	rec := httptest.NewRecorder()
	gw.UploadImage(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestUploadRejectsCrossOrigin(t *testing.T) {
	gw := newUploadGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("backend must not see cross-origin uploads")
	}), 0)

	req := uploadRequest("--frame\r\npayload\r\n--frame--")
	req.Header.Set("Origin", "https://evil.example")

	rec := httptest.NewRecorder()
	gw.UploadImage(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestUploadForwardsMultipartVerbatim(t *testing.T) {
	const payload = "--frame\r\nContent-Disposition: form-data; name=\"file\"\r\n\r\nbinary bytes\r\n--frame--"

	gw := newUploadGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/admin/upload/model" {
			t.Fatalf("unexpected backend path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "multipart/form-data; boundary=frame" {
			t.Fatalf("multipart boundary lost: %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-upload" {
			t.Fatalf("expected bearer token, got %q", got)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("failed to read upload body: %v", err)
		}
		if string(body) != payload {
			t.Fatalf("upload body altered in transit: %q", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"url":"/media/model.glb"}`))
	}), 0)

	rec := httptest.NewRecorder()
	gw.UploadModel(rec, uploadRequest(payload))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if rec.Body.String() != `{"url":"/media/model.glb"}` {
		t.Fatalf("backend response altered in transit: %s", rec.Body.String())
	}
}

func TestUploadRejectsOversizeBody(t *testing.T) {
	backendCalled := false
	gw := newUploadGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backendCalled = true
		_, _ = w.Write([]byte(`{"ok":true}`))
	}), 16)

	rec := httptest.NewRecorder()
	gw.UploadImage(rec, uploadRequest(strings.Repeat("x", 1024)))

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}

	var resp apperrors.HTTPErrorResponse
	decodeJSONBody(t, rec, &resp)
	if resp.Error.Code != "PAYLOAD_TOO_LARGE" {
		t.Fatalf("expected PAYLOAD_TOO_LARGE, got %s", resp.Error.Code)
	}
	// The transport may or may not have reached the backend before the limit
	// tripped; what matters is the caller sees 413. Guard against the backend
	// response leaking through.
	if backendCalled && strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("backend response leaked past the size limit: %s", rec.Body.String())
	}
}
