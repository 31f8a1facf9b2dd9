// Package handlers contains the HTTP handlers mounted by the gateway server:
// login/logout, the verbatim backend proxy, upload forwarding, the public
// meta passthrough, and the health/version endpoints.
package handlers

import (
	"net/http"
	"strings"

	"github.com/eventsar/admin-gateway/internal/ratelimit"
	"github.com/eventsar/admin-gateway/internal/security"
	"github.com/eventsar/admin-gateway/internal/session"
	"github.com/eventsar/admin-gateway/internal/upstream"
)

// Gateway bundles the collaborators every proxying handler needs. The server
// package constructs one from config and hands it to the router.
type Gateway struct {
	Upstream *upstream.Client
	Sessions *session.Store
	Guard    *security.Guard
	Limiter  ratelimit.Store

	// LoginLimit is the fixed-window quota applied per client IP on the
	// login route.
	LoginLimit ratelimit.Limit

	// MaxUploadBytes bounds multipart upload bodies. Zero means no limit.
	MaxUploadBytes int64
}

// clientIP extracts the caller's IP for rate-limit keying. The first
// X-Forwarded-For entry wins (the gateway sits behind a reverse proxy in
// production), then X-Real-IP. "unknown" collapses unidentifiable callers
// into one shared bucket rather than letting them bypass the limiter.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0])
		if first != "" {
			return first
		}
	}
	if rip := strings.TrimSpace(r.Header.Get("X-Real-IP")); rip != "" {
		return rip
	}
	return "unknown"
}

// relay writes an upstream response to the client unchanged: status, raw
// body bytes, and content type all pass through without re-serialization.
func relay(w http.ResponseWriter, resp *upstream.Response) {
	w.Header().Set("Content-Type", resp.ContentType)
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}

// writeOK answers the small JSON acknowledgement used by login and logout.
func writeOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"ok":true}`))
}
