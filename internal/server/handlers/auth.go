package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/eventsar/admin-gateway/internal/errors"
	"github.com/eventsar/admin-gateway/internal/metrics"
	"github.com/eventsar/admin-gateway/internal/observability"
	"github.com/eventsar/admin-gateway/internal/ratelimit"
	"github.com/eventsar/admin-gateway/internal/upstream"
)

// loginRequest is the credential payload accepted from the browser. It is
// validated here and re-marshaled before forwarding so arbitrary extra JSON
// never reaches the backend.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginUpstreamResponse is the only field the gateway reads from the
// backend's login reply. The rest of the body is discarded.
type loginUpstreamResponse struct {
	AccessToken string `json:"accessToken"`
}

// Login authenticates against the backend and sets the session cookie.
// Order matters: origin guard, then the per-IP rate limit, then the
// credential forward, so rejected callers never cost a backend round trip.
func (g *Gateway) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := g.Guard.Check(r); err != nil {
		metrics.RecordLoginAttempt("forbidden_origin")
		respondWithError(w, r, err)
		return
	}

	ip := clientIP(r)
	result, err := g.Limiter.Check(ctx, "login:"+ip, g.LoginLimit)
	if err != nil {
		// Fail open: an unreachable limiter store should not lock every
		// operator out of the console.
		if observability.ServerLogger != nil {
			observability.ServerLogger.Warn("rate limit store unavailable, allowing login attempt",
				zap.Error(err),
				zap.String("client_ip", ip),
			)
		}
		result = ratelimit.Result{Allowed: true, Remaining: g.LoginLimit.Max}
	}

	if !result.Allowed {
		metrics.RecordLoginAttempt("rate_limited")
		metrics.RecordRateLimitRejection("login")
		w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter/time.Second)))
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(g.LoginLimit.Max))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		respondWithError(w, r, apperrors.NewRateLimitedError("too many login attempts, try again later"))
		return
	}

	var creds loginRequest
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		metrics.RecordLoginAttempt("bad_request")
		respondWithError(w, r, apperrors.NewInvalidInputError("request body must be JSON with username and password"))
		return
	}
	if creds.Username == "" || creds.Password == "" {
		metrics.RecordLoginAttempt("bad_request")
		respondWithError(w, r, apperrors.NewInvalidInputError("username and password are required"))
		return
	}

	payload, err := json.Marshal(creds)
	if err != nil {
		respondWithError(w, r, apperrors.WrapInternal(ctx, err, "failed to encode login payload"))
		return
	}

	start := time.Now()
	resp, err := g.Upstream.Do(ctx, upstream.Request{
		Method: http.MethodPost,
		Path:   "/api/user/login",
		Body:   payload,
	})
	if err != nil {
		metrics.RecordLoginAttempt("upstream_error")
		if upstream.IsTimeout(err) {
			respondWithError(w, r, apperrors.WrapTimeout(ctx, err, "login request to backend timed out"))
			return
		}
		respondWithError(w, r, apperrors.WrapExternalService(ctx, err, "backend unreachable"))
		return
	}
	metrics.RecordUpstreamRequest(http.MethodPost, resp.Status, time.Since(start))

	if !resp.OK() {
		// The backend's own error detail stays server-side; callers get a
		// uniform message regardless of why the backend said no.
		if resp.Status >= 500 {
			metrics.RecordLoginAttempt("upstream_error")
			respondWithError(w, r, apperrors.NewExternalServiceError("login failed"))
			return
		}
		metrics.RecordLoginAttempt("invalid_credentials")
		respondWithError(w, r, apperrors.NewUnauthorizedError("login failed"))
		return
	}

	var body loginUpstreamResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil || body.AccessToken == "" {
		metrics.RecordLoginAttempt("upstream_error")
		respondWithError(w, r, apperrors.NewUpstreamContractError("login response missing token"))
		return
	}

	g.Sessions.Set(w, body.AccessToken)
	metrics.RecordLoginAttempt("success")
	writeOK(w)
}

// Logout clears the session cookie. The backend is not consulted: the token
// is opaque here and its server-side validity is the backend's concern.
func (g *Gateway) Logout(w http.ResponseWriter, r *http.Request) {
	if err := g.Guard.Check(r); err != nil {
		respondWithError(w, r, err)
		return
	}

	g.Sessions.Clear(w)
	writeOK(w)
}
