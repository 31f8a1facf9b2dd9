package handlers

import (
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/eventsar/admin-gateway/internal/errors"
	"github.com/eventsar/admin-gateway/internal/metrics"
	"github.com/eventsar/admin-gateway/internal/upstream"
)

// Proxy forwards /api/admin/* requests to the backend verbatim. The gateway
// adds authentication (cookie token becomes a bearer header) and the origin
// guard; everything else (path, query, body, response) passes through
// untouched.
func (g *Gateway) Proxy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := g.Sessions.Token(r)
	if token == "" {
		respondWithError(w, r, apperrors.NewUnauthorizedError("authentication required"))
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		if err := g.Guard.Check(r); err != nil {
			respondWithError(w, r, err)
			return
		}
	}

	var body []byte
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			respondWithError(w, r, apperrors.WrapInvalidInput(ctx, err, "failed to read request body"))
			return
		}

		// JSON only on this route. Binary payloads belong on the upload
		// routes, which preserve multipart bodies.
		if len(body) > 0 {
			if ct := r.Header.Get("Content-Type"); ct != "" {
				mediaType, _, err := mime.ParseMediaType(ct)
				if err != nil || mediaType != "application/json" {
					respondWithError(w, r, apperrors.NewUnsupportedMediaError("request body must be application/json"))
					return
				}
			}
		}
	}

	subpath := chi.URLParam(r, "*")

	start := time.Now()
	resp, err := g.Upstream.Do(ctx, upstream.Request{
		Method:   r.Method,
		Path:     "/api/admin/" + subpath,
		RawQuery: r.URL.RawQuery,
		Body:     body,
		Accept:   r.Header.Get("Accept"),
		Token:    token,
	})
	if err != nil {
		if upstream.IsTimeout(err) {
			respondWithError(w, r, apperrors.WrapTimeout(ctx, err, "backend request timed out"))
			return
		}
		respondWithError(w, r, apperrors.WrapExternalService(ctx, err, "backend unreachable"))
		return
	}
	metrics.RecordUpstreamRequest(r.Method, resp.Status, time.Since(start))

	relay(w, resp)
}
