package handlers

import (
	"net/http"
	"time"

	apperrors "github.com/eventsar/admin-gateway/internal/errors"
	"github.com/eventsar/admin-gateway/internal/metrics"
	"github.com/eventsar/admin-gateway/internal/upstream"
)

// Meta forwards the public platform metadata endpoint. No session or origin
// check: the consuming page renders before anyone logs in.
func (g *Gateway) Meta(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	start := time.Now()
	resp, err := g.Upstream.Do(ctx, upstream.Request{
		Method:   http.MethodGet,
		Path:     "/api/meta",
		RawQuery: r.URL.RawQuery,
		Accept:   r.Header.Get("Accept"),
	})
	if err != nil {
		if upstream.IsTimeout(err) {
			respondWithError(w, r, apperrors.WrapTimeout(ctx, err, "backend request timed out"))
			return
		}
		respondWithError(w, r, apperrors.WrapExternalService(ctx, err, "backend unreachable"))
		return
	}
	metrics.RecordUpstreamRequest(http.MethodGet, resp.Status, time.Since(start))

	relay(w, resp)
}
