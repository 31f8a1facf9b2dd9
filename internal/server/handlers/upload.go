package handlers

import (
	"errors"
	"net/http"
	"time"

	apperrors "github.com/eventsar/admin-gateway/internal/errors"
	"github.com/eventsar/admin-gateway/internal/metrics"
	"github.com/eventsar/admin-gateway/internal/upstream"
)

// UploadImage streams a multipart image upload to the backend.
func (g *Gateway) UploadImage(w http.ResponseWriter, r *http.Request) {
	g.forwardUpload(w, r, "/api/admin/upload/image")
}

// UploadModel streams a multipart 3D model upload to the backend.
func (g *Gateway) UploadModel(w http.ResponseWriter, r *http.Request) {
	g.forwardUpload(w, r, "/api/admin/upload/model")
}

// forwardUpload relays the request body without buffering it in memory. The
// original Content-Type travels with it so the multipart boundary survives.
func (g *Gateway) forwardUpload(w http.ResponseWriter, r *http.Request, path string) {
	ctx := r.Context()

	token := g.Sessions.Token(r)
	if token == "" {
		respondWithError(w, r, apperrors.NewUnauthorizedError("authentication required"))
		return
	}

	if err := g.Guard.Check(r); err != nil {
		respondWithError(w, r, err)
		return
	}

	body := r.Body
	if g.MaxUploadBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, g.MaxUploadBytes)
	}

	start := time.Now()
	resp, err := g.Upstream.Do(ctx, upstream.Request{
		Method:      http.MethodPost,
		Path:        path,
		BodyReader:  body,
		ContentType: r.Header.Get("Content-Type"),
		Token:       token,
	})
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondWithError(w, r, apperrors.NewPayloadTooLargeError("upload exceeds the configured size limit"))
			return
		}
		if upstream.IsTimeout(err) {
			respondWithError(w, r, apperrors.WrapTimeout(ctx, err, "upload to backend timed out"))
			return
		}
		respondWithError(w, r, apperrors.WrapExternalService(ctx, err, "backend unreachable"))
		return
	}
	metrics.RecordUpstreamRequest(http.MethodPost, resp.Status, time.Since(start))

	relay(w, resp)
}
