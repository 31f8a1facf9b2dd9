package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// healthPayload is the subset of the backend health document the gateway
// inspects. Everything else passes through untouched.
type healthPayload struct {
	Status string `json:"status"`
}

// CheckHealth probes the backend's /api/health endpoint. Healthy means a 2xx
// response whose status field reads "ok".
func (c *Client) CheckHealth(ctx context.Context) error {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/api/health"})
	if err != nil {
		return fmt.Errorf("backend health probe: %w", err)
	}

	if !resp.OK() {
		return fmt.Errorf("backend health probe: status %d", resp.Status)
	}

	var payload healthPayload
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return fmt.Errorf("backend health probe: malformed body: %w", err)
	}

	if !strings.EqualFold(payload.Status, "ok") {
		return fmt.Errorf("backend health probe: reported status %q", payload.Status)
	}

	return nil
}
