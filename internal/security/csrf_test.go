package security

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOriginList(t *testing.T) {
	assert.Equal(t,
		[]string{"https://a.example", "https://b.example"},
		ParseOriginList(" https://a.example , https://b.example ,, "))
	assert.Nil(t, ParseOriginList(""))
	assert.Nil(t, ParseOriginList(" , "))
}

func TestNormalizeOrigin(t *testing.T) {
	normalized, err := NormalizeOrigin("https://admin.example:8443/some/path")
	require.NoError(t, err)
	assert.Equal(t, "https://admin.example:8443", normalized)

	_, err = NormalizeOrigin("not a url")
	assert.Error(t, err)

	_, err = NormalizeOrigin("/relative")
	assert.Error(t, err)
}

func TestGuardAllowsSafeMethods(t *testing.T) {
	guard := NewGuard([]string{"https://admin.example"})

	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		req := httptest.NewRequest(method, "/api/admin/events", nil)
		req.Header.Set("Origin", "https://evil.example")
		assert.NoError(t, guard.Check(req), method)
	}
}

func TestGuardChecksUnsafeMethods(t *testing.T) {
	guard := NewGuard([]string{"https://admin.example"})

	cases := []struct {
		name    string
		origin  string
		wantErr bool
	}{
		{"allow-listed origin", "https://admin.example", false},
		{"allow-listed with path", "https://admin.example/page", false},
		{"foreign origin", "https://evil.example", true},
		{"missing origin", "", true},
		{"malformed origin", "::::", true},
		{"scheme mismatch", "http://admin.example", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/admin/events", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}

			err := guard.Check(req)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGuardFallsBackToLocalDevOrigins(t *testing.T) {
	guard := NewGuard(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	assert.NoError(t, guard.Check(req))

	req.Header.Set("Origin", "http://localhost:4000")
	assert.Error(t, guard.Check(req))
}
