package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedHandler(t *testing.T) http.Handler {
	t.Helper()

	mw, err := NewStaticTokenMiddleware("s3cret")
	require.NoError(t, err)

	return mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
}

func TestMiddlewareAcceptsValidToken(t *testing.T) {
	t.Parallel()

	handler := newProtectedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/employees", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMiddlewareRejectsMissingHeader(t *testing.T) {
	t.Parallel()

	handler := newProtectedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/employees", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), `error="invalid_request"`)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestMiddlewareRejectsWrongToken(t *testing.T) {
	t.Parallel()

	handler := newProtectedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/employees", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), `error="invalid_token"`)
}

func TestMiddlewareRejectsMalformedHeader(t *testing.T) {
	t.Parallel()

	handler := newProtectedHandler(t)

	tests := []struct {
		name   string
		header string
	}{
		{name: "not a bearer scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "empty token", header: "Bearer "},
		{name: "bare token without scheme", header: "s3cret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/api/v1/employees", nil)
			req.Header.Set("Authorization", tt.header)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Header().Get("WWW-Authenticate"), `error="invalid_request"`)
		})
	}
}

func TestMiddlewareCaseInsensitiveScheme(t *testing.T) {
	t.Parallel()

	handler := newProtectedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/employees", nil)
	req.Header.Set("Authorization", "bearer s3cret")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewStaticTokenMiddlewareRequiresToken(t *testing.T) {
	t.Parallel()

	_, err := NewStaticTokenMiddleware("")
	require.Error(t, err)
}

func TestSanitizeHeaderValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "plain", sanitizeHeaderValue("plain"))
	assert.Equal(t, "ab", sanitizeHeaderValue("a\r\nb"))
	assert.Equal(t, `\"quoted\"`, sanitizeHeaderValue(`"quoted"`))
}
