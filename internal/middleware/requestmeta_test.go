package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/serroba/rate-limiter-go/internal/handlers"
	"github.com/serroba/rate-limiter-go/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingResponse struct {
	Body struct {
		Pong bool `json:"pong"`
	}
}

// newTestAPI builds a real huma API over chi so middleware runs against
// actual HTTP dispatch.
func newTestAPI() (huma.API, *chi.Mux) {
	router := chi.NewMux()

	return humachi.New(router, huma.DefaultConfig("Test", "1.0.0")), router
}

func registerPing(api huma.API, captured *handlers.RequestMeta) {
	huma.Get(api, "/ping", func(ctx context.Context, _ *struct{}) (*pingResponse, error) {
		*captured = handlers.RequestMetaFromContext(ctx)

		resp := &pingResponse{}
		resp.Body.Pong = true

		return resp, nil
	})
}

func TestRequestMeta(t *testing.T) {
	t.Run("tags requests with ip, user agent and request id", func(t *testing.T) {
		api, router := newTestAPI()

		var captured handlers.RequestMeta

		api.UseMiddleware(middleware.RequestMeta(func() string { return "req-1" }))
		registerPing(api, &captured)

		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		req.Header.Set("User-Agent", "TestAgent/1.0")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "203.0.113.7", captured.ClientIP, "first XFF entry is the client")
		assert.Equal(t, "TestAgent/1.0", captured.UserAgent)
		assert.Equal(t, "req-1", captured.RequestID)
	})

	t.Run("falls back to X-Real-IP", func(t *testing.T) {
		api, router := newTestAPI()

		var captured handlers.RequestMeta

		api.UseMiddleware(middleware.RequestMeta(func() string { return "req-2" }))
		registerPing(api, &captured)

		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Real-IP", "198.51.100.4")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "198.51.100.4", captured.ClientIP)
	})
}
