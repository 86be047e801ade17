package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/rate-limiter-go/internal/audit"
	"github.com/serroba/rate-limiter-go/internal/handlers"
	"github.com/serroba/rate-limiter-go/internal/ratelimit"
	"github.com/serroba/rate-limiter-go/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type capturedEvents struct {
	started  []*audit.WindowStartedEvent
	exceeded []*audit.QuotaExceededEvent
}

func newTestHandler(limit int64, window time.Duration) (*handlers.QuotaHandler, *capturedEvents) {
	events := &capturedEvents{}

	limiter := ratelimit.NewFixedWindowLimiter(store.NewMemoryCounterStore(nil), limit, window)

	handler := handlers.NewQuotaHandler(
		limiter,
		func(e *audit.WindowStartedEvent) error {
			events.started = append(events.started, e)
			return nil
		},
		func(e *audit.QuotaExceededEvent) error {
			events.exceeded = append(events.exceeded, e)
			return nil
		},
		zap.NewNop(),
	)

	return handler, events
}

func TestQuotaHandler_Check(t *testing.T) {
	ctx := context.Background()

	t.Run("admits and reports quota metadata", func(t *testing.T) {
		handler, events := newTestHandler(10, time.Minute)

		resp, err := handler.Check(ctx, &handlers.CheckRequest{ClientID: "user123"})

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.Status)
		assert.Equal(t, "Request successful", resp.Body.Message)
		assert.Empty(t, resp.Body.Error)
		assert.Equal(t, "user123", resp.Body.ClientID)
		assert.Equal(t, int64(9), resp.Body.Remaining)
		assert.Equal(t, int64(60), resp.Body.ResetIn)
		assert.False(t, resp.Body.Timestamp.IsZero())

		require.Len(t, events.started, 1)
		assert.Equal(t, "user123", events.started[0].ClientID)
	})

	t.Run("window started event fires only once per window", func(t *testing.T) {
		handler, events := newTestHandler(10, time.Minute)

		for range 3 {
			_, err := handler.Check(ctx, &handlers.CheckRequest{ClientID: "user123"})
			require.NoError(t, err)
		}

		assert.Len(t, events.started, 1)
	})

	t.Run("denies with 429 once the quota is spent", func(t *testing.T) {
		handler, events := newTestHandler(2, time.Minute)

		for range 2 {
			_, err := handler.Check(ctx, &handlers.CheckRequest{ClientID: "user123"})
			require.NoError(t, err)
		}

		resp, err := handler.Check(ctx, &handlers.CheckRequest{ClientID: "user123"})

		require.NoError(t, err)
		assert.Equal(t, http.StatusTooManyRequests, resp.Status)
		assert.Equal(t, "Rate limit exceeded", resp.Body.Error)
		assert.Equal(t, "Too many requests. Please try again later.", resp.Body.Message)
		assert.Equal(t, int64(0), resp.Body.Remaining)
		assert.Greater(t, resp.Body.ResetIn, int64(0))

		require.Len(t, events.exceeded, 1)
		assert.Equal(t, "user123", events.exceeded[0].ClientID)
		assert.Equal(t, int64(2), events.exceeded[0].Limit)
	})

	t.Run("empty client id maps to 400", func(t *testing.T) {
		handler, _ := newTestHandler(10, time.Minute)

		_, err := handler.Check(ctx, &handlers.CheckRequest{ClientID: ""})

		require.Error(t, err)

		var statusErr huma.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusBadRequest, statusErr.GetStatus())
	})

	t.Run("store failure maps to 500, not a decision", func(t *testing.T) {
		limiter := ratelimit.NewFixedWindowLimiter(&failingCounterStore{}, 10, time.Minute)
		handler := handlers.NewQuotaHandler(limiter, discardStarted, discardExceeded, zap.NewNop())

		_, err := handler.Check(ctx, &handlers.CheckRequest{ClientID: "user123"})

		require.Error(t, err)

		var statusErr huma.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusInternalServerError, statusErr.GetStatus())
	})

	t.Run("publish failure does not affect the decision", func(t *testing.T) {
		limiter := ratelimit.NewFixedWindowLimiter(store.NewMemoryCounterStore(nil), 10, time.Minute)
		handler := handlers.NewQuotaHandler(
			limiter,
			func(*audit.WindowStartedEvent) error { return assert.AnError },
			func(*audit.QuotaExceededEvent) error { return assert.AnError },
			zap.NewNop(),
		)

		resp, err := handler.Check(ctx, &handlers.CheckRequest{ClientID: "user123"})

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.Status)
	})
}

func TestQuotaHandler_Status(t *testing.T) {
	ctx := context.Background()

	t.Run("unseen client has full quota and no window", func(t *testing.T) {
		handler, _ := newTestHandler(10, time.Minute)

		resp, err := handler.Status(ctx, &handlers.StatusRequest{ClientID: "nobody"})

		require.NoError(t, err)
		assert.Equal(t, int64(10), resp.Body.Remaining)
		assert.Equal(t, int64(-1), resp.Body.ResetIn)
	})

	t.Run("never consumes quota", func(t *testing.T) {
		handler, _ := newTestHandler(10, time.Minute)

		_, err := handler.Check(ctx, &handlers.CheckRequest{ClientID: "user123"})
		require.NoError(t, err)

		for range 5 {
			resp, err := handler.Status(ctx, &handlers.StatusRequest{ClientID: "user123"})

			require.NoError(t, err)
			assert.Equal(t, int64(9), resp.Body.Remaining)
			assert.Equal(t, int64(60), resp.Body.ResetIn)
		}
	})
}

func discardStarted(*audit.WindowStartedEvent) error  { return nil }
func discardExceeded(*audit.QuotaExceededEvent) error { return nil }

type failingCounterStore struct{}

func (f *failingCounterStore) Admit(context.Context, string, int64, time.Duration) (ratelimit.Admission, error) {
	return ratelimit.Admission{}, ratelimit.ErrStoreUnavailable
}

func (f *failingCounterStore) Count(context.Context, string) (int64, error) {
	return 0, ratelimit.ErrStoreUnavailable
}

func (f *failingCounterStore) TimeToLive(context.Context, string) (time.Duration, bool, error) {
	return 0, false, ratelimit.ErrStoreUnavailable
}
