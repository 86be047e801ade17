package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/rate-limiter-go/internal/audit"
	"github.com/serroba/rate-limiter-go/internal/messaging"
	"github.com/serroba/rate-limiter-go/internal/ratelimit"
	"go.uber.org/zap"
)

// noActiveWindow is what the JSON boundary reports for resetIn when the
// client has no live window. Kept for wire compatibility with existing
// consumers of the original service.
const noActiveWindow = -1

// QuotaHandler exposes the rate limiter engine over HTTP.
type QuotaHandler struct {
	limiter              *ratelimit.FixedWindowLimiter
	publishWindowStarted messaging.Publish[audit.WindowStartedEvent]
	publishQuotaExceeded messaging.Publish[audit.QuotaExceededEvent]
	logger               *zap.Logger
}

// NewQuotaHandler creates a new quota handler.
func NewQuotaHandler(
	limiter *ratelimit.FixedWindowLimiter,
	publishWindowStarted messaging.Publish[audit.WindowStartedEvent],
	publishQuotaExceeded messaging.Publish[audit.QuotaExceededEvent],
	logger *zap.Logger,
) *QuotaHandler {
	return &QuotaHandler{
		limiter:              limiter,
		publishWindowStarted: publishWindowStarted,
		publishQuotaExceeded: publishQuotaExceeded,
		logger:               logger,
	}
}

// Check charges one request against the client's quota and reports the
// decision. Store failures surface as 500, never as an admit or deny.
func (h *QuotaHandler) Check(ctx context.Context, req *CheckRequest) (*CheckResponse, error) {
	dec, err := h.limiter.Allow(ctx, req.ClientID)
	if err != nil {
		return nil, h.mapError(req.ClientID, err)
	}

	now := time.Now()
	meta := RequestMetaFromContext(ctx)

	resp := &CheckResponse{}
	resp.Body.ClientID = req.ClientID
	resp.Body.Remaining = dec.Remaining
	resp.Body.ResetIn = resetInSeconds(dec.ResetIn, dec.HasWindow)
	resp.Body.Timestamp = now

	if !dec.Allowed {
		resp.Status = http.StatusTooManyRequests
		resp.Body.Error = "Rate limit exceeded"
		resp.Body.Message = "Too many requests. Please try again later."

		event := &audit.QuotaExceededEvent{
			ClientID:  req.ClientID,
			Limit:     h.limiter.Limit(),
			ResetIn:   resp.Body.ResetIn,
			DeniedAt:  now,
			ClientIP:  meta.ClientIP,
			UserAgent: meta.UserAgent,
			RequestID: meta.RequestID,
		}
		if err := h.publishQuotaExceeded(event); err != nil {
			h.logger.Error("failed to publish quota exceeded event",
				zap.String("clientId", req.ClientID),
				zap.Error(err),
			)
		}

		return resp, nil
	}

	resp.Status = http.StatusOK
	resp.Body.Message = "Request successful"

	if dec.WindowStarted {
		event := &audit.WindowStartedEvent{
			ClientID:  req.ClientID,
			Limit:     h.limiter.Limit(),
			StartedAt: now,
			ClientIP:  meta.ClientIP,
			UserAgent: meta.UserAgent,
			RequestID: meta.RequestID,
		}
		if err := h.publishWindowStarted(event); err != nil {
			h.logger.Error("failed to publish window started event",
				zap.String("clientId", req.ClientID),
				zap.Error(err),
			)
		}
	}

	return resp, nil
}

// Status reports remaining quota and reset time without consuming
// anything. Any number of calls leaves the counter untouched.
func (h *QuotaHandler) Status(ctx context.Context, req *StatusRequest) (*StatusResponse, error) {
	remaining, err := h.limiter.Remaining(ctx, req.ClientID)
	if err != nil {
		return nil, h.mapError(req.ClientID, err)
	}

	resetIn, hasWindow, err := h.limiter.ResetIn(ctx, req.ClientID)
	if err != nil {
		return nil, h.mapError(req.ClientID, err)
	}

	resp := &StatusResponse{}
	resp.Body.ClientID = req.ClientID
	resp.Body.Remaining = remaining
	resp.Body.ResetIn = resetInSeconds(resetIn, hasWindow)
	resp.Body.Timestamp = time.Now()

	return resp, nil
}

func (h *QuotaHandler) mapError(clientID string, err error) error {
	if errors.Is(err, ratelimit.ErrInvalidClientID) {
		return huma.Error400BadRequest("clientId must not be empty")
	}

	h.logger.Error("quota check failed",
		zap.String("clientId", clientID),
		zap.Error(err),
	)

	return huma.Error500InternalServerError("quota check failed", err)
}

// resetInSeconds rounds a remaining window up to whole seconds so an
// active window never reports zero.
func resetInSeconds(d time.Duration, hasWindow bool) int64 {
	if !hasWindow {
		return noActiveWindow
	}

	return int64(math.Ceil(d.Seconds()))
}
