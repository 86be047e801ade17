package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/rate-limiter-go/internal/ratelimit"
	"go.uber.org/zap"
)

// Guard returns a middleware that shields the API itself with a per-caller
// ceiling, independent of the clientId quota the API manages. Callers are
// keyed by a hash of IP and User-Agent, so the guard shares the engine but
// never collides with clientId counters.
//
// Engine failures surface as 500: a store outage is never reported as an
// admit or a deny.
func Guard(
	api huma.API,
	limiter *ratelimit.FixedWindowLimiter,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		key := callerKey(ctx)

		dec, err := limiter.Allow(ctx.Context(), key)
		if err != nil {
			logger.Error("guard rate limit check failed", zap.Error(err))
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error", err)

			return
		}

		if !dec.Allowed {
			logger.Warn("guard rate limit exceeded",
				zap.String("method", ctx.Method()),
				zap.String("client_ip", clientIP(ctx)),
				zap.Duration("reset_in", dec.ResetIn),
			)
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, "rate limit exceeded")

			return
		}

		next(ctx)
	}
}

// callerKey derives an opaque per-caller identifier from IP and User-Agent.
func callerKey(ctx huma.Context) string {
	ip := clientIP(ctx)
	ua := ctx.Header("User-Agent")

	hash := sha256.Sum256([]byte(ip + "|" + ua))

	return hex.EncodeToString(hash[:])
}
