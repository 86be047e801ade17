package store

import (
	"context"

	"github.com/serroba/rate-limiter-go/internal/audit"
	"go.uber.org/zap"
)

// Noop is an audit.Store that only logs events. It is the fallback sink
// when no Postgres DSN is configured.
type Noop struct {
	logger *zap.Logger
}

// NewNoop creates a new logging-only audit store.
func NewNoop(logger *zap.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) SaveWindowStarted(_ context.Context, event *audit.WindowStartedEvent) error {
	n.logger.Info("quota window started",
		zap.String("clientId", event.ClientID),
		zap.Int64("limit", event.Limit),
		zap.Time("startedAt", event.StartedAt),
		zap.String("clientIp", event.ClientIP),
	)

	return nil
}

func (n *Noop) SaveQuotaExceeded(_ context.Context, event *audit.QuotaExceededEvent) error {
	n.logger.Info("quota exceeded",
		zap.String("clientId", event.ClientID),
		zap.Int64("limit", event.Limit),
		zap.Int64("resetInSeconds", event.ResetIn),
		zap.Time("deniedAt", event.DeniedAt),
		zap.String("clientIp", event.ClientIP),
	)

	return nil
}

// Compile-time check.
var _ audit.Store = (*Noop)(nil)
