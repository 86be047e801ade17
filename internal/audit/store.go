package audit

import "context"

// Store defines the interface for persisting quota audit events.
type Store interface {
	SaveWindowStarted(ctx context.Context, event *WindowStartedEvent) error
	SaveQuotaExceeded(ctx context.Context, event *QuotaExceededEvent) error
}
