package audit

import "time"

// Topics for quota audit events.
const (
	TopicWindowStarted = "quota.window_started"
	TopicQuotaExceeded = "quota.exceeded"
)

// WindowStartedEvent is emitted when a client's first admitted request
// opens a fresh quota window.
type WindowStartedEvent struct {
	ClientID  string    `json:"clientId"`
	Limit     int64     `json:"limit"`
	StartedAt time.Time `json:"startedAt"`
	ClientIP  string    `json:"clientIp"`
	UserAgent string    `json:"userAgent"`
	RequestID string    `json:"requestId,omitempty"`
}

// QuotaExceededEvent is emitted when a request is denied because the
// client's quota for the current window is spent.
type QuotaExceededEvent struct {
	ClientID  string    `json:"clientId"`
	Limit     int64     `json:"limit"`
	ResetIn   int64     `json:"resetInSeconds"`
	DeniedAt  time.Time `json:"deniedAt"`
	ClientIP  string    `json:"clientIp"`
	UserAgent string    `json:"userAgent"`
	RequestID string    `json:"requestId,omitempty"`
}
