package handlers

import "time"

// CheckRequest identifies the client consuming quota. The identifier is
// opaque and case-sensitive; it is not authenticated here.
type CheckRequest struct {
	ClientID string `doc:"Client identifier to charge the request against" example:"user123" query:"clientId" required:"true"`
}

// CheckResponse reports the admission decision. Status is 200 when the
// request was admitted and 429 when the quota is spent.
type CheckResponse struct {
	Status int
	Body   struct {
		Message   string    `doc:"Human-readable outcome"                           json:"message"`
		Error     string    `doc:"Error label, only set on denial"                  json:"error,omitempty"`
		ClientID  string    `doc:"Echo of the client identifier"                    json:"clientId"`
		Remaining int64     `doc:"Quota left in the current window"                 json:"remaining"`
		ResetIn   int64     `doc:"Seconds until the window resets, -1 if no window" json:"resetIn"`
		Timestamp time.Time `doc:"Server time of the decision"                      json:"timestamp"`
	}
}

// StatusRequest identifies the client whose quota is inspected.
type StatusRequest struct {
	ClientID string `doc:"Client identifier to inspect" example:"user123" query:"clientId" required:"true"`
}

// StatusResponse reports quota state without consuming any of it.
type StatusResponse struct {
	Body struct {
		ClientID  string    `doc:"Echo of the client identifier"                    json:"clientId"`
		Remaining int64     `doc:"Quota left in the current window"                 json:"remaining"`
		ResetIn   int64     `doc:"Seconds until the window resets, -1 if no window" json:"resetIn"`
		Timestamp time.Time `doc:"Server time of the read"                          json:"timestamp"`
	}
}
