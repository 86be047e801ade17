package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers the quota API operations.
func RegisterRoutes(api huma.API, quotaHandler *QuotaHandler) {
	// GET /api/test - consumes one unit of quota per call
	huma.Register(api, huma.Operation{
		OperationID: "check-quota",
		Method:      http.MethodGet,
		Path:        "/api/test",
		Summary:     "Consume quota",
		Description: "Charges one request against the client's quota and reports admit or deny.",
		Tags:        []string{"Quota"},
	}, quotaHandler.Check)

	// GET /api/status - pure read, never mutates the counter
	huma.Register(api, huma.Operation{
		OperationID: "quota-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Inspect quota",
		Description: "Reports remaining quota and time until reset without consuming anything.",
		Tags:        []string{"Quota"},
	}, quotaHandler.Status)
}
