package handler

import (
	"time"

	"countrycatalog/internal/catalog/refresh"
)

const (
	msgRefreshed = "Countries refreshed successfully"
	msgDeleted   = "Country deleted successfully"
)

// RefreshResponse is the body of a successful refresh.
type RefreshResponse struct {
	Message         string `json:"message"`
	TotalCountries  int    `json:"total_countries"`
	LastRefreshedAt string `json:"last_refreshed_at"`
	SummaryError    string `json:"summary_error,omitempty"`
}

// MessageResponse carries a single confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}

func toRefreshResponse(result *refresh.Result) *RefreshResponse {
	resp := &RefreshResponse{
		Message:         msgRefreshed,
		TotalCountries:  result.TotalSaved,
		LastRefreshedAt: result.LastRefreshedAt.Format(time.RFC3339),
	}
	if result.RenderErr != nil {
		resp.SummaryError = "Summary image could not be generated"
	}
	return resp
}
