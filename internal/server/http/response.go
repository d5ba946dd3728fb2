package httpserver

import (
	"net/http"
	"time"

	"github.com/helixir/preprint-resolver/internal/domain"
)

// createResolutionRequest is the JSON request body for a resolution.
type createResolutionRequest struct {
	DOI    string `json:"doi"`
	Server string `json:"server,omitempty"`
}

// resolutionResponse is the JSON body reporting a resolution outcome.
type resolutionResponse struct {
	RequestID  string    `json:"request_id"`
	DOI        string    `json:"doi"`
	Server     string    `json:"server"`
	Status     string    `json:"status"`
	Locator    string    `json:"locator,omitempty"`
	Via        string    `json:"via,omitempty"`
	Score      *float64  `json:"score,omitempty"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// outcomeToResponse converts a resolution outcome into its JSON form.
func outcomeToResponse(requestID, doi, server string, o domain.Outcome) resolutionResponse {
	resp := resolutionResponse{
		RequestID:  requestID,
		DOI:        doi,
		Server:     server,
		Status:     string(o.Status),
		Locator:    o.Locator,
		Via:        string(o.Via),
		ResolvedAt: time.Now().UTC(),
	}
	if o.Via == domain.ViaPre2Pub {
		score := o.Score
		resp.Score = &score
	}
	return resp
}

// statusCodeFor maps a resolution outcome to an HTTP status code. The
// three terminal answers are all 200s; only an unreachable dependency
// is an error the client should retry.
func statusCodeFor(o domain.Outcome) int {
	if o.Status == domain.StatusUnavailable {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}
