package httpserver

import (
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/helixir/preprint-resolver/internal/observability"
)

// Validation constants.
const (
	maxRequestBodySize = 1 << 20 // 1 MB limit for request bodies
	defaultServer      = "other"
)

// doiPattern matches the modern DOI syntax: a "10." prefix, a 4 to 9
// digit registrant code, and a non-empty suffix without whitespace.
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/[^\s]+$`)

// createResolution handles POST /api/v1/resolutions.
// It runs one synchronous resolution attempt for the given preprint DOI.
func (s *Server) createResolution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var req createResolutionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}

	req.DOI = strings.TrimSpace(req.DOI)
	if req.DOI == "" {
		writeError(w, http.StatusBadRequest, "doi is required")
		return
	}
	if !doiPattern.MatchString(req.DOI) {
		writeError(w, http.StatusBadRequest, "doi is not a valid DOI")
		return
	}

	server := strings.ToLower(strings.TrimSpace(req.Server))
	if server == "" {
		server = defaultServer
	}
	if server != "biorxiv" && server != "medrxiv" && server != defaultServer {
		writeError(w, http.StatusBadRequest, "server must be biorxiv, medrxiv, or other")
		return
	}

	requestID := uuid.New().String()
	ctx = observability.ContextWithRequestID(ctx, requestID)
	log := s.logger.With().
		Str("request_id", requestID).
		Str("correlation_id", correlationIDFromContext(ctx)).
		Str("preprint_doi", req.DOI).
		Logger()

	start := time.Now()
	outcome, resolveErr := s.resolver.Resolve(ctx, req.DOI, server)
	if resolveErr != nil {
		log.Warn().Err(resolveErr).Dur("elapsed", time.Since(start)).Msg("resolution hit an unavailable dependency")
	} else {
		log.Info().Str("status", string(outcome.Status)).Dur("elapsed", time.Since(start)).Msg("resolution finished")
	}

	resp := outcomeToResponse(requestID, req.DOI, server, outcome)
	writeJSON(w, statusCodeFor(outcome), resp)
}
