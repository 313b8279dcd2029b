package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/dev-mirror/internal/auth"
	"github.com/sakif/dev-mirror/internal/service"
)

// AnalysisHandler exposes "The Mirror" — the AI critique of the caller's
// aggregated stats.
type AnalysisHandler struct {
	analysis *service.AnalysisService
	logger   *slog.Logger
}

// NewAnalysisHandler creates an AnalysisHandler.
func NewAnalysisHandler(analysis *service.AnalysisService, logger *slog.Logger) *AnalysisHandler {
	return &AnalysisHandler{analysis: analysis, logger: logger}
}

// analyzeRequest is the POST /api/analyze body. platformIds optionally
// restricts the analysis to a subset of the caller's links; empty means all.
type analyzeRequest struct {
	PlatformIDs []int64 `json:"platformIds"`
}

// analyzeResponse wraps the engine's raw markdown output.
type analyzeResponse struct {
	Analysis string `json:"analysis"`
}

// HandleAnalyze runs the critique and returns the engine's text verbatim.
//
// HTTP: POST /api/analyze
// BODY: {"platformIds": [1, 2]}  — optional; an empty body works too
//
// With no platforms to analyze the response still succeeds, carrying the
// fixed "connect something first" message instead of engine output.
func (h *AnalysisHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	// The body is optional — a bare POST means "analyze everything".
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		h.logger.Warn("invalid analyze JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	analysis, err := h.analysis.Analyze(r.Context(), userID, req.PlatformIDs)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{Analysis: analysis})
}
