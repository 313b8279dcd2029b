package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/dev-mirror/internal/auth"
	"github.com/sakif/dev-mirror/internal/service"
)

// PlatformHandler exposes the platform-link lifecycle over HTTP:
//
//	GET    /api/platforms           → list the caller's links
//	POST   /api/platforms           → connect a new platform
//	POST   /api/platforms/{id}/sync → refresh one link's cached stats
//	DELETE /api/platforms/{id}      → disconnect
//	GET    /api/dashboard           → links + cross-platform rollups
//
// All routes sit behind auth.RequireAuth, so the owner id always comes from
// the validated JWT in the request context — never from the request body.
type PlatformHandler struct {
	platforms *service.PlatformService
	logger    *slog.Logger
}

// NewPlatformHandler creates a PlatformHandler.
func NewPlatformHandler(platforms *service.PlatformService, logger *slog.Logger) *PlatformHandler {
	return &PlatformHandler{platforms: platforms, logger: logger}
}

// connectRequest is the POST /api/platforms body.
// apiKey is optional and, when present, is stored server-side only.
type connectRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	APIKey   string `json:"apiKey"`
}

// HandleList returns all of the caller's platform links.
//
// HTTP: GET /api/platforms
func (h *PlatformHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	platforms, err := h.platforms.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, platforms)
}

// HandleConnect connects a new platform and returns the created link.
//
// HTTP: POST /api/platforms
// BODY: {"name": "github", "username": "alice", "apiKey": "..."}
//
// The initial stats snapshot is fetched synchronously before the row is
// written, so a 201 always carries non-empty stats.
func (h *PlatformHandler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid connect JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	platform, err := h.platforms.Connect(r.Context(), userID, req.Name, req.Username, req.APIKey)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, platform)
}

// HandleSync re-fetches one link's stats and returns the updated link.
//
// HTTP: POST /api/platforms/{id}/sync
func (h *PlatformHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	id, ok := platformID(w, r)
	if !ok {
		return
	}

	platform, err := h.platforms.Sync(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, platform)
}

// HandleDelete disconnects a platform permanently.
//
// HTTP: DELETE /api/platforms/{id}
func (h *PlatformHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	id, ok := platformID(w, r)
	if !ok {
		return
	}

	if err := h.platforms.Delete(r.Context(), userID, id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent) // 204 — successful deletion, no body
}

// HandleDashboard returns the caller's links plus the aggregate rollups.
//
// HTTP: GET /api/dashboard
func (h *PlatformHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	dash, err := h.platforms.Dashboard(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dash)
}

// platformID parses the {id} path parameter. On failure it writes a 404 —
// a non-numeric id can't name any platform — and returns ok=false.
func platformID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "platform not found with id " + raw,
		})
		return 0, false
	}
	return id, true
}

// writeUnauthenticated is the "no valid session" response. It should be
// unreachable behind RequireAuth, but handlers never assume middleware order.
func writeUnauthenticated(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, ErrorResponse{
		Error:   "unauthorized",
		Message: "valid authentication required",
	})
}
