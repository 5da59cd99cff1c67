package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fd-guo/ChatGeoPT/internal/ai"
	"github.com/fd-guo/ChatGeoPT/internal/assistant"
	"github.com/fd-guo/ChatGeoPT/internal/store"
	"github.com/fd-guo/ChatGeoPT/internal/upstream"
)

// ─── POST /api/claims/label, POST /api/roads/ask ─────────────────────────────
//
// Both endpoints take the same body and return an assistant.Answer. The map,
// when there is one, is a GeoJSON FeatureCollection.

type askRequest struct {
	Text string `json:"text"`
}

// handleAsk runs mode on the request text.
func (s *Server) handleAsk(mode assistant.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req askRequest
		if !decode(w, r, &req) {
			return
		}

		ans, err := s.assistant.Ask(r.Context(), mode, req.Text)
		if err != nil {
			s.respondAskErr(w, r, err)
			return
		}
		respond(w, http.StatusOK, ans)
	}
}

// ─── POST /api/ask/{mode} ────────────────────────────────────────────────────

// handleAskByMode is handleAsk with the mode taken from the path, so a client
// can switch views without switching endpoints.
func (s *Server) handleAskByMode(w http.ResponseWriter, r *http.Request) {
	mode, err := assistant.ParseMode(chi.URLParam(r, "mode"))
	if err != nil {
		respondErr(w, http.StatusBadRequest, err.Error())
		return
	}
	s.handleAsk(mode)(w, r)
}

// askErrorStatus maps a pipeline failure to an HTTP status and a message that
// is safe to show the caller. ok is false for unexpected errors.
func askErrorStatus(err error) (status int, message string, ok bool) {
	if ue, isUpstream := upstream.As(err); isUpstream {
		return http.StatusBadGateway, ue.Service + " service unavailable", true
	}
	switch {
	case errors.Is(err, assistant.ErrEmptyInput):
		return http.StatusBadRequest, "text must not be empty", true
	case errors.Is(err, assistant.ErrUnknownMode):
		return http.StatusBadRequest, err.Error(), true
	case errors.Is(err, ai.ErrMalformedReply):
		return http.StatusUnprocessableEntity, "the language model reply could not be understood", true
	case errors.Is(err, assistant.ErrReferenceDataUnavailable):
		return http.StatusServiceUnavailable, "reference data is not loaded", true
	}
	return http.StatusInternalServerError, "internal server error", false
}

func (s *Server) respondAskErr(w http.ResponseWriter, r *http.Request, err error) {
	status, message, ok := askErrorStatus(err)
	if !ok {
		s.respondInternalErr(w, r, err)
		return
	}
	s.logger.Warn("ask failed", "status", status, "error", err, logField(r))
	respondErr(w, status, message)
}

// ─── GET /api/roads/way-summary ──────────────────────────────────────────────

// handleGetWaySummary serves the latest way summary as CSV. Returns 404 before
// the first way lookup or when the artifact is disabled.
func (s *Server) handleGetWaySummary(w http.ResponseWriter, r *http.Request) {
	if s.summary == nil {
		respondErr(w, http.StatusNotFound, "way summary not found")
		return
	}
	ways, err := s.summary.ReadWaySummary()
	if errors.Is(err, store.ErrNoSummary) {
		respondErr(w, http.StatusNotFound, "way summary not found")
		return
	}
	if err != nil {
		s.respondInternalErr(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="wayid_summary.csv"`)
	if err := store.EncodeWaySummary(w, ways); err != nil {
		s.logger.Error("write way summary response", "error", err, logField(r))
	}
}
