package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/fd-guo/ChatGeoPT/internal/assistant"
	"github.com/fd-guo/ChatGeoPT/internal/render"
)

// view pairs an HTML page with the assistant mode behind it.
type view struct {
	mode assistant.Mode
	info render.ViewInfo
}

var views = []view{
	{
		mode: assistant.ModeClaim,
		info: render.ViewInfo{
			Path:        "/claims",
			Title:       "Crash Claim Labeller",
			Intro:       "Paste a crash description. The labeller finds the street, rates severity, and maps the matched trip.",
			Placeholder: "V1 was traveling NB on US 441 when V2 ...",
		},
	},
	{
		mode: assistant.ModeRoad,
		info: render.ViewInfo{
			Path:        "/roads",
			Title:       "Road Risk Expert",
			Intro:       "Ask about a place: its coordinates, the ways or nodes around it, or its road risk.",
			Placeholder: "What is the road risk around Fenway Park?",
		},
	},
}

// ViewInfos lists the HTML views for render.NewPages.
func ViewInfos() []render.ViewInfo {
	out := make([]render.ViewInfo, len(views))
	for i, v := range views {
		out[i] = v.info
	}
	return out
}

// ─── GET / ────────────────────────────────────────────────────────────────────

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.pages.Index(&buf); err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("render index: %w", err))
		return
	}
	writeHTML(w, http.StatusOK, &buf)
}

// ─── GET /claims, GET /roads ──────────────────────────────────────────────────

func (s *Server) handleView(v view) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderView(w, r, http.StatusOK, render.PageData{View: v.info})
	}
}

// ─── POST /claims, POST /roads ────────────────────────────────────────────────

// handleViewSubmit runs the form text through the assistant and renders the
// same page with the text pane and map pane filled in. Failures are shown on
// the page with the status the JSON API would return.
func (s *Server) handleViewSubmit(v view) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			s.renderView(w, r, http.StatusBadRequest, render.PageData{View: v.info, Error: "invalid form submission"})
			return
		}
		text := r.PostForm.Get("text")
		data := render.PageData{View: v.info, Text: text}

		ans, err := s.assistant.Ask(r.Context(), v.mode, text)
		if err != nil {
			status, message, ok := askErrorStatus(err)
			if ok {
				s.logger.Warn("ask failed", "status", status, "error", err, logField(r))
			} else {
				s.logger.Error("internal error", "error", err, "path", r.URL.Path, logField(r))
			}
			data.Error = message
			s.renderView(w, r, status, data)
			return
		}

		data.Messages = ans.Messages
		data.Map = ans.Map
		s.renderView(w, r, http.StatusOK, data)
	}
}

func (s *Server) renderView(w http.ResponseWriter, r *http.Request, status int, data render.PageData) {
	var buf bytes.Buffer
	if err := s.pages.View(&buf, data); err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("render view: %w", err))
		return
	}
	writeHTML(w, status, &buf)
}

func writeHTML(w http.ResponseWriter, status int, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
