package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/krishimitra/assistant/internal/core"
	"github.com/krishimitra/assistant/internal/store"
	"github.com/krishimitra/assistant/pkg/log"
)

func (h *APIHandler) ListSessionsHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	sessions, err := h.chat.Sessions(user.Username)
	if err != nil {
		log.Errorw("failed to list sessions", "username", user.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []store.ChatSession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *APIHandler) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	sessions, err := h.chat.Sessions(user.Username)
	if err != nil {
		log.Errorw("failed to load session", "username", user.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	for i := range sessions {
		if sessions[i].ID == sessionID {
			writeJSON(w, http.StatusOK, sessions[i])
			return
		}
	}
	writeError(w, http.StatusNotFound, "session not found")
}

func (h *APIHandler) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.chat.DeleteSession(user.Username, sessionID); err != nil {
		log.Errorw("failed to delete session", "username", user.Username, "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) DeleteAllSessionsHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	if err := h.chat.DeleteAllSessions(user.Username); err != nil {
		log.Errorw("failed to delete sessions", "username", user.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete sessions")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type chatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Text      string `json:"text"`
	Image     string `json:"image,omitempty"` // data URL
}

// ChatHandler runs one chat turn and streams it back as SSE: zero or more
// "delta" events, optional "error"/"warning" events, then a terminal "done"
// event carrying the final transcript and the (possibly just created) session.
func (h *APIHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Text == "" && req.Image == "" {
		writeError(w, http.StatusBadRequest, "text or image is required")
		return
	}

	sse, err := newSSEWriter(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	conv := h.chat.NewConversation(user.Username)
	conv.Load(req.SessionID)
	conv.Send(r.Context(), req.Text, req.Image, &sseSink{sse: sse})

	type doneEvent struct {
		Session  *store.ChatSession  `json:"session"`
		Messages []store.ChatMessage `json:"messages"`
	}
	sse.event("done", doneEvent{Session: conv.Session(), Messages: conv.Transcript()})
}

// PlanHandler streams an irrigation plan as SSE delta events.
func (h *APIHandler) PlanHandler(w http.ResponseWriter, r *http.Request) {
	var req core.PlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sse, err := newSSEWriter(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.planner.StreamPlan(r.Context(), req, sse.delta); err != nil {
		log.Errorw("irrigation plan generation failed", "error", err)
		sse.errorEvent("failed to generate irrigation plan")
		return
	}
	sse.event("done", map[string]bool{"success": true})
}
