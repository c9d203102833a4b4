package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/krishimitra/assistant/internal/core"
	"github.com/krishimitra/assistant/internal/store"
	"github.com/krishimitra/assistant/pkg/log"
)

func (h *APIHandler) AdminStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Stats()
	if err != nil {
		log.Errorw("failed to compute admin stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *APIHandler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.identity.ListUsers()
	if err != nil {
		log.Errorw("failed to list users", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []store.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *APIHandler) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	if err := h.identity.DeleteUser(username); err != nil {
		switch {
		case errors.Is(err, core.ErrProtectedUser):
			writeError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, core.ErrUserNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			log.Errorw("failed to delete user", "username", username, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to delete user")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type playgroundRequest struct {
	Prompt      string   `json:"prompt"`
	Model       string   `json:"model"`
	Temperature *float32 `json:"temperature,omitempty"`
	TopP        *float32 `json:"top_p,omitempty"`
	TopK        *int32   `json:"top_k,omitempty"`
	MaxTokens   *int32   `json:"max_tokens,omitempty"`
}

// PlaygroundHandler streams a free-form prompt with caller-chosen sampling
// parameters, passed through to the gateway unmodified.
func (h *APIHandler) PlaygroundHandler(w http.ResponseWriter, r *http.Request) {
	var req playgroundRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Prompt == "" || req.Model == "" {
		writeError(w, http.StatusBadRequest, "prompt and model are required")
		return
	}

	sse, err := newSSEWriter(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	genReq := core.GenerateRequest{
		Prompt: req.Prompt,
		Options: core.GenerationOptions{
			Model:           req.Model,
			Temperature:     req.Temperature,
			TopP:            req.TopP,
			TopK:            req.TopK,
			MaxOutputTokens: req.MaxTokens,
		},
	}
	if err := h.gateway.Stream(r.Context(), genReq, sse.delta); err != nil {
		log.Errorw("playground generation failed", "error", err)
		sse.errorEvent("generation failed: " + err.Error())
		return
	}
	sse.event("done", map[string]bool{"success": true})
}

func (h *APIHandler) ListFilesHandler(w http.ResponseWriter, r *http.Request) {
	files, err := h.editor.ListFiles()
	if err != nil {
		h.editorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

func (h *APIHandler) ReadFileHandler(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")
	content, err := h.editor.ReadFile(path)
	if err != nil {
		h.editorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": path, "content": content})
}

type writeFileRequest struct {
	Content string `json:"content"`
}

func (h *APIHandler) WriteFileHandler(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")

	var req writeFileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.editor.WriteFile(path, req.Content); err != nil {
		h.editorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type aiEditRequest struct {
	Path        string `json:"path"`
	Instruction string `json:"instruction"`
}

func (h *APIHandler) AIEditHandler(w http.ResponseWriter, r *http.Request) {
	var req aiEditRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Path == "" || req.Instruction == "" {
		writeError(w, http.StatusBadRequest, "path and instruction are required")
		return
	}

	content, err := h.editor.AIEdit(r.Context(), req.Path, req.Instruction)
	if err != nil {
		h.editorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": req.Path, "content": content})
}

func (h *APIHandler) editorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrEditorDisabled):
		writeError(w, http.StatusNotImplemented, err.Error())
	case errors.Is(err, core.ErrPathOutsideRoot):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Errorw("editor operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
