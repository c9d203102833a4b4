package api

import (
	"errors"
	"net/http"

	"github.com/krishimitra/assistant/internal/core"
	"github.com/krishimitra/assistant/internal/store"
	"github.com/krishimitra/assistant/pkg/log"
)

type APIHandler struct {
	identity *core.IdentityService
	chat     *core.ChatService
	planner  *core.PlannerService
	catalog  *core.CatalogService
	admin    *core.AdminService
	editor   *core.EditorService
	gateway  core.Gateway
}

func NewAPIHandler(
	identity *core.IdentityService,
	chat *core.ChatService,
	planner *core.PlannerService,
	catalog *core.CatalogService,
	admin *core.AdminService,
	editor *core.EditorService,
	gateway core.Gateway,
) *APIHandler {
	return &APIHandler{
		identity: identity,
		chat:     chat,
		planner:  planner,
		catalog:  catalog,
		admin:    admin,
		editor:   editor,
		gateway:  gateway,
	}
}

func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req core.SignupInput
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.identity.Signup(req)
	if err != nil {
		if errors.Is(err, core.ErrUsernameTaken) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		log.Errorw("signup failed", "username", req.Username, "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	token, user, err := h.identity.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, core.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		log.Errorw("login failed", "username", req.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"token": token, "user": user})
}

type resetPasswordRequest struct {
	Username    string `json:"username"`
	NewPassword string `json:"new_password"`
}

func (h *APIHandler) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Username == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "username and new password are required")
		return
	}

	if err := h.identity.ResetPassword(req.Username, req.NewPassword); err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		log.Errorw("password reset failed", "username", req.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "password reset failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *APIHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFromContext(r.Context()))
}

type profileResponse struct {
	User *store.User `json:"user"`
	// Token is set when the update renamed the account, invalidating the
	// token the client sent.
	Token string `json:"token,omitempty"`
}

func (h *APIHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var req core.ProfileUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.identity.UpdateProfile(user.Username, req)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrUsernameTaken):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, core.ErrProtectedUser):
			writeError(w, http.StatusForbidden, "the admin account cannot be renamed")
		default:
			log.Errorw("profile update failed", "username", user.Username, "error", err)
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	resp := profileResponse{User: updated}
	if updated.Username != user.Username {
		token, err := h.identity.IssueToken(updated.Username)
		if err != nil {
			log.Errorw("failed to issue token after rename", "username", updated.Username, "error", err)
			writeError(w, http.StatusInternalServerError, "profile update failed")
			return
		}
		resp.Token = token
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) ProductsHandler(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Search(r.URL.Query().Get("q"), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if products == nil {
		products = []store.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *APIHandler) ProductCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Categories())
}

type generateImageRequest struct {
	Prompt string `json:"prompt"`
}

func (h *APIHandler) GenerateImageHandler(w http.ResponseWriter, r *http.Request) {
	var req generateImageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	img, err := h.gateway.GenerateImage(r.Context(), req.Prompt)
	if err != nil {
		log.Errorw("image generation failed", "error", err)
		writeError(w, http.StatusBadGateway, "image generation failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"image": core.EncodeInlineImage(img)})
}
