package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	authService "github.com/livepaste/backend/internal/service/auth"
	"github.com/livepaste/backend/pkg/utils"
)

// Handler exposes the login endpoint.
type Handler struct {
	authSvc *authService.Service
}

// New creates the auth handler.
func New(authSvc *authService.Service) *Handler {
	return &Handler{authSvc: authSvc}
}

// RegisterRoutes mounts auth routes on the API router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Username == "" || payload.Password == "" {
		utils.RespondError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	resp, err := h.authSvc.Login(payload.Username, payload.Password)
	if err != nil {
		if errors.Is(err, authService.ErrInvalidCredentials) {
			utils.RespondError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, resp)
}
