package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"account-service/internal/service"
)

// AuthHandler exposes login and the current-user endpoints.
type AuthHandler struct {
	authService     *service.AuthService
	identityService *service.IdentityService
	logger          *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, identityService *service.IdentityService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService:     authService,
		identityService: identityService,
		logger:          logger,
	}
}

func (h *AuthHandler) RegisterRoutes(router chi.Router) {
	router.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Get("/me", h.Me)
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates credentials and returns the resolved identity plus a
// session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(result, "login successful"))
}

// Me returns the authenticated caller with resolved permissions.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.identityService.GetCurrentUser(r.Context())
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(user, ""))
}
