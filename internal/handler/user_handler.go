package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"account-service/internal/service"
	"account-service/internal/util"
)

// UserHandler exposes the self-service account endpoints.
type UserHandler struct {
	userService *service.UserService
	logger      *zap.Logger
}

func NewUserHandler(userService *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

func (h *UserHandler) RegisterRoutes(router chi.Router) {
	router.Route("/users", func(r chi.Router) {
		r.Post("/", h.Register)
		r.Post("/password", h.ChangePassword)
	})
}

// Register creates a new account with the default role.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	user, err := h.userService.Register(r.Context(), req)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	util.Info("user registered via HTTP", zap.String("user_id", user.ID))
	respondWithJSON(w, http.StatusCreated, successResponse(user, "account created"))
}

// ChangePassword rotates the caller's own password.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req service.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	if err := h.userService.ChangePassword(r.Context(), req); err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(nil, "password changed"))
}
