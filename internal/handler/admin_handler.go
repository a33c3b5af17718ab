package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"account-service/internal/service"
)

// AdminHandler exposes the administrative account endpoints. Authorization
// happens in the service layer against the caller's effective permissions.
type AdminHandler struct {
	adminService *service.AdminService
	logger       *zap.Logger
}

func NewAdminHandler(adminService *service.AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		logger:       logger,
	}
}

func (h *AdminHandler) RegisterRoutes(router chi.Router) {
	router.Route("/admin/users", func(r chi.Router) {
		r.Get("/", h.ListUsers)
		r.Post("/", h.CreateUser)
		r.Get("/search", h.SearchUsers)
		r.Get("/{userID}", h.GetUser)
		r.Put("/{userID}", h.UpdateUser)
		r.Delete("/{userID}", h.DeleteUser)
		r.Put("/{userID}/password", h.UpdatePassword)
		r.Post("/{userID}/unlock", h.UnlockUser)
	})
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminService.ListUsers(r.Context())
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(users, ""))
}

func (h *AdminHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))

	docs, err := h.adminService.SearchUsers(r.Context(), term, size)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(docs, ""))
}

func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.adminService.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(user, ""))
}

func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req service.AdminCreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	user, err := h.adminService.CreateUser(r.Context(), req)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	h.logger.Info("user created via admin API", zap.String("user_id", user.ID))
	respondWithJSON(w, http.StatusCreated, successResponse(user, "user created"))
}

func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req service.AdminUpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	user, err := h.adminService.UpdateUser(r.Context(), chi.URLParam(r, "userID"), req)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(user, "user updated"))
}

type updatePasswordRequest struct {
	NewPassword string `json:"new_password"`
}

func (h *AdminHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req updatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	if err := h.adminService.UpdatePassword(r.Context(), chi.URLParam(r, "userID"), req.NewPassword); err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(nil, "password updated"))
}

func (h *AdminHandler) UnlockUser(w http.ResponseWriter, r *http.Request) {
	if err := h.adminService.UnlockUser(r.Context(), chi.URLParam(r, "userID")); err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(nil, "user unlocked"))
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.adminService.DeleteUser(r.Context(), chi.URLParam(r, "userID")); err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(nil, "user disabled"))
}
