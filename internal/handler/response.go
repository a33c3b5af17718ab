package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"account-service/internal/service"
	"account-service/internal/util"
)

// Response is the standard API envelope.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
}

func successResponse(data interface{}, message string) Response {
	return Response{
		Success: true,
		Data:    data,
		Message: message,
	}
}

func respondWithJSON(w http.ResponseWriter, status int, payload Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		util.Error("failed to encode response", zap.Error(err))
	}
}

// respondWithDomainError maps a service error onto an HTTP status. Domain
// errors carry their stable code through to the client; anything else is a
// plain 500 with no internals leaked.
func respondWithDomainError(w http.ResponseWriter, err error) {
	var domainErr *service.DomainError
	if errors.As(err, &domainErr) {
		respondWithJSON(w, statusForKind(domainErr.Kind), Response{
			Success: false,
			Error:   domainErr.Message,
			Code:    domainErr.Code,
		})
		return
	}

	util.Error("request failed", zap.Error(err))
	respondWithJSON(w, http.StatusInternalServerError, Response{
		Success: false,
		Error:   "internal server error",
	})
}

func statusForKind(kind service.ErrorKind) int {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindNotAuthenticated:
		return http.StatusUnauthorized
	case service.KindNotAuthorized:
		return http.StatusForbidden
	case service.KindUnprocessable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
