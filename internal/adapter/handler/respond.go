package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rcastell/homestock/internal/core/service"
)

const genericServerError = "Server error. Please try again later."

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

// statusFor maps service errors onto HTTP statuses. Anything unrecognized is
// a store-level failure and surfaces as a generic 500.
func statusFor(err error) int {
	var changeErr *service.ChangeError

	switch {
	case errors.As(err, &changeErr),
		errors.Is(err, service.ErrMissingFields),
		errors.Is(err, service.ErrEmptyOwner):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrProductNotFound), errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrOwnerBusy):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		writeMessage(w, status, genericServerError)
		return
	}
	writeMessage(w, status, err.Error())
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
