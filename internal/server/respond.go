package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"inwista-wallet-go/internal/api"
	"inwista-wallet-go/internal/auth"
	"inwista-wallet-go/internal/store"

	"go.uber.org/zap"
)

var (
	errForbidden  = errors.New("access to another account is not allowed")
	errBadRequest = errors.New("malformed request body")
)

type errorResponse struct {
	Message string `json:"message"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		zap.L().Error("Failed to encode response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// statusFor maps service and store errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, api.ErrValidation),
		errors.Is(err, api.ErrInsufficientFunds),
		errors.Is(err, api.ErrBelowMinimum),
		errors.Is(err, api.ErrProductUnavailable),
		errors.Is(err, store.ErrDuplicateNationalId),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, api.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, errForbidden):
		return http.StatusForbidden
	case errors.Is(err, store.ErrAccountNotFound),
		errors.Is(err, store.ErrProductNotFound),
		errors.Is(err, store.ErrPaymentKeyNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConcurrentModification):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondWithError writes {"message": ...}. Internal failures are logged and
// replaced by a generic message.
func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		zap.L().Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		message = "internal server error"
	}
	respondWithJSON(w, code, errorResponse{Message: message})
}
