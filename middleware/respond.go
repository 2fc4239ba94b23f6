package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	goGate "github.com/MrEthical07/goGate"
)

type messageBody struct {
	Message string `json:"message"`
}

// StatusFor maps an Engine error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, goGate.ErrUnauthenticated), errors.Is(err, goGate.ErrAccessExpired):
		return http.StatusUnauthorized
	case errors.Is(err, goGate.ErrMissingRefreshCredential),
		errors.Is(err, goGate.ErrInvalidRefreshCredential),
		errors.Is(err, goGate.ErrWrongCredentialCategory),
		errors.Is(err, goGate.ErrSessionNotFound),
		errors.Is(err, goGate.ErrSessionTokenMismatch):
		return http.StatusBadRequest
	case errors.Is(err, goGate.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// MessageFor returns the client-facing message for err. Wrapped detail is
// never exposed.
func MessageFor(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, goGate.ErrUnauthenticated), errors.Is(err, goGate.ErrAccessExpired):
		return goGate.ErrUnauthenticated.Error()
	case errors.Is(err, goGate.ErrMissingRefreshCredential):
		return goGate.ErrMissingRefreshCredential.Error()
	case errors.Is(err, goGate.ErrInvalidRefreshCredential):
		return goGate.ErrInvalidRefreshCredential.Error()
	case errors.Is(err, goGate.ErrWrongCredentialCategory):
		return goGate.ErrWrongCredentialCategory.Error()
	case errors.Is(err, goGate.ErrSessionNotFound):
		return goGate.ErrSessionNotFound.Error()
	case errors.Is(err, goGate.ErrSessionTokenMismatch):
		return goGate.ErrSessionTokenMismatch.Error()
	case errors.Is(err, goGate.ErrStoreUnavailable):
		return goGate.ErrStoreUnavailable.Error()
	default:
		return "internal error"
	}
}

// WriteError writes the {"message": ...} body and status for err.
func WriteError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusFor(err), messageBody{Message: MessageFor(err)})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
