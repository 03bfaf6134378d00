package server

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/jrsteele09/storefront-sessions/internal/errors"
)

type errorResponse struct {
	Error string `json:"error"`
}

// errorStatuses maps service sentinels to responses; the first match wins.
var errorStatuses = []struct {
	err    error
	status int
}{
	{apperrors.ErrInvalidLogin, http.StatusUnauthorized},
	{apperrors.ErrForbidden, http.StatusForbidden},
	{apperrors.ErrInvalidRequest, http.StatusBadRequest},
	{apperrors.ErrNotFound, http.StatusNotFound},
	{apperrors.ErrUnavailable, http.StatusServiceUnavailable},
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeAppError answers with the sentinel err wraps. Only the sentinel's own text is
// sent, never the wrapped detail; anything unrecognised is an internal error.
func writeAppError(w http.ResponseWriter, err error) {
	if apperrors.Is(err, apperrors.ErrInvalidCredential) {
		writeUnauthorized(w)
		return
	}
	for _, e := range errorStatuses {
		if apperrors.Is(err, e.err) {
			writeError(w, e.status, e.err.Error())
			return
		}
	}
	writeError(w, http.StatusInternalServerError, apperrors.ErrInternal.Error())
}

// writeUnauthorized is the single response for every rejected credential.
func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="storefront"`)
	writeError(w, http.StatusUnauthorized, "unauthorized")
}
