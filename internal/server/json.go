package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/leapfxp/gamenight/internal/gamenight"
)

// maxJSONBody bounds every JSON request body. Image payloads for the pixel
// fog are the largest.
const maxJSONBody = 8 << 20

// writeJSON encodes v before touching the response, so an unencodable value
// still produces a clean 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// readJSON decodes exactly one JSON value from the request body.
func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after JSON body")
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeGameError maps the gamenight error taxonomy to HTTP statuses.
func writeGameError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, gamenight.ErrSessionExpired):
		writeError(w, http.StatusUnauthorized, "session expired, log in again")
	case errors.Is(err, gamenight.ErrAuthFailed):
		writeError(w, http.StatusUnauthorized, "authentication failed")
	case errors.Is(err, gamenight.ErrAlreadyCompleted):
		writeError(w, http.StatusForbidden, "already completed")
	case errors.Is(err, gamenight.ErrGameClosed):
		writeError(w, http.StatusForbidden, "game is closed")
	case errors.Is(err, gamenight.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, gamenight.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, gamenight.ErrExternalService):
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
