package utils

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

type M map[string]any

// RespondWithJSON sends data as a JSON body.
func RespondWithJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, M{"message": msg})
}

// RespondWithErr maps err onto the error taxonomy. Server side failures are
// logged through the request logger and answered with a generic message so
// store or gateway details never reach the client.
func RespondWithErr(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		RespondWithError(w, status, "Internal server error")
		return
	}
	RespondWithError(w, status, err.Error())
}
