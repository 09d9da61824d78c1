package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/keyfort/keyfort/keeper"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, keeper.ErrMalformedKeyFile):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, keeper.ErrKeyFileExists):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	}
}
