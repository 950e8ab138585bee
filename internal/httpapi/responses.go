package httpapi

import (
	"encoding/json"
	"net/http"
)

// Error codes carried in JSON error bodies.
const (
	codeBadRequest      = "badRequest"
	codeInvalidArgument = "invalidArgument"
	codeMapNotFound     = "mapNotFound"
	codeInvalidToken    = "invalidToken"
	codeUnknownToken    = "unknownToken"
	codeInvalidMethod   = "invalidMethod"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorBody{Code: code, Message: message})
}

// respondInvalidMethod reports 405 with the Allow header listing what the
// endpoint accepts.
func respondInvalidMethod(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	respondError(w, http.StatusMethodNotAllowed, codeInvalidMethod, "Invalid method")
}
