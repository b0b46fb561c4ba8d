package httpx

import (
	"encoding/json"
	"net/http"
)

type ErrorBody struct {
	Error      string `json:"error"`
	StatusCode int    `json:"statusCode"`
}

type StatusBody struct {
	Status string `json:"status"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorBody{Error: msg, StatusCode: status})
}
