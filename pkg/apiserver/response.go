package apiserver

import (
	"encoding/json"
	"net/http"
)

// Response follows the repo's existing wire contract (§6):
// {msg, data} on success, {msg, cause} on error.
type Response struct {
	Msg   string `json:"msg,omitempty"`
	Data  any    `json:"data,omitempty"`
	Cause string `json:"cause,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, r Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(r)
}

func writeOK(w http.ResponseWriter, msg string, data any) {
	writeJSON(w, http.StatusOK, Response{Msg: msg, Data: data})
}

func writeCreated(w http.ResponseWriter, msg string, data any) {
	writeJSON(w, http.StatusCreated, Response{Msg: msg, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	cause := ""
	if err != nil {
		cause = err.Error()
	}
	writeJSON(w, status, Response{Msg: msg, Cause: cause})
}
