// Package httputil provides the JSON envelope and middleware shared by
// the portal's HTTP handlers. Every response is wrapped in
// {"success": bool, "data": ..., "error": ...}.
package httputil

import (
	"encoding/json"
	"net/http"
)

// Envelope is the standard response wrapper.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// WriteData writes a successful envelope with the given status.
func WriteData(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Envelope{Success: true, Data: data})
}

// WriteOK writes a 200 envelope.
func WriteOK(w http.ResponseWriter, data interface{}) {
	WriteData(w, http.StatusOK, data)
}

// WriteCreated writes a 201 envelope.
func WriteCreated(w http.ResponseWriter, data interface{}) {
	WriteData(w, http.StatusCreated, data)
}

// WriteErrorMessage writes a failed envelope with the given status and
// message.
func WriteErrorMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Envelope{Success: false, Error: message})
}

// WriteBadRequest writes a 400 envelope.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusBadRequest, message)
}

// WriteUnauthorized writes a 401 envelope.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusUnauthorized, message)
}

// WriteForbidden writes a 403 envelope.
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusForbidden, message)
}

// WriteInternalError writes a 500 envelope without leaking the cause.
func WriteInternalError(w http.ResponseWriter) {
	WriteErrorMessage(w, http.StatusInternalServerError, "internal server error")
}
