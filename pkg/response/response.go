package response

import (
	"encoding/json"
	"net/http"
)

// Envelope is the {success, message} body used for operations without a payload
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// JSON sends v as the response body
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Message sends a {success, message} envelope. success follows the status code.
func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{
		Success: status >= 200 && status < 300,
		Message: message,
	})
}

// OK sends a 200 response with v as the body
func OK(w http.ResponseWriter, v interface{}) {
	JSON(w, http.StatusOK, v)
}

// Success sends a 200 {success: true} envelope
func Success(w http.ResponseWriter, message string) {
	Message(w, http.StatusOK, message)
}

// BadRequest sends a 400 response
func BadRequest(w http.ResponseWriter, message string) {
	Message(w, http.StatusBadRequest, message)
}

// Unauthorized sends a 401 response
func Unauthorized(w http.ResponseWriter, message string) {
	Message(w, http.StatusUnauthorized, message)
}

// NotFound sends a 404 response without a body
func NotFound(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNotFound)
}

// InternalError sends a 500 response
func InternalError(w http.ResponseWriter, message string) {
	Message(w, http.StatusInternalServerError, message)
}
