package api

import (
	"net/http"

	"github.com/go-chi/render"
)

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{
		Status:  "error",
		Message: message,
	})
}

func renderSuccess(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, SuccessResponse{
		Status:  "success",
		Message: message,
	})
}
