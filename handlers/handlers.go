// Package handlers provides the HTTP request handlers of the medhub API:
// drug interaction checks, the AI assistant, the medicine cabinet and the
// health endpoint, with input validation and consistent JSON error bodies.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/medhub/medhub-api/logging"
	"github.com/medhub/medhub-api/validation"
)

// errorResponse is the body of every error answer. Details are only set for
// validation failures.
type errorResponse struct {
	Error   string                  `json:"error"`
	Details []validation.FieldError `json:"details,omitempty"`
}

// RespondWithJSON writes a JSON response
func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	_, _ = w.Write(data)
}

// RespondWithError writes {"error": message}
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, errorResponse{Error: message})
}

// RespondWithValidationError writes the 400 body with field-level details
func RespondWithValidationError(w http.ResponseWriter, verr *validation.ValidationError) {
	RespondWithJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid input", Details: verr.Details})
}

// respondInternalError logs the full error and answers with a generic message
func respondInternalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logging.Error(msg,
		"error", err,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()))
	RespondWithError(w, http.StatusInternalServerError, "Internal server error")
}

// decodeJSON reads the request body into dst. Malformed bodies are reported
// as validation errors on the "body" field.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return &validation.ValidationError{Details: []validation.FieldError{{
			Field:   "body",
			Message: fmt.Sprintf("malformed JSON: %v", err),
		}}}
	}
	return nil
}

// respondDecodeError answers a failed decodeJSON
func respondDecodeError(w http.ResponseWriter, err error) {
	var verr *validation.ValidationError
	if errors.As(err, &verr) {
		RespondWithValidationError(w, verr)
		return
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		RespondWithError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	RespondWithError(w, http.StatusBadRequest, "Invalid request body")
}
