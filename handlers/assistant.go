package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/medhub/medhub-api/assistant"
	"github.com/medhub/medhub-api/entities"
	"github.com/medhub/medhub-api/logging"
	"github.com/medhub/medhub-api/validation"
)

// multipartMemory is kept in memory while parsing uploads, the rest spills to disk
const multipartMemory = 8 << 20

var (
	imageTypes  = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}
	reportTypes = append(slices.Clone(imageTypes), "application/pdf")
)

// IdentifyMedicine identifies the medicine on the uploaded "image"
func (h *HTTPHandlerImpl) IdentifyMedicine(w http.ResponseWriter, r *http.Request) {
	image, err := readUpload(r, "image", imageTypes)
	if err != nil {
		respondDecodeError(w, err)
		return
	}

	result, err := h.assistant.IdentifyMedicine(r.Context(), *image)
	if err != nil {
		h.respondAssistantError(w, r, assistant.OpIdentify, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, result)
}

// ExplainReport explains the uploaded medical "report"
func (h *HTTPHandlerImpl) ExplainReport(w http.ResponseWriter, r *http.Request) {
	image, err := readUpload(r, "report", reportTypes)
	if err != nil {
		respondDecodeError(w, err)
		return
	}

	result, err := h.assistant.ExplainReport(r.Context(), *image)
	if err != nil {
		h.respondAssistantError(w, r, assistant.OpExplain, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, result)
}

type askRequest struct {
	Question string              `json:"question"`
	History  []entities.ChatTurn `json:"history"`
}

// AskQuestion answers a free-text health question
func (h *HTTPHandlerImpl) AskQuestion(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	answer, err := h.assistant.Ask(r.Context(), req.Question, req.History)
	if err != nil {
		h.respondAssistantError(w, r, assistant.OpAsk, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, answer)
}

func (h *HTTPHandlerImpl) respondAssistantError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var (
		verr   *validation.ValidationError
		perr   *assistant.ProviderError
		outErr *assistant.OutputError
	)

	switch {
	case errors.As(err, &verr):
		RespondWithValidationError(w, verr)
	case errors.Is(err, assistant.ErrDisabled):
		RespondWithError(w, http.StatusServiceUnavailable, "Assistant is not configured")
	case errors.As(err, &perr):
		status := perr.HTTPStatus()
		logging.Warn("AI provider error",
			"operation", op,
			"provider_status", perr.StatusCode,
			"error", err,
			"request_id", middleware.GetReqID(r.Context()))
		switch status {
		case http.StatusTooManyRequests:
			RespondWithError(w, status, "Rate limit exceeded, please try again later")
		case http.StatusPaymentRequired:
			RespondWithError(w, status, "AI credits exhausted")
		default:
			RespondWithError(w, status, "AI provider error")
		}
	case errors.As(err, &outErr):
		RespondWithError(w, http.StatusBadGateway, "AI returned an unreadable answer")
	default:
		respondInternalError(w, r, "Assistant request failed", err)
	}
}

// readUpload reads a multipart file field and checks its sniffed content type
func readUpload(r *http.Request, field string, allowed []string) (*entities.Image, error) {
	invalid := func(format string, args ...any) error {
		return &validation.ValidationError{Details: []validation.FieldError{{Field: field, Message: fmt.Sprintf(format, args...)}}}
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, invalid("expected a multipart/form-data upload")
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logging.Warn("Failed to remove multipart temp files", "error", err)
		}
	}()

	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, invalid("file is required")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, invalid("file is empty")
	}

	// DetectContentType may append parameters, e.g. "text/plain; charset=utf-8"
	mimeType, _, _ := strings.Cut(http.DetectContentType(data), ";")
	if !slices.Contains(allowed, mimeType) {
		return nil, invalid("unsupported file type %s, expected one of %s", mimeType, strings.Join(allowed, ", "))
	}

	return &entities.Image{MIMEType: mimeType, Data: data}, nil
}
