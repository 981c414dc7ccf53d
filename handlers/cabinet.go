package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medhub/medhub-api/cabinet"
	"github.com/medhub/medhub-api/entities"
	"github.com/medhub/medhub-api/logging"
	"github.com/medhub/medhub-api/validation"
)

// medicineRequest is the create / update body. Expiry dates are YYYY-MM-DD,
// RFC 3339 timestamps are accepted too.
type medicineRequest struct {
	Name          string   `json:"name"`
	GenericName   string   `json:"generic_name"`
	Dosage        string   `json:"dosage"`
	Frequency     string   `json:"frequency"`
	Quantity      int      `json:"quantity"`
	ExpiryDate    *string  `json:"expiry_date"`
	ReminderTimes []string `json:"reminder_times"`
	Notes         string   `json:"notes"`
}

func (req *medicineRequest) toMedicine(userID uuid.UUID) (*entities.Medicine, error) {
	m := &entities.Medicine{
		UserID:        userID,
		Name:          req.Name,
		GenericName:   req.GenericName,
		Dosage:        req.Dosage,
		Frequency:     req.Frequency,
		Quantity:      req.Quantity,
		ReminderTimes: req.ReminderTimes,
		Notes:         req.Notes,
	}
	if m.ReminderTimes == nil {
		m.ReminderTimes = []string{}
	}

	if req.ExpiryDate != nil && *req.ExpiryDate != "" {
		t, err := time.Parse(cabinet.DateLayout, *req.ExpiryDate)
		if err != nil {
			if t, err = time.Parse(time.RFC3339, *req.ExpiryDate); err != nil {
				return nil, &validation.ValidationError{Details: []validation.FieldError{{
					Field:   "expiry_date",
					Message: fmt.Sprintf("expiry date must be YYYY-MM-DD, got %q", *req.ExpiryDate),
				}}}
			}
		}
		m.ExpiryDate = &t
	}
	return m, nil
}

// cabinetUser resolves the calling user and checks that the cabinet is
// available. It writes the error response itself and returns false on failure.
func (h *HTTPHandlerImpl) cabinetUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if h.cabinet == nil {
		RespondWithError(w, http.StatusServiceUnavailable, "Medicine cabinet is not available")
		return uuid.Nil, false
	}

	userID, err := h.validator.ValidateUserID(r.Header.Get(logging.UserIDHeader))
	if err != nil {
		var verr *validation.ValidationError
		if errors.As(err, &verr) {
			RespondWithJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized", Details: verr.Details})
			return uuid.Nil, false
		}
		RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

func medicineID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondWithValidationError(w, &validation.ValidationError{Details: []validation.FieldError{{
			Field: "id", Message: "id must be a valid UUID",
		}}})
		return uuid.Nil, false
	}
	return id, true
}

func (h *HTTPHandlerImpl) respondCabinetError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	var verr *validation.ValidationError
	switch {
	case errors.As(err, &verr):
		RespondWithValidationError(w, verr)
	case errors.Is(err, cabinet.ErrNotFound):
		RespondWithError(w, http.StatusNotFound, "Medicine not found")
	default:
		respondInternalError(w, r, msg, err)
	}
}

// ListCabinet returns the user's medicines ordered by name
func (h *HTTPHandlerImpl) ListCabinet(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.cabinetUser(w, r)
	if !ok {
		return
	}

	medicines, err := h.cabinet.List(r.Context(), userID)
	if err != nil {
		h.respondCabinetError(w, r, "Failed to list cabinet", err)
		return
	}
	RespondWithJSON(w, http.StatusOK, medicines)
}

func (h *HTTPHandlerImpl) GetCabinetMedicine(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.cabinetUser(w, r)
	if !ok {
		return
	}
	id, ok := medicineID(w, r)
	if !ok {
		return
	}

	m, err := h.cabinet.Get(r.Context(), userID, id)
	if err != nil {
		h.respondCabinetError(w, r, "Failed to get cabinet medicine", err)
		return
	}
	RespondWithJSON(w, http.StatusOK, m)
}

func (h *HTTPHandlerImpl) CreateCabinetMedicine(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.cabinetUser(w, r)
	if !ok {
		return
	}

	m, err := h.decodeMedicine(r, userID)
	if err != nil {
		respondDecodeError(w, err)
		return
	}

	if err := h.cabinet.Create(r.Context(), m); err != nil {
		h.respondCabinetError(w, r, "Failed to create cabinet medicine", err)
		return
	}
	RespondWithJSON(w, http.StatusCreated, m)
}

func (h *HTTPHandlerImpl) UpdateCabinetMedicine(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.cabinetUser(w, r)
	if !ok {
		return
	}
	id, ok := medicineID(w, r)
	if !ok {
		return
	}

	m, err := h.decodeMedicine(r, userID)
	if err != nil {
		respondDecodeError(w, err)
		return
	}
	m.ID = id

	if err := h.cabinet.Update(r.Context(), m); err != nil {
		h.respondCabinetError(w, r, "Failed to update cabinet medicine", err)
		return
	}
	RespondWithJSON(w, http.StatusOK, m)
}

func (h *HTTPHandlerImpl) decodeMedicine(r *http.Request, userID uuid.UUID) (*entities.Medicine, error) {
	var req medicineRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	m, err := req.toMedicine(userID)
	if err != nil {
		return nil, err
	}
	if err := h.validator.ValidateMedicine(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (h *HTTPHandlerImpl) DeleteCabinetMedicine(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.cabinetUser(w, r)
	if !ok {
		return
	}
	id, ok := medicineID(w, r)
	if !ok {
		return
	}

	if err := h.cabinet.Delete(r.Context(), userID, id); err != nil {
		h.respondCabinetError(w, r, "Failed to delete cabinet medicine", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportCabinet downloads the cabinet as CSV
func (h *HTTPHandlerImpl) ExportCabinet(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.cabinetUser(w, r)
	if !ok {
		return
	}

	medicines, err := h.cabinet.List(r.Context(), userID)
	if err != nil {
		h.respondCabinetError(w, r, "Failed to export cabinet", err)
		return
	}

	var buf bytes.Buffer
	if err := cabinet.WriteCSV(&buf, medicines); err != nil {
		respondInternalError(w, r, "Failed to write cabinet CSV", err)
		return
	}

	filename := fmt.Sprintf("cabinet-%s.csv", h.now().Format(cabinet.DateLayout))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type importResponse struct {
	Imported int                `json:"imported"`
	Errors   []cabinet.RowError `json:"errors"`
}

// ImportCabinet adds the valid rows of a CSV file, sent either as the raw
// body or as the multipart "file" field, and reports the rejected rows
func (h *HTTPHandlerImpl) ImportCabinet(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.cabinetUser(w, r)
	if !ok {
		return
	}

	var body io.Reader = r.Body
	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType == "multipart/form-data" {
		file, _, err := r.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				respondDecodeError(w, err)
				return
			}
			RespondWithValidationError(w, &validation.ValidationError{Details: []validation.FieldError{{
				Field: "file", Message: "file is required",
			}}})
			return
		}
		defer file.Close()
		body = file
	}

	result, err := cabinet.ReadCSV(body, userID, h.validator)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondDecodeError(w, err)
			return
		}
		h.respondCabinetError(w, r, "Failed to read cabinet import", err)
		return
	}

	imported, err := h.cabinet.CreateMany(r.Context(), result.Medicines)
	if err != nil {
		h.respondCabinetError(w, r, "Failed to store cabinet import", err)
		return
	}

	logging.Info("Cabinet import",
		"imported", imported,
		"rejected", len(result.Errors))
	RespondWithJSON(w, http.StatusOK, importResponse{Imported: imported, Errors: result.Errors})
}

// CabinetStats summarises the cabinet as of today
func (h *HTTPHandlerImpl) CabinetStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.cabinetUser(w, r)
	if !ok {
		return
	}

	medicines, err := h.cabinet.List(r.Context(), userID)
	if err != nil {
		h.respondCabinetError(w, r, "Failed to compute cabinet stats", err)
		return
	}
	RespondWithJSON(w, http.StatusOK, cabinet.ComputeStats(medicines, h.now().UTC()))
}

type remindersResponse struct {
	Date      string             `json:"date"`
	Reminders []cabinet.Reminder `json:"reminders"`
}

// CabinetReminders lists the reminder slots of ?date=YYYY-MM-DD, today by default
func (h *HTTPHandlerImpl) CabinetReminders(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.cabinetUser(w, r)
	if !ok {
		return
	}

	now := h.now()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse(cabinet.DateLayout, raw)
		if err != nil {
			RespondWithValidationError(w, &validation.ValidationError{Details: []validation.FieldError{{
				Field: "date", Message: fmt.Sprintf("date must be YYYY-MM-DD, got %q", raw),
			}}})
			return
		}
		day = parsed
	}

	medicines, err := h.cabinet.List(r.Context(), userID)
	if err != nil {
		h.respondCabinetError(w, r, "Failed to list cabinet reminders", err)
		return
	}
	RespondWithJSON(w, http.StatusOK, remindersResponse{
		Date:      day.Format(cabinet.DateLayout),
		Reminders: cabinet.RemindersFor(medicines, day),
	})
}

// CabinetInteractions checks every pair of medicines in the user's cabinet
func (h *HTTPHandlerImpl) CabinetInteractions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.cabinetUser(w, r)
	if !ok {
		return
	}

	medicines, err := h.cabinet.List(r.Context(), userID)
	if err != nil {
		h.respondCabinetError(w, r, "Failed to list cabinet", err)
		return
	}

	h.respondInteractions(w, r, cabinet.Names(medicines))
}
