package handlers

import (
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/medhub/medhub-api/entities"
	"github.com/medhub/medhub-api/interfaces"
	"github.com/medhub/medhub-api/logging"
	"github.com/medhub/medhub-api/validation"
)

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	checker       interfaces.InteractionChecker
	assistant     interfaces.Assistant
	cabinet       interfaces.CabinetRepository
	validator     interfaces.InputValidator
	healthChecker interfaces.HealthChecker

	now func() time.Time
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies.
// A nil cabinet repository answers the cabinet endpoints with 503.
func NewHTTPHandler(
	checker interfaces.InteractionChecker,
	assistant interfaces.Assistant,
	cabinet interfaces.CabinetRepository,
	validator interfaces.InputValidator,
	healthChecker interfaces.HealthChecker,
) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		checker:       checker,
		assistant:     assistant,
		cabinet:       cabinet,
		validator:     validator,
		healthChecker: healthChecker,
		now:           time.Now,
	}
}

type interactionsRequest struct {
	Medicines []string `json:"medicines"`
}

type interactionsResponse struct {
	Results []entities.InteractionResult `json:"results"`
}

// CheckInteractions resolves every pair of the posted medicine list
func (h *HTTPHandlerImpl) CheckInteractions(w http.ResponseWriter, r *http.Request) {
	var req interactionsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	h.respondInteractions(w, r, req.Medicines)
}

func (h *HTTPHandlerImpl) respondInteractions(w http.ResponseWriter, r *http.Request, medicines []string) {
	results, err := h.checker.Check(r.Context(), medicines)
	if err != nil {
		var verr *validation.ValidationError
		if errors.As(err, &verr) {
			logging.Debug("Rejected interaction request", "details", verr.Error())
			RespondWithValidationError(w, verr)
			return
		}
		respondInternalError(w, r, "Interaction check failed", err)
		return
	}

	RespondWithJSON(w, http.StatusOK, interactionsResponse{Results: results})
}

// Preflight answers CORS preflight requests with an empty 200. The CORS
// headers are added by the router middleware.
func (h *HTTPHandlerImpl) Preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status string         `json:"status"`
	Data   map[string]any `json:"data"`
	System map[string]any `json:"system"`
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, details, httpStatus := h.healthChecker.HealthCheck(r.Context())

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	RespondWithJSON(w, httpStatus, HealthResponse{
		Status: status,
		Data:   details,
		System: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb": int(m.Alloc / 1024 / 1024),
				"sys_mb":   int(m.Sys / 1024 / 1024),
				"num_gc":   m.NumGC,
			},
		},
	})
}
