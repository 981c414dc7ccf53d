package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medhub/medhub-api/cabinet"
	"github.com/medhub/medhub-api/entities"
	"github.com/medhub/medhub-api/interactions"
	"github.com/medhub/medhub-api/logging"
	"github.com/medhub/medhub-api/validation"
)

// MockCabinet is an in-memory cabinet repository
type MockCabinet struct {
	mu        sync.Mutex
	medicines map[uuid.UUID]entities.Medicine
	err       error
}

type MockCabinetBuilder struct {
	medicines []entities.Medicine
	err       error
}

func NewMockCabinetBuilder() *MockCabinetBuilder {
	return &MockCabinetBuilder{}
}

func (b *MockCabinetBuilder) WithMedicines(medicines ...entities.Medicine) *MockCabinetBuilder {
	b.medicines = append(b.medicines, medicines...)
	return b
}

// WithError makes every call fail with err
func (b *MockCabinetBuilder) WithError(err error) *MockCabinetBuilder {
	b.err = err
	return b
}

func (b *MockCabinetBuilder) Build() *MockCabinet {
	m := &MockCabinet{medicines: map[uuid.UUID]entities.Medicine{}, err: b.err}
	for _, med := range b.medicines {
		if med.ID == uuid.Nil {
			med.ID = uuid.New()
		}
		m.medicines[med.ID] = med
	}
	return m
}

func (m *MockCabinet) List(_ context.Context, userID uuid.UUID) ([]entities.Medicine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	items := []entities.Medicine{}
	for _, med := range m.medicines {
		if med.UserID == userID {
			items = append(items, med)
		}
	}
	slices.SortFunc(items, func(a, b entities.Medicine) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return items, nil
}

func (m *MockCabinet) Get(_ context.Context, userID, id uuid.UUID) (*entities.Medicine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	med, ok := m.medicines[id]
	if !ok || med.UserID != userID {
		return nil, cabinet.ErrNotFound
	}
	return &med, nil
}

func (m *MockCabinet) Create(_ context.Context, med *entities.Medicine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	med.ID = uuid.New()
	med.CreatedAt = time.Now()
	med.UpdatedAt = med.CreatedAt
	m.medicines[med.ID] = *med
	return nil
}

func (m *MockCabinet) CreateMany(ctx context.Context, medicines []entities.Medicine) (int, error) {
	for i := range medicines {
		if err := m.Create(ctx, &medicines[i]); err != nil {
			return 0, err
		}
	}
	return len(medicines), nil
}

func (m *MockCabinet) Update(_ context.Context, med *entities.Medicine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	existing, ok := m.medicines[med.ID]
	if !ok || existing.UserID != med.UserID {
		return cabinet.ErrNotFound
	}
	med.CreatedAt = existing.CreatedAt
	med.UpdatedAt = time.Now()
	m.medicines[med.ID] = *med
	return nil
}

func (m *MockCabinet) Delete(_ context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	med, ok := m.medicines[id]
	if !ok || med.UserID != userID {
		return cabinet.ErrNotFound
	}
	delete(m.medicines, id)
	return nil
}

func (m *MockCabinet) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.medicines)
}

// MockAssistant returns canned results and records what it was asked
type MockAssistant struct {
	identification *entities.MedicineIdentification
	explanation    *entities.ReportExplanation
	answer         *entities.Answer
	err            error

	lastImage    entities.Image
	lastQuestion string
	lastHistory  []entities.ChatTurn
}

func (m *MockAssistant) IdentifyMedicine(_ context.Context, image entities.Image) (*entities.MedicineIdentification, error) {
	m.lastImage = image
	return m.identification, m.err
}

func (m *MockAssistant) ExplainReport(_ context.Context, image entities.Image) (*entities.ReportExplanation, error) {
	m.lastImage = image
	return m.explanation, m.err
}

func (m *MockAssistant) Ask(_ context.Context, question string, history []entities.ChatTurn) (*entities.Answer, error) {
	m.lastQuestion = question
	m.lastHistory = history
	return m.answer, m.err
}

// MockChecker fails every check with err
type MockChecker struct {
	err error
}

func (m *MockChecker) Check(context.Context, []string) ([]entities.InteractionResult, error) {
	return nil, m.err
}

// MockHealthChecker returns a fixed status
type MockHealthChecker struct {
	status     string
	details    map[string]any
	httpStatus int
}

func (m *MockHealthChecker) HealthCheck(context.Context) (string, map[string]any, int) {
	return m.status, m.details, m.httpStatus
}

func (m *MockHealthChecker) CalculateNextUpdate() time.Time {
	return time.Time{}
}

// HandlerBuilder assembles an HTTPHandlerImpl with test doubles
type HandlerBuilder struct {
	h *HTTPHandlerImpl
}

func NewHandlerBuilder() *HandlerBuilder {
	validator := validation.NewDataValidator()
	return &HandlerBuilder{h: NewHTTPHandler(
		interactions.NewResolver(validator, nil, time.Second),
		&MockAssistant{},
		NewMockCabinetBuilder().Build(),
		validator,
		&MockHealthChecker{status: "healthy", details: map[string]any{}, httpStatus: http.StatusOK},
	)}
}

func (b *HandlerBuilder) WithChecker(c *MockChecker) *HandlerBuilder {
	b.h.checker = c
	return b
}

func (b *HandlerBuilder) WithAssistant(a *MockAssistant) *HandlerBuilder {
	b.h.assistant = a
	return b
}

func (b *HandlerBuilder) WithCabinet(c *MockCabinet) *HandlerBuilder {
	b.h.cabinet = c
	return b
}

func (b *HandlerBuilder) WithoutCabinet() *HandlerBuilder {
	b.h.cabinet = nil
	return b
}

func (b *HandlerBuilder) WithHealth(hc *MockHealthChecker) *HandlerBuilder {
	b.h.healthChecker = hc
	return b
}

func (b *HandlerBuilder) WithNow(now time.Time) *HandlerBuilder {
	b.h.now = func() time.Time { return now }
	return b
}

func (b *HandlerBuilder) Build() *HTTPHandlerImpl {
	return b.h
}

// HTTPTestHelper provides utilities for HTTP handler testing
type HTTPTestHelper struct {
	t *testing.T
}

func NewHTTPTestHelper(t *testing.T) *HTTPTestHelper {
	return &HTTPTestHelper{t: t}
}

// NewJSONRequest builds a request with a JSON body, as the given user when userID is set
func (h *HTTPTestHelper) NewJSONRequest(method, path, body string, userID uuid.UUID) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != uuid.Nil {
		req.Header.Set(logging.UserIDHeader, userID.String())
	}
	return req
}

// NewUploadRequest builds a multipart request with one file field
func (h *HTTPTestHelper) NewUploadRequest(path, field string, content []byte) *http.Request {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, "upload.bin")
	if err != nil {
		h.t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		h.t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		h.t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// ExecuteRequest runs the handler with the given chi URL params
func (h *HTTPTestHelper) ExecuteRequest(handler http.HandlerFunc, req *http.Request, urlParams map[string]string) *httptest.ResponseRecorder {
	if len(urlParams) > 0 {
		rctx := chi.NewRouteContext()
		for key, value := range urlParams {
			rctx.URLParams.Add(key, value)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

// AssertJSONResponse asserts that response contains valid JSON with expected status
func (h *HTTPTestHelper) AssertJSONResponse(resp *httptest.ResponseRecorder, expectedStatus int, target any) {
	h.t.Helper()
	if resp.Code != expectedStatus {
		h.t.Errorf("Expected status %d, got %d: %s", expectedStatus, resp.Code, resp.Body.String())
	}

	if err := json.Unmarshal(resp.Body.Bytes(), target); err != nil {
		h.t.Errorf("Response should be valid JSON, got error: %v", err)
	}
}

// AssertErrorResponse asserts the error body and returns it
func (h *HTTPTestHelper) AssertErrorResponse(resp *httptest.ResponseRecorder, expectedStatus int) errorResponse {
	h.t.Helper()
	var body errorResponse
	h.AssertJSONResponse(resp, expectedStatus, &body)
	if body.Error == "" {
		h.t.Error("Error response should have an error field")
	}
	return body
}

// AssertValidationError asserts a 400 whose details name the given field
func (h *HTTPTestHelper) AssertValidationError(resp *httptest.ResponseRecorder, field string) {
	h.t.Helper()
	body := h.AssertErrorResponse(resp, http.StatusBadRequest)
	if body.Error != "Invalid input" {
		h.t.Errorf("Expected error %q, got %q", "Invalid input", body.Error)
	}
	for _, d := range body.Details {
		if d.Field == field {
			return
		}
	}
	h.t.Errorf("Expected a detail for field %q, got %+v", field, body.Details)
}
