package handlers

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medhub/medhub-api/cabinet"
	"github.com/medhub/medhub-api/entities"
	"github.com/medhub/medhub-api/logging"
)

func day(s string) *time.Time {
	t, err := time.Parse(cabinet.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestCabinetRequiresUser(t *testing.T) {
	h := NewHandlerBuilder().Build()
	helper := NewHTTPTestHelper(t)

	for name, header := range map[string]string{"missing": "", "not a uuid": "alice"} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/cabinet", nil)
			if header != "" {
				req.Header.Set(logging.UserIDHeader, header)
			}
			rr := helper.ExecuteRequest(h.ListCabinet, req, nil)

			body := helper.AssertErrorResponse(rr, http.StatusUnauthorized)
			if len(body.Details) == 0 || body.Details[0].Field != "X-User-ID" {
				t.Errorf("Expected an X-User-ID detail, got %+v", body.Details)
			}
		})
	}
}

func TestCabinetDisabled(t *testing.T) {
	h := NewHandlerBuilder().WithoutCabinet().Build()
	helper := NewHTTPTestHelper(t)

	rr := helper.ExecuteRequest(h.ListCabinet, helper.NewJSONRequest(http.MethodGet, "/v1/cabinet", "", uuid.New()), nil)
	helper.AssertErrorResponse(rr, http.StatusServiceUnavailable)
}

func TestCabinetCRUD(t *testing.T) {
	repo := NewMockCabinetBuilder().Build()
	h := NewHandlerBuilder().WithCabinet(repo).Build()
	helper := NewHTTPTestHelper(t)
	user := uuid.New()

	// Create
	body := `{"name":"Doliprane","dosage":"1 g","quantity":8,"expiry_date":"2027-03-01","reminder_times":["08:00","20:00"]}`
	rr := helper.ExecuteRequest(h.CreateCabinetMedicine, helper.NewJSONRequest(http.MethodPost, "/v1/cabinet", body, user), nil)
	var created entities.Medicine
	helper.AssertJSONResponse(rr, http.StatusCreated, &created)
	if created.ID == uuid.Nil || created.UserID != user {
		t.Fatalf("Unexpected created medicine %+v", created)
	}
	if created.ExpiryDate == nil || created.ExpiryDate.Format(cabinet.DateLayout) != "2027-03-01" {
		t.Errorf("Unexpected expiry date %v", created.ExpiryDate)
	}
	params := map[string]string{"id": created.ID.String()}

	// Get
	rr = helper.ExecuteRequest(h.GetCabinetMedicine, helper.NewJSONRequest(http.MethodGet, "/v1/cabinet/"+created.ID.String(), "", user), params)
	var got entities.Medicine
	helper.AssertJSONResponse(rr, http.StatusOK, &got)
	if got.Name != "Doliprane" {
		t.Errorf("Expected Doliprane, got %q", got.Name)
	}

	// Another user sees nothing
	rr = helper.ExecuteRequest(h.GetCabinetMedicine, helper.NewJSONRequest(http.MethodGet, "/v1/cabinet/"+created.ID.String(), "", uuid.New()), params)
	helper.AssertErrorResponse(rr, http.StatusNotFound)

	// Update
	rr = helper.ExecuteRequest(h.UpdateCabinetMedicine, helper.NewJSONRequest(http.MethodPut, "/v1/cabinet/"+created.ID.String(), `{"name":"Doliprane","quantity":2}`, user), params)
	var updated entities.Medicine
	helper.AssertJSONResponse(rr, http.StatusOK, &updated)
	if updated.Quantity != 2 || updated.ExpiryDate != nil || len(updated.ReminderTimes) != 0 {
		t.Errorf("Update should replace every field, got %+v", updated)
	}

	// List
	rr = helper.ExecuteRequest(h.ListCabinet, helper.NewJSONRequest(http.MethodGet, "/v1/cabinet", "", user), nil)
	var list []entities.Medicine
	helper.AssertJSONResponse(rr, http.StatusOK, &list)
	if len(list) != 1 {
		t.Errorf("Expected 1 medicine, got %d", len(list))
	}

	// Delete
	rr = helper.ExecuteRequest(h.DeleteCabinetMedicine, helper.NewJSONRequest(http.MethodDelete, "/v1/cabinet/"+created.ID.String(), "", user), params)
	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rr.Code)
	}
	rr = helper.ExecuteRequest(h.DeleteCabinetMedicine, helper.NewJSONRequest(http.MethodDelete, "/v1/cabinet/"+created.ID.String(), "", user), params)
	helper.AssertErrorResponse(rr, http.StatusNotFound)
}

func TestCreateCabinetMedicineValidation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"empty name", `{"name":"  "}`, "name"},
		{"negative quantity", `{"name":"Doliprane","quantity":-1}`, "quantity"},
		{"bad reminder", `{"name":"Doliprane","reminder_times":["8am"]}`, "reminder_times[0]"},
		{"bad expiry", `{"name":"Doliprane","expiry_date":"next year"}`, "expiry_date"},
		{"malformed", `{"name":`, "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMockCabinetBuilder().Build()
			h := NewHandlerBuilder().WithCabinet(repo).Build()
			helper := NewHTTPTestHelper(t)

			rr := helper.ExecuteRequest(h.CreateCabinetMedicine, helper.NewJSONRequest(http.MethodPost, "/v1/cabinet", tt.body, uuid.New()), nil)
			helper.AssertValidationError(rr, tt.field)
			if repo.count() != 0 {
				t.Error("Invalid medicines must not be stored")
			}
		})
	}
}

func TestCabinetInvalidID(t *testing.T) {
	h := NewHandlerBuilder().Build()
	helper := NewHTTPTestHelper(t)

	rr := helper.ExecuteRequest(h.GetCabinetMedicine, helper.NewJSONRequest(http.MethodGet, "/v1/cabinet/42", "", uuid.New()), map[string]string{"id": "42"})
	helper.AssertValidationError(rr, "id")
}

func TestCabinetStoreFailure(t *testing.T) {
	repo := NewMockCabinetBuilder().WithError(errors.New("connection reset")).Build()
	h := NewHandlerBuilder().WithCabinet(repo).Build()
	helper := NewHTTPTestHelper(t)

	rr := helper.ExecuteRequest(h.ListCabinet, helper.NewJSONRequest(http.MethodGet, "/v1/cabinet", "", uuid.New()), nil)
	body := helper.AssertErrorResponse(rr, http.StatusInternalServerError)
	if strings.Contains(body.Error, "connection") {
		t.Errorf("Store errors must not leak, got %q", body.Error)
	}
}

func TestExportCabinet(t *testing.T) {
	user := uuid.New()
	repo := NewMockCabinetBuilder().WithMedicines(
		entities.Medicine{UserID: user, Name: "Zyrtec", Quantity: 1},
		entities.Medicine{UserID: user, Name: "Doliprane", Quantity: 8, ExpiryDate: day("2027-03-01"), ReminderTimes: []string{"08:00"}},
		entities.Medicine{UserID: uuid.New(), Name: "Someone else's"},
	).Build()
	h := NewHandlerBuilder().WithCabinet(repo).WithNow(time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)).Build()
	helper := NewHTTPTestHelper(t)

	rr := helper.ExecuteRequest(h.ExportCabinet, helper.NewJSONRequest(http.MethodGet, "/v1/cabinet/export", "", user), nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/csv; charset=utf-8" {
		t.Errorf("Unexpected Content-Type %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); cd != `attachment; filename=cabinet-2026-06-15.csv` {
		t.Errorf("Unexpected Content-Disposition %q", cd)
	}

	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	expected := []string{
		"name,generic_name,dosage,frequency,quantity,expiry_date,reminder_times,notes",
		"Doliprane,,,,8,2027-03-01,08:00,",
		"Zyrtec,,,,1,,,",
	}
	if strings.Join(lines, "\n") != strings.Join(expected, "\n") {
		t.Errorf("Unexpected CSV:\n%s", rr.Body.String())
	}
}

func TestImportCabinet(t *testing.T) {
	csv := "name,quantity,reminder_times\nDoliprane,8,08:00\n,2,\nZyrtec,x,\nAspirin,30,\n"

	newMultipart := func(t *testing.T, user uuid.UUID) *http.Request {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("file", "cabinet.csv")
		if err != nil {
			t.Fatal(err)
		}
		_, _ = part.Write([]byte(csv))
		_ = mw.Close()
		req := httptest.NewRequest(http.MethodPost, "/v1/cabinet/import", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set(logging.UserIDHeader, user.String())
		return req
	}
	newRaw := func(t *testing.T, user uuid.UUID) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/v1/cabinet/import", strings.NewReader(csv))
		req.Header.Set("Content-Type", "text/csv")
		req.Header.Set(logging.UserIDHeader, user.String())
		return req
	}

	for name, build := range map[string]func(*testing.T, uuid.UUID) *http.Request{"multipart": newMultipart, "raw body": newRaw} {
		t.Run(name, func(t *testing.T) {
			repo := NewMockCabinetBuilder().Build()
			h := NewHandlerBuilder().WithCabinet(repo).Build()
			helper := NewHTTPTestHelper(t)
			user := uuid.New()

			rr := helper.ExecuteRequest(h.ImportCabinet, build(t, user), nil)

			var resp importResponse
			helper.AssertJSONResponse(rr, http.StatusOK, &resp)
			if resp.Imported != 2 {
				t.Errorf("Expected 2 imported, got %d", resp.Imported)
			}
			if len(resp.Errors) != 2 || resp.Errors[0].Row != 3 || resp.Errors[1].Row != 4 {
				t.Errorf("Unexpected row errors %+v", resp.Errors)
			}
			if repo.count() != 2 {
				t.Errorf("Expected 2 stored medicines, got %d", repo.count())
			}
		})
	}
}

func TestImportCabinetRejectsFile(t *testing.T) {
	h := NewHandlerBuilder().Build()
	helper := NewHTTPTestHelper(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/cabinet/import", strings.NewReader("dosage\n1 g\n"))
	req.Header.Set(logging.UserIDHeader, uuid.NewString())
	rr := helper.ExecuteRequest(h.ImportCabinet, req, nil)
	helper.AssertValidationError(rr, "file")
}

func TestCabinetStats(t *testing.T) {
	user := uuid.New()
	repo := NewMockCabinetBuilder().WithMedicines(
		entities.Medicine{UserID: user, Name: "expired", Quantity: 10, ExpiryDate: day("2026-06-01")},
		entities.Medicine{UserID: user, Name: "low", Quantity: 2, ReminderTimes: []string{"08:00", "20:00"}},
	).Build()
	h := NewHandlerBuilder().WithCabinet(repo).WithNow(time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)).Build()
	helper := NewHTTPTestHelper(t)

	rr := helper.ExecuteRequest(h.CabinetStats, helper.NewJSONRequest(http.MethodGet, "/v1/cabinet/stats", "", user), nil)

	var stats cabinet.Stats
	helper.AssertJSONResponse(rr, http.StatusOK, &stats)
	expected := cabinet.Stats{Total: 2, Expired: 1, LowStock: 1, WithReminders: 1, RemindersPerDay: 2}
	if stats != expected {
		t.Errorf("Expected %+v, got %+v", expected, stats)
	}
}

func TestCabinetReminders(t *testing.T) {
	user := uuid.New()
	repo := NewMockCabinetBuilder().WithMedicines(
		entities.Medicine{UserID: user, Name: "Zinc", ReminderTimes: []string{"20:00"}},
		entities.Medicine{UserID: user, Name: "Aspirin", ReminderTimes: []string{"08:00"}, ExpiryDate: day("2026-07-01")},
	).Build()
	h := NewHandlerBuilder().WithCabinet(repo).WithNow(time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)).Build()
	helper := NewHTTPTestHelper(t)

	tests := []struct {
		name      string
		query     string
		date      string
		reminders []string
	}{
		{"today", "", "2026-06-15", []string{"08:00 Aspirin", "20:00 Zinc"}},
		{"after expiry", "?date=2026-08-01", "2026-08-01", []string{"20:00 Zinc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := helper.ExecuteRequest(h.CabinetReminders, helper.NewJSONRequest(http.MethodGet, "/v1/cabinet/reminders"+tt.query, "", user), nil)

			var resp remindersResponse
			helper.AssertJSONResponse(rr, http.StatusOK, &resp)
			if resp.Date != tt.date {
				t.Errorf("Expected date %s, got %s", tt.date, resp.Date)
			}
			var got []string
			for _, r := range resp.Reminders {
				got = append(got, r.Time+" "+r.Name)
			}
			if strings.Join(got, ",") != strings.Join(tt.reminders, ",") {
				t.Errorf("Expected %v, got %v", tt.reminders, got)
			}
		})
	}

	rr := helper.ExecuteRequest(h.CabinetReminders, helper.NewJSONRequest(http.MethodGet, "/v1/cabinet/reminders?date=15/06/2026", "", user), nil)
	helper.AssertValidationError(rr, "date")
}

func TestCabinetInteractions(t *testing.T) {
	user := uuid.New()
	repo := NewMockCabinetBuilder().WithMedicines(
		entities.Medicine{UserID: user, Name: "Warfarin"},
		entities.Medicine{UserID: user, Name: "Aspirin"},
	).Build()
	h := NewHandlerBuilder().WithCabinet(repo).Build()
	helper := NewHTTPTestHelper(t)

	rr := helper.ExecuteRequest(h.CabinetInteractions, helper.NewJSONRequest(http.MethodPost, "/v1/cabinet/interactions", "", user), nil)

	var resp interactionsResponse
	helper.AssertJSONResponse(rr, http.StatusOK, &resp)
	if len(resp.Results) != 1 || resp.Results[0].Interaction == nil || resp.Results[0].Interaction.Severity != entities.SeverityHigh {
		t.Errorf("Expected one high interaction, got %+v", resp.Results)
	}
	if resp.Results[0].Drug1 != "Aspirin" {
		t.Errorf("Expected cabinet order, got %q first", resp.Results[0].Drug1)
	}
}

func TestCabinetInteractionsNeedsTwoMedicines(t *testing.T) {
	user := uuid.New()
	repo := NewMockCabinetBuilder().WithMedicines(entities.Medicine{UserID: user, Name: "Aspirin"}).Build()
	h := NewHandlerBuilder().WithCabinet(repo).Build()
	helper := NewHTTPTestHelper(t)

	rr := helper.ExecuteRequest(h.CabinetInteractions, helper.NewJSONRequest(http.MethodPost, "/v1/cabinet/interactions", "", user), nil)
	helper.AssertValidationError(rr, "medicines")
}
