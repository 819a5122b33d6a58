package patients

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/clinicore/hospital-platform/pkg/logging"
)

func newTestHandler(t *testing.T) (*Handler, *Service) {
	t.Helper()
	svc := NewService(NewInMemoryRepository(), nil, nil, nil, logging.New("error"))
	return NewHandler(svc, logging.New("error")), svc
}

func testRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/receptionist/patients", h.Create)
	r.Get("/doctor/patients", h.DoctorList)
	r.Patch("/doctor/patients/{id}", h.UpdateChart)
	r.Post("/doctor/patients/{id}/send-to-cashier", h.SendToCashier)
	r.Post("/cashier/patients/{id}/billing", h.RecordBilling)
	r.Post("/lab/patients/{id}/results", h.CompleteTest)
	r.Post("/pharmacy/patients/{id}/dispense", h.Dispense)
	return r
}

func TestCreatePatient_Success(t *testing.T) {
	h, _ := newTestHandler(t)
	r := testRouter(h)

	body, _ := json.Marshal(RegisterPatientRequest{Name: "Jane Doe", Date: "2025-04-02", Time: "10:30"})
	req := httptest.NewRequest(http.MethodPost, "/receptionist/patients", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}

	var p Patient
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if p.Status != StatusWaitingForDoctor {
		t.Errorf("expected status %s, got %s", StatusWaitingForDoctor, p.Status)
	}
	if p.ID == "" {
		t.Error("expected generated id")
	}
}

func TestCreatePatient_MissingFields(t *testing.T) {
	h, _ := newTestHandler(t)
	r := testRouter(h)

	body, _ := json.Marshal(RegisterPatientRequest{Name: "Jane Doe"})
	req := httptest.NewRequest(http.MethodPost, "/receptionist/patients", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, w.Code)
	}
}

func TestSendToCashier_IncompleteChart(t *testing.T) {
	h, svc := newTestHandler(t)
	r := testRouter(h)

	p, err := svc.Register(context.Background(), &RegisterPatientRequest{Name: "Jane Doe", Date: "2025-04-02", Time: "10:30"})
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/doctor/patients/"+p.ID+"/send-to-cashier", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, w.Code)
	}
}

func TestBilling_WrongStage(t *testing.T) {
	h, svc := newTestHandler(t)
	r := testRouter(h)

	p, err := svc.Register(context.Background(), &RegisterPatientRequest{Name: "Jane Doe", Date: "2025-04-02", Time: "10:30"})
	if err != nil {
		t.Fatal(err)
	}

	body, _ := json.Marshal(BillingRequest{Amount: "500", Destination: "Lab"})
	req := httptest.NewRequest(http.MethodPost, "/cashier/patients/"+p.ID+"/billing", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, w.Code)
	}
}

func TestDispense_UnknownPatient(t *testing.T) {
	h, _ := newTestHandler(t)
	r := testRouter(h)

	body := bytes.NewReader([]byte(`{"medication":"Amoxicillin"}`))
	req := httptest.NewRequest(http.MethodPost, "/pharmacy/patients/does-not-exist/dispense", body)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestDoctorList_ReturnsSortedSnapshot(t *testing.T) {
	h, svc := newTestHandler(t)
	r := testRouter(h)

	for _, name := range []string{"A", "B"} {
		if _, err := svc.Register(context.Background(), &RegisterPatientRequest{Name: name, Date: "2025-04-02", Time: "09:00"}); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/doctor/patients", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp ListResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 2 {
		t.Fatalf("expected 2 patients, got %d", resp.Count)
	}
}
