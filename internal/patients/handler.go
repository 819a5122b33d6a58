package patients

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clinicore/hospital-platform/pkg/logging"
)

// Handler handles HTTP requests for the patient workflow screens
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a new patients handler
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// ListResponse is the response for the screen list endpoints
type ListResponse struct {
	Patients []*Patient `json:"patients"`
	Count    int        `json:"count"`
}

// Create handles POST /receptionist/patients
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req RegisterPatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	p, err := h.svc.Register(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

// DoctorList handles GET /doctor/patients
func (h *Handler) DoctorList(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.svc.DoctorView)
}

// CashierList handles GET /cashier/patients
func (h *Handler) CashierList(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.svc.CashierView)
}

// LabList handles GET /lab/patients
func (h *Handler) LabList(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.svc.LabView)
}

// PharmacyList handles GET /pharmacy/patients
func (h *Handler) PharmacyList(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.svc.PharmacyView)
}

// AdminList handles GET /admin/patients
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.svc.AdminView)
}

// UpdateChart handles PATCH /doctor/patients/{id}
func (h *Handler) UpdateChart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var upd ChartUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	p, err := h.svc.UpdateChart(r.Context(), id, upd)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SendToCashier handles POST /doctor/patients/{id}/send-to-cashier
func (h *Handler) SendToCashier(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.SendToCashier(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// RecordBilling handles POST /cashier/patients/{id}/billing
func (h *Handler) RecordBilling(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req BillingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	p, err := h.svc.RecordBilling(r.Context(), id, req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CompleteTest handles POST /lab/patients/{id}/results
func (h *Handler) CompleteTest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		TestResults string `json:"testResults"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	p, err := h.svc.CompleteTest(r.Context(), id, req.TestResults)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Dispense handles POST /pharmacy/patients/{id}/dispense
func (h *Handler) Dispense(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Medication string `json:"medication"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	p, err := h.svc.Dispense(r.Context(), id, req.Medication)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) writeList(w http.ResponseWriter, r *http.Request, view func(context.Context) ([]*Patient, error)) {
	list, err := view(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if list == nil {
		list = []*Patient{}
	}
	writeJSON(w, http.StatusOK, ListResponse{Patients: list, Count: len(list)})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrPatientNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrWrongStage):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrMissingRegistrationFields),
		errors.Is(err, ErrChartIncomplete),
		errors.Is(err, ErrBillingIncomplete),
		errors.Is(err, ErrInvalidDestination),
		errors.Is(err, ErrTestResultsRequired),
		errors.Is(err, ErrMedicationRequired),
		errors.Is(err, ErrInvalidNextStep):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.logger.Error("patient store operation failed", "error", err)
		http.Error(w, "something went wrong, please try again", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
