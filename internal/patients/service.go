package patients

import (
	"context"
	"strings"

	"github.com/clinicore/hospital-platform/internal/observability/metrics"
	"github.com/clinicore/hospital-platform/pkg/logging"
)

// Notifier pushes an updated patient snapshot to realtime subscribers.
type Notifier interface {
	PatientChanged(ctx context.Context, p *Patient)
}

// TransitionRecorder appends workflow transitions to the audit trail.
type TransitionRecorder interface {
	RecordTransition(ctx context.Context, patientID string, from, to Status)
}

// Service applies the workflow state machine on top of a Repository. Every
// transition checks the record's current status against the declared
// from-state and validates the stage's required fields before any write.
type Service struct {
	repo    Repository
	notify  Notifier
	audit   TransitionRecorder
	metrics *metrics.WorkflowMetrics
	logger  *logging.Logger
}

// NewService creates the workflow service. notify, audit and metrics may be
// nil; the service degrades to plain store writes.
func NewService(repo Repository, notify Notifier, audit TransitionRecorder, m *metrics.WorkflowMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:    repo,
		notify:  notify,
		audit:   audit,
		metrics: m,
		logger:  logger,
	}
}

// Register creates a patient record and places it in the doctor's queue.
func (s *Service) Register(ctx context.Context, req *RegisterPatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		s.metrics.ObserveRejected("receptionist")
		return nil, err
	}

	p, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("patient registered", "patient_id", p.ID, "name", p.Name)
	s.metrics.ObserveTransition("", string(StatusWaitingForDoctor))
	s.recordTransition(ctx, p.ID, "", StatusWaitingForDoctor)
	s.patientChanged(ctx, p)
	return p, nil
}

// ChartUpdate is the doctor's inline field edit: each member is written as
// typed, independent of any transition.
type ChartUpdate struct {
	Diagnosis *string   `json:"diagnosis"`
	Medicine  *string   `json:"medicine"`
	Injection *string   `json:"injection"`
	NextStep  *NextStep `json:"nextStep"`
}

// UpdateChart applies the doctor's scoped field writes to a patient record.
func (s *Service) UpdateChart(ctx context.Context, id string, upd ChartUpdate) (*Patient, error) {
	if upd.NextStep != nil && !upd.NextStep.Valid() {
		return nil, ErrInvalidNextStep
	}

	p, err := s.repo.SetFields(ctx, id, Fields{
		Diagnosis: upd.Diagnosis,
		Medicine:  upd.Medicine,
		Injection: upd.Injection,
		NextStep:  upd.NextStep,
	})
	if err != nil {
		return nil, err
	}

	s.patientChanged(ctx, p)
	return p, nil
}

// SendToCashier advances a patient from the doctor's queue to the cashier.
// The chart must carry a diagnosis and at least one treatment; otherwise the
// submission is rejected and nothing is written.
func (s *Service) SendToCashier(ctx context.Context, id string) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusWaitingForDoctor {
		return nil, ErrWrongStage
	}
	if strings.TrimSpace(p.Diagnosis) == "" || (strings.TrimSpace(p.Medicine) == "" && strings.TrimSpace(p.Injection) == "") {
		s.metrics.ObserveRejected("doctor")
		return nil, ErrChartIncomplete
	}

	nextStep := p.NextStep
	if nextStep == "" {
		nextStep = NextStepPharmacy
	}
	status := StatusWaitingForCashier

	updated, err := s.repo.SetFields(ctx, id, Fields{
		Status:         &status,
		NextStep:       &nextStep,
		TouchUpdatedAt: true,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("patient sent to cashier", "patient_id", id)
	s.metrics.ObserveTransition(string(StatusWaitingForDoctor), string(status))
	s.recordTransition(ctx, id, StatusWaitingForDoctor, status)
	s.patientChanged(ctx, updated)
	return updated, nil
}

// BillingRequest is the cashier's form: an amount and a routing destination.
type BillingRequest struct {
	Amount      string `json:"amount"`
	Destination string `json:"destination"`
}

// RecordBilling posts the billing amount and routes the patient to the lab
// or the pharmacy.
func (s *Service) RecordBilling(ctx context.Context, id string, req BillingRequest) (*Patient, error) {
	if strings.TrimSpace(req.Amount) == "" || strings.TrimSpace(req.Destination) == "" {
		s.metrics.ObserveRejected("cashier")
		return nil, ErrBillingIncomplete
	}

	var status Status
	switch strings.ToLower(strings.TrimSpace(req.Destination)) {
	case "lab":
		status = StatusWaitingForLab
	case "pharmacy":
		status = StatusWaitingForPharmacy
	default:
		s.metrics.ObserveRejected("cashier")
		return nil, ErrInvalidDestination
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusWaitingForCashier {
		return nil, ErrWrongStage
	}

	amount := strings.TrimSpace(req.Amount)
	updated, err := s.repo.SetFields(ctx, id, Fields{
		Status:                &status,
		BillingAmount:         &amount,
		TouchBillingTimestamp: true,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("billing recorded", "patient_id", id, "destination", status)
	s.metrics.ObserveTransition(string(StatusWaitingForCashier), string(status))
	s.recordTransition(ctx, id, StatusWaitingForCashier, status)
	s.patientChanged(ctx, updated)
	return updated, nil
}

// CompleteTest records lab results and closes the visit. The lab stage
// completes the record directly even when the doctor routed via lab first;
// it does not forward to the pharmacy.
func (s *Service) CompleteTest(ctx context.Context, id string, results string) (*Patient, error) {
	if strings.TrimSpace(results) == "" {
		s.metrics.ObserveRejected("lab")
		return nil, ErrTestResultsRequired
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusWaitingForLab {
		return nil, ErrWrongStage
	}

	status := StatusCompleted
	updated, err := s.repo.SetFields(ctx, id, Fields{
		Status:      &status,
		TestResults: &results,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("lab test completed", "patient_id", id)
	s.metrics.ObserveTransition(string(StatusWaitingForLab), string(status))
	s.recordTransition(ctx, id, StatusWaitingForLab, status)
	s.patientChanged(ctx, updated)
	return updated, nil
}

// Dispense records the dispensed medication and closes the visit.
func (s *Service) Dispense(ctx context.Context, id string, medication string) (*Patient, error) {
	if strings.TrimSpace(medication) == "" {
		s.metrics.ObserveRejected("pharmacy")
		return nil, ErrMedicationRequired
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusWaitingForPharmacy {
		return nil, ErrWrongStage
	}

	status := StatusCompleted
	updated, err := s.repo.SetFields(ctx, id, Fields{
		Status:           &status,
		Medication:       &medication,
		TouchDispensedAt: true,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("medication dispensed", "patient_id", id)
	s.metrics.ObserveTransition(string(StatusWaitingForPharmacy), string(status))
	s.recordTransition(ctx, id, StatusWaitingForPharmacy, status)
	s.patientChanged(ctx, updated)
	return updated, nil
}

// DoctorView returns every patient with the doctor's queue on top.
func (s *Service) DoctorView(ctx context.Context) ([]*Patient, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	SortByPriority(list, StatusWaitingForDoctor)
	return list, nil
}

// CashierView returns every patient with the cashier's queue on top.
func (s *Service) CashierView(ctx context.Context) ([]*Patient, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	SortByPriority(list, StatusWaitingForCashier)
	return list, nil
}

// LabView returns only patients waiting for lab work.
func (s *Service) LabView(ctx context.Context) ([]*Patient, error) {
	return s.repo.ListByStatus(ctx, StatusWaitingForLab)
}

// PharmacyView returns patients waiting for dispensing plus completed
// visits, newest-dispensed first.
func (s *Service) PharmacyView(ctx context.Context) ([]*Patient, error) {
	list, err := s.repo.ListByStatus(ctx, StatusWaitingForPharmacy, StatusCompleted)
	if err != nil {
		return nil, err
	}
	SortForPharmacy(list)
	return list, nil
}

// AdminView returns every patient for the read-only history table.
func (s *Service) AdminView(ctx context.Context) ([]*Patient, error) {
	return s.repo.List(ctx)
}

func (s *Service) patientChanged(ctx context.Context, p *Patient) {
	if s.notify == nil {
		return
	}
	s.notify.PatientChanged(ctx, p)
}

func (s *Service) recordTransition(ctx context.Context, id string, from, to Status) {
	if s.audit == nil {
		return
	}
	s.audit.RecordTransition(ctx, id, from, to)
}
