package patients

import (
	"sort"
	"strings"
	"time"
)

// Status is the workflow stage of a patient visit. The set is closed: every
// screen's query and every transition precondition depends on exact matches.
type Status string

const (
	StatusWaitingForDoctor   Status = "waiting_for_doctor"
	StatusWaitingForCashier  Status = "waiting_for_cashier"
	StatusWaitingForLab      Status = "waiting_for_lab"
	StatusWaitingForPharmacy Status = "waiting_for_pharmacy"
	StatusCompleted          Status = "completed"
)

// Statuses lists every defined workflow status.
var Statuses = []Status{
	StatusWaitingForDoctor,
	StatusWaitingForCashier,
	StatusWaitingForLab,
	StatusWaitingForPharmacy,
	StatusCompleted,
}

// Valid reports whether s is one of the defined workflow statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusWaitingForDoctor, StatusWaitingForCashier, StatusWaitingForLab,
		StatusWaitingForPharmacy, StatusCompleted:
		return true
	}
	return false
}

// NextStep is the doctor's routing choice applied after cashier billing.
type NextStep string

const (
	NextStepPharmacy NextStep = "pharmacy"
	NextStepLab      NextStep = "lab"
)

// Valid reports whether n is a defined routing choice.
func (n NextStep) Valid() bool {
	return n == NextStepPharmacy || n == NextStepLab
}

// Patient is the single mutable record tracking one visit through the
// clinic workflow. JSON field names match the stored document fields.
type Patient struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Date             string     `json:"date"`
	Time             string     `json:"time"`
	Status           Status     `json:"status"`
	Diagnosis        string     `json:"diagnosis,omitempty"`
	Medicine         string     `json:"medicine,omitempty"`
	Injection        string     `json:"injection,omitempty"`
	NextStep         NextStep   `json:"nextStep,omitempty"`
	BillingAmount    string     `json:"billingAmount,omitempty"`
	TestResults      string     `json:"testResults,omitempty"`
	Medication       string     `json:"medication,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        *time.Time `json:"updatedAt,omitempty"`
	BillingTimestamp *time.Time `json:"billingTimestamp,omitempty"`
	DispensedAt      *time.Time `json:"dispensedAt,omitempty"`
}

// Clone returns a deep copy of the patient record.
func (p *Patient) Clone() *Patient {
	cp := *p
	cp.UpdatedAt = cloneTime(p.UpdatedAt)
	cp.BillingTimestamp = cloneTime(p.BillingTimestamp)
	cp.DispensedAt = cloneTime(p.DispensedAt)
	return &cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// RegisterPatientRequest is the receptionist's intake form.
type RegisterPatientRequest struct {
	Name string `json:"name"`
	Date string `json:"date"`
	Time string `json:"time"`
}

// Validate checks the intake form for required fields.
func (r *RegisterPatientRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.Date) == "" || strings.TrimSpace(r.Time) == "" {
		return ErrMissingRegistrationFields
	}
	return nil
}

// SortByPriority orders a snapshot so records in the priority status come
// first. Everything else is equal-rank; the sort is stable, so non-priority
// records keep their arrival order.
func SortByPriority(list []*Patient, priority Status) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Status == priority && list[j].Status != priority
	})
}

// SortForPharmacy orders the pharmacy snapshot: waiting_for_pharmacy records
// first, then completed records newest-dispensed on top.
func SortForPharmacy(list []*Patient) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Status == StatusWaitingForPharmacy && b.Status == StatusCompleted {
			return true
		}
		if a.Status == StatusCompleted && b.Status == StatusWaitingForPharmacy {
			return false
		}
		return dispensedUnix(a) > dispensedUnix(b)
	})
}

func dispensedUnix(p *Patient) int64 {
	if p.DispensedAt == nil {
		return 0
	}
	return p.DispensedAt.Unix()
}
