package patients

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Fields is a partial patient record. Only non-nil members are written; the
// Touch flags ask the store to stamp the matching server-side timestamp.
// Scoped writes are what make concurrent stage updates last-write-wins per
// field set rather than per document.
type Fields struct {
	Status        *Status
	NextStep      *NextStep
	Diagnosis     *string
	Medicine      *string
	Injection     *string
	BillingAmount *string
	TestResults   *string
	Medication    *string

	TouchUpdatedAt        bool
	TouchBillingTimestamp bool
	TouchDispensedAt      bool
}

// Repository defines the interface for patient storage
type Repository interface {
	Create(ctx context.Context, req *RegisterPatientRequest) (*Patient, error)
	GetByID(ctx context.Context, id string) (*Patient, error)
	List(ctx context.Context) ([]*Patient, error)
	ListByStatus(ctx context.Context, statuses ...Status) ([]*Patient, error)
	SetFields(ctx context.Context, id string, f Fields) (*Patient, error)
}

// InMemoryRepository is a map-backed Repository used in tests and local runs.
type InMemoryRepository struct {
	mu       sync.RWMutex
	patients map[string]*Patient
	order    []string
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		patients: make(map[string]*Patient),
	}
}

// Create registers a new patient at the head of the workflow.
func (r *InMemoryRepository) Create(ctx context.Context, req *RegisterPatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p := &Patient{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Date:      req.Date,
		Time:      req.Time,
		Status:    StatusWaitingForDoctor,
		CreatedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.patients[p.ID] = p
	r.order = append(r.order, p.ID)
	r.mu.Unlock()

	return p.Clone(), nil
}

// GetByID retrieves a patient by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return p.Clone(), nil
}

// List returns every patient in arrival order.
func (r *InMemoryRepository) List(ctx context.Context) ([]*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Patient, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.patients[id].Clone())
	}
	return out, nil
}

// ListByStatus returns patients whose status is in the given set, in
// arrival order.
func (r *InMemoryRepository) ListByStatus(ctx context.Context, statuses ...Status) ([]*Patient, error) {
	want := make(map[Status]struct{}, len(statuses))
	for _, s := range statuses {
		want[s] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Patient
	for _, id := range r.order {
		if _, ok := want[r.patients[id].Status]; ok {
			out = append(out, r.patients[id].Clone())
		}
	}
	return out, nil
}

// SetFields applies a scoped partial update and returns the updated record.
func (r *InMemoryRepository) SetFields(ctx context.Context, id string, f Fields) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}

	if f.Status != nil {
		p.Status = *f.Status
	}
	if f.NextStep != nil {
		p.NextStep = *f.NextStep
	}
	if f.Diagnosis != nil {
		p.Diagnosis = *f.Diagnosis
	}
	if f.Medicine != nil {
		p.Medicine = *f.Medicine
	}
	if f.Injection != nil {
		p.Injection = *f.Injection
	}
	if f.BillingAmount != nil {
		p.BillingAmount = *f.BillingAmount
	}
	if f.TestResults != nil {
		p.TestResults = *f.TestResults
	}
	if f.Medication != nil {
		p.Medication = *f.Medication
	}

	now := time.Now().UTC()
	if f.TouchUpdatedAt {
		p.UpdatedAt = &now
	}
	if f.TouchBillingTimestamp {
		p.BillingTimestamp = &now
	}
	if f.TouchDispensedAt {
		p.DispensedAt = &now
	}

	return p.Clone(), nil
}
