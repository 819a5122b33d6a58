package patients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const patientColumns = `id, name, visit_date, visit_time, status, diagnosis, medicine,
	injection, next_step, billing_amount, test_results, medication,
	created_at, updated_at, billing_timestamp, dispensed_at`

// PGQuerier is the subset of pgxpool.Pool the repository needs; it allows
// injecting pgxmock in tests.
type PGQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores patient records in the relational database.
type PostgresRepository struct {
	db PGQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("patients: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithQuerier allows injecting mocks for tests.
func NewPostgresRepositoryWithQuerier(db PGQuerier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new patient row at the head of the workflow.
func (r *PostgresRepository) Create(ctx context.Context, req *RegisterPatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	query := fmt.Sprintf(`
		INSERT INTO patients (id, name, visit_date, visit_time, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING %s
	`, patientColumns)

	row := r.db.QueryRow(ctx, query, id, req.Name, req.Date, req.Time, StatusWaitingForDoctor)
	p, err := scanPatient(row)
	if err != nil {
		return nil, fmt.Errorf("patients: insert failed: %w", err)
	}
	return p, nil
}

// GetByID fetches a patient by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Patient, error) {
	query := fmt.Sprintf(`SELECT %s FROM patients WHERE id = $1`, patientColumns)
	p, err := scanPatient(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("patients: load by id: %w", err)
	}
	return p, nil
}

// List returns every patient in arrival order.
func (r *PostgresRepository) List(ctx context.Context) ([]*Patient, error) {
	query := fmt.Sprintf(`SELECT %s FROM patients ORDER BY created_at, id`, patientColumns)
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("patients: list: %w", err)
	}
	defer rows.Close()
	return collectPatients(rows)
}

// ListByStatus returns patients whose status is in the given set, in
// arrival order.
func (r *PostgresRepository) ListByStatus(ctx context.Context, statuses ...Status) ([]*Patient, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	set := make([]string, len(statuses))
	for i, s := range statuses {
		set[i] = string(s)
	}
	query := fmt.Sprintf(`SELECT %s FROM patients WHERE status = ANY($1) ORDER BY created_at, id`, patientColumns)
	rows, err := r.db.Query(ctx, query, set)
	if err != nil {
		return nil, fmt.Errorf("patients: list by status: %w", err)
	}
	defer rows.Close()
	return collectPatients(rows)
}

// SetFields applies a scoped partial update and returns the updated row.
// Only the provided fields appear in the UPDATE, so concurrent stage writes
// interleave per field set rather than clobbering whole documents.
func (r *PostgresRepository) SetFields(ctx context.Context, id string, f Fields) (*Patient, error) {
	var sets []string
	var args []any

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if f.Status != nil {
		add("status", string(*f.Status))
	}
	if f.NextStep != nil {
		add("next_step", string(*f.NextStep))
	}
	if f.Diagnosis != nil {
		add("diagnosis", *f.Diagnosis)
	}
	if f.Medicine != nil {
		add("medicine", *f.Medicine)
	}
	if f.Injection != nil {
		add("injection", *f.Injection)
	}
	if f.BillingAmount != nil {
		add("billing_amount", *f.BillingAmount)
	}
	if f.TestResults != nil {
		add("test_results", *f.TestResults)
	}
	if f.Medication != nil {
		add("medication", *f.Medication)
	}
	if f.TouchUpdatedAt {
		sets = append(sets, "updated_at = now()")
	}
	if f.TouchBillingTimestamp {
		sets = append(sets, "billing_timestamp = now()")
	}
	if f.TouchDispensedAt {
		sets = append(sets, "dispensed_at = now()")
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE patients SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), patientColumns)

	p, err := scanPatient(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("patients: set fields: %w", err)
	}
	return p, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Date,
		&p.Time,
		&p.Status,
		&p.Diagnosis,
		&p.Medicine,
		&p.Injection,
		&p.NextStep,
		&p.BillingAmount,
		&p.TestResults,
		&p.Medication,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.BillingTimestamp,
		&p.DispensedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectPatients(rows pgx.Rows) ([]*Patient, error) {
	var out []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("patients: scan row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("patients: iterate rows: %w", err)
	}
	return out, nil
}
