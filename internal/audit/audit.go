// Package audit keeps an append-only trail of workflow and authentication
// events for later review.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/hospital-platform/internal/patients"
	"github.com/clinicore/hospital-platform/internal/session"
	"github.com/clinicore/hospital-platform/pkg/logging"
)

// EventType classifies an audit record.
type EventType string

const (
	// EventPatientTransition is logged on every workflow status change.
	EventPatientTransition EventType = "workflow.patient_transition"
	// EventLogin is logged on a successful login.
	EventLogin EventType = "auth.login"
	// EventLogout is logged when a session ends.
	EventLogout EventType = "auth.logout"
	// EventForcedLogout is logged when an admin clears another account's session.
	EventForcedLogout EventType = "auth.forced_logout"
	// EventUserRegistered is logged when a staff account is created.
	EventUserRegistered EventType = "auth.user_registered"
)

// Event is an immutable audit record.
type Event struct {
	ID        string          `json:"id"`
	EventType EventType       `json:"event_type"`
	ActorID   string          `json:"actor_id,omitempty"`
	SubjectID string          `json:"subject_id,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// TransitionDetails describes a workflow status change.
type TransitionDetails struct {
	From string `json:"from,omitempty"`
	To   string `json:"to"`
}

// Filter narrows a trail query.
type Filter struct {
	SubjectID string
	EventType EventType
	StartTime time.Time
	EndTime   time.Time
	Limit     int
}

// Service writes and queries the audit trail.
type Service struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewService creates a new audit service.
func NewService(db *sql.DB, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{db: db, logger: logger}
}

// LogEvent records an audit event.
func (s *Service) LogEvent(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO audit_events (id, event_type, actor_id, subject_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		nullString(event.ActorID),
		nullString(event.SubjectID),
		event.Details,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: failed to log event: %w", err)
	}
	return nil
}

// RecordTransition implements the workflow's transition recorder. The actor
// is taken from the request session when one is attached. Audit failures are
// logged, never surfaced, so the trail cannot block patient care.
func (s *Service) RecordTransition(ctx context.Context, patientID string, from, to patients.Status) {
	details, _ := json.Marshal(TransitionDetails{From: string(from), To: string(to)})

	event := Event{
		EventType: EventPatientTransition,
		SubjectID: patientID,
		Details:   details,
	}
	if sess, ok := session.FromContext(ctx); ok {
		event.ActorID = sess.UserID
	}

	if err := s.LogEvent(ctx, event); err != nil {
		s.logger.Error("transition audit failed", "patient_id", patientID, "error", err)
	}
}

// LogAuth records an authentication event for the given account. The event
// name is one of the auth.* EventType values.
func (s *Service) LogAuth(ctx context.Context, event, actorID, subjectID string) {
	err := s.LogEvent(ctx, Event{
		EventType: EventType(event),
		ActorID:   actorID,
		SubjectID: subjectID,
	})
	if err != nil {
		s.logger.Error("auth audit failed", "event_type", event, "error", err)
	}
}

// QueryEvents retrieves audit events matching the filter, newest first.
func (s *Service) QueryEvents(ctx context.Context, filter Filter) ([]Event, error) {
	query := `
		SELECT id, event_type, actor_id, subject_id, details, created_at
		FROM audit_events
		WHERE 1 = 1
	`
	var args []any
	argIdx := 1

	if filter.SubjectID != "" {
		query += fmt.Sprintf(" AND subject_id = $%d", argIdx)
		args = append(args, filter.SubjectID)
		argIdx++
	}
	if filter.EventType != "" {
		query += fmt.Sprintf(" AND event_type = $%d", argIdx)
		args = append(args, filter.EventType)
		argIdx++
	}
	if !filter.StartTime.IsZero() {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, filter.StartTime)
		argIdx++
	}
	if !filter.EndTime.IsZero() {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, filter.EndTime)
		argIdx++
	}

	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var actorID, subjectID sql.NullString
		if err := rows.Scan(&e.ID, &e.EventType, &actorID, &subjectID, &e.Details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan event: %w", err)
		}
		e.ActorID = actorID.String
		e.SubjectID = subjectID.String
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: iterate events: %w", err)
	}
	return events, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
