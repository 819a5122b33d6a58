package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/clinicore/hospital-platform/internal/directory"
	"github.com/clinicore/hospital-platform/internal/observability/metrics"
	"github.com/clinicore/hospital-platform/internal/patients"
	"github.com/clinicore/hospital-platform/pkg/logging"
)

// Publisher turns domain changes into events. With a Redis client it
// publishes to the shared channel so every instance's hub rebroadcasts;
// without one it feeds the local hub directly, which is enough for a
// single-instance deployment and for tests.
type Publisher struct {
	hub     *Hub
	rdb     *redis.Client
	channel string
	metrics *metrics.WorkflowMetrics
	logger  *logging.Logger
	tracer  trace.Tracer
}

// NewPublisher creates a publisher. rdb may be nil for local-only delivery.
func NewPublisher(hub *Hub, rdb *redis.Client, channel string, m *metrics.WorkflowMetrics, logger *logging.Logger) *Publisher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{
		hub:     hub,
		rdb:     rdb,
		channel: channel,
		metrics: m,
		logger:  logger,
		tracer:  otel.Tracer("realtime"),
	}
}

// PatientChanged implements the patient workflow's notifier. The change is
// delivered on the broad patients topic and on the status-scoped topic.
func (p *Publisher) PatientChanged(ctx context.Context, patient *patients.Patient) {
	data, err := json.Marshal(patient)
	if err != nil {
		p.logger.Error("patient event marshal failed", "patient_id", patient.ID, "error", err)
		return
	}
	p.emit(ctx, EventPatientUpdated, TopicPatients, data)
	p.emit(ctx, EventPatientUpdated, PatientStatusTopic(string(patient.Status)), data)
}

// UserChanged implements the directory's notifier.
func (p *Publisher) UserChanged(ctx context.Context, user *directory.User) {
	data, err := json.Marshal(user)
	if err != nil {
		p.logger.Error("user event marshal failed", "user_id", user.ID, "error", err)
		return
	}
	p.emit(ctx, EventUserUpdated, TopicUsers, data)
}

func (p *Publisher) emit(ctx context.Context, eventType, topic string, data json.RawMessage) {
	ctx, span := p.tracer.Start(ctx, "realtime.publish",
		trace.WithAttributes(
			attribute.String("event.type", eventType),
			attribute.String("event.topic", topic),
		))
	defer span.End()

	event := Event{
		Type:      eventType,
		Topic:     topic,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	p.metrics.ObserveEventPublished(topic)

	if p.rdb == nil {
		if p.hub != nil {
			p.hub.Broadcast(event)
		}
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("event marshal failed", "type", eventType, "error", err)
		return
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		span.RecordError(err)
		p.logger.Error("event publish failed", "channel", p.channel, "error", err)
	}
}
