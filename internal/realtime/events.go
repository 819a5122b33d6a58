// Package realtime pushes workflow changes to subscribed browsers so every
// station's queue updates without polling. Clients subscribe to topics over
// a WebSocket; a Redis channel fans events out across server instances.
package realtime

import (
	"encoding/json"
	"time"
)

// Topics clients can subscribe to. Status-scoped patient topics are derived
// with PatientStatusTopic.
const (
	TopicPatients = "patients"
	TopicUsers    = "users"
)

// Event types.
const (
	EventPatientUpdated = "patient.updated"
	EventUserUpdated    = "user.updated"
)

// Event is a realtime notification delivered to subscribers.
type Event struct {
	Type      string          `json:"type"`
	Topic     string          `json:"topic"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// PatientStatusTopic returns the topic scoped to one workflow stage, so a
// station can watch only its own queue.
func PatientStatusTopic(status string) string {
	return TopicPatients + ":" + status
}

// ClientMessage is an inbound subscription change from a WebSocket client.
type ClientMessage struct {
	Action string   `json:"action"`
	Topics []string `json:"topics"`
}
