package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/hospital-platform/internal/patients"
	"github.com/clinicore/hospital-platform/pkg/logging"
)

func TestBridgeFansOutThroughRedis(t *testing.T) {
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	hub := NewHub(nil, logging.New("error"))
	client := &Client{ID: "c", Topics: []string{TopicPatients}, Send: make(chan []byte, 8)}
	hub.Register(client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bridge := NewBridge(rdb, "hospital.events", hub, logging.New("error"))
	go func() { _ = bridge.Run(ctx) }()

	pub := NewPublisher(nil, rdb, "hospital.events", nil, logging.New("error"))

	// The subscription races the publish; retry until delivered.
	p := &patients.Patient{ID: "p-1", Name: "Jane Doe", Status: patients.StatusWaitingForDoctor}
	deadline := time.After(2 * time.Second)
	for {
		pub.PatientChanged(ctx, p)
		select {
		case raw := <-client.Send:
			var event Event
			require.NoError(t, json.Unmarshal(raw, &event))
			assert.Equal(t, EventPatientUpdated, event.Type)
			assert.Equal(t, TopicPatients, event.Topic)

			var got patients.Patient
			require.NoError(t, json.Unmarshal(event.Data, &got))
			assert.Equal(t, "p-1", got.ID)
			return
		case <-deadline:
			t.Fatal("event never reached the subscriber")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestPublisherLocalDeliveryWithoutRedis(t *testing.T) {
	hub := NewHub(nil, logging.New("error"))
	client := &Client{ID: "c", Topics: []string{PatientStatusTopic("waiting_for_lab")}, Send: make(chan []byte, 8)}
	hub.Register(client)

	pub := NewPublisher(hub, nil, "", nil, logging.New("error"))
	pub.PatientChanged(context.Background(), &patients.Patient{
		ID: "p-1", Status: patients.StatusWaitingForLab,
	})

	select {
	case raw := <-client.Send:
		var event Event
		require.NoError(t, json.Unmarshal(raw, &event))
		assert.Equal(t, PatientStatusTopic("waiting_for_lab"), event.Topic)
	default:
		t.Fatal("status-scoped subscriber did not receive the event")
	}
}
