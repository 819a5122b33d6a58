package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/hospital-platform/pkg/logging"
)

func newTestClient(topics ...string) *Client {
	return &Client{ID: "c-" + topics[0], Topics: topics, Send: make(chan []byte, 8)}
}

func TestHubBroadcastReachesSubscribers(t *testing.T) {
	hub := NewHub(nil, logging.New("error"))

	doctor := newTestClient(TopicPatients)
	roster := newTestClient(TopicUsers)
	hub.Register(doctor)
	hub.Register(roster)

	hub.Broadcast(Event{Type: EventPatientUpdated, Topic: TopicPatients, Timestamp: time.Now()})

	select {
	case raw := <-doctor.Send:
		var event Event
		require.NoError(t, json.Unmarshal(raw, &event))
		assert.Equal(t, EventPatientUpdated, event.Type)
	default:
		t.Fatal("subscriber did not receive the event")
	}

	select {
	case <-roster.Send:
		t.Fatal("event leaked to a different topic")
	default:
	}
}

func TestHubSubscriptionChanges(t *testing.T) {
	hub := NewHub(nil, logging.New("error"))

	c := &Client{ID: "c", Topics: []string{}, Send: make(chan []byte, 8)}
	hub.Register(c)
	assert.Equal(t, 0, hub.TopicCount(TopicPatients))

	hub.ProcessMessage(c, ClientMessage{Action: "subscribe", Topics: []string{TopicPatients, TopicUsers}})
	assert.Equal(t, 1, hub.TopicCount(TopicPatients))
	assert.Equal(t, 1, hub.TopicCount(TopicUsers))

	hub.ProcessMessage(c, ClientMessage{Action: "unsubscribe", Topics: []string{TopicPatients}})
	assert.Equal(t, 0, hub.TopicCount(TopicPatients))
	assert.Equal(t, 1, hub.TopicCount(TopicUsers))
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := NewHub(nil, logging.New("error"))

	c := newTestClient(TopicPatients)
	hub.Register(c)
	require.Equal(t, 1, hub.ClientCount())

	hub.Unregister(c)
	assert.Equal(t, 0, hub.ClientCount())
	assert.Equal(t, 0, hub.TopicCount(TopicPatients))

	_, open := <-c.Send
	assert.False(t, open, "send channel must be closed on unregister")

	// Double unregister is a no-op.
	hub.Unregister(c)
}

func TestHubSkipsSlowClients(t *testing.T) {
	hub := NewHub(nil, logging.New("error"))

	slow := &Client{ID: "slow", Topics: []string{TopicPatients}, Send: make(chan []byte)}
	hub.Register(slow)

	done := make(chan struct{})
	go func() {
		hub.Broadcast(Event{Type: EventPatientUpdated, Topic: TopicPatients})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a full client buffer")
	}
}
