package realtime

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/event-horizon/backend/internal/models"
)

// fakeBridge echoes published events straight back to the subscriber, the
// way the Redis channel does for the publishing instance.
type fakeBridge struct {
	handler   func(event string, payload []byte)
	published int
	pubErr    error
}

func (f *fakeBridge) PublishGateEvent(event string, payload []byte) error {
	if f.pubErr != nil {
		return f.pubErr
	}
	f.published++
	if f.handler != nil {
		f.handler(event, payload)
	}
	return nil
}

func (f *fakeBridge) SubscribeGate(h func(event string, payload []byte)) (func(), error) {
	f.handler = h
	return func() { f.handler = nil }, nil
}

func newFeedClient(id string) *Client {
	return &Client{ID: id, send: make(chan WSMessage, 8)}
}

func receivedCheckIn(t *testing.T, c *Client) models.Attendee {
	t.Helper()
	require.Len(t, c.send, 1, "each dashboard gets exactly one delivery per scan")
	msg := <-c.send
	assert.Equal(t, EventCheckIn, msg.Event)

	var a models.Attendee
	require.NoError(t, json.Unmarshal(msg.Data, &a))
	return a
}

func TestBroadcastCheckInSingleDeliveryThroughBridge(t *testing.T) {
	bridge := &fakeBridge{}
	hub := NewHub(zap.NewNop(), bridge, bridge)

	door := newFeedClient("door")
	desk := newFeedClient("desk")
	hub.Register(door)
	hub.Register(desk)

	hub.BroadcastCheckIn(models.Attendee{ID: "A1B2C3D4E", FullName: "Jane Doe", Status: models.StatusCheckedIn})

	assert.Equal(t, 1, bridge.published, "one scan publishes once")
	for _, c := range []*Client{door, desk} {
		a := receivedCheckIn(t, c)
		assert.Equal(t, "A1B2C3D4E", a.ID)
		assert.Equal(t, "Jane Doe", a.FullName)
	}
}

func TestBroadcastCheckInLocalWithoutBridge(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	door := newFeedClient("door")
	hub.Register(door)

	hub.BroadcastCheckIn(models.Attendee{ID: "A1B2C3D4E", FullName: "Jane Doe"})

	a := receivedCheckIn(t, door)
	assert.Equal(t, "A1B2C3D4E", a.ID)
}

func TestBroadcastCheckInFallsBackWhenPublishFails(t *testing.T) {
	bridge := &fakeBridge{pubErr: errors.New("redis down")}
	hub := NewHub(zap.NewNop(), bridge, bridge)
	door := newFeedClient("door")
	hub.Register(door)

	hub.BroadcastCheckIn(models.Attendee{ID: "A1B2C3D4E", FullName: "Jane Doe"})

	a := receivedCheckIn(t, door)
	assert.Equal(t, "A1B2C3D4E", a.ID, "a dead bridge must not silence the local feed")
}

func TestSubscriptionFollowsFirstAndLastClient(t *testing.T) {
	bridge := &fakeBridge{}
	hub := NewHub(zap.NewNop(), bridge, bridge)

	assert.Nil(t, bridge.handler, "no subscription before the first client")

	door := newFeedClient("door")
	desk := newFeedClient("desk")
	hub.Register(door)
	assert.NotNil(t, bridge.handler, "subscription starts with the first client")
	hub.Register(desk)
	assert.Equal(t, 2, hub.ClientCount())

	hub.Unregister(door)
	assert.NotNil(t, bridge.handler, "subscription survives while clients remain")
	hub.Unregister(desk)
	assert.Nil(t, bridge.handler, "subscription stops with the last client")
}

func TestBroadcastSkipsSaturatedClient(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	slow := &Client{ID: "slow", send: make(chan WSMessage)}
	live := newFeedClient("live")
	hub.Register(slow)
	hub.Register(live)

	hub.BroadcastCheckIn(models.Attendee{ID: "A1B2C3D4E", FullName: "Jane Doe"})

	a := receivedCheckIn(t, live)
	assert.Equal(t, "A1B2C3D4E", a.ID, "a stalled dashboard must not block the rest")
}
