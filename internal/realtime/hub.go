// Package realtime pushes gate activity to connected staff dashboards over
// WebSocket, with a Redis pub/sub bridge so horizontally scaled gates see
// each other's scans.
package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/event-horizon/backend/internal/models"
)

// EventCheckIn is the event name for a successful gate check-in.
const EventCheckIn = "checkin"

// GatePublisher publishes gate events for other instances.
type GatePublisher interface {
	PublishGateEvent(event string, payload []byte) error
}

// GateSubscriber subscribes to gate events and invokes handler for each.
type GateSubscriber interface {
	SubscribeGate(handler func(event string, payload []byte)) (cancel func(), err error)
}

// Hub maintains the set of connected staff clients and broadcasts gate
// events. With Redis configured, events travel publish-then-fan-out so each
// local client receives a single delivery regardless of which instance
// processed the scan.
type Hub struct {
	clients   map[string]*Client
	mu        sync.RWMutex
	logger    *zap.Logger
	pub       GatePublisher
	sub       GateSubscriber
	cancelSub func()
}

// NewHub creates a gate feed hub. pub and sub may be nil for single-instance
// deployments; broadcasts then stay local.
func NewHub(logger *zap.Logger, pub GatePublisher, sub GateSubscriber) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
		pub:     pub,
		sub:     sub,
	}
}

// Register adds a staff client. The Redis subscription starts with the
// first client and stops with the last.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if len(h.clients) == 0 && h.sub != nil {
		cancel, err := h.sub.SubscribeGate(func(event string, payload []byte) {
			h.broadcast(event, json.RawMessage(payload))
		})
		if err != nil {
			h.logger.Warn("gate feed subscribe failed", zap.Error(err))
		} else {
			h.cancelSub = cancel
		}
	}
	h.clients[c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("staff client joined gate feed", zap.String("client_id", c.ID))
}

// Unregister removes a staff client.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.ID)
	if len(h.clients) == 0 && h.cancelSub != nil {
		h.cancelSub()
		h.cancelSub = nil
	}
	h.mu.Unlock()
	h.logger.Debug("staff client left gate feed", zap.String("client_id", c.ID))
}

// BroadcastCheckIn pushes a successful check-in to every connected
// dashboard. When Redis is configured the event is published only; the
// subscription callback performs the single local broadcast for all
// instances including this one.
func (h *Hub) BroadcastCheckIn(a models.Attendee) {
	data, err := json.Marshal(a)
	if err != nil {
		return
	}
	if h.pub != nil {
		if err := h.pub.PublishGateEvent(EventCheckIn, data); err == nil {
			return
		}
		h.logger.Warn("gate feed publish failed, falling back to local broadcast")
	}
	h.broadcast(EventCheckIn, json.RawMessage(data))
}

// ClientCount returns the number of connected staff dashboards.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcast(event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		data, _ = json.Marshal(payload)
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}
