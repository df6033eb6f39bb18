// Package ticket turns attendee identity into a scannable payload and back.
package ticket

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/event-horizon/backend/internal/models"
)

// Payload is the structured content embedded in a ticket QR code.
type Payload struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TicketType string `json:"ticketType"`
	Event      string `json:"event"`
}

// Codec encodes attendees into scannable payloads and extracts attendee ids
// from scanned text.
type Codec struct {
	eventTag string
}

// NewCodec creates a codec stamping payloads with the given event tag.
func NewCodec(eventTag string) *Codec {
	return &Codec{eventTag: eventTag}
}

// Encode returns the JSON payload for an attendee's ticket.
func (c *Codec) Encode(a *models.Attendee) (string, error) {
	raw, err := json.Marshal(Payload{
		ID:         a.ID,
		Name:       a.FullName,
		TicketType: a.TicketType,
		Event:      c.eventTag,
	})
	if err != nil {
		return "", fmt.Errorf("encode ticket: %w", err)
	}
	return string(raw), nil
}

// Decode extracts the attendee id from scanned text. Structured payloads
// are parsed and their id field taken; anything else (a hand-typed id, a
// plain-text QR) is treated as the id itself. Scanners hand over whatever
// they read, so this must never fail.
func (c *Codec) Decode(scanned string) string {
	trimmed := strings.TrimSpace(scanned)
	var p Payload
	if err := json.Unmarshal([]byte(trimmed), &p); err == nil && p.ID != "" {
		return p.ID
	}
	return trimmed
}

// ShareText builds the message attached to a ticket share (the original app
// sent this to WhatsApp).
func (c *Codec) ShareText(a *models.Attendee) string {
	return fmt.Sprintf(
		"🚀 Event Horizon Ticket\n\n👤 Name: %s\n🎫 Type: %s\n🆔 Ref: %s\n\nPresent this message or your QR code at the gate!",
		a.FullName, a.TicketType, a.ID,
	)
}
