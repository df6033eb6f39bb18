package ticket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/event-horizon/backend/internal/models"
)

func testAttendee() *models.Attendee {
	return &models.Attendee{
		ID:         "A1B2C3D4E",
		FullName:   "Jane Doe",
		Email:      "jane@x.com",
		Role:       "Engineer",
		TicketType: "VIP",
		Status:     models.StatusRegistered,
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := NewCodec("Event Horizon 2024")

	payload, err := c.Encode(testAttendee())
	require.NoError(t, err)

	var p Payload
	require.NoError(t, json.Unmarshal([]byte(payload), &p))
	assert.Equal(t, "A1B2C3D4E", p.ID)
	assert.Equal(t, "Jane Doe", p.Name)
	assert.Equal(t, "VIP", p.TicketType)
	assert.Equal(t, "Event Horizon 2024", p.Event)

	assert.Equal(t, "A1B2C3D4E", c.Decode(payload))
}

func TestDecodeFallsBackToRawText(t *testing.T) {
	c := NewCodec("Event Horizon 2024")

	cases := []struct {
		name    string
		scanned string
		want    string
	}{
		{"plain id", "A1B2C3D4E", "A1B2C3D4E"},
		{"padded id", "  A1B2C3D4E \n", "A1B2C3D4E"},
		{"json without id", `{"name":"Jane"}`, `{"name":"Jane"}`},
		{"broken json", `{"id":"A1B2`, `{"id":"A1B2`},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.Decode(tc.scanned))
		})
	}
}

func TestShareTextMentionsTicket(t *testing.T) {
	c := NewCodec("Event Horizon 2024")
	text := c.ShareText(testAttendee())

	assert.Contains(t, text, "Jane Doe")
	assert.Contains(t, text, "VIP")
	assert.Contains(t, text, "A1B2C3D4E")
}
