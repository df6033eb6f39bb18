package attendees

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/event-horizon/backend/internal/models"
	"github.com/event-horizon/backend/internal/persona"
)

func seed(t *testing.T, s Store, personaText string, status models.CheckInStatus) *models.Attendee {
	t.Helper()
	a := &models.Attendee{
		ID:         "A1B2C3D4E",
		FullName:   "Jane Doe",
		Email:      "jane@x.com",
		Role:       "Engineer",
		TicketType: "General",
		Status:     status,
		AIPersona:  personaText,
	}
	if status == models.StatusCheckedIn {
		now := time.Now().UTC()
		a.CheckInTime = &now
	}
	require.NoError(t, s.Insert(context.Background(), a))
	return a
}

func TestUpdatePersonaUpgradesFallback(t *testing.T) {
	s := NewMemoryStore()
	seed(t, s, persona.FallbackPersona, models.StatusRegistered)

	require.NoError(t, s.UpdatePersona(context.Background(), "A1B2C3D4E", "Neural Pathfinder"))

	a, err := s.Get(context.Background(), "A1B2C3D4E")
	require.NoError(t, err)
	assert.Equal(t, "Neural Pathfinder", a.AIPersona)
}

func TestUpdatePersonaRefusesAfterCheckIn(t *testing.T) {
	s := NewMemoryStore()
	seed(t, s, persona.FallbackPersona, models.StatusCheckedIn)

	require.NoError(t, s.UpdatePersona(context.Background(), "A1B2C3D4E", "Neural Pathfinder"))

	a, err := s.Get(context.Background(), "A1B2C3D4E")
	require.NoError(t, err)
	assert.Equal(t, persona.FallbackPersona, a.AIPersona, "the badge is final once through the gate")
}

func TestUpdatePersonaRefusesRealPersona(t *testing.T) {
	s := NewMemoryStore()
	seed(t, s, "Code Ninja", models.StatusRegistered)

	require.NoError(t, s.UpdatePersona(context.Background(), "A1B2C3D4E", "Neural Pathfinder"))

	a, err := s.Get(context.Background(), "A1B2C3D4E")
	require.NoError(t, err)
	assert.Equal(t, "Code Ninja", a.AIPersona)
}

func TestUpdatePersonaMissingAttendeeIsNoop(t *testing.T) {
	s := NewMemoryStore()
	assert.NoError(t, s.UpdatePersona(context.Background(), "GONE00000", "Neural Pathfinder"))
}
