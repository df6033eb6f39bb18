package attendees

import (
	"context"
	"errors"
	"time"

	"github.com/event-horizon/backend/internal/models"
)

// Expected store outcomes. Handlers map these to HTTP statuses; anything
// else is a storage failure.
var (
	ErrNotFound         = errors.New("attendee not found")
	ErrAlreadyCheckedIn = errors.New("already checked in")
	ErrDuplicateID      = errors.New("duplicate attendee id")
)

// Store is the attendee collection. Implementations must make CheckIn
// atomic: of two concurrent calls for the same id, exactly one may observe
// Registered and win the transition.
type Store interface {
	// Insert stores a new attendee. Returns ErrDuplicateID when the id is taken.
	Insert(ctx context.Context, a *models.Attendee) error
	// Get returns the attendee by exact id, or ErrNotFound.
	Get(ctx context.Context, id string) (*models.Attendee, error)
	// List returns attendees in insertion order, optionally filtered by status
	// (empty status means all).
	List(ctx context.Context, status models.CheckInStatus) ([]models.Attendee, error)
	// CheckIn transitions the attendee to CheckedIn at the given time and
	// returns the updated record. Returns ErrNotFound for unknown ids, or
	// ErrAlreadyCheckedIn together with the existing unmodified record.
	CheckIn(ctx context.Context, id string, at time.Time) (*models.Attendee, error)
	// UpdatePersona upgrades the fallback persona of a still-registered
	// attendee. The eligibility guard travels with the write: a lost race
	// (checked in or already upgraded meanwhile) or a missing id is a
	// silent no-op, never an error.
	UpdatePersona(ctx context.Context, id, personaText string) error
}
