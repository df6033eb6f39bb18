// Package attendees owns the attendee collection: registration, the
// one-shot check-in transition, and read projections. All entry paths
// (manual id entry, camera scan, REST) converge on Registry.CheckIn so the
// at-most-one-check-in invariant is enforced in exactly one place.
package attendees

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/event-horizon/backend/internal/models"
	"github.com/event-horizon/backend/internal/persona"
)

// ErrInvalidInput marks a registration that fails boundary validation.
var ErrInvalidInput = errors.New("invalid input")

const (
	idLength   = 9
	idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	insertAttempts = 3
)

// RegisterInput is the attendee-supplied part of a registration. Identity
// and state are always assigned server-side.
type RegisterInput struct {
	FullName   string
	Email      string
	Role       string
	TicketType string
}

// CheckInResult is the outcome of a check-in attempt. Not-found and
// already-checked-in are expected business outcomes, not errors; Attendee
// carries the existing record on conflict and the updated record on success.
type CheckInResult struct {
	OK       bool
	Message  string
	Attendee *models.Attendee
}

// Registry is the single source of truth for attendees and the only place
// allowed to mutate status and check-in time.
type Registry struct {
	store       Store
	personas    persona.Generator
	ticketTypes map[string]struct{}
	logger      *zap.Logger

	onCheckIn  func(models.Attendee)
	onDegraded func(attendeeID string)
}

// NewRegistry creates a registry over the given store. ticketTypes is the
// closed enumeration accepted at registration.
func NewRegistry(store Store, personas persona.Generator, ticketTypes []string, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	types := make(map[string]struct{}, len(ticketTypes))
	for _, t := range ticketTypes {
		types[t] = struct{}{}
	}
	return &Registry{
		store:       store,
		personas:    personas,
		ticketTypes: types,
		logger:      logger,
	}
}

// SetCheckInListener registers a callback fired after every successful
// check-in (the live gate feed). Must be set before serving traffic.
func (r *Registry) SetCheckInListener(fn func(models.Attendee)) {
	r.onCheckIn = fn
}

// SetDegradedListener registers a callback fired when a registration had to
// fall back on persona generation (queues a backfill job). Must be set
// before serving traffic.
func (r *Registry) SetDegradedListener(fn func(attendeeID string)) {
	r.onDegraded = fn
}

// Register validates input, assigns a fresh id, enriches with a persona
// (best-effort; a generation failure never fails registration) and stores
// the attendee as Registered. Duplicate names and emails are permitted.
func (r *Registry) Register(ctx context.Context, in RegisterInput) (*models.Attendee, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	in.Role = strings.TrimSpace(in.Role)
	in.TicketType = strings.TrimSpace(in.TicketType)

	switch {
	case in.FullName == "":
		return nil, fmt.Errorf("%w: fullName is required", ErrInvalidInput)
	case in.Email == "":
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	case in.Role == "":
		return nil, fmt.Errorf("%w: role is required", ErrInvalidInput)
	case in.TicketType == "":
		return nil, fmt.Errorf("%w: ticketType is required", ErrInvalidInput)
	}
	if _, ok := r.ticketTypes[in.TicketType]; !ok {
		return nil, fmt.Errorf("%w: unknown ticket type %q", ErrInvalidInput, in.TicketType)
	}

	personaText := r.personas.GeneratePersona(ctx, in.FullName, in.Role, in.TicketType)

	a := &models.Attendee{
		FullName:   in.FullName,
		Email:      in.Email,
		Role:       in.Role,
		TicketType: in.TicketType,
		Status:     models.StatusRegistered,
		AIPersona:  personaText,
		CreatedAt:  time.Now().UTC(),
	}

	// Fresh id per attempt; collisions on a 9-char base-36 id are vanishingly
	// rare but the store enforces uniqueness, so retry rather than fail.
	var err error
	for i := 0; i < insertAttempts; i++ {
		a.ID, err = newTicketID()
		if err != nil {
			return nil, fmt.Errorf("generate id: %w", err)
		}
		err = r.store.Insert(ctx, a)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrDuplicateID) {
			return nil, err
		}
	}
	if err != nil {
		return nil, err
	}

	r.logger.Info("attendee registered",
		zap.String("id", a.ID),
		zap.String("ticket_type", a.TicketType),
	)

	if personaText == persona.FallbackPersona && r.onDegraded != nil {
		r.onDegraded(a.ID)
	}
	return a, nil
}

// CheckIn normalizes the id (trim + uppercase, so scans, hand-typed entry
// and the REST path all match the stored form) and performs the atomic
// transition. Storage failures are the only error return; business outcomes
// come back in the result.
func (r *Registry) CheckIn(ctx context.Context, rawID string) (CheckInResult, error) {
	id := NormalizeID(rawID)
	if id == "" {
		return CheckInResult{OK: false, Message: "Ticket ID not found."}, nil
	}

	a, err := r.store.CheckIn(ctx, id, time.Now().UTC())
	switch {
	case errors.Is(err, ErrNotFound):
		return CheckInResult{OK: false, Message: "Ticket ID not found."}, nil
	case errors.Is(err, ErrAlreadyCheckedIn):
		return CheckInResult{OK: false, Message: "Already checked in.", Attendee: a}, nil
	case err != nil:
		return CheckInResult{}, err
	}

	r.logger.Info("attendee checked in", zap.String("id", a.ID))
	if r.onCheckIn != nil {
		r.onCheckIn(*a)
	}
	return CheckInResult{
		OK:       true,
		Message:  fmt.Sprintf("Welcome, %s!", a.FullName),
		Attendee: a,
	}, nil
}

// Get returns an attendee by id (normalized like CheckIn).
func (r *Registry) Get(ctx context.Context, rawID string) (*models.Attendee, error) {
	return r.store.Get(ctx, NormalizeID(rawID))
}

// List returns attendees, optionally filtered by status.
func (r *Registry) List(ctx context.Context, status models.CheckInStatus) ([]models.Attendee, error) {
	return r.store.List(ctx, status)
}

// NormalizeID maps scanned or typed input to the stored id form.
func NormalizeID(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

func newTicketID() (string, error) {
	// Reject bytes at or above the largest multiple of the alphabet size so
	// every character is drawn uniformly.
	const idMax = 256 - 256%len(idAlphabet)
	id := make([]byte, 0, idLength)
	buf := make([]byte, idLength)
	for len(id) < idLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= idMax {
				continue
			}
			id = append(id, idAlphabet[int(b)%len(idAlphabet)])
			if len(id) == idLength {
				break
			}
		}
	}
	return string(id), nil
}
