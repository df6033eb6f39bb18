package attendees

import (
	"context"
	"sync"
	"time"

	"github.com/event-horizon/backend/internal/models"
	"github.com/event-horizon/backend/internal/persona"
)

// MemoryStore is the single-process attendee collection. One mutex guards
// the whole table; contention at a door gate is negligible and the lock
// gives CheckIn the same exactly-once guarantee as the SQL store.
type MemoryStore struct {
	mu    sync.Mutex
	order []string
	byID  map[string]*models.Attendee
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*models.Attendee)}
}

// Insert stores a new attendee.
func (s *MemoryStore) Insert(_ context.Context, a *models.Attendee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[a.ID]; ok {
		return ErrDuplicateID
	}
	cp := *a
	s.byID[a.ID] = &cp
	s.order = append(s.order, a.ID)
	return nil
}

// Get returns a copy of the attendee by exact id.
func (s *MemoryStore) Get(_ context.Context, id string) (*models.Attendee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// List returns attendee copies in insertion order.
func (s *MemoryStore) List(_ context.Context, status models.CheckInStatus) ([]models.Attendee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Attendee, 0, len(s.order))
	for _, id := range s.order {
		a := s.byID[id]
		if status != "" && a.Status != status {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

// CheckIn performs the read-check-write transition under the store lock.
func (s *MemoryStore) CheckIn(_ context.Context, id string, at time.Time) (*models.Attendee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if a.Status == models.StatusCheckedIn {
		cp := *a
		return &cp, ErrAlreadyCheckedIn
	}
	a.Status = models.StatusCheckedIn
	t := at
	a.CheckInTime = &t
	cp := *a
	return &cp, nil
}

// UpdatePersona upgrades the fallback persona, applying the same guard as
// the SQL store under the table lock: missing, already-upgraded, or
// checked-in attendees are left untouched.
func (s *MemoryStore) UpdatePersona(_ context.Context, id, personaText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok || a.AIPersona != persona.FallbackPersona || a.Status != models.StatusRegistered {
		return nil
	}
	a.AIPersona = personaText
	return nil
}
