package worker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/event-horizon/backend/internal/attendees"
	"github.com/event-horizon/backend/internal/models"
	"github.com/event-horizon/backend/internal/persona"
	"github.com/event-horizon/backend/pkg/queue"
)

type fixedGenerator struct {
	result string
}

func (f fixedGenerator) GeneratePersona(context.Context, string, string, string) string {
	return f.result
}

func (f fixedGenerator) GenerateWelcome(_ context.Context, name, _ string) string {
	return "Welcome, " + name
}

func backfillJob(t *testing.T, attendeeID string) *queue.Job {
	t.Helper()
	payload, err := json.Marshal(queue.PersonaBackfillPayload{AttendeeID: attendeeID})
	require.NoError(t, err)
	return &queue.Job{ID: "job-1", Type: queue.JobTypePersonaBackfill, Payload: payload}
}

func seedAttendee(t *testing.T, store attendees.Store, personaText string, status models.CheckInStatus) *models.Attendee {
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
	require.NoError(t, store.Insert(context.Background(), a))
	return a
}

func TestProcessUpgradesFallbackPersona(t *testing.T) {
	store := attendees.NewMemoryStore()
	seedAttendee(t, store, persona.FallbackPersona, models.StatusRegistered)
	p := NewPersonaProcessor(store, fixedGenerator{result: "Neural Pathfinder"}, nil, nil)

	require.NoError(t, p.Process(context.Background(), backfillJob(t, "A1B2C3D4E")))

	a, err := store.Get(context.Background(), "A1B2C3D4E")
	require.NoError(t, err)
	assert.Equal(t, "Neural Pathfinder", a.AIPersona)
}

func TestProcessSkipsNonFallbackPersona(t *testing.T) {
	store := attendees.NewMemoryStore()
	seedAttendee(t, store, "Code Ninja", models.StatusRegistered)
	p := NewPersonaProcessor(store, fixedGenerator{result: "Neural Pathfinder"}, nil, nil)

	require.NoError(t, p.Process(context.Background(), backfillJob(t, "A1B2C3D4E")))

	a, err := store.Get(context.Background(), "A1B2C3D4E")
	require.NoError(t, err)
	assert.Equal(t, "Code Ninja", a.AIPersona, "a real persona must never be overwritten")
}

func TestProcessSkipsCheckedInAttendee(t *testing.T) {
	store := attendees.NewMemoryStore()
	seedAttendee(t, store, persona.FallbackPersona, models.StatusCheckedIn)
	p := NewPersonaProcessor(store, fixedGenerator{result: "Neural Pathfinder"}, nil, nil)

	require.NoError(t, p.Process(context.Background(), backfillJob(t, "A1B2C3D4E")))

	a, err := store.Get(context.Background(), "A1B2C3D4E")
	require.NoError(t, err)
	assert.Equal(t, persona.FallbackPersona, a.AIPersona, "badges are final once through the gate")
}

func TestProcessReportsStillDegraded(t *testing.T) {
	store := attendees.NewMemoryStore()
	seedAttendee(t, store, persona.FallbackPersona, models.StatusRegistered)
	p := NewPersonaProcessor(store, fixedGenerator{result: persona.FallbackPersona}, nil, nil)

	err := p.Process(context.Background(), backfillJob(t, "A1B2C3D4E"))
	assert.Error(t, err, "a degraded retry must surface so the queue can back off")
}

func TestProcessDropsMissingAttendee(t *testing.T) {
	store := attendees.NewMemoryStore()
	p := NewPersonaProcessor(store, fixedGenerator{result: "Neural Pathfinder"}, nil, nil)

	assert.NoError(t, p.Process(context.Background(), backfillJob(t, "GONE00000")))
}

func TestProcessRejectsUnknownJobType(t *testing.T) {
	p := NewPersonaProcessor(attendees.NewMemoryStore(), fixedGenerator{}, nil, nil)
	err := p.Process(context.Background(), &queue.Job{ID: "x", Type: "mystery"})
	assert.Error(t, err)
}

// staleReadStore reports every attendee as still eligible, simulating a
// check-in that lands between the worker's read and its write.
type staleReadStore struct {
	attendees.Store
}

func (s staleReadStore) Get(ctx context.Context, id string) (*models.Attendee, error) {
	a, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	stale := *a
	stale.Status = models.StatusRegistered
	stale.AIPersona = persona.FallbackPersona
	return &stale, nil
}

func TestProcessLosesRaceToCheckIn(t *testing.T) {
	store := attendees.NewMemoryStore()
	seedAttendee(t, store, persona.FallbackPersona, models.StatusCheckedIn)
	p := NewPersonaProcessor(staleReadStore{Store: store}, fixedGenerator{result: "Neural Pathfinder"}, nil, nil)

	require.NoError(t, p.Process(context.Background(), backfillJob(t, "A1B2C3D4E")))

	a, err := store.Get(context.Background(), "A1B2C3D4E")
	require.NoError(t, err)
	assert.Equal(t, persona.FallbackPersona, a.AIPersona, "a late check-in wins over the backfill write")
}

// fakeRedis covers RPush, the only command Retry issues; the rest of the
// embedded interface stays nil.
type fakeRedis struct {
	redis.Cmdable
	mu    sync.Mutex
	lists map[string][]string
}

func (f *fakeRedis) RPush(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range values {
		if b, ok := v.([]byte); ok {
			f.lists[key] = append(f.lists[key], string(b))
		}
	}
	return redis.NewIntResult(int64(len(f.lists[key])), nil)
}

func (f *fakeRedis) items(key string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lists[key]...)
}

func TestRetryLaterRequeuesOffTheConsumer(t *testing.T) {
	rdb := &fakeRedis{lists: make(map[string][]string)}
	p := NewPersonaProcessor(attendees.NewMemoryStore(), fixedGenerator{}, queue.NewQueue(rdb, nil), nil)
	p.retryDelay = 50 * time.Millisecond

	done := make(chan struct{})
	go func() {
		p.retryLater(context.Background(), backfillJob(t, "A1B2C3D4E"))
		close(done)
	}()

	assert.Empty(t, rdb.items(queue.QueuePersonas), "the requeue waits out the backoff")
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("retryLater did not return")
	}

	items := rdb.items(queue.QueuePersonas)
	require.Len(t, items, 1)
	var requeued queue.Job
	require.NoError(t, json.Unmarshal([]byte(items[0]), &requeued))
	assert.Equal(t, 1, requeued.Attempt)
}

func TestRetryLaterRequeuesImmediatelyOnShutdown(t *testing.T) {
	rdb := &fakeRedis{lists: make(map[string][]string)}
	p := NewPersonaProcessor(attendees.NewMemoryStore(), fixedGenerator{}, queue.NewQueue(rdb, nil), nil)
	p.retryDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.retryLater(ctx, backfillJob(t, "A1B2C3D4E"))

	assert.Len(t, rdb.items(queue.QueuePersonas), 1, "shutdown must not drop the job with the timer")
}
