// Package worker runs background jobs dequeued from Redis.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/event-horizon/backend/internal/attendees"
	"github.com/event-horizon/backend/internal/models"
	"github.com/event-horizon/backend/internal/persona"
	"github.com/event-horizon/backend/pkg/queue"
)

// PersonaProcessor retries degraded persona generations: registrations that
// fell back because the upstream was slow or down get a second attempt with
// a longer deadline, off the request path. Only the fallback sentinel is
// ever replaced, and only while the attendee is still Registered.
type PersonaProcessor struct {
	store      attendees.Store
	gen        persona.Generator
	queue      *queue.Queue
	retryDelay time.Duration
	logger     *zap.Logger
}

// NewPersonaProcessor creates a persona backfill processor. gen should be
// configured with the backfill timeout, not the request-path one.
func NewPersonaProcessor(store attendees.Store, gen persona.Generator, q *queue.Queue, logger *zap.Logger) *PersonaProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PersonaProcessor{store: store, gen: gen, queue: q, retryDelay: queue.RetryBackoff, logger: logger}
}

// Process executes one persona backfill job.
func (p *PersonaProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypePersonaBackfill {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.PersonaBackfillPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	a, err := p.store.Get(ctx, payload.AttendeeID)
	if err != nil {
		if errors.Is(err, attendees.ErrNotFound) {
			p.logger.Warn("backfill target gone", zap.String("attendee_id", payload.AttendeeID))
			return nil
		}
		return fmt.Errorf("load attendee: %w", err)
	}
	if a.AIPersona != persona.FallbackPersona || a.Status != models.StatusRegistered {
		// Already upgraded, or the attendee is through the gate; the badge is printed.
		return nil
	}

	generated := p.gen.GeneratePersona(ctx, a.FullName, a.Role, a.TicketType)
	if generated == persona.FallbackPersona || generated == persona.FallbackNoCredential {
		return fmt.Errorf("generation still degraded for %s", a.ID)
	}

	if err := p.store.UpdatePersona(ctx, a.ID, generated); err != nil {
		return fmt.Errorf("update persona: %w", err)
	}
	p.logger.Info("persona backfilled", zap.String("attendee_id", a.ID))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *PersonaProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("persona worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			go p.retryLater(ctx, job)
		}
	}
}

// retryLater waits out the backoff off the consumer goroutine, so one
// degraded attendee cannot stall the jobs queued behind it. On shutdown the
// job is requeued immediately instead of being lost with the timer.
func (p *PersonaProcessor) retryLater(ctx context.Context, job *queue.Job) {
	timer := time.NewTimer(p.retryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}

	pushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.queue.Retry(pushCtx, job); err != nil {
		p.logger.Error("retry enqueue failed", zap.String("job_id", job.ID), zap.Error(err))
	}
}
