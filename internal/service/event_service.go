package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/talent-pool-api/internal/models"
	"github.com/noah-isme/talent-pool-api/pkg/config"
	"github.com/noah-isme/talent-pool-api/pkg/events"
	"github.com/noah-isme/talent-pool-api/pkg/jobs"
	"github.com/noah-isme/talent-pool-api/pkg/logger"
)

const (
	eventVersion       = "v1"
	eventDrainInterval = 10 * time.Millisecond
)

// EventService publishes pool domain events after their transaction commits.
// Once started, Emit only queues the event; workers publish it off the request path.
// Publishing failures never fail the originating operation.
type EventService struct {
	publisher events.Publisher
	queue     *jobs.Queue
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewEventService wires a publisher; a nil publisher discards events.
func NewEventService(publisher events.Publisher, cfg config.EventsConfig, metrics *MetricsService, log *zap.Logger) *EventService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &EventService{publisher: publisher, metrics: metrics, logger: log}
	s.queue = jobs.NewQueue("pool-events", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		Logger:     log,
	})
	return s
}

// Start launches the publishing workers. Until then Emit publishes inline.
func (s *EventService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop waits up to ctx for queued events to drain, then stops the workers.
func (s *EventService) Stop(ctx context.Context) {
	ticker := time.NewTicker(eventDrainInterval)
	defer ticker.Stop()
	for s.queue.Pending() > 0 {
		select {
		case <-ctx.Done():
			s.logger.Warn("pool events dropped on shutdown", zap.Int("pending", s.queue.Pending()))
			s.queue.Stop()
			return
		case <-ticker.C:
		}
	}
	s.queue.Stop()
}

// Emit builds the envelope and queues it for publishing.
func (s *EventService) Emit(ctx context.Context, eventType, poolID string, actor *models.Actor, payload map[string]interface{}) {
	if s == nil {
		return
	}
	event := models.PoolEvent{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: eventVersion,
		PoolID:       poolID,
		Timestamp:    time.Now().UTC(),
		Payload:      payload,
	}
	if actor != nil {
		event.ActorID = actor.ID
	}

	err := s.queue.TryEnqueue(jobs.Job{ID: event.EventID, Type: eventType, Payload: event})
	switch {
	case err == nil:
	case errors.Is(err, jobs.ErrQueueFull):
		s.metrics.EventPublished(eventType, err)
		logger.WithContext(ctx, s.logger).Warn("pool event dropped, queue full",
			zap.String("event_type", eventType),
			zap.String("pool_id", poolID))
	default:
		s.publish(context.WithoutCancel(ctx), event)
	}
}

func (s *EventService) handle(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(models.PoolEvent)
	if !ok {
		return fmt.Errorf("pool event job %s: unexpected payload %T", job.ID, job.Payload)
	}
	// Stop cancels ctx; an event already taken off the queue still goes out.
	s.publish(context.WithoutCancel(ctx), event)
	return nil
}

func (s *EventService) publish(ctx context.Context, event models.PoolEvent) {
	err := s.publisher.Publish(ctx, event.PoolID, event.EventType, event)
	s.metrics.EventPublished(event.EventType, err)
	if err != nil {
		logger.WithContext(ctx, s.logger).Warn("publish pool event failed",
			zap.String("event_id", event.EventID),
			zap.String("event_type", event.EventType),
			zap.String("pool_id", event.PoolID),
			zap.Error(err))
	}
}
