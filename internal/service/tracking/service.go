package tracking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wecount/countdown-api/internal/countdown"
	"github.com/wecount/countdown-api/internal/model"
	"github.com/wecount/countdown-api/internal/store"
	"github.com/wecount/countdown-api/pkg/logger"
	"github.com/wecount/countdown-api/pkg/messaging"
	"github.com/wecount/countdown-api/pkg/metrics"
)

// Service owns the foreground countdown trackers, one per observed event.
// It persists countdown records and pushes one-way event snapshots to the
// background worker over the broker.
type Service struct {
	dispatch      countdown.Dispatcher
	store         store.Store
	broker        messaging.Broker
	logger        *logger.Logger
	metrics       *metrics.Metrics
	interval      time.Duration
	now           func() time.Time
	updateChannel string

	mu       sync.Mutex
	trackers map[uuid.UUID]*countdown.Tracker
}

type Config struct {
	TickInterval  time.Duration
	UpdateChannel string
}

func NewService(
	dispatch countdown.Dispatcher,
	st store.Store,
	broker messaging.Broker,
	log *logger.Logger,
	m *metrics.Metrics,
	cfg Config,
) *Service {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = countdown.DefaultTickInterval
	}
	if cfg.UpdateChannel == "" {
		cfg.UpdateChannel = "countdown.update"
	}

	return &Service{
		dispatch:      dispatch,
		store:         st,
		broker:        broker,
		logger:        log,
		metrics:       m,
		interval:      cfg.TickInterval,
		now:           time.Now,
		updateChannel: cfg.UpdateChannel,
		trackers:      make(map[uuid.UUID]*countdown.Tracker),
	}
}

// meteredDispatcher counts fired milestones before delegating delivery.
type meteredDispatcher struct {
	inner   countdown.Dispatcher
	metrics *metrics.Metrics
}

func (d meteredDispatcher) DispatchMilestone(ctx context.Context, event model.Event, milestone countdown.Milestone) error {
	if d.metrics != nil {
		d.metrics.MilestonesFired.WithLabelValues(string(milestone), "foreground").Inc()
	}
	if d.inner == nil {
		return nil
	}
	return d.inner.DispatchMilestone(ctx, event, milestone)
}

// Track starts (or restarts, after an edit) the 1 Hz tracker for an event.
// The initial record write and the worker push are best-effort: the
// countdown keeps ticking even when persistence is down.
func (s *Service) Track(ctx context.Context, event model.Event) {
	s.mu.Lock()
	if existing, ok := s.trackers[event.ID]; ok {
		existing.Stop()
		delete(s.trackers, event.ID)
	}

	tracker := countdown.NewTracker(event, meteredDispatcher{inner: s.dispatch, metrics: s.metrics}, s.logger,
		countdown.WithInterval(s.interval),
		countdown.WithClock(s.now),
		countdown.WithPersister(s),
	)
	if s.metrics != nil {
		tracker.Subscribe(func(countdown.TimeLeft) {
			s.metrics.TicksTotal.WithLabelValues("foreground").Inc()
		})
	}

	s.trackers[event.ID] = tracker
	count := len(s.trackers)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.TrackedCountdowns.Set(float64(count))
	}

	// Trackers outlive the registering request.
	tracker.Start(context.Background())

	if err := s.Persist(ctx, event, countdown.Compute(s.now(), event.Date)); err != nil {
		s.logger.Warn("initial countdown persistence skipped",
			"event_id", event.ID.String(),
			"error", err.Error())
	}
	s.PushUpdate(ctx, event)
}

// Untrack stops the tracker for an event id. The persisted record is left
// in place so the background worker keeps evaluating it.
func (s *Service) Untrack(id uuid.UUID) {
	s.mu.Lock()
	tracker, ok := s.trackers[id]
	if ok {
		delete(s.trackers, id)
	}
	count := len(s.trackers)
	s.mu.Unlock()

	if ok {
		tracker.Stop()
	}
	if s.metrics != nil {
		s.metrics.TrackedCountdowns.Set(float64(count))
	}
}

// Forget stops tracking and removes the durable record; used when the
// event itself is deleted.
func (s *Service) Forget(ctx context.Context, id uuid.UUID) {
	s.Untrack(id)

	if err := s.store.Delete(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		s.logger.Warn("failed to delete countdown record",
			"event_id", id.String(),
			"error", err.Error())
	}

	if err := s.broker.Publish(ctx, s.updateChannel, messaging.Message{
		Type:    messaging.TypeRemoveCountdown,
		Payload: id.String(),
	}); err != nil {
		s.logger.Warn("failed to push countdown removal",
			"event_id", id.String(),
			"error", err.Error())
	}
}

// Tracked reports whether a tracker is running for the event id.
func (s *Service) Tracked(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.trackers[id]
	return ok
}

// Snapshot returns the current TimeLeft for an event, from the live
// tracker when one exists, otherwise computed on the spot.
func (s *Service) Snapshot(event model.Event) countdown.TimeLeft {
	s.mu.Lock()
	tracker, ok := s.trackers[event.ID]
	s.mu.Unlock()

	if ok {
		return tracker.Snapshot()
	}
	return countdown.Compute(s.now(), event.Date)
}

// Persist implements countdown.Persister with a whole-record upsert.
func (s *Service) Persist(ctx context.Context, event model.Event, tl countdown.TimeLeft) error {
	if s.metrics != nil {
		timer := prometheus.NewTimer(s.metrics.StoreLatency.WithLabelValues("put"))
		defer timer.ObserveDuration()
	}

	err := s.store.Put(ctx, store.NewRecord(event, tl))
	if s.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		s.metrics.StoreOperations.WithLabelValues("put", status).Inc()
	}
	return err
}

// PushUpdate sends a one-way event snapshot to the background worker.
// Fire-and-forget: no acknowledgement is awaited.
func (s *Service) PushUpdate(ctx context.Context, event model.Event) {
	err := s.broker.Publish(ctx, s.updateChannel, messaging.Message{
		Type:    messaging.TypeUpdateCountdown,
		Payload: event,
	})
	if s.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		s.metrics.BrokerOperations.WithLabelValues("publish", status).Inc()
	}
	if err != nil {
		s.logger.Warn("failed to push countdown update",
			"event_id", event.ID.String(),
			"error", err.Error())
	}
}

// StopAll stops every tracker; used on shutdown.
func (s *Service) StopAll() {
	s.mu.Lock()
	trackers := make([]*countdown.Tracker, 0, len(s.trackers))
	for id, tracker := range s.trackers {
		trackers = append(trackers, tracker)
		delete(s.trackers, id)
	}
	s.mu.Unlock()

	for _, tracker := range trackers {
		tracker.Stop()
	}
	if s.metrics != nil {
		s.metrics.TrackedCountdowns.Set(0)
	}
}
