package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
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

type CountdownProcessorConfig struct {
	PollInterval  time.Duration
	UpdateChannel string
}

// CountdownProcessor is the background evaluation cycle: every poll
// interval it re-derives TimeLeft for every persisted countdown record
// from the event's target instant (never from the cached TimeLeft) and
// runs the tolerance-band milestone evaluation. It keeps its own fired
// state per event, independent of any foreground tracker.
type CountdownProcessor struct {
	store    store.Store
	dispatch countdown.Dispatcher
	broker   messaging.Broker
	config   CountdownProcessorConfig
	logger   *logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	mu        sync.Mutex
	notifiers map[uuid.UUID]*countdown.Notifier
}

func NewCountdownProcessor(
	st store.Store,
	dispatch countdown.Dispatcher,
	broker messaging.Broker,
	config CountdownProcessorConfig,
	log *logger.Logger,
	m *metrics.Metrics,
) *CountdownProcessor {
	if config.PollInterval <= 0 {
		panic("PollInterval must be greater than 0")
	}
	if config.UpdateChannel == "" {
		panic("UpdateChannel must not be empty")
	}

	return &CountdownProcessor{
		store:     st,
		dispatch:  dispatch,
		broker:    broker,
		config:    config,
		logger:    log,
		metrics:   m,
		now:       time.Now,
		notifiers: make(map[uuid.UUID]*countdown.Notifier),
	}
}

// WithClock overrides the wall-clock source; tests use it to simulate
// cycles at scripted instants.
func (p *CountdownProcessor) WithClock(now func() time.Time) *CountdownProcessor {
	p.now = now
	return p
}

func (p *CountdownProcessor) Start(ctx context.Context) {
	p.logger.Info("Starting countdown processor")

	go p.consumeUpdates(ctx)

	// Run one cycle on activation, then on every tick.
	if err := p.ProcessCycle(ctx); err != nil {
		p.logger.Error(err, "Failed to process countdown cycle")
	}

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down countdown processor")
			return
		case <-ticker.C:
			if err := p.ProcessCycle(ctx); err != nil {
				p.logger.Error(err, "Failed to process countdown cycle")
			}
		}
	}
}

// ProcessCycle evaluates milestones for every tracked countdown. A store
// outage is not an error: the cycle is skipped and the next tick retries.
func (p *CountdownProcessor) ProcessCycle(ctx context.Context) error {
	if p.metrics != nil {
		timer := prometheus.NewTimer(p.metrics.EvaluationLatency)
		defer timer.ObserveDuration()
	}

	records, err := p.store.GetAll(ctx)
	if err != nil {
		if p.metrics != nil {
			p.metrics.StoreOperations.WithLabelValues("get_all", "error").Inc()
		}
		if errors.Is(err, store.ErrUnavailable) {
			p.logger.Warn("countdown store unavailable, skipping cycle")
			return nil
		}
		return fmt.Errorf("failed to read countdown records: %w", err)
	}
	if p.metrics != nil {
		p.metrics.StoreOperations.WithLabelValues("get_all", "success").Inc()
	}

	seen := make(map[uuid.UUID]struct{}, len(records))
	for _, record := range records {
		seen[record.ID] = struct{}{}
		p.evaluate(ctx, record)
	}

	// Drop fired state for countdowns no longer tracked.
	p.mu.Lock()
	for id := range p.notifiers {
		if _, ok := seen[id]; !ok {
			delete(p.notifiers, id)
		}
	}
	p.mu.Unlock()

	return nil
}

func (p *CountdownProcessor) evaluate(ctx context.Context, record *store.Record) {
	// The stored TimeLeft is a stale hint; the target instant is ground
	// truth.
	tl := countdown.Compute(p.now(), record.Event.Date)

	if p.metrics != nil {
		p.metrics.TicksTotal.WithLabelValues("background").Inc()
	}

	for _, milestone := range p.notifierFor(record).Evaluate(tl) {
		if p.metrics != nil {
			p.metrics.MilestonesFired.WithLabelValues(string(milestone), "background").Inc()
		}
		if p.dispatch == nil {
			continue
		}
		if err := p.dispatch.DispatchMilestone(ctx, record.Event, milestone); err != nil {
			p.logger.Error(err, "Failed to dispatch milestone",
				"event_id", record.ID.String(),
				"milestone", string(milestone))
		}
	}

	if err := p.store.Put(ctx, store.NewRecord(record.Event, tl)); err != nil {
		p.logger.Warn("skipping countdown record refresh",
			"event_id", record.ID.String(),
			"error", err.Error())
	}
}

func (p *CountdownProcessor) notifierFor(record *store.Record) *countdown.Notifier {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, ok := p.notifiers[record.ID]
	if !ok {
		n = countdown.NewNotifier(countdown.ToleranceMatcher)
		// A record that completed before this process started must not
		// announce finished again on resume.
		if record.IsFinished {
			n.MarkFinished()
		}
		p.notifiers[record.ID] = n
	}
	return n
}

// consumeUpdates applies one-way event snapshots pushed by the API so the
// worker's copy does not go stale between persistence writes.
func (p *CountdownProcessor) consumeUpdates(ctx context.Context) {
	msgChan, err := p.broker.Subscribe(ctx, p.config.UpdateChannel)
	if err != nil {
		p.logger.Error(err, "Failed to subscribe to countdown updates")
		return
	}

	for msg := range msgChan {
		if err := p.handleUpdate(ctx, msg); err != nil {
			p.logger.Error(err, "Failed to handle countdown update")
		}
	}
}

func (p *CountdownProcessor) handleUpdate(ctx context.Context, payload []byte) error {
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal update message: %w", err)
	}

	switch msg.Type {
	case messaging.TypeUpdateCountdown:
		var event model.Event
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			return fmt.Errorf("failed to unmarshal event snapshot: %w", err)
		}

		// An edited target instant is a new countdown: reset fired state.
		p.mu.Lock()
		delete(p.notifiers, event.ID)
		p.mu.Unlock()

		tl := countdown.Compute(p.now(), event.Date)
		if err := p.store.Put(ctx, store.NewRecord(event, tl)); err != nil {
			p.logger.Warn("skipping pushed countdown persistence",
				"event_id", event.ID.String(),
				"error", err.Error())
		}
		return nil

	case messaging.TypeRemoveCountdown:
		var id string
		if err := json.Unmarshal(msg.Payload, &id); err != nil {
			return fmt.Errorf("failed to unmarshal event id: %w", err)
		}
		eventID, err := uuid.Parse(id)
		if err != nil {
			return fmt.Errorf("invalid event id in removal: %w", err)
		}

		p.mu.Lock()
		delete(p.notifiers, eventID)
		p.mu.Unlock()

		if err := p.store.Delete(ctx, eventID); err != nil && !errors.Is(err, store.ErrNotFound) {
			p.logger.Warn("failed to delete countdown record",
				"event_id", id,
				"error", err.Error())
		}
		return nil

	default:
		return fmt.Errorf("unknown update type: %s", msg.Type)
	}
}
