package countdown

import (
	"context"
	"sync"
	"time"

	"github.com/wecount/countdown-api/internal/model"
	"github.com/wecount/countdown-api/pkg/logger"
)

// DefaultTickInterval is the foreground tick resolution.
const DefaultTickInterval = time.Second

// Dispatcher delivers a milestone notification for an event.
type Dispatcher interface {
	DispatchMilestone(ctx context.Context, event model.Event, milestone Milestone) error
}

// Persister saves the latest countdown state for an event. Implementations
// must tolerate being called concurrently with ticks; writes are
// whole-record replacements.
type Persister interface {
	Persist(ctx context.Context, event model.Event, tl TimeLeft) error
}

// Tracker drives the periodic recomputation for one observed event. It owns
// its timer handle: Start begins ticking, Stop cancels immediately and
// totally. Persistence writes are fire-and-forget; a slow write never
// delays the next tick. Stop drains writes still in flight so a stopped
// tracker can never overwrite a successor's record.
type Tracker struct {
	event     model.Event
	notifier  *Notifier
	dispatch  Dispatcher
	persister Persister
	logger    *logger.Logger

	interval time.Duration
	now      func() time.Time

	subs []func(TimeLeft)

	mu       sync.Mutex
	lastSeen TimeLeft
	started  bool

	stopOnce  sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
	persistWG sync.WaitGroup
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithInterval overrides the 1 Hz tick interval.
func WithInterval(interval time.Duration) TrackerOption {
	return func(t *Tracker) {
		if interval > 0 {
			t.interval = interval
		}
	}
}

// WithClock overrides the wall-clock source.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithPersister attaches a persistence sink.
func WithPersister(p Persister) TrackerOption {
	return func(t *Tracker) {
		t.persister = p
	}
}

func NewTracker(event model.Event, dispatch Dispatcher, log *logger.Logger, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		event:    event,
		notifier: NewNotifier(ExactMatcher),
		dispatch: dispatch,
		logger:   log,
		interval: DefaultTickInterval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Event returns the tracked event.
func (t *Tracker) Event() model.Event {
	return t.event
}

// Subscribe registers a callback invoked with every computed TimeLeft.
// Must be called before Start.
func (t *Tracker) Subscribe(fn func(TimeLeft)) {
	t.subs = append(t.subs, fn)
}

// Snapshot returns the most recently published TimeLeft, or a fresh
// computation if the tracker has not ticked yet.
func (t *Tracker) Snapshot() TimeLeft {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.started {
		return Compute(t.now(), t.event.Date)
	}
	return t.lastSeen
}

// Start begins ticking: one immediate computation, then once per interval
// until Stop or context cancellation.
func (t *Tracker) Start(ctx context.Context) {
	go func() {
		defer close(t.doneCh)

		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		t.tick(ctx)

		for {
			select {
			case <-t.stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.tick(ctx)
			}
		}
	}()
}

// Stop cancels the periodic tick and waits for any in-flight persistence
// write. It is safe to call more than once.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopCh)
	})
	<-t.doneCh
	t.persistWG.Wait()
}

func (t *Tracker) tick(ctx context.Context) {
	// One bad tick must not halt future ticks.
	defer func() {
		if r := recover(); r != nil {
			t.logger.WithFields(map[string]interface{}{
				"event_id": t.event.ID.String(),
				"panic":    r,
			}).Warn("countdown tick panicked, skipping")
		}
	}()

	tl := Compute(t.now(), t.event.Date)

	t.mu.Lock()
	t.lastSeen = tl
	t.started = true
	t.mu.Unlock()

	for _, fn := range t.subs {
		fn(tl)
	}

	for _, milestone := range t.notifier.Evaluate(tl) {
		if t.dispatch == nil {
			continue
		}
		if err := t.dispatch.DispatchMilestone(ctx, t.event, milestone); err != nil {
			t.logger.Error(err, "failed to dispatch milestone",
				"event_id", t.event.ID.String(),
				"milestone", string(milestone))
		}
	}

	if t.persister != nil {
		persistCtx := context.WithoutCancel(ctx)
		t.persistWG.Add(1)
		go func() {
			defer t.persistWG.Done()
			if err := t.persister.Persist(persistCtx, t.event, tl); err != nil {
				// Persistence is best-effort; the countdown keeps working
				// without it.
				t.logger.Warn("skipping countdown persistence",
					"event_id", t.event.ID.String(),
					"error", err.Error())
			}
		}()
	}
}
