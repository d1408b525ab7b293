package tracking

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wecount/countdown-api/internal/countdown"
	"github.com/wecount/countdown-api/internal/model"
	"github.com/wecount/countdown-api/internal/store"
	"github.com/wecount/countdown-api/pkg/logger"
	"github.com/wecount/countdown-api/pkg/messaging"
)

type capturingBroker struct {
	mu       sync.Mutex
	messages []messaging.Message
}

func (b *capturingBroker) Publish(_ context.Context, _ string, message interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if msg, ok := message.(messaging.Message); ok {
		b.messages = append(b.messages, msg)
	}
	return nil
}

func (b *capturingBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, errors.New("not implemented")
}

func (b *capturingBroker) Close() error { return nil }

func (b *capturingBroker) published() []messaging.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]messaging.Message(nil), b.messages...)
}

func newTestService(st store.Store) (*Service, *capturingBroker) {
	broker := &capturingBroker{}
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	svc := NewService(nil, st, broker, log, nil, Config{TickInterval: time.Hour})
	return svc, broker
}

func futureEvent() model.Event {
	return model.Event{
		ID:   uuid.New(),
		Name: "launch",
		Date: time.Now().Add(2 * time.Hour),
	}
}

func TestTrackPersistsAndPushes(t *testing.T) {
	st := store.NewMemoryStore()
	svc, broker := newTestService(st)
	defer svc.StopAll()
	ctx := context.Background()

	event := futureEvent()
	svc.Track(ctx, event)
	assert.True(t, svc.Tracked(event.ID))

	rec, err := st.Get(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.ID, rec.Event.ID)
	assert.False(t, rec.IsFinished)

	msgs := broker.published()
	require.NotEmpty(t, msgs)
	assert.Equal(t, messaging.TypeUpdateCountdown, msgs[0].Type)
}

func TestTrackSurvivesStoreOutage(t *testing.T) {
	st := store.NewMemoryStore()
	st.SetUnavailable(true)
	svc, _ := newTestService(st)
	defer svc.StopAll()

	// The tracker must come up even when persistence is down.
	event := futureEvent()
	svc.Track(context.Background(), event)
	assert.True(t, svc.Tracked(event.ID))
}

func TestUntrackLeavesRecord(t *testing.T) {
	st := store.NewMemoryStore()
	svc, _ := newTestService(st)
	ctx := context.Background()

	event := futureEvent()
	svc.Track(ctx, event)
	svc.Untrack(event.ID)
	assert.False(t, svc.Tracked(event.ID))

	// The background worker keeps evaluating from the durable record.
	_, err := st.Get(ctx, event.ID)
	assert.NoError(t, err)

	// Untracking again is harmless.
	svc.Untrack(event.ID)
}

func TestForgetRemovesRecordAndNotifiesWorker(t *testing.T) {
	st := store.NewMemoryStore()
	svc, broker := newTestService(st)
	ctx := context.Background()

	event := futureEvent()
	require.NoError(t, svc.Persist(ctx, event, countdown.Compute(time.Now(), event.Date)))
	svc.Forget(ctx, event.ID)

	assert.False(t, svc.Tracked(event.ID))
	_, err := st.Get(ctx, event.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	msgs := broker.published()
	require.NotEmpty(t, msgs)
	last := msgs[len(msgs)-1]
	assert.Equal(t, messaging.TypeRemoveCountdown, last.Type)
	assert.Equal(t, event.ID.String(), last.Payload)
}

func TestTrackRestartReplacesTracker(t *testing.T) {
	st := store.NewMemoryStore()
	svc, _ := newTestService(st)
	defer svc.StopAll()
	ctx := context.Background()

	event := futureEvent()
	svc.Track(ctx, event)

	// Re-tracking the same event (after an edit) swaps the tracker in
	// place without leaking the old one.
	event.Date = event.Date.Add(time.Hour)
	svc.Track(ctx, event)
	assert.True(t, svc.Tracked(event.ID))

	// The old tracker's writes are drained before Track persists the
	// edited record, so the store already holds the new instant.
	rec, err := st.Get(ctx, event.ID)
	require.NoError(t, err)
	assert.True(t, rec.Event.Date.Equal(event.Date))
}

func TestSnapshotWithoutTracker(t *testing.T) {
	svc, _ := newTestService(store.NewMemoryStore())

	event := futureEvent()
	tl := svc.Snapshot(event)
	assert.False(t, tl.IsZero())
	assert.Equal(t, 1, tl.Hours)
}
