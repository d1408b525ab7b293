package event

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wecount/countdown-api/internal/model"
	"github.com/wecount/countdown-api/internal/service/tracking"
	"github.com/wecount/countdown-api/internal/store"
	"github.com/wecount/countdown-api/pkg/logger"
)

type fakeEventRepo struct {
	events      map[uuid.UUID]*model.Event
	createFails int
	createErr   error
	pinLookups  int
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[uuid.UUID]*model.Event)}
}

func (r *fakeEventRepo) Create(_ context.Context, event *model.Event) error {
	if r.createErr != nil {
		return r.createErr
	}
	if r.createFails > 0 {
		r.createFails--
		return fmt.Errorf("failed to create event: %w",
			&pq.Error{Code: "23505", Constraint: "events_pin_key"})
	}
	copy := *event
	r.events[event.ID] = &copy
	return nil
}

func (r *fakeEventRepo) Get(_ context.Context, id uuid.UUID) (*model.Event, error) {
	event, ok := r.events[id]
	if !ok {
		return nil, errors.New("event not found")
	}
	copy := *event
	return &copy, nil
}

func (r *fakeEventRepo) GetByPIN(_ context.Context, pin string) (*model.Event, error) {
	r.pinLookups++
	for _, event := range r.events {
		if event.PIN == pin {
			copy := *event
			return &copy, nil
		}
	}
	return nil, errors.New("event not found")
}

func (r *fakeEventRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*model.Event, error) {
	var out []*model.Event
	for _, event := range r.events {
		if event.CreatedBy == ownerID {
			copy := *event
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) Update(_ context.Context, event *model.Event) error {
	if _, ok := r.events[event.ID]; !ok {
		return errors.New("event not found")
	}
	copy := *event
	r.events[event.ID] = &copy
	return nil
}

func (r *fakeEventRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.events, id)
	return nil
}

func (r *fakeEventRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	event, ok := r.events[id]
	if !ok {
		return errors.New("event not found")
	}
	event.IsActive = active
	return nil
}

type nopBroker struct{}

func (nopBroker) Publish(context.Context, string, interface{}) error { return nil }
func (nopBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, errors.New("not implemented")
}
func (nopBroker) Close() error { return nil }

func testService(repo *fakeEventRepo) (*Service, *tracking.Service) {
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	trackingSvc := tracking.NewService(nil, store.NewMemoryStore(), nopBroker{}, log, nil,
		tracking.Config{TickInterval: time.Hour})
	return NewService(repo, trackingSvc, log), trackingSvc
}

func createRequest() *model.CreateEventRequest {
	return &model.CreateEventRequest{
		Name: "New Year",
		Date: time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateEventGeneratesPIN(t *testing.T) {
	repo := newFakeEventRepo()
	svc, _ := testService(repo)

	event, err := svc.CreateEvent(context.Background(), uuid.New(), createRequest())
	require.NoError(t, err)
	assert.Len(t, event.PIN, 6)
	for _, c := range event.PIN {
		assert.True(t, c >= '0' && c <= '9')
	}
	assert.False(t, event.IsActive)
}

func TestCreateEventRetriesPINCollision(t *testing.T) {
	repo := newFakeEventRepo()
	repo.createFails = 2
	svc, _ := testService(repo)

	event, err := svc.CreateEvent(context.Background(), uuid.New(), createRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, event.PIN)
}

func TestCreateEventExhaustsRetries(t *testing.T) {
	repo := newFakeEventRepo()
	repo.createFails = 10
	svc, _ := testService(repo)

	_, err := svc.CreateEvent(context.Background(), uuid.New(), createRequest())
	assert.Error(t, err)
}

func TestCreateEventFailsFastOnNonCollision(t *testing.T) {
	repo := newFakeEventRepo()
	repo.createErr = errors.New("connection refused")
	svc, _ := testService(repo)

	// An outage is not a PIN collision; regenerating the PIN cannot help
	// and must not burn retries against a down database.
	_, err := svc.CreateEvent(context.Background(), uuid.New(), createRequest())
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection refused")
}

func TestGetEventByPINCaches(t *testing.T) {
	repo := newFakeEventRepo()
	svc, _ := testService(repo)
	ctx := context.Background()

	event, err := svc.CreateEvent(ctx, uuid.New(), createRequest())
	require.NoError(t, err)

	first, err := svc.GetEventByPIN(ctx, event.PIN)
	require.NoError(t, err)
	assert.Equal(t, event.ID, first.ID)

	second, err := svc.GetEventByPIN(ctx, event.PIN)
	require.NoError(t, err)
	assert.Equal(t, event.ID, second.ID)
	assert.Equal(t, 1, repo.pinLookups)
}

func TestGetEventByPINRejectsBadLength(t *testing.T) {
	svc, _ := testService(newFakeEventRepo())

	_, err := svc.GetEventByPIN(context.Background(), "12345")
	assert.Error(t, err)
	_, err = svc.GetEventByPIN(context.Background(), "1234567")
	assert.Error(t, err)
}

func TestUpdateEventChecksOwnership(t *testing.T) {
	repo := newFakeEventRepo()
	svc, _ := testService(repo)
	ctx := context.Background()

	owner := uuid.New()
	event, err := svc.CreateEvent(ctx, owner, createRequest())
	require.NoError(t, err)

	req := &model.UpdateEventRequest{Name: "Hijacked", Date: event.Date}
	_, err = svc.UpdateEvent(ctx, event.ID, uuid.New(), req)
	assert.Error(t, err)

	updated, err := svc.UpdateEvent(ctx, event.ID, owner, &model.UpdateEventRequest{
		Name: "New Year Eve",
		Date: event.Date.Add(24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "New Year Eve", updated.Name)
}

func TestActivateEvent(t *testing.T) {
	repo := newFakeEventRepo()
	svc, _ := testService(repo)
	ctx := context.Background()

	owner := uuid.New()
	event, err := svc.CreateEvent(ctx, owner, createRequest())
	require.NoError(t, err)
	require.False(t, event.IsActive)

	activated, err := svc.ActivateEvent(ctx, event.ID, owner)
	require.NoError(t, err)
	assert.True(t, activated.IsActive)

	stored, err := svc.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
}

func TestDeleteEventStopsTracking(t *testing.T) {
	repo := newFakeEventRepo()
	svc, trackingSvc := testService(repo)
	ctx := context.Background()

	owner := uuid.New()
	event, err := svc.CreateEvent(ctx, owner, createRequest())
	require.NoError(t, err)

	trackingSvc.Track(ctx, *event)
	require.True(t, trackingSvc.Tracked(event.ID))
	defer trackingSvc.StopAll()

	require.NoError(t, svc.DeleteEvent(ctx, event.ID, owner))
	assert.False(t, trackingSvc.Tracked(event.ID))

	_, err = svc.GetEvent(ctx, event.ID)
	assert.Error(t, err)
}
