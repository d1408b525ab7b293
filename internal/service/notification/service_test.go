package notification

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wecount/countdown-api/internal/countdown"
	"github.com/wecount/countdown-api/internal/email"
	"github.com/wecount/countdown-api/internal/model"
	"github.com/wecount/countdown-api/pkg/logger"
)

type fakeNotificationRepo struct {
	created []*model.Notification
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	r.created = append(r.created, n)
	return nil
}

func (r *fakeNotificationRepo) Update(context.Context, *model.Notification) error { return nil }

func (r *fakeNotificationRepo) ListForUser(_ context.Context, userID uuid.UUID, _ int) ([]*model.Notification, error) {
	var out []*model.Notification
	for _, n := range r.created {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) byChannel(channel string) []*model.Notification {
	var out []*model.Notification
	for _, n := range r.created {
		if n.Channel == channel {
			out = append(out, n)
		}
	}
	return out
}

type fakeUserRepo struct {
	user            *model.User
	markedRequested int
}

func (r *fakeUserRepo) Create(context.Context, *model.User) error { return nil }

func (r *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	if r.user == nil || r.user.ID != id {
		return nil, errors.New("user not found")
	}
	return r.user, nil
}

func (r *fakeUserRepo) GetByEmail(context.Context, string) (*model.User, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeUserRepo) UpdatePermission(_ context.Context, _ uuid.UUID, p model.NotificationPermission) error {
	r.user.NotificationPermission = p
	return nil
}

func (r *fakeUserRepo) MarkPermissionRequested(_ context.Context, _ uuid.UUID, at time.Time) error {
	r.markedRequested++
	r.user.PermissionRequestedAt = &at
	return nil
}

type fakePublisher struct {
	published []interface{}
	err       error
}

func (b *fakePublisher) Publish(_ context.Context, _ string, message interface{}) error {
	if b.err != nil {
		return b.err
	}
	b.published = append(b.published, message)
	return nil
}

func (b *fakePublisher) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, errors.New("not implemented")
}

func (b *fakePublisher) Close() error { return nil }

func testService(userRepo *fakeUserRepo) (Service, *fakeNotificationRepo, *fakePublisher) {
	repo := &fakeNotificationRepo{}
	broker := &fakePublisher{}
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	svc := NewService(repo, userRepo, email.NewNoopService(), broker, log, nil)
	return svc, repo, broker
}

func grantedUser() *model.User {
	return &model.User{
		ID:                     uuid.New(),
		Email:                  "owner@example.com",
		NotificationPermission: model.PermissionGranted,
	}
}

func testEventFor(user *model.User) model.Event {
	return model.Event{
		ID:        uuid.New(),
		Name:      "Launch Party",
		Date:      time.Now().Add(time.Hour),
		CreatedBy: user.ID,
	}
}

func TestDispatchMilestoneDeliversAllChannels(t *testing.T) {
	user := grantedUser()
	svc, repo, broker := testService(&fakeUserRepo{user: user})
	event := testEventFor(user)

	err := svc.DispatchMilestone(context.Background(), event, countdown.MilestoneOneHour)
	require.NoError(t, err)

	// One record per channel, all sent.
	assert.Len(t, repo.created, 3)
	for _, n := range repo.created {
		assert.Equal(t, model.NotificationStatusSent, n.Status)
		assert.Equal(t, "countdown-"+event.ID.String()+"-one_hour", n.Tag)
		assert.NotNil(t, n.SentAt)
	}

	// The push channel went through the broker.
	assert.Len(t, broker.published, 1)
}

func TestDispatchMilestoneSuppressedWhenDenied(t *testing.T) {
	user := grantedUser()
	user.NotificationPermission = model.PermissionDenied
	svc, repo, broker := testService(&fakeUserRepo{user: user})
	event := testEventFor(user)

	// Denied permission swallows the notification without error, so the
	// caller never retries a milestone that has already advanced.
	err := svc.DispatchMilestone(context.Background(), event, countdown.MilestoneFinished)
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	assert.Equal(t, model.NotificationStatusSuppressed, repo.created[0].Status)
	assert.Empty(t, broker.published)
}

func TestDispatchMilestoneMarksFirstPermissionRequest(t *testing.T) {
	user := grantedUser()
	user.NotificationPermission = model.PermissionDefault
	userRepo := &fakeUserRepo{user: user}
	svc, repo, _ := testService(userRepo)
	event := testEventFor(user)

	require.NoError(t, svc.DispatchMilestone(context.Background(), event, countdown.MilestoneOneHour))
	assert.Equal(t, 1, userRepo.markedRequested)
	require.Len(t, repo.created, 1)
	assert.Equal(t, model.NotificationStatusSuppressed, repo.created[0].Status)

	// The request is one-time; a later milestone does not ask again.
	require.NoError(t, svc.DispatchMilestone(context.Background(), event, countdown.MilestoneFinished))
	assert.Equal(t, 1, userRepo.markedRequested)
}

func TestDispatchMilestoneRecordsChannelFailure(t *testing.T) {
	user := grantedUser()
	svc, repo, broker := testService(&fakeUserRepo{user: user})
	broker.err = errors.New("redis down")
	event := testEventFor(user)

	err := svc.DispatchMilestone(context.Background(), event, countdown.MilestoneThirtyMinutes)
	assert.Error(t, err)

	// The push failure is recorded; the other channels still delivered.
	pushed := repo.byChannel("push")
	require.Len(t, pushed, 1)
	assert.Equal(t, model.NotificationStatusFailed, pushed[0].Status)
	assert.Contains(t, pushed[0].LastError, "redis down")

	inApp := repo.byChannel("in_app")
	require.Len(t, inApp, 1)
	assert.Equal(t, model.NotificationStatusSent, inApp[0].Status)
}

func TestMilestoneMessages(t *testing.T) {
	event := model.Event{Name: "Graduation"}

	subject, content := milestoneMessage(event, countdown.MilestoneOneHour)
	assert.Equal(t, "⏰ Graduation", subject)
	assert.Contains(t, content, "1 hour")

	subject, content = milestoneMessage(event, countdown.MilestoneThirtyMinutes)
	assert.Equal(t, "⏰ Graduation", subject)
	assert.Contains(t, content, "30 minutes")

	subject, content = milestoneMessage(event, countdown.MilestoneFinished)
	assert.Equal(t, "🎉 Graduation has arrived!", subject)
	assert.NotEmpty(t, content)
}
