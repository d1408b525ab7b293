package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wecount/countdown-api/internal/countdown"
	"github.com/wecount/countdown-api/internal/email"
	"github.com/wecount/countdown-api/internal/model"
	"github.com/wecount/countdown-api/internal/repository"
	"github.com/wecount/countdown-api/pkg/logger"
	"github.com/wecount/countdown-api/pkg/messaging"
	"github.com/wecount/countdown-api/pkg/metrics"
)

const (
	channelPush  = "push"
	channelEmail = "email"
	channelInApp = "in_app"

	pushChannelName = "notifications"

	defaultFeedLimit = 50
)

type Service interface {
	countdown.Dispatcher
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.Notification, error)
}

type service struct {
	repo     repository.NotificationRepository
	userRepo repository.UserRepository
	emailSvc email.Service
	broker   messaging.Broker
	logger   *logger.Logger
	metrics  *metrics.Metrics
	channels []string
}

func NewService(
	repo repository.NotificationRepository,
	userRepo repository.UserRepository,
	emailSvc email.Service,
	broker messaging.Broker,
	log *logger.Logger,
	m *metrics.Metrics,
) Service {
	return &service{
		repo:     repo,
		userRepo: userRepo,
		emailSvc: emailSvc,
		broker:   broker,
		logger:   log,
		metrics:  m,
		channels: []string{channelInApp, channelPush, channelEmail},
	}
}

// DispatchMilestone delivers the at-most-once notification for a milestone
// crossing. A non-granted permission suppresses delivery but is not an
// error: the milestone state has already advanced and must not be retried.
func (s *service) DispatchMilestone(ctx context.Context, event model.Event, milestone countdown.Milestone) error {
	subject, content := milestoneMessage(event, milestone)
	tag := fmt.Sprintf("countdown-%s-%s", event.ID, milestone)

	permission, user, err := s.ensurePermission(ctx, event.CreatedBy)
	if err != nil {
		s.logger.Error(err, "failed to resolve notification permission",
			"event_id", event.ID.String())
		permission = model.PermissionDefault
	}

	if permission != model.PermissionGranted {
		s.record(ctx, event, milestone, channelInApp, subject, content, tag, model.NotificationStatusSuppressed, "")
		if s.metrics != nil {
			s.metrics.NotificationsSuppressed.Inc()
		}
		return nil
	}

	var lastErr error
	for _, channel := range s.channels {
		sendErr := s.deliver(ctx, event, user, channel, subject, content, tag)

		status := model.NotificationStatusSent
		errMsg := ""
		if sendErr != nil {
			status = model.NotificationStatusFailed
			errMsg = sendErr.Error()
			lastErr = sendErr
		}
		s.record(ctx, event, milestone, channel, subject, content, tag, status, errMsg)

		if s.metrics != nil {
			result := "success"
			if sendErr != nil {
				result = "error"
			}
			s.metrics.NotificationsDispatched.WithLabelValues(channel, result).Inc()
		}
	}

	return lastErr
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.Notification, error) {
	notifications, err := s.repo.ListForUser(ctx, userID, defaultFeedLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// ensurePermission resolves the owner's notification permission, recording
// the lazy one-time permission request on first contact.
func (s *service) ensurePermission(ctx context.Context, userID uuid.UUID) (model.NotificationPermission, *model.User, error) {
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return model.PermissionDefault, nil, err
	}

	if user.NotificationPermission == model.PermissionDefault && user.PermissionRequestedAt == nil {
		if err := s.userRepo.MarkPermissionRequested(ctx, userID, time.Now()); err != nil {
			s.logger.Warn("failed to mark permission request",
				"user_id", userID.String(),
				"error", err.Error())
		}
	}

	return user.NotificationPermission, user, nil
}

func (s *service) deliver(ctx context.Context, event model.Event, user *model.User, channel, subject, content, tag string) error {
	switch channel {
	case channelPush:
		return s.broker.Publish(ctx, pushChannelName, &model.Notification{
			ID:      uuid.New(),
			EventID: event.ID,
			UserID:  event.CreatedBy,
			Channel: channelPush,
			Subject: subject,
			Content: content,
			Tag:     tag,
		})
	case channelEmail:
		if user == nil {
			return fmt.Errorf("no recipient for email notification")
		}
		return s.emailSvc.SendCustom(ctx, user.Email, subject, content)
	case channelInApp:
		// The persisted row is the in-app feed entry itself.
		return nil
	default:
		return fmt.Errorf("unsupported channel: %s", channel)
	}
}

func (s *service) record(ctx context.Context, event model.Event, milestone countdown.Milestone, channel, subject, content, tag string, status model.NotificationStatus, lastError string) {
	now := time.Now()
	notification := &model.Notification{
		ID:        uuid.New(),
		EventID:   event.ID,
		UserID:    event.CreatedBy,
		Milestone: string(milestone),
		Channel:   channel,
		Subject:   subject,
		Content:   content,
		Tag:       tag,
		Status:    status,
		LastError: lastError,
		CreatedAt: now,
	}
	if status == model.NotificationStatusSent {
		notification.SentAt = &now
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		s.logger.Error(err, "failed to record notification",
			"event_id", event.ID.String(),
			"milestone", string(milestone))
	}
}

func milestoneMessage(event model.Event, milestone countdown.Milestone) (subject, content string) {
	switch milestone {
	case countdown.MilestoneOneHour:
		return fmt.Sprintf("⏰ %s", event.Name),
			"Only 1 hour left! Get ready for the big moment!"
	case countdown.MilestoneThirtyMinutes:
		return fmt.Sprintf("⏰ %s", event.Name),
			"Only 30 minutes to go! The countdown is almost over!"
	case countdown.MilestoneFinished:
		return fmt.Sprintf("🎉 %s has arrived!", event.Name),
			"The moment you have been waiting for is finally here!"
	default:
		return event.Name, ""
	}
}
