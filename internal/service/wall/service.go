package wall

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/wecount/countdown-api/pkg/errors"

	"github.com/wecount/countdown-api/internal/model"
	"github.com/wecount/countdown-api/internal/repository"
	"github.com/wecount/countdown-api/pkg/logger"
	"github.com/wecount/countdown-api/pkg/messaging"
)

type Service struct {
	repo      repository.WallRepository
	eventRepo repository.EventRepository
	broker    messaging.Broker
	logger    *logger.Logger
}

func NewService(repo repository.WallRepository, eventRepo repository.EventRepository, broker messaging.Broker, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		eventRepo: eventRepo,
		broker:    broker,
		logger:    log,
	}
}

// CreatePost adds a message or photo to an event's wall. The wall is a
// collaborative feature: it requires the event to be activated.
func (s *Service) CreatePost(ctx context.Context, eventID, userID uuid.UUID, req *model.CreatePostRequest) (*model.WallPost, error) {
	event, err := s.eventRepo.Get(ctx, eventID)
	if err != nil {
		return nil, apperrors.NotFound("event", err)
	}
	if !event.IsActive {
		return nil, apperrors.Forbidden(fmt.Errorf("event wall is locked"))
	}
	if req.Type == model.PostTypeText && req.Content == "" {
		return nil, apperrors.BadRequest("content is required for text posts", nil)
	}
	if req.Type == model.PostTypePhoto && req.MediaURL == "" {
		return nil, apperrors.BadRequest("media URL is required for photo posts", nil)
	}

	post := &model.WallPost{
		ID:        uuid.New(),
		EventID:   eventID,
		UserID:    userID,
		Type:      req.Type,
		Content:   req.Content,
		MediaURL:  req.MediaURL,
		CreatedAt: time.Now(),
	}

	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	// Fan-out to live wall viewers is delegated to the broker.
	if err := s.broker.Publish(ctx, wallChannel(eventID), messaging.Message{
		Type:    "wall_post_created",
		Payload: post,
	}); err != nil {
		s.logger.Warn("failed to publish wall post",
			"event_id", eventID.String(),
			"error", err.Error())
	}

	return post, nil
}

func (s *Service) ListPosts(ctx context.Context, eventID uuid.UUID) ([]*model.WallPost, error) {
	posts, err := s.repo.ListPosts(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

func (s *Service) DeletePost(ctx context.Context, postID, userID uuid.UUID) error {
	post, err := s.repo.GetPost(ctx, postID)
	if err != nil {
		return apperrors.NotFound("post", err)
	}

	// Only the author or the event owner may remove a post.
	if post.UserID != userID {
		event, err := s.eventRepo.Get(ctx, post.EventID)
		if err != nil {
			return apperrors.NotFound("event", err)
		}
		if event.CreatedBy != userID {
			return apperrors.Forbidden(nil)
		}
	}

	if err := s.repo.DeletePost(ctx, postID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	if err := s.broker.Publish(ctx, wallChannel(post.EventID), messaging.Message{
		Type:    "wall_post_deleted",
		Payload: postID.String(),
	}); err != nil {
		s.logger.Warn("failed to publish wall post deletion",
			"post_id", postID.String(),
			"error", err.Error())
	}
	return nil
}

// ToggleReaction adds the emoji reaction if absent, removes it otherwise.
// Returns true when the reaction is present after the call.
func (s *Service) ToggleReaction(ctx context.Context, postID, userID uuid.UUID, emoji string) (bool, error) {
	existing, err := s.repo.GetReaction(ctx, postID, userID, emoji)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("failed to look up reaction: %w", err)
	}
	if existing != nil {
		if err := s.repo.RemoveReaction(ctx, postID, userID, emoji); err != nil {
			return true, fmt.Errorf("failed to remove reaction: %w", err)
		}
		return false, nil
	}

	reaction := &model.WallReaction{
		ID:        uuid.New(),
		PostID:    postID,
		UserID:    userID,
		Emoji:     emoji,
		CreatedAt: time.Now(),
	}
	if err := s.repo.AddReaction(ctx, reaction); err != nil {
		return false, fmt.Errorf("failed to add reaction: %w", err)
	}
	return true, nil
}

func (s *Service) ListReactions(ctx context.Context, postID uuid.UUID) ([]*model.WallReaction, error) {
	reactions, err := s.repo.ListReactions(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reactions: %w", err)
	}
	return reactions, nil
}

func wallChannel(eventID uuid.UUID) string {
	return "wall." + eventID.String()
}
