package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/wecount/countdown-api/internal/model"
)

// ErrNotFound is returned when a looked-up row does not exist, so callers
// can tell absence apart from a failing database.
var ErrNotFound = errors.New("not found")

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpdatePermission(ctx context.Context, id uuid.UUID, permission model.NotificationPermission) error
	MarkPermissionRequested(ctx context.Context, id uuid.UUID, at time.Time) error
}

type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	Get(ctx context.Context, id uuid.UUID) (*model.Event, error)
	GetByPIN(ctx context.Context, pin string) (*model.Event, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Event, error)
	Update(ctx context.Context, event *model.Event) error
	Delete(ctx context.Context, id uuid.UUID) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type WallRepository interface {
	CreatePost(ctx context.Context, post *model.WallPost) error
	GetPost(ctx context.Context, id uuid.UUID) (*model.WallPost, error)
	ListPosts(ctx context.Context, eventID uuid.UUID) ([]*model.WallPost, error)
	DeletePost(ctx context.Context, id uuid.UUID) error
	AddReaction(ctx context.Context, reaction *model.WallReaction) error
	RemoveReaction(ctx context.Context, postID, userID uuid.UUID, emoji string) error
	GetReaction(ctx context.Context, postID, userID uuid.UUID, emoji string) (*model.WallReaction, error)
	ListReactions(ctx context.Context, postID uuid.UUID) ([]*model.WallReaction, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *model.Notification) error
	Update(ctx context.Context, notification *model.Notification) error
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*model.Notification, error)
}
