package model

import (
	"time"

	"github.com/google/uuid"
)

type PostType string

const (
	PostTypeText  PostType = "text"
	PostTypePhoto PostType = "photo"
)

// WallPost is a message or photo on an event's collaborative wall.
// Media upload and CDN transformation happen elsewhere; MediaURL is stored
// verbatim.
type WallPost struct {
	ID        uuid.UUID `db:"id" json:"id"`
	EventID   uuid.UUID `db:"event_id" json:"event_id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Type      PostType  `db:"type" json:"type"`
	Content   string    `db:"content" json:"content"`
	MediaURL  string    `db:"media_url" json:"media_url,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// WallReaction is an emoji reaction on a wall post, unique per
// (post, user, emoji).
type WallReaction struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PostID    uuid.UUID `db:"post_id" json:"post_id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Emoji     string    `db:"emoji" json:"emoji"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type CreatePostRequest struct {
	Type     PostType `json:"type" binding:"required,oneof=text photo"`
	Content  string   `json:"content" binding:"max=1000"`
	MediaURL string   `json:"media_url" binding:"omitempty,url"`
}

type ReactionRequest struct {
	Emoji string `json:"emoji" binding:"required,max=16"`
}
