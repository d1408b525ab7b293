package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/wecount/countdown-api/internal/model"
	"github.com/wecount/countdown-api/internal/repository"
)

type wallRepository struct {
	*BaseRepository
}

func NewWallRepository(db *sqlx.DB) repository.WallRepository {
	return &wallRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *wallRepository) CreatePost(ctx context.Context, post *model.WallPost) error {
	query := `
		INSERT INTO wall_posts (
			id, event_id, user_id, type, content, media_url, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		post.ID,
		post.EventID,
		post.UserID,
		post.Type,
		post.Content,
		post.MediaURL,
		post.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create wall post: %w", err)
	}
	return nil
}

func (r *wallRepository) GetPost(ctx context.Context, id uuid.UUID) (*model.WallPost, error) {
	query := `
		SELECT id, event_id, user_id, type, content, media_url, created_at
		FROM wall_posts
		WHERE id = $1
	`
	var post model.WallPost
	err := r.db.GetContext(ctx, &post, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("wall post not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wall post: %w", err)
	}
	return &post, nil
}

func (r *wallRepository) ListPosts(ctx context.Context, eventID uuid.UUID) ([]*model.WallPost, error) {
	query := `
		SELECT id, event_id, user_id, type, content, media_url, created_at
		FROM wall_posts
		WHERE event_id = $1
		ORDER BY created_at DESC
	`
	var posts []*model.WallPost
	if err := r.db.SelectContext(ctx, &posts, query, eventID); err != nil {
		return nil, fmt.Errorf("failed to list wall posts: %w", err)
	}
	return posts, nil
}

// DeletePost removes a post and its reactions in one transaction.
func (r *wallRepository) DeletePost(ctx context.Context, id uuid.UUID) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM wall_reactions WHERE post_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete reactions: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM wall_posts WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete wall post: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("wall post not found")
		}
		return nil
	})
}

func (r *wallRepository) AddReaction(ctx context.Context, reaction *model.WallReaction) error {
	query := `
		INSERT INTO wall_reactions (id, post_id, user_id, emoji, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (post_id, user_id, emoji) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query,
		reaction.ID,
		reaction.PostID,
		reaction.UserID,
		reaction.Emoji,
		reaction.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add reaction: %w", err)
	}
	return nil
}

func (r *wallRepository) RemoveReaction(ctx context.Context, postID, userID uuid.UUID, emoji string) error {
	query := `
		DELETE FROM wall_reactions
		WHERE post_id = $1 AND user_id = $2 AND emoji = $3
	`
	if _, err := r.db.ExecContext(ctx, query, postID, userID, emoji); err != nil {
		return fmt.Errorf("failed to remove reaction: %w", err)
	}
	return nil
}

func (r *wallRepository) GetReaction(ctx context.Context, postID, userID uuid.UUID, emoji string) (*model.WallReaction, error) {
	query := `
		SELECT id, post_id, user_id, emoji, created_at
		FROM wall_reactions
		WHERE post_id = $1 AND user_id = $2 AND emoji = $3
	`
	var reaction model.WallReaction
	err := r.db.GetContext(ctx, &reaction, query, postID, userID, emoji)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reaction: %w", err)
	}
	return &reaction, nil
}

func (r *wallRepository) ListReactions(ctx context.Context, postID uuid.UUID) ([]*model.WallReaction, error) {
	query := `
		SELECT id, post_id, user_id, emoji, created_at
		FROM wall_reactions
		WHERE post_id = $1
		ORDER BY created_at ASC
	`
	var reactions []*model.WallReaction
	if err := r.db.SelectContext(ctx, &reactions, query, postID); err != nil {
		return nil, fmt.Errorf("failed to list reactions: %w", err)
	}
	return reactions, nil
}
