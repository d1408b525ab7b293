package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/wecount/countdown-api/internal/model"
	"github.com/wecount/countdown-api/internal/repository"
)

type eventRepository struct {
	db *sqlx.DB
}

func NewEventRepository(db *sqlx.DB) repository.EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, event *model.Event) error {
	query := `
		INSERT INTO events (
			id, name, date, emoji, theme, custom_message,
			pin, is_active, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.Name,
		event.Date,
		event.Emoji,
		event.Theme,
		event.CustomMessage,
		event.PIN,
		event.IsActive,
		event.CreatedBy,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *eventRepository) Get(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	query := `
		SELECT id, name, date, emoji, theme, custom_message,
			   pin, is_active, created_by, created_at, updated_at
		FROM events
		WHERE id = $1
	`
	var event model.Event
	err := r.db.GetContext(ctx, &event, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &event, nil
}

func (r *eventRepository) GetByPIN(ctx context.Context, pin string) (*model.Event, error) {
	query := `
		SELECT id, name, date, emoji, theme, custom_message,
			   pin, is_active, created_by, created_at, updated_at
		FROM events
		WHERE pin = $1
	`
	var event model.Event
	err := r.db.GetContext(ctx, &event, query, pin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event by PIN: %w", err)
	}
	return &event, nil
}

func (r *eventRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Event, error) {
	query := `
		SELECT id, name, date, emoji, theme, custom_message,
			   pin, is_active, created_by, created_at, updated_at
		FROM events
		WHERE created_by = $1
		ORDER BY date ASC
	`
	var events []*model.Event
	if err := r.db.SelectContext(ctx, &events, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

func (r *eventRepository) Update(ctx context.Context, event *model.Event) error {
	query := `
		UPDATE events
		SET name = $1, date = $2, emoji = $3, theme = $4,
			custom_message = $5, updated_at = $6
		WHERE id = $7
	`
	result, err := r.db.ExecContext(ctx, query,
		event.Name,
		event.Date,
		event.Emoji,
		event.Theme,
		event.CustomMessage,
		event.UpdatedAt,
		event.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("event not found")
	}
	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM events
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("event not found")
	}
	return nil
}

func (r *eventRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `
		UPDATE events
		SET is_active = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := r.db.ExecContext(ctx, query, active, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set event active: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("event not found")
	}
	return nil
}
