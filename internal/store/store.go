package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/wecount/countdown-api/internal/countdown"
	"github.com/wecount/countdown-api/internal/model"
)

var (
	// ErrUnavailable means the underlying persistence engine cannot be
	// reached. Callers treat it as non-fatal: skip persistence for the
	// cycle and keep ticking.
	ErrUnavailable = errors.New("countdown store unavailable")

	ErrNotFound = errors.New("countdown record not found")
)

// Record is the persisted state for one tracked countdown, keyed by the
// event id. LastTimeLeft is a display hint only; evaluators always
// re-derive from Event.Date and wall-clock time.
type Record struct {
	ID           uuid.UUID          `json:"id"`
	Event        model.Event        `json:"event"`
	LastTimeLeft countdown.TimeLeft `json:"last_time_left"`
	IsFinished   bool               `json:"is_finished"`
}

// NewRecord builds a record for an event with TimeLeft derived at now.
func NewRecord(event model.Event, tl countdown.TimeLeft) *Record {
	return &Record{
		ID:           event.ID,
		Event:        event,
		LastTimeLeft: tl,
		IsFinished:   tl.IsZero(),
	}
}

// Store persists countdown records shared between the API process and the
// background worker. Put is an idempotent whole-record upsert,
// last-writer-wins; there is no partial update.
type Store interface {
	Put(ctx context.Context, record *Record) error
	Get(ctx context.Context, id uuid.UUID) (*Record, error)
	GetAll(ctx context.Context) ([]*Record, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Close() error
}
