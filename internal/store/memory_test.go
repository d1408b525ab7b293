package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wecount/countdown-api/internal/countdown"
	"github.com/wecount/countdown-api/internal/model"
)

func testRecord(name string, tl countdown.TimeLeft) *Record {
	event := model.Event{
		ID:   uuid.New(),
		Name: name,
		Date: time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	return NewRecord(event, tl)
}

func TestMemoryStorePutGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec := testRecord("launch", countdown.TimeLeft{Hours: 2})
	require.NoError(t, s.Put(ctx, rec))

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Event.Name, got.Event.Name)
	assert.Equal(t, countdown.TimeLeft{Hours: 2}, got.LastTimeLeft)
	assert.False(t, got.IsFinished)
}

func TestMemoryStorePutIsIdempotentUpsert(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec := testRecord("launch", countdown.TimeLeft{Hours: 2})
	require.NoError(t, s.Put(ctx, rec))
	require.NoError(t, s.Put(ctx, rec))

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// A second write for the same id replaces the whole record.
	updated := *rec
	updated.LastTimeLeft = countdown.TimeLeft{}
	updated.IsFinished = true
	require.NoError(t, s.Put(ctx, &updated))

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, got.IsFinished)
	assert.True(t, got.LastTimeLeft.IsZero())
}

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec := testRecord("launch", countdown.TimeLeft{Minutes: 5})
	require.NoError(t, s.Put(ctx, rec))
	require.NoError(t, s.Delete(ctx, rec.ID))

	_, err := s.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent record is not an error.
	assert.NoError(t, s.Delete(ctx, rec.ID))
}

func TestMemoryStoreUnavailable(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec := testRecord("launch", countdown.TimeLeft{Minutes: 5})
	require.NoError(t, s.Put(ctx, rec))

	s.SetUnavailable(true)

	assert.ErrorIs(t, s.Put(ctx, rec), ErrUnavailable)
	_, err := s.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = s.GetAll(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, s.Delete(ctx, rec.ID), ErrUnavailable)

	// Recovery restores both the engine and the data it held.
	s.SetUnavailable(false)
	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
}

func TestNewRecordDerivesFinished(t *testing.T) {
	live := testRecord("launch", countdown.TimeLeft{Seconds: 30})
	assert.False(t, live.IsFinished)

	done := testRecord("launch", countdown.TimeLeft{})
	assert.True(t, done.IsFinished)
	assert.Equal(t, done.Event.ID, done.ID)
}
