package event

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/patrickmn/go-cache"

	apperrors "github.com/wecount/countdown-api/pkg/errors"

	"github.com/wecount/countdown-api/internal/model"
	"github.com/wecount/countdown-api/internal/repository"
	"github.com/wecount/countdown-api/internal/service/tracking"
	"github.com/wecount/countdown-api/pkg/logger"
)

const (
	pinLength      = 6
	pinMaxAttempts = 5

	pinCacheTTL     = 15 * time.Minute
	pinCacheCleanup = time.Hour
)

type Service struct {
	repo     repository.EventRepository
	tracking *tracking.Service
	pinCache *cache.Cache
	logger   *logger.Logger
}

func NewService(repo repository.EventRepository, trackingSvc *tracking.Service, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		tracking: trackingSvc,
		pinCache: cache.New(pinCacheTTL, pinCacheCleanup),
		logger:   log,
	}
}

func (s *Service) CreateEvent(ctx context.Context, ownerID uuid.UUID, req *model.CreateEventRequest) (*model.Event, error) {
	if err := validateDate(req.Date); err != nil {
		return nil, err
	}

	event := &model.Event{
		ID:            uuid.New(),
		Name:          req.Name,
		Date:          req.Date.UTC(),
		Emoji:         req.Emoji,
		Theme:         req.Theme,
		CustomMessage: req.CustomMessage,
		CreatedBy:     ownerID,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	// PIN collisions are rare at 10^6 keyspace; retry a few times before
	// giving up. Only a duplicate PIN warrants another attempt.
	var err error
	for attempt := 0; attempt < pinMaxAttempts; attempt++ {
		event.PIN, err = generatePIN()
		if err != nil {
			return nil, fmt.Errorf("failed to generate PIN: %w", err)
		}
		err = s.repo.Create(ctx, event)
		if err == nil {
			return event, nil
		}
		if !isUniqueViolation(err) {
			return nil, fmt.Errorf("failed to create event: %w", err)
		}
	}
	return nil, fmt.Errorf("failed to create event: %w", err)
}

// isUniqueViolation reports whether err is a postgres unique_violation
// (code 23505), the only create failure a fresh PIN can resolve.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (s *Service) GetEvent(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	event, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("event", err)
	}
	return event, nil
}

// GetEventByPIN resolves the shared 6-digit PIN to an event, with a short
// lookup cache since PIN access is the hot path for invited viewers.
func (s *Service) GetEventByPIN(ctx context.Context, pin string) (*model.Event, error) {
	if len(pin) != pinLength {
		return nil, apperrors.BadRequest("invalid PIN", nil)
	}

	if cached, ok := s.pinCache.Get(pin); ok {
		event := cached.(model.Event)
		return &event, nil
	}

	event, err := s.repo.GetByPIN(ctx, pin)
	if err != nil {
		return nil, apperrors.NotFound("event", err)
	}

	s.pinCache.Set(pin, *event, cache.DefaultExpiration)
	return event, nil
}

func (s *Service) ListEvents(ctx context.Context, ownerID uuid.UUID) ([]*model.Event, error) {
	events, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

func (s *Service) UpdateEvent(ctx context.Context, id, ownerID uuid.UUID, req *model.UpdateEventRequest) (*model.Event, error) {
	event, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("event", err)
	}
	if event.CreatedBy != ownerID {
		return nil, apperrors.Forbidden(nil)
	}
	if err := validateDate(req.Date); err != nil {
		return nil, err
	}

	event.Name = req.Name
	event.Date = req.Date.UTC()
	event.Emoji = req.Emoji
	event.Theme = req.Theme
	event.CustomMessage = req.CustomMessage
	event.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	s.pinCache.Delete(event.PIN)

	// Keep the worker's copy fresh between persistence writes, and restart
	// the live tracker so milestone evaluation follows the new instant.
	s.tracking.PushUpdate(ctx, *event)
	if s.tracking.Tracked(event.ID) {
		s.tracking.Track(ctx, *event)
	}

	return event, nil
}

func (s *Service) DeleteEvent(ctx context.Context, id, ownerID uuid.UUID) error {
	event, err := s.repo.Get(ctx, id)
	if err != nil {
		return apperrors.NotFound("event", err)
	}
	if event.CreatedBy != ownerID {
		return apperrors.Forbidden(nil)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	s.pinCache.Delete(event.PIN)
	s.tracking.Forget(ctx, id)
	return nil
}

// ActivateEvent unlocks collaborative features. The payment flow itself is
// stubbed: activation flips the flag once the (fake) checkout completes.
func (s *Service) ActivateEvent(ctx context.Context, id, ownerID uuid.UUID) (*model.Event, error) {
	event, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("event", err)
	}
	if event.CreatedBy != ownerID {
		return nil, apperrors.Forbidden(nil)
	}

	if err := s.repo.SetActive(ctx, id, true); err != nil {
		return nil, fmt.Errorf("failed to activate event: %w", err)
	}
	event.IsActive = true
	event.UpdatedAt = time.Now()

	s.pinCache.Delete(event.PIN)
	s.tracking.PushUpdate(ctx, *event)

	return event, nil
}

func validateDate(date time.Time) error {
	if date.IsZero() {
		return apperrors.BadRequest("event date is required", nil)
	}
	return nil
}

func generatePIN() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < pinLength; i++ {
		max.Mul(max, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", pinLength, n), nil
}
