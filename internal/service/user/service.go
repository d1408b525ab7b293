package user

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/wecount/countdown-api/pkg/errors"

	"github.com/wecount/countdown-api/internal/model"
	"github.com/wecount/countdown-api/internal/repository"
	"github.com/wecount/countdown-api/pkg/auth"
	"github.com/wecount/countdown-api/pkg/security"
)

type Service struct {
	repo   repository.UserRepository
	hasher security.PasswordHasher
	jwtSvc auth.JWTService
}

func NewService(repo repository.UserRepository, hasher security.PasswordHasher, jwtSvc auth.JWTService) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		jwtSvc: jwtSvc,
	}
}

func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:                     uuid.New(),
		Name:                   req.Name,
		Email:                  req.Email,
		PasswordHash:           hash,
		NotificationPermission: model.PermissionDefault,
		CreatedAt:              time.Now(),
		UpdatedAt:              time.Now(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	// The same opaque error for unknown email and wrong password.
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperrors.Unauthorized(fmt.Errorf("invalid credentials"))
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperrors.Unauthorized(fmt.Errorf("invalid credentials"))
	}

	token, err := s.jwtSvc.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &model.LoginResponse{Token: token, User: user}, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("user", err)
	}
	return user, nil
}

// SetNotificationPermission records the user's answer to the one-time
// notification permission prompt.
func (s *Service) SetNotificationPermission(ctx context.Context, id uuid.UUID, permission model.NotificationPermission) error {
	switch permission {
	case model.PermissionGranted, model.PermissionDenied, model.PermissionDefault:
	default:
		return apperrors.BadRequest(fmt.Sprintf("invalid permission: %s", permission), nil)
	}

	if err := s.repo.UpdatePermission(ctx, id, permission); err != nil {
		return fmt.Errorf("failed to update permission: %w", err)
	}
	return nil
}
