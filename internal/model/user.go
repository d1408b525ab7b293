package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationPermission mirrors the platform permission states: anything
// other than granted means notifications are suppressed but milestone state
// still advances.
type NotificationPermission string

const (
	PermissionDefault NotificationPermission = "default"
	PermissionGranted NotificationPermission = "granted"
	PermissionDenied  NotificationPermission = "denied"
)

type User struct {
	ID                     uuid.UUID              `db:"id" json:"id"`
	Name                   string                 `db:"name" json:"name"`
	Email                  string                 `db:"email" json:"email"`
	PasswordHash           string                 `db:"password_hash" json:"-"`
	NotificationPermission NotificationPermission `db:"notification_permission" json:"notification_permission"`
	PermissionRequestedAt  *time.Time             `db:"permission_requested_at" json:"permission_requested_at,omitempty"`
	CreatedAt              time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time              `db:"updated_at" json:"updated_at"`
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=120"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
