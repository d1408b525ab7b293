package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationStatus string

const (
	NotificationStatusPending    NotificationStatus = "pending"
	NotificationStatusSent       NotificationStatus = "sent"
	NotificationStatusFailed     NotificationStatus = "failed"
	NotificationStatusSuppressed NotificationStatus = "suppressed"
)

// Notification is one milestone notification for one event. Tag is the
// platform dedupe key (countdown-<event_id>-<milestone>) so duplicate
// deliveries from independent contexts can be collapsed downstream.
type Notification struct {
	ID        uuid.UUID          `db:"id" json:"id"`
	EventID   uuid.UUID          `db:"event_id" json:"event_id"`
	UserID    uuid.UUID          `db:"user_id" json:"user_id"`
	Milestone string             `db:"milestone" json:"milestone"`
	Channel   string             `db:"channel" json:"channel"`
	Subject   string             `db:"subject" json:"subject"`
	Content   string             `db:"content" json:"content"`
	Tag       string             `db:"tag" json:"tag"`
	Status    NotificationStatus `db:"status" json:"status"`
	LastError string             `db:"last_error" json:"last_error,omitempty"`
	SentAt    *time.Time         `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt time.Time          `db:"created_at" json:"created_at"`
}
