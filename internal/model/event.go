package model

import (
	"time"

	"github.com/google/uuid"
)

// Event is a named target instant a countdown counts down to. The countdown
// core treats it as read-only input; Date is the single source of truth for
// every TimeLeft derivation.
type Event struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Date          time.Time `db:"date" json:"date"`
	Emoji         string    `db:"emoji" json:"emoji"`
	Theme         string    `db:"theme" json:"theme"`
	CustomMessage string    `db:"custom_message" json:"custom_message,omitempty"`
	PIN           string    `db:"pin" json:"pin,omitempty"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedBy     uuid.UUID `db:"created_by" json:"created_by"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

type CreateEventRequest struct {
	Name          string    `json:"name" binding:"required,max=120"`
	Date          time.Time `json:"date" binding:"required,futuredate"`
	Emoji         string    `json:"emoji" binding:"max=16"`
	Theme         string    `json:"theme" binding:"max=64"`
	CustomMessage string    `json:"custom_message" binding:"max=500"`
}

// UpdateEventRequest intentionally has no futuredate constraint: owners may
// move an event into the past to end it early.
type UpdateEventRequest struct {
	Name          string    `json:"name" binding:"required,max=120"`
	Date          time.Time `json:"date" binding:"required"`
	Emoji         string    `json:"emoji" binding:"max=16"`
	Theme         string    `json:"theme" binding:"max=64"`
	CustomMessage string    `json:"custom_message" binding:"max=500"`
}

// PINAccessRequest is the body of the PIN entry form.
type PINAccessRequest struct {
	PIN string `json:"pin" binding:"required,pin"`
}
