package auth

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials indicates an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrEmailTaken indicates the email already belongs to an account.
	ErrEmailTaken = errors.New("auth: email already registered")
	// ErrStoreClosed is returned by Subscribe once the store stopped.
	ErrStoreClosed = errors.New("auth: session store closed")
)

// User represents an account. Its id scopes every record the user owns.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EventKind names a change of authentication state.
type EventKind string

const (
	EventSignedIn        EventKind = "signed_in"
	EventSignedOut       EventKind = "signed_out"
	EventPasswordChanged EventKind = "password_changed"
	EventRevoked         EventKind = "revoked"
)

// Event is published by the Store whenever a session changes state.
type Event struct {
	Kind      EventKind
	UserID    uuid.UUID
	SessionID string
	At        time.Time
}
