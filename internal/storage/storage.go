package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/pkg/session"
)

// Storage defines the interface for adventure session persistence.
type Storage interface {
	// Ping tests the storage connection
	Ping(ctx context.Context) error

	// Close closes the storage connection
	Close() error

	// SaveSession persists a session snapshot
	SaveSession(ctx context.Context, sess *session.AdventureSession) error

	// LoadSession retrieves a session by ID.
	// Returns nil if the session doesn't exist.
	LoadSession(ctx context.Context, id uuid.UUID) (*session.AdventureSession, error)

	// DeleteSession removes a session by ID
	DeleteSession(ctx context.Context, id uuid.UUID) error
}
