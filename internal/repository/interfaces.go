package repository

import (
	"context"
	"errors"

	"github.com/segyhp/client-followup/internal/domain"
)

// ErrBlobNotFound is returned by a BlobStore when nothing is stored under the key.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore is a key-value store holding opaque serialized values.
type BlobStore interface {
	// Get returns the value stored under key, or ErrBlobNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set replaces the value stored under key in a single write
	Set(ctx context.Context, key string, value []byte) error

	// Ping checks connectivity to the backing service
	Ping(ctx context.Context) error
}

// ClientRepository defines the interface for client record operations
type ClientRepository interface {
	// GetAll returns every stored client in insertion order
	GetAll(ctx context.Context) ([]*domain.Client, error)

	// GetByID returns the client with id, or nil when none exists
	GetByID(ctx context.Context, id string) (*domain.Client, error)

	// Save upserts a client by id, preserving CreatedAt on update
	Save(ctx context.Context, client *domain.Client) (*domain.Client, error)

	// Delete removes the client with id; deleting a missing id is a no-op
	Delete(ctx context.Context, id string) error

	// Search matches the query against customer, co-applicant, bank and contact number
	Search(ctx context.Context, query string) ([]*domain.Client, error)
}
