package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/segyhp/client-followup/internal/domain"
)

type clientRepository struct {
	store BlobStore
	key   string
	now   func() time.Time

	// serializes read-modify-write cycles within this process
	mu sync.Mutex
}

// NewClientRepository stores the whole client collection as one JSON array under key.
func NewClientRepository(store BlobStore, key string, now func() time.Time) ClientRepository {
	if now == nil {
		now = time.Now
	}
	return &clientRepository{store: store, key: key, now: now}
}

func (r *clientRepository) load(ctx context.Context) ([]*domain.Client, error) {
	data, err := r.store.Get(ctx, r.key)
	if errors.Is(err, ErrBlobNotFound) {
		return []*domain.Client{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.key, err)
	}
	if len(data) == 0 {
		return []*domain.Client{}, nil
	}

	var clients []*domain.Client
	if err := json.Unmarshal(data, &clients); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.key, err)
	}
	return clients, nil
}

func (r *clientRepository) write(ctx context.Context, clients []*domain.Client) error {
	// encode fully before touching the store so a failure leaves the old blob intact
	data, err := json.Marshal(clients)
	if err != nil {
		return fmt.Errorf("encode %s: %w", r.key, err)
	}
	if err := r.store.Set(ctx, r.key, data); err != nil {
		return fmt.Errorf("write %s: %w", r.key, err)
	}
	return nil
}

func (r *clientRepository) GetAll(ctx context.Context) ([]*domain.Client, error) {
	return r.load(ctx)
}

func (r *clientRepository) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	clients, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range clients {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (r *clientRepository) Save(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	clients, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	now := r.now()
	saved := *client

	index := -1
	for i, c := range clients {
		if c.ID == client.ID {
			index = i
			break
		}
	}

	next := make([]*domain.Client, len(clients), len(clients)+1)
	copy(next, clients)

	if index >= 0 {
		saved.CreatedAt = clients[index].CreatedAt
		saved.UpdatedAt = now
		next[index] = &saved
	} else {
		if saved.CreatedAt.IsZero() {
			saved.CreatedAt = now
		}
		if saved.UpdatedAt.IsZero() {
			saved.UpdatedAt = now
		}
		next = append(next, &saved)
	}

	if err := r.write(ctx, next); err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *clientRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clients, err := r.load(ctx)
	if err != nil {
		return err
	}

	filtered := make([]*domain.Client, 0, len(clients))
	for _, c := range clients {
		if c.ID != id {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == len(clients) {
		return nil
	}

	return r.write(ctx, filtered)
}

func (r *clientRepository) Search(ctx context.Context, query string) ([]*domain.Client, error) {
	clients, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.TrimSpace(query)
	if q == "" {
		return clients, nil
	}
	lower := strings.ToLower(q)

	matches := make([]*domain.Client, 0)
	for _, c := range clients {
		if strings.Contains(strings.ToLower(c.NameOfCustomer), lower) ||
			strings.Contains(c.ContactNumber, q) ||
			strings.Contains(strings.ToLower(c.NameOfCoApplicant), lower) ||
			strings.Contains(strings.ToLower(c.LoginBankName), lower) {
			matches = append(matches, c)
		}
	}
	return matches, nil
}
