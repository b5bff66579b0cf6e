package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

const createBlobTable = `
	CREATE TABLE IF NOT EXISTS app_storage (
		key        TEXT PRIMARY KEY,
		value      BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

type postgresBlobStore struct {
	db *sqlx.DB
}

func NewPostgresBlobStore(db *sqlx.DB) BlobStore {
	return &postgresBlobStore{db: db}
}

// EnsurePostgresSchema creates the key/value table when it does not exist yet.
func EnsurePostgresSchema(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, createBlobTable)
	return err
}

func (s *postgresBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := `
		SELECT value
		FROM app_storage
		WHERE key = $1
	`

	var value []byte
	err := s.db.GetContext(ctx, &value, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, err
	}

	return value, nil
}

func (s *postgresBlobStore) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO app_storage (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`

	_, err := s.db.ExecContext(ctx, query, key, value)
	return err
}

func (s *postgresBlobStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
