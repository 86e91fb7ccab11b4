package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/adminkit/toggle/internal/models"
	"github.com/adminkit/toggle/internal/security"
)

// APIKeyPrefix marks keys issued by this service.
const APIKeyPrefix = "tk_"

// APIKeyStore handles API key issuance and lookup. Only sha256 fingerprints
// of keys are stored.
type APIKeyStore struct {
	Base
}

// NewAPIKeyStore creates an APIKeyStore.
func NewAPIKeyStore(base Base) *APIKeyStore {
	return &APIKeyStore{Base: base}
}

// ActorByAPIKey resolves an unrevoked key to its actor.
func (s *APIKeyStore) ActorByAPIKey(ctx context.Context, apiKey string) (*models.Actor, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var a models.Actor

	err := s.Pool.QueryRow(ctx,
		"SELECT actor_id, actor_name FROM api_keys WHERE key_hash = $1 AND revoked_at IS NULL",
		security.Fingerprint(apiKey),
	).Scan(&a.ID, &a.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("looking up api key: %w", err)
	}

	return &a, nil
}

// CreateAPIKey issues a new key for actorID and returns it. The raw key is
// not recoverable afterwards.
func (s *APIKeyStore) CreateAPIKey(ctx context.Context, actorID, actorName string) (string, error) {
	if actorID == "" {
		return "", fmt.Errorf("actor id is required")
	}

	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating api key: %w", err)
	}
	key := APIKeyPrefix + hex.EncodeToString(buf)

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := s.Pool.Exec(ctx,
		"INSERT INTO api_keys (key_hash, actor_id, actor_name) VALUES ($1, $2, $3)",
		security.Fingerprint(key), actorID, actorName,
	)
	if err != nil {
		return "", fmt.Errorf("inserting api key: %w", err)
	}

	return key, nil
}

// RevokeAPIKeys revokes every active key of actorID and returns how many.
func (s *APIKeyStore) RevokeAPIKeys(ctx context.Context, actorID string) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx,
		"UPDATE api_keys SET revoked_at = NOW() WHERE actor_id = $1 AND revoked_at IS NULL",
		actorID,
	)
	if err != nil {
		return 0, fmt.Errorf("revoking api keys: %w", err)
	}

	return int(tag.RowsAffected()), nil
}
