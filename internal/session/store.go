package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/wolfeidau/openbusser/internal/api"
	"github.com/wolfeidau/openbusser/internal/store"
)

const (
	sessionIDKey    = "openBusserSessionId"
	sessionTokenKey = "openBusserSessionToken"
)

// Store persists the session id and token in a key/value store.
type Store struct {
	kv store.KVStore
}

// NewStore creates a session store backed by kv.
func NewStore(kv store.KVStore) *Store {
	return &Store{kv: kv}
}

// Get returns the persisted session. Missing values are returned empty.
func (s *Store) Get(ctx context.Context) (api.Credentials, error) {
	id, err := s.value(ctx, sessionIDKey)
	if err != nil {
		return api.Credentials{}, err
	}

	token, err := s.value(ctx, sessionTokenKey)
	if err != nil {
		return api.Credentials{}, err
	}

	return api.Credentials{SessionID: id, Token: token}, nil
}

// Set persists the session.
func (s *Store) Set(ctx context.Context, creds api.Credentials) error {
	if err := s.kv.Set(ctx, sessionIDKey, creds.SessionID); err != nil {
		return fmt.Errorf("failed to store session id: %w", err)
	}
	if err := s.kv.Set(ctx, sessionTokenKey, creds.Token); err != nil {
		return fmt.Errorf("failed to store session token: %w", err)
	}
	return nil
}

// Clear removes the persisted session.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, sessionIDKey); err != nil {
		return fmt.Errorf("failed to clear session id: %w", err)
	}
	if err := s.kv.Delete(ctx, sessionTokenKey); err != nil {
		return fmt.Errorf("failed to clear session token: %w", err)
	}
	return nil
}

// HasValid returns true if both the session id and token are present.
func (s *Store) HasValid(ctx context.Context) bool {
	creds, err := s.Get(ctx)
	return err == nil && !creds.IsZero()
}

func (s *Store) value(ctx context.Context, key string) (string, error) {
	value, err := s.kv.Get(ctx, key)
	if errors.Is(err, store.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}
