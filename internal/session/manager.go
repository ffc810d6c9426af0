package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/openbusser/internal/api"
	"github.com/wolfeidau/openbusser/internal/models"
	"github.com/wolfeidau/openbusser/internal/telemetry"
)

// ErrNoSession is returned when an operation needs a session and none is stored.
var ErrNoSession = errors.New("not authenticated: no session")

// Backend is the subset of the API client used to manage sessions.
type Backend interface {
	RegisterSession(ctx context.Context) (*models.RegisterResponse, error)
	SendHeartbeat(ctx context.Context, creds api.Credentials) (bool, error)
}

// Manager bootstraps and reuses the client's session.
// There is no refresh or rotation; a session is reused until cleared.
type Manager struct {
	mu      sync.Mutex
	store   *Store
	backend Backend
}

// NewManager creates a manager persisting sessions in store.
func NewManager(store *Store, backend Backend) *Manager {
	return &Manager{store: store, backend: backend}
}

// Ensure returns the stored session, registering a new one if none exists.
// created is true only when a registration call was made.
func (m *Manager) Ensure(ctx context.Context) (creds api.Credentials, created bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	creds, err = m.store.Get(ctx)
	if err != nil {
		return api.Credentials{}, false, err
	}
	if !creds.IsZero() {
		return creds, false, nil
	}

	resp, err := m.backend.RegisterSession(ctx)
	if err != nil {
		return api.Credentials{}, false, err
	}

	creds = api.Credentials{SessionID: resp.ID, Token: resp.Token}
	if err := m.store.Set(ctx, creds); err != nil {
		return api.Credentials{}, false, err
	}

	telemetry.GetMetrics().SessionsRegisteredTotal.Add(ctx, 1)

	log.Info().Str("session_id", creds.SessionID).Msg("registered new session")

	return creds, true, nil
}

// Current returns the stored session or ErrNoSession.
func (m *Manager) Current(ctx context.Context) (api.Credentials, error) {
	creds, err := m.store.Get(ctx)
	if err != nil {
		return api.Credentials{}, err
	}
	if creds.IsZero() {
		return api.Credentials{}, ErrNoSession
	}
	return creds, nil
}

// Clear forgets the stored session. The next Ensure registers a new one.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.store.Clear(ctx)
}

// Heartbeat keeps the stored session inside the server's inactivity window.
func (m *Manager) Heartbeat(ctx context.Context) error {
	creds, err := m.Current(ctx)
	if err != nil {
		return err
	}

	ok, err := m.backend.SendHeartbeat(ctx, creds)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("heartbeat rejected for session %s", creds.SessionID)
	}

	log.Debug().Str("session_id", creds.SessionID).Msg("heartbeat sent")

	return nil
}
