// Package store persists the client-local conversation cache: the message
// log under one key and the session id under another, restored verbatim on
// load.
package store

import (
	"context"
	"sync"

	"github.com/autonomind/autonomind-go/pkg/api"
)

// Storage keys, mirroring the layout the web client used.
const (
	HistoryKey = "am_history"
	SessionKey = "am_session"
)

// Store defines the interface for persisting and restoring the conversation
// cache. The session container is the sole writer.
type Store interface {
	// SaveHistory replaces the persisted message log.
	SaveHistory(ctx context.Context, msgs []api.Message) error

	// LoadHistory returns the persisted message log, or nil when none exists.
	LoadHistory(ctx context.Context) ([]api.Message, error)

	// ClearHistory removes the message log. The session id is untouched.
	ClearHistory(ctx context.Context) error

	// SaveSession replaces the persisted session id.
	SaveSession(ctx context.Context, id string) error

	// LoadSession returns the persisted session id, or "" when none exists.
	LoadSession(ctx context.Context) (string, error)

	// Close closes the store and releases any resources.
	Close() error
}

// Memory is an in-memory Store for tests and ephemeral sessions.
type Memory struct {
	mu      sync.RWMutex
	history []api.Message
	session string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) SaveHistory(_ context.Context, msgs []api.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append([]api.Message(nil), msgs...)
	return nil
}

func (m *Memory) LoadHistory(_ context.Context) ([]api.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.history == nil {
		return nil, nil
	}
	return append([]api.Message(nil), m.history...), nil
}

func (m *Memory) ClearHistory(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = nil
	return nil
}

func (m *Memory) SaveSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = id
	return nil
}

func (m *Memory) LoadSession(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session, nil
}

func (m *Memory) Close() error {
	return nil
}
