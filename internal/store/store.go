// Package store keeps the per-profile client identity and the connection
// every resource page operates on.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/dbconsole/dbconsole/internal/model"
)

// Keys under which the store persists its state.
const (
	KeyClientID         = "clientId"
	KeyActiveConnection = "activeConnection"
)

// ErrCorruptState reports a persisted active connection that could not be
// decoded. The store recovers by discarding it.
var ErrCorruptState = errors.New("store: corrupt persisted active connection")

// Store holds the client identity and active connection for one profile,
// mirrored to its Storage.
type Store struct {
	storage Storage

	mu       sync.Mutex
	clientID string
	active   *model.Connection
}

// New creates a Store over storage and loads the persisted active connection.
// An active connection that cannot be decoded is logged, removed from storage
// and treated as absent.
func New(storage Storage) (*Store, error) {
	s := &Store{storage: storage}

	active, err := loadActive(storage)
	if errors.Is(err, ErrCorruptState) {
		slog.Warn("discarding persisted active connection", "err", err)
		if rmErr := storage.Remove(KeyActiveConnection); rmErr != nil {
			return nil, fmt.Errorf("removing corrupt active connection: %w", rmErr)
		}
	} else if err != nil {
		return nil, err
	}
	s.active = active

	return s, nil
}

func loadActive(storage Storage) (*model.Connection, error) {
	raw, ok, err := storage.Get(KeyActiveConnection)
	if errors.Is(err, ErrUnseal) {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	if err != nil {
		return nil, fmt.Errorf("reading active connection: %w", err)
	}
	if !ok || raw == "" || raw == "null" {
		return nil, nil
	}

	var c model.Connection
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	return &c, nil
}

// ClientID returns the profile's client identifier, minting and persisting a
// new UUID on first use. A stored id that no longer unseals, after the
// secret changed, is replaced the same way.
func (s *Store) ClientID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.clientID != "" {
		return s.clientID, nil
	}

	id, ok, err := s.storage.Get(KeyClientID)
	if errors.Is(err, ErrUnseal) {
		slog.Warn("discarding unreadable client id, minting a new one", "err", err)
		id, ok, err = "", false, nil
	}
	if err != nil {
		return "", fmt.Errorf("reading client id: %w", err)
	}
	if !ok || id == "" {
		id = uuid.NewString()
		if err := s.storage.Set(KeyClientID, id); err != nil {
			return "", fmt.Errorf("persisting client id: %w", err)
		}
		slog.Debug("minted client id", "client_id", id)
	}

	s.clientID = id
	return id, nil
}

// ActiveConnection returns a copy of the active connection, or nil.
func (s *Store) ActiveConnection() *model.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	c := *s.active
	return &c
}

// SetActiveConnection replaces the active connection and persists it.
func (s *Store) SetActiveConnection(c model.Connection) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding active connection: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Set(KeyActiveConnection, string(data)); err != nil {
		return fmt.Errorf("persisting active connection: %w", err)
	}
	s.active = &c
	return nil
}

// ClearActiveConnection forgets the active connection.
func (s *Store) ClearActiveConnection() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Remove(KeyActiveConnection); err != nil {
		return fmt.Errorf("removing active connection: %w", err)
	}
	s.active = nil
	return nil
}

// IsActive reports whether c is the active connection. Connections are
// matched by id when both have one, otherwise by name.
func (s *Store) IsActive(c model.Connection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return false
	}
	if s.active.ID != "" && c.ID != "" {
		return s.active.ID == c.ID
	}
	return s.active.ConnectionName != "" && s.active.ConnectionName == c.ConnectionName
}
