package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/BrandonT-ops/chatbot-project/internal/services"
	"github.com/BrandonT-ops/chatbot-project/internal/utils"
)

// BlobStore is the slice of the cache service used for session snapshots.
type BlobStore interface {
	SaveSessionBlob(ctx context.Context, sessionID string, blob []byte, ttl time.Duration) error
	LoadSessionBlob(ctx context.Context, sessionID string) ([]byte, error)
	DeleteSessionBlob(ctx context.Context, sessionID string) error
}

// Snapshot serialises the session state into the persisted blob format.
func (s *Store) Snapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	blob, err := json.Marshal(s.state)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot session state: %w", err)
	}
	return blob, nil
}

// Restore replaces the session state from a persisted blob. Unknown fields
// are ignored, missing fields get zero values.
func (s *Store) Restore(blob []byte) error {
	var state sessionState
	if err := json.Unmarshal(blob, &state); err != nil {
		return fmt.Errorf("failed to restore session state: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	return nil
}

// Persist writes the current snapshot through the blob store.
func (s *Store) Persist(ctx context.Context, blobs BlobStore, ttl time.Duration) error {
	blob, err := s.Snapshot()
	if err != nil {
		return err
	}
	return blobs.SaveSessionBlob(ctx, s.sessionID, blob, ttl)
}

// Hydrate loads the persisted snapshot, if one exists. A missing blob is
// not an error: the store keeps its fresh state.
func (s *Store) Hydrate(ctx context.Context, blobs BlobStore) error {
	blob, err := blobs.LoadSessionBlob(ctx, s.sessionID)
	if err != nil {
		if errors.Is(err, services.ErrCacheMiss) {
			return nil
		}
		return err
	}
	return s.Restore(blob)
}

// Manager keeps one Store per session and handles hydration and write-back.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Store

	backend    ConversationBackend
	blobs      BlobStore
	sessionTTL time.Duration
}

// NewManager creates a session registry. blobs may be nil when persistence
// is disabled.
func NewManager(backend ConversationBackend, blobs BlobStore, sessionTTL time.Duration) *Manager {
	return &Manager{
		sessions:   make(map[string]*Store),
		backend:    backend,
		blobs:      blobs,
		sessionTTL: sessionTTL,
	}
}

// GetOrCreate returns the store for a session, hydrating it from the blob
// store on first sight. A failed hydration degrades to a fresh store.
func (m *Manager) GetOrCreate(ctx context.Context, sessionID string) *Store {
	m.mu.Lock()
	if s, ok := m.sessions[sessionID]; ok {
		m.mu.Unlock()
		return s
	}
	s := New(sessionID, m.backend)
	m.sessions[sessionID] = s
	m.mu.Unlock()

	if m.blobs != nil {
		if err := s.Hydrate(ctx, m.blobs); err != nil {
			utils.LogWarn(ctx, "failed to hydrate session, starting fresh",
				slog.String("session_id", sessionID), slog.Any("error", err))
		}
	}
	return s
}

// Save persists the session snapshot. Called after each completed
// submission. Losing the snapshot means losing the session, so transient
// write failures are retried.
func (m *Manager) Save(ctx context.Context, s *Store) {
	if m.blobs == nil {
		return
	}
	err := utils.RetryWithBackoff(ctx, func() error {
		return s.Persist(ctx, m.blobs, m.sessionTTL)
	}, utils.DefaultRetryConfig())
	if err != nil {
		utils.LogError(ctx, "failed to persist session after retries", err,
			slog.String("session_id", s.SessionID()))
	}
}

// Drop removes a session from the registry and deletes its blob.
func (m *Manager) Drop(ctx context.Context, sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	if m.blobs != nil {
		if err := m.blobs.DeleteSessionBlob(ctx, sessionID); err != nil {
			utils.LogWarn(ctx, "failed to delete session blob",
				slog.String("session_id", sessionID), slog.Any("error", err))
		}
	}
}

// Count returns the number of live sessions, exported for metrics.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
