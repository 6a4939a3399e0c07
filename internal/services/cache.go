package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BrandonT-ops/chatbot-project/internal/models"
)

// ErrCacheMiss is returned when a key is absent.
var ErrCacheMiss = errors.New("cache miss")

// CacheService wraps Redis for search-result caching and session blobs.
type CacheService struct {
	client *redis.Client
}

func NewCacheService(client *redis.Client) *CacheService {
	return &CacheService{client: client}
}

// Ping verifies the Redis connection.
func (s *CacheService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *CacheService) setJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache key %s: %w", key, err)
	}
	return nil
}

func (s *CacheService) getJSON(ctx context.Context, key string, out any) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("failed to get cache key %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// ═══════════════════════════════════════════════════════════
// SEARCH RESULT CACHE
// ═══════════════════════════════════════════════════════════

func searchKey(query string) string {
	return "search:" + query
}

// GetSearchResults returns cached products for a query, or ErrCacheMiss.
func (s *CacheService) GetSearchResults(ctx context.Context, query string) ([]models.Product, error) {
	var products []models.Product
	if err := s.getJSON(ctx, searchKey(query), &products); err != nil {
		return nil, err
	}
	return products, nil
}

// SetSearchResults caches products for a query with the given TTL.
func (s *CacheService) SetSearchResults(ctx context.Context, query string, products []models.Product, ttl time.Duration) error {
	return s.setJSON(ctx, searchKey(query), products, ttl)
}

// ═══════════════════════════════════════════════════════════
// SESSION BLOBS
// ═══════════════════════════════════════════════════════════

// Session state persists as a single serialized blob under one namespace,
// the same shape the web client kept in chat-storage.
func sessionKey(sessionID string) string {
	return "chat-storage:" + sessionID
}

// SaveSessionBlob stores the serialized session snapshot.
func (s *CacheService) SaveSessionBlob(ctx context.Context, sessionID string, blob []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionKey(sessionID), blob, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session %s: %w", sessionID, err)
	}
	return nil
}

// LoadSessionBlob returns the serialized snapshot, or ErrCacheMiss.
func (s *CacheService) LoadSessionBlob(ctx context.Context, sessionID string) ([]byte, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	return data, nil
}

// DeleteSessionBlob removes the snapshot (sign-out, new conversation reset).
func (s *CacheService) DeleteSessionBlob(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKey(sessionID)).Err()
}
