package utils

import (
	"fmt"
	"sync"
	"time"
)

// KeyRotator cycles through a pool of API keys round-robin, skipping keys
// that were marked exhausted (quota errors). Exhausted keys recover after
// the cooldown window so daily quotas do not permanently shrink the pool.
type KeyRotator struct {
	keys        []string
	exhaustedAt []time.Time
	cooldown    time.Duration
	next        int
	mu          sync.Mutex
}

// NewKeyRotator builds a rotator over the given keys. A 24h cooldown is the
// default when cooldown is zero.
func NewKeyRotator(keys []string, cooldown time.Duration) (*KeyRotator, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("key rotator requires at least one key")
	}
	if cooldown <= 0 {
		cooldown = 24 * time.Hour
	}
	return &KeyRotator{
		keys:        keys,
		exhaustedAt: make([]time.Time, len(keys)),
		cooldown:    cooldown,
	}, nil
}

// GetNextKey returns the next usable key and its index.
func (r *KeyRotator) GetNextKey() (string, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for i := 0; i < len(r.keys); i++ {
		idx := (r.next + i) % len(r.keys)
		if !r.exhaustedAt[idx].IsZero() && now.Sub(r.exhaustedAt[idx]) < r.cooldown {
			continue
		}
		r.exhaustedAt[idx] = time.Time{}
		r.next = (idx + 1) % len(r.keys)
		return r.keys[idx], idx, nil
	}

	return "", -1, fmt.Errorf("all %d API keys are exhausted", len(r.keys))
}

// MarkKeyAsExhausted records a quota failure for the key at idx.
func (r *KeyRotator) MarkKeyAsExhausted(idx int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if idx < 0 || idx >= len(r.keys) {
		return fmt.Errorf("key index %d out of range", idx)
	}
	r.exhaustedAt[idx] = time.Now()
	return nil
}

// GetTotalKeys returns the pool size.
func (r *KeyRotator) GetTotalKeys() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}
