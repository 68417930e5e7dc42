package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/postforge/postforge/internal/workflow"
)

// Snapshot is a paused conversation: the state at the pause point and the
// graph nodes execution resumes from.
type Snapshot struct {
	State      workflow.State `json:"state"`
	ResumeFrom []string       `json:"resume_from"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// StateStore persists paused conversations between turns.
type StateStore interface {
	Load(ctx context.Context, id string) (Snapshot, bool, error)
	Save(ctx context.Context, id string, snap Snapshot) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps snapshots in process memory. Used when redis is not
// configured; conversations then survive only as long as the process.
type MemoryStore struct {
	mu    sync.RWMutex
	ttl   time.Duration
	snaps map[string]Snapshot
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, snaps: make(map[string]Snapshot)}
}

func (m *MemoryStore) Load(ctx context.Context, id string) (Snapshot, bool, error) {
	m.mu.RLock()
	snap, ok := m.snaps[id]
	m.mu.RUnlock()
	if !ok {
		return Snapshot{}, false, nil
	}
	if m.ttl > 0 && time.Since(snap.UpdatedAt) > m.ttl {
		m.mu.Lock()
		delete(m.snaps, id)
		m.mu.Unlock()
		return Snapshot{}, false, nil
	}
	return snap, true, nil
}

func (m *MemoryStore) Save(ctx context.Context, id string, snap Snapshot) error {
	m.mu.Lock()
	m.snaps[id] = snap
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.snaps, id)
	m.mu.Unlock()
	return nil
}

// RedisStore persists snapshots in redis with a TTL, so paused
// conversations survive restarts and expire on their own.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func key(id string) string { return "conversation:" + id }

func (r *RedisStore) Load(ctx context.Context, id string) (Snapshot, bool, error) {
	raw, err := r.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("loading conversation %s: %w", id, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("decoding conversation %s: %w", id, err)
	}
	return snap, true, nil
}

func (r *RedisStore) Save(ctx context.Context, id string, snap Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding conversation %s: %w", id, err)
	}
	if err := r.client.Set(ctx, key(id), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("saving conversation %s: %w", id, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("deleting conversation %s: %w", id, err)
	}
	return nil
}
