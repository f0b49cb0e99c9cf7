package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrNotFound is returned when no session record exists for an ID
var ErrNotFound = errors.New("session not found")

// Session is the server-side session record. The selected domain lives here so
// it survives navigation and is visible to every handler that reads the store.
type Session struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`

	// UpstreamToken is the platform API bearer token issued at sign-in.
	// It never leaves the server; resource clients read it from here.
	UpstreamToken string `json:"upstream_token,omitempty"`

	SelectedDomainID int64 `json:"selected_domain_id,omitempty"`
}

// Expired reports whether the record is past its expiry
func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Store persists session records. Writes are last-write-wins: records are
// only ever written by direct user action, never by concurrent background
// processes.
type Store interface {
	// Put stores a session record until its expiry
	Put(ctx context.Context, sess *Session) error

	// Get retrieves a session record by ID
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes a session record
	Delete(ctx context.Context, id string) error

	// SetSelectedDomain persists the domain selection on a session record
	SetSelectedDomain(ctx context.Context, id string, domainID int64) error
}

// RedisStore keeps session records in Redis with native expiry
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed session store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(id string) string {
	return "novaflow:session:" + id
}

// Put stores a session record until its expiry
func (s *RedisStore) Put(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	if err := s.client.Set(ctx, redisKey(sess.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Get retrieves a session record by ID
func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.client.Get(ctx, redisKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if sess.Expired() {
		return nil, ErrNotFound
	}
	return &sess, nil
}

// Delete removes a session record
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, redisKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// SetSelectedDomain persists the domain selection on a session record
func (s *RedisStore) SetSelectedDomain(ctx context.Context, id string, domainID int64) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	sess.SelectedDomainID = domainID
	return s.Put(ctx, sess)
}

// MemoryStore keeps session records in process memory. Used for local
// development and tests when no Redis URL is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates an in-memory session store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
	}
}

// Put stores a session record until its expiry
func (s *MemoryStore) Put(ctx context.Context, sess *Session) error {
	if sess.Expired() {
		return fmt.Errorf("session already expired")
	}
	copied := *sess
	s.mu.Lock()
	s.sessions[sess.ID] = &copied
	s.mu.Unlock()
	return nil
}

// Get retrieves a session record by ID
func (s *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok || sess.Expired() {
		return nil, ErrNotFound
	}
	copied := *sess
	return &copied, nil
}

// Delete removes a session record
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// SetSelectedDomain persists the domain selection on a session record
func (s *MemoryStore) SetSelectedDomain(ctx context.Context, id string, domainID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.Expired() {
		return ErrNotFound
	}
	sess.SelectedDomainID = domainID
	return nil
}

// Sweep removes expired records. Redis expires keys natively; this only
// matters for the memory store.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.Expired() {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of live records
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
