package conversation

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// ReadState tracks per-user read cursors on threads. Cursors are advisory
// (unread badges); losing them is harmless, so they live in Redis rather than
// the case store.
type ReadState interface {
	// MarkRead advances the cursor to seq. Cursors never move backwards.
	MarkRead(ctx context.Context, threadID, userID string, seq uint64) error
	// LastRead returns the cursor, 0 when the user has read nothing.
	LastRead(ctx context.Context, threadID, userID string) (uint64, error)
}

// RedisReadState stores cursors in Redis.
type RedisReadState struct {
	client *redis.Client
}

// NewRedisReadState creates a Redis-backed read-state store.
func NewRedisReadState(client *redis.Client) *RedisReadState {
	return &RedisReadState{client: client}
}

func readKey(threadID, userID string) string {
	return fmt.Sprintf("strayaid:read:%s:%s", threadID, userID)
}

// markReadScript sets the cursor only when the new value is greater, so
// concurrent marks from multiple devices cannot move it backwards.
var markReadScript = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
local new = tonumber(ARGV[1])
if new > cur then
	redis.call('SET', KEYS[1], new)
	return new
end
return cur
`)

func (s *RedisReadState) MarkRead(ctx context.Context, threadID, userID string, seq uint64) error {
	return markReadScript.Run(ctx, s.client, []string{readKey(threadID, userID)}, seq).Err()
}

func (s *RedisReadState) LastRead(ctx context.Context, threadID, userID string) (uint64, error) {
	val, err := s.client.Get(ctx, readKey(threadID, userID)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(val, 10, 64)
}

// MemoryReadState is an in-process cursor store for tests and single-node
// deployments without Redis.
type MemoryReadState struct {
	mu      sync.Mutex
	cursors map[string]uint64
}

// NewMemoryReadState creates an in-memory read-state store.
func NewMemoryReadState() *MemoryReadState {
	return &MemoryReadState{cursors: make(map[string]uint64)}
}

func (s *MemoryReadState) MarkRead(ctx context.Context, threadID, userID string, seq uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := readKey(threadID, userID)
	if seq > s.cursors[key] {
		s.cursors[key] = seq
	}
	return nil
}

func (s *MemoryReadState) LastRead(ctx context.Context, threadID, userID string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursors[readKey(threadID, userID)], nil
}
