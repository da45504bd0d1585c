// Package persistence implements the conversation store adapters.
package persistence

import (
	"context"
	"sync"

	"assistant_server/core/domain"
)

// MemoryConversationStore keeps per-user message logs in process memory.
// Writes are serialized per user key; distinct users never contend.
type MemoryConversationStore struct {
	mu   sync.RWMutex
	logs map[string]*userLog
	cap  int
}

type userLog struct {
	mu       sync.Mutex
	messages []domain.Message
}

// NewMemoryConversationStore creates a store keeping at most cap messages
// per user; older entries are evicted first.
func NewMemoryConversationStore(cap int) *MemoryConversationStore {
	if cap <= 0 {
		cap = 200
	}
	return &MemoryConversationStore{
		logs: make(map[string]*userLog),
		cap:  cap,
	}
}

func (s *MemoryConversationStore) Append(_ context.Context, userKey string, msg domain.Message) error {
	log := s.logFor(userKey)

	log.mu.Lock()
	defer log.mu.Unlock()

	log.messages = append(log.messages, msg)
	if len(log.messages) > s.cap {
		log.messages = log.messages[len(log.messages)-s.cap:]
	}
	return nil
}

func (s *MemoryConversationStore) History(_ context.Context, userKey string) ([]domain.Message, error) {
	log := s.logFor(userKey)

	log.mu.Lock()
	defer log.mu.Unlock()

	out := make([]domain.Message, len(log.messages))
	copy(out, log.messages)
	return out, nil
}

func (s *MemoryConversationStore) logFor(userKey string) *userLog {
	s.mu.RLock()
	log, ok := s.logs[userKey]
	s.mu.RUnlock()
	if ok {
		return log
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if log, ok = s.logs[userKey]; !ok {
		log = &userLog{}
		s.logs[userKey] = log
	}
	return log
}
