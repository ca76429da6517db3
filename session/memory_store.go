package session

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore 进程内会话存储，Redis 不可用时和测试中使用
type MemoryStore struct {
	mu    sync.Mutex
	items *gocache.Cache
}

type memoryEntry struct {
	data  Data
	voted map[uint]struct{}
}

// NewMemoryStore 创建内存会话存储，过期条目每 cleanup 清理一次
func NewMemoryStore(cleanup time.Duration) *MemoryStore {
	return &MemoryStore{items: gocache.New(gocache.NoExpiration, cleanup)}
}

var _ Store = (*MemoryStore)(nil)

// entry 调用方必须持有 mu
func (s *MemoryStore) entry(id string) (*memoryEntry, bool) {
	v, ok := s.items.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*memoryEntry), true
}

func (s *MemoryStore) Load(_ context.Context, id string) (*Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entry(id)
	if !ok {
		return nil, ErrNoSession
	}
	data := e.data
	return &data, nil
}

func (s *MemoryStore) Save(_ context.Context, data *Data, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entry(data.ID)
	if !ok {
		e = &memoryEntry{voted: make(map[uint]struct{})}
	}
	e.data = *data
	s.items.Set(data.ID, e, ttl)
	return nil
}

func (s *MemoryStore) Destroy(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items.Delete(id)
	return nil
}

func (s *MemoryStore) MarkVoted(_ context.Context, id string, pollID uint, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entry(id)
	if !ok {
		e = &memoryEntry{data: Data{ID: id}, voted: make(map[uint]struct{})}
		s.items.Set(id, e, ttl)
	}
	if _, voted := e.voted[pollID]; voted {
		return false, nil
	}
	e.voted[pollID] = struct{}{}
	return true, nil
}

func (s *MemoryStore) UnmarkVoted(_ context.Context, id string, pollID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entry(id); ok {
		delete(e.voted, pollID)
	}
	return nil
}

func (s *MemoryStore) HasVoted(_ context.Context, id string, pollID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entry(id)
	if !ok {
		return false, nil
	}
	_, voted := e.voted[pollID]
	return voted, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Name() string { return "memoria" }
