package visitor

import (
	"context"
	"sync"
	"time"

	"visitors/pkg/platform/sentinel"
)

// MemoryStore is a mutex-guarded in-memory Store. FindAll preserves insertion
// order so listings are stable, matching the relational store's id order.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	order  []int64
	items  map[int64]Visitor
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[int64]Visitor)}
}

func (s *MemoryStore) FindAll(_ context.Context) ([]Visitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	visitors := make([]Visitor, 0, len(s.order))
	for _, id := range s.order {
		visitors = append(visitors, s.items[id])
	}
	return visitors, nil
}

func (s *MemoryStore) FindByID(_ context.Context, id int64) (Visitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[id]
	if !ok {
		return Visitor{}, sentinel.ErrNotFound
	}
	return v, nil
}

func (s *MemoryStore) Save(_ context.Context, v Visitor) (Visitor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.ID == 0 {
		s.nextID++
		v.ID = s.nextID
	} else if v.ID > s.nextID {
		// Keep the counter ahead so an explicit id is never reissued.
		s.nextID = v.ID
	}
	if v.CreatedDate.IsZero() {
		v.CreatedDate = NewTimestamp(time.Now())
	}
	if _, exists := s.items[v.ID]; !exists {
		s.order = append(s.order, v.ID)
	}
	s.items[v.ID] = v
	return v, nil
}

func (s *MemoryStore) DeleteByID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.items, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) ExistsByID(_ context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[id]
	return ok, nil
}
