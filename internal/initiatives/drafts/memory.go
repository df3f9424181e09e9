package drafts

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store. Expired batches are invisible to Get
// and are removed by PurgeExpired.
type MemoryStore struct {
	mu      sync.Mutex
	batches map[string]*Batch
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		batches: make(map[string]*Batch),
		now:     time.Now,
	}
}

func (s *MemoryStore) Save(_ context.Context, batch *Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[batch.ID] = cloneBatch(batch)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, ok := s.batches[id]
	if !ok {
		return nil, ErrBatchNotFound
	}
	if batch.Expired(s.now()) {
		delete(s.batches, id)
		return nil, ErrBatchNotFound
	}
	return cloneBatch(batch), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.batches, id)
	return nil
}

// PurgeExpired removes expired batches and returns how many were removed.
func (s *MemoryStore) PurgeExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, batch := range s.batches {
		if batch.Expired(now) {
			delete(s.batches, id)
			removed++
		}
	}
	return removed, nil
}

func cloneBatch(b *Batch) *Batch {
	out := *b
	out.Drafts = append([]Draft(nil), b.Drafts...)
	return &out
}
