package results

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edsim/edsim/internal/scoring"
)

// memStore keeps results for the lifetime of the process, newest
// first.
type memStore struct {
	mu      sync.RWMutex
	records []*Record
	byID    map[uuid.UUID]*Record
}

func NewMemStore() Store {
	return &memStore{byID: make(map[uuid.UUID]*Record)}
}

func (s *memStore) Save(_ context.Context, res *scoring.Result) (*Record, error) {
	rec := &Record{ID: uuid.New(), CreatedAt: time.Now().UTC(), Result: res}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]*Record{rec}, s.records...)
	s.byID[rec.ID] = rec
	return rec, nil
}

func (s *memStore) Get(_ context.Context, id uuid.UUID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (s *memStore) List(_ context.Context, limit, offset int) ([]*Record, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := len(s.records)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	out := make([]*Record, end-offset)
	copy(out, s.records[offset:end])
	return out, total, nil
}

func (s *memStore) Rate(_ context.Context, id uuid.UUID, rating int, feedback string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	rec.Rating = &rating
	rec.Feedback = feedback
	return nil
}

func (s *memStore) CaseRated(_ context.Context, caseIndex int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		if rec.Result.CaseIndex == caseIndex && rec.Rating != nil {
			return true, nil
		}
	}
	return false, nil
}
