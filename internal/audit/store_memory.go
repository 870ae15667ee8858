package audit

import (
	"context"
	"sync"

	"github.com/Raoof128/ILAE/internal/domain"
)

// InMemoryStore keeps records in memory. Used by tests and by deployments
// that do not need durable audit history.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []domain.AuditRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, record domain.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

// List returns matching records most recent first (reverse append order).
func (s *InMemoryStore) List(_ context.Context, filter Filter) ([]domain.AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.AuditRecord
	for i := len(s.records) - 1; i >= 0; i-- {
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
		if filter.Matches(s.records[i]) {
			out = append(out, s.records[i])
		}
	}
	return out, nil
}
