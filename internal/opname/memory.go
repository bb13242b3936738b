package opname

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository keeps submissions in process.
type MemoryRepository struct {
	mu   sync.RWMutex
	subs []Submission
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (m *MemoryRepository) Insert(ctx context.Context, sub Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, sub)
	return nil
}

func (m *MemoryRepository) List(ctx context.Context, filter Filter) ([]Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Submission
	for _, s := range m.subs {
		if s.SubmittedAt.Before(filter.From) || !s.SubmittedAt.Before(filter.To) {
			continue
		}
		if filter.ItemID != "" && s.ItemID != filter.ItemID {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

// StaticCatalog serves a fixed item set.
type StaticCatalog map[string]Item

func (c StaticCatalog) Items(ctx context.Context, ids []string) (map[string]Item, error) {
	out := make(map[string]Item, len(ids))
	for _, id := range ids {
		if it, ok := c[id]; ok {
			out[id] = it
		}
	}
	return out, nil
}
