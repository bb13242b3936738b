package accounts

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kasirku/ledger/internal/accounting/shared"
)

// MemoryRepository keeps the chart of accounts in process.
type MemoryRepository struct {
	mu         sync.RWMutex
	byCode     map[string]Account
	nextID     int64
	referenced map[int64]bool
}

// NewMemoryRepository seeds the store with chart, typically DefaultChart().
func NewMemoryRepository(chart []Account) *MemoryRepository {
	m := &MemoryRepository{byCode: map[string]Account{}, referenced: map[int64]bool{}}
	for _, acc := range chart {
		m.nextID++
		acc.ID = m.nextID
		m.byCode[acc.Code] = acc
	}
	return m
}

// MarkReferenced flags an account as used by at least one journal line.
func (m *MemoryRepository) MarkReferenced(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.byCode[code]; ok {
		m.referenced[acc.ID] = true
	}
}

func (m *MemoryRepository) List(ctx context.Context, class *AccountClass) ([]Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Account, 0, len(m.byCode))
	for _, acc := range m.byCode {
		if class != nil && acc.Class != *class {
			continue
		}
		out = append(out, acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *MemoryRepository) GetByCode(ctx context.Context, code string) (Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc, ok := m.byCode[code]
	if !ok {
		return Account{}, shared.NotFound("account", code)
	}
	return acc, nil
}

func (m *MemoryRepository) Insert(ctx context.Context, in CreateInput) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byCode[in.Code]; ok {
		return Account{}, shared.ErrDuplicateCode
	}
	m.nextID++
	now := time.Now()
	acc := Account{ID: m.nextID, Code: in.Code, Name: in.Name, Class: in.Class, NormalSide: in.NormalSide, IsActive: true, CreatedAt: now, UpdatedAt: now}
	m.byCode[acc.Code] = acc
	return acc, nil
}

func (m *MemoryRepository) Update(ctx context.Context, acc Account) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byCode[acc.Code]; !ok {
		return Account{}, shared.NotFound("account", acc.Code)
	}
	acc.UpdatedAt = time.Now()
	m.byCode[acc.Code] = acc
	return acc, nil
}

func (m *MemoryRepository) Referenced(ctx context.Context, accountID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.referenced[accountID], nil
}
