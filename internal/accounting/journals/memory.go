package journals

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kasirku/ledger/internal/accounting/shared"
)

// ErrInjected is returned by a MemoryRepository armed with FailAfter.
var ErrInjected = errors.New("journals: injected failure")

// MemoryRepository is an in-process ledger store. Transactions run one at a
// time and their writes become visible only on commit.
type MemoryRepository struct {
	txMu sync.Mutex

	mu        sync.RWMutex
	postings  []Posting
	entries   []JournalEntry
	links     map[string]uuid.UUID
	number    int64
	lineID    int64
	failAfter int
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{links: map[string]uuid.UUID{}}
}

// FailAfter makes the n-th write of the next transaction fail, n starting
// at 1. Zero disarms it.
func (m *MemoryRepository) FailAfter(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAfter = n
}

func (m *MemoryRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	tx := &memoryTx{repo: m, links: map[string]uuid.UUID{}, number: m.number, lineID: m.lineID, failAfter: m.failAfter}
	m.failAfter = 0
	m.mu.Unlock()
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.postings = append(m.postings, tx.postings...)
	m.entries = append(m.entries, tx.entries...)
	for k, v := range tx.links {
		m.links[k] = v
	}
	m.number, m.lineID = tx.number, tx.lineID
	return nil
}

func (m *MemoryRepository) Watermark(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.postings)), nil
}

func (m *MemoryRepository) GetPosting(ctx context.Context, id uuid.UUID) (Posting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.postings {
		if p.ID != id {
			continue
		}
		for _, e := range m.entries {
			if e.PostingID == id {
				p.Entries = append(p.Entries, e)
			}
		}
		return p, nil
	}
	return Posting{}, shared.NotFound("posting", id.String())
}

func (m *MemoryRepository) ListPostings(ctx context.Context, filter PostingFilter) ([]Posting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Posting
	for i := len(m.postings) - 1; i >= 0; i-- {
		p := m.postings[i]
		if filter.From != nil && p.Timestamp.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !p.Timestamp.Before(*filter.To) {
			continue
		}
		if filter.ReferenceType != "" && p.ReferenceType != filter.ReferenceType {
			continue
		}
		out = append(out, p)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryRepository) ListEntries(ctx context.Context, filter EntryFilter) ([]JournalEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []JournalEntry
	for _, e := range m.entries {
		if filter.Matches(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].Sequence < out[j].Sequence
	})
	return out, nil
}

type memoryTx struct {
	repo      *MemoryRepository
	postings  []Posting
	entries   []JournalEntry
	links     map[string]uuid.UUID
	number    int64
	lineID    int64
	writes    int
	failAfter int
}

func (t *memoryTx) write() error {
	t.writes++
	if t.failAfter > 0 && t.writes >= t.failAfter {
		return shared.Persistence("memory write", ErrInjected)
	}
	return nil
}

func (t *memoryTx) LockCounterparty(ctx context.Context, kind CounterpartyKind, name string) error {
	return ctx.Err()
}

func (t *memoryTx) CounterpartyTotals(ctx context.Context, accountCode, name string) (decimal.Decimal, decimal.Decimal, error) {
	debit, credit := decimal.Zero, decimal.Zero
	t.repo.mu.RLock()
	defer t.repo.mu.RUnlock()
	for _, set := range [][]JournalEntry{t.repo.entries, t.entries} {
		for _, e := range set {
			if e.AccountCode == accountCode && e.Counterparty == name {
				debit = debit.Add(e.Debit)
				credit = credit.Add(e.Credit)
			}
		}
	}
	return debit, credit, nil
}

func (t *memoryTx) InsertPosting(ctx context.Context, id uuid.UUID, in PostingInput) (Posting, error) {
	if err := t.write(); err != nil {
		return Posting{}, err
	}
	t.number++
	p := Posting{
		ID:            id,
		Number:        t.number,
		ReferenceType: in.ReferenceType,
		ReferenceID:   in.ReferenceID,
		Timestamp:     in.Timestamp,
		Actor:         in.Actor,
		Memo:          in.Memo,
		ReversalOf:    in.ReversalOf,
		CreatedAt:     time.Now(),
	}
	t.postings = append(t.postings, p)
	return p, nil
}

func (t *memoryTx) InsertEntries(ctx context.Context, posting Posting, lines []ResolvedLine) ([]JournalEntry, error) {
	out := make([]JournalEntry, 0, len(lines))
	for _, line := range lines {
		if err := t.write(); err != nil {
			return nil, err
		}
		t.lineID++
		e := JournalEntry{
			ID:            t.lineID,
			PostingID:     posting.ID,
			Sequence:      t.lineID,
			Timestamp:     posting.Timestamp,
			AccountID:     line.AccountID,
			AccountCode:   line.AccountCode,
			Debit:         line.Debit,
			Credit:        line.Credit,
			Description:   line.Description,
			ReferenceType: posting.ReferenceType,
			ReferenceID:   posting.ReferenceID,
			Counterparty:  line.Counterparty,
			Actor:         posting.Actor,
			CreatedAt:     posting.CreatedAt,
		}
		t.entries = append(t.entries, e)
		out = append(out, e)
	}
	return out, nil
}

func (t *memoryTx) LinkSource(ctx context.Context, module, key string, postingID uuid.UUID) error {
	if err := t.write(); err != nil {
		return err
	}
	k := module + "|" + key
	t.repo.mu.RLock()
	_, committed := t.repo.links[k]
	t.repo.mu.RUnlock()
	if _, staged := t.links[k]; committed || staged {
		return shared.ErrSourceConflict
	}
	t.links[k] = postingID
	return nil
}
