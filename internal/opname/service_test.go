package opname

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kasirku/ledger/internal/accounting/journals"
	"github.com/kasirku/ledger/internal/accounting/shared"
	internalShared "github.com/kasirku/ledger/internal/shared"
)

func qty(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

type memoryClaims struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func (m *memoryClaims) CheckAndInsert(ctx context.Context, key, module string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys == nil {
		m.keys = map[string]struct{}{}
	}
	if _, ok := m.keys[module+"|"+key]; ok {
		return internalShared.ErrIdempotencyConflict
	}
	m.keys[module+"|"+key] = struct{}{}
	return nil
}

func (m *memoryClaims) Delete(ctx context.Context, key, module string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, module+"|"+key)
	return nil
}

type posterStub struct {
	calls []Result
	refs  []string
}

func (p *posterStub) PostVariance(ctx context.Context, result Result, actor, referenceID string) (journals.Posting, error) {
	p.calls = append(p.calls, result)
	p.refs = append(p.refs, referenceID)
	return journals.Posting{ID: uuid.New(), Number: int64(len(p.calls)), ReferenceType: journals.RefStockVariance}, nil
}

var countDay = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func testCatalog() StaticCatalog {
	return StaticCatalog{
		"BRG-001": {ID: "BRG-001", Name: "Gula Pasir 1kg", SystemQuantity: qty(100), ReferencePrice: qty(15000)},
		"BRG-002": {ID: "BRG-002", Name: "Minyak Goreng 2L", SystemQuantity: qty(20), ReferencePrice: qty(34000)},
	}
}

func newTestService(cfg ServiceConfig) *Service {
	svc := NewService(NewMemoryRepository(), testCatalog(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.WithNow(func() time.Time { return countDay })
	return svc
}

func window() (time.Time, time.Time) {
	from := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 0, 1)
}

func TestRecapPoolsSubmissions(t *testing.T) {
	svc := newTestService(ServiceConfig{})
	ctx := context.Background()
	_, err := svc.SubmitCount(ctx, SubmitInput{ItemID: "BRG-001", Actor: "kasir1", PhysicalCount: qty(30)})
	require.NoError(t, err)
	_, err = svc.SubmitCount(ctx, SubmitInput{ItemID: "BRG-001", Actor: "kasir2", PhysicalCount: qty(40)})
	require.NoError(t, err)

	from, to := window()
	results, err := svc.Recap(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, results, 1)
	res := results[0]
	require.True(t, res.TotalSubmitted.Equal(qty(70)))
	require.True(t, res.Variance.Equal(qty(-30)))
	require.Equal(t, 2, res.ContributorCount)
	require.Equal(t, DirectionShortage, res.Direction)
	require.True(t, res.MonetaryValue.Equal(qty(450000)))
	require.Equal(t, "Gula Pasir 1kg", res.ItemName)
}

func TestDuplicateSubmissionsArePooledByDefault(t *testing.T) {
	svc := newTestService(ServiceConfig{})
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := svc.SubmitCount(ctx, SubmitInput{ItemID: "BRG-002", Actor: "kasir1", PhysicalCount: qty(15)})
		require.NoError(t, err)
	}
	from, to := window()
	results, err := svc.Recap(ctx, from, to)
	require.NoError(t, err)
	require.True(t, results[0].TotalSubmitted.Equal(qty(30)))
	require.True(t, results[0].Variance.Equal(qty(10)))
	require.Equal(t, DirectionSurplus, results[0].Direction)
	require.Equal(t, 1, results[0].ContributorCount)
	require.Equal(t, 2, results[0].SubmissionCount)
}

func TestOnePerActorPerDay(t *testing.T) {
	svc := newTestService(ServiceConfig{OnePerActorPerDay: true})
	svc.WithClaimer(&memoryClaims{})
	ctx := context.Background()

	_, err := svc.SubmitCount(ctx, SubmitInput{ItemID: "BRG-002", Actor: "kasir1", PhysicalCount: qty(15)})
	require.NoError(t, err)
	_, err = svc.SubmitCount(ctx, SubmitInput{ItemID: "BRG-002", Actor: "kasir1", PhysicalCount: qty(15)})
	require.ErrorIs(t, err, ErrDuplicateSubmission)
	_, err = svc.SubmitCount(ctx, SubmitInput{ItemID: "BRG-002", Actor: "kasir2", PhysicalCount: qty(5)})
	require.NoError(t, err)

	svc.WithNow(func() time.Time { return countDay.AddDate(0, 0, 1) })
	_, err = svc.SubmitCount(ctx, SubmitInput{ItemID: "BRG-002", Actor: "kasir1", PhysicalCount: qty(20)})
	require.NoError(t, err)
}

func TestSubmitValidation(t *testing.T) {
	svc := newTestService(ServiceConfig{})
	ctx := context.Background()
	_, err := svc.SubmitCount(ctx, SubmitInput{ItemID: "", Actor: "kasir1", PhysicalCount: qty(1)})
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.SubmitCount(ctx, SubmitInput{ItemID: "BRG-001", Actor: "kasir1", PhysicalCount: qty(-1)})
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.SubmitCount(ctx, SubmitInput{ItemID: "BRG-404", Actor: "kasir1", PhysicalCount: qty(1)})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRecapWindowAndMissingCatalog(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	require.NoError(t, repo.Insert(ctx, Submission{ID: uuid.New(), ItemID: "BRG-001", Actor: "a", PhysicalCount: qty(100), SubmittedAt: countDay.AddDate(0, 0, -1)}))
	require.NoError(t, repo.Insert(ctx, Submission{ID: uuid.New(), ItemID: "BRG-009", Actor: "a", PhysicalCount: qty(3), SubmittedAt: countDay}))
	svc := NewService(repo, testCatalog(), ServiceConfig{}, nil)

	from, to := window()
	results, err := svc.Recap(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "BRG-009", results[0].ItemID)
	require.True(t, results[0].CatalogMissing)
	require.True(t, results[0].MonetaryValue.IsZero())

	_, err = svc.Recap(ctx, to, from)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestPostAdjustment(t *testing.T) {
	svc := newTestService(ServiceConfig{})
	poster := &posterStub{}
	svc.WithPoster(poster)
	ctx := context.Background()
	_, err := svc.SubmitCount(ctx, SubmitInput{ItemID: "BRG-001", Actor: "kasir1", PhysicalCount: qty(94)})
	require.NoError(t, err)
	_, err = svc.SubmitCount(ctx, SubmitInput{ItemID: "BRG-002", Actor: "kasir1", PhysicalCount: qty(20)})
	require.NoError(t, err)

	from, to := window()
	result, posting, err := svc.PostAdjustment(ctx, "BRG-001", from, to, "admin")
	require.NoError(t, err)
	require.NotNil(t, posting)
	require.True(t, result.MonetaryValue.Equal(qty(90000)))
	require.Len(t, poster.calls, 1)
	require.Equal(t, AdjustmentReference("BRG-001", from, to), poster.refs[0])

	result, posting, err = svc.PostAdjustment(ctx, "BRG-002", from, to, "admin")
	require.NoError(t, err)
	require.Nil(t, posting)
	require.Equal(t, DirectionMatch, result.Direction)
	require.Len(t, poster.calls, 1)

	_, _, err = svc.PostAdjustment(ctx, "BRG-003", from, to, "admin")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestHandlerSubmitAndRecap(t *testing.T) {
	svc := newTestService(ServiceConfig{OnePerActorPerDay: true})
	svc.WithClaimer(&memoryClaims{})
	r := chi.NewRouter()
	NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).MountRoutes(r)

	body := []byte(`{"item_id":"BRG-001","actor":"kasir1","physical_count":"30"}`)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/submissions", bytes.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/submissions", bytes.NewReader(body)))
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/submissions", bytes.NewReader([]byte(`{"item_id":"BRG-001"}`))))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/recap?from=2025-03-10&to=2025-03-10", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Results []Result `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	require.True(t, resp.Results[0].Variance.Equal(qty(-70)))
}
