package accounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kasirku/ledger/internal/accounting/shared"
)

func newTestService() (*Service, *MemoryRepository) {
	repo := NewMemoryRepository(DefaultChart())
	return NewService(repo), repo
}

func TestGetAndListByClass(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	acc, err := svc.Get(ctx, " "+CodeCash+" ")
	require.NoError(t, err)
	require.Equal(t, "Kas Umum", acc.Name)
	require.Equal(t, SideDebit, acc.NormalSide)

	_, err = svc.Get(ctx, "9-9999")
	require.ErrorIs(t, err, shared.ErrNotFound)

	revenue := ClassRevenue
	list, err := svc.List(ctx, &revenue)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, CodeSalesRevenue, list[0].Code)

	bogus := AccountClass("ASSETS")
	_, err = svc.List(ctx, &bogus)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateDefaultsNormalSide(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	acc, err := svc.Create(ctx, CreateInput{Code: "4-2000", Name: " Pendapatan Konsinyasi ", Class: ClassRevenue})
	require.NoError(t, err)
	require.Equal(t, SideCredit, acc.NormalSide)
	require.Equal(t, "Pendapatan Konsinyasi", acc.Name)

	_, err = svc.Create(ctx, CreateInput{Code: "4-2000", Name: "Lagi", Class: ClassRevenue})
	require.ErrorIs(t, err, shared.ErrDuplicateCode)

	_, err = svc.Create(ctx, CreateInput{Code: "42000", Name: "Salah", Class: ClassRevenue})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateStructuralChangeBlockedOnceReferenced(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	liability := ClassLiability
	credit := SideCredit
	acc, err := svc.Update(ctx, CodeOperatingExp, UpdateInput{Class: &liability, NormalSide: &credit})
	require.NoError(t, err)
	require.Equal(t, ClassLiability, acc.Class)

	repo.MarkReferenced(CodeCash)
	_, err = svc.Update(ctx, CodeCash, UpdateInput{Class: &liability})
	require.ErrorIs(t, err, shared.ErrAccountReferenced)

	name := "Kas Toko"
	inactive := false
	acc, err = svc.Update(ctx, CodeCash, UpdateInput{Name: &name, IsActive: &inactive})
	require.NoError(t, err)
	require.Equal(t, "Kas Toko", acc.Name)
	require.False(t, acc.IsActive)

	blank := "  "
	_, err = svc.Update(ctx, CodeCash, UpdateInput{Name: &blank})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestParseClass(t *testing.T) {
	c, err := ParseClass(" asset ")
	require.NoError(t, err)
	require.Equal(t, ClassAsset, c)
	_, err = ParseClass("income")
	require.Error(t, err)
	require.Equal(t, SideCredit, NaturalSide(ClassEquity))
}
