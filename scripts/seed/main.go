// Command seed fills a fresh database with a month of demo shop activity.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/kasirku/ledger/internal/accounting/journals"
	"github.com/kasirku/ledger/internal/accounting/periods"
	"github.com/kasirku/ledger/internal/accounting/shared"
	"github.com/kasirku/ledger/internal/app"
	"github.com/kasirku/ledger/internal/opname"
	"github.com/kasirku/ledger/internal/platform/calendar"
	"github.com/kasirku/ledger/internal/platform/db"
)

const actor = "seed"

type stockItem struct {
	id    string
	name  string
	qty   int64
	price int64
}

var catalog = []stockItem{
	{"SKU-GULA-1KG", "Gula Pasir 1kg", 40, 15000},
	{"SKU-BERAS-5KG", "Beras Premium 5kg", 25, 72000},
	{"SKU-MINYAK-2L", "Minyak Goreng 2L", 30, 34000},
	{"SKU-TELUR-1KG", "Telur Ayam 1kg", 20, 28000},
}

func main() {
	_ = godotenv.Load()
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := app.NewLogger(cfg)
	ctx := context.Background()

	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: 4})
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	services := app.NewServices(cfg, app.Backends{Pool: pool}, nil, logger)
	month := calendar.DayOf(time.Now()).AddDate(0, -1, 0)
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, calendar.Location())

	fmt.Println("→ Seeding stock catalog...")
	if err := seedCatalog(ctx, pool); err != nil {
		log.Fatalf("seed catalog: %v", err)
	}

	fmt.Println("→ Seeding period...")
	if err := seedPeriod(ctx, services.Periods, start); err != nil {
		log.Fatalf("seed period: %v", err)
	}

	fmt.Println("→ Seeding sales and purchases...")
	if err := seedTrading(ctx, services.Journals, start); err != nil {
		log.Fatalf("seed trading: %v", err)
	}

	fmt.Println("→ Seeding settlements...")
	if err := seedSettlements(ctx, services.Journals, start); err != nil {
		log.Fatalf("seed settlements: %v", err)
	}

	fmt.Println("→ Seeding stock counts...")
	if err := seedCounts(ctx, services.Opname); err != nil {
		log.Fatalf("seed counts: %v", err)
	}

	fmt.Println("✓ Seed complete")
}

func seedCatalog(ctx context.Context, pool *pgxpool.Pool) error {
	for _, item := range catalog {
		_, err := pool.Exec(ctx, `
			INSERT INTO stock_items (id, name, system_quantity, reference_price)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name, system_quantity = EXCLUDED.system_quantity,
			    reference_price = EXCLUDED.reference_price, updated_at = NOW()`,
			item.id, item.name, item.qty, item.price)
		if err != nil {
			return fmt.Errorf("%s: %w", item.id, err)
		}
	}
	return nil
}

func seedPeriod(ctx context.Context, svc *periods.Service, start time.Time) error {
	name := start.Format("2006-01")
	existing, err := svc.List(ctx)
	if err != nil {
		return err
	}
	for _, p := range existing {
		if p.Name == name {
			return nil
		}
	}
	_, err = svc.Create(ctx, periods.CreateInput{
		Name:      name,
		StartDate: start,
		EndDate:   start.AddDate(0, 1, -1),
	})
	return err
}

func seedTrading(ctx context.Context, svc *journals.Service, start time.Time) error {
	day := func(d, hour int) time.Time { return start.AddDate(0, 0, d-1).Add(time.Duration(hour) * time.Hour) }
	txns := []journals.Transaction{
		journals.Purchase{Amount: rp(2_500_000), Supplier: "CV Sumber Pangan", Timestamp: day(1, 8), Actor: actor, PurchaseID: "PO-001"},
		journals.Purchase{Amount: rp(350_000), Supplier: "PLN", Timestamp: day(2, 9), Actor: actor, Paid: true, Expense: true, PurchaseID: "PO-002", Note: "listrik"},
		journals.CashSale{Amount: rp(150_000), Timestamp: day(3, 10), Actor: actor, SaleID: "INV-001"},
		journals.CashSale{Amount: rp(87_500), Timestamp: day(3, 14), Actor: actor, SaleID: "INV-002"},
		journals.CreditSale{Amount: rp(420_000), Customer: "Warung Bu Sri", Timestamp: day(5, 11), Actor: actor, SaleID: "INV-003"},
		journals.CreditSale{Amount: rp(275_000), Customer: "Toko Makmur", Timestamp: day(8, 16), Actor: actor, SaleID: "INV-004"},
		journals.CashSale{Amount: rp(212_000), Timestamp: day(12, 13), Actor: actor, SaleID: "INV-005"},
	}
	for _, txn := range txns {
		if err := record(ctx, svc, txn); err != nil {
			return err
		}
	}
	return nil
}

func seedSettlements(ctx context.Context, svc *journals.Service, start time.Time) error {
	ts := start.AddDate(0, 0, 20)
	txns := []journals.Transaction{
		journals.CustomerPayment{Customer: "Warung Bu Sri", Amount: rp(200_000), ReferenceNumber: "TRF-1001", Timestamp: ts, Actor: actor},
		journals.SupplierPayment{Supplier: "CV Sumber Pangan", Amount: rp(1_000_000), ReferenceNumber: "TRF-2001", Timestamp: ts, Actor: actor},
	}
	for _, txn := range txns {
		if err := record(ctx, svc, txn); err != nil {
			return err
		}
	}
	return nil
}

func record(ctx context.Context, svc *journals.Service, txn journals.Transaction) error {
	_, err := svc.Record(ctx, txn)
	if errors.Is(err, shared.ErrDuplicateReference) {
		return nil
	}
	return err
}

func seedCounts(ctx context.Context, svc *opname.Service) error {
	counts := []opname.SubmitInput{
		{ItemID: "SKU-GULA-1KG", Actor: "kasir-1", PhysicalCount: decimal.NewFromInt(22)},
		{ItemID: "SKU-GULA-1KG", Actor: "kasir-2", PhysicalCount: decimal.NewFromInt(16)},
		{ItemID: "SKU-BERAS-5KG", Actor: "kasir-1", PhysicalCount: decimal.NewFromInt(26)},
		{ItemID: "SKU-TELUR-1KG", Actor: "kasir-2", PhysicalCount: decimal.NewFromInt(20)},
	}
	for _, in := range counts {
		if _, err := svc.SubmitCount(ctx, in); err != nil && !errors.Is(err, opname.ErrDuplicateSubmission) {
			return fmt.Errorf("%s/%s: %w", in.ItemID, in.Actor, err)
		}
	}
	return nil
}

func rp(v int64) decimal.Decimal { return decimal.NewFromInt(v) }
