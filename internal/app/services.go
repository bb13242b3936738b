package app

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/kasirku/ledger/internal/accounting"
	"github.com/kasirku/ledger/internal/accounting/accounts"
	"github.com/kasirku/ledger/internal/accounting/counterparty"
	"github.com/kasirku/ledger/internal/accounting/journals"
	"github.com/kasirku/ledger/internal/accounting/mappings"
	"github.com/kasirku/ledger/internal/accounting/periods"
	"github.com/kasirku/ledger/internal/accounting/reports"
	"github.com/kasirku/ledger/internal/integration"
	"github.com/kasirku/ledger/internal/observability"
	"github.com/kasirku/ledger/internal/opname"
	"github.com/kasirku/ledger/internal/platform/cache"
	"github.com/kasirku/ledger/internal/platform/calendar"
	"github.com/kasirku/ledger/internal/shared"
)

// Backends are the external stores the services run on. Redis and Queue may
// be nil; reports are then built uncached and no warm-ups are scheduled.
type Backends struct {
	Pool  *pgxpool.Pool
	Redis *redis.Client
	Queue integration.Enqueuer
}

// Services is the wired domain layer shared by the server, worker and CLI.
type Services struct {
	Accounts       *accounts.Service
	Periods        *periods.Service
	Journals       *journals.Service
	Counterparties *counterparty.Service
	Reports        *reports.Generator
	Opname         *opname.Service
	Hooks          *integration.Hooks
	ReportCache    *cache.Versioned
	Idempotency    *shared.IdempotencyStore
}

// NewServices wires repositories, services and hooks.
func NewServices(cfg *Config, b Backends, metrics *observability.Metrics, logger *slog.Logger) *Services {
	if cfg == nil {
		cfg = &Config{}
	}
	pool := b.Pool
	calendar.SetLocation(cfg.LedgerLocation)

	accountService := accounts.NewService(accounts.NewRepository(pool))
	periodService := periods.NewService(periods.NewRepository(pool))
	roles := mappings.NewResolver(mappings.NewRepository(pool))
	auditLogger := shared.NewAuditLogger(pool)
	idempotency := shared.NewIdempotencyStore(pool)

	var guard journals.PeriodGuard
	if cfg.PeriodGuard {
		guard = periodService
	}
	journalService := journals.NewService(journals.NewRepository(pool, cfg.LockTimeout), accountService, roles, auditLogger, guard)
	journalService.WithLogger(logger)

	reportCache := cache.NewVersioned(b.Redis, "ledger:reports", cfg.ReportCacheTTL)
	hooks := integration.NewHooks(journalService, reportCache, b.Queue, logger)
	journalService.WithNotifier(hooks)
	if metrics != nil {
		journalService.WithObserver(metrics)
	}

	generator := reports.NewGenerator(journalService, accountService, periodService, reportCache, logger)
	counterparties := counterparty.NewService(journalService, roles)

	opnameService := opname.NewService(opname.NewRepository(pool), opname.NewCatalog(pool),
		opname.ServiceConfig{OnePerActorPerDay: cfg.OpnameOnePerActorDaily}, logger)
	opnameService.WithPoster(hooks)
	if cfg.OpnameOnePerActorDaily {
		opnameService.WithClaimer(idempotency)
	}

	return &Services{
		Accounts:       accountService,
		Periods:        periodService,
		Journals:       journalService,
		Counterparties: counterparties,
		Reports:        generator,
		Opname:         opnameService,
		Hooks:          hooks,
		ReportCache:    reportCache,
		Idempotency:    idempotency,
	}
}

// AccountingHandler builds the /ledger route tree.
func (s *Services) AccountingHandler(logger *slog.Logger) *accounting.Handler {
	return &accounting.Handler{
		Journals:       journals.NewHandler(logger, s.Journals),
		Counterparties: counterparty.NewHandler(logger, s.Counterparties),
		Reports:        reports.NewHandler(logger, s.Reports),
		Accounts:       accounts.NewHandler(logger, s.Accounts),
		Periods:        periods.NewHandler(logger, s.Periods),
	}
}

// OpnameHandler builds the /opname route tree.
func (s *Services) OpnameHandler(logger *slog.Logger) *opname.Handler {
	return opname.NewHandler(logger, s.Opname)
}
