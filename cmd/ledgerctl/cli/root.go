// Package cli implements ledgerctl, the operator tool for the ledger store.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/kasirku/ledger/internal/app"
	"github.com/kasirku/ledger/internal/platform/calendar"
	"github.com/kasirku/ledger/internal/platform/db"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operate the kasirku ledger: migrations, reports, opname recap, integrity",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newMigrateCommand(),
		newTrialBalanceCommand(),
		newRecapCommand(),
		newIntegrityCommand(),
		newJobsCommand(),
	)
	return rootCmd
}

// env holds the connections a command needs. Reports run uncached.
type env struct {
	cfg      *app.Config
	logger   *slog.Logger
	pool     *pgxpool.Pool
	services *app.Services
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := app.NewLogger(cfg)
	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: 4})
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:      cfg,
		logger:   logger,
		pool:     pool,
		services: app.NewServices(cfg, app.Backends{Pool: pool}, nil, logger),
	}, nil
}

func (e *env) Close() {
	if e != nil && e.pool != nil {
		e.pool.Close()
	}
}

func parseDay(flag, raw string) (time.Time, error) {
	t, err := calendar.Parse(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: expected YYYY-MM-DD, got %q", flag, raw)
	}
	return t, nil
}
