package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/kasirku/ledger/jobs"
)

func newIntegrityCommand() *cobra.Command {
	var (
		from, to string
		enqueue  bool
	)

	cmd := &cobra.Command{
		Use:   "integrity",
		Short: "Verify that every posting in the window balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if enqueue {
				c, err := jobsCLIFromEnv()
				if err != nil {
					return err
				}
				defer func() { _ = c.Close() }()
				return enqueueIntegrity(cmd.Context(), c.client, cmd.OutOrStdout(), from, to)
			}
			var fromPtr, toPtr *time.Time
			if from != "" {
				f, err := parseDay("from", from)
				if err != nil {
					return err
				}
				fromPtr = &f
			}
			if to != "" {
				t, err := parseDay("to", to)
				if err != nil {
					return err
				}
				next := t.AddDate(0, 0, 1)
				toPtr = &next
			}
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			report, err := jobs.NewLedgerIntegrityJob(e.services.Journals, e.logger, nil).Check(cmd.Context(), fromPtr, toPtr)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
			if !report.OK() {
				return fmt.Errorf("ledger integrity: %d unbalanced postings", len(report.Unbalanced))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD (default: beginning of ledger)")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD (default: now)")
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "hand the scan to the worker instead of running it here")
	return cmd
}

func enqueueIntegrity(ctx context.Context, q jobs.Enqueuer, out io.Writer, from, to string) error {
	info, err := jobs.EnqueueLedgerIntegrity(ctx, q, jobs.LedgerIntegrityPayload{From: from, To: to})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
	return nil
}
