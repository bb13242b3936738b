package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kasirku/ledger/internal/accounting/reports"
	"github.com/kasirku/ledger/internal/accounting/shared"
)

func newTrialBalanceCommand() *cobra.Command {
	var from, to string
	var periodID int64
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "trial-balance",
		Short: "Print the trial balance for a period or an inclusive date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := scopeFromFlags(periodID, from, to)
			if err != nil {
				return err
			}
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			tb, err := e.services.Reports.TrialBalance(cmd.Context(), scope)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(tb)
			}
			return renderTrialBalance(cmd.OutOrStdout(), tb)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD")
	cmd.Flags().Int64Var(&periodID, "period", 0, "stored period id instead of --from/--to")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func scopeFromFlags(periodID int64, from, to string) (reports.Scope, error) {
	if periodID > 0 {
		if from != "" || to != "" {
			return reports.Scope{}, fmt.Errorf("use --period or --from/--to, not both")
		}
		return reports.Scope{PeriodID: periodID}, nil
	}
	if from == "" || to == "" {
		return reports.Scope{}, fmt.Errorf("--from and --to are required without --period")
	}
	f, err := parseDay("from", from)
	if err != nil {
		return reports.Scope{}, err
	}
	t, err := parseDay("to", to)
	if err != nil {
		return reports.Scope{}, err
	}
	return reports.Scope{Range: &reports.DateRange{From: f, To: t}}, nil
}

func renderTrialBalance(w io.Writer, tb reports.TrialBalance) error {
	fmt.Fprintf(w, "Neraca Saldo %s\n\n", tb.Range.String())
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Kode\tAkun\tSaldo Awal\tDebit\tKredit\tSaldo Akhir\t")
	for _, row := range tb.Rows() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			row.Code, row.Name,
			shared.FormatRupiah(row.Opening),
			shared.FormatRupiah(row.Debit),
			shared.FormatRupiah(row.Credit),
			shared.FormatRupiah(row.EndingBalance),
		)
	}
	fmt.Fprintf(tw, "\tTotal\t\t%s\t%s\t\t\n", shared.FormatRupiah(tb.TotalDebit), shared.FormatRupiah(tb.TotalCredit))
	if err := tw.Flush(); err != nil {
		return err
	}
	if !tb.IsBalanced {
		fmt.Fprintln(w, "\nPERINGATAN: total debit dan kredit tidak sama")
	}
	return nil
}
