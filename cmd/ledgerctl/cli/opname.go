package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kasirku/ledger/internal/accounting/shared"
	"github.com/kasirku/ledger/internal/opname"
)

func newRecapCommand() *cobra.Command {
	var from, to string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "recap",
		Short: "Reconcile pooled stock counts in [from, to] against system quantities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseDay("from", from)
			if err != nil {
				return err
			}
			t, err := parseDay("to", to)
			if err != nil {
				return err
			}
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			results, err := e.services.Opname.Recap(cmd.Context(), f, t.AddDate(0, 0, 1))
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			return renderRecap(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD (required)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func renderRecap(w io.Writer, results []opname.Result) error {
	if len(results) == 0 {
		fmt.Fprintln(w, "Tidak ada hitungan stok pada rentang ini.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Item\tNama\tSistem\tFisik\tSelisih\tNilai\tArah\tPenghitung")
	for _, r := range results {
		name := r.ItemName
		if r.CatalogMissing {
			name = "(tidak ada di katalog)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			r.ItemID, name,
			r.SystemQuantity.String(), r.TotalSubmitted.String(), r.Variance.String(),
			shared.FormatRupiah(r.MonetaryValue), r.Direction, r.ContributorCount,
		)
	}
	return tw.Flush()
}
