package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/options-dashboard/internal/detail"
)

func detailCmd() *cobra.Command {
	var (
		expiry string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "detail SYMBOL YYYY-MM-DD",
		Short: "Show a stock's option chain and open interest summary",
		Long: `Show the option chain of one stock for a trading date together with
the put-call ratio, implied volatility range and open interest summary.

Examples:
  optdash detail RELIANCE 2025-01-15
  optdash detail --expiry 2025-01-30 --json RELIANCE 2025-01-15`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := newController()
			defer ctrl.Close()

			if err := ctrl.LoadDate(cmd.Context(), args[1]); err != nil {
				return err
			}
			view, err := ctrl.Detail(cmd.Context(), args[0], expiry)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}
			printDetail(os.Stdout, view)
			return nil
		},
	}

	cmd.Flags().StringVar(&expiry, "expiry", "all", "expiry date, or all")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the view as JSON")

	return cmd
}

func printDetail(w io.Writer, v detail.View) {
	fmt.Fprintf(w, "%s  %s\n", v.Symbol, v.Date)
	if v.LastUpdated != "" {
		fmt.Fprintf(w, "Last updated: %s\n", v.LastUpdated)
	}
	fmt.Fprintf(w, "PCR %s (%s - %s)   IV %s (%s - %s)\n\n",
		v.PCR.Value, v.PCR.Min, v.PCR.Max, v.IV.Value, v.IV.Min, v.IV.Max)

	summary := tablewriter.NewWriter(w)
	summary.SetHeader([]string{"", "Call", "Put", "Diff (PE-CE)", "Trend"})
	summary.Append([]string{"OI", v.Stats.TotalCEOI, v.Stats.TotalPEOI, v.Stats.DiffOI, string(v.Stats.Trend)})
	summary.Append([]string{"OI Chg", v.Stats.TotalCEOIChg, v.Stats.TotalPEOIChg, v.Stats.DiffOIChg, string(v.Stats.TrendChg)})
	summary.Append([]string{"Max OI Strike", v.MaxStrikes.CallOI, v.MaxStrikes.PutOI, "", ""})
	summary.Append([]string{"Max OI Chg Strike", v.MaxStrikes.CallOIChg, v.MaxStrikes.PutOIChg, "", ""})
	summary.Render()
	fmt.Fprintln(w)

	if v.Placeholder != "" {
		fmt.Fprintln(w, v.Placeholder)
		return
	}

	chain := tablewriter.NewWriter(w)
	chain.SetHeader(detail.ChainHeaders)
	chain.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, row := range v.Chain {
		cells := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			cells[i] = c.Text
		}
		chain.Append(cells)
	}
	chain.Render()
}
