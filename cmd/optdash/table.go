package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/options-dashboard/internal/chart/render"
	"github.com/dgnsrekt/options-dashboard/internal/dashboard"
	"github.com/dgnsrekt/options-dashboard/internal/table"
)

// newController builds a dashboard whose charts render off-screen.
func newController() *dashboard.Controller {
	return dashboard.New(
		newClient(),
		render.NewFactory(logger),
		render.NewViewport(cfg.Chart.Width, cfg.Chart.Height),
		dashboardOptions(),
		logger,
	)
}

func tableCmd() *cobra.Command {
	var (
		tab     string
		filter  string
		sortCol string
		desc    bool
		columns []string
	)

	cmd := &cobra.Command{
		Use:   "table YYYY-MM-DD",
		Short: "Print one classification's metrics for a date",
		Long: `Print the options metrics of one classification (total, otm, itm)
for a trading date as a terminal table.

Examples:
  optdash table 2025-01-15
  optdash table --tab otm --filter RELIANCE 2025-01-15
  optdash table --sort call_total_money --desc --columns stock,call_total_money,put_total_money 2025-01-15`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := newController()
			defer ctrl.Close()

			if err := ctrl.LoadDate(cmd.Context(), args[0]); err != nil {
				return err
			}
			if err := ctrl.SwitchTab(tab); err != nil {
				return err
			}
			ctrl.SetFilter(filter)
			if sortCol != "" {
				idx := table.ColumnIndex(sortCol)
				if err := ctrl.Sort(idx, desc); err != nil {
					return err
				}
			}

			model, rows := ctrl.Visible()
			logger.Debug("printing table",
				zap.String("tab", string(model.Classification)),
				zap.Int("rows", len(rows)))
			return table.WriteText(os.Stdout, model, rows, table.TextOptions{Keys: columns})
		},
	}

	cmd.Flags().StringVar(&tab, "tab", "total", "classification: total, otm, itm")
	cmd.Flags().StringVar(&filter, "filter", "", "case-insensitive search across all cells")
	cmd.Flags().StringVar(&sortCol, "sort", "", "column key to sort by")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "column keys to show")

	return cmd
}
