package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/options-dashboard/internal/export"
	"github.com/dgnsrekt/options-dashboard/internal/notify"
	"github.com/dgnsrekt/options-dashboard/internal/staging"
)

const dateLayout = "2006-01-02"

func exportCmd() *cobra.Command {
	var (
		dryRun bool
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "export YYYY-MM-DD [END_DATE]",
		Short: "Export classification workbooks for a date or date range",
		Long: `Write one workbook per classification (total, otm, itm) for each
trading date in the range. Dates the backend does not list as trading
dates are skipped, as are workbooks that already exist.

Examples:
  # Export a single date
  optdash export 2025-01-15

  # Export a range
  optdash export 2025-01-01 2025-01-31

  # Show what would be exported
  optdash export --dry-run 2025-01-01 2025-01-31`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			dates, err := parseDates(args)
			if err != nil {
				return err
			}

			client := newClient()
			trading, err := client.GetTradingDates(ctx)
			if err != nil {
				return fmt.Errorf("listing trading dates: %w", err)
			}
			dates = tradingDates(dates, trading)
			if len(dates) == 0 {
				return fmt.Errorf("no trading dates between %s and %s", args[0], args[len(args)-1])
			}

			tasks := export.Tasks(dates)
			logger.Info("generated tasks", zap.Int("count", len(tasks)))

			if dryRun {
				for _, t := range tasks {
					fmt.Printf("Would export: %s\n", t)
				}
				return nil
			}

			if outDir == "" {
				outDir = cfg.Export.Directory
			}
			mgr := export.NewManager(client, staging.NewManager(outDir), cfg.Export.Workers, dashboardOptions().Grid, logger)

			notifier := notify.New(cfg.Notify, logger)
			span := dates[0]
			if len(dates) > 1 {
				span += ".." + dates[len(dates)-1]
			}

			start := time.Now()
			result, err := mgr.Execute(ctx, tasks)
			if err == nil && result.Failed > 0 {
				err = fmt.Errorf("%d of %d dates failed", result.Failed, result.Total)
			}
			notifyBatch(ctx, notifier, result, span, time.Since(start), err)
			if result == nil {
				return err
			}

			fmt.Printf("Exported %d files for %d dates (%d skipped, %d without data, %d failed)\n",
				result.Files, result.Success, result.Skipped, result.NotFound, result.Failed)
			for _, e := range result.Errors {
				fmt.Printf("  error: %s\n", e)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be exported without writing")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default from config)")

	return cmd
}

func notifyBatch(ctx context.Context, n notify.Notifier, result *export.BatchResult, span string, took time.Duration, err error) {
	if result == nil {
		result = &export.BatchResult{}
	}
	var sendErr error
	if err != nil {
		sendErr = n.SendFailure(context.WithoutCancel(ctx), result, span, took, err)
	} else {
		sendErr = n.SendSuccess(context.WithoutCancel(ctx), result, span, took)
	}
	if sendErr != nil {
		logger.Warn("export notification not sent", zap.Error(sendErr))
	}
}

// parseDates expands one date or an inclusive range into calendar days.
func parseDates(args []string) ([]string, error) {
	start, err := time.Parse(dateLayout, args[0])
	if err != nil {
		return nil, fmt.Errorf("invalid start date format (use YYYY-MM-DD): %w", err)
	}

	if len(args) == 1 {
		return []string{args[0]}, nil
	}

	end, err := time.Parse(dateLayout, args[1])
	if err != nil {
		return nil, fmt.Errorf("invalid end date format (use YYYY-MM-DD): %w", err)
	}

	if end.Before(start) {
		return nil, fmt.Errorf("end date must be after start date")
	}

	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(dateLayout))
	}

	return dates, nil
}

// tradingDates keeps the dates the backend has data for, in input order.
func tradingDates(dates, trading []string) []string {
	open := make(map[string]struct{}, len(trading))
	for _, d := range trading {
		open[d] = struct{}{}
	}

	var out []string
	for _, d := range dates {
		if _, ok := open[d]; ok {
			out = append(out, d)
		} else {
			logger.Debug("skipping non-trading date", zap.String("date", d))
		}
	}
	return out
}
