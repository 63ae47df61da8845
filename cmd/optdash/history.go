package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/options-dashboard/internal/chart"
	"github.com/dgnsrekt/options-dashboard/internal/chart/render"
	"github.com/dgnsrekt/options-dashboard/internal/data"
	"github.com/dgnsrekt/options-dashboard/internal/export"
)

func historyCmd() *cobra.Command {
	var (
		side   string
		metric string
		strike string
		outDir string
		png    bool
	)

	cmd := &cobra.Command{
		Use:   "history SYMBOL YYYY-MM-DD",
		Short: "Export a symbol's historical series as CSV and chart images",
		Long: `Fetch the historical series behind a dashboard chart and write it as
CSV. With --png the primary and oscillator panels are rendered too.

Examples:
  optdash history --side call --metric vega --strike 2500 RELIANCE 2025-01-15
  optdash history --side put --metric money --png TCS 2025-01-15`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := data.ParseSide(side)
			if err != nil {
				return err
			}
			m, err := data.ParseMetricKind(metric)
			if err != nil {
				return err
			}
			k, err := data.ParseStrike(strike)
			if err != nil {
				return err
			}

			req, _, err := chart.Validate(data.HistoricalRequest{
				Symbol: args[0], Side: s, Metric: m, Strike: k, Date: args[1],
			})
			if err != nil {
				return err
			}

			client := newClient()
			series, err := client.GetHistorical(cmd.Context(), req)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0755); err != nil {
				return fmt.Errorf("creating output directory: %w", err)
			}
			csvPath := filepath.Join(outDir, export.SeriesFileName(req))
			if err := writeFile(csvPath, func(f *os.File) error {
				return export.WriteSeriesCSV(f, *series)
			}); err != nil {
				return err
			}
			logger.Info("series written", zap.String("path", csvPath), zap.Int("points", len(series.Data)))

			if !png {
				return nil
			}

			factory := render.NewFactory(logger)
			viewer := chart.NewViewer(staticSeries{series}, factory,
				render.NewViewport(cfg.Chart.Width, cfg.Chart.Height),
				data.NewSequencer(), dashboardOptions().Chart, logger)
			sess, err := viewer.Open(cmd.Context(), req)
			if err != nil {
				return err
			}
			defer viewer.Close()

			for _, g := range sess.Layout().Panels {
				c, ok := factory.Chart(g.Panel)
				if !ok {
					continue
				}
				path := filepath.Join(outDir, fmt.Sprintf("%s_%s_%s.png", req.Symbol, req.Date, g.Panel))
				if err := writeFile(path, func(f *os.File) error { return c.RenderPNG(f) }); err != nil {
					return err
				}
				logger.Info("panel rendered", zap.String("path", path))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&side, "side", "call", "option side: call or put")
	cmd.Flags().StringVar(&metric, "metric", "vega", "metric: vega or money")
	cmd.Flags().StringVar(&strike, "strike", "", "strike for vega series (omit for the all-strike average)")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	cmd.Flags().BoolVar(&png, "png", false, "also render chart panels as PNG")

	return cmd
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}

// staticSeries serves an already fetched series to a chart viewer.
type staticSeries struct {
	series *data.HistoricalSeries
}

func (s staticSeries) GetHistorical(context.Context, data.HistoricalRequest) (*data.HistoricalSeries, error) {
	return s.series, nil
}
