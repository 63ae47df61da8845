package export

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/dgnsrekt/options-dashboard/internal/api"
	"github.com/dgnsrekt/options-dashboard/internal/data"
	"github.com/dgnsrekt/options-dashboard/internal/staging"
	"github.com/dgnsrekt/options-dashboard/internal/table"
)

func ptr(v float64) *float64 { return &v }

func sampleRows() []data.MetricRow {
	return []data.MetricRow{
		{Symbol: "TCS", Close: 3820.15, RSI: ptr(55)},
		{Symbol: "INFY", Close: 1890.4, RSI: ptr(72)},
		{Symbol: "HDFCBANK", Close: 1702, RSI: nil},
	}
}

func readSheet(t *testing.T, raw []byte, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{sheet}, f.GetSheetList())
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Options_OTM_2025-01-15.xlsx", FileName(table.OTM, "2025-01-15"))
}

func TestWriteWorkbook(t *testing.T) {
	grid := table.NewMemoryGrid(table.DefaultGridOptions())
	grid.Load(table.Build(table.OTM, sampleRows()))
	grid.SetFilter("TCS")

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, grid.Model(), grid.Ordered()))

	rows := readSheet(t, buf.Bytes(), "OTM")
	require.Len(t, rows, 4, "header plus every row, filter ignored")
	assert.Equal(t, "Stock", rows[0][0])
	assert.Equal(t, []string{"HDFCBANK", "INFY", "TCS"}, []string{rows[1][0], rows[2][0], rows[3][0]})
}

func TestWriteWorkbookPlaceholder(t *testing.T) {
	var buf bytes.Buffer
	err := WriteWorkbook(&buf, table.PlaceholderModel(table.ITM, table.PlaceholderNoData), nil)
	assert.ErrorIs(t, err, ErrNothingToExport)
	assert.Equal(t, "No data to export", err.Error())
	assert.Zero(t, buf.Len())
}

func TestSeriesCSV(t *testing.T) {
	series := data.HistoricalSeries{
		Ticker: "TCS",
		Data: []data.HistoricalPoint{
			{Date: "2025-01-14", PCRVolume: 0.8, PCROI: 1.1, UnderlyingPrice: 3800, AvgVega: ptr(0.25), RSI: nil},
			{Date: "2025-01-15", PCRVolume: 0.9, PCROI: 1.2, UnderlyingPrice: 3820.15, AvgVega: ptr(0.3), RSI: ptr(48.5)},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSeriesCSV(&buf, series))
	assert.True(t, strings.HasPrefix(buf.String(), "ticker,date,pcr_volume,pcr_oi,underlying_price,strike_vega,avg_vega,moneyness,rsi\n"))

	records, err := ReadSeriesCSV(&buf)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "", records[0].RSI)
	assert.Equal(t, "48.5", records[1].RSI)
	assert.Equal(t, "3820.15", records[1].UnderlyingPrice)
	assert.Equal(t, "", records[1].StrikeVega)
}

func TestSeriesCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteSeriesCSV(&buf, data.HistoricalSeries{Ticker: "TCS"}), ErrNoSeries)
}

func TestSeriesFileName(t *testing.T) {
	req := data.HistoricalRequest{
		Symbol: "TCS", Side: data.SideCall, Metric: data.MetricVega,
		Strike: data.MustStrike("3900"), Date: "2025-01-15",
	}
	assert.Equal(t, "History_TCS_call_vega_3900_2025-01-15.csv", SeriesFileName(req))

	req.Metric = data.MetricMoney
	assert.Equal(t, "History_TCS_call_money_2025-01-15.csv", SeriesFileName(req))
}

type fakeSource struct {
	mu        sync.Mutex
	snapshots map[string]*data.MetricsSnapshot
	calls     []string
}

func (f *fakeSource) GetMetrics(ctx context.Context, date string) (*data.MetricsSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, date)
	snap, ok := f.snapshots[date]
	if !ok {
		return nil, api.ErrNotFound
	}
	return snap, nil
}

func TestBatchExport(t *testing.T) {
	dir := t.TempDir()
	source := &fakeSource{snapshots: map[string]*data.MetricsSnapshot{
		"2025-01-14": {CurrDate: "2025-01-14", Total: sampleRows(), OTM: sampleRows()[:1]},
		"2025-01-15": {CurrDate: "2025-01-15", Total: sampleRows(), OTM: sampleRows(), ITM: sampleRows()},
		"2025-01-16": {Error: "metrics not computed"},
	}}

	logger, _ := zap.NewDevelopment()
	mgr := NewManager(source, staging.NewManager(dir), 2, table.DefaultGridOptions(), logger)

	result, err := mgr.Execute(context.Background(), Tasks([]string{"2025-01-14", "2025-01-15", "2025-01-16", "2025-01-17"}))
	require.NoError(t, err)

	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 2, result.Success)
	assert.Equal(t, 1, result.NotFound)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 5, result.Files)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "metrics not computed")

	for _, name := range []string{
		filepath.Join("2025-01-14", "Options_TOTAL_2025-01-14.xlsx"),
		filepath.Join("2025-01-14", "Options_OTM_2025-01-14.xlsx"),
		filepath.Join("2025-01-15", "Options_ITM_2025-01-15.xlsx"),
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
	_, err = os.Stat(filepath.Join(dir, "2025-01-14", "Options_ITM_2025-01-14.xlsx"))
	assert.True(t, os.IsNotExist(err), "empty classification must not produce a workbook")

	_, err = os.Stat(filepath.Join(dir, ".staging", result.ID))
	assert.True(t, os.IsNotExist(err), "staging cleaned after commit")

	raw, err := os.ReadFile(filepath.Join(dir, "2025-01-15", "Options_TOTAL_2025-01-15.xlsx"))
	require.NoError(t, err)
	rows := readSheet(t, raw, "TOTAL")
	assert.Len(t, rows, 4)
}

func TestBatchExportSkipsExisting(t *testing.T) {
	dir := t.TempDir()
	source := &fakeSource{snapshots: map[string]*data.MetricsSnapshot{
		"2025-01-15": {Total: sampleRows(), OTM: sampleRows(), ITM: sampleRows()},
	}}
	logger, _ := zap.NewDevelopment()
	mgr := NewManager(source, staging.NewManager(dir), 1, table.DefaultGridOptions(), logger)

	_, err := mgr.Execute(context.Background(), Tasks([]string{"2025-01-15"}))
	require.NoError(t, err)

	result, err := mgr.Execute(context.Background(), Tasks([]string{"2025-01-15"}))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Len(t, source.calls, 1, "second run must not refetch")
}
