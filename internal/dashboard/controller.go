// Package dashboard holds one viewer's dashboard state: the metric tabs,
// the open chart, the selected date, and the request sequence that keeps
// late responses from overwriting newer ones.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dgnsrekt/options-dashboard/internal/api"
	"github.com/dgnsrekt/options-dashboard/internal/chart"
	"github.com/dgnsrekt/options-dashboard/internal/data"
	"github.com/dgnsrekt/options-dashboard/internal/detail"
	"github.com/dgnsrekt/options-dashboard/internal/export"
	"github.com/dgnsrekt/options-dashboard/internal/table"
)

const dateLayout = "2006-01-02"

const NoticeFutureDate = "Cannot select future dates"

type Options struct {
	Grid  table.GridOptions
	Chart chart.Options
	// Now is the clock used to reject future dates.
	Now func() time.Time
}

func DefaultOptions() Options {
	return Options{
		Grid:  table.DefaultGridOptions(),
		Chart: chart.DefaultOptions(),
		Now:   time.Now,
	}
}

// Controller serializes its own state changes. Backend calls run without
// the lock held; their responses are applied only if still the latest.
type Controller struct {
	id     string
	client api.Client
	seq    *data.Sequencer
	viewer *chart.Viewer
	opts   Options
	logger *zap.Logger

	mu       sync.Mutex
	tabs     *table.TabSet
	date     string
	prevDate string
}

func New(client api.Client, factory chart.Factory, container chart.Container, opts Options, logger *zap.Logger) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	id := uuid.NewString()
	logger = logger.With(zap.String("dashboard", id))
	seq := data.NewSequencer()

	return &Controller{
		id:     id,
		client: client,
		seq:    seq,
		viewer: chart.NewViewer(client, factory, container, seq, opts.Chart, logger),
		opts:   opts,
		logger: logger,
		tabs: table.NewTabSet(func() table.Grid {
			return table.NewMemoryGrid(opts.Grid)
		}),
	}
}

func (c *Controller) ID() string { return c.id }

// Dates returns the loaded date and the date it is compared against.
func (c *Controller) Dates() (curr, prev string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.date, c.prevDate
}

// LoadDate fetches the metrics for date and installs all three tabs.
// While the request is in flight every tab shows the loading placeholder.
func (c *Controller) LoadDate(ctx context.Context, date string) error {
	if date == "" {
		return notice(NoticeNoDate, nil)
	}
	now := c.opts.Now()
	day, err := time.ParseInLocation(dateLayout, date, now.Location())
	if err != nil {
		return notice(fmt.Sprintf("Invalid date %q", date), err)
	}
	if day.Format(dateLayout) > now.Format(dateLayout) {
		return notice(NoticeFutureDate, nil)
	}

	c.mu.Lock()
	seq := c.seq.Next(data.KindMetrics)
	c.tabs.SetPlaceholder(table.PlaceholderLoading)
	c.mu.Unlock()

	c.logger.Debug("loading metrics", zap.String("date", date), zap.Uint64("seq", seq))
	snap, err := c.client.GetMetrics(ctx, date)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.seq.IsLatest(data.KindMetrics, seq) {
		c.logger.Debug("discarding stale metrics", zap.String("date", date), zap.Uint64("seq", seq))
		return ErrStale
	}

	var backendErr *api.BackendError
	switch {
	case errors.As(err, &backendErr):
		c.tabs.SetPlaceholder(table.PlaceholderNoData)
		return notice(backendErrorPrefix+backendErr.Message, err)
	case errors.Is(err, api.ErrNotFound):
		c.tabs.SetPlaceholder(table.PlaceholderNoData)
		c.date, c.prevDate = date, ""
		return nil
	case err != nil:
		c.logger.Warn("loading metrics failed", zap.String("date", date), zap.Error(err))
		c.tabs.SetPlaceholder(table.PlaceholderLoadError)
		return fmt.Errorf("%w: %s: %w", ErrLoad, date, err)
	case snap.Error != "":
		c.tabs.SetPlaceholder(table.PlaceholderNoData)
		return notice(backendErrorPrefix+snap.Error, nil)
	}

	c.tabs.Load(*snap)
	c.date = date
	if snap.CurrDate != "" {
		c.date = snap.CurrDate
	}
	c.prevDate = snap.PrevDate

	c.logger.Info("metrics loaded",
		zap.String("date", c.date),
		zap.String("prev_date", c.prevDate),
		zap.Int("total", len(snap.Total)),
		zap.Int("otm", len(snap.OTM)),
		zap.Int("itm", len(snap.ITM)))
	return nil
}

// SwitchTab activates the tab with the given identifier, carrying the
// search filter and viewport over.
func (c *Controller) SwitchTab(tab string) error {
	class, err := table.ParseClassification(tab)
	if err != nil {
		return notice(fmt.Sprintf("Unknown tab %q", tab), err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tabs.Switch(class)
}

func (c *Controller) ActiveTab() table.Classification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tabs.Active()
}

func (c *Controller) SetFilter(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tabs.ActiveGrid().SetFilter(query)
}

func (c *Controller) Sort(column int, desc bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tabs.ActiveGrid().SortBy(column, desc)
}

// Adjust resizes every tab to the table container.
func (c *Controller) Adjust(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tabs.Adjust(width, height)
}

// View is the active tab's page plus the layout hints a renderer needs.
type View struct {
	Dashboard    string               `json:"dashboard"`
	Date         string               `json:"date"`
	PrevDate     string               `json:"prev_date,omitempty"`
	Tab          table.Classification `json:"tab"`
	Columns      []table.Column       `json:"columns"`
	ColumnWidths []int                `json:"column_widths,omitempty"`
	Page         table.Page           `json:"page"`
}

// Page returns page n of the active tab.
func (c *Controller) Page(n int) View {
	c.mu.Lock()
	defer c.mu.Unlock()

	grid := c.tabs.ActiveGrid()
	return View{
		Dashboard:    c.id,
		Date:         c.date,
		PrevDate:     c.prevDate,
		Tab:          c.tabs.Active(),
		Columns:      grid.Model().Columns,
		ColumnWidths: grid.ColumnWidths(),
		Page:         grid.Page(n),
	}
}

// Visible returns the active tab's model and its rows after sorting and
// filtering, unpaged.
func (c *Controller) Visible() (table.RowModel, []table.Row) {
	c.mu.Lock()
	defer c.mu.Unlock()
	grid := c.tabs.ActiveGrid()
	return grid.Model(), grid.Visible()
}

// Activate handles a click on column col of the row whose input index is
// row in the active tab. Chart cells open a new chart session; inert
// cells yield a notice and issue no request.
func (c *Controller) Activate(ctx context.Context, row, col int) (*chart.Session, error) {
	c.mu.Lock()
	cell, err := c.cellLocked(row, col)
	date := c.date
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	action, err := table.Activate(cell)
	if err != nil {
		var inert *table.InertCellError
		if errors.As(err, &inert) {
			return nil, notice(inert.Notice, err)
		}
		return nil, err
	}
	if date == "" {
		return nil, notice(NoticeChartNoDate, nil)
	}

	return c.OpenChart(ctx, action.Request(date))
}

// OpenChart replaces the open chart with the series for req.
func (c *Controller) OpenChart(ctx context.Context, req data.HistoricalRequest) (*chart.Session, error) {
	sess, err := c.viewer.Open(ctx, req)
	if err == nil {
		c.logger.Info("chart opened", zap.String("session", sess.ID()), zap.String("title", sess.Title()))
		return sess, nil
	}

	var backendErr *api.BackendError
	switch {
	case errors.Is(err, chart.ErrStaleResponse):
		return nil, ErrStale
	case errors.As(err, &backendErr):
		return nil, notice(historyErrorPrefix+backendErr.Message, err)
	case errors.Is(err, chart.ErrEmptySeries), errors.Is(err, api.ErrNotFound):
		return nil, notice(NoticeNoHistory, err)
	case errors.Is(err, chart.ErrMissingDate):
		return nil, notice(NoticeChartNoDate, err)
	case errors.Is(err, chart.ErrMissingSymbol),
		errors.Is(err, data.ErrUnknownSide),
		errors.Is(err, data.ErrUnknownMetric):
		return nil, notice(err.Error(), err)
	case errors.Is(err, chart.ErrDuplicateTime), errors.Is(err, chart.ErrMissingTime):
		return nil, notice(chartErrorPrefix+err.Error(), err)
	}
	c.logger.Warn("opening chart failed", zap.String("symbol", req.Symbol), zap.Error(err))
	return nil, err
}

// Chart returns the open chart session.
func (c *Controller) Chart() (*chart.Session, error) {
	return c.viewer.Current()
}

// ToggleSeries flips a series' visibility on the open chart.
func (c *Controller) ToggleSeries(name string) (chart.State, error) {
	sess, err := c.viewer.Current()
	if err != nil {
		return chart.State{}, err
	}
	if _, err := sess.Toggle(name); err != nil {
		return chart.State{}, err
	}
	return sess.State(), nil
}

// CloseChart tears the open chart down and drops any in-flight response.
func (c *Controller) CloseChart() {
	c.viewer.Close()
}

// ExportFileName names the workbook Export would write.
func (c *Controller) ExportFileName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return export.FileName(c.tabs.Active(), c.date)
}

// Export writes the active tab's rows, in the current sort order and
// ignoring the filter, as a workbook.
func (c *Controller) Export(w io.Writer) error {
	c.mu.Lock()
	grid := c.tabs.ActiveGrid()
	model := grid.Model()
	rows := grid.Ordered()
	c.mu.Unlock()

	err := export.WriteWorkbook(w, model, rows)
	if errors.Is(err, export.ErrNothingToExport) {
		return notice(err.Error(), err)
	}
	return err
}

// Detail fetches and shapes the option chain of symbol on the loaded
// date. An empty expiry selects every expiry.
func (c *Controller) Detail(ctx context.Context, symbol, expiry string) (detail.View, error) {
	c.mu.Lock()
	date := c.date
	c.mu.Unlock()

	if date == "" {
		return detail.View{}, notice(NoticeNoDate, nil)
	}
	if symbol == "" {
		return detail.View{}, notice("Select a stock", chart.ErrMissingSymbol)
	}

	seq := c.seq.Next(data.KindDetail)
	d, err := c.client.GetStockDetail(ctx, symbol, date, expiry)
	if !c.seq.IsLatest(data.KindDetail, seq) {
		return detail.View{}, ErrStale
	}

	var backendErr *api.BackendError
	switch {
	case errors.As(err, &backendErr):
		return detail.View{}, notice(backendErrorPrefix+backendErr.Message, err)
	case err != nil:
		return detail.View{}, fmt.Errorf("loading %s detail: %w", symbol, err)
	case d.Error != "":
		return detail.View{}, notice(backendErrorPrefix+d.Error, nil)
	}

	return detail.Build(symbol, date, *d)
}

// Close releases the open chart and invalidates every in-flight request.
func (c *Controller) Close() {
	c.viewer.Close()
	c.seq.Invalidate(data.KindMetrics)
	c.seq.Invalidate(data.KindDetail)
}

func (c *Controller) cellLocked(row, col int) (table.Cell, error) {
	for _, r := range c.tabs.ActiveGrid().Model().Rows {
		if r.Index != row {
			continue
		}
		return table.CellAt([]table.Row{r}, 0, col)
	}
	return table.Cell{}, fmt.Errorf("row %d: %w", row, table.ErrCellOutOfRange)
}
