// Package render draws chart sessions server-side with go-chart and takes
// pointer and resize input from remote clients.
package render

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"go.uber.org/zap"

	"github.com/dgnsrekt/options-dashboard/internal/chart"
)

// DateLayout is the time-key format of historical points.
const DateLayout = "2006-01-02"

var (
	ErrRemoved       = errors.New("chart removed")
	ErrNothingToDraw = errors.New("no visible series to draw")
)

// Factory creates renderable charts and remembers the live ones by panel.
type Factory struct {
	logger *zap.Logger

	mu     sync.Mutex
	charts map[chart.Panel]*Chart
}

func NewFactory(logger *zap.Logger) *Factory {
	return &Factory{logger: logger, charts: make(map[chart.Panel]*Chart)}
}

func (f *Factory) NewChart(opts chart.ChartOptions) (chart.Chart, error) {
	c := &Chart{
		opts:   opts,
		subs:   make(map[int]func(chart.CrosshairEvent)),
		logger: f.logger.With(zap.String("panel", string(opts.Panel))),
	}
	c.onRemove = func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.charts[opts.Panel] == c {
			delete(f.charts, opts.Panel)
		}
	}

	f.mu.Lock()
	f.charts[opts.Panel] = c
	f.mu.Unlock()
	return c, nil
}

// Chart returns the live chart for a panel.
func (f *Factory) Chart(p chart.Panel) (*Chart, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.charts[p]
	return c, ok
}

// Series is one drawn series.
type Series struct {
	mu      sync.Mutex
	spec    chart.SeriesSpec
	visible bool
}

func (s *Series) SetVisible(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = v
}

func (s *Series) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

// Chart is a panel rendered to PNG on demand.
type Chart struct {
	logger   *zap.Logger
	onRemove func()

	mu        sync.Mutex
	opts      chart.ChartOptions
	series    []*Series
	subs      map[int]func(chart.CrosshairEvent)
	nextSub   int
	crosshair string
	ref       *Series
	removed   bool
}

func (c *Chart) AddSeries(spec chart.SeriesSpec) (chart.SeriesHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.removed {
		return nil, ErrRemoved
	}
	s := &Series{spec: spec, visible: true}
	c.series = append(c.series, s)
	return s, nil
}

func (c *Chart) Resize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opts.Width, c.opts.Height = width, height
}

func (c *Chart) SetTimeAxisVisible(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opts.ShowTimeAxis = v
}

func (c *Chart) SubscribeCrosshairMove(fn func(chart.CrosshairEvent)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subs, id)
		})
	}
}

func (c *Chart) SetCrosshair(t string, ref chart.SeriesHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.crosshair = t
	c.ref, _ = ref.(*Series)
}

func (c *Chart) ClearCrosshair() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.crosshair = ""
	c.ref = nil
}

// Crosshair returns the synchronized time, if any.
func (c *Chart) Crosshair() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.crosshair
}

func (c *Chart) Remove() {
	c.mu.Lock()
	if c.removed {
		c.mu.Unlock()
		return
	}
	c.removed = true
	c.subs = make(map[int]func(chart.CrosshairEvent))
	c.mu.Unlock()

	if c.onRemove != nil {
		c.onRemove()
	}
}

// Pointer reports a remote pointer position to subscribers. Handlers run
// without the chart lock held.
func (c *Chart) Pointer(t string) {
	c.mu.Lock()
	if c.removed {
		c.mu.Unlock()
		return
	}
	fns := make([]func(chart.CrosshairEvent), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(chart.CrosshairEvent{Time: t})
	}
}

// RenderPNG draws the visible series. Left-axis series use go-chart's
// secondary (left) axis when the right axis is also in use.
func (c *Chart) RenderPNG(w io.Writer) error {
	graph, err := c.graph()
	if err != nil {
		return err
	}
	if err := graph.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("rendering %s panel: %w", c.opts.Panel, err)
	}
	return nil
}

func (c *Chart) graph() (*gochart.Chart, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.removed {
		return nil, ErrRemoved
	}

	var visible []*Series
	rightInUse := false
	for _, s := range c.series {
		if s.Visible() && len(s.spec.Points) > 0 {
			visible = append(visible, s)
			if s.spec.Axis == chart.AxisRight {
				rightInUse = true
			}
		}
	}
	if len(visible) == 0 {
		return nil, ErrNothingToDraw
	}

	graph := &gochart.Chart{
		Title:  c.opts.Title,
		Width:  c.opts.Width,
		Height: c.opts.Height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 24, Left: 16, Right: 16, Bottom: 12},
		},
		XAxis: gochart.XAxis{
			Style:          gochart.Style{Hidden: !c.opts.ShowTimeAxis},
			ValueFormatter: gochart.TimeDateValueFormatter,
		},
	}
	if c.opts.Panel != chart.PanelPrimary {
		graph.Title = ""
	}

	for _, s := range visible {
		ts, err := timeSeries(s.spec)
		if err != nil {
			return nil, err
		}
		if s.spec.Axis == chart.AxisLeft && rightInUse {
			ts.YAxis = gochart.YAxisSecondary
		}
		graph.Series = append(graph.Series, ts)
	}

	if marker, ok := c.crosshairMarker(rightInUse); ok {
		graph.Series = append(graph.Series, marker)
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(graph)}
	return graph, nil
}

// crosshairMarker annotates the reference series at the crosshair time.
func (c *Chart) crosshairMarker(rightInUse bool) (gochart.AnnotationSeries, bool) {
	if c.crosshair == "" || c.ref == nil || !c.ref.Visible() {
		return gochart.AnnotationSeries{}, false
	}
	at, err := time.Parse(DateLayout, c.crosshair)
	if err != nil {
		return gochart.AnnotationSeries{}, false
	}
	for _, p := range c.ref.spec.Points {
		if p.Time != c.crosshair {
			continue
		}
		marker := gochart.AnnotationSeries{
			Annotations: []gochart.Value2{{
				XValue: gochart.TimeToFloat64(at),
				YValue: p.Value,
				Label:  fmt.Sprintf("%s %.2f", p.Time, p.Value),
			}},
		}
		if c.ref.spec.Axis == chart.AxisLeft && rightInUse {
			marker.YAxis = gochart.YAxisSecondary
		}
		return marker, true
	}
	return gochart.AnnotationSeries{}, false
}

func timeSeries(spec chart.SeriesSpec) (gochart.TimeSeries, error) {
	xs := make([]time.Time, 0, len(spec.Points)+1)
	ys := make([]float64, 0, len(spec.Points)+1)
	for _, p := range spec.Points {
		t, err := time.Parse(DateLayout, p.Time)
		if err != nil {
			return gochart.TimeSeries{}, fmt.Errorf("series %q: parsing time %q: %w", spec.Name, p.Time, err)
		}
		xs = append(xs, t)
		ys = append(ys, p.Value)
	}

	// go-chart cannot range a single x value; widen it by a day.
	if len(xs) == 1 {
		xs = append(xs, xs[0].Add(24*time.Hour))
		ys = append(ys, ys[0])
	}

	return gochart.TimeSeries{
		Name:    spec.Name,
		XValues: xs,
		YValues: ys,
		Style: gochart.Style{
			StrokeColor: drawing.ColorFromHex(strings.TrimPrefix(spec.Color, "#")),
			StrokeWidth: 2,
		},
	}, nil
}
