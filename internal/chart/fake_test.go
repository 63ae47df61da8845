package chart

import (
	"context"
	"errors"
	"sync"

	"github.com/dgnsrekt/options-dashboard/internal/data"
)

type fakeSeries struct {
	spec    SeriesSpec
	visible bool
}

func (s *fakeSeries) SetVisible(v bool) { s.visible = v }

type fakeChart struct {
	mu        sync.Mutex
	opts      ChartOptions
	series    []*fakeSeries
	subs      map[int]func(CrosshairEvent)
	nextSub   int
	crosshair string
	ref       SeriesHandle
	cleared   int
	removed   bool
	echo      bool
	onSet     func(t string)
}

func (c *fakeChart) AddSeries(spec SeriesSpec) (SeriesHandle, error) {
	s := &fakeSeries{spec: spec, visible: true}
	c.series = append(c.series, s)
	return s, nil
}

func (c *fakeChart) Resize(w, h int) {
	c.opts.Width, c.opts.Height = w, h
}

func (c *fakeChart) SetTimeAxisVisible(v bool) { c.opts.ShowTimeAxis = v }

func (c *fakeChart) SubscribeCrosshairMove(fn func(CrosshairEvent)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// SetCrosshair echoes the change back to subscribers when echo is set,
// like widgets that report programmatic crosshair moves.
func (c *fakeChart) SetCrosshair(t string, ref SeriesHandle) {
	c.crosshair, c.ref = t, ref
	if c.echo {
		c.emit(CrosshairEvent{Time: t})
	}
	if c.onSet != nil {
		c.onSet(t)
	}
}

func (c *fakeChart) ClearCrosshair() {
	c.crosshair, c.ref = "", nil
	c.cleared++
	if c.echo {
		c.emit(CrosshairEvent{})
	}
}

func (c *fakeChart) Remove() { c.removed = true }

func (c *fakeChart) Pointer(t string) { c.emit(CrosshairEvent{Time: t}) }

func (c *fakeChart) emit(ev CrosshairEvent) {
	c.mu.Lock()
	fns := make([]func(CrosshairEvent), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (c *fakeChart) subscriptions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

type fakeFactory struct {
	mu     sync.Mutex
	charts []*fakeChart
	echo   bool
	fail   Panel
}

func (f *fakeFactory) NewChart(opts ChartOptions) (Chart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if opts.Panel == f.fail {
		return nil, errors.New("widget unavailable")
	}
	c := &fakeChart{opts: opts, subs: make(map[int]func(CrosshairEvent)), echo: f.echo}
	f.charts = append(f.charts, c)
	return c, nil
}

func (f *fakeFactory) live() []*fakeChart {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*fakeChart
	for _, c := range f.charts {
		if !c.removed {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeFactory) crosshairSubscriptions() int {
	n := 0
	f.mu.Lock()
	charts := append([]*fakeChart(nil), f.charts...)
	f.mu.Unlock()
	for _, c := range charts {
		n += c.subscriptions()
	}
	return n
}

type fakeContainer struct {
	mu     sync.Mutex
	width  int
	height int
	subs   map[int]func(int, int)
	next   int
}

func newFakeContainer(w, h int) *fakeContainer {
	return &fakeContainer{width: w, height: h, subs: make(map[int]func(int, int))}
}

func (c *fakeContainer) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *fakeContainer) OnResize(fn func(int, int)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.next
	c.next++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

func (c *fakeContainer) resize(w, h int) {
	c.mu.Lock()
	c.width, c.height = w, h
	fns := make([]func(int, int), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(w, h)
	}
}

func (c *fakeContainer) subscriptions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

type fakeSource struct {
	mu       sync.Mutex
	calls    int
	series   *data.HistoricalSeries
	err      error
	gate     chan struct{} // holds the first call only
	requests []data.HistoricalRequest
}

func (s *fakeSource) GetHistorical(ctx context.Context, req data.HistoricalRequest) (*data.HistoricalSeries, error) {
	s.mu.Lock()
	s.calls++
	s.requests = append(s.requests, req)
	var gate chan struct{}
	if s.calls == 1 {
		gate = s.gate
	}
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.series, s.err
}
