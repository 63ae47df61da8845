package chart

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dgnsrekt/options-dashboard/internal/data"
)

// Binding ties a drawn series to its display name and visibility.
type Binding struct {
	Spec    SeriesSpec
	Visible bool
	handle  SeriesHandle
}

// SeriesState is the externally visible state of a binding.
type SeriesState struct {
	SeriesSpec
	Visible bool `json:"visible"`
}

// State is a snapshot of a live session.
type State struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Symbol    string          `json:"symbol"`
	Side      data.Side       `json:"side"`
	Metric    data.MetricKind `json:"metric"`
	Strike    data.Strike     `json:"strike"`
	Times     []string        `json:"times"`
	Layout    Layout          `json:"layout"`
	Series    []SeriesState   `json:"series"`
	Crosshair string          `json:"crosshair,omitempty"`
}

// SessionOptions configures a new session.
type SessionOptions struct {
	Title        string
	PrimaryRatio float64
}

// Session is one open historical chart: a primary panel and an optional
// oscillator panel with their series, a resize subscription, and a pair
// of crosshair subscriptions. All of it is released by Close.
type Session struct {
	id      string
	title   string
	request data.HistoricalRequest
	times   []string
	ratio   float64
	logger  *zap.Logger

	mu        sync.Mutex
	charts    map[Panel]Chart
	refs      map[Panel]SeriesHandle
	bindings  []*Binding
	layout    Layout
	crosshair string
	releases  []func()
	closed    atomic.Bool
	writing   map[Panel]*atomic.Pointer[string]
}

func newSession(req data.HistoricalRequest, set SeriesSet, factory Factory, container Container, opts SessionOptions, logger *zap.Logger) (*Session, error) {
	s := &Session{
		id:      uuid.NewString(),
		title:   opts.Title,
		request: req,
		times:   set.Times,
		ratio:   opts.PrimaryRatio,
		logger:  logger,
		charts:  make(map[Panel]Chart),
		refs:    make(map[Panel]SeriesHandle),
		writing: map[Panel]*atomic.Pointer[string]{
			PanelPrimary:    new(atomic.Pointer[string]),
			PanelOscillator: new(atomic.Pointer[string]),
		},
	}

	width, height := container.Size()
	s.layout = ComputeLayout(width, height, set.Oscillator != nil, s.ratio)

	if err := s.build(set, factory); err != nil {
		s.Close()
		return nil, err
	}

	cancel := container.OnResize(s.resize)
	s.releases = append(s.releases, cancel)

	if set.Oscillator != nil {
		s.link(PanelPrimary, PanelOscillator)
		s.link(PanelOscillator, PanelPrimary)
	}

	logger.Debug("chart session opened",
		zap.String("session", s.id),
		zap.String("symbol", req.Symbol),
		zap.Int("points", len(set.Times)),
		zap.Bool("oscillator", set.Oscillator != nil))

	return s, nil
}

func (s *Session) build(set SeriesSet, factory Factory) error {
	for _, g := range s.layout.Panels {
		c, err := factory.NewChart(ChartOptions{
			Panel:        g.Panel,
			Title:        s.title,
			Width:        g.Width,
			Height:       g.Height,
			ShowTimeAxis: g.ShowTimeAxis,
		})
		if err != nil {
			return fmt.Errorf("creating %s panel: %w", g.Panel, err)
		}
		s.charts[g.Panel] = c
	}

	for _, spec := range set.All() {
		c, ok := s.charts[spec.Panel]
		if !ok {
			return fmt.Errorf("series %q: %w: %s", spec.Name, ErrUnknownPanel, spec.Panel)
		}
		h, err := c.AddSeries(spec)
		if err != nil {
			return fmt.Errorf("adding series %q: %w", spec.Name, err)
		}
		s.bindings = append(s.bindings, &Binding{Spec: spec, Visible: true, handle: h})

		switch {
		case spec.Panel == PanelPrimary && spec.Name == NameUnderlying:
			s.refs[PanelPrimary] = h
		case spec.Panel == PanelOscillator && s.refs[PanelOscillator] == nil:
			s.refs[PanelOscillator] = h
		}
	}
	return nil
}

// link relays pointer events on from to the crosshair of to.
func (s *Session) link(from, to Panel) {
	src, dst := s.charts[from], s.charts[to]
	ref := s.refs[to]

	unsubscribe := src.SubscribeCrosshairMove(func(ev CrosshairEvent) {
		s.relay(from, to, dst, ref, ev)
	})
	s.releases = append(s.releases, unsubscribe)
}

// relay moves one hop. An event from a panel carrying the time a relay is
// writing into that same panel is the echo of the relay and is dropped;
// any other pointer, including one raised concurrently, is relayed.
func (s *Session) relay(from, to Panel, dst Chart, ref SeriesHandle, ev CrosshairEvent) {
	if s.closed.Load() {
		return
	}
	if w := s.writing[from].Load(); w != nil && *w == ev.Time {
		return
	}
	mine := &ev.Time
	s.writing[to].Store(mine)
	defer s.writing[to].CompareAndSwap(mine, nil)

	if ev.Time == "" {
		dst.ClearCrosshair()
	} else {
		dst.SetCrosshair(ev.Time, ref)
	}

	s.mu.Lock()
	s.crosshair = ev.Time
	s.mu.Unlock()
}

func (s *Session) resize(width, height int) {
	if s.closed.Load() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, hasOsc := s.charts[PanelOscillator]
	s.layout = ComputeLayout(width, height, hasOsc, s.ratio)
	for _, g := range s.layout.Panels {
		if c, ok := s.charts[g.Panel]; ok {
			c.Resize(g.Width, g.Height)
			c.SetTimeAxisVisible(g.ShowTimeAxis)
		}
	}
}

func (s *Session) ID() string                      { return s.id }
func (s *Session) Title() string                   { return s.title }
func (s *Session) Request() data.HistoricalRequest { return s.request }
func (s *Session) Closed() bool                    { return s.closed.Load() }

// Layout returns the current panel arrangement.
func (s *Session) Layout() Layout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout
}

// Chart returns the widget for a panel.
func (s *Session) Chart(p Panel) (Chart, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.charts[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPanel, p)
	}
	return c, nil
}

// Pointer feeds a remote pointer position into a panel's chart.
func (s *Session) Pointer(p Panel, time string) error {
	c, err := s.Chart(p)
	if err != nil {
		return err
	}
	in, ok := c.(PointerInput)
	if !ok {
		return ErrNoPointerInput
	}
	in.Pointer(time)
	return nil
}

// SetVisible shows or hides one series, leaving all others untouched.
func (s *Session) SetVisible(name string, visible bool) error {
	_, err := s.update(name, func(bool) bool { return visible })
	return err
}

// Toggle flips one series' visibility and returns the new state.
func (s *Session) Toggle(name string) (bool, error) {
	return s.update(name, func(v bool) bool { return !v })
}

func (s *Session) update(name string, next func(bool) bool) (bool, error) {
	if s.closed.Load() {
		return false, ErrSessionClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.bindings {
		if b.Spec.Name == name {
			b.Visible = next(b.Visible)
			b.handle.SetVisible(b.Visible)
			return b.Visible, nil
		}
	}
	return false, fmt.Errorf("%w: %q", ErrUnknownSeries, name)
}

// State returns a snapshot for rendering clients.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	series := make([]SeriesState, len(s.bindings))
	for i, b := range s.bindings {
		series[i] = SeriesState{SeriesSpec: b.Spec, Visible: b.Visible}
	}
	return State{
		ID:        s.id,
		Title:     s.title,
		Symbol:    s.request.Symbol,
		Side:      s.request.Side,
		Metric:    s.request.Metric,
		Strike:    s.request.Strike,
		Times:     s.times,
		Layout:    s.layout,
		Series:    series,
		Crosshair: s.crosshair,
	}
}

// Close releases the resize subscription, the crosshair subscriptions,
// and the chart instances. It is safe to call more than once.
func (s *Session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, release := range s.releases {
		release()
	}
	s.releases = nil

	for p, c := range s.charts {
		c.Remove()
		delete(s.charts, p)
	}
	s.refs = make(map[Panel]SeriesHandle)
	s.bindings = nil

	s.logger.Debug("chart session closed", zap.String("session", s.id))
}
