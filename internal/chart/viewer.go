package chart

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/dgnsrekt/options-dashboard/internal/data"
)

// Source fetches historical series.
type Source interface {
	GetHistorical(ctx context.Context, req data.HistoricalRequest) (*data.HistoricalSeries, error)
}

// Options configures a Viewer.
type Options struct {
	PrimaryRatio    float64
	OscillatorLabel string
	HistoryDays     int
}

// DefaultOptions returns the stock panel split and labels.
func DefaultOptions() Options {
	return Options{
		PrimaryRatio:    DefaultPrimaryRatio,
		OscillatorLabel: DefaultOscillatorLabel,
		HistoryDays:     DefaultHistoryDays,
	}
}

// Viewer owns at most one live Session. Opening a new one tears the old
// one down first; responses to superseded requests are discarded.
type Viewer struct {
	source    Source
	factory   Factory
	container Container
	seq       *data.Sequencer
	opts      Options
	logger    *zap.Logger

	mu      sync.Mutex
	current *Session
}

func NewViewer(source Source, factory Factory, container Container, seq *data.Sequencer, opts Options, logger *zap.Logger) *Viewer {
	if seq == nil {
		seq = data.NewSequencer()
	}
	return &Viewer{
		source:    source,
		factory:   factory,
		container: container,
		seq:       seq,
		opts:      opts,
		logger:    logger,
	}
}

// Open validates req, fetches its series, and replaces the current
// session with a new one. Invalid requests fail before any fetch.
func (v *Viewer) Open(ctx context.Context, req data.HistoricalRequest) (*Session, error) {
	req, third, err := Validate(req)
	if err != nil {
		return nil, err
	}

	seq := v.seq.Next(data.KindHistorical)
	v.logger.Debug("fetching historical series",
		zap.String("symbol", req.Symbol),
		zap.String("side", string(req.Side)),
		zap.String("metric", string(req.Metric)),
		zap.String("strike", req.Strike.String()),
		zap.Uint64("seq", seq))

	resp, err := v.source.GetHistorical(ctx, req)
	if !v.seq.IsLatest(data.KindHistorical, seq) {
		v.logger.Debug("discarding stale historical response", zap.Uint64("seq", seq))
		return nil, ErrStaleResponse
	}
	if err != nil {
		return nil, err
	}

	set, err := BuildSeries(resp.Data, third, v.opts.OscillatorLabel)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	// A newer request may have been issued while this one was building.
	if !v.seq.IsLatest(data.KindHistorical, seq) {
		return nil, ErrStaleResponse
	}

	v.closeCurrentLocked()

	sess, err := newSession(req, set, v.factory, v.container, SessionOptions{
		Title:        Title(req, third, v.opts.HistoryDays),
		PrimaryRatio: v.opts.PrimaryRatio,
	}, v.logger)
	if err != nil {
		return nil, err
	}
	v.current = sess
	return sess, nil
}

// Current returns the live session.
func (v *Viewer) Current() (*Session, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.current == nil {
		return nil, ErrNoSession
	}
	return v.current, nil
}

// Close tears down the live session and discards any in-flight response.
func (v *Viewer) Close() {
	v.seq.Invalidate(data.KindHistorical)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.closeCurrentLocked()
}

func (v *Viewer) closeCurrentLocked() {
	if v.current == nil {
		return
	}
	v.current.Close()
	v.current = nil
}
