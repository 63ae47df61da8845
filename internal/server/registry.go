package server

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/options-dashboard/internal/api"
	"github.com/dgnsrekt/options-dashboard/internal/chart/render"
	"github.com/dgnsrekt/options-dashboard/internal/dashboard"
)

// Dashboard is one browser session: its controller plus the server-side
// chart backend and the viewport its pages report.
type Dashboard struct {
	Controller *dashboard.Controller
	Charts     *render.Factory
	Viewport   *render.Viewport

	lastSeen time.Time
}

// Registry holds live dashboards by ID and expires idle ones.
type Registry struct {
	client api.Client
	opts   dashboard.Options
	width  int
	height int
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*Dashboard
}

func NewRegistry(client api.Client, opts dashboard.Options, width, height int, logger *zap.Logger) *Registry {
	return &Registry{
		client:  client,
		opts:    opts,
		width:   width,
		height:  height,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]*Dashboard),
	}
}

func (r *Registry) Create() *Dashboard {
	charts := render.NewFactory(r.logger)
	viewport := render.NewViewport(r.width, r.height)
	d := &Dashboard{
		Controller: dashboard.New(r.client, charts, viewport, r.opts, r.logger),
		Charts:     charts,
		Viewport:   viewport,
	}

	r.mu.Lock()
	d.lastSeen = r.now()
	r.entries[d.Controller.ID()] = d
	r.mu.Unlock()

	r.logger.Info("dashboard created", zap.String("dashboard", d.Controller.ID()))
	return d
}

// Get returns a dashboard and marks it as seen.
func (r *Registry) Get(id string) (*Dashboard, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.entries[id]
	if ok {
		d.lastSeen = r.now()
	}
	return d, ok
}

func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	d, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()

	if ok {
		d.Controller.Close()
		r.logger.Info("dashboard removed", zap.String("dashboard", id))
	}
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep closes dashboards idle for longer than ttl.
func (r *Registry) Sweep(ttl time.Duration) int {
	cutoff := r.now().Add(-ttl)

	r.mu.Lock()
	var expired []*Dashboard
	for id, d := range r.entries {
		if d.lastSeen.Before(cutoff) {
			expired = append(expired, d)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	for _, d := range expired {
		d.Controller.Close()
		r.logger.Debug("dashboard expired", zap.String("dashboard", d.Controller.ID()))
	}
	return len(expired)
}

// Run sweeps every interval until ctx is cancelled.
func (r *Registry) Run(ctx context.Context, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(ttl); n > 0 {
				r.logger.Info("expired idle dashboards", zap.Int("count", n))
			}
		}
	}
}
