package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"
	"go.uber.org/zap"

	"github.com/dgnsrekt/options-dashboard/internal/api"
	"github.com/dgnsrekt/options-dashboard/internal/chart"
	"github.com/dgnsrekt/options-dashboard/internal/chart/render"
	"github.com/dgnsrekt/options-dashboard/internal/dashboard"
	"github.com/dgnsrekt/options-dashboard/internal/export"
	"github.com/dgnsrekt/options-dashboard/internal/table"
	"github.com/dgnsrekt/options-dashboard/internal/ws"
)

type Server struct {
	client   api.Client
	registry *Registry
	hub      *ws.Hub
	decoder  *schema.Decoder
	logger   *zap.Logger
}

func NewServer(client api.Client, registry *Registry, logger *zap.Logger) *Server {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return &Server{
		client:   client,
		registry: registry,
		decoder:  decoder,
		logger:   logger,
	}
}

// AttachHub enables state pushes to connected pages.
func (s *Server) AttachHub(hub *ws.Hub) {
	s.hub = hub
}

// Compile-time interface verification
var _ ws.Handler = (*Server)(nil)

type ctxKey struct{}

func (s *Server) dashboardCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, ok := s.registry.Get(chi.URLParam(r, "id"))
		if !ok {
			writeMessage(w, http.StatusNotFound, "unknown dashboard")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, d)))
	})
}

func dashboardFrom(r *http.Request) *Dashboard {
	return r.Context().Value(ctxKey{}).(*Dashboard)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"dashboards": s.registry.Len(),
	})
}

func (s *Server) tickers(w http.ResponseWriter, r *http.Request) {
	tickers, err := s.client.GetTickers(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tickers": tickers})
}

func (s *Server) tradingDates(w http.ResponseWriter, r *http.Request) {
	dates, err := s.client.GetTradingDates(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dates": dates})
}

type expiryParams struct {
	Ticker string `schema:"ticker,required"`
}

func (s *Server) expiries(w http.ResponseWriter, r *http.Request) {
	var p expiryParams
	if !s.decode(w, r, &p) {
		return
	}
	dates, err := s.client.GetExpiryDates(r.Context(), p.Ticker)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"expiry_dates": dates})
}

func (s *Server) createDashboard(w http.ResponseWriter, r *http.Request) {
	d := s.registry.Create()
	writeJSON(w, http.StatusCreated, d.Controller.Page(0))
}

func (s *Server) deleteDashboard(w http.ResponseWriter, r *http.Request) {
	s.registry.Remove(dashboardFrom(r).Controller.ID())
	w.WriteHeader(http.StatusNoContent)
}

type dateParams struct {
	Date string `schema:"date"`
}

func (s *Server) loadDate(w http.ResponseWriter, r *http.Request) {
	var p dateParams
	if !s.decode(w, r, &p) {
		return
	}
	ctrl := dashboardFrom(r).Controller
	if err := ctrl.LoadDate(r.Context(), p.Date); err != nil {
		s.writeError(w, err)
		return
	}
	s.respondTable(w, ctrl, 0)
}

type pageParams struct {
	Page int `schema:"page"`
}

func (s *Server) tablePage(w http.ResponseWriter, r *http.Request) {
	var p pageParams
	if !s.decode(w, r, &p) {
		return
	}
	writeJSON(w, http.StatusOK, dashboardFrom(r).Controller.Page(p.Page))
}

type tabParams struct {
	Tab string `schema:"tab,required"`
}

func (s *Server) switchTab(w http.ResponseWriter, r *http.Request) {
	var p tabParams
	if !s.decode(w, r, &p) {
		return
	}
	ctrl := dashboardFrom(r).Controller
	if err := ctrl.SwitchTab(p.Tab); err != nil {
		s.writeError(w, err)
		return
	}
	s.respondTable(w, ctrl, 0)
}

type filterParams struct {
	Query string `schema:"q"`
}

func (s *Server) setFilter(w http.ResponseWriter, r *http.Request) {
	var p filterParams
	if !s.decode(w, r, &p) {
		return
	}
	ctrl := dashboardFrom(r).Controller
	ctrl.SetFilter(p.Query)
	s.respondTable(w, ctrl, 0)
}

type sortParams struct {
	Column int  `schema:"column"`
	Desc   bool `schema:"desc"`
}

func (s *Server) sortTable(w http.ResponseWriter, r *http.Request) {
	var p sortParams
	if !s.decode(w, r, &p) {
		return
	}
	ctrl := dashboardFrom(r).Controller
	if err := ctrl.Sort(p.Column, p.Desc); err != nil {
		s.writeError(w, err)
		return
	}
	s.respondTable(w, ctrl, 0)
}

type sizeParams struct {
	Width  int `schema:"width,required"`
	Height int `schema:"height,required"`
}

func (s *Server) adjustTable(w http.ResponseWriter, r *http.Request) {
	var p sizeParams
	if !s.decode(w, r, &p) {
		return
	}
	ctrl := dashboardFrom(r).Controller
	ctrl.Adjust(p.Width, p.Height)
	s.respondTable(w, ctrl, 0)
}

type cellParams struct {
	Row    int `schema:"row"`
	Column int `schema:"column"`
}

func (s *Server) activateCell(w http.ResponseWriter, r *http.Request) {
	var p cellParams
	if !s.decode(w, r, &p) {
		return
	}
	ctrl := dashboardFrom(r).Controller
	sess, err := ctrl.Activate(r.Context(), p.Row, p.Column)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.respondChart(w, ctrl.ID(), sess.State())
}

func (s *Server) exportWorkbook(w http.ResponseWriter, r *http.Request) {
	ctrl := dashboardFrom(r).Controller

	var buf bytes.Buffer
	if err := ctrl.Export(&buf); err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ctrl.ExportFileName()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

type detailParams struct {
	Symbol string `schema:"symbol"`
	Expiry string `schema:"expiry"`
}

func (s *Server) stockDetail(w http.ResponseWriter, r *http.Request) {
	var p detailParams
	if !s.decode(w, r, &p) {
		return
	}
	view, err := dashboardFrom(r).Controller.Detail(r.Context(), p.Symbol, p.Expiry)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) chartState(w http.ResponseWriter, r *http.Request) {
	sess, err := dashboardFrom(r).Controller.Chart()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.State())
}

func (s *Server) closeChart(w http.ResponseWriter, r *http.Request) {
	ctrl := dashboardFrom(r).Controller
	ctrl.CloseChart()
	s.publish(ctrl.ID(), map[string]any{"chart": nil})
	w.WriteHeader(http.StatusNoContent)
}

type toggleParams struct {
	Series string `schema:"series,required"`
}

func (s *Server) toggleSeries(w http.ResponseWriter, r *http.Request) {
	var p toggleParams
	if !s.decode(w, r, &p) {
		return
	}
	ctrl := dashboardFrom(r).Controller
	state, err := ctrl.ToggleSeries(p.Series)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.respondChart(w, ctrl.ID(), state)
}

type pointerParams struct {
	Panel string `schema:"panel,required"`
	Time  string `schema:"time"`
}

func (s *Server) pointer(w http.ResponseWriter, r *http.Request) {
	var p pointerParams
	if !s.decode(w, r, &p) {
		return
	}
	d := dashboardFrom(r)
	state, err := s.applyEvent(d, ws.Event{Type: ws.EventPointer, Panel: p.Panel, Time: p.Time})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.respondChart(w, d.Controller.ID(), state)
}

func (s *Server) resizeChart(w http.ResponseWriter, r *http.Request) {
	var p sizeParams
	if !s.decode(w, r, &p) {
		return
	}
	d := dashboardFrom(r)
	state, err := s.applyEvent(d, ws.Event{Type: ws.EventResize, Width: p.Width, Height: p.Height})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.respondChart(w, d.Controller.ID(), state)
}

func (s *Server) renderPanel(w http.ResponseWriter, r *http.Request) {
	d := dashboardFrom(r)
	panel, err := chart.ParsePanel(chi.URLParam(r, "panel"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if _, err := d.Controller.Chart(); err != nil {
		s.writeError(w, err)
		return
	}
	c, ok := d.Charts.Chart(panel)
	if !ok {
		writeMessage(w, http.StatusNotFound, "panel not shown")
		return
	}

	var buf bytes.Buffer
	if err := c.RenderPNG(&buf); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// seriesCSV refetches the open chart's series and streams it as CSV.
func (s *Server) seriesCSV(w http.ResponseWriter, r *http.Request) {
	sess, err := dashboardFrom(r).Controller.Chart()
	if err != nil {
		s.writeError(w, err)
		return
	}
	req := sess.Request()
	series, err := s.client.GetHistorical(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteSeriesCSV(&buf, *series); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.SeriesFileName(req)))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// Exists implements ws.Handler.
func (s *Server) Exists(id string) bool {
	_, ok := s.registry.Get(id)
	return ok
}

// HandleEvent implements ws.Handler.
func (s *Server) HandleEvent(id string, ev ws.Event) (any, error) {
	d, ok := s.registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("dashboard %s: %w", id, errUnknownDashboard)
	}
	switch ev.Type {
	case ws.EventAdjust:
		d.Controller.Adjust(ev.Width, ev.Height)
		return d.Controller.Page(0), nil
	case ws.EventToggle:
		return d.Controller.ToggleSeries(ev.Series)
	}
	return s.applyEvent(d, ev)
}

// applyEvent handles chart pointer and resize input.
func (s *Server) applyEvent(d *Dashboard, ev ws.Event) (chart.State, error) {
	switch ev.Type {
	case ws.EventResize:
		if ev.Width <= 0 || ev.Height <= 0 {
			return chart.State{}, fmt.Errorf("%w: %dx%d", errBadSize, ev.Width, ev.Height)
		}
		d.Viewport.Resize(ev.Width, ev.Height)
		sess, err := d.Controller.Chart()
		if err != nil {
			return chart.State{}, err
		}
		return sess.State(), nil

	case ws.EventPointer:
		panel, err := chart.ParsePanel(ev.Panel)
		if err != nil {
			return chart.State{}, err
		}
		sess, err := d.Controller.Chart()
		if err != nil {
			return chart.State{}, err
		}
		if err := sess.Pointer(panel, ev.Time); err != nil {
			return chart.State{}, err
		}
		return sess.State(), nil
	}
	return chart.State{}, fmt.Errorf("%w: %q", errUnknownEvent, ev.Type)
}

func (s *Server) respondTable(w http.ResponseWriter, ctrl *dashboard.Controller, page int) {
	view := ctrl.Page(page)
	s.publish(ctrl.ID(), view)
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) respondChart(w http.ResponseWriter, id string, state chart.State) {
	s.publish(id, state)
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) publish(id string, state any) {
	if s.hub != nil {
		s.hub.Publish(id, state)
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := r.ParseForm(); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return false
	}
	if err := s.decoder.Decode(dst, r.Form); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

var (
	errUnknownDashboard = errors.New("unknown dashboard")
	errUnknownEvent     = errors.New("unknown event")
	errBadSize          = errors.New("size must be positive")
)

// writeError maps a failure onto a status. Notices carry their message
// for the page to show; transport failures are 502.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	if n, ok := dashboard.AsNotice(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"notice": n.Message})
		return
	}

	var backendErr *api.BackendError
	switch {
	case errors.Is(err, dashboard.ErrStale):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, chart.ErrNoSession),
		errors.Is(err, errUnknownDashboard),
		errors.Is(err, api.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, table.ErrCellOutOfRange),
		errors.Is(err, table.ErrColumnOutOfRange),
		errors.Is(err, table.ErrNotClickable),
		errors.Is(err, chart.ErrUnknownSeries),
		errors.Is(err, chart.ErrUnknownPanel),
		errors.Is(err, chart.ErrNoPointerInput),
		errors.Is(err, errUnknownEvent),
		errors.Is(err, errBadSize):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, render.ErrNothingToDraw), errors.Is(err, export.ErrNoSeries):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.As(err, &backendErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"notice": backendErr.Message})
	default:
		s.logger.Warn("request failed", zap.Error(err))
		writeMessage(w, http.StatusBadGateway, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
