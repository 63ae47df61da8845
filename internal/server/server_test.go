package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/options-dashboard/internal/api"
	"github.com/dgnsrekt/options-dashboard/internal/chart"
	"github.com/dgnsrekt/options-dashboard/internal/dashboard"
	"github.com/dgnsrekt/options-dashboard/internal/data"
	"github.com/dgnsrekt/options-dashboard/internal/table"
)

type mockClient struct {
	metricsErr error
}

func fptr(v float64) *float64 { return &v }

func (m *mockClient) GetMetrics(ctx context.Context, date string) (*data.MetricsSnapshot, error) {
	if m.metricsErr != nil {
		return nil, m.metricsErr
	}
	row := func(symbol, strike string) data.MetricRow {
		return data.MetricRow{
			Symbol: symbol,
			Put: data.SideMetrics{
				VegaNeg: data.StrikeShift{Strike: data.MustStrike(strike), Percent: data.MustPercent("-2.5")},
				Money:   -1_200_000,
			},
			Close: 950,
			RSI:   fptr(28),
		}
	}
	return &data.MetricsSnapshot{
		CurrDate: date,
		PrevDate: "2025-01-14",
		Total:    []data.MetricRow{row("SBIN", "800"), row("ITC", "450")},
		OTM:      []data.MetricRow{row("ITC", "460")},
	}, nil
}

func (m *mockClient) GetHistorical(ctx context.Context, req data.HistoricalRequest) (*data.HistoricalSeries, error) {
	pts := make([]data.HistoricalPoint, 10)
	for i := range pts {
		pts[i] = data.HistoricalPoint{
			Date:            fmt.Sprintf("2025-01-%02d", i+1),
			PCRVolume:       0.8,
			PCROI:           1.05,
			UnderlyingPrice: 800 + float64(i),
			StrikeVega:      fptr(0.1 * float64(i)),
			RSI:             fptr(30 + float64(i)),
		}
	}
	return &data.HistoricalSeries{Ticker: req.Symbol, Data: pts}, nil
}

func (m *mockClient) GetTickers(context.Context) ([]string, error) {
	return []string{"ITC", "SBIN"}, nil
}

func (m *mockClient) GetTradingDates(context.Context) ([]string, error) {
	return []string{"2025-01-14", "2025-01-15"}, nil
}

func (m *mockClient) GetExpiryDates(ctx context.Context, ticker string) ([]string, error) {
	return []string{"2025-01-30"}, nil
}

func (m *mockClient) GetStockDetail(ctx context.Context, ticker, date, expiry string) (*data.StockDetail, error) {
	return &data.StockDetail{ExpiryDates: []string{"2025-01-30"}, Stats: &data.StockStats{PCROI: fptr(1)}}, nil
}

func newTestServer(t *testing.T, client api.Client) (*httptest.Server, *Registry) {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	opts := dashboard.DefaultOptions()
	opts.Now = func() time.Time { return time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC) }
	registry := NewRegistry(client, opts, 800, 400, logger)
	srv := httptest.NewServer(NewRouter(NewServer(client, registry, logger), nil, logger))
	t.Cleanup(srv.Close)
	return srv, registry
}

func do(t *testing.T, method, target string, params url.Values) *http.Response {
	t.Helper()
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequest(method, target, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func createDashboard(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp := do(t, http.MethodPost, srv.URL+"/api/dashboards", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var view dashboard.View
	decodeBody(t, resp, &view)
	if view.Dashboard == "" {
		t.Fatal("expected dashboard id")
	}
	if view.Page.Placeholder != table.PlaceholderLoading {
		t.Errorf("expected loading placeholder, got %q", view.Page.Placeholder)
	}
	return srv.URL + "/api/dashboards/" + view.Dashboard
}

func TestHealthAndLookups(t *testing.T) {
	srv, _ := newTestServer(t, &mockClient{})

	if resp := do(t, http.MethodGet, srv.URL+"/health", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("health: expected 200, got %d", resp.StatusCode)
	}

	var tickers struct {
		Tickers []string `json:"tickers"`
	}
	decodeBody(t, do(t, http.MethodGet, srv.URL+"/api/tickers", nil), &tickers)
	if len(tickers.Tickers) != 2 {
		t.Errorf("expected 2 tickers, got %v", tickers.Tickers)
	}

	if resp := do(t, http.MethodGet, srv.URL+"/api/expiries", nil); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expiries without ticker: expected 400, got %d", resp.StatusCode)
	}
}

func TestUnknownDashboard(t *testing.T) {
	srv, _ := newTestServer(t, &mockClient{})
	resp := do(t, http.MethodGet, srv.URL+"/api/dashboards/missing/table", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestTableFlow(t *testing.T) {
	srv, _ := newTestServer(t, &mockClient{})
	base := createDashboard(t, srv)

	resp := do(t, http.MethodPost, base+"/date", nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("missing date: expected 422, got %d", resp.StatusCode)
	}
	var notice map[string]string
	decodeBody(t, resp, &notice)
	if notice["notice"] != dashboard.NoticeNoDate {
		t.Errorf("unexpected notice %q", notice["notice"])
	}

	resp = do(t, http.MethodPost, base+"/date", url.Values{"date": {"2025-01-15"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("load date: expected 200, got %d", resp.StatusCode)
	}
	var view dashboard.View
	decodeBody(t, resp, &view)
	if view.Date != "2025-01-15" || view.Page.Total != 2 {
		t.Errorf("unexpected view: date=%s total=%d", view.Date, view.Page.Total)
	}
	if view.Page.Rows[0].Symbol != "ITC" {
		t.Errorf("expected ITC first, got %s", view.Page.Rows[0].Symbol)
	}

	do(t, http.MethodPost, base+"/filter", url.Values{"q": {"itc"}})
	resp = do(t, http.MethodPost, base+"/tab", url.Values{"tab": {"otm"}})
	decodeBody(t, resp, &view)
	if view.Tab != table.OTM || view.Page.Filter != "itc" || view.Page.Filtered != 1 {
		t.Errorf("tab switch lost state: %+v", view.Page)
	}

	resp = do(t, http.MethodPost, base+"/tab", url.Values{"tab": {"atm"}})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("unknown tab: expected 422, got %d", resp.StatusCode)
	}

	resp = do(t, http.MethodPost, base+"/sort", url.Values{"column": {"99"}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad sort column: expected 400, got %d", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, base+"/export", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export: expected 200, got %d", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "Options_OTM_2025-01-15.xlsx") {
		t.Errorf("unexpected disposition %q", cd)
	}
}

func TestLoadDateTransportFailure(t *testing.T) {
	srv, _ := newTestServer(t, &mockClient{metricsErr: errors.New("dial tcp: connection refused")})
	base := createDashboard(t, srv)

	resp := do(t, http.MethodPost, base+"/date", url.Values{"date": {"2025-01-15"}})
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}

	var view dashboard.View
	decodeBody(t, do(t, http.MethodGet, base+"/table", nil), &view)
	if view.Page.Placeholder != table.PlaceholderLoadError {
		t.Errorf("expected load error placeholder, got %q", view.Page.Placeholder)
	}
}

func TestChartFlow(t *testing.T) {
	srv, registry := newTestServer(t, &mockClient{})
	base := createDashboard(t, srv)

	if resp := do(t, http.MethodGet, base+"/chart", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("no chart: expected 404, got %d", resp.StatusCode)
	}

	do(t, http.MethodPost, base+"/date", url.Values{"date": {"2025-01-15"}})

	col := table.ColumnIndex("put_vega_neg_pct")
	resp := do(t, http.MethodPost, base+"/cells", url.Values{"row": {"0"}, "column": {fmt.Sprint(col)}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("activate: expected 200, got %d", resp.StatusCode)
	}
	var state chart.State
	decodeBody(t, resp, &state)
	if state.Symbol != "SBIN" || state.Strike.String() != "800" {
		t.Errorf("unexpected chart: %s %s", state.Symbol, state.Strike)
	}
	if len(state.Layout.Panels) != 2 {
		t.Errorf("expected two panels, got %d", len(state.Layout.Panels))
	}

	resp = do(t, http.MethodGet, base+"/chart/panels/primary.png", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("render: expected 200, got %d", resp.StatusCode)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decoding png: %v", err)
	}
	if w := img.Bounds().Dx(); w != 800 {
		t.Errorf("expected width 800, got %d", w)
	}

	resp = do(t, http.MethodPost, base+"/chart/pointer", url.Values{"panel": {"oscillator"}, "time": {"2025-01-04"}})
	decodeBody(t, resp, &state)
	if state.Crosshair != "2025-01-04" {
		t.Errorf("expected crosshair 2025-01-04, got %q", state.Crosshair)
	}

	resp = do(t, http.MethodPost, base+"/chart/toggle", url.Values{"series": {chart.NamePCROI}})
	decodeBody(t, resp, &state)
	for _, s := range state.Series {
		if s.Name == chart.NamePCROI && s.Visible {
			t.Error("PCR (OI) should be hidden")
		}
	}

	resp = do(t, http.MethodPost, base+"/chart/resize", url.Values{"width": {"1000"}, "height": {"500"}})
	decodeBody(t, resp, &state)
	if p, _ := state.Layout.Panel(chart.PanelPrimary); p.Height != 360 {
		t.Errorf("expected primary height 360, got %d", p.Height)
	}

	resp = do(t, http.MethodGet, base+"/chart/series.csv", nil)
	if ct := resp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Errorf("expected text/csv, got %q", ct)
	}

	if resp := do(t, http.MethodDelete, base+"/chart", nil); resp.StatusCode != http.StatusNoContent {
		t.Errorf("close chart: expected 204, got %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodGet, base+"/chart/panels/primary.png", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("render after close: expected 404, got %d", resp.StatusCode)
	}

	if resp := do(t, http.MethodDelete, base, nil); resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete: expected 204, got %d", resp.StatusCode)
	}
	if registry.Len() != 0 {
		t.Errorf("expected registry empty, got %d", registry.Len())
	}
}

func TestRegistrySweep(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	registry := NewRegistry(&mockClient{}, dashboard.DefaultOptions(), 800, 400, logger)

	now := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	registry.now = func() time.Time { return now }

	stale := registry.Create()
	now = now.Add(90 * time.Minute)
	fresh := registry.Create()

	now = now.Add(40 * time.Minute)
	if n := registry.Sweep(2 * time.Hour); n != 1 {
		t.Fatalf("expected 1 expired, got %d", n)
	}
	if _, ok := registry.Get(stale.Controller.ID()); ok {
		t.Error("stale dashboard should be gone")
	}
	if _, ok := registry.Get(fresh.Controller.ID()); !ok {
		t.Error("fresh dashboard should remain")
	}
}
