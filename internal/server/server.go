package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/dgnsrekt/options-dashboard/internal/ws"
)

// NewRouter wires the dashboard API. hub may be nil when WebSocket pushes
// are disabled.
func NewRouter(server *Server, hub *ws.Hub, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)
	r.Use(zapLoggerMiddleware(logger))

	r.Get("/health", server.health)

	r.Route("/api", func(api chi.Router) {
		api.Get("/tickers", server.tickers)
		api.Get("/dates", server.tradingDates)
		api.Get("/expiries", server.expiries)

		api.Post("/dashboards", server.createDashboard)
		api.Route("/dashboards/{id}", func(d chi.Router) {
			d.Use(server.dashboardCtx)
			d.Delete("/", server.deleteDashboard)

			d.Post("/date", server.loadDate)
			d.Get("/table", server.tablePage)
			d.Post("/tab", server.switchTab)
			d.Post("/filter", server.setFilter)
			d.Post("/sort", server.sortTable)
			d.Post("/viewport", server.adjustTable)
			d.Post("/cells", server.activateCell)
			d.With(middleware.Compress(5)).Get("/export", server.exportWorkbook)
			d.Get("/detail", server.stockDetail)

			d.Route("/chart", func(c chi.Router) {
				c.Get("/", server.chartState)
				c.Delete("/", server.closeChart)
				c.Post("/toggle", server.toggleSeries)
				c.Post("/pointer", server.pointer)
				c.Post("/resize", server.resizeChart)
				c.Get("/panels/{panel}.png", server.renderPanel)
				c.Get("/series.csv", server.seriesCSV)
			})
		})
	})

	if hub != nil {
		r.Get("/ws", hub.ServeWS)
	}

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func zapLoggerMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Int("status", ww.Status()),
				zap.String("requestID", middleware.GetReqID(r.Context())),
			)
		})
	}
}
