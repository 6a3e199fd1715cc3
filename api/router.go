package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// NewRouter mounts the API routes with the middleware stack
func NewRouter(h *Handlers, metrics *HTTPMetrics) http.Handler {
	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(requestLogger)
	router.Use(chimw.Recoverer)
	if metrics != nil {
		router.Use(metrics.Instrument)
		router.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	router.Get("/health", h.Health)

	router.Route("/api", func(r chi.Router) {
		// Generation and history loads can walk hundreds of contests
		r.Use(chimw.Timeout(2 * time.Minute))

		r.Post("/gerar-palpites-personalizados", h.GenerateTickets)
		r.Get("/carregar-historico", h.LoadHistory)
		r.Get("/analise-avancada", h.AdvancedAnalysis)
		r.Get("/estatisticas-faixas", h.BandStatistics)
		r.Get("/mapa-calor.png", h.HeatMapImage)
	})

	router.Get("/export/txt", h.ExportTXT)
	router.Get("/export/xlsx", h.ExportXLSX)
	router.Get("/debug/numeros-gatilho", h.TriggerDebug)

	return router
}

// NewServer wraps handler in an http.Server with the service timeouts
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
}

// requestLogger logs each request through logrus
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		log.WithFields(log.Fields{
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    ww.Status(),
			"bytes":     ww.BytesWritten(),
			"duration":  time.Since(start),
			"requestId": chimw.GetReqID(r.Context()),
		}).Debug("HTTP request")
	})
}
