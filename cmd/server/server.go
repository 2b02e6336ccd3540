// cmd/server/server.go
package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/codr1/fieldbook/internal/api"
	"github.com/codr1/fieldbook/internal/api/directory"
	"github.com/codr1/fieldbook/internal/api/reservations"
	"github.com/codr1/fieldbook/internal/api/waitlist"
	"github.com/codr1/fieldbook/internal/booking"
	"github.com/codr1/fieldbook/internal/config"
	"github.com/codr1/fieldbook/internal/db"
	"github.com/codr1/fieldbook/internal/metrics"
	"github.com/codr1/fieldbook/internal/notify"
)

type serverDeps struct {
	database *db.DB
	engine   *booking.Engine
	notifier notify.Notifier
	metrics  *metrics.Metrics
}

func newServer(cfg *config.Config, deps serverDeps) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain
	var middleware []api.Middleware
	if deps.metrics != nil {
		middleware = append(middleware, api.WithMetrics(deps.metrics))
	}
	middleware = append(middleware, api.WithLogging, api.WithRecovery, api.WithRequestID, api.WithContentType)
	handler := api.ChainMiddleware(router, middleware...)

	// Register routes
	registerRoutes(router, deps)

	return &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux, deps serverDeps) {
	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := deps.database.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if deps.metrics != nil {
		mux.Handle("GET /metrics", deps.metrics.Handler())
	}

	directory.InitHandlers(deps.database)
	directory.RegisterRoutes(mux)

	reservations.InitHandlers(deps.engine, deps.notifier, deps.metrics)
	reservations.RegisterRoutes(mux)

	waitlist.InitHandlers(deps.engine, deps.notifier, deps.metrics)
	waitlist.RegisterRoutes(mux)
}
