// Package api assembles the HTTP surface: routing, middleware and
// cross-cutting concerns around the domain handlers.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	categoryhandler "github.com/pesatrack/pesatrack/internal/domain/category/handler"
	smshandler "github.com/pesatrack/pesatrack/internal/domain/sms/handler"
	"github.com/pesatrack/pesatrack/pkg/middleware"
	"github.com/pesatrack/pesatrack/pkg/observability"
)

// NewRouter builds the top-level handler with middleware applied to the
// API routes and bare utility routes alongside.
func NewRouter(d *Dependencies) http.Handler {
	smsH := smshandler.NewSMSHandler(d.ImportService, d.Logger)
	categoryH := categoryhandler.NewCategoryHandler(d.CategoryRepo, d.Logger)

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("POST /api/sms/parse", smsH.ParseBatch)
	apiMux.HandleFunc("POST /api/sms/import", smsH.Import)
	apiMux.HandleFunc("GET /api/categories", categoryH.List)

	chain := []middleware.Middleware{
		middleware.RequestID(),
		middleware.Tracing(nil),
		middleware.Recovery(d.Logger),
		middleware.Logging(d.Logger),
		middleware.RateLimit(rate.NewLimiter(rate.Limit(d.Config.Server.RateLimitPerSecond), d.Config.Server.RateLimitBurst)),
		middleware.Auth([]byte(d.Config.Auth.JWTSecret)),
	}
	if d.Config.Observability.MetricsEnabled {
		chain = append(chain, observability.Metrics())
	}
	api := middleware.Chain(apiMux, chain...)

	root := http.NewServeMux()
	root.Handle("/api/", api)
	root.HandleFunc("GET /health", handleHealth(d))
	root.HandleFunc("GET /health/details", handleHealthDetails(d))
	root.HandleFunc("GET /ready", handleHealth(d))
	if d.Config.Observability.MetricsEnabled {
		root.Handle("GET /metrics", promhttp.Handler())
	}

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	})
	return c.Handler(root)
}

func handleHealthDetails(d *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]string{"database": "ok"}
		status := "ok"
		code := http.StatusOK
		if err := d.DB.Health(); err != nil {
			components["database"] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":     status,
			"components": components,
		})
	}
}

func handleHealth(d *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK
		if err := d.DB.Health(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
			d.Logger.Error("health check failed", slog.Any("error", err))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}
