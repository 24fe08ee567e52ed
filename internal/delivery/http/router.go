package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"mobilizewarehouse/internal/delivery/http/controllers"
	"mobilizewarehouse/internal/delivery/http/middleware"
	"mobilizewarehouse/internal/domain"
)

// RouterConfig holds what the router wires together. Metrics may be nil.
type RouterConfig struct {
	Logger         *slog.Logger
	Auth           *controllers.AuthController
	Ingest         *controllers.IngestController
	Health         *controllers.HealthController
	Verifier       domain.TokenVerifier
	Metrics        http.Handler
	AllowedOrigins []string
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	requireOperator := middleware.RequireOperator(cfg.Verifier, cfg.Logger)

	// Auth
	mux.HandleFunc("POST /auth/token", cfg.Auth.IssueToken)

	// Ingest
	mux.HandleFunc("POST /ingest/runs", requireOperator(cfg.Ingest.TriggerRun))
	mux.HandleFunc("GET /ingest/runs/latest", cfg.Ingest.LatestRun)

	// Operations
	mux.HandleFunc("GET /healthz", cfg.Health.Healthz)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return middleware.LoggingMiddleware(cfg.Logger, middleware.CORS(cfg.AllowedOrigins, mux))
}
