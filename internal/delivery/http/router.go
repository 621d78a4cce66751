package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"flockmanager/internal/delivery/http/controllers"
	"flockmanager/internal/delivery/http/middleware"
	"flockmanager/internal/domain"
)

// RouterConfig carries everything NewRouter wires together.
type RouterConfig struct {
	Logger         *slog.Logger
	Events         *controllers.EventController
	Auth           *controllers.AuthController
	Health         *controllers.HealthController
	Sessions       domain.TokenVerifier
	Registry       *prometheus.Registry
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewRouter initializes the HTTP router with all application routes and
// wraps it in the middleware chain.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	requireAuth := middleware.RequireAuth(cfg.Sessions, cfg.Logger)
	optionalAuth := middleware.OptionalAuth(cfg.Sessions, cfg.Logger)

	// Auth
	mux.HandleFunc("POST /auth/login", cfg.Auth.Login)
	mux.HandleFunc("POST /auth/verify", cfg.Auth.Verify)
	mux.HandleFunc("POST /auth/logout", cfg.Auth.Logout)
	mux.HandleFunc("GET /auth/me", requireAuth(cfg.Auth.Me))

	// Events
	mux.HandleFunc("GET /events/{id}/qrcode", requireAuth(cfg.Events.QRCode))
	mux.HandleFunc("GET /events/{id}/qrcode/image", requireAuth(cfg.Events.QRCodeImage))
	mux.HandleFunc("POST /events/{id}/checkin", optionalAuth(cfg.Events.CheckIn))
	mux.HandleFunc("GET /events/{id}/attendance", requireAuth(cfg.Events.Attendance))

	mux.HandleFunc("GET /health", cfg.Health.Health)
	if cfg.Registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))
	}

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	var handler http.Handler = mux
	if cfg.RequestTimeout > 0 {
		handler = middleware.Timeout(cfg.RequestTimeout, handler)
	}
	if cfg.Registry != nil {
		handler = middleware.Metrics(cfg.Registry, handler)
	}
	handler = middleware.Recover(cfg.Logger, handler)
	handler = middleware.CORS(cfg.AllowedOrigins, handler)
	return middleware.LoggingMiddleware(cfg.Logger, handler)
}
