package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/neexbeast/vetero/internal/metrics"
)

// weatherResource is the grant required by the weather route.
const weatherResource = "api"

// weatherRoute only matches decimal coordinates; anything else is a 404.
const weatherRoute = `/api/weather/{lat:-?\d{1,2}\.\d+},{lon:-?\d{1,3}\.\d+}`

// RouterConfig carries the dependencies of NewRouter. Redis may be nil.
type RouterConfig struct {
	Handlers           *Handlers
	Authorizer         Authorizer
	DB                 dbPinger
	Redis              redisPinger
	RateLimitPerMinute int
	Log                *slog.Logger
}

// NewRouter builds and returns the Chi router with all routes configured.
// Health and metrics are unauthenticated; the weather route requires a grant
// for the "api" resource. Rate limiting is applied globally per IP.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(Recoverer(cfg.Log))
	if cfg.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimitPerMinute, time.Minute))
	}

	r.Get("/api/health", HealthHandlerFunc(cfg.DB, cfg.Redis, cfg.Log))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(Authorize(cfg.Authorizer, weatherResource, cfg.Log))
		r.Get(weatherRoute, cfg.Handlers.GetWeather)
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
