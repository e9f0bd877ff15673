package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/neexbeast/vetero/internal/geo"
)

const (
	msgInvalidCoordinate = "invalid latitude/longitude"
	msgServerError       = "server error occurred"
	msgUnauthorized      = "unauthorized"
)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	lookup Lookuper
	log    *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(lookup Lookuper, log *slog.Logger) *Handlers {
	return &Handlers{lookup: lookup, log: log}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// weatherResponse renders unresolved halves as empty objects.
type weatherResponse struct {
	Location any `json:"location"`
	Weather  any `json:"weather"`
}

var emptyObject = struct{}{}

// GetWeather handles GET /api/weather/{lat},{lon}.
func (h *Handlers) GetWeather(w http.ResponseWriter, r *http.Request) {
	coord, err := geo.ParseCoordinate(chi.URLParam(r, "lat"), chi.URLParam(r, "lon"))
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidCoordinate)
		return
	}

	res, err := h.lookup.Lookup(r.Context(), coord)
	if err != nil {
		h.log.Error("lookup failed", "coord", coord.String(), "err", err)
		writeError(w, http.StatusInternalServerError, msgServerError)
		return
	}

	resp := weatherResponse{Location: emptyObject, Weather: emptyObject}
	if res.Location != nil {
		resp.Location = res.Location
	}
	if res.Weather != nil {
		resp.Weather = res.Weather
	}

	writeJSON(w, http.StatusOK, resp)
}

// HealthHandlerFunc returns an http.HandlerFunc that checks db and redis connectivity.
// A nil redis reports "disabled" and does not affect the status.
func HealthHandlerFunc(db dbPinger, redis redisPinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		dbStatus := "ok"
		redisStatus := "disabled"

		if err := db.Ping(ctx); err != nil {
			log.Error("health check: db ping failed", "err", err)
			dbStatus = "error"
			status = http.StatusServiceUnavailable
		}

		if redis != nil {
			redisStatus = "ok"
			if err := redis.Ping(ctx); err != nil {
				log.Error("health check: redis ping failed", "err", err)
				redisStatus = "error"
				status = http.StatusServiceUnavailable
			}
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}

		writeJSON(w, status, map[string]string{
			"status": overall,
			"db":     dbStatus,
			"redis":  redisStatus,
		})
	}
}
